package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jaam8/election_bot/internal/clock"
	"github.com/jaam8/election_bot/internal/eventlog"
	"github.com/jaam8/election_bot/internal/identity"
	"github.com/jaam8/election_bot/internal/metrics"
	"github.com/jaam8/election_bot/internal/repository"
	"github.com/jaam8/election_bot/internal/service"
	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type fakePoster struct {
	posts     []*model.Post
	ephemeral []*model.PostEphemeral
}

func (f *fakePoster) CreatePost(post *model.Post) (*model.Post, *model.Response, error) {
	f.posts = append(f.posts, post)
	return post, &model.Response{StatusCode: 201}, nil
}

func (f *fakePoster) CreatePostEphemeral(post *model.PostEphemeral) (*model.Post, *model.Response, error) {
	f.ephemeral = append(f.ephemeral, post)
	return post.Post, &model.Response{StatusCode: 201}, nil
}

func newTestHandler() (*ElectionHandler, *fakePoster, *clock.Manual) {
	l := zap.NewNop()
	events := eventlog.New(l)
	clk := clock.NewManual(t0)
	s := service.New(repository.New(events, l), identity.New(l), events, clk, metrics.New(nil), l)
	poster := &fakePoster{}
	return New(s, l, poster, "town-square"), poster, clk
}

func TestExecuteElectionLifecycle(t *testing.T) {
	ctx := context.Background()
	h, _, clk := newTestHandler()

	reply := h.Execute(ctx, "admin", "/election bootstrap")
	assert.Equal(t, private("you are now the administrator"), reply)

	reply = h.Execute(ctx, "bob", "/election bootstrap")
	assert.Equal(t, "administrator is already set", reply.Message)

	reply = h.Execute(ctx, "bob", `/election create "Board" "yearly" 2026-10-17T12:00:10Z 2026-10-17T12:00:20Z`)
	assert.Equal(t, "caller is not the administrator", reply.Message)

	reply = h.Execute(ctx, "admin", `/election create "Board" "yearly" 2026-10-17T12:00:10Z 2026-10-17T12:00:20Z`)
	assert.False(t, reply.Ephemeral)
	assert.Contains(t, reply.Message, "**Election ID**: 0")

	reply = h.Execute(ctx, "admin", `/election candidate 0 "Ada" "math"`)
	assert.Equal(t, public("election 0: added candidate [0] *Ada*"), reply)
	reply = h.Execute(ctx, "admin", `/election candidate 0 "Grace"`)
	assert.Equal(t, public("election 0: added candidate [1] *Grace*"), reply)

	reply = h.Execute(ctx, "v1", "/election vote 0 0")
	assert.Equal(t, "election is not active", reply.Message)

	clk.Set(t0.Add(15 * time.Second))
	reply = h.Execute(ctx, "v1", "/election vote 0 0")
	assert.Equal(t, private("your vote successfully written"), reply)
	reply = h.Execute(ctx, "v1", "/election vote 0 1")
	assert.Equal(t, "your vote already written", reply.Message)

	reply = h.Execute(ctx, "v1", "/election voted 0")
	assert.Equal(t, "you have voted in election 0", reply.Message)
	reply = h.Execute(ctx, "v2", "/election voted 0")
	assert.Equal(t, "you have not voted in election 0", reply.Message)

	reply = h.Execute(ctx, "v1", "/election show 0")
	assert.True(t, reply.Ephemeral)
	assert.Contains(t, reply.Message, "Board (active)")
	assert.Contains(t, reply.Message, "[1] *Grace*")
	assert.NotContains(t, reply.Message, "votes")

	reply = h.Execute(ctx, "v1", "/election results 0")
	assert.Equal(t, "results are not published", reply.Message)

	reply = h.Execute(ctx, "admin", "/election publish 0")
	assert.Equal(t, "election has not ended yet", reply.Message)

	clk.Set(t0.Add(25 * time.Second))
	reply = h.Execute(ctx, "admin", "/election publish 0")
	assert.False(t, reply.Ephemeral)

	reply = h.Execute(ctx, "v1", "/election results 0")
	assert.False(t, reply.Ephemeral)
	assert.Contains(t, reply.Message, "[0] votes: **1** (*Ada*)")
	assert.Contains(t, reply.Message, "[1] votes: **0** (*Grace*)")
}

func TestExecuteBadInput(t *testing.T) {
	ctx := context.Background()
	h, _, _ := newTestHandler()

	tests := []struct {
		message string
		want    string
	}{
		{message: "/election", want: HelpMessage},
		{message: "/election dance", want: HelpMessage},
		{message: "/election vote 0", want: "usage: `/election vote election_id candidate_id`"},
		{message: "/election vote x 0", want: "election_id: " + ErrBadID.Error()},
		{message: "/election vote 0 x", want: "candidate_id: " + ErrBadID.Error()},
		{message: "/election show", want: "usage: `/election show election_id`"},
		{message: "/election show 3", want: "election is not found"},
		{message: `/election create "a" "b" soon later`, want: "start: " + ErrBadTime.Error()},
		{message: `/election create "a" "b" 2026-10-18T00:00:00Z later`, want: "end: " + ErrBadTime.Error()},
	}
	for _, tc := range tests {
		reply := h.Execute(ctx, "user", tc.message)
		assert.True(t, reply.Ephemeral, tc.message)
		assert.Equal(t, tc.want, reply.Message, tc.message)
	}

	assert.Equal(t, Reply{}, h.Execute(ctx, "user", "hello there"))
}

func websocketPost(t *testing.T, userID, message string) *model.WebSocketEvent {
	t.Helper()
	raw, err := json.Marshal(&model.Post{UserId: userID, ChannelId: "town-square", Message: message})
	require.NoError(t, err)
	event := model.NewWebSocketEvent(model.WebsocketEventPosted, "", "town-square", "", nil)
	event.Add("post", string(raw))
	return event
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	h, poster, _ := newTestHandler()

	h.HandleMessage(ctx, websocketPost(t, "bot", "/election help"), "bot")
	assert.Empty(t, poster.posts)
	assert.Empty(t, poster.ephemeral)

	h.HandleMessage(ctx, websocketPost(t, "u1", "just chatting"), "bot")
	assert.Empty(t, poster.ephemeral)

	h.HandleMessage(ctx, websocketPost(t, "u1", "/election help"), "bot")
	require.Len(t, poster.ephemeral, 1)
	assert.Equal(t, "u1", poster.ephemeral[0].UserID)
	assert.Equal(t, HelpMessage, poster.ephemeral[0].Post.Message)

	h.HandleMessage(ctx, websocketPost(t, "u1", "/election bootstrap"), "bot")
	h.HandleMessage(ctx, websocketPost(t, "u1", `/election create "Board" "" 2026-10-17T13:00:00Z 2026-10-17T14:00:00Z`), "bot")
	require.Len(t, poster.posts, 1)
	assert.Equal(t, "town-square", poster.posts[0].ChannelId)
	assert.Contains(t, poster.posts[0].Message, "**Name**: Board")
}

func TestSendMsgFallsBackToConfiguredChannel(t *testing.T) {
	h, poster, _ := newTestHandler()
	require.NoError(t, h.SendMsg("", "hello"))
	require.Len(t, poster.posts, 1)
	assert.Equal(t, "town-square", poster.posts[0].ChannelId)
}
