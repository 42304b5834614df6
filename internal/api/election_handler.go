package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jaam8/election_bot/internal/service"
	"github.com/mattermost/mattermost-server/v6/model"
	"go.uber.org/zap"
)

const (
	COMMAND     = "/election"
	HelpMessage = "i know only this command:\n" +
		"- `/election bootstrap`\n" +
		"- `/election create \"name\" \"description\" start end` (times in RFC3339)\n" +
		"- `/election candidate election_id \"name\" \"info\"`\n" +
		"- `/election vote election_id candidate_id`\n" +
		"- `/election publish election_id`\n" +
		"- `/election show election_id`\n" +
		"- `/election voted election_id`\n" +
		"- `/election results election_id`\n" +
		"- `/election help`"
	somethingWentWrong = "something went wrong"
)

// Poster is the part of the Mattermost client the handler needs.
type Poster interface {
	CreatePost(post *model.Post) (*model.Post, *model.Response, error)
	CreatePostEphemeral(post *model.PostEphemeral) (*model.Post, *model.Response, error)
}

// Reply is the answer to one command. Ephemeral replies are only shown to the caller.
type Reply struct {
	Message   string
	Ephemeral bool
}

func public(format string, args ...interface{}) Reply {
	return Reply{Message: fmt.Sprintf(format, args...)}
}

func private(format string, args ...interface{}) Reply {
	return Reply{Message: fmt.Sprintf(format, args...), Ephemeral: true}
}

type ElectionHandler struct {
	s         *service.ElectionService
	l         *zap.Logger
	client    Poster
	channelID string
}

func New(s *service.ElectionService, l *zap.Logger, client Poster, channelID string) *ElectionHandler {
	return &ElectionHandler{
		s:         s,
		l:         l,
		client:    client,
		channelID: channelID,
	}
}

// HandleMessage answers a posted websocket event if it is an election command.
func (h *ElectionHandler) HandleMessage(ctx context.Context, event *model.WebSocketEvent, botID string) {
	raw, ok := event.GetData()["post"].(string)
	if !ok {
		h.l.Error("post is missing from event")
		return
	}
	post := &model.Post{}
	if err := json.Unmarshal([]byte(raw), post); err != nil {
		h.l.Error("error unmarshalling post", zap.Error(err))
		return
	}
	if post.UserId == botID {
		return
	}
	if !strings.HasPrefix(strings.TrimSpace(post.Message), COMMAND) {
		return
	}

	reply := h.Execute(ctx, post.UserId, post.Message)
	if reply.Message == "" {
		return
	}
	if err := h.send(post, reply); err != nil {
		h.l.Error("failed sending reply", zap.String("user_id", post.UserId), zap.Error(err))
	}
}

// Execute runs one command line on behalf of userID.
func (h *ElectionHandler) Execute(ctx context.Context, userID, message string) Reply {
	args, err := splitArgs(message)
	if err != nil {
		return private("%s\n%s", err, HelpMessage)
	}
	if len(args) == 0 || args[0] != COMMAND {
		return Reply{}
	}
	if len(args) < 2 {
		return Reply{Message: HelpMessage, Ephemeral: true}
	}
	h.l.Info("new request for the bot",
		zap.String("command", args[0]),
		zap.String("subcommand", args[1]),
		zap.String("user_id", userID),
		zap.String("message", message))

	params := args[2:]
	switch args[1] {
	case "bootstrap":
		return h.bootstrap(ctx, userID)
	case "create":
		return h.createElection(ctx, userID, params)
	case "candidate":
		return h.addCandidate(ctx, userID, params)
	case "vote":
		return h.vote(ctx, userID, params)
	case "publish":
		return h.publish(ctx, userID, params)
	case "show":
		return h.show(params)
	case "voted":
		return h.voted(userID, params)
	case "results":
		return h.results(params)
	default:
		return Reply{Message: HelpMessage, Ephemeral: true}
	}
}

func (h *ElectionHandler) bootstrap(ctx context.Context, userID string) Reply {
	if err := h.s.Bootstrap(ctx, userID); err != nil {
		return h.fail("bootstrap", err)
	}
	return private("you are now the administrator")
}

func (h *ElectionHandler) createElection(ctx context.Context, userID string, params []string) Reply {
	if len(params) != 4 {
		return private("usage: `/election create \"name\" \"description\" start end`")
	}
	start, err := parseTime(params[2])
	if err != nil {
		return private("start: %s", err)
	}
	end, err := parseTime(params[3])
	if err != nil {
		return private("end: %s", err)
	}
	h.l.Debug("data for creating new election",
		zap.String("name", params[0]),
		zap.String("creator_id", userID),
		zap.Time("start", start),
		zap.Time("end", end))
	id, err := h.s.CreateElection(ctx, userID, params[0], params[1], start, end)
	if err != nil {
		return h.fail("create election", err)
	}
	return public("**Election ID**: %d\n**Name**: %s\n**Description**: %s\n**Voting**: %s → %s\n",
		id, params[0], params[1], start.Format(time.RFC3339), end.Format(time.RFC3339))
}

func (h *ElectionHandler) addCandidate(ctx context.Context, userID string, params []string) Reply {
	if len(params) < 2 || len(params) > 3 {
		return private("usage: `/election candidate election_id \"name\" \"info\"`")
	}
	electionID, err := parseID(params[0])
	if err != nil {
		return private("election_id: %s", err)
	}
	var info string
	if len(params) == 3 {
		info = params[2]
	}
	id, err := h.s.AddCandidate(ctx, userID, electionID, params[1], info)
	if err != nil {
		return h.fail("add candidate", err)
	}
	return public("election %d: added candidate [%d] *%s*", electionID, id, params[1])
}

func (h *ElectionHandler) vote(ctx context.Context, userID string, params []string) Reply {
	if len(params) != 2 {
		return private("usage: `/election vote election_id candidate_id`")
	}
	electionID, err := parseID(params[0])
	if err != nil {
		return private("election_id: %s", err)
	}
	candidateID, err := parseID(params[1])
	if err != nil {
		return private("candidate_id: %s", err)
	}
	if err = h.s.CastVote(ctx, userID, electionID, candidateID); err != nil {
		return h.fail("vote", err)
	}
	return private("your vote successfully written")
}

func (h *ElectionHandler) publish(ctx context.Context, userID string, params []string) Reply {
	electionID, reply, ok := h.electionParam(params, "publish")
	if !ok {
		return reply
	}
	if err := h.s.PublishResults(ctx, userID, electionID); err != nil {
		return h.fail("publish results", err)
	}
	return public("results of election %d are published, see `/election results %d`", electionID, electionID)
}

func (h *ElectionHandler) show(params []string) Reply {
	electionID, reply, ok := h.electionParam(params, "show")
	if !ok {
		return reply
	}
	view, err := h.s.GetElection(electionID)
	if err != nil {
		return h.fail("show election", err)
	}
	candidates, err := h.s.ListCandidates(electionID)
	if err != nil {
		return h.fail("show election", err)
	}
	message := fmt.Sprintf("**Election %d**: %s (%s)\n%s\n**Voting**: %s → %s\n**Candidates**:\n",
		view.ID, view.Name, view.Status, view.Description,
		view.Start.Format(time.RFC3339), view.End.Format(time.RFC3339))
	for _, c := range candidates {
		message += fmt.Sprintf("  [%d] *%s* %s\n", c.ID, c.Name, c.Info)
	}
	return Reply{Message: message, Ephemeral: true}
}

func (h *ElectionHandler) voted(userID string, params []string) Reply {
	electionID, reply, ok := h.electionParam(params, "voted")
	if !ok {
		return reply
	}
	voted, err := h.s.HasVoted(electionID, userID)
	if err != nil {
		return h.fail("has voted", err)
	}
	if voted {
		return private("you have voted in election %d", electionID)
	}
	return private("you have not voted in election %d", electionID)
}

func (h *ElectionHandler) results(params []string) Reply {
	electionID, reply, ok := h.electionParam(params, "results")
	if !ok {
		return reply
	}
	view, err := h.s.GetElection(electionID)
	if err != nil {
		return h.fail("get results", err)
	}
	results, err := h.s.GetResults(electionID)
	if err != nil {
		return h.fail("get results", err)
	}
	message := fmt.Sprintf("**Election**: %s\n", view.Name)
	for _, r := range results {
		message += fmt.Sprintf("  [%d] votes: **%d** (*%s*)\n", r.ID, r.Votes, r.Name)
	}
	return Reply{Message: message}
}

func (h *ElectionHandler) electionParam(params []string, sub string) (uint64, Reply, bool) {
	if len(params) != 1 {
		return 0, private("usage: `/election %s election_id`", sub), false
	}
	id, err := parseID(params[0])
	if err != nil {
		return 0, private("election_id: %s", err), false
	}
	return id, Reply{}, true
}

// fail turns ledger errors into a message for the caller and hides everything else.
func (h *ElectionHandler) fail(op string, err error) Reply {
	if service.IsLedgerError(err) {
		h.l.Warn("request rejected", zap.String("operation", op), zap.Error(err))
		return Reply{Message: err.Error(), Ephemeral: true}
	}
	h.l.Error("request failed", zap.String("operation", op), zap.Error(err))
	return Reply{Message: somethingWentWrong, Ephemeral: true}
}

func (h *ElectionHandler) send(post *model.Post, reply Reply) error {
	if reply.Ephemeral {
		_, _, err := h.client.CreatePostEphemeral(&model.PostEphemeral{
			UserID: post.UserId,
			Post:   &model.Post{ChannelId: post.ChannelId, Message: reply.Message},
		})
		return err
	}
	return h.SendMsg(post.ChannelId, reply.Message)
}

// SendMsg posts to channelID, falling back to the configured channel.
func (h *ElectionHandler) SendMsg(channelID, message string) error {
	if channelID == "" {
		channelID = h.channelID
	}
	post := &model.Post{
		ChannelId: channelID,
		Message:   message,
	}
	_, resp, err := h.client.CreatePost(post)
	if resp != nil {
		h.l.Debug("send new message",
			zap.String("channel_id", channelID),
			zap.Int("status_code", resp.StatusCode))
	}
	if err != nil {
		return err
	}
	return nil
}
