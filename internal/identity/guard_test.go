package identity

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jaam8/election_bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGuardBootstrap(t *testing.T) {
	g := New(zap.NewNop())

	assert.False(t, g.IsAdministrator(""))
	assert.False(t, g.IsAdministrator("alice"))
	assert.ErrorIs(t, g.Authorize("alice"), models.ErrUnauthorized)

	assert.ErrorIs(t, g.Bootstrap("   "), models.ErrEmptyIdentity)
	require.NoError(t, g.Bootstrap("alice"))
	assert.ErrorIs(t, g.Bootstrap("bob"), models.ErrAlreadyBootstrapped)
	assert.ErrorIs(t, g.Bootstrap("alice"), models.ErrAlreadyBootstrapped)

	admin, ok := g.Administrator()
	assert.True(t, ok)
	assert.Equal(t, "alice", admin)
	assert.True(t, g.IsAdministrator("alice"))
	assert.False(t, g.IsAdministrator("bob"))
	assert.NoError(t, g.Authorize("alice"))
	assert.ErrorIs(t, g.Authorize("bob"), models.ErrUnauthorized)
}

func TestGuardConcurrentBootstrap(t *testing.T) {
	g := New(zap.NewNop())

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	callers := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range callers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if g.Bootstrap(id) == nil {
				wins.Add(1)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	admin, ok := g.Administrator()
	require.True(t, ok)
	assert.Contains(t, callers, admin)
}
