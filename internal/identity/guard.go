// Package identity decides which caller is the administrator of the ledger.
//
// The administrator is fixed by the first successful Bootstrap call and can
// never be changed afterwards.
package identity

import (
	"strings"
	"sync"

	"github.com/jaam8/election_bot/internal/models"
	"go.uber.org/zap"
)

// Guard holds the administrator identity.
type Guard struct {
	mu    sync.RWMutex
	admin string
	l     *zap.Logger
}

// New returns a guard with no administrator set.
func New(l *zap.Logger) *Guard {
	return &Guard{l: l}
}

// Bootstrap sets id as the administrator. Only the first call with a
// non-empty id succeeds.
func (g *Guard) Bootstrap(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.ErrEmptyIdentity
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.admin != "" {
		g.l.Debug("administrator already set",
			zap.String("admin_id", g.admin),
			zap.String("caller_id", id))
		return models.ErrAlreadyBootstrapped
	}
	g.admin = id
	g.l.Info("administrator set", zap.String("admin_id", id))
	return nil
}

// IsAdministrator is false for everyone until Bootstrap succeeded.
func (g *Guard) IsAdministrator(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.admin != "" && g.admin == id
}

// Administrator returns the administrator id and whether one is set.
func (g *Guard) Administrator() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.admin, g.admin != ""
}

// Authorize returns models.ErrUnauthorized unless id is the administrator.
func (g *Guard) Authorize(id string) error {
	if !g.IsAdministrator(id) {
		return models.ErrUnauthorized
	}
	return nil
}
