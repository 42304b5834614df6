// Package eventlog keeps the ordered, append-only audit trail of ledger
// state transitions.
package eventlog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jaam8/election_bot/internal/models"
	"go.uber.org/zap"
)

// Sink receives a copy of every appended event, e.g. an external audit store.
type Sink interface {
	Record(ctx context.Context, event models.Event) error
}

type Log struct {
	mu      sync.RWMutex
	entries []models.Event
	sinks   []Sink
	l       *zap.Logger
}

func New(l *zap.Logger, sinks ...Sink) *Log {
	return &Log{
		sinks: sinks,
		l:     l,
	}
}

// Append stores the event, stamping its sequence number and id. It never
// fails and never touches prior entries.
func (g *Log) Append(event models.Event) models.Event {
	g.mu.Lock()
	event.Seq = uint64(len(g.entries))
	event.ID = uuid.New()
	g.entries = append(g.entries, event.Clone())
	g.mu.Unlock()

	g.l.Debug("event appended",
		zap.Uint64("seq", event.Seq),
		zap.String("kind", string(event.Kind)),
		zap.Uint64("election_id", event.ElectionID),
		zap.String("actor", event.Actor))
	return event.Clone()
}

// Mirror hands the event to every sink. Sink failures are logged and
// swallowed so the ledger never depends on audit storage being reachable.
func (g *Log) Mirror(ctx context.Context, event models.Event) {
	for _, sink := range g.sinks {
		if err := sink.Record(ctx, event.Clone()); err != nil {
			g.l.Error("failed to mirror event",
				zap.Uint64("seq", event.Seq),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
		}
	}
}

func (g *Log) Entries() []models.Event {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.Event, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.Clone()
	}
	return out
}

func (g *Log) EntriesFor(electionID uint64) []models.Event {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []models.Event
	for _, e := range g.entries {
		if e.ElectionID == electionID {
			out = append(out, e.Clone())
		}
	}
	return out
}

func (g *Log) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}
