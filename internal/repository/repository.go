package repository

import (
	"github.com/jaam8/election_bot/internal/eventlog"
	"go.uber.org/zap"
)

// Repository bundles the in-memory ledger stores that share one event log.
type Repository struct {
	Elections *ElectionStore
	Ballots   *BallotLedger
	Results   *ResultsGate
}

func New(events *eventlog.Log, l *zap.Logger) *Repository {
	store := NewElectionStore(events, l)
	return &Repository{
		Elections: store,
		Ballots:   NewBallotLedger(store, events, l),
		Results:   NewResultsGate(store, events, l),
	}
}
