package repository

import (
	"sync"
	"time"

	"github.com/jaam8/election_bot/internal/eventlog"
	"github.com/jaam8/election_bot/internal/models"
	"go.uber.org/zap"
)

// ResultsGate holds the per-election published flag and is the only way to
// read a tally.
type ResultsGate struct {
	store  *ElectionStore
	events *eventlog.Log
	l      *zap.Logger

	mu        sync.RWMutex
	published map[uint64]bool
}

// NewResultsGate returns a gate with every election unpublished.
func NewResultsGate(store *ElectionStore, events *eventlog.Log, l *zap.Logger) *ResultsGate {
	return &ResultsGate{
		store:     store,
		events:    events,
		l:         l,
		published: make(map[uint64]bool),
	}
}

// Publish flips the flag once the election has ended. Publishing twice is not
// an error; changed is false and no event is appended the second time.
func (r *ResultsGate) Publish(actor string, electionID uint64, now time.Time) (event models.Event, changed bool, err error) {
	err = r.store.update(electionID, func(tx electionTx) error {
		election := tx.Election()
		if !election.Ended(now) {
			r.l.Debug("election has not ended",
				zap.Uint64("election_id", electionID),
				zap.Time("end", election.End),
				zap.Time("now", now))
			return models.ErrElectionNotEnded
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.published[electionID] {
			return nil
		}
		r.published[electionID] = true
		changed = true
		event = r.events.Append(models.Event{
			Kind:       models.EventResultsPublished,
			ElectionID: electionID,
			Actor:      actor,
			At:         now,
		})
		return nil
	})
	return event, changed, err
}

// Published reports whether the election results are visible.
func (r *ResultsGate) Published(electionID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.published[electionID]
}

// VoteCount returns one tally. Checks run in order: election exists,
// candidate exists, results published.
func (r *ResultsGate) VoteCount(electionID, candidateID uint64) (uint64, error) {
	var count uint64
	err := r.store.view(electionID, func(tx electionTx) error {
		if !tx.hasCandidate(candidateID) {
			return models.ErrCandidateNotFound
		}
		if !r.Published(electionID) {
			return models.ErrResultsNotPublished
		}
		count = tx.votes(candidateID)
		return nil
	})
	return count, err
}

// Results returns every candidate with its tally, ordered by candidate id.
func (r *ResultsGate) Results(electionID uint64) ([]models.CandidateResult, error) {
	var out []models.CandidateResult
	err := r.store.view(electionID, func(tx electionTx) error {
		if !r.Published(electionID) {
			return models.ErrResultsNotPublished
		}
		out = make([]models.CandidateResult, len(tx.rec.candidates))
		for i, c := range tx.rec.candidates {
			out[i] = models.CandidateResult{Candidate: c, Votes: tx.rec.votes[i]}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
