package repository

import (
	"sync"
	"time"

	"github.com/jaam8/election_bot/internal/eventlog"
	"github.com/jaam8/election_bot/internal/models"
	"go.uber.org/zap"
)

type ballotKey struct {
	electionID uint64
	voter      string
}

// BallotLedger remembers who has voted in which election. An entry, once
// written, is never removed.
type BallotLedger struct {
	store  *ElectionStore
	events *eventlog.Log
	l      *zap.Logger

	mu      sync.RWMutex
	ballots map[ballotKey]struct{}
	turnout map[uint64]uint64
}

// NewBallotLedger returns an empty ledger over store.
func NewBallotLedger(store *ElectionStore, events *eventlog.Log, l *zap.Logger) *BallotLedger {
	return &BallotLedger{
		store:   store,
		events:  events,
		l:       l,
		ballots: make(map[ballotKey]struct{}),
		turnout: make(map[uint64]uint64),
	}
}

// CastVote records the ballot and bumps the candidate tally as one step under
// the election lock. Checks run in a fixed order: election exists, window is
// open, voter has not voted, candidate is valid.
func (r *BallotLedger) CastVote(voter string, electionID, candidateID uint64, now time.Time) (models.Event, error) {
	var event models.Event
	err := r.store.update(electionID, func(tx electionTx) error {
		election := tx.Election()
		if !election.Active(now) {
			r.l.Debug("election is not active",
				zap.Uint64("election_id", electionID),
				zap.Time("start", election.Start),
				zap.Time("end", election.End),
				zap.Time("now", now))
			return models.ErrElectionNotActive
		}
		if r.HasVoted(electionID, voter) {
			r.l.Debug("vote already exist",
				zap.Uint64("election_id", electionID),
				zap.String("voter", voter))
			return models.ErrAlreadyVoted
		}
		if !tx.hasCandidate(candidateID) {
			r.l.Debug("invalid candidate",
				zap.Uint64("election_id", electionID),
				zap.Uint64("candidate_id", candidateID))
			return models.ErrInvalidCandidate
		}
		if err := r.record(electionID, voter); err != nil {
			return err
		}
		tx.incrementVote(candidateID)
		cid := candidateID
		event = r.events.Append(models.Event{
			Kind:        models.EventVoteCast,
			ElectionID:  electionID,
			CandidateID: &cid,
			Actor:       voter,
			At:          now,
		})
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	r.l.Debug("ballot stored",
		zap.Uint64("election_id", electionID),
		zap.String("voter", voter))
	return event, nil
}

// HasVoted does not check that the election exists.
func (r *BallotLedger) HasVoted(electionID uint64, voter string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ballots[ballotKey{electionID: electionID, voter: voter}]
	return ok
}

// Turnout is the number of distinct voters in an election.
func (r *BallotLedger) Turnout(electionID uint64) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.turnout[electionID]
}

func (r *BallotLedger) record(electionID uint64, voter string) error {
	key := ballotKey{electionID: electionID, voter: voter}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ballots[key]; ok {
		return models.ErrAlreadyVoted
	}
	r.ballots[key] = struct{}{}
	r.turnout[electionID]++
	return nil
}
