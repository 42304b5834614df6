package repository

import (
	"strings"
	"sync"
	"time"

	"github.com/jaam8/election_bot/internal/eventlog"
	"github.com/jaam8/election_bot/internal/models"
	"go.uber.org/zap"
)

type electionRecord struct {
	mu         sync.RWMutex
	election   models.Election
	candidates []models.Candidate
	votes      []uint64
}

// electionTx is the view of one election handed out while its lock is held.
type electionTx struct {
	rec *electionRecord
}

// Election returns the election the transaction is bound to.
func (tx electionTx) Election() models.Election {
	return tx.rec.election
}

func (tx electionTx) hasCandidate(candidateID uint64) bool {
	return candidateID < uint64(len(tx.rec.candidates))
}

func (tx electionTx) votes(candidateID uint64) uint64 {
	return tx.rec.votes[candidateID]
}

func (tx electionTx) incrementVote(candidateID uint64) {
	tx.rec.votes[candidateID]++
}

// ElectionStore owns every election and its candidate roster. Records are
// append-only: nothing is ever edited or removed.
type ElectionStore struct {
	mu        sync.RWMutex
	elections []*electionRecord
	events    *eventlog.Log
	l         *zap.Logger
}

// NewElectionStore returns an empty store appending to events.
func NewElectionStore(events *eventlog.Log, l *zap.Logger) *ElectionStore {
	return &ElectionStore{
		events: events,
		l:      l,
	}
}

// CreateElection stores a new election with the next sequential id. The id
// is only allocated once every check has passed.
func (r *ElectionStore) CreateElection(actor, name, description string, start, end time.Time, now time.Time) (models.Election, models.Event, error) {
	if strings.TrimSpace(name) == "" {
		return models.Election{}, models.Event{}, models.ErrNameIsEmpty
	}
	if !start.Before(end) {
		r.l.Debug("invalid time range",
			zap.Time("start", start),
			zap.Time("end", end))
		return models.Election{}, models.Event{}, models.ErrInvalidTimeRange
	}
	if !start.After(now) {
		r.l.Debug("start is not in the future",
			zap.Time("start", start),
			zap.Time("now", now))
		return models.Election{}, models.Event{}, models.ErrStartNotInFuture
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	election := models.Election{
		ID:          uint64(len(r.elections)),
		Name:        name,
		Description: description,
		Start:       start,
		End:         end,
	}
	r.elections = append(r.elections, &electionRecord{election: election})
	event := r.events.Append(models.Event{
		Kind:       models.EventElectionCreated,
		ElectionID: election.ID,
		Actor:      actor,
		At:         now,
	})
	r.l.Debug("election stored", zap.Any("election", election))
	return election, event, nil
}

// AddCandidate appends a candidate to an election that has not started yet.
func (r *ElectionStore) AddCandidate(actor string, electionID uint64, name, info string, now time.Time) (models.Candidate, models.Event, error) {
	rec, err := r.record(electionID)
	if err != nil {
		return models.Candidate{}, models.Event{}, err
	}
	if strings.TrimSpace(name) == "" {
		return models.Candidate{}, models.Event{}, models.ErrNameIsEmpty
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.election.Started(now) {
		r.l.Debug("election already started",
			zap.Uint64("election_id", electionID),
			zap.Time("start", rec.election.Start),
			zap.Time("now", now))
		return models.Candidate{}, models.Event{}, models.ErrElectionAlreadyStarted
	}
	candidate := models.Candidate{
		ID:         uint64(len(rec.candidates)),
		ElectionID: electionID,
		Name:       name,
		Info:       info,
	}
	rec.candidates = append(rec.candidates, candidate)
	rec.votes = append(rec.votes, 0)
	candidateID := candidate.ID
	event := r.events.Append(models.Event{
		Kind:        models.EventCandidateAdded,
		ElectionID:  electionID,
		CandidateID: &candidateID,
		Actor:       actor,
		At:          now,
	})
	r.l.Debug("candidate stored", zap.Any("candidate", candidate))
	return candidate, event, nil
}

// Count is the number of elections ever created.
func (r *ElectionStore) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.elections))
}

// Election returns the election or models.ErrElectionNotFound.
func (r *ElectionStore) Election(electionID uint64) (models.Election, error) {
	rec, err := r.record(electionID)
	if err != nil {
		return models.Election{}, err
	}
	// The election itself is immutable after creation.
	return rec.election, nil
}

// CandidateCount is the size of the election roster.
func (r *ElectionStore) CandidateCount(electionID uint64) (uint64, error) {
	rec, err := r.record(electionID)
	if err != nil {
		return 0, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return uint64(len(rec.candidates)), nil
}

// Candidate returns one roster entry without its tally.
func (r *ElectionStore) Candidate(electionID, candidateID uint64) (models.Candidate, error) {
	rec, err := r.record(electionID)
	if err != nil {
		return models.Candidate{}, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if candidateID >= uint64(len(rec.candidates)) {
		r.l.Debug("candidate not found",
			zap.Uint64("election_id", electionID),
			zap.Uint64("candidate_id", candidateID))
		return models.Candidate{}, models.ErrCandidateNotFound
	}
	return rec.candidates[candidateID], nil
}

// Candidates returns a copy of the roster ordered by candidate id.
func (r *ElectionStore) Candidates(electionID uint64) ([]models.Candidate, error) {
	rec, err := r.record(electionID)
	if err != nil {
		return nil, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	out := make([]models.Candidate, len(rec.candidates))
	copy(out, rec.candidates)
	return out, nil
}

// update runs fn with the election locked for writing.
func (r *ElectionStore) update(electionID uint64, fn func(tx electionTx) error) error {
	rec, err := r.record(electionID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return fn(electionTx{rec: rec})
}

// view runs fn with the election locked for reading.
func (r *ElectionStore) view(electionID uint64, fn func(tx electionTx) error) error {
	rec, err := r.record(electionID)
	if err != nil {
		return err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return fn(electionTx{rec: rec})
}

func (r *ElectionStore) record(electionID uint64) (*electionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if electionID >= uint64(len(r.elections)) {
		r.l.Debug("election not found", zap.Uint64("election_id", electionID))
		return nil, models.ErrElectionNotFound
	}
	return r.elections[electionID], nil
}
