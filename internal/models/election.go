package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized           = errors.New("caller is not the administrator")
	ErrElectionNotFound       = errors.New("election is not found")
	ErrCandidateNotFound      = errors.New("candidate is not found")
	ErrInvalidTimeRange       = errors.New("election start should be before its end")
	ErrStartNotInFuture       = errors.New("election start should be in the future")
	ErrElectionAlreadyStarted = errors.New("election has already started")
	ErrElectionNotActive      = errors.New("election is not active")
	ErrAlreadyVoted           = errors.New("your vote already written")
	ErrInvalidCandidate       = errors.New("candidate is not valid for this election")
	ErrElectionNotEnded       = errors.New("election has not ended yet")
	ErrResultsNotPublished    = errors.New("results are not published")
	ErrAlreadyBootstrapped    = errors.New("administrator is already set")
	ErrEmptyIdentity          = errors.New("identity is empty")
	ErrNameIsEmpty            = errors.New("name is empty")
)

// Kind returns a short stable name for a ledger error, used as a metrics label.
// Errors outside the ledger taxonomy map to "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrElectionNotFound):
		return "election_not_found"
	case errors.Is(err, ErrCandidateNotFound):
		return "candidate_not_found"
	case errors.Is(err, ErrInvalidTimeRange):
		return "invalid_time_range"
	case errors.Is(err, ErrStartNotInFuture):
		return "start_not_in_future"
	case errors.Is(err, ErrElectionAlreadyStarted):
		return "election_already_started"
	case errors.Is(err, ErrElectionNotActive):
		return "election_not_active"
	case errors.Is(err, ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ErrInvalidCandidate):
		return "invalid_candidate"
	case errors.Is(err, ErrElectionNotEnded):
		return "election_not_ended"
	case errors.Is(err, ErrResultsNotPublished):
		return "results_not_published"
	case errors.Is(err, ErrAlreadyBootstrapped):
		return "already_bootstrapped"
	case errors.Is(err, ErrEmptyIdentity):
		return "empty_identity"
	case errors.Is(err, ErrNameIsEmpty):
		return "name_is_empty"
	default:
		return "internal"
	}
}

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusPublished Status = "published"
)

type Election struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Started reports whether candidates can no longer be added at now.
func (e Election) Started(now time.Time) bool {
	return !now.Before(e.Start)
}

// Active reports whether now is inside the closed window [Start, End].
func (e Election) Active(now time.Time) bool {
	return !now.Before(e.Start) && !now.After(e.End)
}

func (e Election) Ended(now time.Time) bool {
	return now.After(e.End)
}

type Candidate struct {
	ID         uint64 `json:"id"`
	ElectionID uint64 `json:"election_id"`
	Name       string `json:"name"`
	Info       string `json:"info"`
}

// ElectionView is what readers see of an election. It never carries tallies.
type ElectionView struct {
	Election
	CandidateCount   uint64 `json:"candidate_count"`
	ResultsPublished bool   `json:"results_published"`
	Status           Status `json:"status"`
}

type CandidateView struct {
	Candidate
}

type CandidateResult struct {
	Candidate
	Votes uint64 `json:"votes"`
}

type EventKind string

const (
	EventElectionCreated  EventKind = "election_created"
	EventCandidateAdded   EventKind = "candidate_added"
	EventVoteCast         EventKind = "vote_cast"
	EventResultsPublished EventKind = "results_published"
)

type Event struct {
	Seq         uint64    `json:"seq"`
	ID          uuid.UUID `json:"id"`
	Kind        EventKind `json:"kind"`
	ElectionID  uint64    `json:"election_id"`
	CandidateID *uint64   `json:"candidate_id,omitempty"`
	Actor       string    `json:"actor"`
	At          time.Time `json:"at"`
}

// Clone returns a copy of the event that shares no memory with e.
func (e Event) Clone() Event {
	if e.CandidateID != nil {
		id := *e.CandidateID
		e.CandidateID = &id
	}
	return e
}
