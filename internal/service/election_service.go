package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jaam8/election_bot/internal/clock"
	"github.com/jaam8/election_bot/internal/eventlog"
	"github.com/jaam8/election_bot/internal/identity"
	"github.com/jaam8/election_bot/internal/metrics"
	"github.com/jaam8/election_bot/internal/models"
	"github.com/jaam8/election_bot/internal/repository"
	"go.uber.org/zap"
)

// ElectionService is the operation set offered to clients. Every operation
// reads the clock once and runs its checks in a fixed order.
type ElectionService struct {
	r      *repository.Repository
	guard  *identity.Guard
	events *eventlog.Log
	clock  clock.Clock
	m      *metrics.Metrics
	l      *zap.Logger
}

func New(r *repository.Repository, guard *identity.Guard, events *eventlog.Log,
	clk clock.Clock, m *metrics.Metrics, l *zap.Logger) *ElectionService {
	return &ElectionService{
		r:      r,
		guard:  guard,
		events: events,
		clock:  clk,
		m:      m,
		l:      l,
	}
}

// Bootstrap makes caller the administrator if nobody is yet.
func (s *ElectionService) Bootstrap(_ context.Context, caller string) (err error) {
	defer func() { s.m.Observe(metrics.OpBootstrap, err) }()
	return s.guard.Bootstrap(caller)
}

func (s *ElectionService) Administrator() (string, bool) {
	return s.guard.Administrator()
}

func (s *ElectionService) CreateElection(ctx context.Context, caller, name, description string, start, end time.Time) (id uint64, err error) {
	defer func() { s.m.Observe(metrics.OpCreateElection, err) }()
	s.l.Debug("creating election",
		zap.String("caller", caller),
		zap.String("name", name),
		zap.Time("start", start),
		zap.Time("end", end))

	if err = s.guard.Authorize(caller); err != nil {
		s.l.Warn("unauthorized create election", zap.String("caller", caller))
		return 0, err
	}
	now := s.clock.Now()
	election, event, err := s.r.Elections.CreateElection(caller, name, description, start, end, now)
	if err != nil {
		return 0, s.reject("create election", err)
	}
	s.events.Mirror(ctx, event)
	s.m.SetElections(s.r.Elections.Count())
	s.l.Info("election created",
		zap.Uint64("election_id", election.ID),
		zap.String("name", election.Name))
	return election.ID, nil
}

func (s *ElectionService) AddCandidate(ctx context.Context, caller string, electionID uint64, name, info string) (id uint64, err error) {
	defer func() { s.m.Observe(metrics.OpAddCandidate, err) }()
	if err = s.guard.Authorize(caller); err != nil {
		s.l.Warn("unauthorized add candidate", zap.String("caller", caller))
		return 0, err
	}
	now := s.clock.Now()
	candidate, event, err := s.r.Elections.AddCandidate(caller, electionID, name, info, now)
	if err != nil {
		return 0, s.reject("add candidate", err)
	}
	s.events.Mirror(ctx, event)
	s.l.Info("candidate added",
		zap.Uint64("election_id", electionID),
		zap.Uint64("candidate_id", candidate.ID),
		zap.String("name", candidate.Name))
	return candidate.ID, nil
}

func (s *ElectionService) CastVote(ctx context.Context, voter string, electionID, candidateID uint64) (err error) {
	defer func() { s.m.Observe(metrics.OpCastVote, err) }()
	now := s.clock.Now()
	event, err := s.r.Ballots.CastVote(voter, electionID, candidateID, now)
	if err != nil {
		return s.reject("cast vote", err)
	}
	s.events.Mirror(ctx, event)
	s.m.VoteCast()
	s.l.Info("voted successfully",
		zap.Uint64("election_id", electionID),
		zap.String("voter", voter))
	return nil
}

// PublishResults is idempotent: publishing an already published election succeeds.
func (s *ElectionService) PublishResults(ctx context.Context, caller string, electionID uint64) (err error) {
	defer func() { s.m.Observe(metrics.OpPublishResults, err) }()
	if err = s.guard.Authorize(caller); err != nil {
		s.l.Warn("unauthorized publish results", zap.String("caller", caller))
		return err
	}
	now := s.clock.Now()
	event, changed, err := s.r.Results.Publish(caller, electionID, now)
	if err != nil {
		return s.reject("publish results", err)
	}
	if !changed {
		s.l.Debug("results already published", zap.Uint64("election_id", electionID))
		return nil
	}
	s.events.Mirror(ctx, event)
	s.l.Info("results published", zap.Uint64("election_id", electionID))
	return nil
}

func (s *ElectionService) ElectionCount() uint64 {
	return s.r.Elections.Count()
}

func (s *ElectionService) GetElection(electionID uint64) (models.ElectionView, error) {
	election, err := s.r.Elections.Election(electionID)
	if err != nil {
		return models.ElectionView{}, err
	}
	count, err := s.r.Elections.CandidateCount(electionID)
	if err != nil {
		return models.ElectionView{}, err
	}
	published := s.r.Results.Published(electionID)
	return models.ElectionView{
		Election:         election,
		CandidateCount:   count,
		ResultsPublished: published,
		Status:           status(election, published, s.clock.Now()),
	}, nil
}

func (s *ElectionService) CandidateCount(electionID uint64) (uint64, error) {
	return s.r.Elections.CandidateCount(electionID)
}

func (s *ElectionService) GetCandidate(electionID, candidateID uint64) (models.CandidateView, error) {
	candidate, err := s.r.Elections.Candidate(electionID, candidateID)
	if err != nil {
		return models.CandidateView{}, err
	}
	return models.CandidateView{Candidate: candidate}, nil
}

// ListCandidates returns the roster without tallies.
func (s *ElectionService) ListCandidates(electionID uint64) ([]models.CandidateView, error) {
	candidates, err := s.r.Elections.Candidates(electionID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CandidateView, len(candidates))
	for i, c := range candidates {
		out[i] = models.CandidateView{Candidate: c}
	}
	return out, nil
}

func (s *ElectionService) HasVoted(electionID uint64, voter string) (bool, error) {
	if _, err := s.r.Elections.Election(electionID); err != nil {
		return false, err
	}
	return s.r.Ballots.HasVoted(electionID, voter), nil
}

func (s *ElectionService) Turnout(electionID uint64) (uint64, error) {
	if _, err := s.r.Elections.Election(electionID); err != nil {
		return 0, err
	}
	return s.r.Ballots.Turnout(electionID), nil
}

func (s *ElectionService) GetVoteCount(electionID, candidateID uint64) (count uint64, err error) {
	defer func() { s.m.Observe(metrics.OpGetVoteCount, err) }()
	return s.r.Results.VoteCount(electionID, candidateID)
}

func (s *ElectionService) GetResults(electionID uint64) (results []models.CandidateResult, err error) {
	defer func() { s.m.Observe(metrics.OpGetResults, err) }()
	return s.r.Results.Results(electionID)
}

func (s *ElectionService) Events() []models.Event {
	return s.events.Entries()
}

func (s *ElectionService) ElectionEvents(electionID uint64) []models.Event {
	return s.events.EntriesFor(electionID)
}

// reject passes ledger errors through untouched and wraps anything else.
func (s *ElectionService) reject(op string, err error) error {
	if IsLedgerError(err) {
		s.l.Warn("operation rejected", zap.String("operation", op), zap.Error(err))
		return err
	}
	s.l.Error("operation failed", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("service: failed to %s: %w", op, err)
}

func status(e models.Election, published bool, now time.Time) models.Status {
	switch {
	case published:
		return models.StatusPublished
	case e.Ended(now):
		return models.StatusEnded
	case e.Active(now):
		return models.StatusActive
	default:
		return models.StatusUpcoming
	}
}

// IsLedgerError reports whether err is one of the ledger's own error kinds.
func IsLedgerError(err error) bool {
	return err != nil && models.Kind(err) != "internal"
}
