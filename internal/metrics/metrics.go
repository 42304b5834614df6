// Package metrics exposes Prometheus counters for ledger operations.
package metrics

import (
	"github.com/jaam8/election_bot/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "election_bot"
	subsystem = "ledger"
)

// Operation names used as the "operation" label.
const (
	OpBootstrap      = "bootstrap"
	OpCreateElection = "create_election"
	OpAddCandidate   = "add_candidate"
	OpCastVote       = "cast_vote"
	OpPublishResults = "publish_results"
	OpGetVoteCount   = "get_vote_count"
	OpGetResults     = "get_results"
)

type Metrics struct {
	// operations counts every operation by outcome ("ok" or an error kind)
	operations *prometheus.CounterVec

	// elections is the number of elections in the store
	elections prometheus.Gauge

	// votes counts accepted ballots across all elections
	votes prometheus.Counter
}

// New builds the collectors and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Number of ledger operations by outcome",
			},
			[]string{"operation", "result"},
		),
		elections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "elections",
				Help:      "Number of elections created",
			},
		),
		votes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "votes_total",
				Help:      "Number of ballots accepted",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.elections, m.votes)
	}
	return m
}

// Observe records the outcome of one operation.
func (m *Metrics) Observe(operation string, err error) {
	m.operations.WithLabelValues(operation, models.Kind(err)).Inc()
}

func (m *Metrics) SetElections(n uint64) {
	m.elections.Set(float64(n))
}

func (m *Metrics) VoteCast() {
	m.votes.Inc()
}
