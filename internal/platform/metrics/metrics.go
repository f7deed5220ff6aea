package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ScoringEventsApplied    prometheus.Counter
	ScoringEventsDuplicate  prometheus.Counter
	ScoringEventsConflicted prometheus.Counter
	ScoreRetries            prometheus.Counter

	ConnectionsRated prometheus.Counter
	BlocksCreated    prometheus.Counter
	BlocksRemoved    prometheus.Counter

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ScoringEventsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_scoring_events_applied_total",
			Help: "Scoring events that mutated a trust score aggregate",
		}),
		ScoringEventsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_scoring_events_duplicate_total",
			Help: "Scoring events rejected by the per-partition action_id dedup guard",
		}),
		ScoringEventsConflicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_scoring_events_conflicted_total",
			Help: "Scoring events that exhausted the optimistic-concurrency retry budget",
		}),
		ScoreRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_score_cas_retries_total",
			Help: "Compare-and-swap misses retried inside the trust ledger",
		}),
		ConnectionsRated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_connections_rated_total",
			Help: "Connection strength ratings applied",
		}),
		BlocksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_blocks_created_total",
			Help: "Block records created",
		}),
		BlocksRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_blocks_removed_total",
			Help: "Block records removed",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_cache_hits_total",
			Help: "Read-through cache hits for conversation and blocked lists",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "porchlight_cache_misses_total",
			Help: "Read-through cache misses for conversation and blocked lists",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "porchlight_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
