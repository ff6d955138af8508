package optimistic

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Mutation outcomes.
const (
	OutcomeApplied    = "applied"
	OutcomeConfirmed  = "confirmed"
	OutcomeStale      = "stale"
	OutcomeRolledBack = "rolled_back"
)

// Metrics holds Prometheus metrics for optimistic mutations.
type Metrics struct {
	MutationsTotal *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
}

// NewMetrics returns the process-wide mutation metrics, registering them on first use.
//
// Metrics:
//   - taskflow_optimistic_mutations_total{op,outcome} - mutations by outcome
//   - taskflow_optimistic_remote_duration_seconds{op} - time from local apply to remote completion
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			MutationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taskflow_optimistic_mutations_total",
					Help: "Total number of optimistic mutations by outcome",
				},
				[]string{"op", "outcome"},
			),
			RemoteDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "taskflow_optimistic_remote_duration_seconds",
					Help:    "Duration of the remote half of optimistic mutations in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"op"},
			),
		}
	})
	return globalMetrics
}
