package progress

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Resolution paths recorded by Metrics.
const (
	pathSummary  = "summary"
	pathFallback = "fallback"
	pathFailed   = "failed"
)

// Metrics holds Prometheus metrics for progress resolution.
type Metrics struct {
	ResolutionsTotal *prometheus.CounterVec
	DivergenceTotal  prometheus.Counter
}

// NewMetrics returns the process-wide progress metrics, registering them on first use.
//
// Metrics:
//   - taskflow_progress_resolutions_total{path} - resolutions by path (summary, fallback, failed)
//   - taskflow_progress_divergence_total - summaries whose explicit percentage disagreed with their counts
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ResolutionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "taskflow_progress_resolutions_total",
					Help: "Total number of progress resolutions by path",
				},
				[]string{"path"},
			),
			DivergenceTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "taskflow_progress_divergence_total",
					Help: "Total number of summaries whose reported percentage disagreed with their counts",
				},
			),
		}
	})
	return globalMetrics
}
