package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskflow/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/taskflow/internal/api"

// clientMetrics holds the request instruments. Instruments that failed to
// register are nil and skipped.
type clientMetrics struct {
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
}

func newClientMetrics(mp metric.MeterProvider, logger *logging.Logger) *clientMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	m := &clientMetrics{}
	ctx := context.Background()

	var err error
	m.requestsTotal, err = meter.Int64Counter(
		"taskflow.api.requests_total",
		metric.WithDescription("Remote service calls labeled by operation, method and outcome."),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create requests counter", zap.Error(err))
	}

	m.requestDur, err = meter.Float64Histogram(
		"taskflow.api.request_duration_seconds",
		metric.WithDescription("Remote service call duration in seconds, including rate limiter wait."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 15.0),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create duration histogram", zap.Error(err))
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"taskflow.api.active_requests",
		metric.WithDescription("Remote service calls in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create active requests gauge", zap.Error(err))
	}
	return m
}

func (m *clientMetrics) begin(ctx context.Context) {
	if m.activeRequests != nil {
		m.activeRequests.Add(ctx, 1)
	}
}

// end records a finished call. outcome is "ok" or an error Kind.
func (m *clientMetrics) end(ctx context.Context, op, method, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	)
	if m.requestsTotal != nil {
		m.requestsTotal.Add(ctx, 1, attrs)
	}
	if m.requestDur != nil {
		m.requestDur.Record(ctx, d.Seconds(), attrs)
	}
	if m.activeRequests != nil {
		m.activeRequests.Add(ctx, -1)
	}
}
