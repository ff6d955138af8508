package optimistic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskflow/internal/logging"
)

// GenericMessage is shown when a failure carries no server message.
const GenericMessage = "Network error"

// Confirmation says how a successful remote result is written back.
type Confirmation int

const (
	// ConfirmReplace swaps the item for the server's value if it is still present.
	ConfirmReplace Confirmation = iota
	// ConfirmRemove ensures the item is absent.
	ConfirmRemove
)

// Mutation pairs a local change with the remote call that makes it durable.
type Mutation[K comparable, T any] struct {
	// Op names the mutation for metrics and logs, e.g. "toggle_task".
	Op      string
	Key     K
	Local   func([]T) []T
	Remote  func(ctx context.Context) (T, error)
	Confirm Confirmation
}

// Failure describes a rolled back mutation.
type Failure struct {
	Op      string
	Key     string
	Message string
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %s", f.Op, f.Key, f.Message)
}

func (f Failure) Unwrap() error { return f.Err }

// Reporter surfaces rollbacks to the user. It is called once per failure,
// after the collection has been restored.
type Reporter interface {
	Report(ctx context.Context, f Failure)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, f Failure)

// Report calls fn.
func (fn ReporterFunc) Report(ctx context.Context, f Failure) { fn(ctx, f) }

// userMessager is implemented by errors that carry a server-supplied message.
type userMessager interface {
	UserMessage() string
}

// MessageFor returns the server message carried by err, else GenericMessage.
func MessageFor(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return GenericMessage
}

// Controller runs mutations. A zero Controller is not usable; use NewController.
type Controller struct {
	logger   *logging.Logger
	reporter Reporter
	metrics  *Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReporter sets where rollbacks are reported.
func WithReporter(r Reporter) Option {
	return func(c *Controller) {
		if r != nil {
			c.reporter = r
		}
	}
}

// NewController creates a controller. Without a reporter, failures are logged.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		logger:  logging.Nop(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.reporter == nil {
		c.reporter = ReporterFunc(func(ctx context.Context, f Failure) {
			c.logger.Warn(ctx, "mutation rolled back", zap.String("message", f.Message))
		})
	}
	return c
}

// Apply publishes m.Local(current) to s, then calls m.Remote. On failure the
// collection captured before the local change is restored, or only m.Key's
// entry of it when s was written meanwhile, the failure is reported and the
// error returned. On success the server value is written
// back per m.Confirm and returned.
func Apply[K comparable, T any](ctx context.Context, c *Controller, s *Store[K, T], m Mutation[K, T]) (T, error) {
	snapshot, version := applyLocal(c, s, m)
	return finish(ctx, c, s, m, snapshot, version)
}

// Result is the outcome of an asynchronous mutation.
type Result[T any] struct {
	Value T
	Err   error
}

// ApplyAsync performs the local change before returning and completes the
// remote half on a new goroutine. The channel receives exactly one Result.
func ApplyAsync[K comparable, T any](ctx context.Context, c *Controller, s *Store[K, T], m Mutation[K, T]) <-chan Result[T] {
	snapshot, version := applyLocal(c, s, m)

	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		v, err := finish(ctx, c, s, m, snapshot, version)
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}

func applyLocal[K comparable, T any](c *Controller, s *Store[K, T], m Mutation[K, T]) ([]T, uint64) {
	local := m.Local
	if local == nil {
		local = func(items []T) []T { return items }
	}
	snapshot, version := s.swap(local)
	c.metrics.MutationsTotal.WithLabelValues(m.Op, OutcomeApplied).Inc()
	return snapshot, version
}

func finish[K comparable, T any](ctx context.Context, c *Controller, s *Store[K, T], m Mutation[K, T], snapshot []T, version uint64) (T, error) {
	ctx = logging.WithOperation(ctx, m.Op)
	key := fmt.Sprint(m.Key)

	start := time.Now()
	v, err := m.Remote(ctx)
	c.metrics.RemoteDuration.WithLabelValues(m.Op).Observe(time.Since(start).Seconds())

	if err != nil {
		s.restore(snapshot, version, m.Key)
		c.metrics.MutationsTotal.WithLabelValues(m.Op, OutcomeRolledBack).Inc()
		c.logger.Debug(ctx, "mutation failed, restored snapshot", zap.String("key", key), zap.Error(err))

		f := Failure{Op: m.Op, Key: key, Message: MessageFor(err), Err: err}
		c.reporter.Report(ctx, f)
		var zero T
		return zero, fmt.Errorf("%s %s: %w", m.Op, key, err)
	}

	outcome := OutcomeConfirmed
	switch m.Confirm {
	case ConfirmRemove:
		s.Update(func(items []T) []T {
			return removeAt(items, indexOf(items, s.key, m.Key))
		})
	default:
		s.Update(func(items []T) []T {
			i := indexOf(items, s.key, m.Key)
			if i < 0 {
				outcome = OutcomeStale
				return items
			}
			return replaceAt(items, i, func(T) T { return v })
		})
	}
	c.metrics.MutationsTotal.WithLabelValues(m.Op, outcome).Inc()
	if outcome == OutcomeStale {
		c.logger.Debug(ctx, "discarding confirmation for vanished item", zap.String("key", key))
	}
	return v, nil
}
