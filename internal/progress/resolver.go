package progress

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/taskflow/internal/logging"
	"github.com/fyrsmithlabs/taskflow/internal/model"
)

// Source is the subset of the remote service the Resolver needs.
type Source interface {
	// ProgressSummary returns the raw summary body for a project.
	ProgressSummary(ctx context.Context, projectID int64) ([]byte, error)
	ListTasks(ctx context.Context, projectID int64) ([]model.Task, error)
}

// DefaultParallelism bounds ResolveAll when no limit is given.
const DefaultParallelism = 4

// Resolver produces a Progress for a project and never fails.
type Resolver struct {
	src     Source
	logger  *logging.Logger
	metrics *Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for fallback and divergence warnings.
func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver reading from src.
func NewResolver(src Source, opts ...Option) *Resolver {
	r := &Resolver{
		src:     src,
		logger:  logging.Nop(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the project's progress. Summary failures fall back to
// counting tasks; if that fails too the zero Progress is returned.
func (r *Resolver) Resolve(ctx context.Context, projectID int64) (p Progress) {
	ctx = logging.WithProjectID(ctx, projectID)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(ctx, "progress resolution panicked", zap.Any("panic", rec))
			r.metrics.ResolutionsTotal.WithLabelValues(pathFailed).Inc()
			p = Progress{}
		}
	}()

	p, err := r.fromSummary(ctx, projectID)
	if err == nil {
		r.metrics.ResolutionsTotal.WithLabelValues(pathSummary).Inc()
		return p
	}
	r.logger.Debug(ctx, "progress summary unavailable, deriving from tasks", zap.Error(err))

	tasks, err := r.src.ListTasks(ctx, projectID)
	if err != nil {
		r.logger.Warn(ctx, "progress unavailable", zap.Error(err))
		r.metrics.ResolutionsTotal.WithLabelValues(pathFailed).Inc()
		return Progress{}
	}
	r.metrics.ResolutionsTotal.WithLabelValues(pathFallback).Inc()
	return FromTasks(tasks)
}

func (r *Resolver) fromSummary(ctx context.Context, projectID int64) (Progress, error) {
	body, err := r.src.ProgressSummary(ctx, projectID)
	if err != nil {
		return Progress{}, err
	}
	r.logger.Trace(ctx, "progress summary", zap.ByteString("body", body))

	s, err := ParseSummary(body)
	if err != nil {
		return Progress{}, fmt.Errorf("parse summary: %w", err)
	}

	p := s.Progress()
	if reported, ok := s.ReportedPct(); ok && reported != p.Pct {
		r.metrics.DivergenceTotal.Inc()
		r.logger.Warn(ctx, "progress diverges",
			zap.Int("reported_pct", reported),
			zap.Int("derived_pct", p.Pct),
			zap.Int("total", p.Total),
			zap.Int("done", p.Done),
		)
	}
	return p, nil
}

// ResolveAll resolves every id with at most limit concurrent lookups.
func (r *Resolver) ResolveAll(ctx context.Context, ids []int64, limit int) map[int64]Progress {
	if limit < 1 {
		limit = DefaultParallelism
	}

	var (
		mu  sync.Mutex
		out = make(map[int64]Progress, len(ids))
		g   errgroup.Group
	)
	g.SetLimit(limit)

	for _, id := range ids {
		g.Go(func() error {
			p := r.Resolve(ctx, id)
			mu.Lock()
			out[id] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Memo caches resolutions for one refresh cycle. It is safe for concurrent use.
type Memo struct {
	r  *Resolver
	mu sync.Mutex
	m  map[int64]Progress
}

// NewMemo creates an empty memo over r.
func NewMemo(r *Resolver) *Memo {
	return &Memo{r: r, m: make(map[int64]Progress)}
}

// Get returns the cached progress or resolves and caches it.
func (m *Memo) Get(ctx context.Context, projectID int64) Progress {
	m.mu.Lock()
	p, ok := m.m[projectID]
	m.mu.Unlock()
	if ok {
		return p
	}

	p = m.r.Resolve(ctx, projectID)

	m.mu.Lock()
	m.m[projectID] = p
	m.mu.Unlock()
	return p
}

// Peek returns the cached progress without resolving.
func (m *Memo) Peek(projectID int64) (Progress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.m[projectID]
	return p, ok
}

// Fill resolves ids concurrently and caches the results, replacing prior entries.
func (m *Memo) Fill(ctx context.Context, ids []int64, limit int) map[int64]Progress {
	res := m.r.ResolveAll(ctx, ids, limit)

	m.mu.Lock()
	for id, p := range res {
		m.m[id] = p
	}
	m.mu.Unlock()
	return res
}

// Snapshot returns a copy of the cached entries.
func (m *Memo) Snapshot() map[int64]Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]Progress, len(m.m))
	for id, p := range m.m {
		out[id] = p
	}
	return out
}

// Invalidate drops one project's entry.
func (m *Memo) Invalidate(projectID int64) {
	m.mu.Lock()
	delete(m.m, projectID)
	m.mu.Unlock()
}

// Reset drops every entry, ending the cycle.
func (m *Memo) Reset() {
	m.mu.Lock()
	m.m = make(map[int64]Progress)
	m.mu.Unlock()
}
