package workspace

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/taskflow/internal/logging"
	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/optimistic"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

// ErrNotListed indicates an entity is not in the view's current collection.
var ErrNotListed = errors.New("not in the current listing")

// Service is the remote service as the workspace uses it. *api.Client
// satisfies it.
type Service interface {
	progress.Source

	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id int64) (model.Project, error)
	CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error)
	UpdateProject(ctx context.Context, id int64, in model.ProjectInput) (model.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateTask(ctx context.Context, projectID int64, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, projectID, taskID int64, in model.TaskInput) (model.Task, error)
	ToggleTask(ctx context.Context, projectID, taskID int64) (model.Task, error)
	DeleteTask(ctx context.Context, projectID, taskID int64) error
}

// Workspace holds what the views share.
type Workspace struct {
	svc         Service
	resolver    *progress.Resolver
	controller  *optimistic.Controller
	reporter    optimistic.Reporter
	logger      *logging.Logger
	parallelism int
	pageSize    int
	today       func() model.Date
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger shared by the workspace components.
func WithLogger(l *logging.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReporter sets where rolled back mutations are reported.
func WithReporter(r optimistic.Reporter) Option {
	return func(w *Workspace) {
		w.reporter = r
	}
}

// WithParallelism bounds concurrent per-project calls during a refresh.
func WithParallelism(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.parallelism = n
		}
	}
}

// WithPageSize sets the initial page size of new views.
func WithPageSize(n int) Option {
	return func(w *Workspace) {
		if n > 0 {
			w.pageSize = n
		}
	}
}

// WithClock sets how the current calendar date is read.
func WithClock(today func() model.Date) Option {
	return func(w *Workspace) {
		if today != nil {
			w.today = today
		}
	}
}

// New creates a workspace over svc.
func New(svc Service, opts ...Option) *Workspace {
	w := &Workspace{
		svc:         svc,
		logger:      logging.Nop(),
		parallelism: progress.DefaultParallelism,
		pageSize:    query.DefaultPageSize,
		today:       model.Today,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.controller = optimistic.NewController(optimistic.WithLogger(w.logger), optimistic.WithReporter(w.reporter))
	w.resolver = progress.NewResolver(svc, progress.WithLogger(w.logger))
	return w
}

// Progress resolves one project's progress afresh.
func (w *Workspace) Progress(ctx context.Context, projectID int64) progress.Progress {
	return w.resolver.Resolve(ctx, projectID)
}

// Today returns the workspace's current calendar date.
func (w *Workspace) Today() model.Date {
	return w.today()
}
