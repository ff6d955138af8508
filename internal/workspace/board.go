package workspace

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/optimistic"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

// Board is one project's tasks.
type Board struct {
	ws        *Workspace
	projectID int64
	store     *optimistic.Store[int64, model.Task]
	view      *query.View[query.TaskFilter]

	mu      sync.Mutex
	project model.Project
}

// BoardListing is one computed view of a project's tasks.
type BoardListing struct {
	Project model.Project
	Page    query.Page[model.Task]
	// Progress is derived from every task on the board, ignoring search and filter.
	Progress progress.Progress
	Counts   map[query.TaskFilter]int
	// AllDone is true when the project has tasks and every one is completed.
	AllDone bool
}

func taskID(t model.Task) int64 { return t.ID }

// Board returns a new, empty board for a project. Call Refresh to load it.
func (w *Workspace) Board(projectID int64) *Board {
	return &Board{
		ws:        w,
		projectID: projectID,
		store:     optimistic.NewStore(taskID, nil),
		view:      query.NewView(query.TaskAll, w.pageSize),
		project:   model.Project{ID: projectID},
	}
}

// View returns the board's search, filter and page state.
func (b *Board) View() *query.View[query.TaskFilter] {
	return b.view
}

// Store returns the task collection.
func (b *Board) Store() *optimistic.Store[int64, model.Task] {
	return b.store
}

// Refresh reloads the project and its tasks.
func (b *Board) Refresh(ctx context.Context) error {
	var (
		project model.Project
		tasks   []model.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = b.ws.svc.GetProject(gctx, b.projectID)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = b.ws.svc.ListTasks(gctx, b.projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading project %d: %w", b.projectID, err)
	}

	b.mu.Lock()
	b.project = project
	b.mu.Unlock()
	b.store.Replace(tasks)
	b.view.ResetPage()
	return nil
}

// Project returns the project as last loaded.
func (b *Board) Project() model.Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.project
}

// Listing computes the current page.
func (b *Board) Listing() BoardListing {
	tasks := b.store.Snapshot()
	today := b.ws.today()

	page := query.Compute(b.view, tasks, query.TaskFields, func(f query.TaskFilter) func(model.Task) bool {
		return f.ForTasks(today)
	})
	pr := progress.FromTasks(tasks)

	return BoardListing{
		Project:  b.Project(),
		Page:     page,
		Progress: pr,
		Counts:   query.CountTasks(tasks, today),
		AllDone:  pr.Status() == progress.StatusCompleted,
	}
}

func (b *Board) toggleMutation(id int64) optimistic.Mutation[int64, model.Task] {
	return optimistic.Mutation[int64, model.Task]{
		Op:    "toggle_task",
		Key:   id,
		Local: optimistic.Toggle(b.store, id),
		Remote: func(ctx context.Context) (model.Task, error) {
			return b.ws.svc.ToggleTask(ctx, b.projectID, id)
		},
	}
}

// Toggle flips a task's completion state optimistically.
func (b *Board) Toggle(ctx context.Context, id int64) (model.Task, error) {
	if _, ok := b.store.Get(id); !ok {
		return model.Task{}, fmt.Errorf("task %d: %w", id, ErrNotListed)
	}
	return optimistic.Apply(ctx, b.ws.controller, b.store, b.toggleMutation(id))
}

// ToggleAsync is Toggle with the remote half on another goroutine. The
// local flip is visible when it returns.
func (b *Board) ToggleAsync(ctx context.Context, id int64) <-chan optimistic.Result[model.Task] {
	return optimistic.ApplyAsync(ctx, b.ws.controller, b.store, b.toggleMutation(id))
}

// Delete removes a task optimistically.
func (b *Board) Delete(ctx context.Context, id int64) error {
	_, err := optimistic.Apply(ctx, b.ws.controller, b.store, optimistic.Mutation[int64, model.Task]{
		Op:    "delete_task",
		Key:   id,
		Local: optimistic.Remove(b.store, id),
		Remote: func(ctx context.Context) (model.Task, error) {
			return model.Task{}, b.ws.svc.DeleteTask(ctx, b.projectID, id)
		},
		Confirm: optimistic.ConfirmRemove,
	})
	return err
}

// Add creates a task and puts it first on the board.
func (b *Board) Add(ctx context.Context, in model.TaskInput) (model.Task, error) {
	created, err := b.ws.svc.CreateTask(ctx, b.projectID, in)
	if err != nil {
		return model.Task{}, err
	}
	b.store.Update(optimistic.Prepend(created))
	return created, nil
}

// Edit replaces a task's fields once the service accepts them.
func (b *Board) Edit(ctx context.Context, id int64, in model.TaskInput) (model.Task, error) {
	updated, err := b.ws.svc.UpdateTask(ctx, b.projectID, id, in)
	if err != nil {
		return model.Task{}, err
	}
	b.store.Update(optimistic.Edit(b.store, id, func(model.Task) model.Task { return updated }))
	return updated, nil
}

// DeleteProject deletes the board's project.
func (b *Board) DeleteProject(ctx context.Context) error {
	if err := b.ws.svc.DeleteProject(ctx, b.projectID); err != nil {
		return err
	}
	b.store.Replace(nil)
	return nil
}
