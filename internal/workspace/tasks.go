package workspace

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/optimistic"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

// Tasks is the task board across every project.
type Tasks struct {
	ws    *Workspace
	store *optimistic.Store[model.TaskKey, model.TaskRow]
	view  *query.View[query.TaskFilter]

	mu       sync.Mutex
	projects []model.Project
}

// TaskListing is one computed view of the cross-project board.
type TaskListing struct {
	Page query.Page[model.TaskRow]
	// Counts are per category over every row, ignoring search.
	Counts map[query.TaskFilter]int
}

func rowKey(r model.TaskRow) model.TaskKey { return r.Key() }

// Tasks returns a new, empty cross-project board. Call Refresh to load it.
func (w *Workspace) Tasks() *Tasks {
	return &Tasks{
		ws:    w,
		store: optimistic.NewStore(rowKey, nil),
		view:  query.NewView(query.TaskAll, w.pageSize),
	}
}

// View returns the board's search, filter and page state.
func (t *Tasks) View() *query.View[query.TaskFilter] {
	return t.view
}

// Store returns the row collection.
func (t *Tasks) Store() *optimistic.Store[model.TaskKey, model.TaskRow] {
	return t.store
}

// Projects returns the projects as last loaded, for choosing where to add.
func (t *Tasks) Projects() []model.Project {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Project(nil), t.projects...)
}

// Refresh reloads every project's tasks. Rows keep project order. The page
// returns to the first.
func (t *Tasks) Refresh(ctx context.Context) error {
	projects, err := t.ws.svc.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	perProject := make([][]model.TaskRow, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.ws.parallelism)
	for i, p := range projects {
		g.Go(func() error {
			tasks, err := t.ws.svc.ListTasks(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("listing tasks of project %d: %w", p.ID, err)
			}
			perProject[i] = model.RowsFor(p, tasks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var rows []model.TaskRow
	for _, r := range perProject {
		rows = append(rows, r...)
	}

	t.mu.Lock()
	t.projects = projects
	t.mu.Unlock()
	t.store.Replace(rows)
	t.view.ResetPage()

	t.ws.logger.Debug(ctx, "task board refreshed",
		zap.Int("projects", len(projects)), zap.Int("tasks", len(rows)))
	return nil
}

// Listing computes the current page.
func (t *Tasks) Listing() TaskListing {
	rows := t.store.Snapshot()
	today := t.ws.today()

	page := query.Compute(t.view, rows, query.TaskRowFields, func(f query.TaskFilter) func(model.TaskRow) bool {
		return f.ForRows(today)
	})
	return TaskListing{Page: page, Counts: query.CountRows(rows, today)}
}

func (t *Tasks) toggleMutation(key model.TaskKey) optimistic.Mutation[model.TaskKey, model.TaskRow] {
	return optimistic.Mutation[model.TaskKey, model.TaskRow]{
		Op:    "toggle_task",
		Key:   key,
		Local: optimistic.Toggle(t.store, key),
		Remote: func(ctx context.Context) (model.TaskRow, error) {
			row, _ := t.store.Get(key)
			task, err := t.ws.svc.ToggleTask(ctx, key.ProjectID, key.TaskID)
			if err != nil {
				return model.TaskRow{}, err
			}
			row.Task = task
			return row, nil
		},
	}
}

// Toggle flips a task's completion state optimistically.
func (t *Tasks) Toggle(ctx context.Context, key model.TaskKey) (model.TaskRow, error) {
	if _, ok := t.store.Get(key); !ok {
		return model.TaskRow{}, fmt.Errorf("task %s: %w", key, ErrNotListed)
	}
	return optimistic.Apply(ctx, t.ws.controller, t.store, t.toggleMutation(key))
}

// Delete removes a task optimistically.
func (t *Tasks) Delete(ctx context.Context, key model.TaskKey) error {
	_, err := optimistic.Apply(ctx, t.ws.controller, t.store, optimistic.Mutation[model.TaskKey, model.TaskRow]{
		Op:    "delete_task",
		Key:   key,
		Local: optimistic.Remove(t.store, key),
		Remote: func(ctx context.Context) (model.TaskRow, error) {
			return model.TaskRow{}, t.ws.svc.DeleteTask(ctx, key.ProjectID, key.TaskID)
		},
		Confirm: optimistic.ConfirmRemove,
	})
	return err
}

// Add creates a task in a project, puts its row first and returns to the
// first page.
func (t *Tasks) Add(ctx context.Context, projectID int64, in model.TaskInput) (model.TaskRow, error) {
	project, ok := t.project(projectID)
	if !ok {
		return model.TaskRow{}, fmt.Errorf("project %d: %w", projectID, ErrNotListed)
	}
	created, err := t.ws.svc.CreateTask(ctx, projectID, in)
	if err != nil {
		return model.TaskRow{}, err
	}
	row := model.TaskRow{Task: created, ProjectID: project.ID, ProjectTitle: project.Title}
	t.store.Update(optimistic.Prepend(row))
	t.view.ResetPage()
	return row, nil
}

func (t *Tasks) project(id int64) (model.Project, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}
