package workspace

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/optimistic"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

// Projects is the project list with per-project progress.
type Projects struct {
	ws    *Workspace
	store *optimistic.Store[int64, model.Project]
	memo  *progress.Memo
	view  *query.View[query.ProjectFilter]
}

// ProjectListing is one computed view of the project list.
type ProjectListing struct {
	Page query.Page[model.Project]
	// Progress holds the progress of every listed project known this cycle.
	Progress map[int64]progress.Progress
	// Counts are per category over the searched projects.
	Counts map[query.ProjectFilter]int
	// Totals aggregates every project's progress, ignoring search and filter.
	Totals progress.Progress
}

func projectID(p model.Project) int64 { return p.ID }

// Projects returns a new, empty project list. Call Refresh to load it.
func (w *Workspace) Projects() *Projects {
	return &Projects{
		ws:    w,
		store: optimistic.NewStore(projectID, nil),
		memo:  progress.NewMemo(w.resolver),
		view:  query.NewView(query.ProjectAll, w.pageSize),
	}
}

// View returns the list's search, filter and page state.
func (p *Projects) View() *query.View[query.ProjectFilter] {
	return p.view
}

// Store returns the project collection.
func (p *Projects) Store() *optimistic.Store[int64, model.Project] {
	return p.store
}

// Refresh reloads the projects and starts a new progress cycle. The page
// returns to the first.
func (p *Projects) Refresh(ctx context.Context) error {
	list, err := p.ws.svc.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	p.store.Replace(list)
	p.view.ResetPage()

	ids := make([]int64, len(list))
	for i, pr := range list {
		ids[i] = pr.ID
	}
	p.memo.Reset()
	p.memo.Fill(ctx, ids, p.ws.parallelism)

	p.ws.logger.Debug(ctx, "projects refreshed", zap.Int("count", len(list)))
	return nil
}

// Listing computes the current page. Progress comes from this cycle's
// memo; projects added since the last refresh count as empty.
func (p *Projects) Listing() ProjectListing {
	items := p.store.Snapshot()
	lookup := p.memo.Snapshot()

	visible := make(map[int64]progress.Progress, len(items))
	all := make([]progress.Progress, 0, len(items))
	for _, pr := range items {
		if v, ok := lookup[pr.ID]; ok {
			visible[pr.ID] = v
			all = append(all, v)
		}
	}

	page := query.Compute(p.view, items, query.ProjectFields, func(f query.ProjectFilter) func(model.Project) bool {
		return f.ForProjects(visible)
	})
	searched := query.Search(items, p.view.State().Query, query.ProjectFields...)

	return ProjectListing{
		Page:     page,
		Progress: visible,
		Counts:   query.CountProjects(searched, visible),
		Totals:   progress.Aggregate(all),
	}
}

// Create adds a project and reloads the list.
func (p *Projects) Create(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	created, err := p.ws.svc.CreateProject(ctx, in)
	if err != nil {
		return model.Project{}, err
	}
	if err := p.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Rename changes a project's title optimistically. A rename confirmed
// after the project was removed from the list is discarded.
func (p *Projects) Rename(ctx context.Context, id int64, title string) (model.Project, error) {
	current, ok := p.store.Get(id)
	if !ok {
		return model.Project{}, fmt.Errorf("project %d: %w", id, ErrNotListed)
	}
	in := model.ProjectInput{Title: title, Description: current.Description}
	if err := in.Validate(); err != nil {
		return model.Project{}, err
	}

	return optimistic.Apply(ctx, p.ws.controller, p.store, optimistic.Mutation[int64, model.Project]{
		Op:  "rename_project",
		Key: id,
		Local: optimistic.Edit(p.store, id, func(pr model.Project) model.Project {
			pr.Title = in.Title
			return pr
		}),
		Remote: func(ctx context.Context) (model.Project, error) {
			return p.ws.svc.UpdateProject(ctx, id, in)
		},
	})
}

// Delete removes a project optimistically.
func (p *Projects) Delete(ctx context.Context, id int64) error {
	_, err := optimistic.Apply(ctx, p.ws.controller, p.store, optimistic.Mutation[int64, model.Project]{
		Op:    "delete_project",
		Key:   id,
		Local: optimistic.Remove(p.store, id),
		Remote: func(ctx context.Context) (model.Project, error) {
			return model.Project{}, p.ws.svc.DeleteProject(ctx, id)
		},
		Confirm: optimistic.ConfirmRemove,
	})
	if err != nil {
		return err
	}
	p.memo.Invalidate(id)
	return nil
}
