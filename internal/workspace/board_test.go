package workspace

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/taskflow/internal/api"
	"github.com/fyrsmithlabs/taskflow/internal/apitest"
	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

func TestBoard_DeletingLastTaskZeroesProgress(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p, seeded := e.srv.SeedProject("One", model.Task{Title: "only", Completed: true})

	assert.Equal(t, progress.Progress{Total: 1, Done: 1, Pct: 100}, e.ws.Progress(ctx, p.ID))

	board := e.ws.Board(p.ID)
	require.NoError(t, board.Refresh(ctx))
	assert.True(t, board.Listing().AllDone)

	require.NoError(t, board.Delete(ctx, seeded[0].ID))
	assert.Equal(t, progress.Progress{}, board.Listing().Progress)
	assert.False(t, board.Listing().AllDone)
	assert.Equal(t, progress.Progress{Total: 0, Done: 0, Pct: 0}, e.ws.Progress(ctx, p.ID))
}

func TestBoard_ToggleVisibleBeforeConfirmation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p, seeded := e.srv.SeedProject("Home", model.Task{Title: "paint"})
	board := e.ws.Board(p.ID)
	require.NoError(t, board.Refresh(ctx))

	release := e.srv.Hold("toggle_task")
	res := board.ToggleAsync(ctx, seeded[0].ID)

	local, _ := board.Store().Get(seeded[0].ID)
	assert.True(t, local.Completed, "flipped before the service answered")
	assert.Equal(t, 1, board.Listing().Counts[query.TaskDone])

	release()
	select {
	case r := <-res:
		require.NoError(t, r.Err)
		assert.True(t, r.Value.Completed)
	case <-time.After(5 * time.Second):
		t.Fatal("toggle did not complete")
	}
	assert.True(t, e.srv.Tasks(p.ID)[0].Completed)
}

func TestBoard_ToggleFailureRollsBack(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    string
	}{
		{name: "server message", status: http.StatusNotFound, message: "Task not found", want: "Task not found"},
		{name: "no message", status: http.StatusBadGateway, message: "", want: api.GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t)
			p, seeded := e.srv.SeedProject("Home", model.Task{Title: "paint"}, model.Task{Title: "sand"})
			board := e.ws.Board(p.ID)
			require.NoError(t, board.Refresh(ctx))
			before := board.Store().Snapshot()

			e.srv.FailNext("toggle_task", tt.status, tt.message)
			_, err := board.Toggle(ctx, seeded[0].ID)

			require.Error(t, err)
			assert.Equal(t, before, board.Store().Snapshot())
			assert.Equal(t, []string{tt.want}, e.reports.all())
			e.logs.AssertNoSecrets(t)
		})
	}
}

func TestBoard_ToggleUsesServerValue(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p, seeded := e.srv.SeedProject("Home", model.Task{Title: "paint"})
	board := e.ws.Board(p.ID)
	require.NoError(t, board.Refresh(ctx))

	got, err := board.Toggle(ctx, seeded[0].ID)
	require.NoError(t, err)
	stored, _ := board.Store().Get(seeded[0].ID)
	assert.Equal(t, got, stored)
	assert.Equal(t, e.srv.Tasks(p.ID)[0], stored)

	_, err = board.Toggle(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotListed)
}

func TestBoard_AddAndEdit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p, _ := e.srv.SeedProject("Home", model.Task{Title: "first"})
	board := e.ws.Board(p.ID)
	require.NoError(t, board.Refresh(ctx))

	due := today.AddDays(3)
	added, err := board.Add(ctx, model.TaskInput{Title: "new", DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, added, board.Store().Snapshot()[0], "new tasks go first")

	listing := board.Listing()
	assert.Equal(t, 1, listing.Counts[query.TaskUpcoming])

	e.srv.FailNext("update_task", http.StatusBadRequest, "Validation failed")
	before := board.Store().Snapshot()
	_, err = board.Edit(ctx, added.ID, model.TaskInput{Title: "renamed"})
	require.ErrorIs(t, err, api.ErrValidation)
	assert.Equal(t, before, board.Store().Snapshot(), "edits are not applied before confirmation")
	assert.Empty(t, e.reports.all(), "non-optimistic failures are returned, not reported")

	edited, err := board.Edit(ctx, added.ID, model.TaskInput{Title: "renamed"})
	require.NoError(t, err)
	got, _ := board.Store().Get(added.ID)
	assert.Equal(t, edited, got)
	assert.Nil(t, got.DueDate)
}

func TestBoard_RefreshLoadsProject(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	p, _ := e.srv.SeedProject("Home")
	board := e.ws.Board(p.ID)
	require.NoError(t, board.Refresh(ctx))
	assert.Equal(t, "Home", board.Listing().Project.Title)

	missing := e.ws.Board(4242)
	err := missing.Refresh(ctx)
	assert.ErrorIs(t, err, api.ErrNotFound)

	require.NoError(t, board.DeleteProject(ctx))
	_, ok := e.srv.Project(p.ID)
	assert.False(t, ok)
	assert.Zero(t, board.Store().Len())
}

func TestBoard_FractionalSummaryAgrees(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.srv.SetSummaryShape(apitest.SummaryCamel)
	p, _ := e.srv.SeedProject("Thirds", tasks(3, 1)...)

	// 1/3 is 33.33 in the camel shape; rounding agrees with the derived 33.
	assert.Equal(t, progress.Progress{Total: 3, Done: 1, Pct: 33}, e.ws.Progress(ctx, p.ID))
	e.logs.AssertNotLogged(t, zapcore.WarnLevel, "progress diverges")
}
