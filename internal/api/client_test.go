package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskflow/internal/apitest"
	"github.com/fyrsmithlabs/taskflow/internal/config"
	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/session"
)

type fixture struct {
	srv    *apitest.Server
	gate   *session.Gate
	client *Client
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	token := srv.AddAccount("ada@example.com", "Ada Lovelace")

	gate := session.NewGate(session.NewMemoryStore(session.State{}))
	require.NoError(t, gate.Establish(context.Background(), config.Secret(token), session.Profile{Email: "ada@example.com"}))

	client, err := New(srv.URL(),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second, Transport: session.NewTransport(gate, nil)}),
		WithRateLimit(0, 0),
	)
	require.NoError(t, err)
	return &fixture{srv: srv, gate: gate, client: client, token: token}
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8082", "ftp://example.com", "://"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}
	c, err := New("http://localhost:8082/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8082/api", c.BaseURL())
}

func TestClient_ProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.client.CreateProject(ctx, model.ProjectInput{Title: "  Launch  "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", created.Title)

	got, err := f.client.GetProject(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	desc := "Q3 launch"
	updated, err := f.client.UpdateProject(ctx, created.ID, model.ProjectInput{Title: "Launch v2", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Title)
	assert.Equal(t, "Q3 launch", updated.DescriptionText())

	list, err := f.client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	page, err := f.client.ListProjectsPage(ctx, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)

	require.NoError(t, f.client.DeleteProject(ctx, created.ID))
	_, err = f.client.GetProject(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Project not found", UserMessage(err))
}

func TestClient_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, _ := f.srv.SeedProject("Home")

	due := model.MustParseDate("2026-03-04")
	task, err := f.client.CreateTask(ctx, p.ID, model.TaskInput{Title: "Paint", DueDate: &due})
	require.NoError(t, err)
	assert.False(t, task.Completed)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, due, *task.DueDate)

	toggled, err := f.client.ToggleTask(ctx, p.ID, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	in := model.InputFrom(toggled)
	in.Title = "Paint fence"
	edited, err := f.client.UpdateTask(ctx, p.ID, task.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Paint fence", edited.Title)
	assert.True(t, edited.Completed)

	tasks, err := f.client.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{edited}, tasks)

	require.NoError(t, f.client.DeleteTask(ctx, p.ID, task.ID))
	tasks, err = f.client.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	err = f.client.DeleteTask(ctx, p.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ValidatesBeforeSending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.client.CreateProject(ctx, model.ProjectInput{Title: "   "})
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	_, err = f.client.CreateTask(ctx, 1, model.TaskInput{})
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	assert.Zero(t, f.srv.Calls("create_project"))
	assert.Zero(t, f.srv.Calls("create_task"))
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    error
		kind    Kind
	}{
		{name: "validation", status: http.StatusBadRequest, message: "Validation failed", want: ErrValidation, kind: KindValidation},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, message: "bad", want: ErrValidation, kind: KindValidation},
		{name: "not found", status: http.StatusNotFound, message: "Project not found", want: ErrNotFound, kind: KindNotFound},
		{name: "server error", status: http.StatusInternalServerError, message: "Unexpected error occurred", want: ErrUnknown, kind: KindUnknown},
		{name: "forbidden", status: http.StatusForbidden, message: "Access denied", want: ErrUnknown, kind: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.srv.FailNext("list_projects", tt.status, tt.message)

			_, err := f.client.ListProjects(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, "list_projects", e.Op)
			assert.Equal(t, tt.message, UserMessage(err))
			assert.True(t, f.gate.Authenticated(), "only 401 clears the session")
		})
	}
}

func TestClient_ValidationFields(t *testing.T) {
	f := newFixture(t)
	f.srv.RequireToken(false)

	_, err := f.client.Register(context.Background(), "", "123", "")
	require.ErrorIs(t, err, ErrValidation)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Validation failed", e.Message)
	assert.Contains(t, e.Fields, "email")
	assert.Contains(t, e.Fields, "password")
}

func TestClient_NetworkError(t *testing.T) {
	c, err := New("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)

	_, err = c.ListProjects(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, GenericMessage, UserMessage(err))
}

func TestClient_AuthRejectedClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, _ := f.srv.SeedProject("Home")

	revoked := make(chan struct{}, 1)
	f.gate.OnRevoked(func(context.Context) { revoked <- struct{}{} })

	f.srv.Revoke(f.token)
	_, err := f.client.ListTasks(ctx, p.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthRejected)
	assert.False(t, f.gate.Authenticated())
	select {
	case <-revoked:
	default:
		t.Fatal("revocation hook did not run")
	}
}

func TestClient_LoginAndRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		shape apitest.AuthShape
		want  session.Profile
	}{
		{name: "nested", shape: apitest.AuthNested, want: session.Profile{ID: 1, Email: "ada@example.com", FullName: "Ada Lovelace"}},
		{name: "flat", shape: apitest.AuthFlat, want: session.Profile{ID: 1, Email: "ada@example.com", FullName: "Ada Lovelace"}},
		{name: "token only", shape: apitest.AuthTokenOnly, want: session.Profile{Email: "ada@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.srv.SetAuthShape(tt.shape)
			res, err := f.client.Login(ctx, "ada@example.com", apitest.Password)
			require.NoError(t, err)
			assert.True(t, res.Token.IsSet())
			assert.Equal(t, tt.want, res.Profile)
		})
	}

	f.srv.SetAuthShape(apitest.AuthTokenOnly)
	res, err := f.client.Register(ctx, "grace@example.com", "hopper123", "Grace Hopper")
	require.NoError(t, err)
	assert.Equal(t, session.Profile{Email: "grace@example.com", FullName: "Grace Hopper"}, res.Profile)

	_, err = f.client.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthRejected)
	assert.Equal(t, "Invalid credentials", UserMessage(err))
}

func TestClient_RequestIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.ListProjects(context.Background())
	require.NoError(t, err)
	_, err = f.client.ListProjects(context.Background())
	require.NoError(t, err)

	ids := f.srv.RequestIDs()
	require.Len(t, ids, 2)
	for _, id := range ids {
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, ids[0], ids[1])
}

func TestClient_ProgressSummaryIsRaw(t *testing.T) {
	f := newFixture(t)
	p, _ := f.srv.SeedProject("Home", model.Task{Completed: true}, model.Task{})
	f.srv.SetSummaryShape(apitest.SummaryMalformed)

	body, err := f.client.ProgressSummary(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "<html>progress</html>", string(body))
}

func TestClient_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	release := f.srv.Hold("list_projects")
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.client.ListProjects(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
