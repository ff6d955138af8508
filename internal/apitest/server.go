package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fyrsmithlabs/taskflow/internal/model"
)

// SummaryShape selects how the progress route answers.
type SummaryShape int

const (
	// SummaryCanonical answers {"total","done","pct"}.
	SummaryCanonical SummaryShape = iota
	// SummaryCamel answers the service's record form with totalTasks,
	// completedTasks and a fractional progressPercentage.
	SummaryCamel
	// SummarySnake answers total_tasks, completed_tasks, completionPercentage.
	SummarySnake
	// SummaryMissing answers 404, as a service without the route would.
	SummaryMissing
	// SummaryMalformed answers 200 with a body that is not JSON.
	SummaryMalformed
	// SummaryNonObject answers 200 with a JSON array.
	SummaryNonObject
)

// AuthShape selects how login and registration answer.
type AuthShape int

const (
	// AuthNested answers {"token","user":{...}}.
	AuthNested AuthShape = iota
	// AuthFlat answers {"token","userId","email","fullName"}.
	AuthFlat
	// AuthTokenOnly answers {"token"}.
	AuthTokenOnly
)

// Password accepted for every seeded account.
const Password = "correct horse"

type account struct {
	id       int64
	email    string
	fullName string
}

type failure struct {
	status  int
	message string
}

// Server is the fake service. All methods are safe for concurrent use.
type Server struct {
	t    testing.TB
	echo *echo.Echo
	srv  *httptest.Server

	mu         sync.Mutex
	nextID     int64
	projects   map[int64]model.Project
	order      []int64
	tasks      map[int64][]model.Task
	accounts   map[string]account
	tokens     map[string]string
	summary    SummaryShape
	authShape  AuthShape
	requireTok bool
	fail       map[string][]failure
	holds      map[string]chan struct{}
	calls      map[string]int
	requestIDs []string
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:          t,
		nextID:     1,
		projects:   make(map[int64]model.Project),
		tasks:      make(map[int64][]model.Task),
		accounts:   make(map[string]account),
		tokens:     make(map[string]string),
		requireTok: true,
		fail:       make(map[string][]failure),
		holds:      make(map[string]chan struct{}),
		calls:      make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.recordRequestID)
	s.echo = e
	s.registerRoutes()

	s.srv = httptest.NewServer(e)
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API root, the value for api.base_url.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

func (s *Server) registerRoutes() {
	g := s.echo.Group("/api")
	g.POST("/auth/login", s.route("login", s.handleLogin))
	g.POST("/auth/register", s.route("register", s.handleRegister))

	p := g.Group("/projects", s.authorize)
	p.GET("", s.route("list_projects", s.handleListProjects))
	p.GET("/paged", s.route("list_projects_page", s.handleListProjectsPage))
	p.POST("", s.route("create_project", s.handleCreateProject))
	p.GET("/:id", s.route("get_project", s.handleGetProject))
	p.PUT("/:id", s.route("update_project", s.handleUpdateProject))
	p.DELETE("/:id", s.route("delete_project", s.handleDeleteProject))
	p.GET("/:id/progress", s.route("progress_summary", s.handleProgress))
	p.GET("/:id/tasks", s.route("list_tasks", s.handleListTasks))
	p.POST("/:id/tasks", s.route("create_task", s.handleCreateTask))
	p.PUT("/:id/tasks/:taskId", s.route("update_task", s.handleUpdateTask))
	p.PATCH("/:id/tasks/:taskId/toggle", s.route("toggle_task", s.handleToggleTask))
	p.DELETE("/:id/tasks/:taskId", s.route("delete_task", s.handleDeleteTask))
}

// route counts calls and serves injected failures, which skip holds, before
// waiting on any hold and running h.
func (s *Server) route(op string, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.calls[op]++
		hold := s.holds[op]
		var f *failure
		if q := s.fail[op]; len(q) > 0 {
			f = &q[0]
			s.fail[op] = q[1:]
		}
		s.mu.Unlock()

		if f != nil {
			return fail(f.status, f.message, nil)
		}
		if hold != nil {
			select {
			case <-hold:
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		return h(c)
	}
}

func (s *Server) recordRequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requestIDs = append(s.requestIDs, c.Request().Header.Get("X-Request-ID"))
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		required := s.requireTok
		auth := c.Request().Header.Get("Authorization")
		_, ok := s.tokens[strings.TrimPrefix(auth, "Bearer ")]
		s.mu.Unlock()

		if required && (!strings.HasPrefix(auth, "Bearer ") || !ok) {
			return fail(http.StatusUnauthorized, "Unauthorized", nil)
		}
		return next(c)
	}
}

// httpError is returned by handlers and rendered by handleError.
type httpError struct {
	status  int
	message string
	fields  map[string]string
}

func (e *httpError) Error() string { return e.message }

func fail(status int, message string, fields map[string]string) error {
	return &httpError{status: status, message: message, fields: fields}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *httpError
	var ee *echo.HTTPError
	switch {
	case errors.As(err, &he):
		_ = apiError(c, he.status, he.message, he.fields)
	case errors.As(err, &ee):
		_ = apiError(c, ee.Code, fmt.Sprint(ee.Message), nil)
	default:
		_ = apiError(c, http.StatusInternalServerError, "Unexpected error occurred", nil)
	}
}

// apiError writes the service's error body.
func apiError(c echo.Context, status int, message string, fields map[string]string) error {
	return c.JSON(status, map[string]any{
		"timestamp":        time.Now().UTC().Format(time.RFC3339Nano),
		"status":           status,
		"error":            http.StatusText(status),
		"message":          message,
		"path":             c.Request().URL.Path,
		"validationErrors": fields,
	})
}

// SetSummaryShape changes how the progress route answers.
func (s *Server) SetSummaryShape(shape SummaryShape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = shape
}

// SetAuthShape changes how login and registration answer.
func (s *Server) SetAuthShape(shape AuthShape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authShape = shape
}

// RequireToken toggles credential checks on project routes.
func (s *Server) RequireToken(required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireTok = required
}

// FailNext makes the next call of op answer status with message. Calls
// queue: FailNext twice fails the next two calls.
func (s *Server) FailNext(op string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = append(s.fail[op], failure{status: status, message: message})
}

// Hold makes calls of op wait until the returned func is called. Calls
// answered by FailNext do not wait.
func (s *Server) Hold(op string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[op] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, op)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op was requested.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// RequestIDs returns the X-Request-ID of every request received.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// AddAccount registers a user who can log in with Password and returns a
// token already valid for it.
func (s *Server) AddAccount(email, fullName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := account{id: s.nextID, email: email, fullName: fullName}
	s.nextID++
	s.accounts[email] = a
	return s.issueLocked(a)
}

// Revoke invalidates token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

func (s *Server) issueLocked(a account) string {
	tok := fmt.Sprintf("tok-%d-%d", a.id, len(s.tokens)+1)
	s.tokens[tok] = a.email
	return tok
}

// SeedProject stores a project with tasks and returns it with ids assigned.
func (s *Server) SeedProject(title string, tasks ...model.Task) (model.Project, []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := model.Project{ID: s.nextID, Title: title}
	s.nextID++
	s.projects[p.ID] = p
	s.order = append(s.order, p.ID)

	stored := make([]model.Task, len(tasks))
	for i, t := range tasks {
		t.ID = s.nextID
		s.nextID++
		stored[i] = t
	}
	s.tasks[p.ID] = stored
	return p, append([]model.Task(nil), stored...)
}

// Tasks returns the stored tasks of a project.
func (s *Server) Tasks(projectID int64) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks[projectID]...)
}

// Project returns a stored project.
func (s *Server) Project(id int64) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	return p, ok
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil
}

func (s *Server) projectList() []model.Project {
	ids := append([]int64(nil), s.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.projects[id])
	}
	return out
}
