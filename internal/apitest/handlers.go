package apitest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/taskflow/internal/model"
)

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req authRequest
	if err := c.Bind(&req); err != nil {
		return fail(http.StatusBadRequest, "invalid request body", nil)
	}
	s.mu.Lock()
	a, ok := s.accounts[req.Email]
	if !ok || req.Password != Password {
		s.mu.Unlock()
		return fail(http.StatusUnauthorized, "Invalid credentials", nil)
	}
	tok := s.issueLocked(a)
	shape := s.authShape
	s.mu.Unlock()
	return c.JSON(http.StatusOK, authBody(shape, tok, a))
}

func (s *Server) handleRegister(c echo.Context) error {
	var req authRequest
	if err := c.Bind(&req); err != nil {
		return fail(http.StatusBadRequest, "invalid request body", nil)
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "must not be blank"
	}
	if len(req.Password) < 6 {
		fields["password"] = "size must be between 6 and 100"
	}
	if len(fields) > 0 {
		return fail(http.StatusBadRequest, "Validation failed", fields)
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		return fail(http.StatusBadRequest, "Email already in use", nil)
	}
	a := account{id: s.nextID, email: req.Email, fullName: req.FullName}
	s.nextID++
	s.accounts[a.email] = a
	tok := s.issueLocked(a)
	shape := s.authShape
	s.mu.Unlock()
	return c.JSON(http.StatusOK, authBody(shape, tok, a))
}

func authBody(shape AuthShape, token string, a account) map[string]any {
	switch shape {
	case AuthFlat:
		return map[string]any{"token": token, "userId": a.id, "email": a.email, "fullName": a.fullName}
	case AuthTokenOnly:
		return map[string]any{"token": token}
	default:
		return map[string]any{"token": token, "user": map[string]any{
			"id": a.id, "email": a.email, "fullName": a.fullName,
		}}
	}
}

func (s *Server) handleListProjects(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.projectList())
}

func (s *Server) handleListProjectsPage(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size < 1 {
		size = 8
	}
	if page < 0 {
		page = 0
	}

	s.mu.Lock()
	all := s.projectList()
	s.mu.Unlock()

	start := min(page*size, len(all))
	end := min(start+size, len(all))
	return c.JSON(http.StatusOK, map[string]any{
		"content":       all[start:end],
		"totalPages":    (len(all) + size - 1) / size,
		"totalElements": len(all),
		"number":        page,
		"size":          size,
	})
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var in model.ProjectInput
	if err := c.Bind(&in); err != nil {
		return fail(http.StatusBadRequest, "invalid request body", nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fail(http.StatusBadRequest, "Validation failed", map[string]string{"title": "must not be blank"})
	}

	s.mu.Lock()
	p := model.Project{ID: s.nextID, Title: in.Title, Description: in.Description}
	s.nextID++
	s.projects[p.ID] = p
	s.order = append(s.order, p.ID)
	s.tasks[p.ID] = nil
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) project(c echo.Context) (model.Project, error) {
	id, ok := pathID(c, "id")
	if !ok {
		return model.Project{}, fail(http.StatusBadRequest, "invalid project id", nil)
	}
	s.mu.Lock()
	p, found := s.projects[id]
	s.mu.Unlock()
	if !found {
		return model.Project{}, fail(http.StatusNotFound, "Project not found", nil)
	}
	return p, nil
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	var in model.ProjectInput
	if err := c.Bind(&in); err != nil {
		return fail(http.StatusBadRequest, "invalid request body", nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fail(http.StatusBadRequest, "Validation failed", map[string]string{"title": "must not be blank"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return fail(http.StatusNotFound, "Project not found", nil)
	}
	p.Title, p.Description = in.Title, in.Description
	s.projects[p.ID] = p
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, p.ID)
	delete(s.tasks, p.ID)
	for i, id := range s.order {
		if id == p.ID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleProgress(c echo.Context) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	shape := s.summary
	tasks := s.tasks[p.ID]
	s.mu.Unlock()

	total, done := len(tasks), 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(done) * 100 / float64(total)
	}

	switch shape {
	case SummaryCamel:
		return c.JSON(http.StatusOK, map[string]any{
			"projectId": p.ID, "totalTasks": total, "completedTasks": done, "progressPercentage": pct,
		})
	case SummarySnake:
		return c.JSON(http.StatusOK, map[string]any{
			"total_tasks": strconv.Itoa(total), "completed_tasks": done, "completionPercentage": pct,
		})
	case SummaryMissing:
		return fail(http.StatusNotFound, "No static resource", nil)
	case SummaryMalformed:
		return c.String(http.StatusOK, "<html>progress</html>")
	case SummaryNonObject:
		return c.JSON(http.StatusOK, []int{total, done})
	default:
		ipct := 0
		if total > 0 {
			ipct = (200*done + total) / (2 * total)
		}
		return c.JSON(http.StatusOK, map[string]any{"total": total, "done": done, "pct": ipct})
	}
}

func (s *Server) handleListTasks(c echo.Context) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks[p.ID]
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	var in model.TaskInput
	if err := c.Bind(&in); err != nil {
		return fail(http.StatusBadRequest, "invalid request body", nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fail(http.StatusBadRequest, "Validation failed", map[string]string{"title": "must not be blank"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Task{ID: s.nextID, Title: in.Title, Description: in.Description, DueDate: in.DueDate}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	s.nextID++
	s.tasks[p.ID] = append(s.tasks[p.ID], t)
	return c.JSON(http.StatusCreated, t)
}

// withTask runs fn on the stored task at index i of project p, under the lock.
func (s *Server) withTask(c echo.Context, fn func(p model.Project, i int) error) error {
	p, err := s.project(c)
	if err != nil {
		return err
	}
	taskID, ok := pathID(c, "taskId")
	if !ok {
		return fail(http.StatusBadRequest, "invalid task id", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks[p.ID] {
		if t.ID == taskID {
			return fn(p, i)
		}
	}
	return fail(http.StatusNotFound, "Task not found", nil)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	var in model.TaskInput
	if err := c.Bind(&in); err != nil {
		return fail(http.StatusBadRequest, "invalid request body", nil)
	}
	if strings.TrimSpace(in.Title) == "" {
		return fail(http.StatusBadRequest, "Validation failed", map[string]string{"title": "must not be blank"})
	}
	return s.withTask(c, func(p model.Project, i int) error {
		t := s.tasks[p.ID][i]
		t.Title, t.Description, t.DueDate = in.Title, in.Description, in.DueDate
		if in.Completed != nil {
			t.Completed = *in.Completed
		}
		s.tasks[p.ID] = replaceTask(s.tasks[p.ID], i, t)
		return c.JSON(http.StatusOK, t)
	})
}

func (s *Server) handleToggleTask(c echo.Context) error {
	return s.withTask(c, func(p model.Project, i int) error {
		t := s.tasks[p.ID][i].Toggled()
		s.tasks[p.ID] = replaceTask(s.tasks[p.ID], i, t)
		return c.JSON(http.StatusOK, t)
	})
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	return s.withTask(c, func(p model.Project, i int) error {
		tasks := s.tasks[p.ID]
		s.tasks[p.ID] = append(tasks[:i:i], tasks[i+1:]...)
		return c.NoContent(http.StatusNoContent)
	})
}

func replaceTask(tasks []model.Task, i int, t model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	out[i] = t
	return out
}
