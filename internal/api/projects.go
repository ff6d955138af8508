package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fyrsmithlabs/taskflow/internal/model"
)

// Page is one page of a paged listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

func projectPath(id int64) string {
	return fmt.Sprintf("/projects/%d", id)
}

// ListProjects returns every project visible to the signed-in user.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := c.do(ctx, "list_projects", http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProjectsPage returns one server-side page of projects.
func (c *Client) ListProjectsPage(ctx context.Context, page, size int) (Page[model.Project], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out Page[model.Project]
	err := c.do(ctx, "list_projects_page", http.MethodGet, "/projects/paged?"+q.Encode(), nil, &out)
	return out, err
}

// GetProject returns one project.
func (c *Client) GetProject(ctx context.Context, id int64) (model.Project, error) {
	var out model.Project
	err := c.do(ctx, "get_project", http.MethodGet, projectPath(id), nil, &out)
	return out, err
}

// CreateProject validates in and creates a project.
func (c *Client) CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	if err := in.Validate(); err != nil {
		return model.Project{}, err
	}
	var out model.Project
	err := c.do(ctx, "create_project", http.MethodPost, "/projects", in, &out)
	return out, err
}

// UpdateProject validates in and replaces the project's title and description.
func (c *Client) UpdateProject(ctx context.Context, id int64, in model.ProjectInput) (model.Project, error) {
	if err := in.Validate(); err != nil {
		return model.Project{}, err
	}
	var out model.Project
	err := c.do(ctx, "update_project", http.MethodPut, projectPath(id), in, &out)
	return out, err
}

// DeleteProject deletes a project and its tasks.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_project", http.MethodDelete, projectPath(id), nil, nil)
}

// ProgressSummary returns the raw body of the project's progress summary.
// The body's shape varies between service versions; see progress.ParseSummary.
func (c *Client) ProgressSummary(ctx context.Context, id int64) ([]byte, error) {
	return c.send(ctx, "progress_summary", http.MethodGet, projectPath(id)+"/progress", nil)
}
