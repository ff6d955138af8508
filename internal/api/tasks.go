package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fyrsmithlabs/taskflow/internal/model"
)

func tasksPath(projectID int64) string {
	return fmt.Sprintf("/projects/%d/tasks", projectID)
}

func taskPath(projectID, taskID int64) string {
	return fmt.Sprintf("/projects/%d/tasks/%d", projectID, taskID)
}

// ListTasks returns the tasks of one project.
func (c *Client) ListTasks(ctx context.Context, projectID int64) ([]model.Task, error) {
	var out []model.Task
	if err := c.do(ctx, "list_tasks", http.MethodGet, tasksPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask validates in and adds a task to a project.
func (c *Client) CreateTask(ctx context.Context, projectID int64, in model.TaskInput) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	var out model.Task
	err := c.do(ctx, "create_task", http.MethodPost, tasksPath(projectID), in, &out)
	return out, err
}

// UpdateTask validates in and replaces the task's fields.
func (c *Client) UpdateTask(ctx context.Context, projectID, taskID int64, in model.TaskInput) (model.Task, error) {
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}
	var out model.Task
	err := c.do(ctx, "update_task", http.MethodPut, taskPath(projectID, taskID), in, &out)
	return out, err
}

// ToggleTask flips a task's completion state and returns the server's copy.
func (c *Client) ToggleTask(ctx context.Context, projectID, taskID int64) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, "toggle_task", http.MethodPatch, taskPath(projectID, taskID)+"/toggle", nil, &out)
	return out, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID int64) error {
	return c.do(ctx, "delete_task", http.MethodDelete, taskPath(projectID, taskID), nil, nil)
}
