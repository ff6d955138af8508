package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTitle is returned when a project or task title is blank.
var ErrEmptyTitle = errors.New("title is required")

// UpcomingWindowDays is the horizon of the "upcoming" task category: tasks
// due between today and today plus this many days, both ends included.
const UpcomingWindowDays = 7

// Project is a remote-owned container of tasks.
type Project struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// Task belongs to exactly one project, referenced by id by the caller.
type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     *Date   `json:"dueDate,omitempty"`
	Completed   bool    `json:"completed"`
}

// DescriptionText returns the description or "" when absent.
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Due returns the due date; ok is false when none is set.
func (t Task) Due() (Date, bool) {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return Date{}, false
	}
	return *t.DueDate, true
}

// IsDueOn reports whether the task is due on day.
func (t Task) IsDueOn(day Date) bool {
	due, ok := t.Due()
	return ok && due == day
}

// IsOverdue reports whether an open task's due date is strictly before today.
func (t Task) IsOverdue(today Date) bool {
	due, ok := t.Due()
	return ok && !t.Completed && due.Before(today)
}

// IsUpcoming reports whether an open task is due within UpcomingWindowDays of today.
func (t Task) IsUpcoming(today Date) bool {
	due, ok := t.Due()
	if !ok || t.Completed {
		return false
	}
	diff := today.DaysUntil(due)
	return diff >= 0 && diff <= UpcomingWindowDays
}

// Toggled returns a copy of t with its completion flag flipped.
func (t Task) Toggled() Task {
	t.Completed = !t.Completed
	return t
}

// DescriptionText returns the description or "" when absent.
func (p Project) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// TaskKey identifies a task across projects.
type TaskKey struct {
	ProjectID int64
	TaskID    int64
}

func (k TaskKey) String() string {
	return fmt.Sprintf("%d/%d", k.ProjectID, k.TaskID)
}

// TaskRow is a task annotated with its owning project for cross-project listings.
type TaskRow struct {
	Task
	ProjectID    int64  `json:"projectId"`
	ProjectTitle string `json:"projectTitle"`
}

// Key returns the row identity (ProjectID, Task.ID).
func (r TaskRow) Key() TaskKey {
	return TaskKey{ProjectID: r.ProjectID, TaskID: r.ID}
}

// Toggled returns a copy of r with its completion flag flipped.
func (r TaskRow) Toggled() TaskRow {
	r.Task = r.Task.Toggled()
	return r
}

// RowsFor annotates tasks with their project.
func RowsFor(p Project, tasks []Task) []TaskRow {
	rows := make([]TaskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = TaskRow{Task: t, ProjectID: p.ID, ProjectTitle: p.Title}
	}
	return rows
}

// ProjectInput is the create/update payload for a project.
type ProjectInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// Validate trims the title and rejects blank ones.
func (in *ProjectInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrEmptyTitle
	}
	in.Description = trimOptional(in.Description)
	return nil
}

// TaskInput is the create/update payload for a task.
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     *Date   `json:"dueDate,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Validate trims the title and rejects blank ones.
func (in *TaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrEmptyTitle
	}
	in.Description = trimOptional(in.Description)
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}
	return nil
}

// InputFrom returns an edit payload prefilled from t.
func InputFrom(t Task) TaskInput {
	completed := t.Completed
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Completed:   &completed,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
