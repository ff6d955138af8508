package query

import (
	"strings"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
)

// Filter keeps the items for which match returns true.
func Filter[T any](items []T, match func(T) bool) []T {
	if match == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// ProjectFilter is a project category.
type ProjectFilter string

const (
	ProjectAll       ProjectFilter = "all"
	ProjectActive    ProjectFilter = "active"
	ProjectCompleted ProjectFilter = "completed"
	ProjectEmpty     ProjectFilter = "empty"
)

// ProjectFilters lists every project category in display order.
var ProjectFilters = []ProjectFilter{ProjectAll, ProjectActive, ProjectCompleted, ProjectEmpty}

// ParseProjectFilter maps a name to a category. Unknown names mean all.
func ParseProjectFilter(s string) ProjectFilter {
	f := ProjectFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case ProjectActive, ProjectCompleted, ProjectEmpty:
		return f
	default:
		return ProjectAll
	}
}

// Matches evaluates the category against a project's current progress.
// Unknown progress (ok == false) counts as empty.
func (f ProjectFilter) Matches(p progress.Progress, ok bool) bool {
	if !ok {
		p = progress.Progress{}
	}
	switch f {
	case ProjectActive:
		return p.Status() == progress.StatusActive
	case ProjectCompleted:
		return p.Status() == progress.StatusCompleted
	case ProjectEmpty:
		return p.Status() == progress.StatusEmpty
	default:
		return true
	}
}

// ForProjects returns a predicate reading status from a progress lookup.
func (f ProjectFilter) ForProjects(lookup map[int64]progress.Progress) func(model.Project) bool {
	return func(p model.Project) bool {
		pr, ok := lookup[p.ID]
		return f.Matches(pr, ok)
	}
}

// TaskFilter is a task category.
type TaskFilter string

const (
	TaskAll      TaskFilter = "all"
	TaskTodo     TaskFilter = "todo"
	TaskDone     TaskFilter = "done"
	TaskToday    TaskFilter = "today"
	TaskOverdue  TaskFilter = "overdue"
	TaskUpcoming TaskFilter = "upcoming"
)

// TaskFilters lists every task category in display order.
var TaskFilters = []TaskFilter{TaskAll, TaskTodo, TaskToday, TaskUpcoming, TaskDone, TaskOverdue}

// ParseTaskFilter maps a name to a category. Unknown names mean all.
// "in-progress" and "soon" are accepted for upcoming.
func ParseTaskFilter(s string) TaskFilter {
	f := TaskFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case TaskTodo, TaskDone, TaskToday, TaskOverdue, TaskUpcoming:
		return f
	case "in-progress", "inprogress", "soon":
		return TaskUpcoming
	default:
		return TaskAll
	}
}

// Matches evaluates the category against t as of today.
func (f TaskFilter) Matches(t model.Task, today model.Date) bool {
	switch f {
	case TaskTodo:
		return !t.Completed
	case TaskDone:
		return t.Completed
	case TaskToday:
		return t.IsDueOn(today)
	case TaskOverdue:
		return t.IsOverdue(today)
	case TaskUpcoming:
		return t.IsUpcoming(today)
	default:
		return true
	}
}

// ForTasks returns a predicate for single-project listings.
func (f TaskFilter) ForTasks(today model.Date) func(model.Task) bool {
	return func(t model.Task) bool { return f.Matches(t, today) }
}

// ForRows returns a predicate for cross-project listings.
func (f TaskFilter) ForRows(today model.Date) func(model.TaskRow) bool {
	return func(r model.TaskRow) bool { return f.Matches(r.Task, today) }
}

// CountProjects returns the number of projects per category.
func CountProjects(projects []model.Project, lookup map[int64]progress.Progress) map[ProjectFilter]int {
	counts := make(map[ProjectFilter]int, len(ProjectFilters))
	for _, f := range ProjectFilters {
		counts[f] = 0
	}
	for _, p := range projects {
		pr, ok := lookup[p.ID]
		for _, f := range ProjectFilters {
			if f.Matches(pr, ok) {
				counts[f]++
			}
		}
	}
	return counts
}

// CountTasks returns the number of tasks per category as of today.
func CountTasks(tasks []model.Task, today model.Date) map[TaskFilter]int {
	counts := make(map[TaskFilter]int, len(TaskFilters))
	for _, f := range TaskFilters {
		counts[f] = 0
	}
	for _, t := range tasks {
		for _, f := range TaskFilters {
			if f.Matches(t, today) {
				counts[f]++
			}
		}
	}
	return counts
}

// CountRows is CountTasks for cross-project rows.
func CountRows(rows []model.TaskRow, today model.Date) map[TaskFilter]int {
	tasks := make([]model.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.Task
	}
	return CountTasks(tasks, today)
}
