package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
)

func datePtr(d model.Date) *model.Date { return &d }

func TestParseFilters(t *testing.T) {
	assert.Equal(t, ProjectActive, ParseProjectFilter("Active"))
	assert.Equal(t, ProjectEmpty, ParseProjectFilter(" empty "))
	assert.Equal(t, ProjectAll, ParseProjectFilter("archived"))
	assert.Equal(t, ProjectAll, ParseProjectFilter(""))

	assert.Equal(t, TaskOverdue, ParseTaskFilter("OVERDUE"))
	assert.Equal(t, TaskUpcoming, ParseTaskFilter("in-progress"))
	assert.Equal(t, TaskAll, ParseTaskFilter("someday"))
}

func TestCountProjects_EndToEnd(t *testing.T) {
	projects := []model.Project{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}}
	lookup := map[int64]progress.Progress{
		1: progress.Compute(5, 5),
		2: progress.Compute(4, 0),
		3: progress.Compute(0, 0),
	}

	counts := CountProjects(projects, lookup)

	assert.Equal(t, map[ProjectFilter]int{
		ProjectAll:       3,
		ProjectCompleted: 1,
		ProjectActive:    1,
		ProjectEmpty:     1,
	}, counts)
}

func TestProjectFilter_UnknownProgressIsEmpty(t *testing.T) {
	projects := []model.Project{{ID: 1}, {ID: 2}}
	lookup := map[int64]progress.Progress{1: progress.Compute(2, 1)}

	assert.Len(t, Filter(projects, ProjectEmpty.ForProjects(lookup)), 1)
	assert.Len(t, Filter(projects, ProjectActive.ForProjects(lookup)), 1)
	assert.Len(t, Filter(projects, ProjectAll.ForProjects(lookup)), 2)
}

func TestTaskFilter_Matches(t *testing.T) {
	today := model.MustParseDate("2026-05-14")

	tasks := map[string]model.Task{
		"no date":        {ID: 1},
		"done no date":   {ID: 2, Completed: true},
		"yesterday":      {ID: 3, DueDate: datePtr(today.AddDays(-1))},
		"yesterday done": {ID: 4, DueDate: datePtr(today.AddDays(-1)), Completed: true},
		"today":          {ID: 5, DueDate: datePtr(today)},
		"today done":     {ID: 6, DueDate: datePtr(today), Completed: true},
		"day 7":          {ID: 7, DueDate: datePtr(today.AddDays(7))},
		"day 8":          {ID: 8, DueDate: datePtr(today.AddDays(8))},
	}

	tests := []struct {
		filter TaskFilter
		want   []string
	}{
		{TaskAll, []string{"no date", "done no date", "yesterday", "yesterday done", "today", "today done", "day 7", "day 8"}},
		{TaskTodo, []string{"no date", "yesterday", "today", "day 7", "day 8"}},
		{TaskDone, []string{"done no date", "yesterday done", "today done"}},
		{TaskToday, []string{"today", "today done"}},
		{TaskOverdue, []string{"yesterday"}},
		{TaskUpcoming, []string{"today", "day 7"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			var got []string
			for name, task := range tasks {
				if tt.filter.Matches(task, today) {
					got = append(got, name)
				}
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestCountTasks(t *testing.T) {
	today := model.MustParseDate("2026-05-14")
	rows := []model.TaskRow{
		{Task: model.Task{ID: 1, DueDate: datePtr(today)}, ProjectID: 1},
		{Task: model.Task{ID: 2, DueDate: datePtr(today.AddDays(-3))}, ProjectID: 1},
		{Task: model.Task{ID: 3, Completed: true}, ProjectID: 2},
	}

	counts := CountRows(rows, today)

	assert.Equal(t, 3, counts[TaskAll])
	assert.Equal(t, 2, counts[TaskTodo])
	assert.Equal(t, 1, counts[TaskDone])
	assert.Equal(t, 1, counts[TaskToday])
	assert.Equal(t, 1, counts[TaskOverdue])
	assert.Equal(t, 1, counts[TaskUpcoming])
}

func TestFilter_NilPredicateIsIdentity(t *testing.T) {
	items := []int{1, 2, 3}
	assert.Equal(t, items, Filter(items, nil))
}
