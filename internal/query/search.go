package query

import (
	"strings"

	"github.com/fyrsmithlabs/taskflow/internal/model"
)

// Field extracts one searchable text field from an item.
type Field[T any] func(T) string

// Search keeps items where any field contains q, case-insensitively.
// A blank query returns items unchanged.
func Search[T any](items []T, q string, fields ...Field[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" || len(fields) == 0 {
		return items
	}

	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(it)), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Searchable fields for the workspace listings.
var (
	ProjectFields = []Field[model.Project]{
		func(p model.Project) string { return p.Title },
	}
	TaskFields = []Field[model.Task]{
		func(t model.Task) string { return t.Title },
		func(t model.Task) string { return t.DescriptionText() },
	}
	TaskRowFields = []Field[model.TaskRow]{
		func(r model.TaskRow) string { return r.Title },
		func(r model.TaskRow) string { return r.DescriptionText() },
		func(r model.TaskRow) string { return r.ProjectTitle },
	}
)
