package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

// pageJSON is the JSON form of a listing page. Page numbers are 1-based.
type pageJSON[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

func toPageJSON[T any](p query.Page[T]) pageJSON[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return pageJSON[T]{
		Items:      items,
		Page:       p.Index + 1,
		PageSize:   p.Size,
		TotalPages: p.TotalPages,
		Total:      p.Total,
	}
}

func pageFooter[T any](w io.Writer, p query.Page[T], noun string) {
	if p.Total == 0 {
		fmt.Fprintf(w, "No %s\n", noun)
		return
	}
	fmt.Fprintf(w, "Page %d of %d (%d %s)\n", p.Index+1, p.TotalPages, p.Total, noun)
}

func countsLine[F ~string](order []F, counts map[F]int) string {
	parts := make([]string, len(order))
	for i, f := range order {
		parts[i] = fmt.Sprintf("%s %d", f, counts[f])
	}
	return strings.Join(parts, "  ")
}

func progressText(p progress.Progress) string {
	return fmt.Sprintf("%d/%d (%d%%)", p.Done, p.Total, p.Pct)
}

func dueText(t model.Task) string {
	if d, ok := t.Due(); ok {
		return d.String()
	}
	return "-"
}

func doneMark(t model.Task) string {
	if t.Completed {
		return "done"
	}
	return "todo"
}
