package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNotObject is returned by ParseSummary when the body is not a JSON object.
var ErrNotObject = errors.New("progress summary is not a JSON object")

// Number is a leniently decoded JSON value. It accepts numbers, numeric
// strings and booleans; any other non-null value decodes as 0. A null or
// absent value leaves it unset.
type Number struct {
	value float64
	set   bool
}

// UnmarshalJSON never fails.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	n.set = true
	n.value = 0

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			n.value = parseFloat(s)
		}
	case 't':
		n.value = 1
	case 'f':
		n.value = 0
	case '{', '[':
		// Objects and arrays carry no count.
	default:
		n.value = parseFloat(string(data))
	}
	return nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// IsSet reports whether a non-null value was present.
func (n Number) IsSet() bool { return n.set }

// Float returns the decoded value.
func (n Number) Float() float64 { return n.value }

// Count returns the value as a non-negative integer count, truncating fractions.
func (n Number) Count() int {
	if n.value <= 0 {
		return 0
	}
	if n.value >= maxCount {
		return maxCount
	}
	return int(n.value)
}

// N builds a set Number, for tests and fakes.
func N(v float64) Number { return Number{value: v, set: true} }

// Summary is the union of every progress summary shape the remote service
// has been observed to return. The first set spelling in declaration order
// wins for each quantity.
type Summary struct {
	Total           Number `json:"total"`
	TotalTasks      Number `json:"totalTasks"`
	TotalTasksSnake Number `json:"total_tasks"`

	Done                Number `json:"done"`
	CompletedTasks      Number `json:"completedTasks"`
	CompletedTasksSnake Number `json:"completed_tasks"`

	Pct                  Number `json:"pct"`
	ProgressPercentage   Number `json:"progressPercentage"`
	CompletionPercentage Number `json:"completionPercentage"`
}

// ParseSummary decodes a summary body. Unknown fields are ignored; a body
// that is not a JSON object is an error.
func ParseSummary(body []byte) (Summary, error) {
	var s Summary
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return s, ErrNotObject
	}
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return s, err
	}
	return s, nil
}

func first(ns ...Number) Number {
	for _, n := range ns {
		if n.IsSet() {
			return n
		}
	}
	return Number{}
}

// Progress normalizes the summary. Pct is always derived from the counts.
func (s Summary) Progress() Progress {
	total := first(s.Total, s.TotalTasks, s.TotalTasksSnake).Count()
	done := first(s.Done, s.CompletedTasks, s.CompletedTasksSnake).Count()
	return Compute(total, done)
}

// ReportedPct returns the explicit percentage clamped to [0,100] and rounded
// half up; ok is false when the summary carries none.
func (s Summary) ReportedPct() (pct int, ok bool) {
	n := first(s.Pct, s.ProgressPercentage, s.CompletionPercentage)
	if !n.IsSet() {
		return 0, false
	}
	v := math.Max(0, math.Min(100, n.Float()))
	return int(math.Floor(v + 0.5)), true
}
