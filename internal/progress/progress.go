package progress

import (
	"fmt"

	"github.com/fyrsmithlabs/taskflow/internal/model"
)

// maxCount caps counts so they fit int on 32-bit targets. Percent works in
// int64, where 200*maxCount cannot overflow.
const maxCount = 1<<31 - 1

// Progress is a project's completion triple.
type Progress struct {
	Total int `json:"total"`
	Done  int `json:"done"`
	Pct   int `json:"pct"`
}

// Status is the category a project falls into by its progress.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Compute normalizes total and done and derives the percentage with
// round-half-up integer arithmetic.
func Compute(total, done int) Progress {
	total = clampCount(total)
	done = clampCount(done)
	if done > total {
		done = total
	}
	return Progress{Total: total, Done: done, Pct: Percent(done, total)}
}

// Percent returns round(done/total*100), or 0 when total is not positive.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	d, t := int64(done), int64(total)
	return int((200*d + t) / (2 * t))
}

// FromTasks counts completed tasks.
func FromTasks(tasks []model.Task) Progress {
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return Compute(len(tasks), done)
}

// Aggregate sums totals and dones and derives the combined percentage.
func Aggregate(ps []Progress) Progress {
	var total, done int64
	for _, p := range ps {
		total += int64(p.Total)
		done += int64(p.Done)
	}
	return Compute(clampCount64(total), clampCount64(done))
}

// Status classifies p. Zero tasks is empty; all tasks done is completed.
func (p Progress) Status() Status {
	switch {
	case p.Total == 0:
		return StatusEmpty
	case p.Pct == 100:
		return StatusCompleted
	default:
		return StatusActive
	}
}

// Valid reports whether p satisfies the progress invariant.
func (p Progress) Valid() bool {
	return p.Total >= 0 && p.Done >= 0 && p.Done <= p.Total && p.Pct == Percent(p.Done, p.Total)
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d (%d%%)", p.Done, p.Total, p.Pct)
}

func clampCount(n int) int {
	return clampCount64(int64(n))
}

func clampCount64(n int64) int {
	switch {
	case n < 0:
		return 0
	case n > maxCount:
		return maxCount
	default:
		return int(n)
	}
}
