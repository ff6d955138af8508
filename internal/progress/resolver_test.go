package progress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/taskflow/internal/logging"
	"github.com/fyrsmithlabs/taskflow/internal/model"
)

type fakeSource struct {
	mu         sync.Mutex
	summaries  map[int64]string
	summaryErr error
	tasks      map[int64][]model.Task
	tasksErr   error
	panicOn    int64

	summaryCalls atomic.Int32
	taskCalls    atomic.Int32
	inFlight     atomic.Int32
	maxInFlight  atomic.Int32
	delay        time.Duration
}

func (f *fakeSource) ProgressSummary(_ context.Context, id int64) ([]byte, error) {
	f.summaryCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if id == f.panicOn {
		panic("boom")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	body, ok := f.summaries[id]
	if !ok {
		return nil, errors.New("404")
	}
	return []byte(body), nil
}

func (f *fakeSource) ListTasks(_ context.Context, id int64) ([]model.Task, error) {
	f.taskCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	return f.tasks[id], nil
}

func TestResolver_SummaryPath(t *testing.T) {
	src := &fakeSource{summaries: map[int64]string{1: `{"totalTasks":3,"completedTasks":1,"progressPercentage":33.33}`}}
	r := NewResolver(src)

	before := testutil.ToFloat64(NewMetrics().ResolutionsTotal.WithLabelValues(pathSummary))
	got := r.Resolve(context.Background(), 1)

	assert.Equal(t, Progress{Total: 3, Done: 1, Pct: 33}, got)
	assert.Equal(t, int32(0), src.taskCalls.Load())
	assert.Equal(t, before+1, testutil.ToFloat64(NewMetrics().ResolutionsTotal.WithLabelValues(pathSummary)))
}

func TestResolver_FallbackIsEquivalent(t *testing.T) {
	tasks := tasksWith(7, 3)
	viaSummary := NewResolver(&fakeSource{summaries: map[int64]string{1: `{"total":7,"done":3}`}})
	viaTasks := NewResolver(&fakeSource{
		summaryErr: errors.New("connection refused"),
		tasks:      map[int64][]model.Task{1: tasks},
	})

	a := viaSummary.Resolve(context.Background(), 1)
	b := viaTasks.Resolve(context.Background(), 1)
	assert.Equal(t, a, b)
	assert.Equal(t, Progress{Total: 7, Done: 3, Pct: 43}, b)
}

func TestResolver_FallbackOnMalformedBody(t *testing.T) {
	for _, body := range []string{`<html>502</html>`, `null`, `[1,2]`, `{"total":`} {
		t.Run(body, func(t *testing.T) {
			src := &fakeSource{
				summaries: map[int64]string{1: body},
				tasks:     map[int64][]model.Task{1: tasksWith(2, 2)},
			}
			got := NewResolver(src).Resolve(context.Background(), 1)
			assert.Equal(t, Progress{Total: 2, Done: 2, Pct: 100}, got)
			assert.Equal(t, int32(1), src.taskCalls.Load())
		})
	}
}

func TestResolver_BothPathsFail(t *testing.T) {
	tl := logging.NewTestLogger()
	src := &fakeSource{summaryErr: errors.New("down"), tasksErr: errors.New("still down")}

	got := NewResolver(src, WithLogger(tl.Logger)).Resolve(context.Background(), 5)

	assert.Equal(t, Progress{}, got)
	tl.AssertLogged(t, zapcore.WarnLevel, "progress unavailable")
	tl.AssertField(t, "progress unavailable", "project.id", int64(5))
}

func TestResolver_NeverPanics(t *testing.T) {
	src := &fakeSource{panicOn: 3}
	var got Progress
	assert.NotPanics(t, func() { got = NewResolver(src).Resolve(context.Background(), 3) })
	assert.Equal(t, Progress{}, got)
}

func TestResolver_LogsDivergence(t *testing.T) {
	tl := logging.NewTestLogger()
	src := &fakeSource{summaries: map[int64]string{1: `{"total":4,"done":1,"pct":90}`}}

	got := NewResolver(src, WithLogger(tl.Logger)).Resolve(context.Background(), 1)

	assert.Equal(t, 25, got.Pct)
	tl.AssertLogged(t, zapcore.WarnLevel, "progress diverges")
	tl.AssertField(t, "progress diverges", "reported_pct", int64(90))
}

func TestResolver_DeletingLastTaskYieldsZero(t *testing.T) {
	src := &fakeSource{
		summaryErr: errors.New("no summary endpoint"),
		tasks:      map[int64][]model.Task{1: {{ID: 1, Title: "only", Completed: true}}},
	}
	r := NewResolver(src)
	require.Equal(t, Progress{Total: 1, Done: 1, Pct: 100}, r.Resolve(context.Background(), 1))

	src.mu.Lock()
	src.tasks[1] = nil
	src.mu.Unlock()

	assert.Equal(t, Progress{Total: 0, Done: 0, Pct: 0}, r.Resolve(context.Background(), 1))
}

func TestResolveAll_BoundedParallelism(t *testing.T) {
	src := &fakeSource{summaries: map[int64]string{}, delay: 5 * time.Millisecond}
	ids := make([]int64, 12)
	for i := range ids {
		ids[i] = int64(i + 1)
		src.summaries[ids[i]] = `{"total":2,"done":1}`
	}

	got := NewResolver(src).ResolveAll(context.Background(), ids, 3)

	require.Len(t, got, 12)
	for _, id := range ids {
		assert.Equal(t, Progress{Total: 2, Done: 1, Pct: 50}, got[id])
	}
	assert.LessOrEqual(t, src.maxInFlight.Load(), int32(3))
}

func TestMemo(t *testing.T) {
	src := &fakeSource{summaries: map[int64]string{1: `{"total":2,"done":0}`}}
	memo := NewMemo(NewResolver(src))
	ctx := context.Background()

	_, ok := memo.Peek(1)
	assert.False(t, ok)

	assert.Equal(t, Compute(2, 0), memo.Get(ctx, 1))
	assert.Equal(t, Compute(2, 0), memo.Get(ctx, 1))
	assert.Equal(t, int32(1), src.summaryCalls.Load())

	src.mu.Lock()
	src.summaries[1] = `{"total":2,"done":2}`
	src.mu.Unlock()

	memo.Invalidate(1)
	assert.Equal(t, Compute(2, 2), memo.Get(ctx, 1))
	assert.Equal(t, int32(2), src.summaryCalls.Load())

	memo.Reset()
	assert.Empty(t, memo.Snapshot())

	filled := memo.Fill(ctx, []int64{1}, 2)
	assert.Equal(t, Compute(2, 2), filled[1])
	p, ok := memo.Peek(1)
	assert.True(t, ok)
	assert.Equal(t, Compute(2, 2), p)
}
