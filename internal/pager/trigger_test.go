package pager

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func nullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock fires AfterFunc callbacks only when Advance passes their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func newTestTrigger(clock *fakeClock) (*Trigger, *int) {
	calls := 0
	tr := NewTrigger(func() { calls++ }, TriggerConfig{Clock: clock})
	return tr, &calls
}

func TestTrigger_BurstWithinWindowFiresOnce(t *testing.T) {
	clock := newFakeClock()
	tr, calls := newTestTrigger(clock)
	tr.Sync(true, false, "")

	for i := 0; i < 10; i++ {
		tr.Visible()
		clock.Advance(40 * time.Millisecond)
	}

	assert.Equal(t, 1, *calls)
}

func TestTrigger_FiresAgainAfterWindow(t *testing.T) {
	clock := newFakeClock()
	tr, calls := newTestTrigger(clock)
	tr.Sync(true, false, "")

	assert.True(t, tr.Visible())
	clock.Advance(DefaultDebounce)
	assert.True(t, tr.Visible())
	assert.Equal(t, 2, *calls)
}

func TestTrigger_ReentryBlocksUntilReset(t *testing.T) {
	clock := newFakeClock()
	tr := NewTrigger(func() {}, TriggerConfig{
		Clock:        clock,
		Debounce:     10 * time.Millisecond,
		ReentryDelay: 100 * time.Millisecond,
	})
	tr.Sync(true, false, "")

	assert.True(t, tr.Visible())
	clock.Advance(50 * time.Millisecond)
	assert.False(t, tr.Visible(), "still re-entrant")
	clock.Advance(50 * time.Millisecond)
	assert.True(t, tr.Visible())
}

func TestTrigger_ObservesOnlyWhenAdvancementPermitted(t *testing.T) {
	tests := []struct {
		name    string
		hasMore bool
		loading bool
		err     string
		want    bool
	}{
		{name: "idle with more", hasMore: true, want: true},
		{name: "exhausted", hasMore: false},
		{name: "loading", hasMore: true, loading: true},
		{name: "error", hasMore: true, err: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			tr, calls := newTestTrigger(clock)
			tr.Sync(tt.hasMore, tt.loading, tt.err)

			assert.Equal(t, tt.want, tr.Observing())
			assert.Equal(t, tt.want, tr.Visible())
			if tt.want {
				assert.Equal(t, 1, *calls)
			} else {
				assert.Zero(t, *calls)
			}
		})
	}
}

func TestTrigger_ReinstallKeepsDebounceState(t *testing.T) {
	clock := newFakeClock()
	tr, calls := newTestTrigger(clock)

	tr.Sync(true, false, "")
	tr.Visible()
	tr.Sync(true, true, "")
	clock.Advance(200 * time.Millisecond)
	tr.Sync(true, false, "")
	tr.Visible()

	assert.Equal(t, 1, *calls, "still inside the debounce window")
}

func TestTrigger_StopTearsDown(t *testing.T) {
	clock := newFakeClock()
	tr, calls := newTestTrigger(clock)
	tr.Sync(true, false, "")
	tr.Stop()

	assert.False(t, tr.Visible())
	assert.Zero(t, *calls)
}

func TestTrigger_DrivesLoader(t *testing.T) {
	src := newFakeSource()
	src.pages[1] = Result[item]{Items: []item{{ID: 1}}, Next: next(2)}
	src.pages[2] = Result[item]{Items: []item{{ID: 2}}, Next: next(3)}
	src.pages[3] = Result[item]{Items: []item{{ID: 3}}}

	l := newTestLoader(src)
	defer l.Close()

	clock := newFakeClock()
	tr := NewTrigger(l.LoadMore, TriggerConfig{Clock: clock})

	l.Start()
	l.Wait()

	for i := 0; i < 5; i++ {
		SyncSnapshot(tr, l.Snapshot())
		tr.Visible()
		tr.Visible()
		l.Wait()
		clock.Advance(DefaultDebounce)
	}

	SyncSnapshot(tr, l.Snapshot())
	assert.False(t, tr.Observing())
	assert.Equal(t, []int{1, 2, 3}, src.callLog())
	assert.Equal(t, []int{1, 2, 3}, ids(l.Snapshot().Items))
}
