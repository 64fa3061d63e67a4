package pager

import (
	"sync"
	"time"
)

const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultReentryDelay = 100 * time.Millisecond
)

// TriggerConfig configures a Trigger
type TriggerConfig struct {
	Debounce     time.Duration
	ReentryDelay time.Duration
	Clock        Clock
}

// Trigger turns repeated sentinel visibility events into rate-limited
// load-more calls. It observes only while the list can advance.
type Trigger struct {
	onLoadMore func()
	clock      Clock
	debounce   time.Duration
	reentry    time.Duration

	mu         sync.Mutex
	observing  bool
	inProgress bool
	last       time.Time
	reset      Timer
}

// NewTrigger creates a Trigger that calls onLoadMore. Zero config values
// fall back to the defaults.
func NewTrigger(onLoadMore func(), cfg TriggerConfig) *Trigger {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.ReentryDelay <= 0 {
		cfg.ReentryDelay = DefaultReentryDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	return &Trigger{
		onLoadMore: onLoadMore,
		clock:      cfg.Clock,
		debounce:   cfg.Debounce,
		reentry:    cfg.ReentryDelay,
	}
}

// Sync tears down the current observation and installs a new one only
// when the list has more pages, is idle and shows no error.
func (t *Trigger) Sync(hasMore, loading bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observing = hasMore && !loading && errMsg == ""
}

// SyncSnapshot is Sync fed from a loader snapshot
func SyncSnapshot[T any](t *Trigger, s Snapshot[T]) {
	errMsg := s.InitialError()
	if errMsg == "" {
		errMsg = s.PaginationError()
	}
	t.Sync(s.HasMore(), s.Loading(), errMsg)
}

// Observing reports whether visibility events are currently acted on
func (t *Trigger) Observing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.observing
}

// Visible reports that the sentinel entered the viewport. It returns true
// when the event resulted in a load-more call.
func (t *Trigger) Visible() bool {
	t.mu.Lock()
	if !t.observing || t.inProgress {
		t.mu.Unlock()
		return false
	}
	now := t.clock.Now()
	if !t.last.IsZero() && now.Sub(t.last) < t.debounce {
		t.mu.Unlock()
		return false
	}

	t.inProgress = true
	if now.After(t.last) {
		t.last = now
	}
	t.reset = t.clock.AfterFunc(t.reentry, t.clearInProgress)
	t.mu.Unlock()

	t.onLoadMore()
	return true
}

func (t *Trigger) clearInProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inProgress = false
	t.reset = nil
}

// Stop tears down observation and cancels the pending re-entry reset
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observing = false
	t.inProgress = false
	if t.reset != nil {
		t.reset.Stop()
		t.reset = nil
	}
}
