package pager

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Result is one page returned by a FetchFunc.
// Next is the following cursor, or nil when this was the last page.
type Result[T any] struct {
	Items []T
	Next  *int
	Total int // records across all pages, 0 when unknown
}

// FetchFunc retrieves the page at cursor (1-based).
type FetchFunc[T any] func(ctx context.Context, cursor int) (Result[T], error)

// Options configures a Loader
type Options struct {
	// Name identifies the loader in logs and change notifications
	Name string

	// Timeout bounds a single page fetch. Zero means no limit.
	Timeout time.Duration

	// FallbackMessage is shown when a failure carries no message
	FallbackMessage string

	Logger   *slog.Logger
	Observer Observer
}

// Loader accumulates pages from a cursor-paginated source.
//
// Page 1 replaces the list, later pages are merged with first-seen
// dedup by ID. A cursor is never requested twice concurrently, and
// results arriving after Close are discarded.
type Loader[T Identifiable] struct {
	fetch    FetchFunc[T]
	name     string
	timeout  time.Duration
	fallback string
	logger   *slog.Logger
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	items       []T
	phase       Phase
	currentPage int
	errMsg      string
	total       int
	inFlight    map[int]struct{}
	gen         int
	closed      bool
}

// NewLoader creates an idle loader. Call Start to fetch the first page.
func NewLoader[T Identifiable](fetch FetchFunc[T], opts Options) *Loader[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = NoOpObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Loader[T]{
		fetch:    fetch,
		name:     opts.Name,
		timeout:  opts.Timeout,
		fallback: opts.FallbackMessage,
		logger:   logger.With("loader", opts.Name),
		observer: observer,
		ctx:      ctx,
		cancel:   cancel,
		phase:    PhaseIdle,
		inFlight: make(map[int]struct{}),
	}
}

// Name returns the loader's name
func (l *Loader[T]) Name() string {
	return l.name
}

// Start fetches the first page. It is a no-op unless the loader is idle.
func (l *Loader[T]) Start() {
	l.mu.Lock()
	if l.closed || l.phase != PhaseIdle {
		l.mu.Unlock()
		return
	}
	l.issueLocked(1)
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

// LoadMore fetches the page after the last loaded one.
// It does nothing while the list is exhausted or a later-page error is
// showing, and never duplicates a fetch already in flight.
func (l *Loader[T]) LoadMore() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	switch l.phase {
	case PhaseExhausted, PhasePaginationError:
		l.mu.Unlock()
		return
	}

	cursor := l.currentPage + 1
	if _, busy := l.inFlight[cursor]; busy {
		l.mu.Unlock()
		return
	}
	l.issueLocked(cursor)
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

// Retry re-fetches page 1 after an initial failure.
// Other phases are left untouched.
func (l *Loader[T]) Retry() {
	l.mu.Lock()
	if l.closed || l.phase != PhaseInitialError {
		l.mu.Unlock()
		return
	}
	if _, busy := l.inFlight[1]; busy {
		l.mu.Unlock()
		return
	}
	l.issueLocked(1)
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

// RetryPagination re-fetches the page that failed after a later-page error.
func (l *Loader[T]) RetryPagination() {
	l.mu.Lock()
	if l.closed || l.phase != PhasePaginationError {
		l.mu.Unlock()
		return
	}
	cursor := l.currentPage + 1
	if _, busy := l.inFlight[cursor]; busy {
		l.mu.Unlock()
		return
	}
	l.issueLocked(cursor)
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

// Reload discards everything and starts over from page 1.
func (l *Loader[T]) Reload() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.gen++
	l.items = nil
	l.currentPage = 0
	l.total = 0
	l.errMsg = ""
	l.phase = PhaseIdle
	l.inFlight = make(map[int]struct{})
	l.mu.Unlock()

	l.Start()
}

// Upsert replaces a loaded record in place or inserts it when missing.
// Used to reflect local edits without refetching.
func (l *Loader[T]) Upsert(item T, front bool) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.items = Upsert(l.items, item, front)
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

// Remove drops a loaded record by ID
func (l *Loader[T]) Remove(id int) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.items = Remove(l.items, id)
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

// Snapshot returns the current state
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot[T]{
		Items:       l.items,
		Phase:       l.phase,
		CurrentPage: l.currentPage,
		Total:       l.total,
		Err:         l.errMsg,
	}
}

// Close cancels in-flight fetches. Results that still arrive are dropped.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.logger.Debug("loader closed")
}

// Wait blocks until every issued fetch has settled.
func (l *Loader[T]) Wait() {
	l.wg.Wait()
}

// issueLocked marks cursor in flight and launches the fetch. Caller holds mu.
func (l *Loader[T]) issueLocked(cursor int) {
	l.inFlight[cursor] = struct{}{}
	l.errMsg = ""
	if cursor == 1 {
		l.phase = PhaseLoadingInitial
	} else {
		l.phase = PhaseLoadingMore
	}

	l.logger.Debug("fetching page", "cursor", cursor)
	l.wg.Add(1)
	go l.run(cursor, l.gen)
}

func (l *Loader[T]) run(cursor, gen int) {
	defer l.wg.Done()

	ctx := l.ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := l.fetch(ctx, cursor)

	l.mu.Lock()
	if l.closed || gen != l.gen {
		l.mu.Unlock()
		l.logger.Debug("discarding stale page", "cursor", cursor)
		return
	}
	delete(l.inFlight, cursor)

	if err != nil {
		l.errMsg = Message(err, l.fallback)
		if cursor == 1 {
			l.phase = PhaseInitialError
		} else {
			l.phase = PhasePaginationError
		}
		l.logger.Error("page fetch failed", "cursor", cursor, "error", err)
	} else {
		if cursor == 1 {
			l.items = Dedupe(result.Items)
		} else {
			l.items = Merge(l.items, result.Items)
		}
		l.currentPage = cursor
		if result.Total > 0 {
			l.total = result.Total
		}
		l.errMsg = ""
		if result.Next == nil {
			l.phase = PhaseExhausted
		} else {
			l.phase = PhaseReady
		}
		l.logger.Debug("page loaded",
			"cursor", cursor,
			"count", len(result.Items),
			"loaded", len(l.items),
			"duration", time.Since(start))
	}
	change := l.changeLocked()
	l.mu.Unlock()

	l.observer.OnChange(change)
}

func (l *Loader[T]) changeLocked() Change {
	return Change{
		Name:  l.name,
		Phase: l.phase,
		Count: len(l.items),
		Page:  l.currentPage,
	}
}
