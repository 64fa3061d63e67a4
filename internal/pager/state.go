package pager

// Phase is the loader's position in its state machine:
//
//	Idle -> LoadingInitial -> {Ready, Exhausted, InitialError}
//	InitialError -> LoadingInitial (Retry)
//	Ready -> LoadingMore -> {Ready, Exhausted, PaginationError}
//	PaginationError -> LoadingMore (RetryPagination)
//
// Only one error can be visible at a time because each error lives in its own phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingInitial
	PhaseInitialError
	PhaseReady
	PhaseLoadingMore
	PhasePaginationError
	PhaseExhausted
)

// String returns a human-readable representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseLoadingInitial:
		return "LoadingInitial"
	case PhaseInitialError:
		return "InitialError"
	case PhaseReady:
		return "Ready"
	case PhaseLoadingMore:
		return "LoadingMore"
	case PhasePaginationError:
		return "PaginationError"
	case PhaseExhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// Snapshot is an immutable copy of a loader's state, safe to read from View().
type Snapshot[T any] struct {
	Items       []T
	Phase       Phase
	CurrentPage int    // last successfully loaded cursor, 0 before the first success
	Total       int    // server-reported record count, 0 when unknown
	Err         string // display message, set only in an error phase
}

// Loading reports whether a page fetch is in flight
func (s Snapshot[T]) Loading() bool {
	return s.Phase == PhaseLoadingInitial || s.Phase == PhaseLoadingMore
}

// HasMore reports whether advancing may fetch another page.
// False once the server reported no next page or a later page failed.
func (s Snapshot[T]) HasMore() bool {
	return s.Phase != PhaseExhausted && s.Phase != PhasePaginationError
}

// InitialError returns the first-page failure message, if any
func (s Snapshot[T]) InitialError() string {
	if s.Phase == PhaseInitialError {
		return s.Err
	}
	return ""
}

// PaginationError returns the later-page failure message, if any
func (s Snapshot[T]) PaginationError() string {
	if s.Phase == PhasePaginationError {
		return s.Err
	}
	return ""
}

// Empty reports whether nothing has been loaded yet
func (s Snapshot[T]) Empty() bool {
	return len(s.Items) == 0
}

// Change describes a state transition, delivered to observers
type Change struct {
	Name  string
	Phase Phase
	Count int
	Page  int
}

// Observer receives loader state changes.
type Observer interface {
	OnChange(change Change)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Change)

func (f ObserverFunc) OnChange(c Change) { f(c) }

// NoOpObserver discards changes (for tests and CLI use).
type NoOpObserver struct{}

func (NoOpObserver) OnChange(Change) {}
