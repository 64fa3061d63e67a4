package tui

import (
	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/pager"
	"github.com/mmcdole/portal/internal/tui/components"
)

// listEntry is a record that can be paged and rendered in a list column
type listEntry interface {
	pager.Identifiable
	domain.ListItem
}

// pane is a list column fed by a loader
type pane interface {
	Column() *components.ListColumn
	Refresh()
	CheckSentinel() bool
	Retry() bool
	Reload()
	Close()
}

// pagedPane binds a loader, its sentinel trigger and the column rendering it
type pagedPane[T listEntry] struct {
	loader  *pager.Loader[T]
	trigger *pager.Trigger
	column  *components.ListColumn

	// Called with the rows after every refresh
	onItems func([]domain.ListItem)
}

func newPagedPane[T listEntry](loader *pager.Loader[T], column *components.ListColumn, cfg pager.TriggerConfig) *pagedPane[T] {
	return &pagedPane[T]{
		loader:  loader,
		trigger: pager.NewTrigger(loader.LoadMore, cfg),
		column:  column,
	}
}

func (p *pagedPane[T]) Column() *components.ListColumn { return p.column }

// Refresh copies the loader snapshot into the column and re-arms the trigger
func (p *pagedPane[T]) Refresh() {
	snap := p.loader.Snapshot()

	items := make([]domain.ListItem, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = item
	}
	p.column.SetItems(items)
	p.column.SetState(components.ListState{
		Phase: snap.Phase,
		Err:   snap.Err,
		Total: snap.Total,
	})
	pager.SyncSnapshot(p.trigger, snap)

	if p.onItems != nil {
		p.onItems(items)
	}
}

// CheckSentinel reports a visibility event when the sentinel row is on screen.
// Returns true if it led to a load-more.
func (p *pagedPane[T]) CheckSentinel() bool {
	if !p.column.SentinelVisible() {
		return false
	}
	return p.trigger.Visible()
}

// Retry re-fetches whichever page failed. Returns false when nothing failed.
func (p *pagedPane[T]) Retry() bool {
	switch p.loader.Snapshot().Phase {
	case pager.PhaseInitialError:
		p.loader.Retry()
		return true
	case pager.PhasePaginationError:
		p.loader.RetryPagination()
		return true
	default:
		return false
	}
}

func (p *pagedPane[T]) Reload() {
	p.loader.Reload()
}

func (p *pagedPane[T]) Close() {
	p.trigger.Stop()
	p.loader.Close()
}

// historyItem adapts a history entry to a list row
type historyItem struct {
	entry *domain.HistoryEntry
	index int
}

func (h historyItem) GetID() int { return h.index }

func (h historyItem) GetTitle() string {
	return h.entry.SubjectName
}

func (h historyItem) GetItemType() string { return "history" }

func (h historyItem) GetDescription() string {
	desc := h.entry.Kind.Label()
	if h.entry.Evaluation != nil {
		desc += " · evaluated"
	}
	return desc
}

func historyItems(entries []*domain.HistoryEntry) []domain.ListItem {
	items := make([]domain.ListItem, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e, index: i}
	}
	return items
}
