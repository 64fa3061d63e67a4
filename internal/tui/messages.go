package tui

import (
	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/pager"
	"github.com/mmcdole/portal/internal/search"
	"github.com/mmcdole/portal/internal/studio"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// loaderChangedMsg signals that a loader changed state
type loaderChangedMsg struct {
	Change pager.Change
}

// CharacterLoadedMsg carries a character's full record
type CharacterLoadedMsg struct {
	Character *domain.CharacterDetail
}

// LocationLoadedMsg carries a location with its residents
type LocationLoadedMsg struct {
	Location *domain.LocationDetail
}

// DetailFailedMsg signals that a detail fetch failed
type DetailFailedMsg struct {
	Err error
}

// NoteSavedMsg signals that a note was created or updated
type NoteSavedMsg struct {
	Note    *domain.Note
	Created bool
}

// NoteDeletedMsg signals that a note was deleted
type NoteDeletedMsg struct {
	NoteID      int
	CharacterID int
}

// SearchDoneMsg carries search results for a query
type SearchDoneMsg struct {
	Query   string
	Outcome *search.Outcome
}

// GeneratedMsg signals that a backstory or adventure is ready
type GeneratedMsg struct {
	Result *studio.Result
}

// EvaluatedMsg signals that a generation was scored
type EvaluatedMsg struct {
	EntryID    string
	Evaluation *domain.Evaluation
}

// SavedToNotesMsg signals that a generation was stored as a note
type SavedToNotesMsg struct {
	EntryID string
	Note    *domain.Note
}

// HistoryLoadedMsg carries recent generations
type HistoryLoadedMsg struct {
	Entries []*domain.HistoryEntry
}

// HealthMsg reports whether AI generation is available
type HealthMsg struct {
	Health *domain.AIHealth
	Err    error
}
