package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/portal/internal/library"
	"github.com/mmcdole/portal/internal/notes"
	"github.com/mmcdole/portal/internal/search"
	"github.com/mmcdole/portal/internal/studio"
)

// Command factories for async operations

const (
	detailTimeout     = 30 * time.Second
	writeTimeout      = 30 * time.Second
	generationTimeout = 3 * time.Minute
)

// LoadCharacterCmd loads a character's full record
func LoadCharacterCmd(svc *library.Service, id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()

		char, err := svc.Character(ctx, id)
		if err != nil {
			return DetailFailedMsg{Err: err}
		}
		return CharacterLoadedMsg{Character: char}
	}
}

// LoadLocationCmd loads a location with its residents
func LoadLocationCmd(svc *library.Service, id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()

		loc, err := svc.Location(ctx, id)
		if err != nil {
			return DetailFailedMsg{Err: err}
		}
		return LocationLoadedMsg{Location: loc}
	}
}

// CreateNoteCmd adds a note to a character
func CreateNoteCmd(svc *notes.Service, characterID int, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		note, err := svc.Create(ctx, characterID, content)
		if err != nil {
			return ErrMsg{Err: err, Context: "adding note"}
		}
		return NoteSavedMsg{Note: note, Created: true}
	}
}

// UpdateNoteCmd rewrites a note
func UpdateNoteCmd(svc *notes.Service, noteID int, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		note, err := svc.Update(ctx, noteID, content)
		if err != nil {
			return ErrMsg{Err: err, Context: "updating note"}
		}
		return NoteSavedMsg{Note: note}
	}
}

// DeleteNoteCmd removes a note
func DeleteNoteCmd(svc *notes.Service, noteID, characterID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := svc.Delete(ctx, noteID); err != nil {
			return ErrMsg{Err: err, Context: "deleting note"}
		}
		return NoteDeletedMsg{NoteID: noteID, CharacterID: characterID}
	}
}

// SearchCmd runs a semantic search, falling back to loaded names offline
func SearchCmd(svc *search.Service, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()

		outcome, err := svc.Search(ctx, query, 0)
		if err != nil {
			return ErrMsg{Err: err, Context: "searching"}
		}
		return SearchDoneMsg{Query: query, Outcome: outcome}
	}
}

// BackstoryCmd generates a backstory for a character
func BackstoryCmd(svc *studio.Service, characterID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()

		result, err := svc.Backstory(ctx, characterID)
		if err != nil {
			return ErrMsg{Err: err, Context: "generating backstory"}
		}
		return GeneratedMsg{Result: result}
	}
}

// AdventureCmd generates an adventure story for a location
func AdventureCmd(svc *studio.Service, locationID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()

		result, err := svc.Adventure(ctx, locationID)
		if err != nil {
			return ErrMsg{Err: err, Context: "generating adventure"}
		}
		return GeneratedMsg{Result: result}
	}
}

// EvaluateCmd scores a recorded generation
func EvaluateCmd(svc *studio.Service, entryID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()

		eval, err := svc.Evaluate(ctx, entryID)
		if err != nil {
			return ErrMsg{Err: err, Context: "evaluating"}
		}
		return EvaluatedMsg{EntryID: entryID, Evaluation: eval}
	}
}

// SaveToNotesCmd stores a backstory as a note on its character
func SaveToNotesCmd(svc *studio.Service, entryID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		note, err := svc.SaveToNotes(ctx, entryID)
		if err != nil {
			return ErrMsg{Err: err, Context: "saving to notes"}
		}
		return SavedToNotesMsg{EntryID: entryID, Note: note}
	}
}

// LoadHistoryCmd loads recent generations
func LoadHistoryCmd(svc *studio.Service) tea.Cmd {
	return func() tea.Msg {
		entries, err := svc.History(0)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading history"}
		}
		return HistoryLoadedMsg{Entries: entries}
	}
}

// HealthCmd checks whether AI generation is available
func HealthCmd(svc *studio.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		health, err := svc.Health(ctx)
		return HealthMsg{Health: health, Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
