package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			note := m.pendingDelete
			m.pendingDelete = nil
			if note != nil {
				return m, DeleteNoteCmd(m.svc.Notes, note.ID, note.CharacterID)
			}
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
			m.pendingDelete = nil
		}
		return m, nil
	}

	// Route to active modal or input if any
	if handled, newModel, cmd := m.routeToInput(msg); handled {
		return newModel, cmd
	}

	// Story viewer takes scrolling keys while open
	if m.Story.IsVisible() {
		switch {
		case key.Matches(msg, Keys.Escape):
			m.Story.Hide()
			m.updateLayout()
			return m, nil
		case key.Matches(msg, Keys.Evaluate):
			entry := m.Story.Entry()
			m.Story.SetStatus(RenderSpinner(m.SpinnerFrame) + " Evaluating...")
			return m, EvaluateCmd(m.svc.Studio, entry.ID)
		case key.Matches(msg, Keys.SaveNote):
			entry := m.Story.Entry()
			m.Story.SetStatus(RenderSpinner(m.SpinnerFrame) + " Saving to notes...")
			return m, SaveToNotesCmd(m.svc.Studio, entry.ID)
		case key.Matches(msg, Keys.Quit, Keys.Help, Keys.Tab1, Keys.Tab2, Keys.Tab3, Keys.Tab4, Keys.NextTab):
			// handled below
		default:
			var cmd tea.Cmd
			m.Story, cmd = m.Story.Update(msg)
			return m, cmd
		}
	}

	col := m.focusedColumn()

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Tab1):
		return m, m.setTab(TabLocations)
	case key.Matches(msg, Keys.Tab2):
		return m, m.setTab(TabCharacters)
	case key.Matches(msg, Keys.Tab3):
		return m, m.setTab(TabSearch)
	case key.Matches(msg, Keys.Tab4):
		return m, m.setTab(TabHistory)
	case key.Matches(msg, Keys.NextTab):
		return m, m.setTab((m.ActiveTab + 1) % Tab(len(tabNames)))

	case key.Matches(msg, Keys.SwitchPane):
		if m.ActiveTab == TabCharacters && m.notes != nil {
			m.notesFocused = !m.notesFocused
			m.syncFocus()
		}
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if col != nil && col.IsFiltering() {
			col.ClearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		if m.ActiveTab == TabSearch {
			return m, m.SearchInput.Focus()
		}
		if col != nil {
			col.ToggleFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Retry):
		if p := m.focusedPane(); p != nil {
			if p.Retry() {
				return m, m.setStatus("Retrying...", false)
			}
			return m, nil
		}
		if m.ActiveTab == TabHistory {
			return m, LoadHistoryCmd(m.svc.Studio)
		}
		return m, nil

	case key.Matches(msg, Keys.Reload):
		if p := m.focusedPane(); p != nil {
			p.Reload()
			return m, m.setStatus("Reloading...", false)
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		return m, m.openSelected()

	case key.Matches(msg, Keys.AddNote):
		if m.ActiveTab == TabCharacters && m.character != nil {
			m.editingNoteID = 0
			return m, m.InputModal.Show("New note for "+m.character.Name, "", m.character.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.EditNote):
		if note, ok := m.selectedNote(); ok {
			m.editingNoteID = note.ID
			return m, m.InputModal.Show("Edit note", note.Content, note.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if note, ok := m.selectedNote(); ok {
			m.pendingDelete = &note
			m.State = StateConfirmDelete
			return m, nil
		}
		if m.ActiveTab == TabHistory {
			if h, ok := m.history.SelectedItem().(historyItem); ok {
				if err := m.svc.Studio.DeleteEntry(h.entry.ID); err != nil {
					return m, m.setStatus("Failed to delete: "+err.Error(), true)
				}
				return m, LoadHistoryCmd(m.svc.Studio)
			}
		}
		return m, nil

	case key.Matches(msg, Keys.Backstory):
		if id, name, ok := m.selectedCharacterID(); ok {
			m.Loading = true
			m.LoadingText = "Generating backstory for " + name + "..."
			return m, BackstoryCmd(m.svc.Studio, id)
		}
		return m, nil

	case key.Matches(msg, Keys.Adventure):
		if id, name, ok := m.selectedLocationID(); ok {
			m.Loading = true
			m.LoadingText = "Generating adventure at " + name + "..."
			return m, AdventureCmd(m.svc.Studio, id)
		}
		return m, nil

	case key.Matches(msg, Keys.ScrollDown):
		m.Inspector.ScrollDown()
		return m, nil

	case key.Matches(msg, Keys.ScrollUp):
		m.Inspector.ScrollUp()
		return m, nil
	}

	// Navigation within the focused column
	if col == nil {
		return m, nil
	}
	cmd := col.Update(msg)
	m.checkSentinels()
	return m, cmd
}

// routeToInput sends keys to whichever text input owns them
func (m Model) routeToInput(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if m.InputModal.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.InputModal, cmd, submitted = m.InputModal.Update(msg)
		if !submitted {
			return true, m, cmd
		}

		content := m.InputModal.Value()
		target := m.InputModal.Target
		m.InputModal.Hide()
		if m.editingNoteID != 0 {
			return true, m, UpdateNoteCmd(m.svc.Notes, target, content)
		}
		return true, m, CreateNoteCmd(m.svc.Notes, target, content)
	}

	if m.ActiveTab == TabSearch && m.SearchInput.Focused() {
		switch {
		case key.Matches(msg, Keys.Escape):
			m.SearchInput.Blur()
			return true, m, nil
		case key.Matches(msg, Keys.Enter):
			query := strings.TrimSpace(m.SearchInput.Value())
			if query == "" {
				return true, m, nil
			}
			m.SearchInput.Blur()
			m.Loading = true
			m.LoadingText = "Searching..."
			return true, m, SearchCmd(m.svc.Search, query)
		}
		var cmd tea.Cmd
		m.SearchInput, cmd = m.SearchInput.Update(msg)
		return true, m, cmd
	}

	if col := m.focusedColumn(); col != nil && col.IsFilterTyping() {
		cmd := col.Update(msg)
		return true, m, cmd
	}

	return false, m, nil
}
