package components

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/portal/internal/tui/styles"
)

const (
	noteModalWidth  = 60
	noteModalHeight = 8
	noteCharLimit   = 4000
)

// InputModal is a multi-line text editor modal used for notes
type InputModal struct {
	visible bool
	title   string
	input   textarea.Model
	keys    ModalKeyMap

	// Target carries what the edit applies to (a note or character ID)
	Target int
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ta := textarea.New()
	ta.Placeholder = "Write a note..."
	ta.CharLimit = noteCharLimit
	ta.SetWidth(noteModalWidth)
	ta.SetHeight(noteModalHeight)
	ta.ShowLineNumbers = false
	ta.Prompt = ""

	return InputModal{
		input: ta,
		keys:  DefaultModalKeyMap(),
	}
}

// Show displays the modal with a title and initial text
func (m *InputModal) Show(title, value string, target int) tea.Cmd {
	m.visible = true
	m.title = title
	m.Target = target
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events, returns (modal, cmd, submitted)
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Submit):
			return m, nil, true
		case key.Matches(keyMsg, m.keys.Cancel):
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.White).
		Bold(true).
		Width(noteModalWidth).
		Background(styles.SlateDark)

	hint := styles.DimStyle.Render(
		m.keys.Submit.Help().Key + " " + m.keys.Submit.Help().Desc + " · " +
			m.keys.Cancel.Help().Key + " " + m.keys.Cancel.Help().Desc)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title),
		"",
		m.input.View(),
		"",
		hint,
	)

	return styles.ModalStyle.Render(content)
}
