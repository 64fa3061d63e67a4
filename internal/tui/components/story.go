package components

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/studio"
	"github.com/mmcdole/portal/internal/tui/styles"
)

// StoryView shows a generated story and its evaluation in a scrollable pane
type StoryView struct {
	visible  bool
	entry    *domain.HistoryEntry
	viewport viewport.Model
	theme    string
	wordWrap int
	status   string
	width    int
	height   int
}

// NewStoryView creates a story viewer rendering markdown with the given
// glamour style. wordWrap caps the text width, 0 uses the pane width.
func NewStoryView(theme string, wordWrap int) StoryView {
	return StoryView{
		viewport: viewport.New(0, 0),
		theme:    theme,
		wordWrap: wordWrap,
	}
}

// Show opens the viewer on an entry
func (s *StoryView) Show(entry *domain.HistoryEntry) {
	s.visible = true
	s.entry = entry
	s.status = ""
	s.render()
	s.viewport.GotoTop()
}

// Refresh re-renders the current entry, keeping the scroll position
func (s *StoryView) Refresh(entry *domain.HistoryEntry) {
	if s.entry == nil || entry == nil || entry.ID != s.entry.ID {
		return
	}
	s.entry = entry
	offset := s.viewport.YOffset
	s.render()
	s.viewport.SetYOffset(offset)
}

// Hide closes the viewer
func (s *StoryView) Hide() {
	s.visible = false
	s.status = ""
}

// IsVisible returns whether the viewer is open
func (s StoryView) IsVisible() bool { return s.visible }

// Entry returns the displayed entry
func (s StoryView) Entry() *domain.HistoryEntry { return s.entry }

// SetStatus sets the footer line (evaluating, saved, errors)
func (s *StoryView) SetStatus(status string) { s.status = status }

// SetSize updates the component dimensions
func (s *StoryView) SetSize(width, height int) {
	s.width = width
	s.height = height
	frameW, frameH := styles.ActiveBorder.GetFrameSize()
	s.viewport.Width = max(width-frameW, 0)
	s.viewport.Height = max(height-frameH-2, 0) // title and footer
	if s.entry != nil {
		s.render()
	}
}

// Update scrolls the viewport
func (s StoryView) Update(msg tea.Msg) (StoryView, tea.Cmd) {
	if !s.visible {
		return s, nil
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}

// View renders the component
func (s StoryView) View() string {
	if !s.visible || s.entry == nil {
		return ""
	}

	title := styles.AccentStyle.Render(s.entry.Kind.Label() + ": " + s.entry.SubjectName)

	footer := styles.DimStyle.Render("v evaluate · esc close")
	if s.entry.Kind == domain.KindBackstory && !s.entry.SavedToNote {
		footer = styles.DimStyle.Render("v evaluate · n save to notes · esc close")
	}
	if s.status != "" {
		footer = s.status
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, s.viewport.View(), footer)
	frameW, frameH := styles.ActiveBorder.GetFrameSize()
	return styles.ActiveBorder.
		Width(max(s.width-frameW, 0)).
		Height(max(s.height-frameH, 0)).
		Render(content)
}

func (s *StoryView) render() {
	if s.entry == nil {
		return
	}
	width := s.viewport.Width - 2
	if s.wordWrap > 0 && s.wordWrap < width {
		width = s.wordWrap
	}

	md := studio.Markdown(s.entry)
	out, err := studio.Render(md, s.theme, width)
	if err != nil {
		// Plain text beats an empty pane
		out = lipgloss.NewStyle().Width(max(width, 10)).Render(md)
	}
	s.viewport.SetContent(out)
}
