package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/portal/internal/tui/styles"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// RenderSpinner returns the spinner character for a frame
func RenderSpinner(frame int) string {
	return styles.AccentStyle.Render(spinnerFrames[frame%len(spinnerFrames)])
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	// Handle modal states
	if m.State == StateHelp {
		return m.renderHelp()
	}
	if m.State == StateConfirmDelete {
		return m.renderDeleteConfirmation()
	}

	layout := m.calculateLayout()

	var left string
	switch m.ActiveTab {
	case TabLocations:
		left = m.locations.column.View()
	case TabCharacters:
		left = m.characters.column.View()
	case TabSearch:
		left = lipgloss.JoinVertical(lipgloss.Left,
			" "+m.SearchInput.View(),
			m.results.View(),
		)
	case TabHistory:
		left = m.history.View()
	}

	var right string
	switch {
	case m.Story.IsVisible():
		right = m.Story.View()
	case m.ActiveTab == TabHistory:
		right = m.renderHistoryHint(layout)
	case layout.notesWidth > 0:
		right = lipgloss.JoinHorizontal(lipgloss.Top, m.Inspector.View(), m.notes.column.View())
	default:
		right = m.Inspector.View()
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	view := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTabs(),
		content,
		m.renderFooter(),
	)

	// Overlay input modal if visible
	if m.InputModal.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	}

	return view
}

// renderTabs renders the tab bar
func (m Model) renderTabs() string {
	parts := make([]string, 0, len(tabNames)+1)
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.ActiveTab {
			parts = append(parts, styles.ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, styles.InactiveTabStyle.Render(label))
		}
	}
	bar := strings.Join(parts, " ")

	if m.AIStatus != "" {
		badge := styles.WarningStyle.Render(m.AIStatus)
		if gap := m.Width - lipgloss.Width(bar) - lipgloss.Width(badge) - 1; gap > 0 {
			bar += strings.Repeat(" ", gap) + badge
		}
	}
	return bar
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	// Left side: spinner + status when loading or status message active
	var left string
	if m.Loading {
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render(m.LoadingText)
	} else if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	}

	// Center section: context-specific hints
	center := m.renderHints()

	// Right side: "? help" hint
	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

func (m Model) renderHints() string {
	hint := func(k, desc string) string {
		return styles.AccentStyle.Render(k) + styles.DimStyle.Render(" "+desc)
	}

	var hints []string
	switch m.ActiveTab {
	case TabLocations:
		hints = []string{hint("enter", "Details"), hint("s", "Adventure")}
	case TabCharacters:
		if m.notesFocused {
			hints = []string{hint("a", "Add"), hint("e", "Edit"), hint("d", "Delete")}
		} else {
			hints = []string{hint("enter", "Details"), hint("b", "Backstory")}
			if m.character != nil {
				hints = append(hints, hint("a", "Note"))
			}
		}
	case TabSearch:
		hints = []string{hint("/", "Query"), hint("enter", "Details")}
	case TabHistory:
		hints = []string{hint("enter", "Open"), hint("d", "Delete")}
	}

	if c := m.focusedColumn(); c != nil && !c.IsFiltering() {
		if st := c.State(); st.Err != "" {
			hints = append([]string{hint("r", "Retry")}, hints...)
		}
	}
	return strings.Join(hints, "  ")
}

func (m Model) renderHistoryHint(layout paneLayout) string {
	style := styles.InactiveBorder
	frameW, frameH := style.GetFrameSize()

	text := styles.DimStyle.Render("Generated stories are kept here.\n\nPress enter to open one, b on a character or s on a location to make more.")
	return style.
		Width(max(layout.detailWidth-frameW, 0)).
		Height(max(layout.height-frameH, 0)).
		Render(text)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      NOTES
  j/k        Up/down               a      Add note
  g/G        First/last item       e      Edit note
  PgUp/PgDn  Scroll page           d      Delete note
  Ctrl+u/d   Scroll half page      tab    Switch list/notes
  J/K        Scroll details
  1-4        Switch tab

LISTS                           STUDIO
  Enter      Open details          b      Generate backstory
  /          Filter / search       s      Generate adventure
  r          Retry failed page     v      Evaluate story
  R          Reload list           n      Save backstory to notes
                                   Esc    Close story

  q  Quit      ?  This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderDeleteConfirmation renders the delete confirmation modal
func (m Model) renderDeleteConfirmation() string {
	preview := ""
	if m.pendingDelete != nil {
		preview = styles.Truncate(m.pendingDelete.GetTitle(), 36)
	}

	modal := fmt.Sprintf(`
            Delete note?

  %s

        [Y] Yes      [N] No
`, preview)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
