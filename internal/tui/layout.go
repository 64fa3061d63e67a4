package tui

// Layout proportions
const (
	ListColumnPercent    = 40 // Left list on two-pane tabs
	CharacterListPercent = 34 // Characters tab: [list | details | notes]
	NotesColumnPercent   = 30

	MinColumnWidth = 15

	// Tab bar plus footer
	ChromeHeight = 2

	// Search input line above the results
	SearchInputHeight = 1
)

// paneLayout holds calculated widths for the active tab
type paneLayout struct {
	listWidth   int
	detailWidth int
	notesWidth  int // 0 if not shown
	height      int
}

// calculateLayout computes column widths for the active tab
func (m Model) calculateLayout() paneLayout {
	layout := paneLayout{height: max(m.Height-ChromeHeight, 3)}

	applyMin := func(width int) int {
		return max(width, MinColumnWidth)
	}

	if m.ActiveTab == TabCharacters && m.notes != nil && !m.Story.IsVisible() {
		layout.listWidth = applyMin(m.Width * CharacterListPercent / 100)
		layout.notesWidth = applyMin(m.Width * NotesColumnPercent / 100)
		layout.detailWidth = applyMin(m.Width - layout.listWidth - layout.notesWidth)
		return layout
	}

	layout.listWidth = applyMin(m.Width * ListColumnPercent / 100)
	layout.detailWidth = applyMin(m.Width - layout.listWidth)
	return layout
}

// updateLayout sizes every component for the current window and tab
func (m *Model) updateLayout() {
	if !m.Ready {
		return
	}
	layout := m.calculateLayout()

	m.locations.column.SetSize(layout.listWidth, layout.height)
	m.characters.column.SetSize(layout.listWidth, layout.height)
	m.history.SetSize(layout.listWidth, layout.height)
	m.results.SetSize(layout.listWidth, layout.height-SearchInputHeight)
	m.SearchInput.Width = max(layout.listWidth-4, 10)

	if m.notes != nil {
		m.notes.column.SetSize(max(layout.notesWidth, MinColumnWidth), layout.height)
	}

	m.Inspector.SetSize(layout.detailWidth, layout.height)
	m.Story.SetSize(layout.detailWidth, layout.height)
}
