package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/pager"
	"github.com/mmcdole/portal/internal/search"
	"github.com/mmcdole/portal/internal/tui/styles"
)

// Layout constants for list columns
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Title line plus the "↑ more" header
	headerLines = 2
)

// ListState is the loader state a column renders around its rows
type ListState struct {
	Phase pager.Phase
	Err   string
	Total int // Server-reported count, 0 when unknown
}

// ListColumn is a scrollable list of domain items followed by a sentinel
// row that reflects paging state.
type ListColumn struct {
	items []domain.ListItem
	state ListState
	keys  ListColumnKeyMap

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title   string
	spinner string

	// Rows past the visible window that still count as visible for the sentinel
	prefetch int

	// Static lists have no loader and render no sentinel row
	static bool

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filtered     []search.FilterResult
}

// NewListColumn creates a list column backed by a loader
func NewListColumn(title string, prefetch int) *ListColumn {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ListColumn{
		title:       title,
		prefetch:    max(prefetch, 0),
		keys:        DefaultListColumnKeyMap(),
		filterInput: ti,
		state:       ListState{Phase: pager.PhaseIdle},
	}
}

// NewStaticColumn creates a column for lists that are not paged
func NewStaticColumn(title string) *ListColumn {
	c := NewListColumn(title, 0)
	c.static = true
	c.state.Phase = pager.PhaseExhausted
	return c
}

// Update handles navigation and filter input. It only reacts when focused.
func (c *ListColumn) Update(msg tea.Msg) tea.Cmd {
	if !c.focused {
		return nil
	}

	keyMsg, isKey := msg.(tea.KeyMsg)

	// Filter typing mode
	if c.filterActive && c.filterInput.Focused() {
		if isKey {
			switch {
			case key.Matches(keyMsg, c.keys.Escape):
				c.clearFilter()
				return nil
			case key.Matches(keyMsg, c.keys.Enter):
				c.filterInput.Blur()
				return nil
			case keyMsg.Type == tea.KeyBackspace && c.filterInput.Value() == "":
				c.clearFilter()
				return nil
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return cmd
	}

	if !isKey {
		return nil
	}

	if c.filterActive {
		switch {
		case key.Matches(keyMsg, c.keys.Escape):
			c.clearFilter()
			return nil
		case key.Matches(keyMsg, c.keys.Filter):
			c.filterInput.Focus()
			return nil
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return nil
	}

	switch {
	case key.Matches(keyMsg, c.keys.Down):
		if c.cursor < count-1 {
			c.cursor++
		}
	case key.Matches(keyMsg, c.keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(keyMsg, c.keys.Home):
		c.cursor = 0
		c.offset = 0
	case key.Matches(keyMsg, c.keys.End):
		c.cursor = count - 1
	case key.Matches(keyMsg, c.keys.HalfDown):
		c.cursor = min(c.cursor+max(c.maxVisible/2, 1), count-1)
	case key.Matches(keyMsg, c.keys.HalfUp):
		c.cursor = max(c.cursor-max(c.maxVisible/2, 1), 0)
	case key.Matches(keyMsg, c.keys.PageDown):
		c.cursor = min(c.cursor+max(c.maxVisible, 1), count-1)
	case key.Matches(keyMsg, c.keys.PageUp):
		c.cursor = max(c.cursor-max(c.maxVisible, 1), 0)
	}
	c.ensureVisible()
	return nil
}

// View renders the column with its border
func (c *ListColumn) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(c.width-frameW, 0)).
		Height(max(c.height-frameH, 0)).
		Render(c.renderContent())
}

// SetSize updates the column dimensions
func (c *ListColumn) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *ListColumn) SetFocused(focused bool) { c.focused = focused }
func (c *ListColumn) IsFocused() bool         { return c.focused }
func (c *ListColumn) Title() string           { return c.title }
func (c *ListColumn) SetTitle(title string)   { c.title = title }

// SetSpinner sets the rendered spinner frame used for loading rows
func (c *ListColumn) SetSpinner(frame string) { c.spinner = frame }

// SetItems replaces the rows, keeping the cursor where it was when possible.
// Appended pages therefore do not move the selection.
func (c *ListColumn) SetItems(items []domain.ListItem) {
	c.items = items
	if c.filterActive && c.filterQuery != "" {
		c.refilter()
	}
	c.clampCursor()
	c.ensureVisible()
}

// SetState updates the paging state shown around the rows
func (c *ListColumn) SetState(state ListState) {
	if c.static {
		return
	}
	c.state = state
}

// State returns the paging state
func (c *ListColumn) State() ListState { return c.state }

// Items returns all rows, ignoring any filter
func (c *ListColumn) Items() []domain.ListItem { return c.items }

// SelectedItem returns the item under the cursor
func (c *ListColumn) SelectedItem() domain.ListItem {
	count := c.ItemCount()
	if count == 0 || c.cursor >= count {
		return nil
	}
	return c.items[c.mapIndex(c.cursor)]
}

// SelectedIndex returns the cursor position
func (c *ListColumn) SelectedIndex() int { return c.cursor }

// SetSelectedIndex moves the cursor, clamped to the rows
func (c *ListColumn) SetSelectedIndex(idx int) {
	c.cursor = idx
	c.clampCursor()
	c.ensureVisible()
}

// ItemCount returns the number of rows, after filtering
func (c *ListColumn) ItemCount() int {
	if c.filterActive && c.filterQuery != "" {
		return len(c.filtered)
	}
	return len(c.items)
}

// SentinelVisible reports whether the row after the last item falls
// inside the visible window extended by the prefetch margin. A filtered
// list never pages.
func (c *ListColumn) SentinelVisible() bool {
	if c.static || c.maxVisible <= 0 {
		return false
	}
	if c.filterActive && c.filterQuery != "" {
		return false
	}
	return len(c.items) <= c.offset+c.maxVisible+c.prefetch
}

// ToggleFilter activates the filter input
func (c *ListColumn) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *ListColumn) IsFiltering() bool { return c.filterActive }

// IsFilterTyping returns true if filter is active and the input is focused
func (c *ListColumn) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *ListColumn) ClearFilter() { c.clearFilter() }

// Internal methods

func (c *ListColumn) recalcMaxVisible() {
	// title + header, footer (sentinel row or "↓ more")
	c.maxVisible = c.height - BorderHeight - headerLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ListColumn) clampCursor() {
	count := c.ItemCount()
	if c.cursor >= count {
		c.cursor = count - 1
	}
	if c.cursor < 0 {
		c.cursor = 0
	}
}

func (c *ListColumn) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
	if maxOffset := max(c.ItemCount()-c.maxVisible, 0); c.offset > maxOffset {
		c.offset = maxOffset
	}
}

func (c *ListColumn) clearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filtered = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.clampCursor()
	c.ensureVisible()
}

func (c *ListColumn) applyFilter() {
	c.filterQuery = c.filterInput.Value()
	c.refilter()
	c.cursor = 0
	c.offset = 0
}

func (c *ListColumn) refilter() {
	if c.filterQuery == "" {
		c.filtered = nil
		return
	}
	c.filtered = search.Filter(c.filterQuery, c.items)
}

func (c *ListColumn) mapIndex(i int) int {
	if c.filterActive && c.filterQuery != "" && i < len(c.filtered) {
		return c.filtered[i].Index
	}
	return i
}

func (c *ListColumn) matchedIndexes(i int) []int {
	if c.filterActive && c.filterQuery != "" && i < len(c.filtered) {
		return c.filtered[i].MatchedIndexes
	}
	return nil
}

// Rendering

func (c *ListColumn) renderContent() string {
	itemWidth := max(c.width-BorderWidth, 10)

	title := c.title
	if n := len(c.items); n > 0 && !c.static {
		if c.state.Total > 0 {
			title = fmt.Sprintf("%s (%d/%d)", c.title, n, c.state.Total)
		} else {
			title = fmt.Sprintf("%s (%d)", c.title, n)
		}
	}
	titleLine := styles.AccentStyle.Render(styles.Truncate(title, itemWidth))

	// Full-pane states before anything has loaded
	if len(c.items) == 0 {
		return titleLine + "\n \n" + c.renderEmpty(itemWidth) + "\n "
	}

	count := c.ItemCount()
	if count == 0 {
		return titleLine + "\n \n" + styles.DimStyle.Render("No matches") + "\n \n" + c.renderFilterBar()
	}

	end := min(c.offset+c.maxVisible, count)
	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderItem(c.items[c.mapIndex(i)], c.matchedIndexes(i), i == c.cursor, itemWidth))
	}

	// Always reserve the header line to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}

	footer := " "
	switch {
	case end < count:
		footer = styles.DimStyle.Render("↓ more")
	case !c.filterActive || c.filterQuery == "":
		footer = c.renderSentinel(itemWidth)
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func (c *ListColumn) renderEmpty(width int) string {
	switch c.state.Phase {
	case pager.PhaseIdle, pager.PhaseLoadingInitial:
		return styles.DimStyle.Render(c.spinner + " Loading...")
	case pager.PhaseInitialError:
		msg := lipgloss.NewStyle().Width(width).Render(styles.ErrorStyle.Render(c.state.Err))
		return msg + "\n\n" + styles.DimStyle.Render("press r to retry")
	default:
		return styles.DimStyle.Render("No items")
	}
}

// renderSentinel renders the row after the last item
func (c *ListColumn) renderSentinel(width int) string {
	if c.static {
		return " "
	}
	switch c.state.Phase {
	case pager.PhaseLoadingMore, pager.PhaseLoadingInitial:
		return styles.DimStyle.Render(c.spinner + " Loading more...")
	case pager.PhasePaginationError:
		return styles.WarningStyle.Render(styles.Truncate("⚠ "+c.state.Err+" (r to retry)", width))
	case pager.PhaseExhausted:
		return styles.DimStyle.Render("end of list")
	default:
		return " "
	}
}

func (c *ListColumn) renderItem(item domain.ListItem, matched []int, selected bool, width int) string {
	var parts []styles.RowPart
	desc := item.GetDescription()

	switch v := item.(type) {
	case domain.Character:
		char, color := styles.StatusIndicator(v.StatusLabel())
		parts = append(parts, styles.RowPart{Text: char + " ", Foreground: &color})
	case domain.Location:
		color := styles.KindColor(domain.KindOf(v.Type))
		parts = append(parts, styles.RowPart{Text: "◆ ", Foreground: &color})
	case domain.LocationDetail:
		color := styles.KindColor(domain.KindOf(v.Type))
		parts = append(parts, styles.RowPart{Text: "◆ ", Foreground: &color})
		switch n := v.ResidentCount(); {
		case n == 1:
			desc += " · 1 resident"
		case n > 1:
			desc = fmt.Sprintf("%s · %d residents", desc, n)
		}
	case domain.SearchResult:
		color := styles.PortalGreen
		parts = append(parts, styles.RowPart{Text: searchBadge(v.EntityType) + " ", Foreground: &color})
	}

	prefix := 0
	for _, p := range parts {
		prefix += lipgloss.Width(p.Text)
	}

	avail := width - 4 - prefix
	title := item.GetTitle()
	if desc != "" && avail > 24 {
		descWidth := min(lipgloss.Width(desc), avail/2)
		title = styles.Truncate(title, avail-descWidth-1)
		parts = append(parts, styles.HighlightParts(title, matched)...)
		dim := styles.DimGray
		gap := max(avail-lipgloss.Width(title)-descWidth, 1)
		parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", gap) + styles.Truncate(desc, descWidth), Foreground: &dim})
	} else {
		parts = append(parts, styles.HighlightParts(styles.Truncate(title, max(avail, 5)), matched)...)
	}

	return styles.RenderListRow(parts, selected, width)
}

func searchBadge(t domain.EntityType) string {
	switch t {
	case domain.EntityCharacter:
		return "C"
	case domain.EntityLocation:
		return "L"
	case domain.EntityEpisode:
		return "E"
	default:
		return "?"
	}
}

func (c *ListColumn) renderFilterBar() string {
	input := c.filterInput.View()
	if c.filterQuery == "" {
		return input
	}
	return input + styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.items)))
}
