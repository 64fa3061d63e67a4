package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/tui/styles"
)

// Layout constants for inspector
const (
	InspectorBorderHeight     = 2
	InspectorScrollIndicators = 2
)

// inspectorContent holds the header and scrollable body
type inspectorContent struct {
	header string
	body   string
}

// Inspector displays details for the selected character or location
type Inspector struct {
	item       any // *domain.CharacterDetail, *domain.LocationDetail, domain.SearchResult
	loading    bool
	err        string
	spinner    string
	width      int
	height     int
	offset     int
	maxVisible int
}

// NewInspector creates a new inspector component
func NewInspector() Inspector {
	return Inspector{}
}

// SetItem sets the item to display
func (i *Inspector) SetItem(item any) {
	i.item = item
	i.loading = false
	i.err = ""
	i.offset = 0
}

// SetLoading shows a loading line until the next SetItem or SetError
func (i *Inspector) SetLoading() {
	i.loading = true
	i.err = ""
}

// SetError shows a failure message
func (i *Inspector) SetError(msg string) {
	i.loading = false
	i.err = msg
}

// SetSpinner sets the rendered spinner frame
func (i *Inspector) SetSpinner(frame string) { i.spinner = frame }

// Item returns the displayed item
func (i Inspector) Item() any { return i.item }

// HasItem returns true if there is an item to display
func (i Inspector) HasItem() bool { return i.item != nil }

// SetSize updates the component dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
	i.maxVisible = max(height-InspectorBorderHeight-InspectorScrollIndicators-2, 1)
}

// ScrollDown moves the body down one line
func (i *Inspector) ScrollDown() { i.offset++ }

// ScrollUp moves the body up one line
func (i *Inspector) ScrollUp() {
	if i.offset > 0 {
		i.offset--
	}
}

// View renders the component
func (i Inspector) View() string {
	style := styles.InactiveBorder
	contentWidth := max(i.width-3, 10)

	titleLine := styles.AccentStyle.Render("Details")

	var content inspectorContent
	switch {
	case i.loading:
		content.body = styles.DimStyle.Render(i.spinner + " Loading...")
	case i.err != "":
		content.body = lipgloss.NewStyle().Width(contentWidth).Render(styles.ErrorStyle.Render(i.err))
	default:
		content = i.render(contentWidth)
	}

	headerLines := splitLines(content.header)
	bodyLines := splitLines(content.body)

	available := max(i.maxVisible-len(headerLines), 1)
	maxOffset := max(len(bodyLines)-available, 0)
	offset := min(i.offset, maxOffset)
	end := min(offset+available, len(bodyLines))

	up := " "
	if offset > 0 {
		up = styles.DimStyle.Render("↑ more")
	}
	down := " "
	if end < len(bodyLines) {
		down = styles.DimStyle.Render("↓ more")
	}

	parts := []string{titleLine, ""}
	if content.header != "" {
		parts = append(parts, headerLines...)
	}
	parts = append(parts, up)
	parts = append(parts, bodyLines[offset:end]...)
	parts = append(parts, down)

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(i.width-frameW, 0)).
		Height(max(i.height-frameH, 0)).
		Render(strings.Join(parts, "\n"))
}

func (i Inspector) render(width int) inspectorContent {
	switch v := i.item.(type) {
	case *domain.CharacterDetail:
		return renderCharacter(v, width)
	case *domain.LocationDetail:
		return renderLocation(v, width)
	case domain.SearchResult:
		return renderSearchResult(v, width)
	default:
		return inspectorContent{body: styles.DimStyle.Render("Press enter on an item to see details")}
	}
}

func renderCharacter(c *domain.CharacterDetail, width int) inspectorContent {
	var h strings.Builder
	h.WriteString(styles.TitleStyle.Render(styles.Truncate(c.Name, width)))
	h.WriteString("\n")

	indicator, color := styles.StatusIndicator(c.StatusLabel())
	meta := []string{c.Species}
	if c.Type != "" {
		meta = append(meta, c.Type)
	}
	if c.Gender != "" {
		meta = append(meta, c.Gender)
	}
	h.WriteString(lipgloss.NewStyle().Foreground(color).Render(indicator+" "+c.StatusLabel()) +
		styles.DimStyle.Render("  "+strings.Join(meta, " · ")))

	var b strings.Builder
	writeField(&b, "Origin", placeLabel(c.Origin))
	writeField(&b, "Last seen", placeLabel(c.Location))
	b.WriteString("\n")
	b.WriteString(styles.AccentStyle.Render(fmt.Sprintf("Episodes (%d)", len(c.Episodes))))
	b.WriteString("\n")
	for _, ep := range c.Episodes {
		line := ep.Name
		if ep.AirDate != "" {
			line += styles.DimStyle.Render("  " + ep.AirDate)
		}
		b.WriteString(styles.Truncate(line, width+20))
		b.WriteString("\n")
	}

	return inspectorContent{header: h.String(), body: strings.TrimRight(b.String(), "\n")}
}

func renderLocation(l *domain.LocationDetail, width int) inspectorContent {
	var h strings.Builder
	h.WriteString(styles.TitleStyle.Render(styles.Truncate(l.Name, width)))
	h.WriteString("\n")

	kind := domain.KindOf(l.Type)
	badge := lipgloss.NewStyle().
		Foreground(styles.SlateDark).
		Background(styles.KindColor(kind)).
		Padding(0, 1).
		Render(kind.String())
	h.WriteString(badge + styles.DimStyle.Render("  "+l.GetDescription()))

	var b strings.Builder
	b.WriteString(styles.AccentStyle.Render(fmt.Sprintf("Residents (%d)", l.ResidentCount())))
	b.WriteString("\n")
	if l.ResidentCount() == 0 {
		b.WriteString(styles.DimStyle.Render("Nobody lives here"))
	}
	for _, r := range l.Residents {
		indicator, color := styles.StatusIndicator(r.StatusLabel())
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(indicator) + " ")
		b.WriteString(styles.Truncate(r.Name, width-4))
		b.WriteString(styles.DimStyle.Render("  " + r.Species))
		b.WriteString("\n")
	}

	return inspectorContent{header: h.String(), body: strings.TrimRight(b.String(), "\n")}
}

func renderSearchResult(r domain.SearchResult, width int) inspectorContent {
	header := styles.TitleStyle.Render(styles.Truncate(r.GetTitle(), width)) + "\n" +
		styles.DimStyle.Render(r.GetDescription())

	var b strings.Builder
	for k, v := range r.EntityData {
		if k == "name" {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			writeField(&b, k, s)
		}
	}
	return inspectorContent{header: header, body: strings.TrimRight(b.String(), "\n")}
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(styles.DimStyle.Render(label+": ") + value + "\n")
}

func placeLabel(p domain.Place) string {
	if p.Name == "" || p.Name == "unknown" {
		return "unknown"
	}
	if p.Dimension != "" && p.Dimension != "unknown" {
		return p.Name + " (" + p.Dimension + ")"
	}
	return p.Name
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
