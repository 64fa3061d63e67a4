package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/portal/internal/domain"
)

// Color palette
var (
	PortalGreen = lipgloss.Color("#97CE4C")
	SlateDark   = lipgloss.Color("#1F2937")
	SlateLight  = lipgloss.Color("#374151")
	DimGray     = lipgloss.Color("#6B7280")
	LightGray   = lipgloss.Color("#9CA3AF")
	White       = lipgloss.Color("#F9FAFB")
	Green       = lipgloss.Color("#10B981")
	Red         = lipgloss.Color("#EF4444")
	Blue        = lipgloss.Color("#3B82F6")
	Amber       = lipgloss.Color("#F59E0B")
	Purple      = lipgloss.Color("#A855F7")
	Cyan        = lipgloss.Color("#06B6D4")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PortalGreen)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(PortalGreen)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Tab bar styles
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(PortalGreen).
			Bold(true).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(LightGray).
				Padding(0, 1)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PortalGreen).
			Padding(1, 2).
			Background(SlateDark)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(PortalGreen)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Badge styles
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(PortalGreen).
			Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 1)
)

// Filter styles
var (
	FilterStyle = lipgloss.NewStyle().
			Foreground(PortalGreen)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(PortalGreen).
				Bold(true)
)

// Life status characters
const (
	AliveChar   = "●"
	DeadChar    = "✗"
	UnknownChar = "?"
)

// StatusIndicator returns the indicator character and color for a life status
func StatusIndicator(status string) (string, lipgloss.Color) {
	switch status {
	case "Alive":
		return AliveChar, Green
	case "Dead":
		return DeadChar, Red
	default:
		return UnknownChar, DimGray
	}
}

// KindColor returns the badge color for a location kind
func KindColor(kind domain.LocationKind) lipgloss.Color {
	switch kind {
	case domain.LocationKindPlanet, domain.LocationKindMoon:
		return Green
	case domain.LocationKindStation, domain.LocationKindSpacecraft:
		return Blue
	case domain.LocationKindDimension, domain.LocationKindReality:
		return Purple
	case domain.LocationKindResort, domain.LocationKindSettlement:
		return Amber
	case domain.LocationKindAsteroid:
		return Cyan
	default:
		return DimGray
	}
}

// Helper functions

// Truncate truncates a string to the given display width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled explicitly to avoid ANSI reset code issues.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight
	defaultFg := LightGray
	selectedFg := White

	var b strings.Builder
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		if part.Foreground != nil {
			style = style.Foreground(*part.Foreground)
		} else if selected {
			style = style.Foreground(selectedFg)
		} else {
			style = style.Foreground(defaultFg)
		}
		if part.Bold {
			style = style.Bold(true)
		}
		if selected {
			style = style.Background(bg)
		}
		b.WriteString(style.Render(part.Text))
		visibleLen += lipgloss.Width(part.Text)
	}

	// Pad to width (2 for left/right margin)
	if paddingNeeded := width - visibleLen - 2; paddingNeeded > 0 {
		padStyle := lipgloss.NewStyle()
		if selected {
			padStyle = padStyle.Background(bg)
		}
		b.WriteString(padStyle.Render(strings.Repeat(" ", paddingNeeded)))
	}

	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}
	margin := marginStyle.Render(" ")

	return margin + b.String() + margin
}

// RowPart is a part of a row with optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Bold       bool
}

// HighlightParts splits title into row parts, coloring the runes at the
// matched byte offsets.
func HighlightParts(title string, matched []int) []RowPart {
	if len(matched) == 0 {
		return []RowPart{{Text: title}}
	}

	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	accent := PortalGreen
	var parts []RowPart
	var run []rune
	inMatch := false

	flush := func() {
		if len(run) == 0 {
			return
		}
		part := RowPart{Text: string(run)}
		if inMatch {
			part.Foreground = &accent
			part.Bold = true
		}
		parts = append(parts, part)
		run = run[:0]
	}

	for i, r := range title {
		if hit[i] != inMatch {
			flush()
			inMatch = hit[i]
		}
		run = append(run, r)
	}
	flush()
	return parts
}
