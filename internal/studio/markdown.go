package studio

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mmcdole/portal/internal/domain"
)

// Markdown renders a generation and its evaluation as a markdown document
func Markdown(entry *domain.HistoryEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: %s\n\n", entry.Kind.Label(), entry.SubjectName)
	if !entry.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "_%s_", entry.CreatedAt.Local().Format("2006-01-02 15:04"))
		if entry.SavedToNote {
			b.WriteString(" · saved to notes")
		}
		b.WriteString("\n\n")
	}

	b.WriteString(strings.TrimSpace(entry.Content))
	b.WriteString("\n")

	if entry.Evaluation != nil {
		b.WriteString("\n")
		b.WriteString(EvaluationMarkdown(entry.Evaluation))
	}
	return b.String()
}

// EvaluationMarkdown renders metric scores and judge feedback
func EvaluationMarkdown(eval *domain.Evaluation) string {
	var b strings.Builder
	b.WriteString("## Evaluation\n\n")

	if len(eval.Metrics) > 0 {
		b.WriteString("| Metric | Score |\n|---|---|\n")
		for _, name := range sortedKeys(eval.Metrics) {
			fmt.Fprintf(&b, "| %s | %.3f |\n", name, eval.Metrics[name])
		}
		b.WriteString("\n")
	}

	for _, name := range sortedKeys(eval.Judge) {
		m := eval.Judge[name]
		fmt.Fprintf(&b, "### %s (%.1f)\n\n", name, m.Score)
		if m.Reasoning != "" {
			b.WriteString(m.Reasoning + "\n\n")
		}
		writeBullets(&b, "Strengths", m.Strengths)
		writeBullets(&b, "Issues", m.Issues)
		writeBullets(&b, "Improvements", m.Improvements)
	}
	return b.String()
}

// Render formats markdown for the terminal. Style is a glamour style name
// ("dark", "light", "notty") or "auto"; width <= 0 disables wrapping.
func Render(markdown, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width, 0))}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func writeBullets(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
