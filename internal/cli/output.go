package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mmcdole/portal/internal/tui/styles"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

const (
	tabPadding        = 2
	defaultTermWidth  = 100
	minFlexColumnWide = 20
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// format returns the validated --output value
func (g *globals) format() outputFormat {
	f, _ := parseFormat(g.output)
	return f
}

// writeStructured encodes v as JSON or YAML. It reports false for table output.
func writeStructured(w io.Writer, format outputFormat, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toPlain(v)); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// toPlain round-trips v through JSON so YAML output uses the json field names
func toPlain(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// table writes aligned columns. The last column is truncated to the terminal width.
type table struct {
	w     *tabwriter.Writer
	width int
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{
		w:     tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0),
		width: termWidth(out),
	}
	t.row(headers...)
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	t.row(dashes...)
	return t
}

func (t *table) row(cells ...string) {
	if n := len(cells); n > 0 {
		used := 0
		for _, c := range cells[:n-1] {
			used += len([]rune(c)) + tabPadding
		}
		cells[n-1] = styles.Truncate(cells[n-1], max(t.width-used, minFlexColumnWide))
	}
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

// termWidth returns the terminal width when out is a terminal
func termWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultTermWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}
