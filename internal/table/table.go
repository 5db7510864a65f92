// Package table renders tracked answers and runtimes as terminal or Markdown tables.
package table

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// Style selects how tables are drawn.
type Style string

const (
	StyleDefault      Style = "DEFAULT"
	StyleSingleBorder Style = "SINGLE_BORDER"
	StyleDoubleBorder Style = "DOUBLE_BORDER"
	StyleMarkdown     Style = "MARKDOWN"
)

// MaxCellWidth bounds terminal cell width. Longer lines are truncated.
const MaxCellWidth = 48

// Styles lists every accepted style name.
func Styles() []Style {
	return []Style{StyleDefault, StyleSingleBorder, StyleDoubleBorder, StyleMarkdown}
}

// ParseStyle resolves a style name case-insensitively. Empty means DEFAULT.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleDefault, nil
	}
	want := Style(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
	for _, st := range Styles() {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown table style %q (want one of DEFAULT, SINGLE_BORDER, DOUBLE_BORDER, MARKDOWN)", s)
}

// Row is one table row: index cells followed by values keyed by column.
type Row struct {
	Index  []string
	Values map[string]any
}

// Table is a named grid with index columns on the left and value columns
// (usually languages) on the right.
type Table struct {
	Name    string
	Index   []string
	Columns []string
	Rows    []Row
}

// Add appends a row.
func (t *Table) Add(values map[string]any, index ...string) {
	t.Rows = append(t.Rows, Row{Index: index, Values: values})
}

// Set stores value at the row identified by index, creating the row and the
// column when missing.
func (t *Table) Set(col string, value any, index ...string) {
	if !slices.Contains(t.Columns, col) {
		t.Columns = append(t.Columns, col)
	}
	for i := range t.Rows {
		if slices.Equal(t.Rows[i].Index, index) {
			t.Rows[i].Values[col] = value
			return
		}
	}
	t.Add(map[string]any{col: value}, index...)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// SortRows orders rows by their index cells, numerically where possible.
func (t *Table) SortRows() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i].Index, t.Rows[j].Index
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] == b[k] {
				continue
			}
			return lessCell(a[k], b[k])
		}
		return len(a) < len(b)
	})
}

// Cells returns the header and body cells with repeated leading index cells blanked.
func (t *Table) Cells() ([]string, [][]string) {
	header := append(append([]string{}, t.Index...), t.Columns...)
	var body [][]string
	var prev []string
	for _, r := range t.Rows {
		row := make([]string, 0, len(header))
		same := true
		for i := range t.Index {
			var cell string
			if i < len(r.Index) {
				cell = r.Index[i]
			}
			same = same && i < len(prev) && prev[i] == cell
			if same {
				row = append(row, "")
			} else {
				row = append(row, cell)
			}
		}
		for _, c := range t.Columns {
			row = append(row, Format(r.Values[c]))
		}
		prev = r.Index
		body = append(body, row)
	}
	return header, body
}

// Format renders a cell value. Floats get four decimals.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', 4, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 4, 32)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Render draws tables in the given style. name titles Markdown output.
func Render(tables []*Table, style Style, name string) string {
	years, extra := split(tables)
	if style == StyleMarkdown {
		return renderMarkdown(years, extra, name)
	}
	var parts []string
	for _, t := range append(years, extra...) {
		parts = append(parts, t.Name+":\n"+renderTerminal(t, style))
	}
	return strings.Join(parts, "\n\n")
}

func renderTerminal(t *Table, style Style) string {
	header, body := t.Cells()
	for _, row := range body {
		for i, cell := range row {
			row[i] = truncateLines(cell, MaxCellWidth)
		}
	}

	border := lipgloss.ASCIIBorder()
	switch style {
	case StyleSingleBorder:
		border = lipgloss.NormalBorder()
	case StyleDoubleBorder:
		border = lipgloss.DoubleBorder()
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	return lgtable.New().
		Border(border).
		Headers(header...).
		Rows(body...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return cell.Bold(true)
			}
			return cell
		}).
		String()
}

func truncateLines(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = runewidth.Truncate(l, width, "…")
	}
	return strings.Join(lines, "\n")
}

// split separates per-year tables (numeric names, sorted by year) from the
// rest (sorted by name).
func split(tables []*Table) (years, extra []*Table) {
	for _, t := range tables {
		if t == nil || t.Empty() {
			continue
		}
		if _, err := strconv.Atoi(t.Name); err == nil {
			years = append(years, t)
		} else {
			extra = append(extra, t)
		}
	}
	sort.SliceStable(years, func(i, j int) bool { return lessCell(years[i].Name, years[j].Name) })
	sort.SliceStable(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
	return years, extra
}

func lessCell(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}

// Only returns a copy of t restricted to the given value columns. Rows left
// without values are dropped.
func (t *Table) Only(cols ...string) *Table {
	out := &Table{Name: t.Name, Index: t.Index}
	for _, c := range t.Columns {
		if slices.Contains(cols, c) {
			out.Columns = append(out.Columns, c)
		}
	}
	for _, r := range t.Rows {
		vals := make(map[string]any)
		for _, c := range out.Columns {
			if v, ok := r.Values[c]; ok {
				vals[c] = v
			}
		}
		if len(vals) > 0 {
			out.Add(vals, r.Index...)
		}
	}
	return out
}
