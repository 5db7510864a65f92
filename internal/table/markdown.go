package table

import (
	"strings"

	"github.com/nao1215/markdown"
)

// Anchor converts a heading into its GitHub anchor.
func Anchor(heading string) string {
	return strings.ToLower(strings.Join(strings.Fields(heading), "-"))
}

func renderMarkdown(years, extra []*Table, name string) string {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)

	title := "Advent of Code " + titleCase(name)
	md.H1(title)
	md.PlainText("")

	if len(years)+len(extra) == 0 {
		md.PlainText("No data to display")
		return md.String()
	}

	for _, t := range extra {
		md.PlainTextf("* [%s](#%s)", t.Name, Anchor(t.Name))
		md.PlainText("")
	}
	md.PlainTextf("Yearly %s for all languages:", name)
	md.PlainText("")
	for _, t := range years {
		md.PlainTextf("* [%s](#%s)", t.Name, Anchor(t.Name))
		md.PlainText("")
	}

	for _, t := range append(extra, years...) {
		md.H2(t.Name)
		md.PlainText("")
		md.PlainTextf("[Back to top](#%s)", Anchor(title))
		md.PlainText("")
		writeTable(md, t)
		md.PlainText("")
	}
	return md.String()
}

// Markdown renders a single table without headings.
func Markdown(t *Table) string {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)
	writeTable(md, t)
	return md.String()
}

func writeTable(md *markdown.Markdown, t *Table) {
	header, body := t.Cells()
	for _, row := range body {
		for i, cell := range row {
			row[i] = strings.ReplaceAll(cell, "\n", "<br>")
		}
	}
	md.Table(markdown.TableSet{Header: header, Rows: body})
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
