package viewer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
)

// Chart writes Mermaid runtime charts to a Markdown file in the data dir.
type Chart struct {
	dir  string
	file string
}

type chartOptions struct {
	File string `yaml:"file"`
}

// NewChart creates a chart viewer writing <dir>/runtimes.md.
func NewChart(dir string) *Chart {
	return &Chart{dir: dir, file: "runtimes.md"}
}

func (c *Chart) Name() string { return "chart" }

func (c *Chart) Handlers() map[string]record.Handler {
	return map[string]record.Handler{"write": c.Write}
}

// Configure accepts file, the output name relative to the data dir.
func (c *Chart) Configure(options []byte) error {
	var o chartOptions
	if err := decodeStrict(options, &o); err != nil {
		return err
	}
	c.SetFile(o.File)
	return nil
}

// SetFile changes the output name; empty keeps the current one.
func (c *Chart) SetFile(name string) {
	if name != "" {
		c.file = name
	}
}

// Path is where the chart file is written.
func (c *Chart) Path() string {
	if filepath.IsAbs(c.file) {
		return c.file
	}
	return filepath.Join(c.dir, c.file)
}

// Write renders the runtimes log in n.Source.
func (c *Chart) Write(_ context.Context, n record.Notice) error {
	runtimes, ok := n.Source.(*record.RuntimeLog)
	if !ok {
		return fmt.Errorf("chart viewer needs the runtimes log, got %T", n.Source)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path()), 0o755); err != nil {
		return err
	}
	f, err := os.Create(c.Path())
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer f.Close()

	if err := RenderCharts(f, runtimes); err != nil {
		return err
	}
	log.Debug().Str("path", c.Path()).Msg("runtime charts written")
	return nil
}

// RenderCharts writes one line chart per language and year (part 1, part 2
// and combined seconds per day) and a pie chart of total time per language.
func RenderCharts(w io.Writer, runtimes *record.RuntimeLog) error {
	md := markdown.NewMarkdown(w)
	md.H1("Advent of Code Runtimes")
	md.PlainText("")

	langs := runtimes.Languages()
	if len(langs) == 0 {
		md.PlainText("No data to display")
		return md.Build()
	}

	pie := piechart.NewPieChart(io.Discard, piechart.WithTitle("Total runtime per language (ms)"), piechart.WithShowData(true))
	for _, l := range langs {
		md.H2(record.Title(l))
		md.PlainText("")
		var langTotal float64
		for _, y := range runtimes.Years() {
			st := runtimes.Year(l, y)
			if st.Days == 0 {
				continue
			}
			langTotal += st.Total
			md.H3(strconv.Itoa(y))
			md.PlainText("")
			md.PlainTextf("%d days, %.4f seconds total, %.4f seconds per day", st.Days, st.Total, st.Average)
			md.PlainText("")
			md.CodeBlocks(markdown.SyntaxHighlightMermaid, yearChart(runtimes, l, y))
			md.PlainText("")
		}
		pie.LabelAndIntValue(record.Title(l), uint64(langTotal*1000+0.5))
	}

	md.H2("Total")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, pie.String())
	return md.Build()
}

func yearChart(runtimes *record.RuntimeLog, lang string, year int) string {
	var days []int
	series := map[string][]string{}
	for d := 1; d <= calendar.DaysPerYear; d++ {
		p1, ok1 := runtimes.Runtime(record.Key{Lang: lang, Year: year, Day: d, Part: 1})
		p2, ok2 := runtimes.Runtime(record.Key{Lang: lang, Year: year, Day: d, Part: 2})
		if !ok1 && !ok2 {
			continue
		}
		days = append(days, d)
		series["1"] = append(series["1"], seconds(p1))
		series["2"] = append(series["2"], seconds(p2))
		total, _ := runtimes.DayTotal(lang, year, d)
		series["combined"] = append(series["combined"], seconds(total))
	}

	labels := make([]string, len(days))
	for i, d := range days {
		labels[i] = strconv.Itoa(d)
	}
	var b strings.Builder
	b.WriteString("xychart-beta\n")
	fmt.Fprintf(&b, "    title \"%s %d (part 1, part 2, combined)\"\n", record.Title(lang), year)
	fmt.Fprintf(&b, "    x-axis \"Day\" [%s]\n", strings.Join(labels, ", "))
	b.WriteString("    y-axis \"Seconds\"\n")
	for _, k := range []string{"1", "2", "combined"} {
		fmt.Fprintf(&b, "    line [%s]\n", strings.Join(series[k], ", "))
	}
	return b.String()
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 4, 64)
}
