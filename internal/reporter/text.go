package reporter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

const separatorWidth = 80

// TextReporter writes human-readable output to a writer.
type TextReporter struct {
	w     io.Writer
	color bool
}

// NewTextReporter creates a text reporter.
// If w is nil, defaults to os.Stdout.
// color enables ANSI codes.
func NewTextReporter(w io.Writer, color bool) *TextReporter {
	if w == nil {
		w = os.Stdout
	}
	return &TextReporter{w: w, color: color}
}

// PrintHeader writes the initial banner.
func (r *TextReporter) PrintHeader(totalJobs, workers int) {
	fmt.Fprintf(r.w, "aoc: %d solutions, %d workers\n\n", totalJobs, workers)
}

// PrintPlan announces which languages run which puzzles.
func (r *TextReporter) PrintPlan(groups []task.Group) {
	for _, g := range groups {
		fmt.Fprintf(r.w, "%s%s%s\n", r.c(colorCyan), strings.TrimRight(g.String(), "\n"), r.c(colorReset))
		fmt.Fprintln(r.w)
	}
}

// PrintResult writes one finished job. Failures are always shown; the
// solution's own output only when verbose.
func (r *TextReporter) PrintResult(res *task.Result, verbose bool) {
	title := fmt.Sprintf("%s %d day %d", record.Title(res.Job.Lang), res.Job.Year, res.Job.Day)
	switch res.State {
	case task.StateFailed:
		fmt.Fprintf(r.w, "%s✗ %s: %s%s\n", r.c(colorRed), title, res.Error, r.c(colorReset))
		if res.OutputDir != "" {
			fmt.Fprintf(r.w, "  %slogs: %s%s\n", r.c(colorDim), res.OutputDir, r.c(colorReset))
		}
	case task.StateCompleted:
		if !verbose {
			return
		}
		fmt.Fprintln(r.w, strings.Repeat("-", separatorWidth))
		fmt.Fprintf(r.w, "%s output:\n", title)
		if res.Output != "" {
			fmt.Fprintln(r.w, strings.TrimRight(res.Output, "\n"))
		} else {
			r.PrintParts(res)
		}
	}
}

// PrintParts writes the parsed answers and timings of a result.
func (r *TextReporter) PrintParts(res *task.Result) {
	for _, p := range res.Parts {
		answer := p.Answer
		if strings.Contains(answer, "\n") {
			answer = "\n" + answer
		}
		fmt.Fprintf(r.w, "  Part %d: %s %s(%.4f s)%s\n", p.Number, answer, r.c(colorDim), p.Seconds, r.c(colorReset))
	}
}

// PrintLanguageTotals writes the summed part runtimes of each language.
func (r *TextReporter) PrintLanguageTotals(results []*task.Result) {
	totals := make(map[string]float64)
	for _, res := range results {
		if res.State != task.StateCompleted {
			continue
		}
		totals[res.Job.Lang] += res.Seconds()
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(r.w, "%s: Total time: %.4f seconds\n", record.Title(name), totals[name])
	}
}

// PrintStatus writes failed and skipped jobs grouped by state.
func (r *TextReporter) PrintStatus(results []*task.Result) {
	var failed, skipped []*task.Result
	for _, res := range results {
		switch res.State {
		case task.StateFailed:
			failed = append(failed, res)
		case task.StateSkipped:
			skipped = append(skipped, res)
		}
	}
	total := len(results)

	if len(failed) > 0 {
		r.printSection("FAILED", colorRed, failed, total, func(res *task.Result) string {
			return fmt.Sprintf("    %-22s %s  ✗ %s", res.Job.ID(), res.Duration.Truncate(time.Millisecond), firstLine(res.Error))
		})
	}
	if len(skipped) > 0 {
		fmt.Fprintf(r.w, "  %sSKIPPED  [%d/%d]%s\n", r.c(colorYellow), len(skipped), total, r.c(colorReset))
		for _, res := range skipped {
			fmt.Fprintf(r.w, "    %s%-22s%s  (%s)\n", r.c(colorDim), res.Job.ID(), r.c(colorReset), res.Error)
		}
		fmt.Fprintln(r.w)
	}
}

// PrintSummary writes the final summary line.
func (r *TextReporter) PrintSummary(report *task.RunReport) {
	fmt.Fprintf(r.w, "\n%s--- Summary ---%s\n", r.c(colorCyan), r.c(colorReset))
	fmt.Fprintf(r.w, "Total: %d  ", report.TotalJobs)
	fmt.Fprintf(r.w, "%sCompleted: %d%s  ", r.c(colorGreen), report.Completed, r.c(colorReset))
	fmt.Fprintf(r.w, "%sFailed: %d%s  ", r.c(colorRed), report.Failed, r.c(colorReset))
	if report.Skipped > 0 {
		fmt.Fprintf(r.w, "%sSkipped: %d%s  ", r.c(colorYellow), report.Skipped, r.c(colorReset))
	}
	if built := countBuilt(report); built > 0 {
		fmt.Fprintf(r.w, "Built: %d  ", built)
	}
	fmt.Fprintf(r.w, "Duration: %s\n", report.TotalDuration.Truncate(time.Millisecond))
}

func (r *TextReporter) printSection(label, color string, items []*task.Result, total int, formatter func(*task.Result) string) {
	fmt.Fprintf(r.w, "  %s%s  [%d/%d]%s\n", r.c(color), label, len(items), total, r.c(colorReset))
	for _, res := range items {
		fmt.Fprintln(r.w, formatter(res))
	}
	fmt.Fprintln(r.w)
}

func (r *TextReporter) c(code string) string {
	if !r.color {
		return ""
	}
	return code
}

func countBuilt(report *task.RunReport) int {
	n := 0
	for _, res := range report.Results {
		if res.Built {
			n++
		}
	}
	return n
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
