package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
)

// Display modes for the live view.
const (
	ModeAuto    = "auto"
	ModeFull    = "full"
	ModeMinimal = "minimal"
	ModeOff     = "off"
)

// ResolveMode maps a requested display mode to the one to use. auto picks
// the full TUI on a terminal and nothing otherwise.
func ResolveMode(mode string, isTTY bool) (string, error) {
	switch strings.ToLower(mode) {
	case "", ModeAuto:
		if isTTY {
			return ModeFull, nil
		}
		return ModeOff, nil
	case ModeFull, ModeMinimal, ModeOff:
		return strings.ToLower(mode), nil
	default:
		return "", fmt.Errorf("unknown display mode %q (want auto, full, minimal or off)", mode)
	}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const maxJobLines = 20

// LiveReporter provides a live-updating terminal display during a run.
type LiveReporter struct {
	w          io.Writer
	color      bool
	getResults func() []*task.Result
	stop       chan struct{}
	done       chan struct{}
	lastLines  int
	frame      int
	mu         sync.Mutex
}

// NewLiveReporter creates a live reporter that polls results via getResults.
func NewLiveReporter(w io.Writer, color bool, getResults func() []*task.Result) *LiveReporter {
	return &LiveReporter{
		w:          w,
		color:      color,
		getResults: getResults,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins the periodic refresh loop.
func (lr *LiveReporter) Start() {
	go lr.loop()
}

// Stop halts the refresh loop and clears the live display.
func (lr *LiveReporter) Stop() {
	close(lr.stop)
	<-lr.done
	lr.clearLastFrame()
}

func (lr *LiveReporter) loop() {
	defer close(lr.done)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-lr.stop:
			return
		case <-ticker.C:
			lr.render()
		}
	}
}

func (lr *LiveReporter) clearLastFrame() {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.lastLines > 0 {
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
		for i := 0; i < lr.lastLines; i++ {
			fmt.Fprintf(lr.w, "\033[K\n")
		}
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
	}
}

func (lr *LiveReporter) render() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	lines := lr.buildLines(lr.getResults())

	// move cursor up to overwrite previous frame
	if lr.lastLines > 0 {
		fmt.Fprintf(lr.w, "\033[%dA", lr.lastLines)
	}
	for _, line := range lines {
		fmt.Fprintf(lr.w, "\033[K%s\n", line)
	}

	lr.lastLines = len(lines)
	lr.frame++
}

// Render produces the display lines for a given results snapshot.
// Exported for testing.
func (lr *LiveReporter) Render(results []*task.Result) []string {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lines := lr.buildLines(results)
	lr.frame++
	return lines
}

// buckets splits results by display group: failed and skipped, running,
// completed (most recent first), queued.
func buckets(results []*task.Result) (failed, running, completed, queued []*task.Result) {
	for _, res := range results {
		switch res.State {
		case task.StateFailed, task.StateSkipped:
			failed = append(failed, res)
		case task.StateRunning:
			running = append(running, res)
		case task.StateCompleted:
			completed = append(completed, res)
		default:
			queued = append(queued, res)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].EndedAt.After(completed[j].EndedAt)
	})
	return failed, running, completed, queued
}

func (lr *LiveReporter) buildLines(results []*task.Result) []string {
	failed, running, completed, queued := buckets(results)
	spinner := spinnerFrames[lr.frame%len(spinnerFrames)]

	lines := []string{fmt.Sprintf("aoc: %d solutions", len(results)), ""}
	jobLines := 0
	add := func(line string) bool {
		if jobLines >= maxJobLines {
			return false
		}
		lines = append(lines, line)
		jobLines++
		return true
	}

	for _, res := range failed {
		if !add(lr.formatFailed(res)) {
			break
		}
	}
	for _, res := range running {
		if !add(lr.formatRunning(res, spinner)) {
			break
		}
	}

	shown := 0
	for _, res := range completed {
		if !add(lr.formatCompleted(res)) {
			break
		}
		shown++
	}
	if remaining := len(completed) - shown; remaining > 0 {
		lines = append(lines, fmt.Sprintf("  %s... %d more completed%s", lr.c(colorDim), remaining, lr.c(colorReset)))
	}

	shown = 0
	for _, res := range queued {
		if !add(lr.formatQueued(res)) {
			break
		}
		shown++
	}
	if remaining := len(queued) - shown; remaining > 0 {
		lines = append(lines, fmt.Sprintf("  %s─ queued     %d more solutions%s", lr.c(colorDim), remaining, lr.c(colorReset)))
	}

	lines = append(lines, "", "  progress: "+strings.Join(progressParts(len(completed), len(running), len(failed), len(queued), lr.c), ", "))
	return lines
}

func (lr *LiveReporter) formatFailed(res *task.Result) string {
	icon, label := "✗", "FAILED"
	if res.State == task.StateSkipped {
		icon, label = "⊘", "skipped"
	}
	return fmt.Sprintf("  %s%s %-10s %-22s %s%s",
		lr.c(colorRed), icon, label, res.Job.ID(), truncate(firstLine(res.Error), 120), lr.c(colorReset))
}

func (lr *LiveReporter) formatRunning(res *task.Result, spinner string) string {
	elapsed := time.Since(res.StartedAt).Truncate(100 * time.Millisecond)
	return fmt.Sprintf("  %s%s %-10s %-22s %s%s",
		lr.c(colorCyan), spinner, "running", res.Job.ID(), elapsed, lr.c(colorReset))
}

func (lr *LiveReporter) formatCompleted(res *task.Result) string {
	suffix := ""
	if res.Built {
		suffix = " [built]"
	}
	return fmt.Sprintf("  %s✓ %-10s %-22s %.4f s%s%s",
		lr.c(colorGreen), "done", res.Job.ID(), res.Seconds(), suffix, lr.c(colorReset))
}

func (lr *LiveReporter) formatQueued(res *task.Result) string {
	return fmt.Sprintf("  %s─ %-10s %s%s", lr.c(colorDim), "queued", res.Job.ID(), lr.c(colorReset))
}

func progressParts(done, running, failed, queued int, c func(string) string) []string {
	var parts []string
	if done > 0 {
		parts = append(parts, fmt.Sprintf("%s%d done%s", c(colorGreen), done, c(colorReset)))
	}
	if running > 0 {
		parts = append(parts, fmt.Sprintf("%s%d running%s", c(colorCyan), running, c(colorReset)))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%s%d failed%s", c(colorRed), failed, c(colorReset)))
	}
	if queued > 0 {
		parts = append(parts, fmt.Sprintf("%s%d queued%s", c(colorDim), queued, c(colorReset)))
	}
	return parts
}

func (lr *LiveReporter) c(code string) string {
	if !lr.color {
		return ""
	}
	return code
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
