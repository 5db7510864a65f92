package reporter

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
)

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pauseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

type tickMsg time.Time

// TUIModel is the Bubbletea model for the live run display.
type TUIModel struct {
	total      int
	getResults func() []*task.Result
	cancelRun  func() // called on 'q' to cancel the run context

	results      []*task.Result
	scrollOffset int
	paused       bool
	frame        int
	width        int
	height       int
	done         bool
}

// NewTUIModel creates a new TUI model for total jobs.
func NewTUIModel(total int, getResults func() []*task.Result, cancelRun func()) TUIModel {
	return TUIModel{
		total:      total,
		getResults: getResults,
		cancelRun:  cancelRun,
	}
}

// Init implements tea.Model.
func (m TUIModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.done = true
			return m, tea.Quit

		case "p", " ":
			m.paused = !m.paused

		case "j", "down":
			m.scrollDown(1)

		case "k", "up":
			m.scrollUp(1)

		case "g", "home":
			m.scrollOffset = 0

		case "G", "end":
			m.scrollOffset = m.maxScroll()

		case "pgdown":
			m.scrollDown(m.visibleJobs())

		case "pgup":
			m.scrollUp(m.visibleJobs())
		}

	case tickMsg:
		if !m.paused {
			m.results = m.getResults()
		}
		m.frame++
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m *TUIModel) scrollDown(n int) {
	m.scrollOffset += n
	if max := m.maxScroll(); m.scrollOffset > max {
		m.scrollOffset = max
	}
}

func (m *TUIModel) scrollUp(n int) {
	m.scrollOffset -= n
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m TUIModel) visibleJobs() int {
	// header(1) + progress(1) + blank(1) + help(1) + hint(1) reserved
	avail := m.height - 5
	if avail < 3 {
		return 3
	}
	return avail
}

func (m TUIModel) maxScroll() int {
	vis := m.visibleJobs()
	if m.total <= vis {
		return 0
	}
	return m.total - vis
}

// View implements tea.Model.
func (m TUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	failed, running, completed, queued := buckets(m.results)
	// jobs the scheduler has not reported yet are queued
	unseen := m.total - len(m.results)

	header := fmt.Sprintf("aoc: %d solutions", m.total)
	if m.paused {
		header += "  " + pauseStyle.Render("⏸ PAUSED")
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	b.WriteString(m.progressLine(len(completed), len(running), len(failed), len(queued)+unseen))
	b.WriteString("\n")

	jobLines := m.buildJobLines(failed, running, completed, queued)

	vis := m.visibleJobs()
	start := min(m.scrollOffset, len(jobLines))
	end := min(start+vis, len(jobLines))

	if start > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↑ %d more above", start)))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		b.WriteString(jobLines[i])
		b.WriteString("\n")
	}
	if end < len(jobLines) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↓ %d more below", len(jobLines)-end)))
		b.WriteString("\n")
	}

	// pad to fill screen
	used := 2 + (end - start) + 1
	if start > 0 {
		used++
	}
	if end < len(jobLines) {
		used++
	}
	for i := used; i < m.height-1; i++ {
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("  ↑↓/jk: scroll  g/G: top/bottom  p: pause  q: quit"))

	return b.String()
}

func (m TUIModel) buildJobLines(failed, running, completed, queued []*task.Result) []string {
	spinner := spinnerFrames[m.frame%len(spinnerFrames)]
	lines := make([]string, 0, len(failed)+len(running)+len(completed)+len(queued))

	for _, res := range failed {
		icon, label := "✗", "FAILED"
		if res.State == task.StateSkipped {
			icon, label = "⊘", "skipped"
		}
		lines = append(lines, failedStyle.Render(fmt.Sprintf("  %s %-10s %-22s %s", icon, label, res.Job.ID(), truncate(firstLine(res.Error), 60))))
	}
	for _, res := range running {
		elapsed := time.Since(res.StartedAt).Truncate(100 * time.Millisecond)
		lines = append(lines, runStyle.Render(fmt.Sprintf("  %s %-10s %-22s %s", spinner, "running", res.Job.ID(), elapsed)))
	}
	for _, res := range completed {
		lines = append(lines, doneStyle.Render(fmt.Sprintf("  ✓ %-10s %-22s %.4f s", "done", res.Job.ID(), res.Seconds())))
	}
	for _, res := range queued {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  ─ %-10s %s", "queued", res.Job.ID())))
	}
	return lines
}

func (m TUIModel) progressLine(done, running, failed, queued int) string {
	var parts []string
	if done > 0 {
		parts = append(parts, doneStyle.Render(fmt.Sprintf("%d done", done)))
	}
	if running > 0 {
		parts = append(parts, runStyle.Render(fmt.Sprintf("%d running", running)))
	}
	if failed > 0 {
		parts = append(parts, failedStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	if queued > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d queued", queued)))
	}
	return "  " + strings.Join(parts, "  ")
}
