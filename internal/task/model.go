package task

import (
	"fmt"
	"time"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

// State represents the execution state of a job.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateSkipped // cancelled before it started
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name in reports.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for st := StatePending; st <= StateSkipped; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Job is one solution to run: a language on a puzzle.
type Job struct {
	Lang string `json:"lang"`
	Year int    `json:"year"`
	Day  int    `json:"day"`
}

// ID is a stable identifier, e.g. "go/2023/05".
func (j Job) ID() string { return fmt.Sprintf("%s/%d/%02d", j.Lang, j.Year, j.Day) }

// Puzzle returns the job's (year, day).
func (j Job) Puzzle() calendar.Puzzle { return calendar.Puzzle{Year: j.Year, Day: j.Day} }

func (j Job) String() string { return fmt.Sprintf("%s %d day %d", j.Lang, j.Year, j.Day) }

// Result captures the outcome of running a single job.
type Result struct {
	Job       Job           `json:"job"`
	State     State         `json:"state"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Built     bool          `json:"built,omitempty"` // a build step ran before this job
	Parts     []lang.Part   `json:"parts,omitempty"`
	Output    string        `json:"-"` // stdout, from the "Part 1:" line on
	OutputDir string        `json:"output_dir,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Seconds sums the self-reported part timings.
func (r *Result) Seconds() float64 {
	var total float64
	for _, p := range r.Parts {
		total += p.Seconds
	}
	return total
}

// Terminal reports whether the job has finished in any way.
func (r *Result) Terminal() bool {
	return r.State == StateCompleted || r.State == StateFailed || r.State == StateSkipped
}

// RunReport is the final output of a run.
type RunReport struct {
	RunID         string        `json:"run_id"`
	Timestamp     time.Time     `json:"timestamp"`
	Workers       int           `json:"workers"`
	Results       []*Result     `json:"results"`
	TotalJobs     int           `json:"total_jobs"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	Skipped       int           `json:"skipped"`
	TotalDuration time.Duration `json:"total_duration"`
}

// NewRunReport tallies results into a report.
func NewRunReport(runID string, workers int, results []*Result, elapsed time.Duration) *RunReport {
	rpt := &RunReport{
		RunID:         runID,
		Timestamp:     time.Now(),
		Workers:       workers,
		Results:       results,
		TotalJobs:     len(results),
		TotalDuration: elapsed,
	}
	for _, r := range results {
		switch r.State {
		case StateCompleted:
			rpt.Completed++
		case StateFailed:
			rpt.Failed++
		case StateSkipped:
			rpt.Skipped++
		}
	}
	return rpt
}
