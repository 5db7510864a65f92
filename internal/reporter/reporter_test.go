package reporter

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
)

func TestTextReporter_PrintHeader(t *testing.T) {
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintHeader(10, 4)
	assert.Contains(t, buf.String(), "10 solutions")
	assert.Contains(t, buf.String(), "4 workers")
}

func TestTextReporter_PrintPlan(t *testing.T) {
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintPlan([]task.Group{{
		Langs:   []string{"c", "go"},
		Puzzles: []calendar.Puzzle{{Year: 2023, Day: 1}, {Year: 2023, Day: 2}},
	}})
	assert.Equal(t, "Running c, go for:\n2023, days 1-2\n\n", buf.String())
}

func TestTextReporter_PrintResult(t *testing.T) {
	ok := &task.Result{
		Job:    job("go", 2023, 5),
		State:  task.StateCompleted,
		Output: "Part 1:\nSeeds: 35\n0.1 ms\n",
	}

	var quiet bytes.Buffer
	NewTextReporter(&quiet, false).PrintResult(ok, false)
	assert.Empty(t, quiet.String())

	var verbose bytes.Buffer
	NewTextReporter(&verbose, false).PrintResult(ok, true)
	assert.Contains(t, verbose.String(), "Go 2023 day 5 output:\nPart 1:\nSeeds: 35")

	var failed bytes.Buffer
	NewTextReporter(&failed, false).PrintResult(&task.Result{
		Job: job("rust", 2022, 3), State: task.StateFailed, Error: "boom", OutputDir: "/tmp/run",
	}, false)
	assert.Contains(t, failed.String(), "✗ Rust 2022 day 3: boom")
	assert.Contains(t, failed.String(), "logs: /tmp/run")
}

func TestTextReporter_PrintParts(t *testing.T) {
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintParts(&task.Result{Parts: []lang.Part{
		{Number: 1, Answer: "42", Seconds: 0.5},
		{Number: 2, Answer: "##\n#.", Seconds: 1},
	}})
	assert.Contains(t, buf.String(), "Part 1: 42 (0.5000 s)")
	assert.Contains(t, buf.String(), "Part 2: \n##\n#. (1.0000 s)")
}

func TestTextReporter_PrintLanguageTotals(t *testing.T) {
	results := []*task.Result{
		{Job: job("go", 2023, 1), State: task.StateCompleted, Parts: []lang.Part{{Number: 1, Seconds: 1}, {Number: 2, Seconds: 0.2345}}},
		{Job: job("go", 2023, 2), State: task.StateCompleted, Parts: []lang.Part{{Number: 1, Seconds: 1}}},
		{Job: job("c", 2023, 1), State: task.StateCompleted, Parts: []lang.Part{{Number: 1, Seconds: 0.5}}},
		{Job: job("c", 2023, 2), State: task.StateFailed, Parts: []lang.Part{{Number: 1, Seconds: 9}}},
	}
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintLanguageTotals(results)
	assert.Equal(t, "C: Total time: 0.5000 seconds\nGo: Total time: 2.2345 seconds\n", buf.String())
}

func TestTextReporter_PrintStatusAndSummary(t *testing.T) {
	results := []*task.Result{
		{Job: job("go", 2023, 1), State: task.StateCompleted, Built: true},
		{Job: job("go", 2023, 2), State: task.StateFailed, Error: "no output"},
		{Job: job("go", 2023, 3), State: task.StateSkipped, Error: "context canceled"},
	}
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)
	r.PrintStatus(results)
	r.PrintSummary(task.NewRunReport("run", 1, results, 1500*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "FAILED  [1/3]")
	assert.Contains(t, out, "go/2023/02")
	assert.Contains(t, out, "SKIPPED  [1/3]")
	assert.Contains(t, out, "Completed: 1")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Built: 1")
	assert.Contains(t, out, "Duration: 1.5s")
}

func TestTextReporter_NoColor(t *testing.T) {
	var buf bytes.Buffer
	NewTextReporter(&buf, false).PrintSummary(&task.RunReport{TotalJobs: 1})
	assert.NotContains(t, buf.String(), "\033[")

	var colored bytes.Buffer
	NewTextReporter(&colored, true).PrintSummary(&task.RunReport{TotalJobs: 1})
	assert.Contains(t, colored.String(), "\033[")
}

func TestJSONReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFileName)
	results := []*task.Result{
		{Job: job("go", 2023, 1), State: task.StateCompleted, Parts: []lang.Part{{Number: 1, Answer: "7", Seconds: 0.1}}},
		{Job: job("go", 2023, 2), State: task.StateFailed, Error: "oops"},
	}
	require.NoError(t, WriteJSONReport(task.NewRunReport("abc", 2, results, time.Second), path))

	loaded, err := ReadJSONReport(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.RunID)
	assert.Equal(t, 2, loaded.TotalJobs)
	assert.Equal(t, 1, loaded.Failed)
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, task.StateFailed, loaded.Results[1].State)
	assert.Equal(t, "7", loaded.Results[0].Parts[0].Answer)
}
