package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/reporter"
)

func newStatusCmd(a *app) *cobra.Command {
	var runDir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect the results of a finished run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runDir == "" {
				latest, err := findLatestRunDir(filepath.Join(a.stateDir(), "runs"))
				if err != nil {
					return fmt.Errorf("no --run-dir specified and %w", err)
				}
				runDir = latest
			}
			return showStatus(cmd.OutOrStdout(), runDir)
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "path to .aoc/runs/<timestamp> (default: latest)")

	return cmd
}

// findLatestRunDir returns the most recent directory under runsDir that
// holds a report.
func findLatestRunDir(runsDir string) (string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return "", fmt.Errorf("cannot read runs directory: %w", err)
	}

	// entries are sorted by name; timestamps sort chronologically
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(runsDir, e.Name())
		if _, err := os.Stat(filepath.Join(candidate, reporter.ReportFileName)); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no finished runs found in %s", runsDir)
}

func showStatus(w io.Writer, runDir string) error {
	report, err := reporter.ReadJSONReport(filepath.Join(runDir, reporter.ReportFileName))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run: %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", report.RunID)
	}
	fmt.Fprintf(w, "Workers: %d\n", report.Workers)
	fmt.Fprintf(w, "Duration: %s\n\n", report.TotalDuration)

	for _, r := range report.Results {
		line := fmt.Sprintf("  %-16s  %-9s", r.Job.ID(), r.State)
		if r.Duration > 0 {
			line += fmt.Sprintf("  %s", r.Duration)
		}
		for _, p := range r.Parts {
			line += fmt.Sprintf("  part %d: %s", p.Number, firstLine(p.Answer))
		}
		if r.Error != "" {
			line += fmt.Sprintf("  (%s)", firstLine(r.Error))
		}
		fmt.Fprintln(w, line)
	}

	rep := reporter.NewTextReporter(w, false)
	rep.PrintLanguageTotals(report.Results)
	rep.PrintSummary(report)
	return nil
}

// firstLine shortens multi-line answers and errors to their first line.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
