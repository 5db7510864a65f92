package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/history"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

const defaultHistoryLimit = 20

func newHistoryCmd(a *app) *cobra.Command {
	var (
		f       history.Filter
		style   string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs of a solution",
		Example: `  aoc history -l go -y 2023 -d 5
  aoc history -l rust -y 2022 -d 16 -p 2 --summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if style == "" {
				style = a.settings.TableStyle
			}
			st, err := table.ParseStyle(style)
			if err != nil {
				return err
			}
			store, err := history.Open(a.settings.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			if summary {
				return printHistorySummary(cmd.Context(), cmd.OutOrStdout(), store, f, st)
			}
			return printHistory(cmd.Context(), cmd.OutOrStdout(), store, f, st)
		},
	}

	cmd.Flags().StringVarP(&f.Lang, "language", "l", "", "language")
	cmd.Flags().IntVarP(&f.Year, "year", "y", 0, "year")
	cmd.Flags().IntVarP(&f.Day, "day", "d", 0, "day")
	cmd.Flags().IntVarP(&f.Part, "part", "p", 0, "part")
	cmd.Flags().IntVar(&f.Limit, "limit", defaultHistoryLimit, "most recent runs to show (0 = all)")
	cmd.Flags().StringVar(&style, "style", "", "table style: DEFAULT, SINGLE_BORDER, DOUBLE_BORDER, MARKDOWN")
	cmd.Flags().BoolVar(&summary, "summary", false, "print run count, best, mean and last runtime per part instead")

	return cmd
}

func printHistory(ctx context.Context, w io.Writer, store *history.Store, f history.Filter, style table.Style) error {
	entries, err := store.Trend(ctx, f)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}

	t := &table.Table{
		Name:    "History",
		Index:   []string{"Run"},
		Columns: []string{"Ran at", "Language", "Year", "Day", "Part", "Answer", "Seconds"},
	}
	for _, e := range entries {
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		t.Add(map[string]any{
			"Ran at":   e.RanAt.Format("2006-01-02 15:04:05"),
			"Language": record.Title(e.Lang),
			"Year":     e.Year,
			"Day":      e.Day,
			"Part":     e.Part,
			"Answer":   e.Answer,
			"Seconds":  e.Seconds,
		}, run)
	}
	fmt.Fprintln(w, table.Render([]*table.Table{t}, style, "history"))
	return nil
}

// printHistorySummary aggregates each part matching f separately.
func printHistorySummary(ctx context.Context, w io.Writer, store *history.Store, f history.Filter, style table.Style) error {
	f.Limit = 0
	entries, err := store.Trend(ctx, f)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}

	seen := make(map[record.Key]bool)
	var keys []record.Key
	for _, e := range entries {
		k := record.Key{Lang: e.Lang, Year: e.Year, Day: e.Day, Part: e.Part}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	t := &table.Table{
		Name:    "Summary",
		Index:   []string{"Language", "Year", "Day", "Part"},
		Columns: []string{"Runs", "Best", "Mean", "Last"},
	}
	for _, k := range keys {
		st, err := store.Summary(ctx, history.Filter{Lang: k.Lang, Year: k.Year, Day: k.Day, Part: k.Part})
		if err != nil {
			return err
		}
		t.Add(map[string]any{
			"Runs": st.Runs,
			"Best": st.Best,
			"Mean": st.Mean,
			"Last": st.Last,
		}, record.Title(k.Lang), strconv.Itoa(k.Year), strconv.Itoa(k.Day), strconv.Itoa(k.Part))
	}
	t.SortRows()
	fmt.Fprintln(w, table.Render([]*table.Table{t}, style, "history"))
	return nil
}
