package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

func newAnswersCmd(a *app) *cobra.Command {
	var (
		years     []int
		languages []string
		style     string
		runtimes  bool
	)

	cmd := &cobra.Command{
		Use:   "answers",
		Short: "Print saved answers (and runtimes) without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if style == "" {
				style = a.settings.TableStyle
			}
			sess, err := openSession(cmd.Context(), a, sessionOptions{
				answers:       true,
				runtimes:      runtimes,
				noSave:        true,
				answersStyle:  style,
				runtimesStyle: style,
			}, newClient(a), nil)
			if err != nil {
				return err
			}
			defer func() { _ = sess.closeHistory() }()

			st, err := table.ParseStyle(style)
			if err != nil {
				return err
			}
			for _, l := range sess.loggers() {
				printTables(cmd.OutOrStdout(), l, st, years, languages)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVarP(&years, "year", "y", nil, "only these years")
	cmd.Flags().StringSliceVarP(&languages, "languages", "l", nil, "only these languages")
	cmd.Flags().StringVar(&style, "style", "", "table style: DEFAULT, SINGLE_BORDER, DOUBLE_BORDER, MARKDOWN")
	cmd.Flags().BoolVarP(&runtimes, "runtimes", "r", false, "also print saved runtimes")

	return cmd
}

// printTables renders every table of l, restricted to years and languages
// when given. Tables that are not per year are always printed.
func printTables(w io.Writer, l record.Logger, style table.Style, years []int, languages []string) {
	titles := make([]string, len(languages))
	for i, name := range languages {
		titles[i] = record.Title(name)
	}

	var keep []*table.Table
	for _, t := range l.Tables(false) {
		y, err := strconv.Atoi(t.Name)
		if err != nil {
			keep = append(keep, t)
			continue
		}
		if len(years) > 0 && !slices.Contains(years, y) {
			continue
		}
		if len(titles) > 0 {
			t = t.Only(titles...)
		}
		keep = append(keep, t)
	}

	out := table.Render(keep, style, l.Name())
	if out == "" {
		fmt.Fprintf(w, "No saved %s.\n", l.Name())
		return
	}
	fmt.Fprintf(w, "%s\n\n", out)
}
