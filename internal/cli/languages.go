package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/runner"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List configured languages, their toolchains and solution counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.settings.Registry()
			if err != nil {
				return err
			}
			style, err := table.ParseStyle(a.settings.TableStyle)
			if err != nil {
				return err
			}
			printLanguages(cmd.OutOrStdout(), reg.All(), a.root, style, a.now())
			return nil
		},
	}
}

func printLanguages(w io.Writer, langs []*lang.Language, root string, style table.Style, now time.Time) {
	missing := make(map[string][]string)
	for _, m := range runner.CheckToolchains(langs) {
		missing[m.Lang] = append(missing[m.Lang], m.Tool)
	}

	years := calendar.Released(now)
	t := &table.Table{
		Name:    "Languages",
		Index:   []string{"Language"},
		Columns: []string{"Extension", "Layout", "Solutions", "Toolchain"},
	}
	for _, l := range langs {
		layout := "file per day"
		if l.Folder {
			layout = "folder per day"
		}
		toolchain := "ok"
		if tools := missing[l.Name]; len(tools) > 0 {
			toolchain = "missing " + strings.Join(tools, ", ")
		}
		t.Add(map[string]any{
			"Extension": l.Ext,
			"Layout":    layout,
			"Solutions": len(l.Discover(root, years)),
			"Toolchain": toolchain,
		}, l.Title())
	}
	fmt.Fprintln(w, table.Render([]*table.Table{t}, style, "languages"))
}
