package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/state"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Manage the build cache",
		Long: `Manage the build cache that decides when compiled solutions need a rebuild.

Solutions are rebuilt when their source hash differs from the last build.
Use 'aoc state list' to see cached builds, 'aoc state reset <lang/year/day>'
to force one rebuild, or 'aoc state clear' to rebuild everything.`,
	}

	path := func() string { return filepath.Join(a.root, state.DefaultPath()) }

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show all cached builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := state.Load(path()).Entries()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached builds.")
				return nil
			}
			keys := make([]string, 0, len(entries))
			for k := range entries {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "SOLUTION\tSTATUS\tHASH\tBUILT\n")
			for _, k := range keys {
				e := entries[k]
				hash := e.Hash
				if len(hash) > 7 {
					hash = hash[:7]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k, e.Status, hash, e.BuiltAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset <lang/year/day>",
		Short: "Force one solution to rebuild on its next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker := state.Load(path())
			entry := tracker.Get(args[0])
			if entry == nil {
				return fmt.Errorf("%q not found in build cache", args[0])
			}
			tracker.Reset(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %q (was %s)\n", args[0], entry.Status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the build cache (rebuilds everything)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker := state.Load(path())
			n := tracker.Count()
			tracker.Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached builds.\n", n)
			return nil
		},
	})

	return cmd
}
