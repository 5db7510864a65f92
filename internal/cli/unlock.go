package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/runner"
)

func newUnlockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Remove a stale workspace lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := runner.ReadLock(a.stateDir())
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintln(cmd.OutOrStdout(), "No lock found.")
					return nil
				}
				return fmt.Errorf("read lock: %w", err)
			}

			if err := os.Remove(runner.LockPath(a.stateDir())); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove lock: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed lock (was PID %d, aoc %s, since %s)\n",
				info.PID, info.Command, info.StartedAt.Format(time.RFC3339))
			return nil
		},
	}
}
