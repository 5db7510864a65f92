package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/runner"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

const defaultFetchConcurrency = 4

func newFetchCmd(a *app) *cobra.Command {
	var (
		years       []int
		days        []int
		concurrency int
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download puzzle inputs",
		Long: `Download the inputs of every released puzzle in the selected years and
days into the inputs directory. Existing inputs are kept unless --force.
Requires AOC_COOKIE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.now()
			ys, ds, err := puzzleRange(years, days, now)
			if err != nil {
				return err
			}
			return fetchInputs(cmd.Context(), newClient(a), a.settings.InputsDir, releasedPuzzles(ys, ds, now), concurrency, force, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntSliceVarP(&years, "year", "y", nil, "year(s) to fetch (default: every released year)")
	cmd.Flags().IntSliceVarP(&days, "day", "d", nil, "day(s) to fetch (default: 1-25)")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultFetchConcurrency, "parallel downloads")
	cmd.Flags().BoolVar(&force, "force", false, "download inputs that already exist again")

	return cmd
}

// releasedPuzzles is every year/day pair already unlocked at now.
func releasedPuzzles(years, days []int, now time.Time) []calendar.Puzzle {
	var out []calendar.Puzzle
	for _, y := range years {
		for _, d := range days {
			if !calendar.Unlock(y, d).After(now) {
				out = append(out, calendar.Puzzle{Year: y, Day: d})
			}
		}
	}
	calendar.SortPuzzles(out)
	return out
}

func fetchInputs(ctx context.Context, src *web.Client, dir string, puzzles []calendar.Puzzle, concurrency int, force bool, out io.Writer) error {
	if !src.HasCookie() {
		return web.ErrNoCookie
	}
	if len(puzzles) == 0 {
		return errNoPuzzles
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var fetched, present atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range puzzles {
		path := runner.InputPath(dir, src.Account(), p.Year, p.Day)
		g.Go(func() error {
			if force {
				if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("%s: %w", p, err)
				}
			} else if _, err := os.Stat(path); err == nil {
				present.Add(1)
				return nil
			}
			if err := runner.EnsureInput(gctx, src, path, p.Year, p.Day); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			fetched.Add(1)
			return nil
		})
	}
	err := g.Wait()
	log.Debug().Int32("fetched", fetched.Load()).Int32("present", present.Load()).Msg("fetch finished")
	fmt.Fprintf(out, "Fetched %d inputs, %d already present\n", fetched.Load(), present.Load())
	return err
}
