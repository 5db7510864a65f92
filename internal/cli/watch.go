package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/reporter"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/runner"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/watch"
)

type watchOptions struct {
	year       int
	day        int
	languages  []string
	verbose    bool
	answers    bool
	runtimes   bool
	noSave     bool
	poll       bool
	debounce   time.Duration
	maxRuntime time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a solution every time its source changes",
		Long: `Watch the solution files of one puzzle and re-run the matching language
whenever they are saved. Every watched solution runs once at startup.`,
		Example: `  aoc watch -y 2023 -d 5 -l go
  aoc watch -y 2023 -d 5 -l go,python -a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-runtime") {
				opts.maxRuntime = a.settings.MaxRuntime
			}
			return runWatch(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.year, "year", "y", 0, "year")
	f.IntVarP(&opts.day, "day", "d", 0, "day")
	f.StringSliceVarP(&opts.languages, "languages", "l", nil, "language(s) to watch (default: every language with a solution)")
	f.BoolVar(&opts.verbose, "verbose", false, "print solution output")
	f.BoolVarP(&opts.answers, "answers", "a", false, "check and record answers")
	f.BoolVarP(&opts.runtimes, "runtimes", "r", false, "record runtimes")
	f.BoolVar(&opts.noSave, "no-save", false, "do not save answers, runtimes or history")
	f.BoolVar(&opts.poll, "poll", false, "poll modification times instead of using file system events")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	f.DurationVar(&opts.maxRuntime, "max-runtime", 0, "per-solution timeout (0 = none)")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("day")

	return cmd
}

// watchedLanguages returns the selected languages that have a solution for
// year/day.
func watchedLanguages(reg *lang.Registry, root string, names []string, year, day int) ([]*lang.Language, error) {
	langs, err := reg.Select(names, nil)
	if err != nil {
		return nil, err
	}
	var out []*lang.Language
	for _, l := range langs {
		if l.Exists(root, year, day) {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no solution for %d day %d in %v", year, day, reg.Names())
	}
	return out, nil
}

func runWatch(ctx context.Context, a *app, opts watchOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, _, err := puzzleRange([]int{opts.year}, []int{opts.day}, a.now()); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	reg, err := a.settings.Registry()
	if err != nil {
		return err
	}
	langs, err := watchedLanguages(reg, a.root, opts.languages, opts.year, opts.day)
	if err != nil {
		return err
	}
	runner.CheckToolchains(langs)

	client := newClient(a)
	sess, err := openSession(ctx, a, sessionOptions{
		answers:       opts.answers,
		runtimes:      opts.runtimes,
		noSave:        opts.noSave,
		answersStyle:  a.settings.TableStyle,
		runtimesStyle: a.settings.TableStyle,
		submit:        a.settings.Submit,
		history:       !opts.noSave,
	}, client, out)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("close logs")
		}
	}()

	if err := runner.Acquire(a.stateDir(), "watch"); err != nil {
		return err
	}
	defer runner.Release(a.stateDir())

	runDir, err := newRunDir(a)
	if err != nil {
		return err
	}
	sr := newSolutionRunner(a, reg, langs, client, runDir, opts.maxRuntime, opts.verbose)
	textRep := reporter.NewTextReporter(out, isTerminal())

	runJob := func(ctx context.Context, l *lang.Language) {
		job := task.Job{Lang: l.Name, Year: opts.year, Day: opts.day}
		res := sr.Run(ctx, job)
		sess.Record(context.WithoutCancel(ctx), res)
		textRep.PrintResult(res, opts.verbose)
		if res.State == task.StateCompleted && !opts.verbose {
			fmt.Fprintf(out, "%s %d day %d:\n", l.Title(), opts.year, opts.day)
			textRep.PrintParts(res)
		}
	}

	targets := make([]watch.Target, len(langs))
	for i, l := range langs {
		targets[i] = watch.SolutionTarget(l, a.root, opts.year, opts.day)
		runJob(ctx, l)
	}

	w, err := watch.New(watch.Config{
		Targets:  targets,
		Debounce: opts.debounce,
		PollMode: opts.poll,
		OnChange: func(ctx context.Context, path string) {
			for i, t := range targets {
				if t.Contains(path) {
					fmt.Fprintf(out, "\nchanged: %s\n", path)
					runJob(ctx, langs[i])
				}
			}
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nwatching %d day %d, press Ctrl+C to stop\n", opts.year, opts.day)
	return w.Run(ctx)
}
