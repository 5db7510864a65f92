package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/reporter"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/runner"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/state"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

// runOptions are the flags of "aoc run".
type runOptions struct {
	years     []int
	days      []int
	languages []string
	exclude   []string
	common    bool
	noRun     bool
	verbose   bool

	answers       bool
	runtimes      bool
	noLoad        bool
	noSave        bool
	answersStyle  string
	runtimesStyle string

	readme            bool
	readmeAttachments []string
	chart             bool
	chartAttachments  []string

	submit     bool
	workers    int
	maxRuntime time.Duration
	display    string
}

// FailedError reports solutions that did not complete. Exit code 1.
type FailedError struct {
	Failed  int
	Skipped int
}

func (e *FailedError) Error() string {
	if e.Skipped > 0 {
		return fmt.Sprintf("%d solutions failed, %d skipped", e.Failed, e.Skipped)
	}
	return fmt.Sprintf("%d solutions failed", e.Failed)
}

var errNoPuzzles = errors.New("no valid years/days for the given languages")

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and run solutions, then check and record their answers",
		Example: `  aoc run -y 2023 -d 1,2,3 -l go,python
  aoc run -y 2022 --common -a -r --readme
  aoc run --exclude rust --no-run -a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applySettings(cmd, a, &opts)
			return runSolutions(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.IntSliceVarP(&opts.years, "year", "y", nil, "year(s) to run (default: every released year)")
	f.IntSliceVarP(&opts.days, "day", "d", nil, "day(s) to run (default: 1-25)")
	f.StringSliceVarP(&opts.languages, "languages", "l", nil, "language(s) to run (default: all)")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "language(s) to skip")
	cmd.MarkFlagsMutuallyExclusive("languages", "exclude")
	f.BoolVar(&opts.common, "common", false, "only run puzzles solved in every selected language")
	f.BoolVar(&opts.noRun, "no-run", false, "do not run solutions, only load and report saved data")
	f.BoolVar(&opts.verbose, "verbose", false, "print solution output")

	f.BoolVarP(&opts.answers, "answers", "a", false, "track answers and check them against adventofcode.com")
	f.BoolVarP(&opts.runtimes, "runtimes", "r", false, "track runtimes")
	f.BoolVar(&opts.noLoad, "no-load", false, "do not load saved answers and runtimes")
	f.BoolVar(&opts.noSave, "no-save", false, "do not save answers, runtimes or history")
	f.StringVar(&opts.answersStyle, "answers-table-style", "", "answers table style: DEFAULT, SINGLE_BORDER, DOUBLE_BORDER, MARKDOWN")
	f.StringVar(&opts.runtimesStyle, "runtimes-table-style", "", "runtimes table style: DEFAULT, SINGLE_BORDER, DOUBLE_BORDER, MARKDOWN")

	f.BoolVar(&opts.readme, "readme", false, "write README files with stars and tables (implies -a -r)")
	f.StringSliceVar(&opts.readmeAttachments, "readme-attachments", nil, "YAML files binding README handlers to log hooks")
	f.BoolVar(&opts.chart, "chart", false, "write Mermaid runtime charts (implies -r)")
	f.StringSliceVar(&opts.chartAttachments, "chart-attachments", nil, "YAML files binding chart handlers to log hooks")

	f.BoolVar(&opts.submit, "submit", false, "submit answers the puzzle page does not show yet")
	f.IntVar(&opts.workers, "workers", 1, "solutions run in parallel (more than 1 skews runtimes)")
	f.DurationVar(&opts.maxRuntime, "max-runtime", 0, "per-solution timeout (0 = none)")
	f.StringVar(&opts.display, "tui", "", "display mode: full (interactive TUI), minimal (live status), off, auto (detect TTY)")

	return cmd
}

// applySettings fills every flag the user did not set from the loaded settings.
func applySettings(cmd *cobra.Command, a *app, opts *runOptions) {
	s := a.settings
	flags := cmd.Flags()
	if !flags.Changed("workers") {
		opts.workers = s.Workers
	}
	if !flags.Changed("max-runtime") {
		opts.maxRuntime = s.MaxRuntime
	}
	if !flags.Changed("submit") {
		opts.submit = s.Submit
	}
	if !flags.Changed("tui") {
		opts.display = s.Display
	}
	if opts.answersStyle == "" {
		opts.answersStyle = s.TableStyle
	}
	if opts.runtimesStyle == "" {
		opts.runtimesStyle = s.TableStyle
	}
}

// puzzleRange returns the requested years and days, sorted and without
// repeats, defaulting to every released year and all 25 days.
func puzzleRange(years, days []int, now time.Time) ([]int, []int, error) {
	years, days = calendar.Unique(years), calendar.Unique(days)
	if len(years) == 0 {
		years = calendar.Released(now)
	}
	if len(days) == 0 {
		days = calendar.AllDays()
	}
	for _, y := range years {
		if y < calendar.FirstYear {
			return nil, nil, fmt.Errorf("year %d: Advent of Code started in %d", y, calendar.FirstYear)
		}
	}
	for _, d := range days {
		if d < 1 || d > calendar.DaysPerYear {
			return nil, nil, fmt.Errorf("day %d: must be between 1 and %d", d, calendar.DaysPerYear)
		}
	}
	if len(years) == 0 || len(days) == 0 {
		return nil, nil, errNoPuzzles
	}
	return years, days, nil
}

// planJobs selects languages and discovers the jobs to run.
func planJobs(a *app, opts runOptions) (*lang.Registry, []*lang.Language, []task.Job, error) {
	reg, err := a.settings.Registry()
	if err != nil {
		return nil, nil, nil, err
	}
	langs, err := reg.Select(opts.languages, opts.exclude)
	if err != nil {
		return nil, nil, nil, err
	}
	years, days, err := puzzleRange(opts.years, opts.days, a.now())
	if err != nil {
		return nil, nil, nil, err
	}
	jobs, err := task.Plan(langs, a.root, years, days, opts.common)
	if errors.Is(err, task.ErrNothingToRun) {
		return nil, nil, nil, errNoPuzzles
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return reg, langs, jobs, nil
}

func newClient(a *app) *web.Client {
	s := a.settings
	return web.NewClient(web.Options{
		Cookie:    s.Cookie,
		BaseURL:   s.HTTP.BaseURL,
		Timeout:   s.HTTP.Timeout,
		UserAgent: s.HTTP.UserAgent,
	})
}

func runSolutions(ctx context.Context, a *app, opts runOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reg, langs, jobs, err := planJobs(a, opts)
	if err != nil {
		return err
	}

	isTTY := isTerminal()
	textRep := reporter.NewTextReporter(out, isTTY)
	textRep.PrintPlan(task.GroupByCoverage(jobs))

	client := newClient(a)
	sess, err := openSession(ctx, a, sessionOptions{
		answers:           opts.answers,
		runtimes:          opts.runtimes,
		noLoad:            opts.noLoad,
		noSave:            opts.noSave,
		answersStyle:      opts.answersStyle,
		runtimesStyle:     opts.runtimesStyle,
		submit:            opts.submit,
		readme:            opts.readme,
		readmeAttachments: opts.readmeAttachments,
		chart:             opts.chart,
		chartAttachments:  opts.chartAttachments,
		history:           !opts.noRun && !opts.noSave,
	}, client, out)
	if err != nil {
		return err
	}

	if opts.noRun {
		return sess.Close(ctx)
	}

	if err := runner.Acquire(a.stateDir(), "run"); err != nil {
		_ = sess.Close(ctx)
		return err
	}
	defer runner.Release(a.stateDir())

	runner.CheckToolchains(langs)

	res, runErr := executeRun(ctx, a, execRunConfig{
		jobs:       jobs,
		registry:   reg,
		langs:      langs,
		client:     client,
		session:    sess,
		workers:    opts.workers,
		maxRuntime: opts.maxRuntime,
		verbose:    opts.verbose,
		display:    opts.display,
		reporter:   textRep,
		out:        out,
	})
	if runErr != nil {
		_ = sess.Close(ctx)
		return runErr
	}

	textRep.PrintLanguageTotals(res.report.Results)
	textRep.PrintStatus(res.report.Results)
	closeErr := sess.Close(ctx)
	textRep.PrintSummary(res.report)
	fmt.Fprintf(out, "\nReport: %s\n", res.reportPath)

	if closeErr != nil {
		return closeErr
	}
	if rl := sess.RateLimit(); rl != nil {
		return rl
	}
	return res.err()
}

// execRunConfig holds parameters for executeRun.
type execRunConfig struct {
	jobs       []task.Job
	registry   *lang.Registry
	langs      []*lang.Language
	client     *web.Client
	session    *session
	workers    int
	maxRuntime time.Duration
	verbose    bool
	display    string // full, minimal, off, auto
	reporter   *reporter.TextReporter
	out        io.Writer
}

// execRunResult wraps the report and where it was written.
type execRunResult struct {
	report     *task.RunReport
	runDir     string
	reportPath string
}

func (r *execRunResult) err() error {
	if r.report.Failed > 0 || r.report.Skipped > 0 {
		return &FailedError{Failed: r.report.Failed, Skipped: r.report.Skipped}
	}
	return nil
}

// executeRun schedules the jobs with a live display, records each
// completed job as it finishes and writes the JSON report.
func executeRun(parent context.Context, a *app, cfg execRunConfig) (*execRunResult, error) {
	isTTY := isTerminal()

	runDir, err := newRunDir(a)
	if err != nil {
		return nil, err
	}

	mode := cfg.display
	// solution output would be overwritten by a live display
	if cfg.verbose && strings.EqualFold(mode, reporter.ModeAuto) {
		mode = reporter.ModeOff
	}
	mode, err = reporter.ResolveMode(mode, isTTY)
	if err != nil {
		return nil, err
	}

	log.Info().Int("solutions", len(cfg.jobs)).Int("workers", cfg.workers).Str("run_dir", runDir).Msg("starting run")

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\ninterrupted, waiting for running solutions to finish...")
			cancel()
		case <-ctx.Done():
		}
	}()

	sr := newSolutionRunner(a, cfg.registry, cfg.langs, cfg.client, runDir, cfg.maxRuntime, cfg.verbose)

	// logs and the text reporter are not written concurrently
	var recordMu sync.Mutex
	start := time.Now()
	sched := task.NewScheduler(cfg.jobs, task.SchedulerConfig{
		Workers: cfg.workers,
		ExecFn:  sr.Run,
		OnUpdate: func(_ int, res *task.Result) {
			log.Debug().Str("job", res.Job.ID()).Stringer("state", res.State).Msg("job update")
			if !res.Terminal() {
				return
			}
			recordMu.Lock()
			defer recordMu.Unlock()
			// recording outlives an interrupt so finished work is kept
			cfg.session.Record(context.WithoutCancel(ctx), res)
			if mode == reporter.ModeOff {
				cfg.reporter.PrintResult(res, cfg.verbose)
			}
		},
	})

	var live *reporter.LiveReporter
	var tuiProgram *tea.Program
	tuiDone := make(chan struct{})
	switch mode {
	case reporter.ModeFull:
		tuiProgram = tea.NewProgram(reporter.NewTUIModel(len(cfg.jobs), sched.Results, cancel), tea.WithAltScreen())
		go func() {
			defer close(tuiDone)
			if _, err := tuiProgram.Run(); err != nil {
				log.Warn().Err(err).Msg("TUI error")
			}
		}()
	case reporter.ModeMinimal:
		live = reporter.NewLiveReporter(cfg.out, isTTY, sched.Results)
		live.Start()
	}

	results := sched.Run(ctx)
	elapsed := time.Since(start)

	if tuiProgram != nil {
		tuiProgram.Quit()
		<-tuiDone
	}
	if live != nil {
		live.Stop()
	}
	if mode != reporter.ModeOff {
		recordMu.Lock()
		for _, res := range results {
			cfg.reporter.PrintResult(res, cfg.verbose)
		}
		recordMu.Unlock()
	}

	report := task.NewRunReport(cfg.session.runID, cfg.workers, results, elapsed)
	reportPath := filepath.Join(runDir, reporter.ReportFileName)
	if err := reporter.WriteJSONReport(report, reportPath); err != nil {
		log.Warn().Err(err).Msg("failed to write report")
	}

	return &execRunResult{report: report, runDir: runDir, reportPath: reportPath}, nil
}

// newSolutionRunner wires the build cache, per-language build limits and git
// change detection into a runner writing job logs under runDir.
func newSolutionRunner(a *app, reg *lang.Registry, langs []*lang.Language, client *web.Client, runDir string, maxRuntime time.Duration, verbose bool) *runner.SolutionRunner {
	tracker := state.Load(filepath.Join(a.root, state.DefaultPath()))
	return runner.NewSolutionRunner(runner.Config{
		Root:       a.root,
		InputsDir:  a.settings.InputsDir,
		Account:    client.Account(),
		StateDir:   a.stateDir(),
		RunDir:     runDir,
		MaxRuntime: maxRuntime,
		Verbose:    verbose,
	}, reg,
		runner.WithInputs(client),
		runner.WithBuildCache(tracker),
		runner.WithLimiter(runner.NewBuildLimiter(runner.LimitsFor(langs))),
		runner.WithGitStatus(runner.NewGitStatus(a.root)),
	)
}

// newRunDir creates <root>/.aoc/runs/<timestamp>.
func newRunDir(a *app) (string, error) {
	runDir := filepath.Join(a.stateDir(), "runs", time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return runDir, nil
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
