// Package runner builds and runs solutions as subprocesses.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/state"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
)

// Runner executes a job and returns its result.
type Runner interface {
	Name() string
	Run(ctx context.Context, j task.Job) *task.Result
}

// Config holds the paths and limits shared by every job.
type Config struct {
	Root       string        // solutions repository root
	InputsDir  string        // inputs root, usually <root>/Inputs
	Account    string        // per-session input subdirectory
	StateDir   string        // .aoc: harness scripts live here
	RunDir     string        // per-run log directory
	MaxRuntime time.Duration // 0 = unlimited
	Verbose    bool          // passed to solutions as AOC_VERBOSE=1
}

// SolutionRunner builds (when needed) and runs solutions via sh -c.
type SolutionRunner struct {
	cfg     Config
	langs   *lang.Registry
	inputs  InputSource
	builds  *state.Tracker
	limiter *BuildLimiter
	git     *GitStatus
	harness *harnessCache
}

// Option configures a SolutionRunner.
type Option func(*SolutionRunner)

// WithInputs downloads missing inputs from src.
func WithInputs(src InputSource) Option { return func(r *SolutionRunner) { r.inputs = src } }

// WithBuildCache rebuilds when a source hash differs from the last build.
func WithBuildCache(t *state.Tracker) Option { return func(r *SolutionRunner) { r.builds = t } }

// WithLimiter bounds concurrent builds per language.
func WithLimiter(l *BuildLimiter) Option { return func(r *SolutionRunner) { r.limiter = l } }

// WithGitStatus rebuilds solutions git reports as changed.
func WithGitStatus(g *GitStatus) Option { return func(r *SolutionRunner) { r.git = g } }

// NewSolutionRunner creates a runner for the languages in reg.
func NewSolutionRunner(cfg Config, reg *lang.Registry, opts ...Option) *SolutionRunner {
	if cfg.InputsDir == "" {
		cfg.InputsDir = filepath.Join(cfg.Root, "Inputs")
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(cfg.Root, ".aoc")
	}
	r := &SolutionRunner{
		cfg:     cfg,
		langs:   reg,
		harness: newHarnessCache(filepath.Join(cfg.StateDir, "harness")),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Name returns the runner identifier.
func (r *SolutionRunner) Name() string { return "solution" }

// Run builds the job's solution if needed, runs it and parses its output.
func (r *SolutionRunner) Run(ctx context.Context, j task.Job) *task.Result {
	start := time.Now()
	result := &task.Result{Job: j, StartedAt: start}
	fail := func(msg string) *task.Result {
		result.State = task.StateFailed
		result.Error = msg
		result.EndedAt = time.Now()
		result.Duration = result.EndedAt.Sub(start)
		return result
	}

	l, ok := r.langs.Get(j.Lang)
	if !ok {
		return fail(fmt.Sprintf("unknown language %q", j.Lang))
	}
	if !l.Exists(r.cfg.Root, j.Year, j.Day) {
		return fail(fmt.Errorf("%s %d day %d: %w", l.Title(), j.Year, j.Day, lang.ErrNoSolution).Error())
	}

	inputPath, err := filepath.Abs(InputPath(r.cfg.InputsDir, r.cfg.Account, j.Year, j.Day))
	if err != nil {
		return fail(err.Error())
	}
	if err := EnsureInput(ctx, r.inputs, inputPath, j.Year, j.Day); err != nil {
		return fail(fmt.Sprintf("input: %v", err))
	}

	harness, err := r.harness.path(l.Harness)
	if err != nil {
		return fail(err.Error())
	}

	extra, err := ResolveEnv(l.Env)
	if err != nil {
		return fail(err.Error())
	}
	if r.cfg.Verbose {
		if extra == nil {
			extra = make(map[string]string, 1)
		}
		extra["AOC_VERBOSE"] = "1"
	}
	env := mergeEnv(SanitizedEnv(), extra)

	vars := lang.NewVars(j.Year, j.Day, inputPath, harness)
	dir := l.ParentDir(r.cfg.Root, j.Year, j.Day)
	logDir := ""
	if r.cfg.RunDir != "" {
		logDir = filepath.Join(r.cfg.RunDir, l.Name, strconv.Itoa(j.Year), strconv.Itoa(j.Day))
	}
	result.OutputDir = logDir

	built, err := r.build(ctx, l, j, vars, dir, logDir, env)
	result.Built = built
	if err != nil {
		return fail(err.Error())
	}

	runCmd, err := l.RunCommand(vars)
	if err != nil {
		return fail(err.Error())
	}
	res := runScript(ctx, scriptSpec{
		Command:    runCmd,
		Dir:        dir,
		Env:        env,
		LogDir:     logDir,
		LogName:    "output",
		MaxRuntime: r.cfg.MaxRuntime,
	})
	if res.Err != nil {
		return fail(res.failure(fmt.Sprintf("failed to run %s program: %d day %d", l.Title(), j.Year, j.Day)))
	}
	if res.Stdout == "" {
		return fail(fmt.Errorf("%s %d day %d: %w", l.Title(), j.Year, j.Day, lang.ErrNoOutput).Error())
	}

	parts, err := lang.ParseOutput(res.Stdout)
	if err != nil {
		return fail(fmt.Sprintf("%s %d day %d: %v", l.Title(), j.Year, j.Day, err))
	}

	result.State = task.StateCompleted
	result.Parts = parts
	result.Output = outputFrom(res.Stdout)
	result.EndedAt = time.Now()
	result.Duration = result.EndedAt.Sub(start)
	return result
}

// build compiles the solution when the language has a build step and the
// executable is missing, git reports the code changed, or the build cache
// has a different source hash. Reports whether a build ran.
func (r *SolutionRunner) build(ctx context.Context, l *lang.Language, j task.Job, vars lang.Vars, dir, logDir string, env []string) (bool, error) {
	buildCmd, err := l.BuildCommand(vars)
	if err != nil || buildCmd == "" {
		return false, err
	}

	exe, err := l.ExecutablePath(vars)
	if err != nil {
		return false, err
	}
	key := j.ID()
	source := l.CodeFile(r.cfg.Root, j.Year, j.Day)
	if l.Folder {
		source = l.ParentDir(r.cfg.Root, j.Year, j.Day)
	}
	hash, hashErr := state.HashPath(source)

	reason := ""
	switch {
	case !fileExists(filepath.Join(dir, exe)):
		reason = "executable missing"
	case r.git != nil && r.git.Changed(ctx, source):
		reason = "source changed in git"
	case r.builds != nil && (hashErr != nil || r.builds.Stale(key, hash)):
		reason = "source changed since last build"
	}
	if reason == "" {
		return false, nil
	}

	r.limiter.Acquire(l.Name)
	defer r.limiter.Release(l.Name)

	log.Debug().Str("job", key).Str("reason", reason).Msg("building")
	res := runScript(ctx, scriptSpec{
		Command: buildCmd,
		Dir:     dir,
		Env:     env,
		LogDir:  logDir,
		LogName: "build",
	})
	if res.Err != nil {
		msg := res.failure(fmt.Sprintf("failed to compile %s program: %d day %d", l.Title(), j.Year, j.Day))
		if r.builds != nil {
			r.builds.MarkFailed(key, hash, msg)
		}
		return true, errors.New(msg)
	}
	if r.builds != nil && hashErr == nil {
		r.builds.MarkBuilt(key, hash)
	}
	return true, nil
}
