package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// scriptSpec describes one shell command: a build or a solution run.
type scriptSpec struct {
	Command    string
	Dir        string
	Env        []string
	LogDir     string // stdout/stderr copies land here
	LogName    string // "build" → build.log, build.stderr.log
	MaxRuntime time.Duration
}

// scriptResult is what a finished command left behind.
type scriptResult struct {
	Stdout    string
	Stderr    string
	Diagnosis string
	Duration  time.Duration
	Err       error
	TimedOut  bool
}

// runScript executes spec.Command via sh -c in its own process group, tees
// its output into log files, and kills the whole group on cancel or when
// MaxRuntime passes.
func runScript(ctx context.Context, spec scriptSpec) *scriptResult {
	start := time.Now()

	if spec.MaxRuntime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.MaxRuntime)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	outLog := newLogWriter(spec.LogDir, spec.LogName+".log")
	errLog := newLogWriter(spec.LogDir, spec.LogName+".stderr.log")
	diag := newDiagnoseWriter(io.MultiWriter(&stderr, errLog))

	log.Debug().Str("dir", spec.Dir).Str("command", spec.Command).Msg("spawning script")

	cmd := exec.CommandContext(ctx, "sh", "-c", spec.Command)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdout = io.MultiWriter(&stdout, outLog)
	cmd.Stderr = diag
	cmd.WaitDelay = time.Second
	setupProcessGroup(cmd)

	err := cmd.Run()

	closeLogWriter(outLog)
	closeLogWriter(errLog)

	res := &scriptResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Diagnosis: diag.Reason(),
		Duration:  time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && spec.MaxRuntime > 0 {
			res.TimedOut = true
			res.Err = fmt.Errorf("max runtime %s exceeded", spec.MaxRuntime)
		} else {
			res.Err = err
		}
	}
	return res
}

// failure renders a script error with its diagnosis and the tail of stderr.
func (r *scriptResult) failure(what string) string {
	msg := fmt.Sprintf("%s: %v", what, r.Err)
	if r.Diagnosis != "" {
		msg += " (" + r.Diagnosis + ")"
	}
	if tail := lastLines(r.Stderr, 5); tail != "" && !r.TimedOut {
		msg += "\n" + tail
	}
	return msg
}

// lastLines returns the last n non-empty lines of s.
func lastLines(s string, n int) string {
	var keep []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			keep = append(keep, line)
		}
	}
	if len(keep) > n {
		keep = keep[len(keep)-n:]
	}
	return strings.Join(keep, "\n")
}

// newLogWriter creates dir/name, falling back to io.Discard.
func newLogWriter(dir, name string) io.Writer {
	if dir == "" {
		return io.Discard
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Str("dir", dir).Err(err).Msg("cannot create log dir")
		return io.Discard
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("cannot create log file")
		return io.Discard
	}
	return f
}

// closeLogWriter closes the underlying file if the writer is an *os.File.
func closeLogWriter(w io.Writer) {
	if f, ok := w.(*os.File); ok {
		_ = f.Close()
	}
}

// outputFrom trims everything before the "Part 1:" line.
func outputFrom(stdout string) string {
	if i := strings.Index(stdout, "Part 1:"); i >= 0 {
		return stdout[i:]
	}
	return stdout
}
