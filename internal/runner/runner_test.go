package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/state"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
)

type fakeInputs struct {
	calls atomic.Int32
	err   error
}

func (f *fakeInputs) Input(_ context.Context, year, day int) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "3\n4\n", nil
}

// shLang runs <day>.sh directly; compLang "compiles" <day>.src by copying.
var (
	shLang = &lang.Language{Name: "sh", Ext: ".sh", Run: "sh {{.Day}}.sh {{.Input}}"}

	compLang = &lang.Language{
		Name:       "comp",
		Ext:        ".src",
		Build:      "cp {{.Day}}.src {{.Day}}.bin && chmod +x {{.Day}}.bin && echo built >> builds.txt",
		Run:        "./{{.Day}}.bin {{.Input}}",
		Executable: "{{.Day}}.bin",
	}
)

const sumScript = `#!/bin/sh
total=0
while read n; do total=$((total + n)); done < "$1"
echo "Part 1:"
echo "Sum: $total"
echo "0.5 ms"
echo "Part 2:"
echo "Answer: done"
echo "1.25 s"
`

func newTestRunner(t *testing.T, src InputSource, opts ...Option) (*SolutionRunner, string) {
	t.Helper()
	root := t.TempDir()
	reg, err := lang.NewRegistry(shLang, compLang)
	require.NoError(t, err)
	cfg := Config{Root: root, Account: "acct", RunDir: filepath.Join(root, ".aoc", "runs", "r1")}
	return NewSolutionRunner(cfg, reg, append([]Option{WithInputs(src)}, opts...)...), root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

func TestSolutionRunner_RunsAndParses(t *testing.T) {
	src := &fakeInputs{}
	r, root := newTestRunner(t, src)
	writeFile(t, filepath.Join(root, "2023", "sh", "1.sh"), sumScript)

	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 1})
	require.Equal(t, task.StateCompleted, res.State, res.Error)
	require.Len(t, res.Parts, 2)
	assert.Equal(t, "7", res.Parts[0].Answer)
	assert.InDelta(t, 0.0005, res.Parts[0].Seconds, 1e-12)
	assert.Equal(t, "done", res.Parts[1].Answer)
	assert.True(t, strings.HasPrefix(res.Output, "Part 1:"))

	// input downloaded once into the account dir
	_, err := os.Stat(filepath.Join(root, "Inputs", "acct", "2023_1.txt"))
	require.NoError(t, err)
	r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 1})
	assert.Equal(t, int32(1), src.calls.Load())

	_, err = os.Stat(filepath.Join(res.OutputDir, "output.log"))
	assert.NoError(t, err)
}

func TestSolutionRunner_NoSolution(t *testing.T) {
	r, _ := newTestRunner(t, &fakeInputs{})
	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 9})
	assert.Equal(t, task.StateFailed, res.State)
	assert.Contains(t, res.Error, lang.ErrNoSolution.Error())
}

func TestSolutionRunner_InputError(t *testing.T) {
	r, root := newTestRunner(t, &fakeInputs{err: errors.New("no AOC_COOKIE set")})
	writeFile(t, filepath.Join(root, "2023", "sh", "1.sh"), sumScript)

	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 1})
	assert.Equal(t, task.StateFailed, res.State)
	assert.Contains(t, res.Error, "AOC_COOKIE")
}

func TestSolutionRunner_NoOutput(t *testing.T) {
	r, root := newTestRunner(t, &fakeInputs{})
	writeFile(t, filepath.Join(root, "2023", "sh", "2.sh"), "true\n")

	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 2})
	assert.Equal(t, task.StateFailed, res.State)
	assert.Contains(t, res.Error, lang.ErrNoOutput.Error())
}

func TestSolutionRunner_NonZeroExit(t *testing.T) {
	r, root := newTestRunner(t, &fakeInputs{})
	writeFile(t, filepath.Join(root, "2023", "sh", "3.sh"), "echo boom >&2\nexit 1\n")

	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 3})
	assert.Equal(t, task.StateFailed, res.State)
	assert.Contains(t, res.Error, "failed to run Sh program")
	assert.Contains(t, res.Error, "boom")
}

func TestSolutionRunner_MaxRuntime(t *testing.T) {
	root := t.TempDir()
	reg, err := lang.NewRegistry(shLang)
	require.NoError(t, err)
	r := NewSolutionRunner(Config{Root: root, MaxRuntime: 100 * time.Millisecond}, reg, WithInputs(&fakeInputs{}))
	writeFile(t, filepath.Join(root, "2023", "sh", "4.sh"), "sleep 10\n")

	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 4})
	assert.Equal(t, task.StateFailed, res.State)
	assert.Contains(t, res.Error, "max runtime")
}

func TestSolutionRunner_BuildsOnlyWhenNeeded(t *testing.T) {
	root := t.TempDir()
	reg, err := lang.NewRegistry(compLang)
	require.NoError(t, err)
	tracker := state.Load(filepath.Join(root, ".aoc", "builds.json"))
	r := NewSolutionRunner(Config{Root: root}, reg, WithInputs(&fakeInputs{}), WithBuildCache(tracker))

	code := filepath.Join(root, "2023", "comp", "5.src")
	writeFile(t, code, sumScript)
	job := task.Job{Lang: "comp", Year: 2023, Day: 5}

	res := r.Run(context.Background(), job)
	require.Equal(t, task.StateCompleted, res.State, res.Error)
	assert.True(t, res.Built)

	res = r.Run(context.Background(), job)
	require.Equal(t, task.StateCompleted, res.State, res.Error)
	assert.False(t, res.Built, "unchanged source is not rebuilt")

	writeFile(t, code, sumScript+"# edited\n")
	res = r.Run(context.Background(), job)
	require.Equal(t, task.StateCompleted, res.State, res.Error)
	assert.True(t, res.Built, "edited source is rebuilt")

	require.NoError(t, os.Remove(filepath.Join(root, "2023", "comp", "5.bin")))
	res = r.Run(context.Background(), job)
	assert.True(t, res.Built, "missing executable is rebuilt")

	builds, err := os.ReadFile(filepath.Join(root, "2023", "comp", "builds.txt"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(builds), "built"))
}

func TestSolutionRunner_BuildFailure(t *testing.T) {
	root := t.TempDir()
	broken := &lang.Language{Name: "broken", Ext: ".x", Build: "echo 'syntax error' >&2; exit 2", Run: "./{{.Day}}", Executable: "{{.Day}}"}
	reg, err := lang.NewRegistry(broken)
	require.NoError(t, err)
	tracker := state.Load(filepath.Join(root, "builds.json"))
	r := NewSolutionRunner(Config{Root: root}, reg, WithInputs(&fakeInputs{}), WithBuildCache(tracker))
	writeFile(t, filepath.Join(root, "2023", "broken", "6.x"), "")

	res := r.Run(context.Background(), task.Job{Lang: "broken", Year: 2023, Day: 6})
	assert.Equal(t, task.StateFailed, res.State)
	assert.Contains(t, res.Error, "failed to compile Broken program")
	assert.Contains(t, res.Error, "syntax error")
	assert.Equal(t, state.StatusFailed, tracker.Get("broken/2023/06").Status)
}

func TestSolutionRunner_StripsCookie(t *testing.T) {
	t.Setenv("AOC_COOKIE", "top-secret")
	r, root := newTestRunner(t, &fakeInputs{})
	writeFile(t, filepath.Join(root, "2023", "sh", "7.sh"), "echo 'Part 1:'\necho \"Cookie: [$AOC_COOKIE]\"\necho 0.1\n")

	res := r.Run(context.Background(), task.Job{Lang: "sh", Year: 2023, Day: 7})
	require.Equal(t, task.StateCompleted, res.State, res.Error)
	assert.Equal(t, "[]", res.Parts[0].Answer)
}

func TestInputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("Inputs", "abc", "2023_5.txt"), InputPath("Inputs", "abc", 2023, 5))
	assert.Equal(t, filepath.Join("Inputs", "2023_5.txt"), InputPath("Inputs", "", 2023, 5))
}
