package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScript_Success(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	res := runScript(context.Background(), scriptSpec{Command: "echo hello", Dir: dir, LogDir: outDir, LogName: "output"})
	require.NoError(t, res.Err)
	assert.Equal(t, "hello\n", res.Stdout)

	data, err := os.ReadFile(filepath.Join(outDir, "output.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestRunScript_Failure(t *testing.T) {
	dir := t.TempDir()
	res := runScript(context.Background(), scriptSpec{Command: "echo oops >&2; exit 3", Dir: dir})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "exit status 3")
	assert.Contains(t, res.failure("failed"), "oops")
}

func TestRunScript_MaxRuntime(t *testing.T) {
	dir := t.TempDir()
	start := time.Now()
	res := runScript(context.Background(), scriptSpec{Command: "sleep 10", Dir: dir, MaxRuntime: 100 * time.Millisecond})
	require.Error(t, res.Err)
	assert.True(t, res.TimedOut)
	assert.Contains(t, res.Err.Error(), "max runtime")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunScript_Cancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := runScript(ctx, scriptSpec{Command: "sleep 10", Dir: dir})
	require.Error(t, res.Err)
	assert.False(t, res.TimedOut)
}

func TestRunScript_WorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	res := runScript(context.Background(), scriptSpec{
		Command: `pwd; echo "x=$AOC_TEST_X"`,
		Dir:     dir,
		Env:     append(os.Environ(), "AOC_TEST_X=42"),
	})
	require.NoError(t, res.Err)
	real, _ := filepath.EvalSymlinks(dir)
	assert.True(t, strings.Contains(res.Stdout, dir) || strings.Contains(res.Stdout, real))
	assert.Contains(t, res.Stdout, "x=42")
}

func TestRunScript_StderrCapture(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	res := runScript(context.Background(), scriptSpec{Command: "echo err >&2", Dir: dir, LogDir: outDir, LogName: "build"})
	require.NoError(t, res.Err)

	data, err := os.ReadFile(filepath.Join(outDir, "build.stderr.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "err")
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\n\nb\nc\n\nd\n", 2))
	assert.Equal(t, "", lastLines("", 3))
}

func TestOutputFrom(t *testing.T) {
	assert.Equal(t, "Part 1:\n1\n", outputFrom("noise\nPart 1:\n1\n"))
	assert.Equal(t, "x", outputFrom("x"))
}
