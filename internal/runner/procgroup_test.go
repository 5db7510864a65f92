//go:build !windows

package runner

import (
	"context"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProcessGroup_KillsChildren(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// a solution that forks a helper and waits on it
	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 60 & sleep 60")
	setupProcessGroup(cmd)
	require.NoError(t, cmd.Start())

	pid := cmd.Process.Pid
	require.NoError(t, syscall.Kill(pid, 0), "process not alive after start")

	cancel()
	_ = cmd.Wait()
	time.Sleep(50 * time.Millisecond)

	assert.Error(t, syscall.Kill(-pid, 0), "process group still alive after cancel")
}

func TestSetupProcessGroup_SetsAttributes(t *testing.T) {
	cmd := exec.Command("echo", "test")
	setupProcessGroup(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
	assert.NotNil(t, cmd.Cancel)
}

func TestSetupProcessGroup_NormalExit(t *testing.T) {
	cmd := exec.CommandContext(context.Background(), "echo", "hello")
	setupProcessGroup(cmd)

	out, err := cmd.Output()
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSetupProcessGroup_CancelNilProcess(t *testing.T) {
	cmd := exec.Command("nonexistent-binary-xyz")
	setupProcessGroup(cmd)
	assert.NoError(t, cmd.Cancel())
}
