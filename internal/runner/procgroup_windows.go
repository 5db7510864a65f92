//go:build windows

package runner

import "os/exec"

// setupProcessGroup is a no-op on Windows; the default CommandContext
// cancel kills only the direct child.
func setupProcessGroup(cmd *exec.Cmd) {}
