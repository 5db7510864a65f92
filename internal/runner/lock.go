package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const lockFileName = "aoc.lock"

// LockInfo describes the owner of a workspace lock.
type LockInfo struct {
	PID       int       `json:"pid"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at"`
}

// Acquire creates a lock file in stateDir (normally .aoc). Returns nil on
// success. If the lock exists and the owning PID is dead, the stale lock is
// reclaimed.
func Acquire(stateDir, command string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	lockPath := filepath.Join(stateDir, lockFileName)

	info := LockInfo{
		PID:       os.Getpid(),
		Command:   command,
		StartedAt: time.Now(),
	}

	err := writeLock(lockPath, &info)
	if err == nil {
		return nil
	}

	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create lock %s: %w", lockPath, err)
	}

	// lock exists; reclaim it if the owner is gone
	existing, readErr := ReadLock(stateDir)
	if readErr != nil {
		return fmt.Errorf("workspace is locked (could not read %s: %v)", lockPath, readErr)
	}

	if isProcessAlive(existing.PID) {
		return fmt.Errorf("workspace locked by PID %d since %s (aoc %s)",
			existing.PID, existing.StartedAt.Format(time.RFC3339), existing.Command)
	}

	log.Warn().Int("stale_pid", existing.PID).Str("command", existing.Command).Msg("reclaiming stale lock")
	if err := os.Remove(lockPath); err != nil {
		return fmt.Errorf("remove stale lock: %w", err)
	}

	if err := writeLock(lockPath, &info); err != nil {
		return fmt.Errorf("acquire after stale removal: %w", err)
	}

	return nil
}

// LockPath is the lock file inside stateDir.
func LockPath(stateDir string) string {
	return filepath.Join(stateDir, lockFileName)
}

// Release removes the lock file from stateDir. It is idempotent.
func Release(stateDir string) {
	lockPath := filepath.Join(stateDir, lockFileName)
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", lockPath).Err(err).Msg("failed to release lock")
	}
}

// ReadLock reads the lock file from stateDir.
func ReadLock(stateDir string) (*LockInfo, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, lockFileName))
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock: %w", err)
	}

	return &info, nil
}

// writeLock atomically creates the lock file using O_CREATE|O_EXCL.
func writeLock(path string, info *LockInfo) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	encErr := json.NewEncoder(f).Encode(info)
	closeErr := f.Close()
	if encErr != nil {
		return encErr
	}
	return closeErr
}

// isProcessAlive checks if a process with the given PID exists and is running.
func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// signal 0 checks existence without sending anything
	return proc.Signal(syscall.Signal(0)) == nil
}
