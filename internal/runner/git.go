package runner

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const gitTimeout = 30 * time.Second

// GitStatus answers "has this solution changed since the last commit" from
// a single `git status --porcelain` of the solutions repo. Outside a git
// repo nothing is reported as changed.
type GitStatus struct {
	dir string

	once    sync.Once
	top     string
	changed []string // absolute paths
	err     error
}

// NewGitStatus returns a lazily loaded status for the repo containing dir.
func NewGitStatus(dir string) *GitStatus {
	return &GitStatus{dir: dir}
}

// Changed reports whether path, or anything under it, is modified,
// staged or untracked.
func (g *GitStatus) Changed(ctx context.Context, path string) bool {
	g.once.Do(func() { g.load(ctx) })
	if g.err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, c := range g.changed {
		if c == abs || strings.HasPrefix(c, abs+string(filepath.Separator)) || strings.HasPrefix(abs, c+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Err returns the error from reading the status, if any.
func (g *GitStatus) Err() error { return g.err }

func (g *GitStatus) load(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	// --show-cdup keeps paths in the caller's namespace (no symlink resolution).
	cdup, err := gitOutput(ctx, g.dir, "rev-parse", "--show-cdup")
	if err != nil {
		g.err = fmt.Errorf("git rev-parse: %w", err)
		return
	}
	dir, err := filepath.Abs(g.dir)
	if err != nil {
		g.err = err
		return
	}
	g.top = filepath.Join(dir, filepath.FromSlash(strings.TrimSpace(cdup)))

	files, err := changedFiles(ctx, g.top)
	if err != nil {
		g.err = fmt.Errorf("git status: %w", err)
		return
	}
	for _, f := range files {
		g.changed = append(g.changed, filepath.Join(g.top, filepath.FromSlash(strings.TrimSuffix(f, "/"))))
	}
}

// changedFiles returns file paths from git status --porcelain, relative to
// the repo root.
func changedFiles(ctx context.Context, repoDir string) ([]string, error) {
	out, err := gitOutput(ctx, repoDir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if len(line) < 4 {
			continue
		}
		// porcelain format: XY <space> filename
		file := strings.TrimSpace(line[3:])
		// renamed files: "old -> new"
		if idx := strings.Index(file, " -> "); idx >= 0 {
			file = file[idx+4:]
		}
		file = strings.Trim(file, `"`)
		if file != "" {
			files = append(files, file)
		}
	}
	return files, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%s: %s", err, strings.TrimSpace(string(ee.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
