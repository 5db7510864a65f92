package viewer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// gitFunc runs git in dir and returns trimmed stdout. Tests replace it.
type gitFunc func(ctx context.Context, dir string, args ...string) (string, error)

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func gitUsername(ctx context.Context, git gitFunc, dir string) (string, error) {
	name, err := git(ctx, dir, "config", "user.name")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("git user.name is not set")
	}
	return name, nil
}

// submoduleLine matches `git submodule status` output for year directories.
var submoduleLine = regexp.MustCompile(`(?m)^[ +\-U]?[0-9a-f]+ (\d+)(?: \(.*\))?$`)

// submoduleRepos renders a Markdown list linking every year submodule to
// its origin URL.
func submoduleRepos(ctx context.Context, git gitFunc, dir string) (string, error) {
	status, err := git(ctx, dir, "submodule", "status")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, m := range submoduleLine.FindAllStringSubmatch(status, -1) {
		path := m[1]
		url, err := git(ctx, filepath.Join(dir, path), "remote", "get-url", "origin")
		if err != nil {
			return "", fmt.Errorf("submodule %s: %w", path, err)
		}
		fmt.Fprintf(&b, "- [%s](%s)\n", path, url)
	}
	return b.String(), nil
}
