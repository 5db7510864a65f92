package runner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

// harnessCache writes embedded harness scripts to disk once per process.
type harnessCache struct {
	dir   string
	mu    sync.Mutex
	paths map[string]string
}

func newHarnessCache(dir string) *harnessCache {
	return &harnessCache{dir: dir, paths: make(map[string]string)}
}

// path returns the absolute path of the named harness, writing it if the
// file is missing or stale.
func (h *harnessCache) path(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.paths[name]; ok {
		return p, nil
	}

	data, err := lang.Harness(name)
	if err != nil {
		return "", err
	}
	p, err := filepath.Abs(filepath.Join(h.dir, name))
	if err != nil {
		return "", err
	}
	if existing, err := os.ReadFile(p); err != nil || !bytes.Equal(existing, data) {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return "", fmt.Errorf("create harness dir: %w", err)
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return "", fmt.Errorf("write harness: %w", err)
		}
	}
	h.paths[name] = p
	return p, nil
}
