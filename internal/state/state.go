// Package state persists the build cache: which source hash each compiled
// solution was last built from.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status constants for build entries.
const (
	StatusBuilt  = "built"
	StatusFailed = "failed"
)

// BuildEntry is the persistent record of the last build of one solution.
type BuildEntry struct {
	Status  string    `json:"status"`
	Hash    string    `json:"hash"`
	BuiltAt time.Time `json:"built_at"`
	Error   string    `json:"error,omitempty"`
}

type stateFile struct {
	Builds map[string]*BuildEntry `json:"builds"`
}

// Tracker provides persistent build tracking across runs.
// Thread-safe with sync.RWMutex. Writes are atomic (tmp → rename).
type Tracker struct {
	mu     sync.RWMutex
	builds map[string]*BuildEntry
	path   string
}

// DefaultPath returns the default state file path.
func DefaultPath() string {
	return filepath.Join(".aoc", "builds.json")
}

// Load reads the state file from disk. Returns an empty tracker if the file
// does not exist or is corrupt.
func Load(path string) *Tracker {
	t := &Tracker{
		builds: make(map[string]*BuildEntry),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return t
	}
	if sf.Builds != nil {
		t.builds = sf.Builds
	}
	return t
}

// MarkBuilt records a successful build from source hash.
func (t *Tracker) MarkBuilt(key, hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.builds[key] = &BuildEntry{Status: StatusBuilt, Hash: hash, BuiltAt: time.Now()}
	_ = t.saveLocked()
}

// MarkFailed records a failed build.
func (t *Tracker) MarkFailed(key, hash, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.builds[key] = &BuildEntry{Status: StatusFailed, Hash: hash, BuiltAt: time.Now(), Error: errMsg}
	_ = t.saveLocked()
}

// Stale reports whether key needs a rebuild for source hash: no record,
// a failed build, or a different hash.
func (t *Tracker) Stale(key, hash string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.builds[key]
	return !ok || e.Status != StatusBuilt || e.Hash != hash
}

// Get returns a copy of the entry for key, or nil if not tracked.
func (t *Tracker) Get(key string) *BuildEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.builds[key]; ok {
		cpy := *e
		return &cpy
	}
	return nil
}

// Entries returns a copy of every tracked build keyed by job.
func (t *Tracker) Entries() map[string]*BuildEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]*BuildEntry, len(t.builds))
	for k, e := range t.builds {
		cpy := *e
		out[k] = &cpy
	}
	return out
}

// Count returns the number of tracked builds.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.builds)
}

// Reset removes a single entry, forcing a rebuild.
func (t *Tracker) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.builds, key)
	_ = t.saveLocked()
}

// Clear removes all state and deletes the state file.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.builds = make(map[string]*BuildEntry)
	_ = os.Remove(t.path)
}

func (t *Tracker) saveLocked() error {
	sf := stateFile{Builds: t.builds}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, t.path)
}

// HashPath hashes a source file, or every regular file under a directory
// (skipping build output and VCS dirs), into one hex digest.
func HashPath(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "target", ".git", "node_modules", "__pycache__":
				if p != path {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, _ := filepath.Rel(path, p)
		_, _ = io.WriteString(h, filepath.ToSlash(rel)+"\x00")
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = io.Copy(h, f)
		return err
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
