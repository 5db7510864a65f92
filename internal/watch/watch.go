// Package watch re-runs solutions when their source files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

const (
	// DefaultDebounce coalesces the burst of events an editor save produces.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultPoll is the polling interval when fsnotify is unavailable.
	DefaultPoll = time.Second
)

// skipDirs are never descended into: build output and tool caches.
var skipDirs = map[string]bool{
	"target":       true,
	"__pycache__":  true,
	"node_modules": true,
}

// Target is a directory to watch and the files in it that matter.
type Target struct {
	Dir       string
	Recursive bool
	Match     func(path string) bool
}

// SolutionTarget watches the source of one solution: the day file for
// file-per-day languages, or every source file under the day folder.
func SolutionTarget(l *lang.Language, root string, year, day int) Target {
	if l.Folder {
		return Target{
			Dir:       l.ParentDir(root, year, day),
			Recursive: true,
			Match:     func(p string) bool { return l.Ext != "" && filepath.Ext(p) == l.Ext },
		}
	}
	name := strconv.Itoa(day) + l.Ext
	return Target{
		Dir:   l.LangDir(root, year),
		Match: func(p string) bool { return filepath.Base(p) == name },
	}
}

// Config holds watcher settings.
type Config struct {
	Targets  []Target
	Debounce time.Duration
	PollMode bool          // poll modification times instead of fsnotify
	Poll     time.Duration // polling interval
	// OnChange runs after a debounced change, never concurrently with itself.
	OnChange func(ctx context.Context, path string)
}

// Watcher fires OnChange when a matching file changes.
type Watcher struct {
	cfg Config
}

// New validates cfg.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Targets) == 0 {
		return nil, errors.New("nothing to watch")
	}
	if cfg.OnChange == nil {
		return nil, errors.New("change handler is required")
	}
	for _, t := range cfg.Targets {
		info, err := os.Stat(t.Dir)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", t.Dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("watch %s: not a directory", t.Dir)
		}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Poll <= 0 {
		cfg.Poll = DefaultPoll
	}
	return &Watcher{cfg: cfg}, nil
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.PollMode {
		return w.runPoll(ctx)
	}
	return w.runFS(ctx)
}

func (w *Watcher) matches(path string) bool {
	for _, t := range w.cfg.Targets {
		if t.Contains(path) {
			return true
		}
	}
	return false
}

// Contains reports whether a change to path concerns t.
func (t Target) Contains(path string) bool {
	if !within(t.Dir, path, t.Recursive) {
		return false
	}
	return t.Match == nil || t.Match(path)
}

func within(dir, path string, recursive bool) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return recursive || !strings.ContainsRune(rel, filepath.Separator)
}

func (w *Watcher) runFS(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, t := range w.cfg.Targets {
		if err := addDirs(fw, t); err != nil {
			return err
		}
	}
	log.Info().Str("mode", "fsnotify").Int("targets", len(w.cfg.Targets)).Msg("watching for changes")

	trigger := make(chan string, 1)
	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.watchNewDir(fw, event.Name)
			}
			if !w.matches(event.Name) {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change")

			path := event.Name
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.cfg.Debounce, func() {
				select {
				case trigger <- path:
				default:
				}
			})
			mu.Unlock()

		case path := <-trigger:
			w.cfg.OnChange(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// watchNewDir starts watching a directory created inside a recursive target.
func (w *Watcher) watchNewDir(fw *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	for _, t := range w.cfg.Targets {
		if t.Recursive && within(t.Dir, path, true) {
			if err := addDirs(fw, Target{Dir: path, Recursive: true}); err != nil {
				log.Warn().Err(err).Str("dir", path).Msg("watch new directory")
			}
			return
		}
	}
}

func addDirs(fw *fsnotify.Watcher, t Target) error {
	if !t.Recursive {
		if err := fw.Add(t.Dir); err != nil {
			return fmt.Errorf("watch %s: %w", t.Dir, err)
		}
		return nil
	}
	return filepath.WalkDir(t.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != t.Dir && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) runPoll(ctx context.Context) error {
	log.Info().Str("mode", "poll").Dur("interval", w.cfg.Poll).Msg("watching for changes")

	seen := w.snapshot()
	ticker := time.NewTicker(w.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := w.snapshot()
			if changed, ok := diff(seen, now); ok {
				w.cfg.OnChange(ctx, changed)
			}
			seen = now
		}
	}
}

// snapshot records the modification time of every matching file.
func (w *Watcher) snapshot() map[string]time.Time {
	files := make(map[string]time.Time)
	for _, t := range w.cfg.Targets {
		_ = filepath.WalkDir(t.Dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if p != t.Dir && (!t.Recursive || skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if t.Match != nil && !t.Match(p) {
				return nil
			}
			if info, err := d.Info(); err == nil {
				files[p] = info.ModTime()
			}
			return nil
		})
	}
	return files
}

// diff returns a file that was added or modified between two snapshots.
func diff(before, after map[string]time.Time) (string, bool) {
	for p, mt := range after {
		if old, ok := before[p]; !ok || !old.Equal(mt) {
			return p, true
		}
	}
	return "", false
}
