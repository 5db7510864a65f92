// Package record keeps the answers and runtimes produced by solution runs,
// persists them as YAML, and notifies attached handlers as data changes.
package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

// Key identifies one part of one puzzle solved in one language.
type Key struct {
	Lang string `json:"lang"`
	Year int    `json:"year"`
	Day  int    `json:"day"`
	Part int    `json:"part"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%02d/%d", k.Lang, k.Year, k.Day, k.Part)
}

// PartKey identifies one part of one puzzle, independent of language.
type PartKey struct {
	Year, Day, Part int
}

// Event says where a logged value came from.
type Event string

const (
	// EventLoad marks values replayed from disk.
	EventLoad Event = "on_load"
	// EventLog marks values produced by this run.
	EventLog Event = "on_log"
)

// Hook names a point in a log's lifecycle that handlers can attach to.
type Hook string

const (
	HookPostLoad Hook = "post_load"
	HookOnLog    Hook = "on_log"
	HookPreExit  Hook = "pre_exit"
	HookOnExit   Hook = "on_exit"
	HookPostExit Hook = "post_exit"
)

// Hooks lists every hook in lifecycle order.
func Hooks() []Hook {
	return []Hook{HookPostLoad, HookOnLog, HookPreExit, HookOnExit, HookPostExit}
}

// ParseHook validates a hook name.
func ParseHook(s string) (Hook, error) {
	for _, h := range Hooks() {
		if string(h) == s {
			return h, nil
		}
	}
	return "", fmt.Errorf("unknown hook %q", s)
}

// Entry is one value handed to a handler. Value is a string for answers
// and float64 seconds for runtimes.
type Entry struct {
	Key   Key
	Value any
}

// Notice is what a handler receives when a hook fires.
type Notice struct {
	Hook    Hook
	Event   Event
	Source  Logger
	Entries []Entry
}

// Handler reacts to a hook.
type Handler func(ctx context.Context, n Notice) error

// Logger is the lifecycle shared by AnswerLog and RuntimeLog.
type Logger interface {
	Name() string
	Attach(hook Hook, name string, fn Handler) error
	Load(ctx context.Context) error
	Close(ctx context.Context) error
	Tables(changedOnly bool) []*table.Table
}

// Options control persistence and reporting for a log.
type Options struct {
	// Dir is the data directory holding the YAML files.
	Dir    string
	NoLoad bool
	NoSave bool
	Style  table.Style
	// Out receives the tables of values changed this run. Nil discards.
	Out io.Writer
}

type namedHandler struct {
	name string
	fn   Handler
}

type hookSet struct {
	mu       sync.Mutex
	handlers map[Hook][]namedHandler
}

// Attach registers fn under name. Attaching the same name twice to one
// hook is a no-op.
func (h *hookSet) Attach(hook Hook, name string, fn Handler) error {
	if _, err := ParseHook(string(hook)); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("handler %q for %s is nil", name, hook)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers == nil {
		h.handlers = make(map[Hook][]namedHandler)
	}
	for _, nh := range h.handlers[hook] {
		if nh.name == name {
			return nil
		}
	}
	h.handlers[hook] = append(h.handlers[hook], namedHandler{name: name, fn: fn})
	return nil
}

func (h *hookSet) fire(ctx context.Context, n Notice) error {
	h.mu.Lock()
	handlers := append([]namedHandler(nil), h.handlers[n.Hook]...)
	h.mu.Unlock()

	var errs []error
	for _, nh := range handlers {
		if err := nh.fn(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %s: %w", n.Hook, nh.name, err))
		}
	}
	return errors.Join(errs...)
}

// readYAML decodes path into v. A missing file leaves v untouched.
func readYAML(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// writeYAML encodes v to path atomically.
func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	log.Debug().Str("path", path).Msg("data saved")
	return nil
}

// printChanged writes the changed-data tables of l to out.
func printChanged(l Logger, opts Options) {
	if opts.Out == nil {
		return
	}
	tables := l.Tables(true)
	if len(tables) == 0 {
		return
	}
	fmt.Fprintf(opts.Out, "\n%s\n\n", table.Render(tables, opts.Style, l.Name()))
}

// Title renders a language name the way tables show it.
func Title(lang string) string {
	if lang == "" {
		return lang
	}
	return strings.ToUpper(lang[:1]) + lang[1:]
}

func sortedKeys(keys []Key) []Key {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Part != b.Part {
			return a.Part < b.Part
		}
		return a.Lang < b.Lang
	})
	return keys
}

func yearTable(year int) *table.Table {
	return &table.Table{Name: fmt.Sprint(year), Index: []string{"Day", "Part"}}
}
