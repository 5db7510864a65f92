// Package viewer turns recorded answers and runtimes into files: README
// pages and runtime charts. Viewers are wired to record hooks through YAML
// attachment files.
package viewer

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
)

//go:embed attachments/*.yml templates/*.md
var assets embed.FS

// Viewer exposes named handlers that attachment files bind to log hooks.
type Viewer interface {
	Name() string
	Handlers() map[string]record.Handler
	// Configure applies the non-logger keys of an attachment file. Unknown
	// keys are errors.
	Configure(options []byte) error
}

// Attachments is a parsed attachment file: for each log, the handlers to
// bind per hook, plus viewer options.
type Attachments struct {
	Hooks   map[string]map[record.Hook][]string
	Options []byte
}

// ParseAttachments splits data into hook bindings for the known log names
// and the remaining viewer options.
func ParseAttachments(data []byte, logNames []string) (*Attachments, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse attachments: %w", err)
	}

	known := make(map[string]bool, len(logNames))
	for _, n := range logNames {
		known[n] = true
	}

	att := &Attachments{Hooks: make(map[string]map[record.Hook][]string)}
	opts := make(map[string]yaml.Node)
	for key, node := range raw {
		if !known[key] {
			opts[key] = node
			continue
		}
		var byHook map[string][]string
		if err := node.Decode(&byHook); err != nil {
			return nil, fmt.Errorf("attachments for %s: %w", key, err)
		}
		hooks := make(map[record.Hook][]string, len(byHook))
		for h, names := range byHook {
			hook, err := record.ParseHook(h)
			if err != nil {
				return nil, fmt.Errorf("attachments for %s: %w", key, err)
			}
			hooks[hook] = names
		}
		att.Hooks[key] = hooks
	}
	if len(opts) > 0 {
		b, err := yaml.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("attachment options: %w", err)
		}
		att.Options = b
	}
	return att, nil
}

// DefaultAttachments returns the built-in attachment file for a viewer.
func DefaultAttachments(viewer string) ([]byte, error) {
	return assets.ReadFile("attachments/" + viewer + ".yml")
}

// Attach binds v's handlers to logs as described by the attachment files
// at paths (the built-in file when paths is empty). Logs not in the map are
// not running and are skipped.
func Attach(v Viewer, paths []string, logs map[string]record.Logger) error {
	var files [][]byte
	if len(paths) == 0 {
		data, err := DefaultAttachments(v.Name())
		if err != nil {
			return fmt.Errorf("%s viewer: %w", v.Name(), err)
		}
		files = append(files, data)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("%s viewer attachments: %w", v.Name(), err)
		}
		files = append(files, data)
	}

	names := make([]string, 0, len(logs))
	for n := range logs {
		names = append(names, n)
	}
	names = append(names, "answers", "runtimes")

	handlers := v.Handlers()
	for _, data := range files {
		att, err := ParseAttachments(data, names)
		if err != nil {
			return fmt.Errorf("%s viewer: %w", v.Name(), err)
		}
		for _, logName := range sortedKeys(att.Hooks) {
			l, ok := logs[logName]
			if !ok || l == nil {
				log.Debug().Str("viewer", v.Name()).Str("log", logName).Msg("log not running, skipping attachment")
				continue
			}
			for hook, hnames := range att.Hooks[logName] {
				for _, hn := range hnames {
					fn, ok := handlers[hn]
					if !ok {
						return fmt.Errorf("%s viewer has no handler %q", v.Name(), hn)
					}
					if err := l.Attach(hook, v.Name()+"."+hn, fn); err != nil {
						return err
					}
				}
			}
		}
		if len(att.Options) > 0 {
			if err := v.Configure(att.Options); err != nil {
				return fmt.Errorf("%s viewer: %w", v.Name(), err)
			}
		}
	}
	return nil
}

// decodeStrict decodes YAML options into v, rejecting unknown keys.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
