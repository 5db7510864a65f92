package lang

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed harness/*.py
var harnessFS embed.FS

// Harness returns the embedded harness script with the given file name.
func Harness(name string) ([]byte, error) {
	data, err := harnessFS.ReadFile("harness/" + name)
	if err != nil {
		return nil, fmt.Errorf("harness %q: %w", name, err)
	}
	return data, nil
}

// Builtins returns the languages supported out of the box.
func Builtins() []*Language {
	return []*Language{
		{
			Name:       "c",
			Ext:        ".c",
			Build:      "gcc {{.Day}}.c -o {{.Day}}{{.Exe}} -lm",
			Run:        "./{{.Day}}{{.Exe}} {{.Input}}",
			Executable: "{{.Day}}{{.Exe}}",
		},
		{
			Name:       "go",
			Ext:        ".go",
			Folder:     true,
			Source:     "main.go",
			Build:      "go build -o {{.Day}}{{.Exe}} .",
			Run:        "./{{.Day}}{{.Exe}} {{.Input}}",
			Executable: "{{.Day}}{{.Exe}}",
		},
		{
			Name:    "python",
			Ext:     ".py",
			Run:     `python3 "{{.Harness}}" {{.Day}}.py {{.Input}}`,
			Harness: "python.py",
		},
		{
			Name:       "rust",
			Ext:        ".rs",
			Folder:     true,
			Build:      "cargo build --release",
			Run:        "./target/release/rust_{{.Year}}_{{.Day}}{{.Exe}} {{.Input}}",
			Executable: "target/release/rust_{{.Year}}_{{.Day}}{{.Exe}}",
			MaxBuilds:  1,
		},
	}
}

// Registry holds the known languages by name.
type Registry struct {
	langs map[string]*Language
}

// NewRegistry validates langs and indexes them by name. Later entries
// replace earlier ones with the same name.
func NewRegistry(langs ...*Language) (*Registry, error) {
	r := &Registry{langs: make(map[string]*Language, len(langs))}
	for _, l := range langs {
		if err := l.Validate(); err != nil {
			return nil, err
		}
		r.langs[l.Name] = l
	}
	return r, nil
}

// DefaultRegistry returns the builtins merged with custom definitions.
func DefaultRegistry(custom ...*Language) (*Registry, error) {
	return NewRegistry(append(Builtins(), custom...)...)
}

// Get looks up a language, ignoring case.
func (r *Registry) Get(name string) (*Language, bool) {
	l, ok := r.langs[strings.ToLower(name)]
	return l, ok
}

// Names returns the sorted language names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.langs))
	for n := range r.langs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns the languages sorted by name.
func (r *Registry) All() []*Language {
	names := r.Names()
	out := make([]*Language, len(names))
	for i, n := range names {
		out[i] = r.langs[n]
	}
	return out
}

// Select resolves the languages to run: include (all when empty) minus exclude.
func (r *Registry) Select(include, exclude []string) ([]*Language, error) {
	if len(include) == 0 {
		include = r.Names()
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, n := range exclude {
		if _, ok := r.Get(n); !ok {
			return nil, fmt.Errorf("unknown language %q (known: %s)", n, strings.Join(r.Names(), ", "))
		}
		skip[strings.ToLower(n)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(include))
	var out []*Language
	for _, n := range include {
		l, ok := r.Get(n)
		if !ok {
			return nil, fmt.Errorf("unknown language %q (known: %s)", n, strings.Join(r.Names(), ", "))
		}
		if _, excluded := skip[l.Name]; excluded {
			continue
		}
		if _, dup := seen[l.Name]; dup {
			continue
		}
		seen[l.Name] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
