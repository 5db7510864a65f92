// Package lang describes the languages solutions are written in: where their
// files live, how they are built and how they are run.
package lang

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"text/template"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
)

var (
	ErrNoSolution = errors.New("no solution found")
	ErrNoOutput   = errors.New("no output from program")
)

// Language is a solution language definition. Solutions live under
// <root>/<year>/<name>/, either as one file per day (<day><ext>) or, when
// Folder is set, as one directory per day (<day>/).
//
// Build, Run and Executable are text/template strings evaluated with Vars.
type Language struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Ext        string `yaml:"ext" mapstructure:"ext"`
	Folder     bool   `yaml:"folder" mapstructure:"folder"`
	Source     string `yaml:"source,omitempty" mapstructure:"source"` // code file inside a day folder
	Build      string `yaml:"build,omitempty" mapstructure:"build"`
	Run        string `yaml:"run" mapstructure:"run"`
	Executable string `yaml:"executable,omitempty" mapstructure:"executable"`
	Harness    string `yaml:"harness,omitempty" mapstructure:"harness"` // embedded harness script name
	MaxBuilds  int    `yaml:"max_builds,omitempty" mapstructure:"max_builds"`

	// Env is added to the build and run environment. "env:NAME" values are
	// read from the caller's environment.
	Env map[string]string `yaml:"env,omitempty" mapstructure:"env"`
}

// Vars is the data available to command templates.
type Vars struct {
	Year    int
	Day     int
	Input   string // absolute input path
	Exe     string // ".exe" on windows
	Harness string // materialized harness path, if any
}

// NewVars returns template data for year/day.
func NewVars(year, day int, input, harness string) Vars {
	return Vars{Year: year, Day: day, Input: input, Exe: exeSuffix(), Harness: harness}
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// Title returns the display name ("python" → "Python").
func (l *Language) Title() string {
	if l.Name == "" {
		return ""
	}
	return strings.ToUpper(l.Name[:1]) + l.Name[1:]
}

func (l *Language) String() string { return l.Name }

// Validate checks that the definition is usable.
func (l *Language) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("language with empty name")
	}
	if l.Name != strings.ToLower(l.Name) || strings.ContainsAny(l.Name, `/\ `) {
		return fmt.Errorf("language %q: name must be lowercase without separators", l.Name)
	}
	if l.Run == "" {
		return fmt.Errorf("language %q: empty run command", l.Name)
	}
	if l.Ext != "" && !strings.HasPrefix(l.Ext, ".") {
		return fmt.Errorf("language %q: extension %q must start with '.'", l.Name, l.Ext)
	}
	if l.Build != "" && l.Executable == "" {
		return fmt.Errorf("language %q: build command requires an executable path", l.Name)
	}
	for field, tmpl := range map[string]string{"build": l.Build, "run": l.Run, "executable": l.Executable} {
		if tmpl == "" {
			continue
		}
		if _, err := template.New(field).Option("missingkey=error").Parse(tmpl); err != nil {
			return fmt.Errorf("language %q: %s template: %w", l.Name, field, err)
		}
	}
	return nil
}

// LangDir is <root>/<year>/<name>.
func (l *Language) LangDir(root string, year int) string {
	return filepath.Join(root, strconv.Itoa(year), l.Name)
}

// ParentDir is the working directory for building and running a solution.
func (l *Language) ParentDir(root string, year, day int) string {
	if l.Folder {
		return filepath.Join(l.LangDir(root, year), strconv.Itoa(day))
	}
	return l.LangDir(root, year)
}

// CodeFile is the main source file of a solution.
func (l *Language) CodeFile(root string, year, day int) string {
	if l.Folder {
		src := l.Source
		if src == "" {
			src = filepath.Join("src", "main"+l.Ext)
		}
		return filepath.Join(l.ParentDir(root, year, day), src)
	}
	return filepath.Join(l.ParentDir(root, year, day), strconv.Itoa(day)+l.Ext)
}

// Exists reports whether a solution is present for year/day.
func (l *Language) Exists(root string, year, day int) bool {
	p := l.ParentDir(root, year, day)
	if !l.Folder {
		p = l.CodeFile(root, year, day)
	}
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return info.IsDir() == l.Folder
}

// Discover lists the puzzles with a solution in any of years.
func (l *Language) Discover(root string, years []int) []calendar.Puzzle {
	pattern := regexp.MustCompile(`^(\d+)` + regexp.QuoteMeta(l.Ext) + `$`)
	if l.Folder {
		pattern = regexp.MustCompile(`^(\d+)$`)
	}

	var found []calendar.Puzzle
	for _, year := range years {
		entries, err := os.ReadDir(l.LangDir(root, year))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() != l.Folder {
				continue
			}
			m := pattern.FindStringSubmatch(e.Name())
			if m == nil {
				continue
			}
			day, err := strconv.Atoi(m[1])
			if err != nil || day < 1 || day > calendar.DaysPerYear {
				continue
			}
			found = append(found, calendar.Puzzle{Year: year, Day: day})
		}
	}
	calendar.SortPuzzles(found)
	return found
}

// BuildCommand renders the build command; "" when the language is not compiled.
func (l *Language) BuildCommand(v Vars) (string, error) {
	return render(l.Name+" build", l.Build, v)
}

// RunCommand renders the run command.
func (l *Language) RunCommand(v Vars) (string, error) {
	return render(l.Name+" run", l.Run, v)
}

// ExecutablePath renders the build artifact path, relative to ParentDir.
func (l *Language) ExecutablePath(v Vars) (string, error) {
	return render(l.Name+" executable", l.Executable, v)
}

func render(name, tmpl string, v Vars) (string, error) {
	if tmpl == "" {
		return "", nil
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}
