package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

// DefaultFile is the project config file name.
const DefaultFile = ".aoc.yml"

// StateDir holds everything aoc writes that is not a solution: logs, run
// output, harness scripts, the build cache and the workspace lock.
const StateDir = ".aoc"

// Settings holds persistent CLI defaults loaded from the config file and
// AOC_* environment variables.
type Settings struct {
	Workers    int           `mapstructure:"workers"`
	MaxRuntime time.Duration `mapstructure:"max_runtime"`
	InputsDir  string        `mapstructure:"inputs_dir"`
	DataDir    string        `mapstructure:"data_dir"`
	Submit     bool          `mapstructure:"submit"`
	TableStyle string        `mapstructure:"table_style"`
	Display    string        `mapstructure:"display"` // auto, full, minimal, off

	// Cookie is the adventofcode.com session, normally from AOC_COOKIE or .env.
	Cookie string `mapstructure:"cookie"`

	// Languages adds language definitions or overrides built-in ones by name.
	Languages []*lang.Language `mapstructure:"languages"`

	Readme ReadmeConfig `mapstructure:"readme"`
	Chart  ChartConfig  `mapstructure:"chart"`
	HTTP   HTTPConfig   `mapstructure:"http"`
}

// ReadmeConfig configures the README viewer.
type ReadmeConfig struct {
	// Attachments are YAML files binding viewer handlers to logger hooks.
	Attachments   []string          `mapstructure:"attachments"`
	TemplatePaths map[string]string `mapstructure:"template_paths"`
}

// ChartConfig configures the runtime chart viewer.
type ChartConfig struct {
	Attachments []string `mapstructure:"attachments"`
	File        string   `mapstructure:"file"`
}

// HTTPConfig tunes the adventofcode.com client.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	BaseURL   string        `mapstructure:"base_url"`
}

// Validate checks settings that would otherwise fail late.
func (s *Settings) Validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.MaxRuntime < 0 {
		return fmt.Errorf("max_runtime must not be negative")
	}
	if s.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if _, err := table.ParseStyle(s.TableStyle); err != nil {
		return fmt.Errorf("table_style: %w", err)
	}
	for _, l := range s.Languages {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Registry returns the built-in languages merged with the configured ones.
func (s *Settings) Registry() (*lang.Registry, error) {
	return lang.DefaultRegistry(s.Languages...)
}

// Resolve makes relative directories absolute against root.
func (s *Settings) Resolve(root string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	s.InputsDir = abs(s.InputsDir)
	s.DataDir = abs(s.DataDir)
	for i, p := range s.Readme.Attachments {
		s.Readme.Attachments[i] = abs(p)
	}
	for i, p := range s.Chart.Attachments {
		s.Chart.Attachments[i] = abs(p)
	}
}
