// Package config loads aoc settings from .aoc.yml, .env and AOC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

// EnvPrefix prefixes every environment override (AOC_WORKERS, AOC_COOKIE, ...).
const EnvPrefix = "AOC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 1)
	v.SetDefault("max_runtime", "0s")
	v.SetDefault("inputs_dir", "Inputs")
	v.SetDefault("data_dir", filepath.Join(StateDir, "data"))
	v.SetDefault("submit", false)
	v.SetDefault("table_style", "DEFAULT")
	v.SetDefault("display", "auto")
	v.SetDefault("cookie", "")
	v.SetDefault("readme.attachments", []string{})
	v.SetDefault("readme.template_paths", map[string]string{})
	v.SetDefault("chart.attachments", []string{})
	v.SetDefault("chart.file", "")
	v.SetDefault("http.timeout", web.DefaultTimeout.String())
	v.SetDefault("http.user_agent", web.DefaultUserAgent)
	v.SetDefault("http.base_url", web.DefaultBaseURL)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}

// Load reads settings with this precedence (highest first): AOC_*
// environment variables, the config file at path, AOC_* entries of the
// .env file next to it, built-in defaults. A missing config or .env file
// is not an error.
func Load(path string) (*Settings, error) {
	v := newViper()

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := applyDotEnv(v, envPath); err != nil {
		return nil, err
	}

	if fileExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("config loaded")
	}

	var s Settings
	if err := v.Unmarshal(&s, decoderOption()); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	langs, err := loadLanguages(path)
	if err != nil {
		return nil, err
	}
	s.Languages = langs

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &s, nil
}

// applyDotEnv turns AOC_* entries of a .env file into defaults, so real
// environment variables and the config file still win.
func applyDotEnv(v *viper.Viper, path string) error {
	if !fileExists(path) {
		return nil
	}
	d := viper.New()
	d.SetConfigFile(path)
	d.SetConfigType("env")
	if err := d.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	for _, key := range v.AllKeys() {
		name := strings.ToLower(EnvPrefix + "_" + strings.ReplaceAll(key, ".", "_"))
		if d.IsSet(name) {
			v.SetDefault(key, d.Get(name))
		}
	}
	log.Debug().Str("path", path).Msg("dotenv loaded")
	return nil
}

// loadLanguages decodes the languages section with yaml.v3: viper folds
// map keys to lower case and language env names are case-sensitive.
func loadLanguages(path string) ([]*lang.Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var f struct {
		Languages []*lang.Language `yaml:"languages"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f.Languages, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
