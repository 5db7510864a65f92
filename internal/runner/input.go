package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// inputFlight collapses concurrent downloads of the same input file.
var inputFlight singleflight.Group

// InputSource downloads puzzle inputs.
type InputSource interface {
	Input(ctx context.Context, year, day int) (string, error)
}

// InputPath is <dir>/<account>/<year>_<day>.txt, or <dir>/<year>_<day>.txt
// without an account.
func InputPath(dir, account string, year, day int) string {
	name := fmt.Sprintf("%d_%d.txt", year, day)
	if account == "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join(dir, account, name)
}

// EnsureInput downloads the input to path unless it already exists.
// Concurrent calls for one path share a single download.
func EnsureInput(ctx context.Context, src InputSource, path string, year, day int) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat input: %w", err)
	}
	if src == nil {
		return fmt.Errorf("input %s missing and no way to download it", path)
	}

	_, err, _ := inputFlight.Do(path, func() (any, error) {
		if fileExists(path) {
			return nil, nil
		}
		return nil, downloadInput(ctx, src, path, year, day)
	})
	return err
}

func downloadInput(ctx context.Context, src InputSource, path string, year, day int) error {
	data, err := src.Input(ctx, year, day)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	log.Info().Int("year", year).Int("day", day).Msg("downloaded input")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
