package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/config"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/logging"
)

const (
	logFileName   = "aoc.log"
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// logFileWriter is kept for cleanup on shutdown.
var logFileWriter io.WriteCloser //nolint:gochecknoglobals

var globalLoggerMu sync.Mutex //nolint:gochecknoglobals

// InitLogger configures the global zerolog logger.
//
//   - verbose: debug level
//   - quiet: warn level
//   - default: info level
//
// A TTY gets a console writer, anything else JSON on stderr. Everything is
// also written to <root>/.aoc/logs/aoc.log with rotation; if that file
// cannot be opened, logging continues on the console only.
func InitLogger(root string, verbose, quiet bool) zerolog.Logger {
	console := selectOutput()

	var writer io.Writer = console
	if fw, err := createLogFileWriter(root); err == nil {
		CloseLogFile()
		logFileWriter = fw
		writer = zerolog.MultiLevelWriter(console, fw)
	}

	logger := buildLogger(writer, selectLevel(verbose, quiet))
	setGlobalLogger(logger)
	return logger
}

// InitLoggerWithWriter configures the global logger to write to w only.
// Intended for tests.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	logger := buildLogger(logging.NewFilteringWriter(w), selectLevel(verbose, quiet))
	setGlobalLogger(logger)
	return logger
}

func buildLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).Hook(logging.NewSensitiveDataHook()).With().Timestamp().Logger()
}

func setGlobalLogger(l zerolog.Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	log.Logger = l
}

// CloseLogFile closes the log file writer if one was opened.
func CloseLogFile() {
	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
	}
}

func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func selectOutput() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return logging.NewFilteringWriter(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		})
	}
	return logging.NewFilteringWriter(os.Stderr)
}

// LogFilePath is the rotating log file under root.
func LogFilePath(root string) string {
	return filepath.Join(root, config.StateDir, "logs", logFileName)
}

func createLogFileWriter(root string) (io.WriteCloser, error) {
	path := LogFilePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return logging.NewFilteringWriteCloser(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}), nil
}
