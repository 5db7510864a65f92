// Package logging keeps the Advent of Code session cookie out of log output.
package logging

import (
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// RedactedValue replaces sensitive data.
const RedactedValue = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals
	// cookie headers and .env style assignments
	regexp.MustCompile(`(?i)session\s*[=:]\s*["']?[0-9a-f]{16,}["']?`),
	regexp.MustCompile(`(?i)(aoc_cookie|aoc_session)\s*[=:]\s*["']?[^\s"']+["']?`),
	// bare session tokens are long hex strings
	regexp.MustCompile(`\b[0-9a-fA-F]{96,}\b`),
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_.-]{20,}`),
}

var (
	secretsMu sync.RWMutex
	secrets   []string
)

// AddSecret registers a literal value that must never be logged, such as
// the configured session cookie. Short values are ignored.
func AddSecret(s string) {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return
	}
	secretsMu.Lock()
	defer secretsMu.Unlock()
	for _, x := range secrets {
		if x == s {
			return
		}
	}
	secrets = append(secrets, s)
	// longest first so overlapping secrets redact fully
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
}

// ResetSecrets forgets every registered secret.
func ResetSecrets() {
	secretsMu.Lock()
	secrets = nil
	secretsMu.Unlock()
}

// ContainsSensitiveData reports whether s holds a registered secret or
// anything shaped like a session token.
func ContainsSensitiveData(s string) bool {
	secretsMu.RLock()
	for _, x := range secrets {
		if strings.Contains(s, x) {
			secretsMu.RUnlock()
			return true
		}
	}
	secretsMu.RUnlock()
	for _, p := range sensitivePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Filter redacts sensitive data from s.
func Filter(s string) string {
	secretsMu.RLock()
	for _, x := range secrets {
		s = strings.ReplaceAll(s, x, RedactedValue)
	}
	secretsMu.RUnlock()
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, RedactedValue)
	}
	return s
}

// SensitiveDataHook flags events whose message carries sensitive data. The
// message itself is scrubbed by FilteringWriter on the way out.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates the hook.
func NewSensitiveDataHook() *SensitiveDataHook { return &SensitiveDataHook{} }

// Run implements zerolog.Hook.
func (SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("redacted", true)
	}
}

// FilteringWriter redacts sensitive data from everything written through it.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter wraps w.
func NewFilteringWriter(w io.Writer) *FilteringWriter { return &FilteringWriter{w: w} }

// Write implements io.Writer. It reports len(p) so callers never see a
// short write when redaction changes the length.
func (fw *FilteringWriter) Write(p []byte) (int, error) {
	if _, err := fw.w.Write([]byte(Filter(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteLevel implements zerolog.LevelWriter so filtering can sit in front
// of a MultiLevelWriter.
func (fw *FilteringWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	lw, ok := fw.w.(zerolog.LevelWriter)
	if !ok {
		return fw.Write(p)
	}
	if _, err := lw.WriteLevel(l, []byte(Filter(string(p)))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// FilteringWriteCloser is a FilteringWriter that also closes the wrapped writer.
type FilteringWriteCloser struct {
	*FilteringWriter
	c io.Closer
}

// NewFilteringWriteCloser wraps wc.
func NewFilteringWriteCloser(wc io.WriteCloser) *FilteringWriteCloser {
	return &FilteringWriteCloser{FilteringWriter: NewFilteringWriter(wc), c: wc}
}

// Close closes the wrapped writer.
func (f *FilteringWriteCloser) Close() error { return f.c.Close() }
