package runner

import (
	"io"
	"strings"
	"sync"
)

// failurePattern maps a stderr pattern to a human-readable reason.
type failurePattern struct {
	pattern string
	reason  string
}

var failurePatterns = []failurePattern{
	{"command not found", "toolchain not installed"},
	{"executable file not found", "toolchain not installed"},
	{"traceback (most recent call last)", "python exception"},
	{"panicked at", "rust panic"},
	{"goroutine 1 [running]", "go panic"},
	{"segmentation fault", "segmentation fault"},
	{"core dumped", "segmentation fault"},
	{"memoryerror", "out of memory"},
	{"stack overflow", "stack overflow"},
	{"recursionerror", "recursion limit"},
}

// diagnoseWriter wraps an io.Writer (stderr) and scans for known failure
// patterns. All data is passed through unchanged.
type diagnoseWriter struct {
	file     io.Writer
	detected bool
	reason   string
	mu       sync.Mutex
}

func newDiagnoseWriter(w io.Writer) *diagnoseWriter {
	return &diagnoseWriter{file: w}
}

func (dw *diagnoseWriter) Write(p []byte) (int, error) {
	n, err := dw.file.Write(p)

	dw.mu.Lock()
	if !dw.detected {
		lower := strings.ToLower(string(p))
		for _, fp := range failurePatterns {
			if strings.Contains(lower, fp.pattern) {
				dw.detected = true
				dw.reason = fp.reason
				break
			}
		}
	}
	dw.mu.Unlock()

	return n, err
}

// Reason returns the failure classification, or "" when none was seen.
func (dw *diagnoseWriter) Reason() string {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.reason
}
