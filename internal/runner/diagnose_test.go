package runner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnoseWriter(t *testing.T) {
	cases := map[string]string{
		"sh: 1: gcc: not found\nsh: cargo: command not found": "toolchain not installed",
		"Traceback (most recent call last):\n  File \"1.py\"":  "python exception",
		"thread 'main' panicked at src/main.rs:4:5":           "rust panic",
		"Segmentation fault (core dumped)":                    "segmentation fault",
		"warning: unused variable":                            "",
	}
	for input, want := range cases {
		var buf bytes.Buffer
		dw := newDiagnoseWriter(&buf)
		n, err := dw.Write([]byte(input))
		assert.NoError(t, err)
		assert.Equal(t, len(input), n)
		assert.Equal(t, input, buf.String(), "data passes through")
		assert.Equal(t, want, dw.Reason(), input)
	}
}

func TestDiagnoseWriter_FirstMatchWins(t *testing.T) {
	dw := newDiagnoseWriter(&bytes.Buffer{})
	_, _ = dw.Write([]byte("thread 'main' panicked at x"))
	_, _ = dw.Write([]byte("Segmentation fault"))
	assert.Equal(t, "rust panic", dw.Reason())
}
