package tesseract

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/ocr"
)

func TestRegisteredAsDefault(t *testing.T) {
	assert.Equal(t, "tesseract", ocr.DefaultEngine().Name())
}

func TestRecognizeLetter(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
	g, ok := ocr.ParseGrid("####\n#...\n#...\n###.\n#...\n#...\n#...\n####")
	require.True(t, ok)
	img, err := g.PNG(16)
	require.NoError(t, err)

	text, err := NewEngine().Recognize(context.Background(), img)
	require.NoError(t, err)
	for _, r := range text {
		assert.True(t, r >= 'A' && r <= 'Z', "non-whitelisted rune %q", r)
	}
}

func TestRecognizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().Recognize(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
