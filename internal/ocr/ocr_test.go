package ocr

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "HI" as a solution would print it, with a trailing blank column.
const artHI = `
█  █ ███ 
█  █  █  
████  █  
█  █  █  
█  █  █  
█  █ ███ 
`

type fakeEngine struct {
	calls int
	text  string
	err   error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, img []byte) (string, error) {
	f.calls++
	if _, err := png.Decode(bytes.NewReader(img)); err != nil {
		return "", err
	}
	return f.text, f.err
}

func TestNormalize_PassThrough(t *testing.T) {
	for _, s := range []string{"12345", "", "abc def", "12\n34"} {
		assert.Equal(t, s, Normalize(context.Background(), s, &fakeEngine{}))
	}
}

func TestNormalize_Font(t *testing.T) {
	eng := &fakeEngine{}
	assert.Equal(t, "HI", Normalize(context.Background(), artHI, eng))
	assert.Zero(t, eng.calls)
}

func TestNormalize_HashArt(t *testing.T) {
	art := strings.Join([]string{
		"#..#.####.#....###..",
		"#..#.#....#....#..#.",
		"####.###..#....#..#.",
		"#..#.#....#....###..",
		"#..#.#....#....#.#..",
		"#..#.####.####.#..#.",
	}, "\n")
	assert.Equal(t, "HELR", Normalize(context.Background(), art, nil))
}

func TestNormalize_EngineFallback(t *testing.T) {
	// seven rows: not the six-row font
	art := "#\n#\n#\n#\n#\n#\n#\n"
	eng := &fakeEngine{text: "l\n"}
	assert.Equal(t, "L", Normalize(context.Background(), art, eng))
	assert.Equal(t, 1, eng.calls)
}

func TestNormalize_EngineErrorKeepsArt(t *testing.T) {
	art := "#\n#\n#\n#\n#\n#\n#\n"
	assert.Equal(t, art, Normalize(context.Background(), art, &fakeEngine{err: errors.New("boom")}))
}

func TestNormalize_NoEngineKeepsArt(t *testing.T) {
	orig := DefaultEngine()
	t.Cleanup(func() { SetDefaultEngine(orig) })
	SetDefaultEngine(nil)

	art := "##\n#.\n##\n#.\n##\n#.\n##\n"
	assert.Equal(t, art, Normalize(context.Background(), art, nil))
}

func TestParseGrid_Trims(t *testing.T) {
	g, ok := ParseGrid("\n.....\n..#..\n..##.\n.....\n")
	require.True(t, ok)
	assert.Equal(t, "#.\n##", g.String())

	_, ok = ParseGrid("...\n...")
	assert.False(t, ok, "no lit cells")
}

func TestLetters(t *testing.T) {
	g, ok := ParseGrid("#.#\n#.#")
	require.True(t, ok)
	letters := g.Letters()
	require.Len(t, letters, 2)
	assert.Equal(t, "#\n#", letters[0].String())
}

func TestPNGScaledAndBinary(t *testing.T) {
	g, ok := ParseGrid("#.\n.#")
	require.True(t, ok)
	data, err := g.PNG(4)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestGlyphsDistinct(t *testing.T) {
	assert.Len(t, glyphs, 18)
}
