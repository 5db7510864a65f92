// Package ocr turns ASCII-art answers (letters drawn with '#' or '█') into
// plain strings. Six-row art is decoded with the Advent of Code font; any
// other height is rendered to an image and handed to an Engine.
package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoEngine is returned by the default engine when none is registered.
var ErrNoEngine = errors.New("no OCR engine registered")

// Engine recognizes text in a PNG image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the registered engine (tesseract when its package
// is linked in).
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the engine used by Normalize when none is given.
func SetDefaultEngine(engine Engine) {
	if engine == nil {
		engine = noopEngine{}
	}
	defaultEngine = engine
}

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(context.Context, []byte) (string, error) { return "", ErrNoEngine }

// Normalize returns answer unchanged unless it is multi-line letter art, in
// which case the decoded letters are returned. Art that cannot be decoded
// is returned as-is. A nil engine means DefaultEngine.
func Normalize(ctx context.Context, answer string, engine Engine) string {
	g, ok := ParseGrid(answer)
	if !ok {
		return answer
	}
	if text, ok := g.DecodeFont(); ok {
		return text
	}

	if engine == nil {
		engine = DefaultEngine()
	}
	var b strings.Builder
	for _, letter := range g.Letters() {
		img, err := letter.PNG(upscale)
		if err != nil {
			log.Debug().Err(err).Msg("render letter")
			return answer
		}
		text, err := engine.Recognize(ctx, img)
		if err != nil {
			log.Debug().Str("engine", engine.Name()).Err(err).Msg("ocr failed")
			return answer
		}
		b.WriteString(strings.ToUpper(strings.TrimSpace(text)))
	}
	if b.Len() == 0 {
		return answer
	}
	return b.String()
}
