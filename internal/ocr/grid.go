package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

// upscale is the factor letters are scaled by before recognition.
const upscale = 16

// Grid is letter art as rows of lit/unlit cells.
type Grid [][]bool

// ParseGrid reads multi-line art made of lit ('#', '█') and unlit ('.',
// ' ') cells, trimmed to the lit bounding box. ok is false for anything
// else, including single-line answers.
func ParseGrid(s string) (Grid, bool) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" || len(lines) > 0 {
			lines = append(lines, line)
		}
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 2 {
		return nil, false
	}

	width := 0
	rows := make([][]bool, len(lines))
	lit := false
	for i, line := range lines {
		for _, r := range line {
			switch r {
			case '#', '█':
				rows[i] = append(rows[i], true)
				lit = true
			case '.', ' ':
				rows[i] = append(rows[i], false)
			default:
				return nil, false
			}
		}
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}
	if !lit {
		return nil, false
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], false)
		}
	}
	return Grid(rows).trim(), true
}

func (g Grid) width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) colLit(x int) bool {
	for _, row := range g {
		if row[x] {
			return true
		}
	}
	return false
}

func (g Grid) rowLit(y int) bool {
	for _, c := range g[y] {
		if c {
			return true
		}
	}
	return false
}

// trim drops unlit border rows and columns.
func (g Grid) trim() Grid {
	top, bottom := 0, len(g)-1
	for top <= bottom && !g.rowLit(top) {
		top++
	}
	for bottom >= top && !g.rowLit(bottom) {
		bottom--
	}
	if top > bottom {
		return nil
	}
	g = g[top : bottom+1]

	left, right := 0, g.width()-1
	for left <= right && !g.colLit(left) {
		left++
	}
	for right >= left && !g.colLit(right) {
		right--
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = row[left : right+1]
	}
	return out
}

// Letters splits the grid at fully unlit columns.
func (g Grid) Letters() []Grid {
	var letters []Grid
	start := -1
	for x := 0; x <= g.width(); x++ {
		if x < g.width() && g.colLit(x) {
			if start < 0 {
				start = x
			}
			continue
		}
		if start >= 0 {
			letter := make(Grid, len(g))
			for i, row := range g {
				letter[i] = row[start:x]
			}
			letters = append(letters, letter)
			start = -1
		}
	}
	return letters
}

func (g Grid) String() string {
	var b strings.Builder
	for i, row := range g {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}

// DecodeFont decodes six-row art with the built-in font. ok is false when
// the height is wrong or any letter is unknown.
func (g Grid) DecodeFont() (string, bool) {
	if len(g) != fontHeight {
		return "", false
	}
	var b strings.Builder
	for _, letter := range g.Letters() {
		r, ok := glyphs[letter.String()]
		if !ok {
			return "", false
		}
		b.WriteRune(r)
	}
	return b.String(), b.Len() > 0
}

// Image draws the grid black on white with a one cell border.
func (g Grid) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.width()+2, len(g)+2))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	for y, row := range g {
		for x, c := range row {
			if c {
				img.SetGray(x+1, y+1, color.Gray{Y: 0})
			}
		}
	}
	return img
}

// PNG renders the grid scaled by factor with Catmull-Rom interpolation and
// thresholded back to black and white, which is what tesseract reads best.
func (g Grid) PNG(factor int) ([]byte, error) {
	src := g.Image()
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	for i, v := range dst.Pix {
		if v < 150 {
			dst.Pix[i] = 0
		} else {
			dst.Pix[i] = 255
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
