package ocr

import "strings"

const fontHeight = 6

// glyphs is the Advent of Code six-row letter font, keyed by Grid.String()
// of each letter with blank columns removed.
var glyphs = buildGlyphs(map[rune][]string{
	'A': {".##.", "#..#", "#..#", "####", "#..#", "#..#"},
	'B': {"###.", "#..#", "###.", "#..#", "#..#", "###."},
	'C': {".##.", "#..#", "#...", "#...", "#..#", ".##."},
	'E': {"####", "#...", "###.", "#...", "#...", "####"},
	'F': {"####", "#...", "###.", "#...", "#...", "#..."},
	'G': {".##.", "#..#", "#...", "#.##", "#..#", ".###"},
	'H': {"#..#", "#..#", "####", "#..#", "#..#", "#..#"},
	'I': {"###", ".#.", ".#.", ".#.", ".#.", "###"},
	'J': {"..##", "...#", "...#", "...#", "#..#", ".##."},
	'K': {"#..#", "#.#.", "##..", "#.#.", "#.#.", "#..#"},
	'L': {"#...", "#...", "#...", "#...", "#...", "####"},
	'O': {".##.", "#..#", "#..#", "#..#", "#..#", ".##."},
	'P': {"###.", "#..#", "#..#", "###.", "#...", "#..."},
	'R': {"###.", "#..#", "#..#", "###.", "#.#.", "#..#"},
	'S': {".###", "#...", "#...", ".##.", "...#", "###."},
	'U': {"#..#", "#..#", "#..#", "#..#", "#..#", ".##."},
	'Y': {"#...#", "#...#", ".#.#.", "..#..", "..#..", "..#.."},
	'Z': {"####", "...#", "..#.", ".#..", "#...", "####"},
})

func buildGlyphs(font map[rune][]string) map[string]rune {
	out := make(map[string]rune, len(font))
	for r, rows := range font {
		g, ok := ParseGrid(strings.Join(rows, "\n"))
		if !ok || len(g) != fontHeight {
			panic("ocr: bad glyph " + string(r))
		}
		out[g.String()] = r
	}
	return out
}
