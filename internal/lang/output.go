package lang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Part is one answered part of a solution run.
type Part struct {
	Number  int     `json:"part"`
	Answer  string  `json:"answer"`
	Seconds float64 `json:"seconds"`
}

var decimalRe = regexp.MustCompile(`\d+\.\d+`)

var unitScale = map[string]float64{
	"":        1,
	"s":       1,
	"seconds": 1,
	"ms":      1e-3,
	"µs":      1e-6,
	"Âµs":     1e-6, // µ read back as latin-1
	"us":      1e-6,
	"ns":      1e-9,
}

// ParseOutput extracts answers and timings from a solution's stdout.
//
// Output starts at the "Part 1:" line. Each "Part N:" line opens a part,
// "Label: value" sets its answer, and a decimal number followed by a time
// unit closes it. Lines with neither a colon nor a number extend a
// multi-line answer.
func ParseOutput(stdout string) ([]Part, error) {
	lines := strings.Split(strings.ReplaceAll(stdout, "\r\n", "\n"), "\n")
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "Part 1:" {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("could not find output start (\"Part 1:\")")
	}

	var (
		answers  []string
		times    []float64
		inAnswer bool
	)
	addTime := func(line string) error {
		loc := decimalRe.FindStringIndex(line)
		if loc == nil {
			return fmt.Errorf("no time in %q", line)
		}
		v, err := strconv.ParseFloat(line[loc[0]:loc[1]], 64)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", line, err)
		}
		unit := strings.TrimSpace(line[loc[1]:])
		scale, ok := unitScale[unit]
		if !ok {
			return fmt.Errorf("unknown time unit %q", unit)
		}
		times = append(times, v*scale)
		inAnswer = false
		return nil
	}

	for _, raw := range lines[start:] {
		line := strings.TrimRight(raw, " \t")
		switch {
		case strings.HasPrefix(line, "Part"):
			answers = append(answers, "")
			inAnswer = true
		case strings.Contains(line, ":"):
			label, value, _ := strings.Cut(line, ":")
			switch strings.ToLower(strings.TrimSpace(label)) {
			case "time", "elapsed":
				if err := addTime(value); err != nil {
					return nil, err
				}
			default:
				if len(answers) == 0 {
					answers = append(answers, "")
				}
				answers[len(answers)-1] = strings.TrimSpace(value)
				inAnswer = true
			}
		case decimalRe.MatchString(line):
			if err := addTime(line); err != nil {
				return nil, err
			}
		case strings.TrimSpace(line) == "":
		case inAnswer && len(answers) > 0:
			cur := answers[len(answers)-1]
			if cur != "" {
				cur += "\n"
			}
			answers[len(answers)-1] = cur + line
		}
	}

	parts := make([]Part, len(times))
	for i, t := range times {
		parts[i] = Part{Number: i + 1, Seconds: t}
		if i < len(answers) {
			parts[i].Answer = answers[i]
		}
	}
	return parts, nil
}
