package web

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var answerPattern = regexp.MustCompile(`Your puzzle answer was (.+)\.`)

// ParseAnswers extracts "Your puzzle answer was X." paragraphs from a day
// page, numbered from part 1 in document order.
func ParseAnswers(r io.Reader) (map[int]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	answers := make(map[int]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if m := answerPattern.FindStringSubmatch(nodeText(n)); m != nil {
				answers[len(answers)+1] = m[1]
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return answers, nil
}

// ArticleText returns the text of the page's <article> elements, or of the
// whole body when there are none.
func ArticleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "article" {
			parts = append(parts, nodeText(n))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	if len(parts) == 0 {
		return nodeText(doc), nil
	}
	return strings.Join(parts, "\n"), nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// Verdict is the site's response to a submitted answer.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictCorrect
	VerdictAlreadySolved
	VerdictIncorrect
	VerdictRateLimited
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictAlreadySolved:
		return "already solved"
	case VerdictIncorrect:
		return "incorrect"
	case VerdictRateLimited:
		return "rate limited"
	default:
		return "unknown"
	}
}

// Accepted reports whether the submitted answer can be stored as correct.
func (v Verdict) Accepted() bool {
	return v == VerdictCorrect || v == VerdictAlreadySolved
}

// ParseVerdict classifies the text of a submission response.
func ParseVerdict(text string) Verdict {
	switch {
	case strings.Contains(text, "That's the right answer"):
		return VerdictCorrect
	case strings.Contains(text, "You don't seem to be solving the right level"):
		return VerdictAlreadySolved
	case strings.Contains(text, "You gave an answer too recently"):
		return VerdictRateLimited
	case strings.Contains(text, "That's not the right answer"):
		return VerdictIncorrect
	default:
		return VerdictUnknown
	}
}

var waitPattern = regexp.MustCompile(`You have (?:(\d+)m )?(\d+)s left to wait`)

// ParseWait reads "You have 1m 30s left to wait" from a rate-limit
// response. Returns zero when absent.
func ParseWait(text string) time.Duration {
	m := waitPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	var d time.Duration
	if m[1] != "" {
		mins, _ := strconv.Atoi(m[1])
		d += time.Duration(mins) * time.Minute
	}
	secs, _ := strconv.Atoi(m[2])
	return d + time.Duration(secs)*time.Second
}

// RateLimitError indicates the site refused a submission until Wait passes.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("rate limited: retry in %s", e.Wait)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
