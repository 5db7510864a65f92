// Package web talks to the Advent of Code website: puzzle inputs, the
// answers already accepted for a day, and answer submission.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
)

const (
	DefaultBaseURL   = "https://adventofcode.com"
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "github.com/brandonhippe/Advent-of-Code-Runner"
)

var (
	ErrNoCookie    = errors.New("no AOC_COOKIE set")
	ErrRateLimited = errors.New("answer submitted too recently")
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error: %d for url %s", e.Code, e.URL)
}

// Options configures a Client.
type Options struct {
	Cookie     string
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

// Client is an authenticated Advent of Code session.
type Client struct {
	cookie    string
	base      string
	userAgent string
	http      *http.Client

	mu      sync.Mutex
	answers map[calendar.Puzzle]map[int]string
}

// NewClient returns a client; zero Options fields take the defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		cookie:    strings.TrimSpace(opts.Cookie),
		base:      strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		answers:   make(map[calendar.Puzzle]map[int]string),
	}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

// HasCookie reports whether requests will be authenticated.
func (c *Client) HasCookie() bool { return c.cookie != "" }

// Account is a short stable name for the session, used to keep inputs and
// answers of different accounts apart. The cookie itself never appears.
func (c *Client) Account() string { return Account(c.cookie) }

// Account hashes a session cookie into a directory-safe name. Empty
// cookies map to "".
func Account(cookie string) string {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cookie))
	return hex.EncodeToString(sum[:])[:12]
}

// Input downloads the puzzle input for year/day.
func (c *Client) Input(ctx context.Context, year, day int) (string, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%d/day/%d/input", year, day), nil)
	if err != nil {
		return "", fmt.Errorf("get input %d day %d: %w", year, day, err)
	}
	return body, nil
}

// Answers returns the accepted answers shown on the puzzle page, by part.
// Pages are cached for the life of the client.
func (c *Client) Answers(ctx context.Context, year, day int) (map[int]string, error) {
	key := calendar.Puzzle{Year: year, Day: day}
	c.mu.Lock()
	cached, ok := c.answers[key]
	c.mu.Unlock()
	if ok {
		return copyAnswers(cached), nil
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/%d/day/%d", year, day), nil)
	if err != nil {
		return nil, fmt.Errorf("get answers %d day %d: %w", year, day, err)
	}
	answers, err := ParseAnswers(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse answers %d day %d: %w", year, day, err)
	}

	c.mu.Lock()
	c.answers[key] = answers
	c.mu.Unlock()
	return copyAnswers(answers), nil
}

// Forget drops the cached answers page for year/day.
func (c *Client) Forget(year, day int) {
	c.mu.Lock()
	delete(c.answers, calendar.Puzzle{Year: year, Day: day})
	c.mu.Unlock()
}

// Submit posts an answer for one part.
func (c *Client) Submit(ctx context.Context, year, day, part int, answer string) (Verdict, error) {
	form := url.Values{}
	form.Set("level", strconv.Itoa(part))
	form.Set("answer", answer)

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/%d/day/%d/answer", year, day), form)
	if err != nil {
		return VerdictUnknown, fmt.Errorf("submit %d day %d part %d: %w", year, day, part, err)
	}
	text, err := ArticleText(strings.NewReader(body))
	if err != nil {
		return VerdictUnknown, fmt.Errorf("parse submit response: %w", err)
	}

	v := ParseVerdict(text)
	log.Debug().Int("year", year).Int("day", day).Int("part", part).Str("verdict", v.String()).Msg("answer submitted")
	switch v {
	case VerdictRateLimited:
		return v, &RateLimitError{Wait: ParseWait(text)}
	case VerdictCorrect, VerdictAlreadySolved:
		c.Forget(year, day)
	}
	return v, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (string, error) {
	if c.cookie == "" {
		return "", ErrNoCookie
	}
	u := c.base + path

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return "", err
	}
	req.AddCookie(&http.Cookie{Name: "session", Value: c.cookie})
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	log.Debug().Str("method", method).Str("url", u).Msg("aoc request")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, URL: u}
	}
	return string(data), nil
}

func copyAnswers(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
