package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/history"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/ocr"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/record"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/task"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/viewer"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

// sessionOptions select the data logs and viewers of one invocation.
type sessionOptions struct {
	answers       bool
	runtimes      bool
	noLoad        bool
	noSave        bool
	answersStyle  string
	runtimesStyle string
	submit        bool

	readme            bool
	readmeAttachments []string
	chart             bool
	chartAttachments  []string

	// history records every part run in the SQLite store.
	history bool
}

// session owns the answer and runtime logs, their viewers and the run
// history for one command. Record is safe for concurrent use.
type session struct {
	runID    string
	answers  *record.AnswerLog
	runtimes *record.RuntimeLog
	history  *history.Store

	mu        sync.Mutex
	rateLimit *web.RateLimitError
}

// openSession creates the requested logs, attaches viewers and loads saved
// data. The README viewer needs both logs and the chart the runtimes, so
// enabling a viewer enables what it reads.
func openSession(ctx context.Context, a *app, opts sessionOptions, client *web.Client, out io.Writer) (*session, error) {
	s := &session{runID: uuid.NewString()}
	set := a.settings

	if opts.readme {
		opts.answers, opts.runtimes = true, true
	}
	if opts.chart {
		opts.runtimes = true
	}

	logs := make(map[string]record.Logger)
	if opts.answers {
		style, err := table.ParseStyle(opts.answersStyle)
		if err != nil {
			return nil, fmt.Errorf("answers table style: %w", err)
		}
		s.answers = record.NewAnswerLog(record.AnswerOptions{
			Options: record.Options{Dir: set.DataDir, NoLoad: opts.noLoad, NoSave: opts.noSave, Style: style, Out: out},
			Account: client.Account(),
			Checker: checkerFor(client),
			Submit:  opts.submit,
			Engine:  ocr.DefaultEngine(),
		})
		logs[s.answers.Name()] = s.answers
	}
	if opts.runtimes {
		style, err := table.ParseStyle(opts.runtimesStyle)
		if err != nil {
			return nil, fmt.Errorf("runtimes table style: %w", err)
		}
		s.runtimes = record.NewRuntimeLog(record.Options{Dir: set.DataDir, NoLoad: opts.noLoad, NoSave: opts.noSave, Style: style, Out: out})
		logs[s.runtimes.Name()] = s.runtimes
	}

	if opts.readme {
		readme := viewer.NewReadme(a.root, s.runtimes)
		if len(set.Readme.TemplatePaths) > 0 {
			if err := readme.SetTemplatePaths(set.Readme.TemplatePaths); err != nil {
				return nil, err
			}
		}
		attachments := opts.readmeAttachments
		if len(attachments) == 0 {
			attachments = set.Readme.Attachments
		}
		if err := viewer.Attach(readme, attachments, logs); err != nil {
			return nil, err
		}
	}
	if opts.chart {
		chart := viewer.NewChart(set.DataDir)
		chart.SetFile(set.Chart.File)
		attachments := opts.chartAttachments
		if len(attachments) == 0 {
			attachments = set.Chart.Attachments
		}
		if err := viewer.Attach(chart, attachments, logs); err != nil {
			return nil, err
		}
	}

	if opts.history {
		store, err := history.Open(set.DataDir)
		if err != nil {
			return nil, err
		}
		s.history = store
	}

	for _, l := range s.loggers() {
		if err := l.Load(ctx); err != nil {
			s.closeHistory()
			return nil, fmt.Errorf("load %s: %w", l.Name(), err)
		}
	}
	return s, nil
}

// checkerFor keeps answer verification offline without a session cookie.
func checkerFor(client *web.Client) record.Checker {
	if client == nil || !client.HasCookie() {
		return nil
	}
	return client
}

func (s *session) loggers() []record.Logger {
	var out []record.Logger
	if s.answers != nil {
		out = append(out, s.answers)
	}
	if s.runtimes != nil {
		out = append(out, s.runtimes)
	}
	return out
}

// Record logs every part of a completed result.
func (s *session) Record(ctx context.Context, res *task.Result) {
	if res.State != task.StateCompleted {
		return
	}
	var entries []history.Entry
	for _, p := range res.Parts {
		key := record.Key{Lang: res.Job.Lang, Year: res.Job.Year, Day: res.Job.Day, Part: p.Number}
		if s.answers != nil {
			if err := s.answers.Log(ctx, key, p.Answer, record.EventLog); err != nil {
				s.noteError(key, err)
			}
		}
		if s.runtimes != nil {
			if err := s.runtimes.Log(ctx, key, p.Seconds, record.EventLog); err != nil {
				s.noteError(key, err)
			}
		}
		entries = append(entries, history.Entry{
			RunID:   s.runID,
			RanAt:   res.EndedAt,
			Lang:    key.Lang,
			Year:    key.Year,
			Day:     key.Day,
			Part:    key.Part,
			Answer:  p.Answer,
			Seconds: p.Seconds,
		})
	}
	if s.history != nil && len(entries) > 0 {
		if err := s.history.Record(ctx, entries...); err != nil {
			log.Warn().Err(err).Str("job", res.Job.ID()).Msg("history not recorded")
		}
	}
}

func (s *session) noteError(key record.Key, err error) {
	log.Warn().Err(err).Str("job", key.String()).Msg("record failed")
	var rl *web.RateLimitError
	if errors.As(err, &rl) {
		s.mu.Lock()
		if s.rateLimit == nil || rl.Wait > s.rateLimit.Wait {
			s.rateLimit = rl
		}
		s.mu.Unlock()
	}
}

// RateLimit returns the longest rate limit hit while submitting, if any.
func (s *session) RateLimit() *web.RateLimitError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimit
}

// Close runs the exit lifecycle of every log, answers first.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	for _, l := range s.loggers() {
		if err := l.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", l.Name(), err))
		}
	}
	errs = append(errs, s.closeHistory())
	return errors.Join(errs...)
}

func (s *session) closeHistory() error {
	if s.history == nil {
		return nil
	}
	err := s.history.Close()
	s.history = nil
	return err
}
