package record

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/ocr"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/web"
)

// Checker looks up and submits answers. *web.Client satisfies it.
type Checker interface {
	Answers(ctx context.Context, year, day int) (map[int]string, error)
	Submit(ctx context.Context, year, day, part int, answer string) (web.Verdict, error)
}

// AnswerOptions configure an AnswerLog.
type AnswerOptions struct {
	Options
	// Account separates the answers of different sessions. Empty is allowed.
	Account string
	// Checker verifies answers whose correct value is unknown. Nil skips verification.
	Checker Checker
	// Submit allows posting unknown answers when the puzzle page has none.
	Submit bool
	// Engine recognizes letter art the built-in font cannot. Nil uses ocr.DefaultEngine.
	Engine ocr.Engine
}

// AnswerLog tracks the answer every language produced for every part and
// whether it matches the accepted answer.
type AnswerLog struct {
	hookSet
	opts AnswerOptions

	mu        sync.Mutex
	answers   map[Key]string
	correct   map[PartKey]string
	incorrect map[Key]bool
	changed   map[Key]string
}

type answersFile struct {
	Answers map[int]map[int]map[int]map[string]string `yaml:"answers"`
	Correct map[int]map[int]map[int]string            `yaml:"correct"`
}

// NewAnswerLog creates an empty answer log.
func NewAnswerLog(opts AnswerOptions) *AnswerLog {
	return &AnswerLog{
		opts:      opts,
		answers:   make(map[Key]string),
		correct:   make(map[PartKey]string),
		incorrect: make(map[Key]bool),
		changed:   make(map[Key]string),
	}
}

// Name implements Logger.
func (a *AnswerLog) Name() string { return "answers" }

// Path is the YAML file backing the log.
func (a *AnswerLog) Path() string {
	account := a.opts.Account
	if account == "" {
		account = "anonymous"
	}
	return filepath.Join(a.opts.Dir, "answers", account+".yml")
}

// Load reads previously saved answers. Loaded answers are compared against
// the known correct answers but never trigger network lookups.
func (a *AnswerLog) Load(ctx context.Context) error {
	if a.opts.NoLoad {
		return nil
	}
	var f answersFile
	found, err := readYAML(a.Path(), &f)
	if err != nil || !found {
		return err
	}

	a.mu.Lock()
	for y, days := range f.Correct {
		for d, parts := range days {
			for p, ans := range parts {
				a.correct[PartKey{y, d, p}] = ans
			}
		}
	}
	var entries []Entry
	for y, days := range f.Answers {
		for d, parts := range days {
			for p, langs := range parts {
				for l, ans := range langs {
					k := Key{Lang: l, Year: y, Day: d, Part: p}
					a.answers[k] = ans
					want, ok := a.correct[PartKey{y, d, p}]
					a.incorrect[k] = ok && want != ans && !calendar.IsFreeStar(d, p)
					entries = append(entries, Entry{Key: k, Value: ans})
				}
			}
		}
	}
	a.mu.Unlock()

	log.Debug().Int("answers", len(entries)).Str("path", a.Path()).Msg("answers loaded")
	return a.fire(ctx, Notice{Hook: HookPostLoad, Event: EventLoad, Source: a, Entries: sortEntries(entries)})
}

// Log records answer for key. Letter art is decoded first. Empty answers
// are ignored. The returned error reports a failed verification; the
// answer is recorded regardless.
func (a *AnswerLog) Log(ctx context.Context, key Key, answer string, ev Event) error {
	answer = ocr.Normalize(ctx, answer, a.opts.Engine)
	if answer == "" {
		return nil
	}

	wrong, err := a.check(ctx, key, answer)

	a.mu.Lock()
	a.answers[key] = answer
	a.incorrect[key] = wrong
	if ev == EventLog {
		a.changed[key] = answer
	}
	a.mu.Unlock()

	if wrong {
		log.Warn().Str("job", key.String()).Msg("incorrect answer")
	}
	herr := a.fire(ctx, Notice{Hook: HookOnLog, Event: ev, Source: a, Entries: []Entry{{Key: key, Value: answer}}})
	return errors.Join(err, herr)
}

// check reports whether answer is known to be wrong, learning the correct
// answer from the puzzle page or a submission when it is not yet known.
func (a *AnswerLog) check(ctx context.Context, key Key, answer string) (bool, error) {
	if calendar.IsFreeStar(key.Day, key.Part) {
		return false, nil
	}
	pk := PartKey{key.Year, key.Day, key.Part}
	if want, ok := a.Correct(pk); ok {
		return want != answer, nil
	}
	if a.opts.Checker == nil {
		return false, nil
	}

	page, err := a.opts.Checker.Answers(ctx, key.Year, key.Day)
	if err != nil {
		return false, fmt.Errorf("verify %s: %w", key, err)
	}
	if want, ok := page[key.Part]; ok {
		a.setCorrect(pk, want)
		return want != answer, nil
	}
	if !a.opts.Submit {
		log.Info().Str("job", key.String()).Msg("answer unverified, submission disabled")
		return false, nil
	}

	v, err := a.opts.Checker.Submit(ctx, key.Year, key.Day, key.Part, answer)
	if err != nil {
		return false, fmt.Errorf("submit %s: %w", key, err)
	}
	log.Info().Str("job", key.String()).Str("verdict", v.String()).Msg("answer submitted")
	switch {
	case v.Accepted():
		a.setCorrect(pk, answer)
		return false, nil
	case v == web.VerdictIncorrect:
		return true, nil
	}
	return false, nil
}

func (a *AnswerLog) setCorrect(pk PartKey, ans string) {
	a.mu.Lock()
	a.correct[pk] = ans
	a.mu.Unlock()
}

// Close prints the answers changed this run, fires the exit hooks and
// saves the log.
func (a *AnswerLog) Close(ctx context.Context) error {
	var errs []error
	errs = append(errs, a.fire(ctx, Notice{Hook: HookPreExit, Source: a}))
	printChanged(a, a.opts.Options)
	errs = append(errs, a.fire(ctx, Notice{Hook: HookOnExit, Event: EventLog, Source: a, Entries: a.Entries()}))
	if !a.opts.NoSave {
		errs = append(errs, a.save())
	}
	errs = append(errs, a.fire(ctx, Notice{Hook: HookPostExit, Source: a}))
	return errors.Join(errs...)
}

func (a *AnswerLog) save() error {
	a.mu.Lock()
	f := answersFile{
		Answers: make(map[int]map[int]map[int]map[string]string),
		Correct: make(map[int]map[int]map[int]string),
	}
	for k, ans := range a.answers {
		if f.Answers[k.Year] == nil {
			f.Answers[k.Year] = make(map[int]map[int]map[string]string)
		}
		if f.Answers[k.Year][k.Day] == nil {
			f.Answers[k.Year][k.Day] = make(map[int]map[string]string)
		}
		if f.Answers[k.Year][k.Day][k.Part] == nil {
			f.Answers[k.Year][k.Day][k.Part] = make(map[string]string)
		}
		f.Answers[k.Year][k.Day][k.Part][k.Lang] = ans
	}
	for pk, ans := range a.correct {
		if f.Correct[pk.Year] == nil {
			f.Correct[pk.Year] = make(map[int]map[int]string)
		}
		if f.Correct[pk.Year][pk.Day] == nil {
			f.Correct[pk.Year][pk.Day] = make(map[int]string)
		}
		f.Correct[pk.Year][pk.Day][pk.Part] = ans
	}
	a.mu.Unlock()
	return writeYAML(a.Path(), f)
}

// Answer returns the recorded answer for key.
func (a *AnswerLog) Answer(key Key) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ans, ok := a.answers[key]
	return ans, ok
}

// Correct returns the accepted answer for a part, when known.
func (a *AnswerLog) Correct(pk PartKey) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ans, ok := a.correct[pk]
	return ans, ok
}

// Incorrect reports whether the answer recorded for key is known wrong.
func (a *AnswerLog) Incorrect(key Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.incorrect[key]
}

// Changed returns the keys logged during this run.
func (a *AnswerLog) Changed() []Key {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]Key, 0, len(a.changed))
	for k := range a.changed {
		keys = append(keys, k)
	}
	return sortedKeys(keys)
}

// Entries returns every recorded answer in key order.
func (a *AnswerLog) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	entries := make([]Entry, 0, len(a.answers))
	for k, ans := range a.answers {
		entries = append(entries, Entry{Key: k, Value: ans})
	}
	return sortEntries(entries)
}

// Stars counts the parts of year that lang answered correctly. The free
// star of day 25 is not counted.
func (a *AnswerLog) Stars(lang string, year int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for k, ans := range a.answers {
		if k.Lang != lang || k.Year != year || calendar.IsFreeStar(k.Day, k.Part) {
			continue
		}
		if want, ok := a.correct[PartKey{k.Year, k.Day, k.Part}]; ok && want == ans {
			n++
		}
	}
	return n
}

// Tables implements Logger: one table per year plus an "Incorrect" table.
func (a *AnswerLog) Tables(changedOnly bool) []*table.Table {
	a.mu.Lock()
	defer a.mu.Unlock()

	src := a.answers
	if changedOnly {
		src = a.changed
	}
	keys := make([]Key, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}

	years := make(map[int]*table.Table)
	wrong := &table.Table{Name: "Incorrect", Index: []string{"Year", "Day", "Part", "Language"}, Columns: []string{"Answer", "Correct"}}
	for _, k := range sortedKeys(keys) {
		t, ok := years[k.Year]
		if !ok {
			t = yearTable(k.Year)
			years[k.Year] = t
		}
		t.Set(Title(k.Lang), src[k], strconv.Itoa(k.Day), strconv.Itoa(k.Part))
		if a.incorrect[k] {
			wrong.Add(map[string]any{
				"Answer":  src[k],
				"Correct": a.correct[PartKey{k.Year, k.Day, k.Part}],
			}, strconv.Itoa(k.Year), strconv.Itoa(k.Day), strconv.Itoa(k.Part), Title(k.Lang))
		}
	}

	out := make([]*table.Table, 0, len(years)+1)
	for _, t := range years {
		t.SortRows()
		out = append(out, t)
	}
	if !wrong.Empty() {
		out = append(out, wrong)
	}
	return out
}

func sortEntries(entries []Entry) []Entry {
	keys := make([]Key, len(entries))
	byKey := make(map[Key]any, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		byKey[e.Key] = e.Value
	}
	for i, k := range sortedKeys(keys) {
		entries[i] = Entry{Key: k, Value: byKey[k]}
	}
	return entries
}
