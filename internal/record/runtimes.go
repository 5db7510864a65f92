package record

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/table"
)

// LongestCount is how many entries the longest-runtimes table lists.
const LongestCount = 10

// YearStats aggregates one language's runtimes over one year.
type YearStats struct {
	Days    int     // days with at least one part
	Total   float64 // sum of every part
	Average float64 // Total / Days
	// Complete is set when all days of the year have been solved.
	Complete bool
}

// RuntimeLog tracks how long every part took in every language.
type RuntimeLog struct {
	hookSet
	opts Options

	mu      sync.Mutex
	times   map[Key]float64
	changed map[Key]float64
	minPart map[string]float64
	maxDay  map[string]float64
}

type runtimesFile struct {
	Runtimes map[int]map[int]map[int]map[string]float64 `yaml:"runtimes"`
}

// NewRuntimeLog creates an empty runtime log.
func NewRuntimeLog(opts Options) *RuntimeLog {
	return &RuntimeLog{
		opts:    opts,
		times:   make(map[Key]float64),
		changed: make(map[Key]float64),
		minPart: make(map[string]float64),
		maxDay:  make(map[string]float64),
	}
}

// Name implements Logger.
func (r *RuntimeLog) Name() string { return "runtimes" }

// Path is the YAML file backing the log.
func (r *RuntimeLog) Path() string { return filepath.Join(r.opts.Dir, "runtimes.yml") }

// Load reads previously saved runtimes.
func (r *RuntimeLog) Load(ctx context.Context) error {
	if r.opts.NoLoad {
		return nil
	}
	var f runtimesFile
	found, err := readYAML(r.Path(), &f)
	if err != nil || !found {
		return err
	}

	var entries []Entry
	for y, days := range f.Runtimes {
		for d, parts := range days {
			for p, langs := range parts {
				for l, secs := range langs {
					k := Key{Lang: l, Year: y, Day: d, Part: p}
					r.store(k, secs, EventLoad)
					entries = append(entries, Entry{Key: k, Value: secs})
				}
			}
		}
	}
	log.Debug().Int("runtimes", len(entries)).Str("path", r.Path()).Msg("runtimes loaded")
	return r.fire(ctx, Notice{Hook: HookPostLoad, Event: EventLoad, Source: r, Entries: sortEntries(entries)})
}

// Log records seconds for key and notifies on_log handlers with the part
// time plus the day total once the day is complete.
func (r *RuntimeLog) Log(ctx context.Context, key Key, seconds float64, ev Event) error {
	if key.Lang == "" || key.Year == 0 || key.Day == 0 || key.Part == 0 {
		return fmt.Errorf("runtime for %s: language, year, day and part are required", key)
	}
	if seconds < 0 || math.IsNaN(seconds) {
		return fmt.Errorf("runtime for %s: invalid duration %v", key, seconds)
	}

	entries := []Entry{{Key: key, Value: seconds}}
	if total, ok := r.store(key, seconds, ev); ok {
		dk := key
		dk.Part = 0
		entries = append(entries, Entry{Key: dk, Value: total})
	}
	return r.fire(ctx, Notice{Hook: HookOnLog, Event: ev, Source: r, Entries: entries})
}

func (r *RuntimeLog) store(key Key, seconds float64, ev Event) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times[key] = seconds
	if ev == EventLog {
		r.changed[key] = seconds
	}
	if m, ok := r.minPart[key.Lang]; !ok || seconds < m {
		r.minPart[key.Lang] = seconds
	}
	total, ok := r.dayTotal(r.times, key.Lang, key.Year, key.Day)
	if ok && total > r.maxDay[key.Lang] {
		r.maxDay[key.Lang] = total
	}
	return total, ok
}

// dayTotal sums both parts of a day. Day 25 only needs part 1.
func (r *RuntimeLog) dayTotal(src map[Key]float64, lang string, year, day int) (float64, bool) {
	p1, ok1 := src[Key{Lang: lang, Year: year, Day: day, Part: 1}]
	p2, ok2 := src[Key{Lang: lang, Year: year, Day: day, Part: 2}]
	if !ok1 || (!ok2 && day != calendar.DaysPerYear) {
		return 0, false
	}
	return p1 + p2, true
}

// Runtime returns the recorded seconds for key.
func (r *RuntimeLog) Runtime(key Key) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.times[key]
	return s, ok
}

// DayTotal returns the combined time of a complete day.
func (r *RuntimeLog) DayTotal(lang string, year, day int) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dayTotal(r.times, lang, year, day)
}

// Year aggregates lang's runtimes over year.
func (r *RuntimeLog) Year(lang string, year int) YearStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.yearStats(r.times, lang, year)
}

func (r *RuntimeLog) yearStats(src map[Key]float64, lang string, year int) YearStats {
	var st YearStats
	complete := 0
	days := make(map[int]bool)
	for k, s := range src {
		if k.Lang != lang || k.Year != year {
			continue
		}
		st.Total += s
		days[k.Day] = true
	}
	for d := range days {
		if _, ok := r.dayTotal(src, lang, year, d); ok {
			complete++
		}
	}
	st.Days = len(days)
	if st.Days > 0 {
		st.Average = st.Total / float64(st.Days)
	}
	st.Complete = complete == calendar.DaysPerYear
	return st
}

// Fastest returns lang's shortest part runtime.
func (r *RuntimeLog) Fastest(lang string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.minPart[lang]
	return s, ok
}

// Slowest returns lang's longest complete day.
func (r *RuntimeLog) Slowest(lang string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.maxDay[lang]
	return s, ok
}

// Languages returns every language with a recorded runtime, sorted.
func (r *RuntimeLog) Languages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return languagesOf(r.times)
}

// Years returns every year with a recorded runtime, sorted.
func (r *RuntimeLog) Years() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int]bool)
	var years []int
	for k := range r.times {
		if !seen[k.Year] {
			seen[k.Year] = true
			years = append(years, k.Year)
		}
	}
	sort.Ints(years)
	return years
}

// Longest returns the n slowest days across all languages, slowest first.
// Incomplete days count the parts that exist. Entry keys have Part 0.
func (r *RuntimeLog) Longest(n int) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return longest(r.times, n)
}

func longest(src map[Key]float64, n int) []Entry {
	totals := make(map[Key]float64)
	for k, s := range src {
		dk := k
		dk.Part = 0
		totals[dk] += s
	}
	entries := make([]Entry, 0, len(totals))
	for k, s := range totals {
		entries = append(entries, Entry{Key: k, Value: s})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Value.(float64), entries[j].Value.(float64)
		if a != b {
			return a > b
		}
		return entries[i].Key.String() < entries[j].Key.String()
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Entries returns every part runtime in key order.
func (r *RuntimeLog) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.times))
	for k, s := range r.times {
		entries = append(entries, Entry{Key: k, Value: s})
	}
	return sortEntries(entries)
}

// Changed returns the keys logged during this run.
func (r *RuntimeLog) Changed() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]Key, 0, len(r.changed))
	for k := range r.changed {
		keys = append(keys, k)
	}
	return sortedKeys(keys)
}

// Close prints the runtimes changed this run, fires the exit hooks and
// saves the log.
func (r *RuntimeLog) Close(ctx context.Context) error {
	var errs []error
	errs = append(errs, r.fire(ctx, Notice{Hook: HookPreExit, Source: r}))
	printChanged(r, r.opts)
	errs = append(errs, r.fire(ctx, Notice{Hook: HookOnExit, Event: EventLog, Source: r, Entries: r.Entries()}))
	if !r.opts.NoSave {
		errs = append(errs, r.save())
	}
	errs = append(errs, r.fire(ctx, Notice{Hook: HookPostExit, Source: r}))
	return errors.Join(errs...)
}

func (r *RuntimeLog) save() error {
	r.mu.Lock()
	f := runtimesFile{Runtimes: make(map[int]map[int]map[int]map[string]float64)}
	for k, s := range r.times {
		if f.Runtimes[k.Year] == nil {
			f.Runtimes[k.Year] = make(map[int]map[int]map[string]float64)
		}
		if f.Runtimes[k.Year][k.Day] == nil {
			f.Runtimes[k.Year][k.Day] = make(map[int]map[string]float64)
		}
		if f.Runtimes[k.Year][k.Day][k.Part] == nil {
			f.Runtimes[k.Year][k.Day][k.Part] = make(map[string]float64)
		}
		f.Runtimes[k.Year][k.Day][k.Part][k.Lang] = s
	}
	r.mu.Unlock()
	return writeYAML(r.Path(), f)
}

// Tables implements Logger: one table per year with part times and day
// totals, a per-language summary and the longest days.
func (r *RuntimeLog) Tables(changedOnly bool) []*table.Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := r.times
	if changedOnly {
		src = r.changed
	}
	if len(src) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}

	years := make(map[int]*table.Table)
	for _, k := range sortedKeys(keys) {
		t, ok := years[k.Year]
		if !ok {
			t = yearTable(k.Year)
			years[k.Year] = t
		}
		col := Title(k.Lang)
		day := strconv.Itoa(k.Day)
		t.Set(col, src[k], day, strconv.Itoa(k.Part))
		if total, ok := r.dayTotal(src, k.Lang, k.Year, k.Day); ok {
			t.Set(col, total, day, "Total")
		}
	}

	summary := &table.Table{Name: "Summary", Index: []string{"Language", "Year"}}
	for _, lang := range languagesOf(src) {
		var yrs []int
		seen := make(map[int]bool)
		for k := range src {
			if k.Lang == lang && !seen[k.Year] {
				seen[k.Year] = true
				yrs = append(yrs, k.Year)
			}
		}
		sort.Ints(yrs)
		for _, y := range yrs {
			st := r.yearStats(src, lang, y)
			row := map[string]any{"Days": st.Days, "Average": st.Average}
			if st.Complete {
				row["Total"] = st.Total
			}
			summary.Add(row, Title(lang), strconv.Itoa(y))
		}
	}
	summary.Columns = []string{"Days", "Average", "Total"}

	top := &table.Table{Name: "Longest Runtimes", Index: []string{"Rank"}, Columns: []string{"Language", "Year", "Day", "Time"}}
	for i, e := range longest(src, LongestCount) {
		top.Add(map[string]any{
			"Language": Title(e.Key.Lang),
			"Year":     e.Key.Year,
			"Day":      e.Key.Day,
			"Time":     e.Value,
		}, strconv.Itoa(i+1))
	}

	out := make([]*table.Table, 0, len(years)+2)
	for _, t := range years {
		t.SortRows()
		out = append(out, t)
	}
	return append(out, summary, top)
}

func languagesOf[V any](src map[Key]V) []string {
	seen := make(map[string]bool)
	var langs []string
	for k := range src {
		if !seen[k.Lang] {
			seen[k.Lang] = true
			langs = append(langs, k.Lang)
		}
	}
	sort.Strings(langs)
	return langs
}
