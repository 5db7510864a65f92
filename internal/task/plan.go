package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/calendar"
	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

// ErrNothingToRun is returned when no requested puzzle has a solution.
var ErrNothingToRun = errors.New("no solutions to run")

// Plan builds the job list: for each language, the requested (year, day)
// pairs that have a solution on disk. With common set, only puzzles solved
// in every language are kept. Repeated years or days are planned once.
func Plan(langs []*lang.Language, root string, years, days []int, common bool) ([]Job, error) {
	years, days = calendar.Unique(years), calendar.Unique(days)
	wantDay := make(map[int]bool, len(days))
	for _, d := range days {
		wantDay[d] = true
	}

	perLang := make(map[string][]calendar.Puzzle, len(langs))
	for _, l := range langs {
		var keep []calendar.Puzzle
		for _, p := range l.Discover(root, years) {
			if wantDay[p.Day] {
				keep = append(keep, p)
			}
		}
		perLang[l.Name] = keep
	}

	if common {
		perLang = intersect(perLang)
	}

	var jobs []Job
	for _, l := range langs {
		for _, p := range perLang[l.Name] {
			jobs = append(jobs, Job{Lang: l.Name, Year: p.Year, Day: p.Day})
		}
	}
	if len(jobs) == 0 {
		return nil, ErrNothingToRun
	}
	return jobs, nil
}

func intersect(perLang map[string][]calendar.Puzzle) map[string][]calendar.Puzzle {
	counts := make(map[calendar.Puzzle]int)
	for _, ps := range perLang {
		for _, p := range ps {
			counts[p]++
		}
	}
	out := make(map[string][]calendar.Puzzle, len(perLang))
	for name, ps := range perLang {
		for _, p := range ps {
			if counts[p] == len(perLang) {
				out[name] = append(out[name], p)
			}
		}
	}
	return out
}

// Group is a set of languages that run exactly the same puzzles.
type Group struct {
	Langs   []string
	Puzzles []calendar.Puzzle
}

// GroupByCoverage groups languages by identical puzzle sets. Groups are
// ordered by their first language name.
func GroupByCoverage(jobs []Job) []Group {
	perLang := make(map[string][]calendar.Puzzle)
	var order []string
	for _, j := range jobs {
		if _, ok := perLang[j.Lang]; !ok {
			order = append(order, j.Lang)
		}
		perLang[j.Lang] = append(perLang[j.Lang], j.Puzzle())
	}
	sort.Strings(order)

	byKey := make(map[string]*Group)
	var groups []*Group
	for _, name := range order {
		ps := perLang[name]
		calendar.SortPuzzles(ps)
		key := puzzleKey(ps)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Puzzles: ps}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Langs = append(g.Langs, name)
	}

	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}

func puzzleKey(ps []calendar.Puzzle) string {
	var b strings.Builder
	for _, p := range ps {
		fmt.Fprintf(&b, "%d.%d,", p.Year, p.Day)
	}
	return b.String()
}

// String renders the group announcement:
//
//	Running c, go for:
//	2023, days 1-5, 7
//	2022, day 3
func (g Group) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Running %s for:\n", strings.Join(g.Langs, ", "))

	days := make(map[int][]int)
	var years []int
	for _, p := range g.Puzzles {
		if _, ok := days[p.Year]; !ok {
			years = append(years, p.Year)
		}
		days[p.Year] = append(days[p.Year], p.Day)
	}
	sort.Ints(years)
	for _, y := range years {
		ds := days[y]
		if len(ds) == 1 {
			fmt.Fprintf(&b, "%d, day %d\n", y, ds[0])
			continue
		}
		fmt.Fprintf(&b, "%d, days %s\n", y, calendar.FormatGroups(calendar.ContiguousGroups(ds)))
	}
	return b.String()
}
