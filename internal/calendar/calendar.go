// Package calendar knows when Advent of Code puzzles unlock.
package calendar

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // puzzles unlock at midnight US Eastern regardless of host tz
)

// FirstYear is the first Advent of Code event.
const FirstYear = 2015

// DaysPerYear is the number of puzzles in one event.
const DaysPerYear = 25

// PartsPerDay is the number of parts in one puzzle.
const PartsPerDay = 2

var eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// Unlock returns the moment the puzzle for year/day becomes available.
func Unlock(year, day int) time.Time {
	return time.Date(year, time.December, day, 0, 0, 0, 0, eastern)
}

// Released returns every year whose first puzzle has unlocked by now.
func Released(now time.Time) []int {
	var years []int
	for y := FirstYear; !Unlock(y, 1).After(now); y++ {
		years = append(years, y)
	}
	return years
}

// ReleasedDays returns the days of year that have unlocked by now.
func ReleasedDays(year int, now time.Time) []int {
	var days []int
	for d := 1; d <= DaysPerYear; d++ {
		if Unlock(year, d).After(now) {
			break
		}
		days = append(days, d)
	}
	return days
}

// AllDays returns 1..25.
func AllDays() []int {
	days := make([]int, DaysPerYear)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

// Puzzle identifies one day of one event.
type Puzzle struct {
	Year int `yaml:"year" json:"year"`
	Day  int `yaml:"day" json:"day"`
}

func (p Puzzle) String() string {
	return fmt.Sprintf("%d day %d", p.Year, p.Day)
}

// Less orders puzzles by year, then day.
func (p Puzzle) Less(o Puzzle) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Day < o.Day
}

// SortPuzzles sorts ps in place by year, then day.
func SortPuzzles(ps []Puzzle) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
}

// IsFreeStar reports whether year/day/part is the free final star (day 25 part 2).
func IsFreeStar(day, part int) bool {
	return day == DaysPerYear && part == PartsPerDay
}

// Unique returns the distinct values of ns in ascending order.
func Unique(ns []int) []int {
	if len(ns) == 0 {
		return nil
	}
	out := slices.Clone(ns)
	slices.Sort(out)
	return slices.Compact(out)
}

// ContiguousGroups collapses ns into sorted [start, end] runs of consecutive values.
// Duplicates are ignored.
func ContiguousGroups(ns []int) [][2]int {
	if len(ns) == 0 {
		return nil
	}
	uniq := make(map[int]struct{}, len(ns))
	for _, n := range ns {
		uniq[n] = struct{}{}
	}
	sorted := make([]int, 0, len(uniq))
	for n := range uniq {
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	groups := [][2]int{{sorted[0], sorted[0]}}
	for _, n := range sorted[1:] {
		last := &groups[len(groups)-1]
		if n-last[1] > 1 {
			groups = append(groups, [2]int{n, n})
			continue
		}
		last[1] = n
	}
	return groups
}

// FormatGroups renders groups as "1-3, 5, 7-8".
func FormatGroups(groups [][2]int) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g[0] == g[1] {
			parts = append(parts, fmt.Sprintf("%d", g[0]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", g[0], g[1]))
		}
	}
	return strings.Join(parts, ", ")
}
