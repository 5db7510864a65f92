package runner

import (
	"sync"

	"github.com/brandonhippe/Advent-of-Code-Runner/internal/lang"
)

// BuildLimiter limits concurrent builds per language, so toolchains that
// lock a shared cache (cargo) are not started twice at once.
// A zero or negative limit means no limiting for that language.
type BuildLimiter struct {
	sems map[string]chan struct{}
	mu   sync.RWMutex
}

// NewBuildLimiter creates a limiter from a map of language name → max concurrent builds.
// Entries with limit <= 0 are ignored (unlimited).
func NewBuildLimiter(limits map[string]int) *BuildLimiter {
	sems := make(map[string]chan struct{})
	for name, limit := range limits {
		if limit > 0 {
			sems[name] = make(chan struct{}, limit)
		}
	}
	return &BuildLimiter{sems: sems}
}

// LimitsFor collects each language's MaxBuilds.
func LimitsFor(langs []*lang.Language) map[string]int {
	limits := make(map[string]int, len(langs))
	for _, l := range langs {
		limits[l.Name] = l.MaxBuilds
	}
	return limits
}

// Acquire blocks until a build slot is available for the language.
// Returns immediately if no limit is configured for the name.
func (bl *BuildLimiter) Acquire(name string) {
	if bl == nil {
		return
	}
	bl.mu.RLock()
	sem, ok := bl.sems[name]
	bl.mu.RUnlock()
	if !ok {
		return
	}
	sem <- struct{}{}
}

// Release frees a slot for the language.
// Must be called after Acquire, once per acquire.
func (bl *BuildLimiter) Release(name string) {
	if bl == nil {
		return
	}
	bl.mu.RLock()
	sem, ok := bl.sems[name]
	bl.mu.RUnlock()
	if !ok {
		return
	}
	<-sem
}
