package ssautil

import (
	"sync"

	"golang.org/x/tools/go/ssa"
)

// entry holds one function's memoized artifact plus the sync.Once that
// guards its first computation, so two goroutines racing to rewrite the
// same function block on one computation instead of duplicating it.
type entry struct {
	once  sync.Once
	value any
	err   error
}

// FunctionPlanCache memoizes an expensive per-function artifact (a
// rewrite plan, a classification result, anything keyed by *ssa.Function)
// across a concurrent fan-out over a whole program's functions. It
// replaces the source's single whole-package, single-artifact
// PackageAnalysisCache with a keyed, per-function cache, the shape the
// rewriter's bounded-concurrency model (many functions, one cache) needs
// instead of the analyzer's (one package, one call graph).
type FunctionPlanCache struct {
	mu      sync.Mutex
	entries map[*ssa.Function]*entry
}

// NewFunctionPlanCache returns an empty cache ready for concurrent use.
func NewFunctionPlanCache() *FunctionPlanCache {
	return &FunctionPlanCache{entries: make(map[*ssa.Function]*entry)}
}

// GetOrCompute returns the memoized artifact for fn, computing it with
// build exactly once even if called concurrently for the same fn from
// multiple goroutines. A build error is cached too, so a permanently
// failing function does not get retried on every lookup.
func (c *FunctionPlanCache) GetOrCompute(fn *ssa.Function, build func() (any, error)) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[fn]
	if !ok {
		e = &entry{}
		c.entries[fn] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.value, e.err = build()
	})
	return e.value, e.err
}

// Len reports how many functions currently have a memoized entry,
// computed or not.
func (c *FunctionPlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
