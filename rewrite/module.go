package rewrite

import (
	"context"
	"fmt"
	"go/types"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/tools/go/ssa"

	"github.com/fslice-go/fslice/internal/ssautil"
)

// maxConcurrentFunctions bounds how many functions are rewritten at once
// (spec §5's concurrency model: bounded fan-out over a whole program's
// functions, no unbounded goroutine-per-function spawn).
const maxConcurrentFunctions = 32

// Result is one function's completed rewrite, or the error that stopped
// it.
type Result struct {
	Plan *Plan
	Err  error
}

// Module orchestrates rewriting every eligible function of a loaded
// ssa.Program (spec §5). Symbol renaming must be resolved before any
// function body is rewritten — NewModule enforces that ordering by
// resolving the override table once, up front, and BuildModule hands the
// same immutable map to every concurrent instrumenter.
type Module struct {
	Program *ssa.Program
	Sizes   sizer
	Symbols map[string]string

	plans *ssautil.FunctionPlanCache
}

// NewModule constructs a Module ready to rewrite prog. symbolOverrides
// may be nil; it is merged over KnownSymbols via SymbolOverrides.
func NewModule(prog *ssa.Program, sizes sizer, symbolOverrides map[string]string) *Module {
	if sizes == nil {
		sizes = &types.StdSizes{WordSize: 8, MaxAlign: 8}
	}
	return &Module{
		Program: prog,
		Sizes:   sizes,
		Symbols: SymbolOverrides(symbolOverrides),
		plans:   ssautil.NewFunctionPlanCache(),
	}
}

// BuildModule rewrites every function in fns concurrently, bounded by
// maxConcurrentFunctions, and returns one Result per input function in
// the same order. A single function's *rewrite.IRError does not abort
// the others — spec §7's error-handling model treats each function's
// rewrite as an independent unit of failure.
func (m *Module) BuildModule(ctx context.Context, fns []*ssa.Function) ([]Result, error) {
	results := make([]Result, len(fns))
	sem := semaphore.NewWeighted(maxConcurrentFunctions)
	g, gctx := errgroup.WithContext(ctx)
	cg := newCallGraph(m.Program)

	for idx, fn := range fns {
		idx, fn := idx, fn
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			plan, err := m.rewriteFunction(fn, cg)
			if err != nil {
				results[idx] = Result{Err: &IRError{Func: fn, Cause: err}}
				return nil
			}
			results[idx] = Result{Plan: plan}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// rewriteFunction runs the labeling pass followed by instrumentation for
// a single function (spec §4.1.2 then §4.1.3). fn.Blocks == nil (an
// external/declaration-only function, e.g. one of KnownSymbols' own
// targets) produces an empty, zero-slot Plan rather than an error —
// there is nothing to instrument. A panic inside the type-size query or
// the labeling/instrumentation passes (e.g. an ssa.Program built from a
// package set with an inconsistent go/types.Sizes) is recovered into an
// *IRError rather than taking down the whole BuildModule fan-out — spec
// §7 requires one function's failure to stay contained.
func (m *Module) rewriteFunction(fn *ssa.Function, cg *callGraph) (*Plan, error) {
	v, err := m.plans.GetOrCompute(fn, func() (result any, buildErr error) {
		if fn.Blocks == nil {
			p := newPlan(fn)
			p.SlotOf = map[ssa.Value]int{}
			return p, nil
		}
		defer func() {
			if r := recover(); r != nil {
				result = nil
				buildErr = fmt.Errorf("panic: %v", r)
			}
		}()
		instrs := instructionList(fn)
		lab := newLabeling(fn, instrs)
		ins := newInstrumenter(fn, lab, m.Sizes, m.Symbols, cg)
		return ins.run(instrs), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Plan), nil
}

// IRError is the typed error spec §7 requires every rewrite failure to
// surface as: which function, and what went wrong, without losing the
// underlying cause.
type IRError struct {
	Func  *ssa.Function
	Cause error
}

func (e *IRError) Error() string {
	name := "<nil>"
	if e.Func != nil {
		name = e.Func.String()
	}
	return fmt.Sprintf("rewrite %s: %v", name, e.Cause)
}

func (e *IRError) Unwrap() error { return e.Cause }
