package rewrite

import "golang.org/x/tools/go/ssa"

// labeling holds the per-function logical-variable grouping state (spec
// §3 "Logical-variable labeling", §4.1.2). Its lifetime is one function's
// rewrite: constructed at the start, discarded at the end (spec §5).
type labeling struct {
	forest *forest

	// arenaOf maps a value that might carry a label to its arena index.
	arenaOf map[ssa.Value]int
	// order preserves first-encounter order for deterministic index
	// assignment (DESIGN NOTES "rewriter determinism").
	order []int

	slotOf map[ssa.Value]int // logical-variable index, filled by run()
	n      int                // number of distinct logical variables
}

// newLabeling allocates one VSet per function argument with at least one
// use and one per value-producing instruction (spec §4.1.2 step 1).
func newLabeling(fn *ssa.Function, instrs []ssa.Instruction) *labeling {
	l := &labeling{
		forest:  newForest(),
		arenaOf: make(map[ssa.Value]int),
	}

	for _, p := range fn.Params {
		if isUsed(p) && !isFloatType(p.Type()) {
			l.alloc(p)
		}
	}
	for _, instr := range instrs {
		if !tracksValue(instr) {
			continue
		}
		v := instr.(ssa.Value)
		if _, ok := l.arenaOf[v]; ok {
			continue
		}
		l.alloc(v)
	}

	l.unionPhis(instrs)
	l.n = l.forest.assignIndices(l.order)
	l.slotOf = make(map[ssa.Value]int, len(l.arenaOf))
	for v, idx := range l.arenaOf {
		l.slotOf[v] = l.forest.indexOf(idx)
	}
	return l
}

func (l *labeling) alloc(v ssa.Value) int {
	idx := l.forest.add()
	l.arenaOf[v] = idx
	l.order = append(l.order, idx)
	return idx
}

// unionPhis implements spec §4.1.2 step 2: for each φ-node p with
// incoming values v_1..v_k, union VSet(p) with VSet(v_i) for every
// non-constant v_i. A constant incoming edge (e.g. `x = phi(0, y)`) does
// not need a shared slot — its taint is whatever fslice_value(0)
// interns at the point it is read, not a shadow slot at all.
func (l *labeling) unionPhis(instrs []ssa.Instruction) {
	for _, instr := range instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			continue
		}
		pIdx, ok := l.arenaOf[phi]
		if !ok {
			// the phi itself has no uses, or is float-typed; nothing to
			// unify its operands into.
			continue
		}
		for _, edge := range phi.Edges {
			if _, isConst := edge.(*ssa.Const); isConst {
				continue
			}
			eIdx, ok := l.arenaOf[edge]
			if !ok {
				// edge is itself untracked (e.g. float, or unused
				// elsewhere) — nothing to merge into the phi's class.
				continue
			}
			l.forest.union(pIdx, eIdx)
		}
	}
	// Re-derive representative identity after every union by re-running
	// assignIndices's first pass is unnecessary here: indices are
	// assigned once, after all unions, in newLabeling.
}

// slotIndex returns v's logical-variable index, or -1 if v has no shadow
// slot (untracked: float, unused, or a constant).
func (l *labeling) slotIndex(v ssa.Value) int {
	idx, ok := l.slotOf[v]
	if !ok {
		return -1
	}
	return idx
}
