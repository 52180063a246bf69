package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
)

// TestScenarioC_PhiUnification builds the function from spec §8 Scenario C
// — `if (c) x = p; else x = q; use(x);` — and asserts the rewriter
// allocates one shared shadow slot for p, q, and the φ node materialized
// for x, per DSU convergence property 6.
func TestScenarioC_PhiUnification(t *testing.T) {
	const src = `package main

func use(x int) { println(x) }

func cond(c bool, p, q int) {
	var x int
	if c {
		x = p
	} else {
		x = q
	}
	use(x)
}

func main() {}
`
	fn := buildFunc(t, src, "cond")
	instrs := instructionList(fn)
	lab := newLabeling(fn, instrs)

	var phi *ssa.Phi
	for _, instr := range instrs {
		if p, ok := instr.(*ssa.Phi); ok {
			phi = p
			break
		}
	}
	require.NotNil(t, phi, "expected the SSA builder to materialize a phi for x")
	require.Len(t, phi.Edges, 2)

	phiSlot := lab.slotIndex(phi)
	require.GreaterOrEqual(t, phiSlot, 0)

	for _, edge := range phi.Edges {
		require.Equal(t, phiSlot, lab.slotIndex(edge), "phi operand must share the phi's shadow slot")
	}
}

func TestLabelingSkipsFloatParams(t *testing.T) {
	const src = `package main

func f(x float64) float64 {
	return x * 2
}

func main() {}
`
	fn := buildFunc(t, src, "f")
	instrs := instructionList(fn)
	lab := newLabeling(fn, instrs)

	require.Equal(t, -1, lab.slotIndex(fn.Params[0]))
}

func TestLabelingAllocatesOneSlotPerUsedTrackedValue(t *testing.T) {
	const src = `package main

func add(a, b int) int {
	return a + b
}

func main() {}
`
	fn := buildFunc(t, src, "add")
	instrs := instructionList(fn)
	lab := newLabeling(fn, instrs)

	// both params are used, plus the BinOp result: 3 distinct slots.
	require.Equal(t, 3, lab.n)
}

func TestLabelingUntrackedConstantPhiEdgeDoesNotUnify(t *testing.T) {
	const src = `package main

func use(x int) { println(x) }

func f(c bool, p int) {
	var x int
	if c {
		x = p
	} else {
		x = 0
	}
	use(x)
}

func main() {}
`
	fn := buildFunc(t, src, "f")
	instrs := instructionList(fn)
	lab := newLabeling(fn, instrs)

	var phi *ssa.Phi
	for _, instr := range instrs {
		if p, ok := instr.(*ssa.Phi); ok {
			phi = p
			break
		}
	}
	require.NotNil(t, phi)

	pIdx := lab.slotIndex(fn.Params[1]) // p
	phiIdx := lab.slotIndex(phi)
	require.Equal(t, pIdx, phiIdx, "non-constant edge must still unify with the phi")

	var sawConst bool
	for _, edge := range phi.Edges {
		if _, isConst := edge.(*ssa.Const); isConst {
			sawConst = true
			require.Equal(t, -1, lab.slotIndex(edge), "constant phi edge must not get a shadow slot")
		}
	}
	require.True(t, sawConst, "expected the phi to have a constant edge for x = 0")
}
