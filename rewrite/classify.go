package rewrite

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// instructionList returns every instruction of fn in the SSA IR's native
// block/instruction order. The rewriter must iterate in this order and
// never re-instrument an instruction it inserts itself (spec §4.1.3
// preamble, DESIGN NOTES "rewriter determinism"), so this snapshot is
// taken once, before any instrumentation decisions are made.
func instructionList(fn *ssa.Function) []ssa.Instruction {
	var out []ssa.Instruction
	for _, b := range fn.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

// isFloatType reports whether t is a floating-point (or complex) type,
// untracked per spec §4.1.1 ("Values of floating-point type (including FP
// vectors) are untracked"). go/ssa has no SIMD vector type, so this only
// needs to look through named types to their underlying basic kind.
func isFloatType(t types.Type) bool {
	t = t.Underlying()
	basic, ok := t.(*types.Basic)
	if !ok {
		return false
	}
	switch basic.Kind() {
	case types.Float32, types.Float64, types.Complex64, types.Complex128,
		types.UntypedFloat, types.UntypedComplex:
		return true
	}
	return false
}

// isComparison reports whether op is one of go/ssa's comparison tokens.
// go/ssa represents both arithmetic and comparison as *ssa.BinOp; the
// spec's "compare" exclusion (§4.1.1) maps onto this subset of BinOp.
func isComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	}
	return false
}

// isUsed reports whether v has at least one use, per spec §4.1.1
// ("I has at least one use").
func isUsed(v ssa.Value) bool {
	refs := v.Referrers()
	return refs != nil && len(*refs) > 0
}

// tracksValue implements spec §4.1.1's tracks_value(I): true iff I has at
// least one use and I is not a branch, invoke, or compare. Stores and
// returns are excluded implicitly — in go/ssa neither *ssa.Store nor
// *ssa.Return implements ssa.Value, so the type assertion below already
// excludes them. Floating-point results are excluded too, per the same
// subsection.
func tracksValue(instr ssa.Instruction) bool {
	v, ok := instr.(ssa.Value)
	if !ok {
		return false
	}
	if !isUsed(v) {
		return false
	}
	if isFloatType(v.Type()) {
		return false
	}
	switch i := instr.(type) {
	case *ssa.If, *ssa.Jump:
		return false // branches are never ssa.Value, kept for documentation
	case *ssa.Call:
		if i.Call.IsInvoke() {
			// Interface-dispatched calls stand in for the spec's "invoke"
			// exclusion: the callee is not statically known, so there is
			// no ordinary-call argument/return taint contract to thread
			// a shadow slot through (see rewrite/callgraph.go).
			return false
		}
	case *ssa.BinOp:
		if isComparison(i.Op) {
			return false
		}
	}
	return true
}
