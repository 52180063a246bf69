package rewrite

import (
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
)

func buildPlan(t *testing.T, fn *ssa.Function) *Plan {
	t.Helper()
	instrs := instructionList(fn)
	lab := newLabeling(fn, instrs)
	sizes := &types.StdSizes{WordSize: 8, MaxAlign: 8}
	ins := newInstrumenter(fn, lab, sizes, KnownSymbols, newCallGraph(fn.Prog))
	return ins.run(instrs)
}

func TestInstrumentBinOpEmitsOp2Call(t *testing.T) {
	fn := buildFunc(t, `package main

func add(a, b int) int {
	return a + b
}

func main() {}
`, "add")
	plan := buildPlan(t, fn)

	var found bool
	for _, instr := range instructionList(fn) {
		bin, ok := instr.(*ssa.BinOp)
		if !ok {
			continue
		}
		ops := plan.Before[instr]
		require.Len(t, ops, 1)
		call, ok := ops[0].(CallOp)
		require.True(t, ok)
		require.Equal(t, "fslice_op2", call.Symbol)
		require.Equal(t, "+", bin.Op.String())
		found = true
	}
	require.True(t, found)
}

func TestInstrumentLoadEmitsCastThenSizedCall(t *testing.T) {
	fn := buildFunc(t, `package main

func load(p *int) int {
	return *p
}

func main() {}
`, "load")
	plan := buildPlan(t, fn)

	var found bool
	for _, instr := range instructionList(fn) {
		u, ok := instr.(*ssa.UnOp)
		if !ok || u.Op.String() != "*" {
			continue
		}
		ops := plan.Before[instr]
		require.Len(t, ops, 2)
		_, ok = ops[0].(CastOp)
		require.True(t, ok)
		call, ok := ops[1].(CallOp)
		require.True(t, ok)
		require.Equal(t, "fslice_load8", call.Symbol) // int is word-sized under StdSizes{WordSize:8}
		found = true
	}
	require.True(t, found)
}

func TestInstrumentStoreEmitsSizedCall(t *testing.T) {
	fn := buildFunc(t, `package main

func store(p *int, v int) {
	*p = v
}

func main() {}
`, "store")
	plan := buildPlan(t, fn)

	var found bool
	for _, instr := range instructionList(fn) {
		st, ok := instr.(*ssa.Store)
		if !ok {
			continue
		}
		ops := plan.Before[st]
		require.Len(t, ops, 2)
		call, ok := ops[1].(CallOp)
		require.True(t, ok)
		require.Equal(t, "fslice_store8", call.Symbol)
		found = true
	}
	require.True(t, found)
}

func TestInstrumentReturnPushesTaintForTrackedResult(t *testing.T) {
	fn := buildFunc(t, `package main

func identity(a int) int {
	return a
}

func main() {}
`, "identity")
	plan := buildPlan(t, fn)

	var found bool
	for _, instr := range instructionList(fn) {
		ret, ok := instr.(*ssa.Return)
		if !ok {
			continue
		}
		ops := plan.Before[ret]
		require.Len(t, ops, 1)
		call, ok := ops[0].(CallOp)
		require.True(t, ok)
		require.Equal(t, "fslice_store_ret", call.Symbol)
		found = true
	}
	require.True(t, found)
}

func TestInstrumentCallPushesTrackedArgsAndPopsReturn(t *testing.T) {
	fn := buildFunc(t, `package main

func callee(a int) int { return a }

func caller(x int) int {
	return callee(x)
}

func main() {}
`, "caller")
	plan := buildPlan(t, fn)

	var call *ssa.Call
	for _, instr := range instructionList(fn) {
		if c, ok := instr.(*ssa.Call); ok {
			call = c
		}
	}
	require.NotNil(t, call)

	before := plan.Before[call]
	require.Len(t, before, 1)
	storeArg, ok := before[0].(CallOp)
	require.True(t, ok)
	require.Equal(t, "fslice_store_arg", storeArg.Symbol)

	after := plan.After[call]
	require.Len(t, after, 1)
	loadRet, ok := after[0].(CallOp)
	require.True(t, ok)
	require.Equal(t, "fslice_load_ret", loadRet.Symbol)
}

func TestInstrumentMemIntrinsicReplacesMemsetCall(t *testing.T) {
	fn := buildFunc(t, `package main

func memset(dst uintptr, val byte, n uintptr)

func callMemset(dst uintptr, val byte, n uintptr) {
	memset(dst, val, n)
}

func main() {}
`, "callMemset")
	plan := buildPlan(t, fn)

	var call *ssa.Call
	for _, instr := range instructionList(fn) {
		if c, ok := instr.(*ssa.Call); ok {
			call = c
		}
	}
	require.NotNil(t, call)

	before := plan.Before[call]
	require.Len(t, before, 2)
	_, ok := before[0].(CastOp)
	require.True(t, ok)
	_, ok = before[1].(CastOp)
	require.True(t, ok)

	replace, ok := plan.Replace[call]
	require.True(t, ok)
	repl, ok := replace.(ReplaceCallOp)
	require.True(t, ok)
	require.Equal(t, "fslice_memset", repl.Symbol)
	require.Len(t, repl.Args, 3)
	require.Equal(t, ArgCastResult, repl.Args[0].Kind)
	require.Equal(t, ArgCastResult, repl.Args[1].Kind)
	require.Equal(t, ArgValue, repl.Args[2].Kind)
}

func TestInstrumentMemIntrinsicReplacesMemcpyCall(t *testing.T) {
	fn := buildFunc(t, `package main

func memcpy(dst, src uintptr, n uintptr)

func callMemcpy(dst, src uintptr, n uintptr) {
	memcpy(dst, src, n)
}

func main() {}
`, "callMemcpy")
	plan := buildPlan(t, fn)

	var call *ssa.Call
	for _, instr := range instructionList(fn) {
		if c, ok := instr.(*ssa.Call); ok {
			call = c
		}
	}
	require.NotNil(t, call)

	replace, ok := plan.Replace[call]
	require.True(t, ok)
	repl, ok := replace.(ReplaceCallOp)
	require.True(t, ok)
	require.Equal(t, "fslice_memcpy", repl.Symbol)
	require.Len(t, repl.Args, 3)
}

func TestBuildPrologueLoadsTrackedParamsOnly(t *testing.T) {
	fn := buildFunc(t, `package main

func f(tracked int, untracked float64) int {
	return tracked
}

func main() {}
`, "f")
	plan := buildPlan(t, fn)

	require.Len(t, plan.Prologue.ArgLoads, 1)
	require.Equal(t, 0, plan.Prologue.ArgLoads[0].ParamIndex)
}
