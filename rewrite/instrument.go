package rewrite

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// sizer computes byte sizes the way the host compiler's target ABI does
// (SPEC_FULL §1: go/types.Sizes supplies the data layout). NewModule falls
// back to types.StdSizes{WordSize: 8, MaxAlign: 8} when given nil, which
// is what cmd/fslice passes, so that front end always sizes for a 64-bit
// word.
type sizer interface {
	Sizeof(t types.Type) int64
}

// instrumenter instruments one function's instructions into a Plan, given
// an already-computed labeling for that function (spec §4.1.3).
type instrumenter struct {
	fn     *ssa.Function
	lab    *labeling
	sizes  sizer
	plan   *Plan
	cg     *callGraph
	symbol map[string]string
}

func newInstrumenter(fn *ssa.Function, lab *labeling, sizes sizer, symbols map[string]string, cg *callGraph) *instrumenter {
	return &instrumenter{
		fn:     fn,
		lab:    lab,
		sizes:  sizes,
		plan:   newPlan(fn),
		cg:     cg,
		symbol: symbols,
	}
}

// run walks fn's instructions in their original order and instruments
// each one that needs it, producing the completed Plan. It must not be
// called twice on the same instrumenter.
func (ins *instrumenter) run(instrs []ssa.Instruction) *Plan {
	ins.plan.SlotCount = ins.lab.n
	ins.plan.SlotOf = ins.lab.slotOf
	ins.buildPrologue()

	for _, instr := range instrs {
		switch i := instr.(type) {
		case *ssa.UnOp:
			ins.instrumentUnOp(i)
		case *ssa.BinOp:
			ins.instrumentBinOp(i)
		case *ssa.Convert, *ssa.ChangeType, *ssa.SliceToArrayPointer:
			ins.instrumentCast(instr.(ssa.Value))
		case *ssa.Store:
			ins.instrumentStore(i)
		case *ssa.Call:
			ins.instrumentCall(i)
		case *ssa.Return:
			ins.instrumentReturn(i)
		}
	}
	return ins.plan
}

// buildPrologue implements spec §4.1.2 step 5 / §4.1.5: allocate the
// function's shadow slots and, for every tracked parameter, load its
// incoming argument-channel taint into that slot.
func (ins *instrumenter) buildPrologue() {
	p := PrologueOp{AllocSlots: ins.lab.n}
	for i, param := range ins.fn.Params {
		slot := ins.lab.slotIndex(param)
		if slot < 0 {
			continue
		}
		p.ArgLoads = append(p.ArgLoads, ArgLoad{ParamIndex: i, Slot: slot})
	}
	ins.plan.Prologue = p
}

// slotArg returns the Arg that reads v's current taint: its shadow slot
// if v is tracked, the constant itself (ArgValue, to be interned through
// fslice_value) if v is a non-float *ssa.Const, or a literal 0 (Sentinel)
// for any other untracked value (spec §4.1.1).
func (ins *instrumenter) slotArg(v ssa.Value) Arg {
	if slot := ins.lab.slotIndex(v); slot >= 0 {
		return Arg{Kind: ArgSlot, Slot: slot}
	}
	if c, ok := v.(*ssa.Const); ok && !isFloatType(v.Type()) {
		return Arg{Kind: ArgValue, Value: c}
	}
	return Arg{Kind: ArgConst, Const: 0}
}

func (ins *instrumenter) byteSize(t types.Type) int64 {
	return ins.sizes.Sizeof(t)
}

// instrumentUnOp handles *ssa.UnOp, which in go/ssa covers both pointer
// dereference (Op==token.MUL, the spec's "Load") and unary arithmetic
// negation/complement/channel-receive. Only the Load case needs the
// load-instrumentation sequence from spec §4.1.3; arithmetic unary ops
// are rare enough in the spec's vocabulary that they fold into the cast
// path below (propagate operand taint unchanged).
func (ins *instrumenter) instrumentUnOp(i *ssa.UnOp) {
	if i.Op.String() == "*" {
		ins.instrumentLoad(i, i.X)
		return
	}
	ins.instrumentCast(i)
}

// instrumentLoad implements spec §4.1.3's Load instrumentation: cast the
// address to an integer, call fslice_load<S>(addr), store the result into
// the loaded value's shadow slot.
func (ins *instrumenter) instrumentLoad(instr ssa.Instruction, addr ssa.Value) {
	v := instr.(ssa.Value)
	slot := ins.lab.slotIndex(v)
	if slot < 0 {
		return
	}
	size := ins.byteSize(v.Type())
	symbol, ok := sizedSymbol("fslice_load", size)
	if !ok {
		panic(fmt.Sprintf("rewrite: load of %d bytes has no fslice_load ABI entry point (valid sizes: 1,2,4,8,16,32,64)", size))
	}
	cast := CastOp{Operand: addr}
	call := CallOp{
		Symbol:     symbol,
		Args:       []Arg{{Kind: ArgCastResult, Value: cast.Operand}},
		ResultSlot: slot,
	}
	ins.plan.addBefore(instr, cast, call)
}

// instrumentStore implements spec §4.1.3's Store instrumentation: cast
// the address, load the stored value's current taint, call
// fslice_store<S>(addr, label).
func (ins *instrumenter) instrumentStore(i *ssa.Store) {
	size := ins.byteSize(i.Val.Type())
	symbol, ok := sizedSymbol("fslice_store", size)
	if !ok {
		panic(fmt.Sprintf("rewrite: store of %d bytes has no fslice_store ABI entry point (valid sizes: 1,2,4,8,16,32,64)", size))
	}
	cast := CastOp{Operand: i.Addr}
	call := CallOp{
		Symbol: symbol,
		Args: []Arg{
			{Kind: ArgCastResult, Value: cast.Operand},
			ins.slotArg(i.Val),
		},
		ResultSlot: -1,
	}
	ins.plan.addBefore(i, cast, call)
}

// instrumentBinOp implements spec §4.1.3's BinOp instrumentation: call
// fslice_op2(opname, lhs_taint, rhs_taint), store result into the BinOp's
// slot. Comparisons never reach here — tracksValue excludes them, so
// labeling never allocated a slot and slotIndex returns -1.
func (ins *instrumenter) instrumentBinOp(i *ssa.BinOp) {
	slot := ins.lab.slotIndex(i)
	if slot < 0 {
		return
	}
	call := CallOp{
		Symbol: "fslice_op2",
		Args: []Arg{
			{Kind: ArgOpName, Str: i.Op.String()},
			ins.slotArg(i.X),
			ins.slotArg(i.Y),
		},
		ResultSlot: slot,
	}
	ins.plan.addBefore(i, call)
}

// instrumentCast implements spec §4.1.3's Cast (unary) instrumentation:
// propagate the operand's taint into the result's slot unchanged, no
// runtime call needed.
func (ins *instrumenter) instrumentCast(v ssa.Value) {
	instr := v.(ssa.Instruction)
	slot := ins.lab.slotIndex(v)
	if slot < 0 {
		return
	}
	var operand ssa.Value
	switch c := v.(type) {
	case *ssa.Convert:
		operand = c.X
	case *ssa.ChangeType:
		operand = c.X
	case *ssa.SliceToArrayPointer:
		operand = c.X
	case *ssa.UnOp:
		operand = c.X
	default:
		return
	}
	ins.plan.addBefore(instr, StoreSlotOp{Slot: slot, Value: ins.slotArg(operand)})
}

// instrumentCall implements spec §4.1.3's Call instrumentation: known
// memory intrinsics are rewritten to their taint-aware replacement
// entirely, deleting the original call (symbols.go's memIntrinsics, via
// instrumentMemIntrinsic); other calls to a statically resolvable callee
// get their tracked arguments pushed through the argument channel before
// the call and their tracked return popped after, the mirror of the
// callee-side prologue's ArgLoads. Interface-dispatched calls get the
// same argument pushes — which concrete method runs doesn't change how
// many shadow slots the call site pushes — gated on rewrite/callgraph.go's
// CHA graph resolving at least one implementation; an invoke call with no
// resolved implementation is left uninstrumented. An invoke call's result
// has no shadow slot (tracksValue excludes it), so no fslice_load_ret
// follows it. A non-invoke call with no static callee (a call through a
// function value) is left uninstrumented.
func (ins *instrumenter) instrumentCall(i *ssa.Call) {
	if i.Call.IsInvoke() {
		if len(ins.cg.PossibleCallees(i)) == 0 {
			return
		}
	} else {
		callee := i.Call.StaticCallee()
		if callee == nil {
			return
		}
		if repl, ok := ins.symbol[callee.Name()]; ok {
			if _, isMemIntrinsic := memIntrinsics[callee.Name()]; isMemIntrinsic {
				ins.instrumentMemIntrinsic(i, callee.Name(), repl)
				return
			}
			_ = repl // symbol rename applied by the host loader at splice time
		}
	}

	for idx, arg := range i.Call.Args {
		argSlot := ins.lab.slotIndex(arg)
		if argSlot < 0 {
			continue
		}
		ins.plan.addBefore(i, CallOp{
			Symbol: "fslice_store_arg",
			Args: []Arg{
				{Kind: ArgConst, Const: int64(idx)},
				{Kind: ArgSlot, Slot: argSlot},
			},
			ResultSlot: -1,
		})
	}

	retSlot := ins.lab.slotIndex(i)
	if retSlot >= 0 {
		ins.plan.addAfter(i, CallOp{
			Symbol:     "fslice_load_ret",
			ResultSlot: retSlot,
		})
	}
}

// instrumentMemIntrinsic implements spec §4.1.3's Memory intrinsic case:
// cast dst (and, for memcpy/memmove, src) to an integer-pointer-sized
// integer, zero-extend memset's fill byte the same way, and replace the
// original memset/memcpy/memmove call outright with a call to symbol
// carrying (dst_as_int, src_as_int_or_zext_value, length) — the original
// intrinsic is deleted, not merely surrounded, per the spec's "delete the
// original intrinsic". name is the libc callee's own name (used to decide
// the one-byte-value vs. pointer-source argument shape); symbol is the
// runtime replacement ins.symbol resolved it to, which may differ from
// the package default via SymbolOverrides.
func (ins *instrumenter) instrumentMemIntrinsic(i *ssa.Call, name, symbol string) {
	dst := i.Call.Args[0]
	castDst := CastOp{Operand: dst}
	ops := []Op{castDst}
	args := []Arg{{Kind: ArgCastResult, Value: dst}}

	if name == "memset" {
		val := i.Call.Args[1]
		castVal := CastOp{Operand: val}
		ops = append(ops, castVal)
		args = append(args, Arg{Kind: ArgCastResult, Value: val})
	} else {
		src := i.Call.Args[1]
		castSrc := CastOp{Operand: src}
		ops = append(ops, castSrc)
		args = append(args, Arg{Kind: ArgCastResult, Value: src})
	}
	args = append(args, Arg{Kind: ArgValue, Value: i.Call.Args[2]})

	ins.plan.addBefore(i, ops...)
	ins.plan.addReplace(i, ReplaceCallOp{Symbol: symbol, Args: args})
}

// instrumentReturn implements spec §4.1.3's Return instrumentation: for
// each return operand that is tracked or a non-float constant, push its
// taint through fslice_store_ret before control leaves the function.
func (ins *instrumenter) instrumentReturn(i *ssa.Return) {
	for _, res := range i.Results {
		slot := ins.lab.slotIndex(res)
		arg := ins.slotArg(res)
		if slot < 0 && arg.Kind == ArgConst {
			continue
		}
		ins.plan.addBefore(i, CallOp{
			Symbol:     "fslice_store_ret",
			Args:       []Arg{arg},
			ResultSlot: -1,
		})
	}
}

// sizedSymbol maps a byte size to one of the 7 fixed-size ABI entry
// points (spec §6 — cgo cannot export a generic function, so the load/
// store ABI is 7 distinct symbols rather than one size-parameterized
// one). ok is false for any size outside that set; instrumentLoad and
// instrumentStore treat that as the IR well-formedness failure spec §7
// permits the rewriter to abort on, rather than silently mislabeling an
// odd-sized access as one of the seven supported widths.
func sizedSymbol(prefix string, size int64) (symbol string, ok bool) {
	switch size {
	case 1, 2, 4, 8, 16, 32, 64:
		return fmt.Sprintf("%s%d", prefix, size), true
	default:
		return "", false
	}
}
