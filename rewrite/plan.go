package rewrite

import "golang.org/x/tools/go/ssa"

// Op is one synthetic operation the instrumentation plan asks a host
// compiler's lowering pass to splice into the IR, in the order it
// appears in a Before/After slice (spec §4.1.5: "all inserted
// instructions... are placed immediately before the target instruction,
// in dependency order").
type Op interface {
	isOp()
}

// CastOp casts an SSA value to an integer-pointer-sized integer, the
// "Cast P to an integer-pointer-sized integer A" step every load/store/
// mem-intrinsic instrumentation performs (spec §4.1.3). It produces no
// named ssa.Value of its own — the host lowering pass materializes
// whatever temporary its target IR needs — so a later Arg in the same
// op list references the cast by the Operand it was cast from, not by a
// synthetic result.
type CastOp struct {
	// Operand is the SSA value being cast (a pointer, or a narrower
	// integer being zero-extended).
	Operand ssa.Value
}

func (CastOp) isOp() {}

// CallOp invokes a fslice_* runtime entry point. Args references either
// original SSA values, the already-cast form of an earlier CastOp's
// Operand in the same op list (ArgCastResult), or the current value of a
// logical variable's shadow slot (ArgSlot).
type CallOp struct {
	Symbol string // e.g. "fslice_load4", "fslice_op2"
	Args   []Arg
	// ResultSlot, if >= 0, is the logical-variable index this call's
	// return value should be stored into (spec §4.1.3's "store T into the
	// shadow slot of L's logical variable").
	ResultSlot int
}

func (CallOp) isOp() {}

// StoreSlotOp writes a value directly into a shadow slot without an
// intervening call — used for cast propagation (spec §4.1.3, "Cast
// (unary): propagate operand's taint into the result's slot unchanged").
type StoreSlotOp struct {
	Slot  int
	Value Arg
}

func (StoreSlotOp) isOp() {}

// ReplaceCallOp deletes the original instruction and substitutes a call to
// Symbol with Args in its place, rather than merely surrounding it with
// Before/After ops (spec §4.1.3's memory-intrinsic case: "rewrite to a
// call to fslice_memset/fslice_memcpy/fslice_memmove with (dst_as_int,
// src_as_int_or_zext_value, length); delete the original intrinsic").
type ReplaceCallOp struct {
	Symbol string
	Args   []Arg
}

func (ReplaceCallOp) isOp() {}

// Arg is a tagged union over the kinds of operand an Op's call/store can
// reference.
type Arg struct {
	Kind  ArgKind
	Value ssa.Value // for ArgValue, ArgCastResult
	Slot  int        // for ArgSlot
	Const int64      // for ArgConst
	Str   string     // for ArgOpName
}

// ArgKind discriminates Arg's payload.
type ArgKind int

const (
	// ArgValue references an original SSA value directly (e.g. passing a
	// *ssa.Const's integer value to fslice_value without a shadow
	// slot).
	ArgValue ArgKind = iota
	// ArgCastResult references the cast form of a CastOp's Operand
	// (Value field) earlier in the same instruction's op list.
	ArgCastResult
	// ArgSlot loads the current contents of a logical-variable's shadow
	// slot.
	ArgSlot
	// ArgConst is a literal integer (e.g. a byte-size S).
	ArgConst
	// ArgOpName is a literal operator-name string (e.g. "add").
	ArgOpName
)

// PrologueOp is one entry-block setup step, emitted once per function
// before the first original instruction (spec §4.1.2 step 5, §4.1.5).
type PrologueOp struct {
	// AllocSlots is the number of shadow slots to allocate and
	// zero-initialize (equal to Plan.SlotCount).
	AllocSlots int
	// ArgLoads lists, for each function parameter with a shadow slot,
	// which slot its incoming argument-channel taint should be stored
	// into. This models a host ABI convention where a callee loads its
	// parameters' taint out of the argument channel on entry, the
	// callee-side mirror of a Call instrumentation's StoreArg sequence.
	ArgLoads []ArgLoad
}

// ArgLoad pairs a parameter position with the shadow slot it feeds.
type ArgLoad struct {
	ParamIndex int
	Slot       int
}

// Plan is the rewriter's output for one function: everything a host
// compiler's lowering pass needs to splice taint instrumentation into the
// original IR without this package ever mutating the ssa.Package it read
// (SPEC_FULL §1, "IR provider binding").
type Plan struct {
	Func      *ssa.Function
	SlotCount int
	Prologue  PrologueOp
	Before    map[ssa.Instruction][]Op
	After     map[ssa.Instruction][]Op
	// Replace holds, for an instruction that the spec requires deleting
	// outright (currently only the memory-intrinsic call case), the
	// ReplaceCallOp that takes its place. An instruction present here
	// never also needs its After entry consulted — there is no "after"
	// once the call itself is gone.
	Replace map[ssa.Instruction]Op
	SlotOf  map[ssa.Value]int
}

func newPlan(fn *ssa.Function) *Plan {
	return &Plan{
		Func:    fn,
		Before:  make(map[ssa.Instruction][]Op),
		After:   make(map[ssa.Instruction][]Op),
		Replace: make(map[ssa.Instruction]Op),
		SlotOf:  make(map[ssa.Value]int),
	}
}

func (p *Plan) addBefore(instr ssa.Instruction, ops ...Op) {
	p.Before[instr] = append(p.Before[instr], ops...)
}

func (p *Plan) addAfter(instr ssa.Instruction, ops ...Op) {
	p.After[instr] = append(p.After[instr], ops...)
}

func (p *Plan) addReplace(instr ssa.Instruction, op Op) {
	p.Replace[instr] = op
}
