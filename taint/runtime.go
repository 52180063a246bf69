package taint

import "io"

// ValidSizes lists the byte-widths the ABI defines fslice_load<S>/
// fslice_store<S> entry points for (spec §6).
var ValidSizes = [...]int{1, 2, 4, 8, 16, 32, 64}

// RuntimeConfig controls the is_obj open question spec §9 leaves to the
// implementation (MemFlag), plus the emitter sink. DefaultRuntimeConfig
// returns the documented default (MemFlag true, Sink nil meaning stderr);
// the zero value has MemFlag false.
type RuntimeConfig struct {
	// MemFlag seeds heap allocations (fslice_malloc/fslice_calloc)
	// with isObj=MemFlag, per spec §4.2.5. Default true: heap cells behave
	// as intermediate object cells, matching the source's default.
	MemFlag bool
	// Sink is where the emitter writes trace records. nil means stderr.
	Sink io.Writer
}

// DefaultRuntimeConfig returns the documented default configuration.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{MemFlag: true}
}

// Runtime is the process-wide taint runtime: shadow memory, the
// constant/object/binop/block dedup caches, the label counter, the
// argument/return channel, and the trace emitter. It implements every
// §4.2 operation and is not safe for concurrent use (spec §5).
type Runtime struct {
	cfg RuntimeConfig

	shadow  *ShadowMemory
	values  *valueCache
	objects *objectCache
	binops  *binOpCache
	blocks  *blockCache
	counter *counter
	channel *Channel
	emitter *Emitter
}

// NewRuntime constructs a fresh runtime with empty shadow memory and
// caches, as at process start.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	return &Runtime{
		cfg:     cfg,
		shadow:  NewShadowMemory(),
		values:  newValueCache(),
		objects: newObjectCache(),
		binops:  newBinOpCache(),
		blocks:  newBlockCache(),
		counter: newCounter(),
		channel: NewChannel(),
		emitter: NewEmitter(cfg.Sink),
	}
}

// Flush flushes any buffered trace records. Call at process exit.
func (rt *Runtime) Flush() error { return rt.emitter.Flush() }

func (rt *Runtime) mustValidSize(size int) {
	for _, s := range ValidSizes {
		if s == size {
			return
		}
	}
	panic("taint: unsupported load/store size")
}

// Load implements fslice_load<S>(addr) → label (spec §4.2.1).
func (rt *Runtime) Load(addr uintptr, size int) Label {
	rt.mustValidSize(size)
	labels := rt.shadow.GetRange(addr, size)
	key := hashLabelSequence(labels)
	if l, ok := rt.objects.lookup(key); ok {
		return l
	}
	id := rt.counter.fresh()
	l := NewLabel(id, 0, false)
	rt.objects.store(key, l)
	rt.emitter.Object(id, labels)
	return l
}

// Store implements fslice_store<S>(addr, label) (spec §4.2.2).
func (rt *Runtime) Store(addr uintptr, size int, lbl Label) {
	rt.mustValidSize(size)
	for i := 0; i < size; i++ {
		a := addr + uintptr(i)
		existing := rt.shadow.Get(a)
		if existing.IsObj() {
			rt.emitter.CrossEdge(existing, lbl.WithOffset(lbl.Offset()+uint32(i)))
			continue
		}
		rt.shadow.Set(a, NewLabel(lbl.ID(), lbl.Offset()+uint32(i), false))
	}
}

// StoreArg implements fslice_store_arg(i, t).
func (rt *Runtime) StoreArg(i int, t Label) { rt.channel.StoreArg(i, t) }

// LoadArg implements fslice_load_arg(i) → t, clearing slot i.
func (rt *Runtime) LoadArg(i int) Label { return rt.channel.LoadArg(i) }

// StoreRet implements fslice_store_ret(t).
func (rt *Runtime) StoreRet(t Label) { rt.channel.StoreRet(t) }

// LoadRet implements fslice_load_ret() → t.
func (rt *Runtime) LoadRet() Label { return rt.channel.LoadRet() }

// Value implements fslice_value(v) → label (spec §4.2.4).
func (rt *Runtime) Value(v uintptr) Label {
	if v == 0 {
		return Sentinel
	}
	if l, ok := rt.values.lookup(v); ok {
		return l
	}
	id := rt.counter.fresh()
	l := NewLabel(id, 0, false)
	rt.values.store(v, l)
	rt.emitter.Value(id, v)
	return l
}

// Op2 implements fslice_op2(op, t1, t2) → label (spec §4.2.4).
//
// If both operands are untainted, the sentinel is returned without
// emitting a record — an uninformative "result of combining nothing with
// nothing" record would only bloat the trace, and spec §4.2.4 explicitly
// permits this.
func (rt *Runtime) Op2(op string, t1, t2 Label) Label {
	if t1 == Sentinel && t2 == Sentinel {
		return Sentinel
	}
	key := makeBinOpKey(t1, t2)
	if l, ok := rt.binops.lookup(op, key); ok {
		return l
	}
	id := rt.counter.fresh()
	l := NewLabel(id, 0, false)
	rt.binops.store(op, key, l)
	rt.emitter.BinOp(id, op, t1, t2)
	return l
}
