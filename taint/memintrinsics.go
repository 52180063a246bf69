package taint

// This file implements the §4.2.5 memory-intrinsic replacements. Each
// function both mirrors its libc counterpart's effect on process memory
// (via the memMover/memSetter hooks supplied at call time — the taint
// package itself never touches raw process memory, so it stays portable
// and unit-testable without cgo) and propagates shadow memory.
//
// MemMover and MemSetter hooks are injected by the caller
// (cmd/fslice-runtime, in production;
// an in-memory fake in tests) so this package has no unsafe.Pointer
// dependency of its own.

// MemMover copies n bytes from src to dst, the way libc memmove/memcpy do.
type MemMover func(dst, src uintptr, n uintptr)

// MemSetter fills n bytes at dst with val, the way libc memset does.
type MemSetter func(dst uintptr, val byte, n uintptr)

// Memset implements fslice_memset(dst, val, n) (spec §4.2.5).
//
// The taint of the fill byte is read from argument channel slot 1, the
// slot of val in (dst, val, n); slot 0 (dst's own taint) is not read. The
// rewrite package's memset replacement emits no fslice_store_arg calls of
// its own, so at a call site it rewrote, slot 1 holds whatever an earlier
// StoreArg(1, …) left there, or Sentinel once the channel was cleared.
func (rt *Runtime) Memset(dst uintptr, val byte, n uintptr, set MemSetter) {
	valTaint := rt.channel.LoadArg(1)
	for i := uintptr(0); i < n; i++ {
		rt.shadow.Set(dst+i, NewLabel(valTaint.ID(), valTaint.Offset(), false))
	}
	rt.channel.StoreRet(Sentinel)
	if set != nil {
		set(dst, val, n)
	}
}

// memmoveShadow is shared by Memmove, Memcpy and Strcpy.
func (rt *Runtime) memmoveShadow(dst, src uintptr, n uintptr) {
	labels := rt.shadow.GetRange(src, int(n))
	for i, l := range labels {
		if l == Sentinel {
			rt.shadow.Set(dst+uintptr(i), Sentinel)
			continue
		}
		rt.shadow.Set(dst+uintptr(i), NewLabel(l.ID(), l.Offset(), false))
	}
}

// Memmove implements fslice_memmove(dst, src, n) (spec §4.2.5).
func (rt *Runtime) Memmove(dst, src uintptr, n uintptr, move MemMover) {
	rt.memmoveShadow(dst, src, n)
	rt.channel.StoreRet(Sentinel)
	if move != nil {
		move(dst, src, n)
	}
}

// Memcpy implements fslice_memcpy(dst, src, n); identical shadow
// behavior to Memmove (spec §4.2.5 groups them).
func (rt *Runtime) Memcpy(dst, src uintptr, n uintptr, move MemMover) {
	rt.Memmove(dst, src, n, move)
}

// Strcpy implements fslice_strcpy(dst, src) as memmove(dst, src,
// strlen(src)+1) (spec §4.2.5). The caller supplies the already-computed
// length (strlen(src)+1) since this package has no way to read process
// memory to find the NUL terminator itself.
func (rt *Runtime) Strcpy(dst, src uintptr, lengthWithNUL uintptr, move MemMover) {
	rt.Memmove(dst, src, lengthWithNUL, move)
}

// Bzero implements fslice_bzero(dst, n): zero n shadow entries and zero
// memory (spec §4.2.5). A void-returning call never gets a load_ret from
// the call-site instrumentation, so this is the only place its
// argument/return channel slots get cleared — without it, taint pushed
// onto the argument channel before a bzero call would leak into whatever
// call reads the channel next.
func (rt *Runtime) Bzero(dst uintptr, n uintptr, set MemSetter) {
	for i := uintptr(0); i < n; i++ {
		rt.shadow.Set(dst+i, Sentinel)
	}
	rt.channel.StoreRet(Sentinel)
	if set != nil {
		set(dst, 0, n)
	}
}

// Allocator allocates n zero-initialized bytes and returns the base
// address, the way libc malloc/calloc do. Tests supply a fake allocator
// backed by a Go byte slice; cmd/fslice-runtime supplies real process
// memory.
type Allocator func(n uintptr) uintptr

// Malloc implements fslice_malloc(n) (spec §4.2.5). arg0Taint is the
// taint of the size argument n, read from argument channel slot 0.
func (rt *Runtime) Malloc(n uintptr, alloc Allocator) uintptr {
	arg0 := rt.channel.LoadArg(0)
	addr := rt.seedAllocation(n, arg0, nil, alloc)
	rt.channel.StoreRet(Sentinel)
	return addr
}

// Calloc implements fslice_calloc(num, size) (spec §4.2.5). arg0/arg1
// are the taints of num and size, read from argument channel slots 0/1.
func (rt *Runtime) Calloc(num, size uintptr, alloc Allocator) uintptr {
	arg0 := rt.channel.LoadArg(0)
	arg1 := rt.channel.LoadArg(1)
	addr := rt.seedAllocation(num*size, arg0, &arg1, alloc)
	rt.channel.StoreRet(Sentinel)
	return addr
}

func (rt *Runtime) seedAllocation(n uintptr, a Label, b *Label, alloc Allocator) uintptr {
	id := rt.counter.fresh()
	t := NewLabel(id, 0, rt.cfg.MemFlag)
	rt.emitter.Malloc(id, n, a, b)

	var addr uintptr
	if alloc != nil {
		addr = alloc(n)
	}
	for i := uintptr(0); i < n; i++ {
		rt.shadow.Set(addr+i, NewLabel(t.ID(), uint32(i), rt.cfg.MemFlag))
	}
	return addr
}
