package taint

// This file implements the §4.2.6 block and name/data hooks used for
// file-system-aware tracking.

// getBlock consults the block cache, minting a fresh label on miss. The
// size-taint and block-number-taint come from argument channel slots 1
// and 2, matching the convention ReadBlock's caller uses to pass them
// (slot 0 is reserved for the destination address's own taint, unused
// here).
func (rt *Runtime) getBlock(size, nr uintptr) Label {
	if l, ok := rt.blocks.lookup(nr); ok {
		return l
	}
	sizeTaint := rt.channel.LoadArg(1)
	nrTaint := rt.channel.LoadArg(2)
	id := rt.counter.fresh()
	l := NewLabel(id, 0, false)
	rt.blocks.store(nr, l)
	rt.emitter.Block(id, size, nr, sizeTaint, nrTaint)
	return l
}

// ReadBlock implements fslice_read_block(addr, size, nr) (spec §4.2.6).
func (rt *Runtime) ReadBlock(addr, size, nr uintptr) {
	t := rt.getBlock(size, nr)
	for i := uintptr(0); i < size; i++ {
		rt.shadow.Set(addr+i, NewLabel(t.ID(), uint32(i), false))
	}
}

// WriteBlock implements fslice_write_block(addr, size, nr) (spec §4.2.6):
// for each byte whose current shadow label is both tainted and differs
// from the block's own {t.id, i}, emit a cross-edge recording that this
// block offset now holds that other taint. An untainted byte (src.ID()
// == 0) is skipped rather than recorded as "differing" — it was never
// separately tainted, so a cross-edge into t0 would only be noise.
func (rt *Runtime) WriteBlock(addr, size, nr uintptr) {
	t := rt.getBlock(size, nr)
	for i := uintptr(0); i < size; i++ {
		src := rt.shadow.Get(addr + i)
		if src.ID() == 0 {
			continue
		}
		want := NewLabel(t.ID(), uint32(i), false)
		if src == want {
			continue
		}
		rt.emitter.CrossEdge(want, src)
	}
}

// nameOrData is shared by Name and Data; absorb controls whether
// pre-existing tainted bytes are recorded as cross-edges into the new
// label before being overwritten (Data does this, Name does not — spec
// §4.2.6 scenario F only describes the absorption for fslice_data).
func (rt *Runtime) nameOrData(addr uintptr, length uintptr, absorb bool, emit func(id uint32, length uintptr)) {
	id := rt.counter.fresh()
	t := NewLabel(id, 0, false)
	emit(id, length)

	for i := uintptr(0); i < length; i++ {
		a := addr + i
		if absorb {
			if old := rt.shadow.Get(a); old != Sentinel {
				rt.emitter.CrossEdge(NewLabel(t.ID(), uint32(i), false), old)
			}
		}
		rt.shadow.Set(a, NewLabel(t.ID(), uint32(i), false))
	}
}

// Name implements fslice_name(addr, len) (spec §4.2.6).
func (rt *Runtime) Name(addr, length uintptr) {
	rt.nameOrData(addr, length, false, func(id uint32, l uintptr) { rt.emitter.Name(id, l) })
}

// Data implements fslice_data(addr, len) (spec §4.2.6).
func (rt *Runtime) Data(addr, length uintptr) {
	rt.nameOrData(addr, length, true, func(id uint32, l uintptr) { rt.emitter.Data(id, l) })
}
