package taint

// ShadowMemory maps process byte-addresses to taint labels. It is the
// per-byte provenance map described by spec §3 ("Shadow memory"): every
// instrumented load/store consults and updates it.
//
// Addresses that have never been written read back as Sentinel — a
// read-miss is not distinguished from an explicit untainted write, which
// is what "sentinel closure" (spec §8, property 2) requires.
type ShadowMemory struct {
	cells map[uintptr]Label
}

// NewShadowMemory returns an empty shadow memory.
func NewShadowMemory() *ShadowMemory {
	return &ShadowMemory{cells: make(map[uintptr]Label)}
}

// Get returns the label at addr, or Sentinel if addr has no shadow entry.
func (s *ShadowMemory) Get(addr uintptr) Label {
	return s.cells[addr]
}

// Set stores lbl at addr. Storing Sentinel removes the entry rather than
// keeping a zero-value tombstone around, since Get already treats a
// missing key as Sentinel.
func (s *ShadowMemory) Set(addr uintptr, lbl Label) {
	if lbl == Sentinel {
		delete(s.cells, addr)
		return
	}
	s.cells[addr] = lbl
}

// GetRange returns the S shadow labels starting at addr, in address order.
func (s *ShadowMemory) GetRange(addr uintptr, size int) []Label {
	out := make([]Label, size)
	for i := 0; i < size; i++ {
		out[i] = s.Get(addr + uintptr(i))
	}
	return out
}
