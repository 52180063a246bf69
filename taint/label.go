// Package taint implements the fslice taint runtime: process-wide shadow
// memory, the argument/return channel, the constant/operator/block/object
// dedup caches, and the line-oriented provenance emitter described by the
// fslice trace format.
//
// The runtime is single-threaded with respect to its own state. Shadow
// memory, the caches, the label counter, the argument/return channel and
// the emitter are all plain mutable fields on *Runtime with no internal
// locking — callers (the instrumented program, or the cgo shim in
// cmd/fslice-runtime) are assumed not to invoke Runtime methods
// concurrently, matching the source's single-threaded-by-assumption
// design.
package taint

import "fmt"

// Label identifies a node in the provenance trace DAG: the object (id) it
// belongs to, the byte offset within that object, and whether the cell it
// names is itself an object cell (as opposed to holding a derived label).
//
// Label is packed into a single uint64 so it has the same representation
// on both sides of the cgo boundary: bits 32–63 are id, bits 1–31 are
// offset, bit 0 is isObj.
type Label uint64

// Sentinel is the untainted label: id == 0, offset == 0, isObj == false.
const Sentinel Label = 0

const (
	idShift     = 32
	offsetShift = 1
	offsetMask  = (uint64(1) << 31) - 1
	isObjMask   = uint64(1)
)

// NewLabel packs an (id, offset, isObj) triple into a Label.
//
// id == 0 always collapses to Sentinel regardless of offset/isObj, per the
// invariant "id == 0 ⇒ offset == 0 ∧ ¬is_obj".
func NewLabel(id uint32, offset uint32, isObj bool) Label {
	if id == 0 {
		return Sentinel
	}
	v := uint64(id) << idShift
	v |= (uint64(offset) & offsetMask) << offsetShift
	if isObj {
		v |= isObjMask
	}
	return Label(v)
}

// ID returns the label's object id. 0 means untainted.
func (l Label) ID() uint32 { return uint32(uint64(l) >> idShift) }

// Offset returns the label's byte offset within its object.
func (l Label) Offset() uint32 { return uint32((uint64(l) >> offsetShift) & offsetMask) }

// IsObj reports whether this label's shadow cell is itself a named object
// cell rather than a derived reference.
func (l Label) IsObj() bool { return uint64(l)&isObjMask != 0 }

// WithOffset returns a copy of l with its offset field replaced.
func (l Label) WithOffset(offset uint32) Label {
	if l == Sentinel {
		return Sentinel
	}
	return NewLabel(l.ID(), offset, l.IsObj())
}

// IsTainted reports whether l carries any provenance at all.
func (l Label) IsTainted() bool { return l != Sentinel }

// Ref renders l the way the trace format references a label: "t<id>[<off>]".
func (l Label) Ref() string {
	return fmt.Sprintf("t%d[%d]", l.ID(), l.Offset())
}

// counter mints fresh, run-unique label ids. It is not safe for concurrent
// use, matching the runtime's single-threaded design (spec §5).
type counter struct {
	next uint32
}

// next0 would collide with the sentinel, so ids start at 1.
func newCounter() *counter { return &counter{next: 1} }

func (c *counter) fresh() uint32 {
	id := c.next
	c.next++
	return id
}
