package taint

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// valueCache dedupes the constant-value labels minted by fslice_value.
type valueCache struct {
	byValue map[uintptr]Label
}

func newValueCache() *valueCache {
	return &valueCache{byValue: make(map[uintptr]Label)}
}

func (c *valueCache) lookup(v uintptr) (Label, bool) {
	l, ok := c.byValue[v]
	return l, ok
}

func (c *valueCache) store(v uintptr, l Label) {
	c.byValue[v] = l
}

// objectCacheKey is the collision-resistant 64-bit hash of a contiguous
// shadow byte-range's labels, used to dedupe fslice_load object records.
//
// The source used an ad-hoc hash and warned about collisions (spec §9,
// "Open question — object cache hash"). This implementation resolves that
// open question by hashing the (id, offset) sequence with blake2b-256 and
// truncating to the first 8 bytes, which is the collision-resistant
// construction the spec asks for.
type objectCacheKey uint64

func hashLabelSequence(labels []Label) objectCacheKey {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors when a non-empty MAC key longer than
		// 64 bytes is supplied; we never pass a key, so this is
		// unreachable in practice and indicates a corrupted build.
		panic("taint: blake2b.New256 failed: " + err.Error())
	}
	var buf [8]byte
	for _, l := range labels {
		binary.LittleEndian.PutUint32(buf[0:4], l.ID())
		binary.LittleEndian.PutUint32(buf[4:8], l.Offset())
		_, _ = h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return objectCacheKey(binary.LittleEndian.Uint64(sum[:8]))
}

type objectCache struct {
	byHash map[objectCacheKey]Label
}

func newObjectCache() *objectCache {
	return &objectCache{byHash: make(map[objectCacheKey]Label)}
}

func (c *objectCache) lookup(key objectCacheKey) (Label, bool) {
	l, ok := c.byHash[key]
	return l, ok
}

func (c *objectCache) store(key objectCacheKey, l Label) {
	c.byHash[key] = l
}

// binOpKey composes the per-operator cache key from the operand label ids.
// The operator name is the map's outer key (interned by Go's string
// equality, which compares by content — spec §9, "Per-operator cache keyed
// by interned string").
type binOpKey uint64

func makeBinOpKey(lhs, rhs Label) binOpKey {
	return binOpKey(uint64(lhs.ID())<<32 | uint64(rhs.ID()))
}

type binOpCache struct {
	byOp map[string]map[binOpKey]Label
}

func newBinOpCache() *binOpCache {
	return &binOpCache{byOp: make(map[string]map[binOpKey]Label)}
}

func (c *binOpCache) lookup(op string, key binOpKey) (Label, bool) {
	sub, ok := c.byOp[op]
	if !ok {
		return Sentinel, false
	}
	l, ok := sub[key]
	return l, ok
}

func (c *binOpCache) store(op string, key binOpKey, l Label) {
	sub, ok := c.byOp[op]
	if !ok {
		sub = make(map[binOpKey]Label)
		c.byOp[op] = sub
	}
	sub[key] = l
}

// blockCache dedupes labels denoting a single on-disk block number.
type blockCache struct {
	byBlock map[uintptr]Label
}

func newBlockCache() *blockCache {
	return &blockCache{byBlock: make(map[uintptr]Label)}
}

func (c *blockCache) lookup(nr uintptr) (Label, bool) {
	l, ok := c.byBlock[nr]
	return l, ok
}

func (c *blockCache) store(nr uintptr, l Label) {
	c.byBlock[nr] = l
}
