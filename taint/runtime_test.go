package taint

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) (*Runtime, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := DefaultRuntimeConfig()
	cfg.Sink = &buf
	rt := NewRuntime(cfg)
	rt.emitter.AutoFlush(true)
	return rt, &buf
}

func traceLines(buf *bytes.Buffer) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(buf.String()))
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	return lines
}

// Scenario A — constant + constant: x = 2 + 3; return x;
func TestScenarioA_ConstantPlusConstant(t *testing.T) {
	rt, buf := newTestRuntime(t)

	t1 := rt.Value(2)
	t2 := rt.Value(3)
	t3 := rt.Op2("add", t1, t2)

	require.Equal(t, uint32(1), t1.ID())
	require.Equal(t, uint32(2), t2.ID())
	require.Equal(t, uint32(3), t3.ID())

	lines := traceLines(buf)
	require.Equal(t, []string{
		`t1=V(2)`,
		`t2=V(3)`,
		`t3=A("add",t1,t2)`,
	}, lines)
}

// Scenario B — memory round trip: int a; a = 5; int b = a; return b;
func TestScenarioB_MemoryRoundTrip(t *testing.T) {
	rt, _ := newTestRuntime(t)

	const addrA uintptr = 0x1000
	t1 := rt.Value(5)
	rt.Store(addrA, 4, t1)

	for i := uintptr(0); i < 4; i++ {
		got := rt.shadow.Get(addrA + i)
		require.Equal(t, t1.ID(), got.ID())
		require.Equal(t, uint32(i), got.Offset())
	}

	t2 := rt.Load(addrA, 4)
	require.True(t, t2.IsTainted())

	rt.StoreRet(t2)
	require.Equal(t, t2, rt.LoadRet())
}

// Scenario D — block ingestion then propagation.
func TestScenarioD_BlockIngestionThenPropagation(t *testing.T) {
	rt, buf := newTestRuntime(t)

	sizeTaint := NewLabel(10, 0, false)
	nrTaint := NewLabel(11, 0, false)
	rt.StoreArg(1, sizeTaint)
	rt.StoreArg(2, nrTaint)

	const buffer uintptr = 0x2000
	rt.ReadBlock(buffer, 8, 42)

	lines := traceLines(buf)
	require.Len(t, lines, 1)
	require.Equal(t, `t1=B(8,42,t10,t11)`, lines[0])

	// load the first 4 bytes: all share block label t1 at offsets 0..3.
	loaded := rt.Load(buffer, 4)
	require.True(t, loaded.IsTainted())
	secondBlock := traceLines(buf)
	require.Len(t, secondBlock, 2)
	require.Equal(t, `t2=O(t1[0],t1[1],t1[2],t1[3])`, secondBlock[1])
}

// Scenario E — memmove provenance.
func TestScenarioE_MemmoveProvenance(t *testing.T) {
	rt, _ := newTestRuntime(t)

	const src uintptr = 0x3000
	const dst uintptr = 0x4000
	t5 := NewLabel(5, 0, false)
	for i := uintptr(0); i < 4; i++ {
		rt.shadow.Set(src+i, NewLabel(5, uint32(i), false))
	}

	rt.StoreArg(0, t5) // dst taint, unused by Memmove but stored like a real call site would
	rt.Memmove(dst, src, 4, nil)

	for i := uintptr(0); i < 4; i++ {
		require.Equal(t, rt.shadow.Get(src+i), rt.shadow.Get(dst+i))
	}
	require.Equal(t, Sentinel, rt.LoadRet())
}

// Scenario F — string tag: fslice_name(p,5) then fslice_data(p,5).
func TestScenarioF_NameThenData(t *testing.T) {
	rt, buf := newTestRuntime(t)

	const p uintptr = 0x5000
	rt.Name(p, 5)
	lines := traceLines(buf)
	require.Equal(t, `t1=N(5)`, lines[0])

	// absorb pre-existing taint: seed one byte before calling Data.
	rt.shadow.Set(p+2, NewLabel(99, 0, false))

	buf.Reset()
	rt.Data(p, 5)
	dataLines := traceLines(buf)
	require.Equal(t, `t2=D(5)`, dataLines[0])

	foundCrossEdge := false
	for _, l := range dataLines[1:] {
		if l == `t2[2]=t99[0]` {
			foundCrossEdge = true
		}
	}
	require.True(t, foundCrossEdge, "expected a cross-edge absorbing the pre-existing taint at offset 2, got %v", dataLines)

	for i := uintptr(0); i < 5; i++ {
		got := rt.shadow.Get(p + i)
		require.Equal(t, uint32(2), got.ID())
		require.Equal(t, uint32(i), got.Offset())
	}
}

// Dedup law: identical op2/value calls return the same label.
func TestDedupLaw(t *testing.T) {
	rt, _ := newTestRuntime(t)

	v1 := rt.Value(123)
	v2 := rt.Value(123)
	require.Equal(t, v1, v2)

	a := NewLabel(1, 0, false)
	b := NewLabel(2, 0, false)
	op1 := rt.Op2("xor", a, b)
	op2 := rt.Op2("xor", a, b)
	require.Equal(t, op1, op2)

	// different operator name must not collide even with identical operands.
	op3 := rt.Op2("add", a, b)
	require.NotEqual(t, op1, op3)
}

// Op2 on two untainted operands returns the sentinel without emitting.
func TestOp2BothUntaintedReturnsSentinel(t *testing.T) {
	rt, buf := newTestRuntime(t)
	result := rt.Op2("add", Sentinel, Sentinel)
	require.Equal(t, Sentinel, result)
	require.Empty(t, traceLines(buf))
}

// Channel hygiene (spec §8 property 5).
func TestChannelHygiene(t *testing.T) {
	rt, _ := newTestRuntime(t)

	t1 := NewLabel(7, 0, false)
	rt.StoreArg(3, t1)
	require.Equal(t, t1, rt.LoadArg(3))
	require.Equal(t, Sentinel, rt.LoadArg(3), "second read without a store must see sentinel")

	rt.StoreArg(4, t1)
	rt.StoreRet(NewLabel(8, 0, false))
	require.Equal(t, Sentinel, rt.LoadArg(4), "store_ret must clear the argument array")

	rt.StoreArg(5, t1)
	_ = rt.LoadRet()
	require.Equal(t, Sentinel, rt.LoadArg(5), "load_ret must clear the argument array")
}

// Sentinel closure (spec §8 property 2): loading an all-untainted region
// either returns Sentinel directly or an object whose refs are all t0[0].
// This implementation always mints an object record (the contiguous
// short-circuit open question, resolved "not implemented" — SPEC_FULL §9),
// so an all-sentinel region resolves to a fresh label referencing only
// t0[0] entries.
func TestSentinelClosure(t *testing.T) {
	rt, buf := newTestRuntime(t)
	const addr uintptr = 0x9000

	l := rt.Load(addr, 4)
	require.True(t, l.IsTainted(), "this implementation always mints an object record")

	lines := traceLines(buf)
	require.Len(t, lines, 1)
	require.Equal(t, `t1=O(t0[0],t0[0],t0[0],t0[0])`, lines[0])
}

// Offset monotonicity (spec §8 property 3).
func TestOffsetMonotonicity(t *testing.T) {
	rt, _ := newTestRuntime(t)
	const addr uintptr = 0xA000

	t1 := rt.Value(55)
	rt.Store(addr, 4, t1)
	for i := uintptr(0); i < 4; i++ {
		got := rt.shadow.Get(addr + i)
		require.Equal(t, t1.ID(), got.ID())
		require.Equal(t, t1.Offset()+uint32(i), got.Offset())
	}
	loaded := rt.Load(addr, 4)

	// Re-deriving the same region a second time must hit the same object
	// cache entry.
	loadedAgain := rt.Load(addr, 4)
	require.Equal(t, loaded, loadedAgain)
}

// Store into an object cell emits a cross-edge instead of overwriting it.
func TestStoreIntoObjectCellEmitsCrossEdge(t *testing.T) {
	rt, buf := newTestRuntime(t)
	const addr uintptr = 0xB000

	objLabel := NewLabel(3, 0, true)
	rt.shadow.Set(addr, objLabel)

	srcLabel := NewLabel(9, 2, false)
	rt.Store(addr, 1, srcLabel)

	require.Equal(t, objLabel, rt.shadow.Get(addr), "object cell must not be mutated")
	lines := traceLines(buf)
	require.Equal(t, []string{`t3[0]=t9[2]`}, lines)
}
