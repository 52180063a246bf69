package taint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemsetPropagatesFillByteTaint(t *testing.T) {
	rt, _ := newTestRuntime(t)
	const dst uintptr = 0x1000

	valTaint := NewLabel(4, 0, false)
	rt.StoreArg(1, valTaint)

	var written []byte
	rt.Memset(dst, 0xAB, 3, func(d uintptr, v byte, n uintptr) {
		for i := uintptr(0); i < n; i++ {
			written = append(written, v)
		}
	})

	require.Equal(t, []byte{0xAB, 0xAB, 0xAB}, written)
	for i := uintptr(0); i < 3; i++ {
		got := rt.shadow.Get(dst + i)
		require.Equal(t, uint32(4), got.ID())
	}
	require.Equal(t, Sentinel, rt.LoadRet())
}

func TestBzeroClearsShadowAndMemory(t *testing.T) {
	rt, _ := newTestRuntime(t)
	const dst uintptr = 0x2000
	rt.shadow.Set(dst, NewLabel(1, 0, false))

	var zeroed uintptr
	rt.Bzero(dst, 2, func(d uintptr, v byte, n uintptr) { zeroed = n })

	require.Equal(t, Sentinel, rt.shadow.Get(dst))
	require.EqualValues(t, 2, zeroed)
	require.Equal(t, Sentinel, rt.LoadRet())
}

func TestBzeroClearsArgumentChannel(t *testing.T) {
	rt, _ := newTestRuntime(t)
	rt.StoreArg(0, NewLabel(9, 0, false))

	rt.Bzero(0x2000, 1, func(d uintptr, v byte, n uintptr) {})

	require.Equal(t, Sentinel, rt.LoadArg(0), "bzero has no load_ret call site to clear the argument channel, so Bzero itself must")
}

func TestMallocSeedsObjectCellsWithMemFlag(t *testing.T) {
	rt, _ := newTestRuntime(t)
	backing := make([]byte, 16)
	alloc := func(n uintptr) uintptr { return uintptr(0) } // fake base address 0

	rt.StoreArg(0, NewLabel(1, 0, false))
	addr := rt.Malloc(4, alloc)
	_ = backing

	for i := uintptr(0); i < 4; i++ {
		got := rt.shadow.Get(addr + i)
		require.True(t, got.IsObj(), "heap cells default to isObj=true")
		require.Equal(t, uint32(i), got.Offset())
	}
	require.Equal(t, Sentinel, rt.LoadRet())
}

func TestCallocHonorsMemFlagDisabled(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	cfg.MemFlag = false
	rt := NewRuntime(cfg)

	rt.StoreArg(0, Sentinel)
	rt.StoreArg(1, Sentinel)
	addr := rt.Calloc(2, 4, func(n uintptr) uintptr { return 0x8000 })

	for i := uintptr(0); i < 8; i++ {
		got := rt.shadow.Get(addr + i)
		require.False(t, got.IsObj())
	}
}

func TestStrcpyIsMemmoveWithPrecomputedLength(t *testing.T) {
	rt, _ := newTestRuntime(t)
	const src uintptr = 0x9000
	const dst uintptr = 0xA000
	rt.shadow.Set(src, NewLabel(1, 0, false))
	rt.shadow.Set(src+1, NewLabel(1, 1, false))

	rt.Strcpy(dst, src, 2, nil)

	require.Equal(t, rt.shadow.Get(src), rt.shadow.Get(dst))
	require.Equal(t, rt.shadow.Get(src+1), rt.shadow.Get(dst+1))
}
