package main

/*
#include <errno.h>
*/
import "C"

import "github.com/fslice-go/fslice/taint"

// withErrno runs fn with the C-visible errno saved and restored around it,
// per spec §4.2.7: every runtime entry point observable via libc must
// preserve errno across its entire body.
func withErrno(fn func()) {
	saved := C.errno
	fn()
	C.errno = saved
}

//export fslice_load1
func fslice_load1(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 1)) })
	return out
}

//export fslice_load2
func fslice_load2(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 2)) })
	return out
}

//export fslice_load4
func fslice_load4(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 4)) })
	return out
}

//export fslice_load8
func fslice_load8(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 8)) })
	return out
}

//export fslice_load16
func fslice_load16(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 16)) })
	return out
}

//export fslice_load32
func fslice_load32(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 32)) })
	return out
}

//export fslice_load64
func fslice_load64(addr C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Load(uintptr(addr), 64)) })
	return out
}

//export fslice_store1
func fslice_store1(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 1, taint.Label(t)) })
}

//export fslice_store2
func fslice_store2(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 2, taint.Label(t)) })
}

//export fslice_store4
func fslice_store4(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 4, taint.Label(t)) })
}

//export fslice_store8
func fslice_store8(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 8, taint.Label(t)) })
}

//export fslice_store16
func fslice_store16(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 16, taint.Label(t)) })
}

//export fslice_store32
func fslice_store32(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 32, taint.Label(t)) })
}

//export fslice_store64
func fslice_store64(addr C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.Store(uintptr(addr), 64, taint.Label(t)) })
}
