package main

/*
#include <errno.h>
#include <string.h>
#include <stdlib.h>

static void *fslice_c_memset(void *dst, int val, size_t n) { return memset(dst, val, n); }
static void *fslice_c_memcpy(void *dst, const void *src, size_t n) { return memcpy(dst, src, n); }
static void *fslice_c_memmove(void *dst, const void *src, size_t n) { return memmove(dst, src, n); }
static size_t fslice_c_strlen(const char *s) { return strlen(s); }
*/
import "C"

import "unsafe"

// cMemSet/cMemMove adapt libc's real memset/memmove to the
// taint.MemSetter/taint.MemMover hook signatures the taint package
// expects, so the shadow-propagation logic in package taint never has to
// know about unsafe.Pointer.
func cMemSet(dst uintptr, val byte, n uintptr) {
	C.fslice_c_memset(unsafe.Pointer(dst), C.int(val), C.size_t(n)) //nolint:govet // addr comes from instrumented code, not a Go object
}

func cMemMove(dst, src uintptr, n uintptr) {
	C.fslice_c_memmove(unsafe.Pointer(dst), unsafe.Pointer(src), C.size_t(n)) //nolint:govet
}

func cAlloc(n uintptr) uintptr {
	p := C.malloc(C.size_t(n))
	C.memset(p, 0, C.size_t(n))
	return uintptr(p)
}

//export fslice_memset
func fslice_memset(dst C.uintptr_t, val C.int, n C.uintptr_t) {
	withErrno(func() { rt.Memset(uintptr(dst), byte(val), uintptr(n), cMemSet) })
}

//export fslice_memcpy
func fslice_memcpy(dst, src C.uintptr_t, n C.uintptr_t) {
	withErrno(func() { rt.Memcpy(uintptr(dst), uintptr(src), uintptr(n), cMemMove) })
}

//export fslice_memmove
func fslice_memmove(dst, src C.uintptr_t, n C.uintptr_t) {
	withErrno(func() { rt.Memmove(uintptr(dst), uintptr(src), uintptr(n), cMemMove) })
}

//export fslice_strcpy
func fslice_strcpy(dst, src C.uintptr_t) {
	withErrno(func() {
		length := uintptr(C.fslice_c_strlen((*C.char)(unsafe.Pointer(src)))) + 1
		rt.Strcpy(uintptr(dst), uintptr(src), length, cMemMove)
	})
}

//export fslice_bzero
func fslice_bzero(dst C.uintptr_t, n C.uintptr_t) {
	withErrno(func() { rt.Bzero(uintptr(dst), uintptr(n), cMemSet) })
}

//export fslice_malloc
func fslice_malloc(n C.uintptr_t) (out C.uintptr_t) {
	withErrno(func() { out = C.uintptr_t(rt.Malloc(uintptr(n), cAlloc)) })
	return out
}

//export fslice_calloc
func fslice_calloc(num, size C.uintptr_t) (out C.uintptr_t) {
	withErrno(func() { out = C.uintptr_t(rt.Calloc(uintptr(num), uintptr(size), cAlloc)) })
	return out
}
