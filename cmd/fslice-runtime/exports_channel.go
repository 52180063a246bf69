package main

/*
#include <errno.h>
*/
import "C"

import "github.com/fslice-go/fslice/taint"

//export fslice_load_arg
func fslice_load_arg(i C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.LoadArg(int(i))) })
	return out
}

//export fslice_store_arg
func fslice_store_arg(i C.uintptr_t, t C.uint64_t) {
	withErrno(func() { rt.StoreArg(int(i), taint.Label(t)) })
}

//export fslice_load_ret
func fslice_load_ret() (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.LoadRet()) })
	return out
}

//export fslice_store_ret
func fslice_store_ret(t C.uint64_t) {
	withErrno(func() { rt.StoreRet(taint.Label(t)) })
}

//export fslice_value
func fslice_value(v C.uintptr_t) (out C.uint64_t) {
	withErrno(func() { out = C.uint64_t(rt.Value(uintptr(v))) })
	return out
}

//export fslice_op2
func fslice_op2(op *C.char, t1, t2 C.uint64_t) (out C.uint64_t) {
	withErrno(func() {
		out = C.uint64_t(rt.Op2(C.GoString(op), taint.Label(t1), taint.Label(t2)))
	})
	return out
}
