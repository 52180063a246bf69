package main

/*
#include <errno.h>
*/
import "C"

//export fslice_read_block
func fslice_read_block(addr, size, nr C.uintptr_t) {
	withErrno(func() { rt.ReadBlock(uintptr(addr), uintptr(size), uintptr(nr)) })
}

//export fslice_write_block
func fslice_write_block(addr, size, nr C.uintptr_t) {
	withErrno(func() { rt.WriteBlock(uintptr(addr), uintptr(size), uintptr(nr)) })
}

//export fslice_name
func fslice_name(addr, length C.uintptr_t) {
	withErrno(func() { rt.Name(uintptr(addr), uintptr(length)) })
}

//export fslice_data
func fslice_data(addr, length C.uintptr_t) {
	withErrno(func() { rt.Data(uintptr(addr), uintptr(length)) })
}
