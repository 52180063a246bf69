// Command fslice-runtime builds the fslice taint runtime
// (github.com/fslice-go/fslice/taint) into the C-ABI entry points named in
// spec §6, for linking into an instrumented native program:
//
//	go build -buildmode=c-archive -o libfslice.a ./cmd/fslice-runtime
//
// It is `package main` (not an importable library) because cgo only
// exports C symbols from a main package built in c-archive/c-shared mode.
//
// This command owns the single package-level *taint.Runtime the ABI's
// handle-less function signatures require (spec §9 would prefer an opaque
// handle threaded through every call, but the ABI in §6 has no handle
// parameter, so the hidden state has to live somewhere — here, not in the
// taint package itself). Every exported function saves and restores errno
// across its entire body (spec §4.2.7) since any of them may be called
// between a libc call that sets errno and the program code that reads it.
package main

// main is never invoked when this package is built with
// -buildmode=c-archive or -buildmode=c-shared, but cgo still requires a
// main function to exist.
func main() {}
