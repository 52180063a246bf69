package rewrite

// KnownSymbols maps an external (undefined) libc symbol name to the
// runtime replacement it must be rewritten to call instead, per spec
// §4.1.4 ("rename the following undefined functions so that the
// runtime's replacement is linked instead"). Renaming must complete
// before any function body that calls one of these symbols is rewritten
// (spec §5's ordering constraint), which is why NewModule resolves this
// table once, up front, rather than consulting it lazily per call site.
var KnownSymbols = map[string]string{
	"memset":  "fslice_memset",
	"memcpy":  "fslice_memcpy",
	"memmove": "fslice_memmove",
	"strcpy":  "fslice_strcpy",
	"bzero":   "fslice_bzero",
	"malloc":  "fslice_malloc",
	"calloc":  "fslice_calloc",
}

// memIntrinsics is the subset of KnownSymbols that spec §4.1.3 rewrites
// to an entirely different call (deleting the original intrinsic) rather
// than merely renaming the callee — memset/memcpy/memmove take a
// different, taint-shaped argument list at the call site.
var memIntrinsics = map[string]string{
	"memset":  "fslice_memset",
	"memcpy":  "fslice_memcpy",
	"memmove": "fslice_memmove",
}

// SymbolOverrides lets internal/config add or replace entries in
// KnownSymbols (SPEC_FULL §2, "overrides to the known-symbol interception
// table"), returning a fresh copy so the package-level default table is
// never mutated by a caller.
func SymbolOverrides(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(KnownSymbols)+len(overrides))
	for k, v := range KnownSymbols {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
