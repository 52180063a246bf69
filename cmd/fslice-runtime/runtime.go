package main

import (
	"os"
	"strconv"

	"github.com/fslice-go/fslice/taint"
)

// rt is the process-wide runtime every exported C function delegates to.
// It is initialized once at package load from the environment, the only
// configuration channel available to code linked into an arbitrary host
// binary (there is no main() of ours to parse flags in). FSLICE_TRACE_FD
// lets the host redirect the emitter away from stderr (spec §6, "Emitter
// sink... implementations may provide a configuration hook").
var rt = taint.NewRuntime(runtimeConfigFromEnv())

func runtimeConfigFromEnv() taint.RuntimeConfig {
	cfg := taint.DefaultRuntimeConfig()
	if v := os.Getenv("FSLICE_MEM_FLAG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MemFlag = b
		}
	}
	if v := os.Getenv("FSLICE_TRACE_FD"); v != "" {
		if fd, err := strconv.Atoi(v); err == nil {
			cfg.Sink = os.NewFile(uintptr(fd), "fslice-trace")
		}
	}
	return cfg
}
