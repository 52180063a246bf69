package rewrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// buildFunc compiles source (a complete "package main" file) on disk in a
// scratch module and returns the named function's *ssa.Function, the same
// packages.Load-then-ssautil.AllPackages path cmd/fslice's CLI front end
// uses against real programs.
func buildFunc(t *testing.T, source, funcName string) *ssa.Function {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module rewritetest\n\ngo 1.25\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(source), 0o600))

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax | packages.NeedDeps | packages.NeedImports,
		Dir:  dir,
	}, ".")
	require.NoError(t, err)
	require.NotEmpty(t, pkgs)
	require.Empty(t, pkgs[0].Errors)

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()

	require.NotEmpty(t, ssaPkgs)
	fn := ssaPkgs[0].Func(funcName)
	require.NotNil(t, fn, "function %s not found", funcName)
	return fn
}
