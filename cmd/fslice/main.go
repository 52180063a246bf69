// Command fslice loads a Go program, rewrites every eligible function
// with taint-propagation instrumentation, and prints a summary of the
// resulting plan.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gookit/color"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/fslice-go/fslice/internal/config"
	"github.com/fslice-go/fslice/rewrite"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

var (
	flagConfig  = flag.String("config", "", "path to fslice.yaml (defaults used if empty or missing)")
	flagVersion = flag.Bool("version", false, "print version and exit")
	flagColor   = flag.Bool("color", true, "colorize summary output")
	flagQuiet   = flag.Bool("quiet", false, "suppress per-function summary lines")
	flagReport  = flag.Bool("report", false, "print a prose report instead of the one-line summary")
	flagTrace   = flag.String("traceconv", "", "convert a runtime trace file to JSON Lines and print a summary, instead of rewriting")
)

const version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *flagVersion {
		fmt.Println("fslice version", version)
		return exitSuccess
	}

	if !*flagColor {
		color.Disable()
	}

	if *flagTrace != "" {
		if err := runTraceConv(*flagTrace, os.Stdout, os.Stderr); err != nil {
			log.Println(err)
			return exitFailure
		}
		return exitSuccess
	}

	patterns := flag.Args()
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	logger := log.New(os.Stderr, fmt.Sprintf("fslice[%s]: ", newRunID()), log.LstdFlags)

	cfgPath := *flagConfig
	if cfgPath == "" {
		cfgPath = "fslice.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Println(err)
		return exitFailure
	}

	results, err := rewriteProgram(context.Background(), patterns, cfg, logger)
	if err != nil {
		logger.Println(err)
		return exitFailure
	}

	if *flagReport {
		if err := renderReport(os.Stdout, results); err != nil {
			logger.Println(err)
			return exitFailure
		}
		return exitSuccess
	}

	printSummary(results, *flagQuiet)
	return exitSuccess
}

type functionResult struct {
	name string
	plan *rewrite.Plan
	err  error
}

// rewriteProgram loads patterns with go/packages, builds SSA for every
// loaded package with ssautil, and rewrites every package-level function
// (each *ssa.Function in a package's Members); methods and anonymous
// functions are not included.
func rewriteProgram(ctx context.Context, patterns []string, cfg *config.Config, logger *log.Logger) ([]functionResult, error) {
	pkgs, err := packages.Load(&packages.Config{
		Mode:    packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax | packages.NeedDeps | packages.NeedImports,
		Context: ctx,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("packages contain errors")
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()

	var fns []*ssa.Function
	for _, p := range ssaPkgs {
		if p == nil {
			continue
		}
		for _, member := range p.Members {
			if fn, ok := member.(*ssa.Function); ok {
				fns = append(fns, fn)
			}
		}
	}

	mod := rewrite.NewModule(prog, nil, cfg.SymbolOverrides)
	results, err := mod.BuildModule(ctx, fns)
	if err != nil {
		return nil, fmt.Errorf("build module: %w", err)
	}

	out := make([]functionResult, len(fns))
	for i, fn := range fns {
		r := results[i]
		out[i] = functionResult{name: fn.String(), plan: r.Plan, err: r.Err}
		if r.Err != nil {
			logger.Printf("rewrite failed: %v", r.Err)
		}
	}
	return out, nil
}

func printSummary(results []functionResult, quiet bool) {
	var ok, failed, slots int
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		ok++
		if r.plan != nil {
			slots += r.plan.SlotCount
		}
		if !quiet {
			fmt.Printf("%s %s (%d shadow slots)\n", color.Green.Sprint("rewrote"), r.name, r.plan.SlotCount)
		}
	}
	color.Bold.Printf("fslice: %d functions rewritten, %d failed, %d shadow slots total\n", ok, failed, slots)
}
