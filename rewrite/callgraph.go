package rewrite

import (
	"sync"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/ssa"
)

// callGraph wraps a whole-program CHA call graph (spec §4.1.4,
// "call-graph-assisted classification" — disambiguating interface-
// dispatched calls that *ssa.CallCommon.StaticCallee cannot resolve).
// CHA is conservative (over-approximates callees) but needs no points-to
// analysis, the same tradeoff the deleted static analyzer's Analyze
// function made.
type callGraph struct {
	once sync.Once
	g    *callgraph.Graph
	prog *ssa.Program
}

func newCallGraph(prog *ssa.Program) *callGraph {
	return &callGraph{prog: prog}
}

func (c *callGraph) graph() *callgraph.Graph {
	if c == nil {
		return nil
	}
	c.once.Do(func() {
		if c.prog == nil {
			return
		}
		c.g = cha.CallGraph(c.prog)
	})
	return c.g
}

// PossibleCallees returns every function an interface-dispatched call
// site at instr might reach, per CHA's conservative over-approximation.
// A nil or empty result means the call graph has no record for instr
// (e.g. it predates whole-program construction), not that the call is
// unreachable.
func (c *callGraph) PossibleCallees(instr ssa.Instruction) []*ssa.Function {
	g := c.graph()
	if g == nil {
		return nil
	}
	fn := instr.Parent()
	node, ok := g.Nodes[fn]
	if !ok {
		return nil
	}
	var out []*ssa.Function
	for _, edge := range node.Out {
		if edge.Site != instr {
			continue
		}
		out = append(out, edge.Callee.Func)
	}
	return out
}
