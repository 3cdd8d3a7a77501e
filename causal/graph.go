// Package causal builds a causal dependency graph from one or more
// epoch traces and analyzes it for temporal cores, negative
// ("grandfather") loops, and per-cell stability across a trajectory.
package causal

import (
	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/program"
)

// Edge is one causal dependency from an anamnesis address to a present
// address written from a value whose provenance named it. Negating
// reports whether the computation chain from From to To passed through
// a logical Not an odd number of times.
type Edge struct {
	From, To uint16
	Negating bool
}

// Graph is a causal dependency graph over 16-bit memory addresses.
type Graph struct {
	Edges []Edge
	index map[[2]uint16]int
	adj   map[uint16][]uint16
}

// NewGraph returns an empty causal graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[[2]uint16]int), adj: make(map[uint16][]uint16)}
}

// addEdge records a From->To dependency. A repeated (From, To) pair
// combines its Negating flag by OR: if any observed computation chain
// between the two addresses passed through Not an odd number of times,
// the merged edge is treated as negating for cycle-parity purposes.
func (g *Graph) addEdge(from, to uint16, negating bool) {
	key := [2]uint16{from, to}
	if i, ok := g.index[key]; ok {
		if negating {
			g.Edges[i].Negating = true
		}
		return
	}
	g.index[key] = len(g.Edges)
	g.Edges = append(g.Edges, Edge{From: from, To: to, Negating: negating})
	g.adj[from] = append(g.adj[from], to)
}

// Nodes returns every address that appears as an edge endpoint.
func (g *Graph) Nodes() []uint16 {
	seen := make(map[uint16]struct{})
	for _, e := range g.Edges {
		seen[e.From] = struct{}{}
		seen[e.To] = struct{}{}
	}
	out := make([]uint16, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// taint tracks, for one symbolic stack slot, the set of anamnesis
// addresses that structurally contributed to it and whether the chain
// from each has passed through a logical Not an odd number of times.
type taint map[uint16]bool

// xorMerge combines two taint sets: an address present in both inherits
// the XOR of its two parities, since polarity is propagated through
// binary ops by XOR; an address present in only one keeps its parity
// unchanged.
func xorMerge(a, b taint) taint {
	out := make(taint, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; ok {
			out[k] = cur != v
		} else {
			out[k] = v
		}
	}
	return out
}

func flip(a taint) taint {
	out := make(taint, len(a))
	for k, v := range a {
		out[k] = !v
	}
	return out
}

// BuildGraph replays a captured epoch trace symbolically, tracking
// causal taint through the stack the way epoch.Executor tracks real
// values, and for every PresentWrite adds one edge from each anamnesis
// address in the written value's taint to the written address. Requires the trace to have
// been captured with epoch.Config.CaptureTrace set.
func BuildGraph(trace []epoch.TraceEntry) *Graph {
	g := NewGraph()
	var stack []taint
	present := make(map[uint16]taint)

	push := func(t taint) { stack = append(stack, t) }
	pop := func() taint {
		if len(stack) == 0 {
			return nil
		}
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return t
	}
	top := func() taint {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for _, te := range trace {
		if te.IsPush {
			push(nil)
			continue
		}

		switch te.Op {
		case program.NOP, program.HALT, program.PARADOX:
			// no stack effect relevant to taint

		case program.POP, program.OUTPUT:
			pop()

		case program.DUP:
			push(top())

		case program.SWAP:
			b, a := pop(), pop()
			push(b)
			push(a)

		case program.OVER:
			b, a := pop(), pop()
			push(a)
			push(b)
			push(a)

		case program.ROT:
			c, b, a := pop(), pop(), pop()
			push(b)
			push(c)
			push(a)

		case program.DEPTH, program.INPUT:
			push(nil)

		case program.ADD, program.SUB, program.MUL, program.DIV, program.MOD,
			program.AND, program.OR, program.XOR,
			program.EQ, program.NEQ, program.LT, program.GT, program.LTE, program.GTE:
			b, a := pop(), pop()
			push(xorMerge(a, b))

		case program.NOT:
			push(flip(pop()))

		case program.BNOT, program.NEG:
			push(pop())

		case program.ORACLE:
			addrExpr := pop()
			addr := memoryAddr(te)
			push(xorMerge(taint{addr: false}, addrExpr))

		case program.PROPHECY:
			pop() // address expression: doesn't taint the written value's edges
			v := pop()
			addr := memoryAddr(te)
			for src, neg := range v {
				g.addEdge(src, addr, neg)
			}
			present[addr] = v

		case program.PRESENT:
			pop() // address expression
			addr := memoryAddr(te)
			push(present[addr])
		}
	}
	return g
}

func memoryAddr(te epoch.TraceEntry) uint16 {
	if len(te.MemoryOps) == 0 {
		return 0
	}
	return te.MemoryOps[0].Addr
}
