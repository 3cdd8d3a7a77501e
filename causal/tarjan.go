package causal

// SCC is one strongly connected component: a set of mutually reachable
// addresses.
type SCC struct {
	Nodes []uint16
}

// tarjanState holds the bookkeeping for one iterative Tarjan pass.
type tarjanState struct {
	g        *Graph
	index    map[uint16]int
	lowlink  map[uint16]int
	onStack  map[uint16]bool
	stack    []uint16
	next     int
	sccs     []SCC
}

// callFrame is one explicit stack entry standing in for a recursive
// strongconnect(v) call, since large temporal cores could otherwise
// overflow the Go call stack.
type callFrame struct {
	node    uint16
	childIx int
}

// TarjanSCC computes the strongly connected components of g using an
// explicit-stack iterative Tarjan pass (no recursion, so component size
// is bounded only by available memory, not the Go call stack).
func TarjanSCC(g *Graph) []SCC {
	st := &tarjanState{
		g:       g,
		index:   make(map[uint16]int),
		lowlink: make(map[uint16]int),
		onStack: make(map[uint16]bool),
	}
	for _, n := range g.Nodes() {
		if _, seen := st.index[n]; !seen {
			st.strongconnect(n)
		}
	}
	return st.sccs
}

func (st *tarjanState) strongconnect(start uint16) {
	frames := []callFrame{{node: start}}
	st.visit(start)

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		children := st.g.adj[f.node]

		if f.childIx < len(children) {
			w := children[f.childIx]
			f.childIx++
			if _, seen := st.index[w]; !seen {
				st.visit(w)
				frames = append(frames, callFrame{node: w})
				continue
			}
			if st.onStack[w] {
				if st.index[w] < st.lowlink[f.node] {
					st.lowlink[f.node] = st.index[w]
				}
			}
			continue
		}

		// All children processed: pop this frame and propagate lowlink up.
		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := &frames[len(frames)-1]
			if st.lowlink[f.node] < st.lowlink[parent.node] {
				st.lowlink[parent.node] = st.lowlink[f.node]
			}
		}
		if st.lowlink[f.node] == st.index[f.node] {
			var comp []uint16
			for {
				n := st.stack[len(st.stack)-1]
				st.stack = st.stack[:len(st.stack)-1]
				st.onStack[n] = false
				comp = append(comp, n)
				if n == f.node {
					break
				}
			}
			st.sccs = append(st.sccs, SCC{Nodes: comp})
		}
	}
}

func (st *tarjanState) visit(v uint16) {
	st.index[v] = st.next
	st.lowlink[v] = st.next
	st.next++
	st.stack = append(st.stack, v)
	st.onStack[v] = true
}

// TemporalCore returns the SCCs that qualify as a temporal core:
// components of size > 1, or a single vertex with a self-edge.
func TemporalCore(g *Graph, sccs []SCC) []SCC {
	var core []SCC
	for _, s := range sccs {
		if len(s.Nodes) > 1 {
			core = append(core, s)
			continue
		}
		n := s.Nodes[0]
		for _, to := range g.adj[n] {
			if to == n {
				core = append(core, s)
				break
			}
		}
	}
	return core
}
