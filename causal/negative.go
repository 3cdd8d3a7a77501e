package causal

// NegativeLoop is a cycle within the temporal core whose negating-edge
// count is odd: no fixed point exists anywhere in its basin, the
// signature of a grandfather-paradox structure.
type NegativeLoop struct {
	Cells []uint16
	Edges []Edge
}

// FindNegativeLoops walks each temporal-core SCC, extracts one
// representative simple cycle restricted to that component's edges,
// and reports it as negative when its negating-edge count is odd.
func FindNegativeLoops(g *Graph, core []SCC) []NegativeLoop {
	var loops []NegativeLoop
	for _, scc := range core {
		cycle := extractCycle(g, scc)
		if cycle == nil {
			continue
		}
		negCount := 0
		for _, e := range cycle {
			if e.Negating {
				negCount++
			}
		}
		if negCount%2 == 1 {
			loops = append(loops, NegativeLoop{Cells: scc.Nodes, Edges: cycle})
		}
	}
	return loops
}

// extractCycle finds one simple cycle contained entirely within scc's
// node set via depth-first search, restricted to edges whose endpoints
// are both members of the component.
func extractCycle(g *Graph, scc SCC) []Edge {
	members := make(map[uint16]bool, len(scc.Nodes))
	for _, n := range scc.Nodes {
		members[n] = true
	}
	if len(scc.Nodes) == 1 {
		n := scc.Nodes[0]
		for _, e := range g.Edges {
			if e.From == n && e.To == n {
				return []Edge{e}
			}
		}
		return nil
	}

	start := scc.Nodes[0]
	visited := make(map[uint16]bool)
	var path []Edge
	var pathNodes []uint16

	var dfs func(n uint16) bool
	dfs = func(n uint16) bool {
		visited[n] = true
		pathNodes = append(pathNodes, n)
		for _, e := range g.Edges {
			if e.From != n || !members[e.To] {
				continue
			}
			if e.To == start && len(path) > 0 {
				path = append(path, e)
				return true
			}
			if !visited[e.To] {
				path = append(path, e)
				if dfs(e.To) {
					return true
				}
				path = path[:len(path)-1]
			}
		}
		pathNodes = pathNodes[:len(pathNodes)-1]
		return false
	}
	if dfs(start) {
		return path
	}
	return nil
}
