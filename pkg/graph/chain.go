package graph

// Chain is the longest simple internal dependency path found from a node
type Chain struct {
	Start string
	Path  []string // nodes from Start to the deepest dependency
	Depth int      // number of edges on Path
}

// LongestChain returns the longest simple internal path starting at path.
//
// Longest simple path is exponential in general graphs, so the search stops
// as soon as a path of limit edges is found; limit <= 0 searches exhaustively.
// Paths never revisit a node, which bounds depth on cyclic graphs.
func (g *DependencyGraph) LongestChain(path string, limit int) Chain {
	return longestChain(g.view().out, path, limit)
}

// ChainDepths computes LongestChain for every project node
func (g *DependencyGraph) ChainDepths(limit int) map[string]Chain {
	v := g.view()
	chains := make(map[string]Chain, len(v.project))
	for _, n := range v.nodes {
		if v.project[n] {
			chains[n] = longestChain(v.out, n, limit)
		}
	}
	return chains
}

func longestChain(out map[string][]string, start string, limit int) Chain {
	type frame struct {
		node string
		next int
	}

	best := []string{start}
	stack := []frame{{node: start}}
	path := []string{start}
	onPath := map[string]bool{start: true}

	for len(stack) > 0 {
		if limit > 0 && len(best)-1 >= limit {
			break
		}

		top := &stack[len(stack)-1]
		succ := out[top.node]

		if top.next >= len(succ) {
			onPath[top.node] = false
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
			continue
		}

		next := succ[top.next]
		top.next++
		if onPath[next] {
			continue
		}

		onPath[next] = true
		stack = append(stack, frame{node: next})
		path = append(path, next)

		if len(path) > len(best) {
			best = append([]string(nil), path...)
		}
	}

	return Chain{Start: start, Path: best, Depth: len(best) - 1}
}
