package graph

import (
	"slices"
	"sort"
	"strings"

	graphlib "github.com/dominikbraun/graph"
)

// Cycle is a closed path: the first node is repeated at the end.
// A -> B -> C -> A is stored as [A B C A].
type Cycle []string

// Len counts the nodes of the sequence including the repeated start
func (c Cycle) Len() int {
	return len(c)
}

// Nodes returns the distinct members of the cycle in order
func (c Cycle) Nodes() []string {
	if len(c) == 0 {
		return nil
	}
	return append([]string(nil), c[:len(c)-1]...)
}

// Start returns the canonical first node
func (c Cycle) Start() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// String renders the cycle as "a -> b -> a"
func (c Cycle) String() string {
	return strings.Join(c, " -> ")
}

// DetectCycles returns every elementary cycle of the internal subgraph.
//
// Each cycle is reported once, rotated to start at its lexicographically
// smallest node. External edges are never followed. The result is sorted.
func (g *DependencyGraph) DetectCycles() []Cycle {
	v := g.view()

	var cycles []Cycle
	seen := make(map[string]bool)

	for _, comp := range v.cyclicComponents() {
		member := make(map[string]bool, len(comp))
		for _, n := range comp {
			member[n] = true
		}
		for _, start := range comp {
			for _, c := range cyclesFrom(v.out, start, member) {
				key := strings.Join(c, "\x00")
				if seen[key] {
					continue
				}
				seen[key] = true
				cycles = append(cycles, c)
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

// HasCycles reports whether the internal subgraph contains a cycle
func (g *DependencyGraph) HasCycles() bool {
	return len(g.DetectCycles()) > 0
}

// cyclicComponents returns the strongly connected components that can hold
// a cycle: more than one member, or a single member with a self edge.
// Members of each component are sorted.
func (idx *index) cyclicComponents() [][]string {
	internal := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for _, n := range idx.nodes {
		_ = internal.AddVertex(n)
	}
	for _, from := range idx.nodes {
		for _, to := range idx.out[from] {
			_ = internal.AddEdge(from, to)
		}
	}

	comps, err := graphlib.StronglyConnectedComponents(internal)
	if err != nil {
		// Fall back to one component holding everything; the DFS below is still exact.
		comps = [][]string{append([]string(nil), idx.nodes...)}
	}

	cyclic := make([][]string, 0, len(comps))
	for _, comp := range comps {
		if len(comp) == 1 && !slices.Contains(idx.out[comp[0]], comp[0]) {
			continue
		}
		sorted := append([]string(nil), comp...)
		sort.Strings(sorted)
		cyclic = append(cyclic, sorted)
	}
	return cyclic
}

// cyclesFrom enumerates the cycles whose smallest node is start, restricted
// to members of start's component. It is an explicit-stack DFS: the path
// stack holds the current simple path and onPath marks its members.
func cyclesFrom(out map[string][]string, start string, member map[string]bool) []Cycle {
	type frame struct {
		node string
		next int
	}

	allowed := func(n string) bool {
		return member[n] && n >= start
	}

	var cycles []Cycle
	stack := []frame{{node: start}}
	path := []string{start}
	onPath := map[string]bool{start: true}

	for len(stack) > 0 {
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

		switch {
		case next == start:
			c := make(Cycle, 0, len(path)+1)
			c = append(c, path...)
			c = append(c, start)
			cycles = append(cycles, c)
		case !allowed(next) || onPath[next]:
			// outside the component, below start, or already on the path
		default:
			onPath[next] = true
			stack = append(stack, frame{node: next})
			path = append(path, next)
		}
	}

	return cycles
}
