// Package graph provides the file-level dependency graph analyzers run against.
//
// # Model
//
// Nodes are project-relative file paths. Edges are "depends on" relations
// between two files. An edge may be marked external when its target resolves
// outside the project (a third-party package); external edges are kept for
// completeness but never count toward fan metrics, cycles or chain depth.
//
// The structure is a simple directed graph: adding the same (from, to) pair
// twice is a no-op and the first registration wins.
//
// # Lifecycle
//
//  1. Create with New()
//  2. Populate with AddNode / AddDependency / AddEdges
//  3. Call Freeze() to build the read-only index
//  4. Query with DetectCycles, CalculateFanMetrics, LongestChain, ...
//
// After Freeze() the graph can be read from multiple goroutines. Queries on
// an unfrozen graph are allowed and rebuild the index on every call.
package graph

import (
	"errors"
	"sort"
	"strings"
	"sync"

	graphlib "github.com/dominikbraun/graph"
)

const attrExternal = "external"

// Edge is a single dependency triple as produced by import extraction
type Edge struct {
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	External bool   `json:"external,omitempty" yaml:"external,omitempty"`
}

// DependencyGraph holds every file node and dependency edge of one project snapshot
type DependencyGraph struct {
	mu      sync.RWMutex
	store   graphlib.Graph[string, string]
	project map[string]bool // nodes known to be project files
	frozen  *index
}

// index is the sorted, immutable view queries run against
type index struct {
	nodes    []string
	project  map[string]bool
	out      map[string][]string // internal successors
	in       map[string][]string // internal predecessors
	ext      map[string][]string // external targets
	internal int
	external int
}

// New creates an empty dependency graph
func New() *DependencyGraph {
	return &DependencyGraph{
		store:   graphlib.New(graphlib.StringHash, graphlib.Directed()),
		project: make(map[string]bool),
	}
}

// Build creates a graph from explicit nodes and an edge stream.
// Nodes lets zero-dependency files appear in reports.
func Build(nodes []string, edges []Edge) (*DependencyGraph, error) {
	g := New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	if err := g.AddEdges(edges...); err != nil {
		return nil, err
	}
	return g, nil
}

// AddNode registers a file with no dependencies. Idempotent.
func (g *DependencyGraph) AddNode(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return &ConstructionError{Op: "add node", Err: ErrEmptyPath}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen != nil {
		return &ConstructionError{Op: "add node", From: path, Err: ErrFrozen}
	}
	if err := g.addVertex(path); err != nil {
		return err
	}
	g.project[path] = true
	return nil
}

// AddDependency registers both endpoints and a from -> to edge if the pair
// is not already present.
func (g *DependencyGraph) AddDependency(from, to string, external bool) error {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return &ConstructionError{Op: "add dependency", From: from, To: to, Err: ErrEmptyPath}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen != nil {
		return &ConstructionError{Op: "add dependency", From: from, To: to, Err: ErrFrozen}
	}

	if err := g.addVertex(from); err != nil {
		return err
	}
	if err := g.addVertex(to); err != nil {
		return err
	}

	var opts []func(*graphlib.EdgeProperties)
	if external {
		opts = append(opts, graphlib.EdgeAttribute(attrExternal, "true"))
	}

	if err := g.store.AddEdge(from, to, opts...); err != nil {
		if errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
			return nil
		}
		return &ConstructionError{Op: "add dependency", From: from, To: to, Err: err}
	}

	g.project[from] = true
	if !external {
		g.project[to] = true
	}
	return nil
}

// AddEdges adds a stream of dependency triples, stopping at the first error
func (g *DependencyGraph) AddEdges(edges ...Edge) error {
	for _, e := range edges {
		if err := g.AddDependency(e.From, e.To, e.External); err != nil {
			return err
		}
	}
	return nil
}

func (g *DependencyGraph) addVertex(path string) error {
	err := g.store.AddVertex(path)
	if err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
		return &ConstructionError{Op: "add node", From: path, Err: err}
	}
	return nil
}

// Freeze builds the read-only index. Further mutations return ErrFrozen.
func (g *DependencyGraph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen == nil {
		g.frozen = g.buildIndex()
	}
}

// Frozen reports whether Freeze() has been called
func (g *DependencyGraph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen != nil
}

// view returns the frozen index or a freshly built one
func (g *DependencyGraph) view() *index {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.frozen != nil {
		return g.frozen
	}
	return g.buildIndex()
}

// buildIndex must be called with g.mu held
func (g *DependencyGraph) buildIndex() *index {
	adjacency, err := g.store.AdjacencyMap()
	if err != nil {
		// The in-memory store never fails; keep the graph queryable regardless.
		adjacency = map[string]map[string]graphlib.Edge[string]{}
	}

	idx := &index{
		nodes:   make([]string, 0, len(adjacency)),
		project: make(map[string]bool, len(g.project)),
		out:     make(map[string][]string, len(adjacency)),
		in:      make(map[string][]string, len(adjacency)),
		ext:     make(map[string][]string),
	}

	for from, targets := range adjacency {
		idx.nodes = append(idx.nodes, from)
		for to, edge := range targets {
			if edge.Properties.Attributes[attrExternal] == "true" {
				idx.ext[from] = append(idx.ext[from], to)
				idx.external++
				continue
			}
			idx.out[from] = append(idx.out[from], to)
			idx.in[to] = append(idx.in[to], from)
			idx.internal++
		}
	}

	for n := range g.project {
		idx.project[n] = true
	}

	sort.Strings(idx.nodes)
	for _, m := range []map[string][]string{idx.out, idx.in, idx.ext} {
		for k := range m {
			sort.Strings(m[k])
		}
	}

	return idx
}

// Nodes returns every node path, sorted
func (g *DependencyGraph) Nodes() []string {
	return append([]string(nil), g.view().nodes...)
}

// HasNode reports whether path is a node of the graph
func (g *DependencyGraph) HasNode(path string) bool {
	v := g.view()
	i := sort.SearchStrings(v.nodes, path)
	return i < len(v.nodes) && v.nodes[i] == path
}

// IsExternal reports whether path is only known as the target of external
// edges, i.e. it is a third-party package rather than a project file
func (g *DependencyGraph) IsExternal(path string) bool {
	v := g.view()
	return !v.project[path] && g.HasNode(path)
}

// ProjectNodes returns the nodes that are project files, sorted
func (g *DependencyGraph) ProjectNodes() []string {
	v := g.view()
	nodes := make([]string, 0, len(v.project))
	for _, n := range v.nodes {
		if v.project[n] {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeCount returns the number of nodes
func (g *DependencyGraph) NodeCount() int {
	return len(g.view().nodes)
}

// EdgeCount returns the number of internal and external edges
func (g *DependencyGraph) EdgeCount() (internal, external int) {
	v := g.view()
	return v.internal, v.external
}

// Dependencies returns the internal targets of path, sorted
func (g *DependencyGraph) Dependencies(path string) []string {
	return append([]string(nil), g.view().out[path]...)
}

// ExternalDependencies returns the external targets of path, sorted
func (g *DependencyGraph) ExternalDependencies(path string) []string {
	return append([]string(nil), g.view().ext[path]...)
}

// Dependents returns the internal files depending on path, sorted
func (g *DependencyGraph) Dependents(path string) []string {
	return append([]string(nil), g.view().in[path]...)
}

// Edges returns every edge sorted by (from, to)
func (g *DependencyGraph) Edges() []Edge {
	v := g.view()
	edges := make([]Edge, 0, v.internal+v.external)
	for _, from := range v.nodes {
		for _, to := range v.out[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
		for _, to := range v.ext[from] {
			edges = append(edges, Edge{From: from, To: to, External: true})
		}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Subgraph returns an unfrozen copy without the excluded nodes and any edge touching them
func (g *DependencyGraph) Subgraph(exclude ...string) *DependencyGraph {
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		skip[p] = true
	}

	v := g.view()
	sub := New()
	for _, n := range v.nodes {
		if !skip[n] && v.project[n] {
			_ = sub.AddNode(n)
		}
	}
	for _, e := range g.Edges() {
		if skip[e.From] || skip[e.To] {
			continue
		}
		_ = sub.AddDependency(e.From, e.To, e.External)
	}
	return sub
}
