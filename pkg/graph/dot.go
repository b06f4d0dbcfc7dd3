package graph

import (
	"io"

	graphlib "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// WriteDOT writes the graph in Graphviz DOT format. Project files are boxes;
// external packages and the edges into them are dashed and only included
// when withExternal is set.
func (g *DependencyGraph) WriteDOT(w io.Writer, withExternal bool) error {
	v := g.view()
	out := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, n := range v.nodes {
		switch {
		case v.project[n]:
			_ = out.AddVertex(n, graphlib.VertexAttribute("shape", "box"))
		case withExternal:
			_ = out.AddVertex(n,
				graphlib.VertexAttribute("shape", "ellipse"),
				graphlib.VertexAttribute("style", "dashed"))
		}
	}

	for _, e := range g.Edges() {
		if e.External {
			if withExternal {
				_ = out.AddEdge(e.From, e.To, graphlib.EdgeAttribute("style", "dashed"))
			}
			continue
		}
		_ = out.AddEdge(e.From, e.To)
	}

	return draw.DOT(out, w, draw.GraphAttribute("rankdir", "LR"))
}
