package graph

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, g *DependencyGraph, from, to string) {
	t.Helper()
	require.NoError(t, g.AddDependency(from, to, false))
}

func TestAddNode_Idempotent(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode("app.py"))
	require.NoError(t, g.AddNode("app.py"))

	assert.Equal(t, []string{"app.py"}, g.Nodes())
	assert.True(t, g.HasNode("app.py"))
	assert.False(t, g.HasNode("missing.py"))
}

func TestAddNode_RejectsEmptyPath(t *testing.T) {
	g := New()

	for _, path := range []string{"", "   "} {
		err := g.AddNode(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyPath))

		var cerr *ConstructionError
		assert.True(t, errors.As(err, &cerr))
	}
	assert.Equal(t, 0, g.NodeCount())
}

func TestAddDependency_RejectsEmptyEndpointWithoutCorruption(t *testing.T) {
	g := New()
	mustAdd(t, g, "a.py", "b.py")

	err := g.AddDependency("c.py", "", false)
	require.ErrorIs(t, err, ErrEmptyPath)

	err = g.AddDependency("", "c.py", false)
	require.ErrorIs(t, err, ErrEmptyPath)

	assert.Equal(t, []string{"a.py", "b.py"}, g.Nodes())
	internal, external := g.EdgeCount()
	assert.Equal(t, 1, internal)
	assert.Equal(t, 0, external)
}

func TestAddDependency_IsIdempotent(t *testing.T) {
	g := New()
	mustAdd(t, g, "a.py", "b.py")
	mustAdd(t, g, "a.py", "b.py")

	internal, _ := g.EdgeCount()
	assert.Equal(t, 1, internal)
	assert.Equal(t, []string{"b.py"}, g.Dependencies("a.py"))
	assert.Equal(t, []string{"a.py"}, g.Dependents("b.py"))
}

func TestAddDependency_FirstRegistrationWins(t *testing.T) {
	g := New()
	require.NoError(t, g.AddDependency("a.py", "requests", true))
	require.NoError(t, g.AddDependency("a.py", "requests", false))

	internal, external := g.EdgeCount()
	assert.Equal(t, 0, internal)
	assert.Equal(t, 1, external)
	assert.True(t, g.IsExternal("requests"))
}

func TestExternalTargetsAreNotProjectNodes(t *testing.T) {
	g := New()
	mustAdd(t, g, "a.py", "b.py")
	require.NoError(t, g.AddDependency("a.py", "numpy", true))
	require.NoError(t, g.AddNode("lonely.py"))

	assert.Equal(t, []string{"a.py", "b.py", "lonely.py", "numpy"}, g.Nodes())
	assert.Equal(t, []string{"a.py", "b.py", "lonely.py"}, g.ProjectNodes())
	assert.Equal(t, []string{"numpy"}, g.ExternalDependencies("a.py"))
	assert.False(t, g.IsExternal("a.py"))
}

func TestFreeze_RejectsMutation(t *testing.T) {
	g := New()
	mustAdd(t, g, "a.py", "b.py")
	g.Freeze()

	assert.True(t, g.Frozen())
	assert.ErrorIs(t, g.AddNode("c.py"), ErrFrozen)
	assert.ErrorIs(t, g.AddDependency("a.py", "c.py", false), ErrFrozen)
	assert.Equal(t, []string{"a.py", "b.py"}, g.Nodes())
}

func TestFrozenGraph_ConcurrentReads(t *testing.T) {
	g := New()
	for i := 0; i < 20; i++ {
		mustAdd(t, g, fmt.Sprintf("f%02d.py", i), fmt.Sprintf("f%02d.py", (i+1)%20))
	}
	g.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.CalculateFanMetrics()
			_ = g.DetectCycles()
			_ = g.LongestChain("f00.py", 5)
		}()
	}
	wg.Wait()
}

func TestBuild(t *testing.T) {
	g, err := Build([]string{"util.py"}, []Edge{
		{From: "app.py", To: "service.py"},
		{From: "service.py", To: "sqlalchemy", External: true},
	})
	require.NoError(t, err)

	assert.True(t, g.HasNode("util.py"))
	assert.Equal(t, []string{"service.py"}, g.Dependencies("app.py"))

	_, err = Build(nil, []Edge{{From: "app.py", To: ""}})
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestEdges_Sorted(t *testing.T) {
	g := New()
	mustAdd(t, g, "b.py", "a.py")
	mustAdd(t, g, "a.py", "c.py")
	require.NoError(t, g.AddDependency("a.py", "os", true))

	assert.Equal(t, []Edge{
		{From: "a.py", To: "c.py"},
		{From: "a.py", To: "os", External: true},
		{From: "b.py", To: "a.py"},
	}, g.Edges())
}

func TestSubgraph(t *testing.T) {
	g := New()
	mustAdd(t, g, "a.py", "b.py")
	mustAdd(t, g, "b.py", "c.py")
	mustAdd(t, g, "c.py", "a.py")
	require.NoError(t, g.AddDependency("a.py", "flask", true))
	g.Freeze()

	sub := g.Subgraph("b.py")

	assert.False(t, sub.Frozen())
	assert.False(t, sub.HasNode("b.py"))
	assert.Empty(t, sub.Dependencies("a.py"))
	assert.Equal(t, []string{"a.py"}, sub.Dependencies("c.py"))
	assert.Equal(t, []string{"flask"}, sub.ExternalDependencies("a.py"))
	assert.Empty(t, sub.DetectCycles())
}

func TestWriteDOT(t *testing.T) {
	g := New()
	mustAdd(t, g, "api/users.py", "services/users.py")
	require.NoError(t, g.AddDependency("services/users.py", "sqlalchemy", true))
	g.Freeze()

	var buf bytes.Buffer
	require.NoError(t, g.WriteDOT(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, `"api/users.py" -> "services/users.py"`)
	assert.NotContains(t, out, "sqlalchemy")

	buf.Reset()
	require.NoError(t, g.WriteDOT(&buf, true))
	assert.Contains(t, buf.String(), `"services/users.py" -> "sqlalchemy"`)
}
