package assessment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func assess(t *testing.T, cfg *config.Config, root string) *Result {
	t.Helper()
	res, err := New(cfg, Options{Workers: 2}).
		WithLogger(logger.NewSilentLogger()).
		Assess(context.Background(), root)
	require.NoError(t, err)
	return res
}

func TestAssess_CleanProject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"requirements.txt":            "flask\n",
		"api/users.py":                "from services import user_service\n",
		"services/user_service.py":    "from repositories import user_repo\n",
		"repositories/user_repo.py":   "import sqlite3\n\ndef all(cursor):\n    return cursor.execute(\"SELECT * FROM users\")\n",
		"repositories/__init__.py":    "",
		"services/__init__.py":        "",
		"node_modules/ignored/app.js": "require('x')\n",
	})

	res := assess(t, nil, root)

	assert.Equal(t, "flask", res.ProjectType)
	assert.Equal(t, 5, res.Files)
	assert.Equal(t, EdgeStats{Internal: 2, External: 1}, res.Edges)
	assert.Empty(t, res.Violations)
	assert.Equal(t, 0, res.Summary.Total)
	assert.Empty(t, res.Cycles)
	assert.Equal(t, "presentation", res.Layers["api/users.py"])
	assert.Equal(t, "business", res.Layers["services/user_service.py"])
	assert.Equal(t, "data", res.Layers["repositories/user_repo.py"])
	assert.Equal(t, 1, res.Fan.Get("api/users.py").FanOut)
	require.NotNil(t, res.Graph)
	assert.True(t, res.Graph.Frozen())
	assert.False(t, res.Failed(violation.SeverityLow))
}

func TestAssess_FindsCouplingAndLayerViolations(t *testing.T) {
	root := writeProject(t, map[string]string{
		"requirements.txt":         "flask\n",
		"api/users.py":             "from services import user_service\n\ndef list_users(cursor):\n    return cursor.execute(\"SELECT * FROM users\")\n",
		"services/user_service.py": "from api import users\n",
	})

	res := assess(t, nil, root)

	require.Len(t, res.Violations, 3)

	cycle := res.Violations[0]
	assert.Equal(t, "CPL-1", cycle.ID)
	assert.Equal(t, violation.TypeCircularDependency, cycle.Type)
	assert.Equal(t, "api/users.py", cycle.FilePath)

	sql := res.Violations[1]
	assert.Equal(t, "LSV-1", sql.ID)
	assert.Equal(t, violation.TypeDirectDatabaseAccess, sql.Type)
	assert.Equal(t, violation.SeverityCritical, sql.Severity)
	assert.Equal(t, 4, sql.LineNumber)

	layer := res.Violations[2]
	assert.Equal(t, "LSV-2", layer.ID)
	assert.Equal(t, violation.TypeLayerViolation, layer.Type)
	assert.Equal(t, "services/user_service.py", layer.FilePath)

	require.Len(t, res.Cycles, 1)
	assert.Equal(t, graph.Cycle{"api/users.py", "services/user_service.py", "api/users.py"}, res.Cycles[0])

	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.BySeverity[violation.SeverityCritical])
	assert.Equal(t, 1, res.Summary.ByDimension[violation.DimensionCoupling])
	assert.Equal(t, 2, res.Summary.ByDimension[violation.DimensionLayer])

	assert.True(t, res.Failed(violation.SeverityCritical))
	assert.True(t, res.Failed(violation.SeverityHigh))
}

func TestAssess_ConfiguredProjectTypeWins(t *testing.T) {
	root := writeProject(t, map[string]string{
		"requirements.txt": "flask\n",
		"api/users.py":     "",
	})

	cfg := config.Default()
	cfg.ProjectType = "python"

	res := assess(t, cfg, root)
	assert.Equal(t, "python", res.ProjectType)
}

func TestAssess_WithoutMarkersInfersFromFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"api/users.py":      "",
		"services/users.py": "",
	})

	res := assess(t, nil, root)
	assert.Equal(t, config.ProjectTypeAuto, res.ProjectType)
	assert.Equal(t, "presentation", res.Layers["api/users.py"])
	assert.Equal(t, "business", res.Layers["services/users.py"])
}

func TestAssess_ExcludeFromConfig(t *testing.T) {
	root := writeProject(t, map[string]string{
		"app.py":             "import legacy\n",
		"legacy.py":          "import app\n",
		"migrations/0001.py": "",
	})

	cfg := config.Default()
	cfg.Exclude = []string{"**/legacy.py", "**/migrations/**"}

	res := assess(t, cfg, root)
	assert.Equal(t, 1, res.Files)
	assert.Empty(t, res.Cycles)
	assert.Equal(t, EdgeStats{Internal: 0, External: 1}, res.Edges)
}

func TestAssess_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CouplingThresholds.FanOutMedium = 0

	_, err := New(cfg, Options{}).WithLogger(logger.NewSilentLogger()).Assess(context.Background(), t.TempDir())
	require.Error(t, err)

	var verrs config.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestAssess_MissingRoot(t *testing.T) {
	_, err := New(nil, Options{}).
		WithLogger(logger.NewSilentLogger()).
		Assess(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "scanning project")
}

func TestAssess_Cancelled(t *testing.T) {
	root := writeProject(t, map[string]string{"a.py": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, Options{}).WithLogger(logger.NewSilentLogger()).Assess(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssessGraph(t *testing.T) {
	g, err := graph.Build(
		[]string{"a.py", "b.py", "c.py"},
		[]graph.Edge{
			{From: "a.py", To: "b.py"},
			{From: "b.py", To: "c.py"},
			{From: "c.py", To: "a.py"},
			{From: "c.py", To: "requests", External: true},
		},
	)
	require.NoError(t, err)

	files := []analysis.SourceFile{
		{Path: "a.py", Source: []byte("import b\n")},
		{Path: "b.py", Source: []byte("import c\n")},
		{Path: "c.py", Source: []byte("import a\nimport requests\n")},
	}

	res, err := New(nil, Options{}).
		WithLogger(logger.NewSilentLogger()).
		AssessGraph(context.Background(), "/project", g, files)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, EdgeStats{Internal: 3, External: 1}, res.Edges)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, violation.TypeCircularDependency, res.Violations[0].Type)
	assert.Equal(t, "Circular dependency: a.py -> b.py -> c.py -> a.py", res.Violations[0].Message)
}

func TestAssessGraph_SkipsUnreadableFiles(t *testing.T) {
	g, err := graph.Build([]string{"a.py", "b.py"}, []graph.Edge{{From: "a.py", To: "b.py"}})
	require.NoError(t, err)

	files := []analysis.SourceFile{
		{Path: "a.py", Source: []byte("import b\n")},
		{Path: "b.py", Err: os.ErrPermission},
	}

	res, err := New(nil, Options{}).
		WithLogger(logger.NewSilentLogger()).
		AssessGraph(context.Background(), "/project", g, files)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Files)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "b.py", res.Skipped[0].Path)
	assert.False(t, res.Graph.HasNode("b.py"))
}

func TestAssessGraph_UnreadableFileWithAbsolutePaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	hub := filepath.Join(root, "hub.py")

	g := graph.New()
	files := []analysis.SourceFile{{Path: "hub.py", Err: os.ErrPermission}}
	for i := 0; i < 12; i++ {
		dep := filepath.Join(root, fmt.Sprintf("m%d.py", i))
		require.NoError(t, g.AddDependency(hub, dep, false))
		files = append(files, analysis.SourceFile{Path: dep, Source: []byte("x = 1\n")})
	}

	res, err := New(nil, Options{}).
		WithLogger(logger.NewSilentLogger()).
		AssessGraph(context.Background(), root, g, files)
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "hub.py", res.Skipped[0].Path)
	assert.Empty(t, res.Violations)
	assert.Equal(t, 12, res.Files)
	assert.False(t, res.Graph.HasNode("hub.py"))
	assert.False(t, res.Graph.HasNode(hub))
	assert.True(t, res.Graph.HasNode("m0.py"))
}
