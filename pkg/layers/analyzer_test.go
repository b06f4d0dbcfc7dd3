package layers

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

type fixture struct {
	cfg   *config.Config
	files map[string]string
	edges [][2]string
}

func (f fixture) run(t *testing.T) ([]violation.Violation, *Analyzer) {
	t.Helper()

	g := graph.New()
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make([]analysis.SourceFile, 0, len(names))
	for _, name := range names {
		require.NoError(t, g.AddNode(name))
		files = append(files, analysis.SourceFile{Path: name, Source: []byte(f.files[name])})
	}
	for _, e := range f.edges {
		require.NoError(t, g.AddDependency(e[0], e[1], false))
	}

	ac, err := analysis.NewContext("", f.cfg, g, files)
	require.NoError(t, err)

	a := New().WithLogger(logger.NewSilentLogger())
	vs, err := a.Analyze(ac)
	require.NoError(t, err)
	return vs, a
}

func TestDirectDatabaseAccess_SQLInPresentation(t *testing.T) {
	vs, _ := fixture{files: map[string]string{
		"api/users.py": "def list_users(cursor):\n    # fetch everything\n    cursor.execute(\"SELECT * FROM users\")\n",
	}}.run(t)

	require.Len(t, vs, 1)
	v := vs[0]
	assert.Equal(t, violation.TypeDirectDatabaseAccess, v.Type)
	assert.Equal(t, violation.SeverityCritical, v.Severity)
	assert.Contains(t, v.Message, "SQL")
	assert.Equal(t, 3, v.LineNumber)
	assert.Equal(t, "presentation", v.Metadata["layer"])
	assert.Equal(t, "sql", v.Metadata["pattern_type"])
	assert.Equal(t, "LSV-1", v.ID)
}

func TestDirectDatabaseAccess_MultiLineSQLInPresentation(t *testing.T) {
	vs, _ := fixture{files: map[string]string{
		"api/users.py": "def list_users(cursor):\n    cursor.execute(\"\"\"\n        SELECT * FROM users\n        WHERE active = 1\n    \"\"\")\n",
	}}.run(t)

	require.Len(t, vs, 1)
	assert.Equal(t, violation.TypeDirectDatabaseAccess, vs[0].Type)
	assert.Equal(t, violation.SeverityCritical, vs[0].Severity)
	assert.Equal(t, 3, vs[0].LineNumber)
}

func TestDirectDatabaseAccess_ORMInBusiness(t *testing.T) {
	vs, _ := fixture{files: map[string]string{
		"services/user_service.py": "from app.models import User\n\ndef find(uid):\n    return User.query.filter_by(id=uid).first()\n",
	}}.run(t)

	require.Len(t, vs, 1, "database imports are allowed in the business layer")
	assert.Equal(t, violation.SeverityHigh, vs[0].Severity)
	assert.Equal(t, 4, vs[0].LineNumber)
	assert.Equal(t, "orm", vs[0].Metadata["pattern_type"])
	assert.Equal(t, "business", vs[0].Metadata["layer"])
}

func TestDirectDatabaseAccess_ImportInPresentation(t *testing.T) {
	vs, _ := fixture{files: map[string]string{
		"api/users.py": "from flask import jsonify\nfrom app.models import User\n",
	}}.run(t)

	require.Len(t, vs, 1)
	assert.Equal(t, violation.SeverityMedium, vs[0].Severity)
	assert.Equal(t, 2, vs[0].LineNumber)
	assert.Equal(t, "import", vs[0].Metadata["pattern_type"])
	assert.Equal(t, "app.models", vs[0].Metadata["match"])
}

func TestDirectDatabaseAccess_DataLayerIsExempt(t *testing.T) {
	vs, a := fixture{files: map[string]string{
		"repositories/user_repository.py": "import sqlite3\n\ndef all(cur):\n    cur.execute(\"SELECT * FROM users\")\n    return User.query.all()\n",
	}}.run(t)

	assert.Empty(t, vs)
	assert.Equal(t, "data", a.FileLayers()["repositories/user_repository.py"])
}

func TestDirectDatabaseAccess_OneViolationPerLine(t *testing.T) {
	vs, _ := fixture{files: map[string]string{
		"api/admin.py": "session.execute(\"DELETE FROM users WHERE id = 1\")\n",
	}}.run(t)

	require.Len(t, vs, 1)
	assert.Equal(t, "sql", vs[0].Metadata["pattern_type"])
}

func TestDirectDatabaseAccess_UnclassifiedFilesAreScannedButNotReported(t *testing.T) {
	vs, a := fixture{files: map[string]string{
		"scripts/seed.py": "cursor.execute(\"INSERT INTO users VALUES (1)\")\n",
	}}.run(t)

	assert.Empty(t, vs)
	_, classified := a.FileLayers()["scripts/seed.py"]
	assert.False(t, classified)
}

func TestLayerViolation_BusinessToPresentation(t *testing.T) {
	vs, _ := fixture{
		files: map[string]string{
			"services/user_service.py": "from api.views import render\n",
			"api/views.py":             "def render(x):\n    return x\n",
		},
		edges: [][2]string{{"services/user_service.py", "api/views.py"}},
	}.run(t)

	require.Len(t, vs, 1)
	v := vs[0]
	assert.Equal(t, violation.TypeLayerViolation, v.Type)
	assert.Equal(t, violation.SeverityHigh, v.Severity)
	assert.Contains(t, v.Message, "business -> presentation")
	assert.Equal(t, "services/user_service.py", v.FilePath)
	assert.Equal(t, "business", v.Metadata["from_layer"])
	assert.Equal(t, "presentation", v.Metadata["to_layer"])
	assert.Equal(t, "api/views.py", v.Metadata["dependency"])
}

func TestLayerViolation_DataToBusiness(t *testing.T) {
	vs, _ := fixture{
		files: map[string]string{
			"repositories/orders.py": "",
			"services/billing.py":    "",
		},
		edges: [][2]string{{"repositories/orders.py", "services/billing.py"}},
	}.run(t)

	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "data -> business")
}

func TestForwardOnlyDependenciesHaveNoViolations(t *testing.T) {
	vs, a := fixture{
		files: map[string]string{
			"app.py":        "from service import create_user\n",
			"service.py":    "from repository import save\n",
			"repository.py": "import sqlite3\n\ndef save(conn, u):\n    conn.execute(\"INSERT INTO users VALUES (?)\", (u,))\n",
		},
		edges: [][2]string{{"app.py", "service.py"}, {"service.py", "repository.py"}},
	}.run(t)

	assert.Empty(t, vs)
	assert.Equal(t, map[string]string{"service.py": "business", "repository.py": "data"}, a.FileLayers())
}

func TestCustomLayersTakePrecedence(t *testing.T) {
	cfg := config.Default()
	cfg.CustomLayers = []config.LayerDefinition{
		{Name: "web", Patterns: []string{"**/api/**"}, AllowedDependencies: []string{"core"}},
		{Name: "core", Patterns: []string{"core/"}},
	}

	vs, a := fixture{
		cfg: cfg,
		files: map[string]string{
			"api/handlers.py":  "",
			"core/domain.py":   "",
			"services/misc.py": "",
		},
		edges: [][2]string{{"api/handlers.py", "core/domain.py"}, {"core/domain.py", "api/handlers.py"}},
	}.run(t)

	layers := a.FileLayers()
	assert.Equal(t, "web", layers["api/handlers.py"])
	assert.Equal(t, "core", layers["core/domain.py"])
	_, builtin := layers["services/misc.py"]
	assert.False(t, builtin, "built-in rules are replaced by custom layers")

	require.Len(t, vs, 1)
	assert.Contains(t, vs[0].Message, "core -> web")
}

func TestFileLayersIsACopy(t *testing.T) {
	_, a := fixture{files: map[string]string{"api/x.py": ""}}.run(t)

	layers := a.FileLayers()
	layers["api/x.py"] = "tampered"
	assert.Equal(t, "presentation", a.FileLayers()["api/x.py"])
}

func TestEveryViolationIsComplete(t *testing.T) {
	vs, _ := fixture{
		files: map[string]string{
			"api/users.py":      "from app.models import User\ncursor.execute(\"SELECT id FROM users\")\nUser.objects.filter(active=True)\n",
			"services/users.py": "User.objects.filter(active=True)\n",
		},
		edges: [][2]string{{"services/users.py", "api/users.py"}},
	}.run(t)

	require.Len(t, vs, 5)
	for i, v := range vs {
		assert.True(t, strings.HasPrefix(v.ID, "LSV-"), v.ID)
		assert.Equal(t, i+1, mustIndex(t, v.ID))
		assert.NotEmpty(t, v.Recommendation)
		assert.NotEmpty(t, v.Explanation)
		assert.Equal(t, violation.DimensionLayer, v.Dimension)
	}
}

func mustIndex(t *testing.T, id string) int {
	t.Helper()
	var n int
	for _, r := range strings.TrimPrefix(id, "LSV-") {
		require.True(t, r >= '0' && r <= '9', id)
		n = n*10 + int(r-'0')
	}
	return n
}

func TestUnclassifiedFilesAreLoggedAtInfo(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode("scripts/seed.py"))
	ac, err := analysis.NewContext("", nil, g, []analysis.SourceFile{{Path: "scripts/seed.py", Source: []byte("x = 1\n")}})
	require.NoError(t, err)

	var buf strings.Builder
	vs, err := New().WithLogger(logger.NewLogger(logger.LevelInfo, &buf)).Analyze(ac)
	require.NoError(t, err)

	assert.Empty(t, vs)
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "File matches no layer rule | file=scripts/seed.py")
}
