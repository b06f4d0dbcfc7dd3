package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/osprey/pkg/config"
)

func TestRule_Match(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/api/**", "api/users.py", true},
		{"**/api/**", "src/api/v1/users.py", true},
		{"**/api/**", "src/apis/users.py", false},
		{"**/*service*.py", "service.py", true},
		{"**/*service*.py", "app/user_service.py", true},
		{"**/*service*.py", "app/user_service.go", false},
		{"core/", "src/core/domain.py", true},
		{"core/", "scores/x.py", false},
		{"**/views.py", "blog/views.py", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			r, err := NewRule("layer", tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Match(tt.path))
		})
	}
}

func TestNewRule_InvalidGlob(t *testing.T) {
	_, err := NewRule("web", "**/[api/**")
	assert.Error(t, err)
}

func TestRuleSet_FirstMatchWins(t *testing.T) {
	rs, err := CustomRules([]config.LayerDefinition{
		{Name: "web", Patterns: []string{"**/api/**"}},
		{Name: "domain", Patterns: []string{"**/services/**"}},
	})
	require.NoError(t, err)

	layer, ok := rs.Classify("api/services/user.py")
	require.True(t, ok)
	assert.Equal(t, "web", layer)

	// swapping the order changes the result
	swapped, err := CustomRules([]config.LayerDefinition{
		{Name: "domain", Patterns: []string{"**/services/**"}},
		{Name: "web", Patterns: []string{"**/api/**"}},
	})
	require.NoError(t, err)
	layer, _ = swapped.Classify("api/services/user.py")
	assert.Equal(t, "domain", layer)

	_, ok = rs.Classify("scripts/seed.py")
	assert.False(t, ok)
	assert.Equal(t, []string{"web", "domain"}, rs.Layers())
}

func TestBuiltinRules(t *testing.T) {
	tests := []struct {
		projectType string
		path        string
		want        string
	}{
		{"react", "src/pages/index.tsx", Presentation},
		{"nextjs", "app/users/route.ts", Presentation},
		{"node", "src/services/user.service.ts", Business},
		{"typescript", "src/repositories/user.repository.ts", Data},
		{"django", "blog/views.py", Presentation},
		{"flask", "app/services/billing.py", Business},
		{"fastapi", "app/models/user.py", Data},
		{"go", "internal/handler/user.go", Presentation},
		{"go", "internal/user_service.go", Business},
		{"go", "internal/store/postgres.go", Data},
		{"auto", "lib/OrderController.rb", ""},
		{"generic", "lib/order_controller.rb", Presentation},
		{"generic", "lib/order_repository.rb", Data},
	}

	for _, tt := range tests {
		t.Run(tt.projectType+" "+tt.path, func(t *testing.T) {
			layer, _ := BuiltinRules(tt.projectType).Classify(tt.path)
			assert.Equal(t, tt.want, layer)
		})
	}
}

func TestBuiltinRules_AllowedDirection(t *testing.T) {
	rs := BuiltinRules("python")

	assert.True(t, rs.Allowed(Presentation, Business))
	assert.True(t, rs.Allowed(Presentation, Data))
	assert.True(t, rs.Allowed(Business, Data))
	assert.True(t, rs.Allowed(Data, Data))
	assert.False(t, rs.Allowed(Business, Presentation))
	assert.False(t, rs.Allowed(Data, Presentation))
	assert.False(t, rs.Allowed(Data, Business))
}

func TestInferProjectType(t *testing.T) {
	assert.Equal(t, "python", InferProjectType([]string{"a.py", "b.py", "web/app.js"}))
	assert.Equal(t, "go", InferProjectType([]string{"main.go"}))
	assert.Equal(t, "javascript", InferProjectType([]string{"a.tsx", "b.ts"}))
	assert.Equal(t, "auto", InferProjectType([]string{"README.md"}))
}
