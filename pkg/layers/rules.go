package layers

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/simonhull/firebird-suite/osprey/pkg/config"
)

// Built-in layer names
const (
	Presentation = "presentation"
	Business     = "business"
	Data         = "data"
)

// Rule maps a path pattern to a layer.
//
// Patterns containing glob meta characters (* ? [ {) are compiled with "/" as
// the separator and matched against "/"+path, so "**/api/**" also matches a
// top-level "api/users.py". Other patterns are substring matches on "/"+path.
type Rule struct {
	Layer   string
	Pattern string
	g       glob.Glob
}

// NewRule compiles a rule
func NewRule(layer, pattern string) (Rule, error) {
	r := Rule{Layer: layer, Pattern: pattern}
	if strings.ContainsAny(pattern, "*?[{") {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return Rule{}, fmt.Errorf("compiling pattern %q for layer %s: %w", pattern, layer, err)
		}
		r.g = g
	}
	return r, nil
}

// Match reports whether path falls under the rule
func (r Rule) Match(p string) bool {
	subject := "/" + strings.TrimPrefix(p, "/")
	if r.g != nil {
		return r.g.Match(subject)
	}
	return strings.Contains(subject, r.Pattern)
}

// RuleSet is an ordered list of rules plus the allowed dependency direction
// between layers. The first matching rule wins.
type RuleSet struct {
	Name    string
	rules   []Rule
	allowed map[string][]string
}

// Rules returns the rules in priority order
func (rs *RuleSet) Rules() []Rule {
	return slices.Clone(rs.rules)
}

// Classify returns the layer of path, or false when no rule matches
func (rs *RuleSet) Classify(p string) (string, bool) {
	for _, r := range rs.rules {
		if r.Match(p) {
			return r.Layer, true
		}
	}
	return "", false
}

// Allowed reports whether a file in layer from may depend on one in layer to.
// Dependencies inside one layer are always allowed.
func (rs *RuleSet) Allowed(from, to string) bool {
	if from == to {
		return true
	}
	return slices.Contains(rs.allowed[from], to)
}

// Layers lists the layer names in rule order without duplicates
func (rs *RuleSet) Layers() []string {
	var names []string
	for _, r := range rs.rules {
		if !slices.Contains(names, r.Layer) {
			names = append(names, r.Layer)
		}
	}
	return names
}

// CustomRules compiles user-defined layers. Their order is the priority order.
func CustomRules(defs []config.LayerDefinition) (*RuleSet, error) {
	rs := &RuleSet{Name: "custom", allowed: make(map[string][]string, len(defs))}
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		for _, p := range d.Patterns {
			r, err := NewRule(name, p)
			if err != nil {
				return nil, err
			}
			rs.rules = append(rs.rules, r)
		}
		for _, dep := range d.AllowedDependencies {
			rs.allowed[name] = append(rs.allowed[name], strings.TrimSpace(dep))
		}
	}
	return rs, nil
}

var builtinAllowed = map[string][]string{
	Presentation: {Business, Data},
	Business:     {Data},
	Data:         {},
}

// builtinPatterns are listed presentation, business, data per project family
var builtinPatterns = map[string]map[string][]string{
	"javascript": {
		Presentation: {"**/api/**", "**/routes/**", "**/pages/**", "**/app/**/route.*", "**/controllers/**", "**/components/**", "**/*.controller.*"},
		Business:     {"**/services/**", "**/service/**", "**/usecases/**", "**/domain/**", "**/*.service.*"},
		Data:         {"**/repositories/**", "**/repository/**", "**/models/**", "**/db/**", "**/prisma/**", "**/*.repository.*", "**/*.model.*"},
	},
	"python": {
		Presentation: {"**/views/**", "**/views.py", "**/api/**", "**/routes/**", "**/routers/**", "**/endpoints/**", "**/controllers/**", "**/handlers/**"},
		Business:     {"**/services/**", "**/service/**", "**/domain/**", "**/usecases/**", "**/use_cases/**", "**/*service*.py"},
		Data:         {"**/repositories/**", "**/repository/**", "**/models/**", "**/models.py", "**/db/**", "**/dao/**", "**/*repositor*.py"},
	},
	"go": {
		Presentation: {"**/handlers/**", "**/handler/**", "**/api/**", "**/http/**", "**/transport/**", "**/*_handler.go"},
		Business:     {"**/services/**", "**/service/**", "**/usecase/**", "**/usecases/**", "**/domain/**", "**/*_service.go"},
		Data:         {"**/repository/**", "**/repositories/**", "**/store/**", "**/storage/**", "**/db/**", "**/models/**", "**/*_repository.go"},
	},
	"generic": {
		Presentation: {"**/api/**", "**/routes/**", "**/controllers/**", "**/handlers/**", "**/views/**", "**/pages/**", "**/*controller*", "**/*handler*", "**/views.*"},
		Business:     {"**/services/**", "**/service/**", "**/domain/**", "**/usecases/**", "**/*service*"},
		Data:         {"**/repositories/**", "**/repository/**", "**/models/**", "**/db/**", "**/dao/**", "**/*repositor*", "**/models.*"},
	},
}

var projectFamilies = map[string]string{
	"react": "javascript", "nextjs": "javascript", "node": "javascript",
	"javascript": "javascript", "typescript": "javascript",
	"python": "python", "django": "python", "flask": "python", "fastapi": "python",
	"go": "go",
}

// BuiltinRules returns the rule set for a project type. Unknown types and
// "auto" fall back to the generic rules.
func BuiltinRules(projectType string) *RuleSet {
	family, ok := projectFamilies[strings.ToLower(projectType)]
	if !ok {
		family = "generic"
	}

	rs := &RuleSet{Name: family, allowed: builtinAllowed}
	for _, layer := range []string{Presentation, Business, Data} {
		for _, p := range builtinPatterns[family][layer] {
			r, err := NewRule(layer, p)
			if err != nil {
				panic(err) // built-in patterns are constant
			}
			rs.rules = append(rs.rules, r)
		}
	}
	return rs
}

// InferProjectType guesses the project family from file extensions
func InferProjectType(paths []string) string {
	counts := map[string]int{}
	for _, p := range paths {
		switch path.Ext(p) {
		case ".py":
			counts["python"]++
		case ".go":
			counts["go"]++
		case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs":
			counts["javascript"]++
		}
	}

	best, bestN := config.ProjectTypeAuto, 0
	for _, family := range []string{"python", "go", "javascript"} {
		if counts[family] > bestN {
			best, bestN = family, counts[family]
		}
	}
	return best
}
