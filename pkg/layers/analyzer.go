// Package layers classifies files into architectural layers and reports
// direct database access from upper layers and dependencies that point
// against the allowed layer direction.
package layers

import (
	"fmt"
	"maps"
	"sync"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// IDPrefix prefixes the IDs of layer violations
const IDPrefix = "LSV"

// Analyzer detects layer violations. Each instance owns its classification
// table; run one instance per assessment when analyzing concurrently.
type Analyzer struct {
	mu         sync.RWMutex
	fileLayers map[string]string

	rules  *RuleSet // overrides rules derived from the context when set
	logger logger.Logger
}

var _ analysis.Analyzer = (*Analyzer)(nil)

// New creates a layer Analyzer
func New() *Analyzer {
	return &Analyzer{
		fileLayers: make(map[string]string),
		logger:     logger.Default(),
	}
}

// WithLogger returns a new Analyzer with the specified logger
func (a *Analyzer) WithLogger(log logger.Logger) *Analyzer {
	return &Analyzer{
		fileLayers: make(map[string]string),
		rules:      a.rules,
		logger:     log,
	}
}

// WithRules returns a new Analyzer that always classifies with rs
func (a *Analyzer) WithRules(rs *RuleSet) *Analyzer {
	return &Analyzer{
		fileLayers: make(map[string]string),
		rules:      rs,
		logger:     a.logger,
	}
}

// Name returns the analyzer name
func (a *Analyzer) Name() string {
	return "layers"
}

// Description returns a one-line summary of what the analyzer checks
func (a *Analyzer) Description() string {
	return "Classifies files into architectural layers and detects direct database access and reversed layer dependencies"
}

// FileLayers returns a copy of the classification table from the last run.
// Unclassified files are absent.
func (a *Analyzer) FileLayers() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return maps.Clone(a.fileLayers)
}

// Analyze classifies every file, scans it for database access and checks
// every internal dependency edge against the allowed layer direction
func (a *Analyzer) Analyze(ac *analysis.Context) ([]violation.Violation, error) {
	rs, err := a.ruleSet(ac)
	if err != nil {
		return nil, err
	}

	layers := a.classify(ac, rs)

	var vs []violation.Violation
	for _, f := range ac.Files {
		layer, ok := layers[f.Path]
		for _, hit := range Detect(f.Source) {
			if !ok {
				a.logger.Debug("Database access in unclassified file",
					logger.F("file", f.Path), logger.F("line", hit.Line), logger.F("pattern", hit.Pattern))
				continue
			}
			if v, found := databaseAccess(f.Path, layer, hit); found {
				vs = append(vs, v)
			}
		}
	}

	if ac.Graph != nil {
		for _, e := range ac.Graph.Edges() {
			if e.External {
				continue
			}
			from, okFrom := layers[e.From]
			to, okTo := layers[e.To]
			if !okFrom || !okTo || rs.Allowed(from, to) {
				continue
			}
			vs = append(vs, layerViolation(e.From, e.To, from, to))
		}
	}

	violation.Sort(vs)
	violation.AssignIDs(IDPrefix, vs)

	a.logger.Debug("Layer analysis complete",
		logger.F("rules", rs.Name),
		logger.F("classified", len(layers)),
		logger.F("violations", len(vs)))

	return vs, nil
}

func (a *Analyzer) ruleSet(ac *analysis.Context) (*RuleSet, error) {
	if a.rules != nil {
		return a.rules, nil
	}
	if custom := ac.CustomLayers(); len(custom) > 0 {
		return CustomRules(custom)
	}

	pt := ac.ProjectType()
	if pt == config.ProjectTypeAuto {
		paths := make([]string, len(ac.Files))
		for i, f := range ac.Files {
			paths[i] = f.Path
		}
		pt = InferProjectType(paths)
	}
	return BuiltinRules(pt), nil
}

// classify rebuilds the classification table for files and graph project nodes
func (a *Analyzer) classify(ac *analysis.Context, rs *RuleSet) map[string]string {
	paths := make([]string, 0, len(ac.Files))
	for _, f := range ac.Files {
		paths = append(paths, f.Path)
	}
	if ac.Graph != nil {
		paths = append(paths, ac.Graph.ProjectNodes()...)
	}

	layers := make(map[string]string, len(paths))
	for _, p := range paths {
		if _, done := layers[p]; done {
			continue
		}
		if layer, ok := rs.Classify(p); ok {
			layers[p] = layer
		} else {
			a.logger.Info("File matches no layer rule", logger.F("file", p))
		}
	}

	a.mu.Lock()
	a.fileLayers = layers
	a.mu.Unlock()

	return maps.Clone(layers)
}

// severityFor returns the severity for a pattern in a layer, or false when
// that access is acceptable there
func severityFor(layer string, p PatternType) (violation.Severity, bool) {
	switch layer {
	case Presentation:
		switch p {
		case PatternSQL:
			return violation.SeverityCritical, true
		case PatternORM:
			return violation.SeverityHigh, true
		case PatternImport:
			return violation.SeverityMedium, true
		}
	case Business:
		switch p {
		case PatternSQL, PatternORM:
			return violation.SeverityHigh, true
		}
	}
	return "", false
}

func databaseAccess(file, layer string, hit Hit) (violation.Violation, bool) {
	sev, ok := severityFor(layer, hit.Pattern)
	if !ok {
		return violation.Violation{}, false
	}

	v := violation.Violation{
		Type:       violation.TypeDirectDatabaseAccess,
		Severity:   sev,
		Dimension:  violation.DimensionLayer,
		FilePath:   file,
		LineNumber: hit.Line,
		Metadata: map[string]any{
			"layer":        layer,
			"pattern_type": string(hit.Pattern),
			"match":        hit.Match,
		},
	}

	switch hit.Pattern {
	case PatternSQL:
		v.Message = fmt.Sprintf("Raw SQL query in %s layer: %s", layer, hit.Match)
		v.Recommendation = "Move the query into a repository or data-access module and call it through a service."
		v.Explanation = "SQL embedded in upper layers couples them to the schema and spreads persistence logic across the codebase."
	case PatternORM:
		v.Message = fmt.Sprintf("ORM query in %s layer: %s", layer, hit.Match)
		v.Recommendation = "Wrap the query in a repository method and depend on that instead of the ORM model."
		v.Explanation = "Building queries outside the data layer leaks persistence details into domain logic and makes it hard to test without a database."
	case PatternImport:
		v.Message = fmt.Sprintf("Database module import in %s layer: %s", layer, hit.Match)
		v.Recommendation = "Depend on a service from the business layer rather than importing database modules directly."
		v.Explanation = "Importing persistence modules into the presentation layer invites direct queries and bypasses business rules."
	}

	return v, true
}

func layerViolation(from, to, fromLayer, toLayer string) violation.Violation {
	return violation.Violation{
		Type:      violation.TypeLayerViolation,
		Severity:  violation.SeverityHigh,
		Dimension: violation.DimensionLayer,
		FilePath:  from,
		Message:   fmt.Sprintf("Layer violation: %s -> %s (%s depends on %s)", fromLayer, toLayer, from, to),
		Metadata: map[string]any{
			"from_layer": fromLayer,
			"to_layer":   toLayer,
			"dependency": to,
		},
		Recommendation: fmt.Sprintf("Invert the dependency: move the shared code from %s down into %s, or pass it in through an interface.", toLayer, fromLayer),
		Explanation:    "Lower layers depending on higher ones break the layered architecture and create hidden cycles between tiers.",
	}
}
