// Package coupling reports structural coupling problems found in the
// dependency graph: high fan-out, god modules, circular dependencies and
// deep dependency chains.
package coupling

import (
	"fmt"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// IDPrefix prefixes the IDs of coupling violations
const IDPrefix = "CPL"

// Analyzer detects coupling violations
type Analyzer struct {
	thresholds *config.Thresholds // overrides the context config when set
	logger     logger.Logger
}

var _ analysis.Analyzer = (*Analyzer)(nil)

// New creates a coupling Analyzer
func New() *Analyzer {
	return &Analyzer{logger: logger.Default()}
}

// WithLogger returns a new Analyzer with the specified logger
func (a *Analyzer) WithLogger(log logger.Logger) *Analyzer {
	return &Analyzer{thresholds: a.thresholds, logger: log}
}

// WithThresholds returns a new Analyzer that ignores the context config
// and uses t instead
func (a *Analyzer) WithThresholds(t config.Thresholds) *Analyzer {
	return &Analyzer{thresholds: &t, logger: a.logger}
}

// Name returns the analyzer name
func (a *Analyzer) Name() string {
	return "coupling"
}

// Description returns a one-line summary of what the analyzer checks
func (a *Analyzer) Description() string {
	return "Detects high fan-out, god modules, circular dependencies and deep dependency chains"
}

// Analyze runs every coupling rule against the context graph
func (a *Analyzer) Analyze(ac *analysis.Context) ([]violation.Violation, error) {
	t := ac.Thresholds()
	if a.thresholds != nil {
		t = *a.thresholds
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	g := ac.Graph
	if g == nil {
		return nil, nil
	}

	fan := g.CalculateFanMetrics()
	cycles := g.DetectCycles()
	chains := g.ChainDepths(t.DeepChainDepth)

	var vs []violation.Violation
	for _, m := range fan.MostCoupled {
		if v, ok := highCoupling(m, t); ok {
			vs = append(vs, v)
		}
		if v, ok := godModule(m, t); ok {
			vs = append(vs, v)
		}
		if c := chains[m.Path]; c.Depth >= t.DeepChainDepth {
			vs = append(vs, deepChain(c, t))
		}
	}
	for _, c := range cycles {
		vs = append(vs, circular(c))
	}

	violation.Sort(vs)
	violation.AssignIDs(IDPrefix, vs)

	a.logger.Debug("Coupling analysis complete",
		logger.F("nodes", len(fan.Nodes)),
		logger.F("cycles", len(cycles)),
		logger.F("violations", len(vs)))

	return vs, nil
}

func highCoupling(m graph.NodeMetrics, t config.Thresholds) (violation.Violation, bool) {
	var sev violation.Severity
	var threshold int
	switch {
	case m.FanOut >= t.FanOutHigh:
		sev, threshold = violation.SeverityHigh, t.FanOutHigh
	case m.FanOut >= t.FanOutMedium:
		sev, threshold = violation.SeverityMedium, t.FanOutMedium
	default:
		return violation.Violation{}, false
	}

	return violation.Violation{
		Type:      violation.TypeHighCoupling,
		Severity:  sev,
		Dimension: violation.DimensionCoupling,
		FilePath:  m.Path,
		Message:   fmt.Sprintf("High coupling: %s depends on %d internal modules (FAN-OUT: %d)", m.Path, m.FanOut, m.FanOut),
		Metadata: map[string]any{
			"fan_out":      m.FanOut,
			"fan_in":       m.FanIn,
			"instability":  m.Instability,
			"dependencies": m.Dependencies,
			"threshold":    threshold,
		},
		Recommendation: "Split the module by responsibility, or depend on a narrower facade instead of many concrete modules.",
		Explanation:    "A module with many dependencies changes whenever any of them changes, which makes it fragile and hard to test in isolation.",
	}, true
}

func godModule(m graph.NodeMetrics, t config.Thresholds) (violation.Violation, bool) {
	if m.FanIn < t.FanInGodModule {
		return violation.Violation{}, false
	}

	return violation.Violation{
		Type:      violation.TypeGodModule,
		Severity:  violation.SeverityHigh,
		Dimension: violation.DimensionCoupling,
		FilePath:  m.Path,
		Message:   fmt.Sprintf("God module: %s is depended on by %d internal modules (FAN-IN: %d)", m.Path, m.FanIn, m.FanIn),
		Metadata: map[string]any{
			"fan_in":      m.FanIn,
			"fan_out":     m.FanOut,
			"instability": m.Instability,
			"dependents":  m.Dependents,
			"threshold":   t.FanInGodModule,
		},
		Recommendation: "Break the module into smaller cohesive modules so dependents only import what they use.",
		Explanation:    "When a large part of the codebase depends on one module, every change to it has a wide blast radius and it tends to accumulate unrelated responsibilities.",
	}, true
}

func circular(c graph.Cycle) violation.Violation {
	return violation.Violation{
		Type:      violation.TypeCircularDependency,
		Severity:  violation.SeverityCritical,
		Dimension: violation.DimensionCoupling,
		FilePath:  c.Start(),
		Message:   fmt.Sprintf("Circular dependency: %s", c.String()),
		Metadata: map[string]any{
			"cycle":        []string(c),
			"cycle_length": c.Len(),
		},
		Recommendation: "Extract the shared code into a module both sides can depend on, or invert one dependency through an interface.",
		Explanation:    "Modules in a cycle cannot be understood, tested or released independently, and import cycles often cause initialization order bugs.",
	}
}

func deepChain(c graph.Chain, t config.Thresholds) violation.Violation {
	return violation.Violation{
		Type:      violation.TypeDeepDependencyChain,
		Severity:  violation.SeverityMedium,
		Dimension: violation.DimensionCoupling,
		FilePath:  c.Start,
		Message:   fmt.Sprintf("Deep dependency chain: %s reaches %d levels of internal dependencies", c.Start, c.Depth),
		Metadata: map[string]any{
			"depth":     c.Depth,
			"chain":     c.Path,
			"threshold": t.DeepChainDepth,
		},
		Recommendation: "Flatten the chain by removing pass-through modules or depending on lower-level modules directly.",
		Explanation:    "Long transitive chains make a module sensitive to changes far away from it and slow down builds and reasoning.",
	}
}
