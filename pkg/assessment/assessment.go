// Package assessment runs a full architecture assessment of a project:
// scan files, build the dependency graph, run the analyzers and merge
// their findings.
package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/coupling"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/layers"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/scanner"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// Result is the outcome of one assessment run
type Result struct {
	ProjectRoot string                 `json:"project_root" yaml:"project_root"`
	ProjectType string                 `json:"project_type" yaml:"project_type"`
	Files       int                    `json:"files" yaml:"files"`
	Edges       EdgeStats              `json:"edges" yaml:"edges"`
	Layers      map[string]string      `json:"layers,omitempty" yaml:"layers,omitempty"`
	Fan         graph.FanReport        `json:"-" yaml:"-"`
	Cycles      []graph.Cycle          `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	Violations  []violation.Violation  `json:"violations" yaml:"violations"`
	Summary     violation.Summary      `json:"summary" yaml:"summary"`
	Skipped     []analysis.SkippedFile `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Duration    time.Duration          `json:"duration_ns" yaml:"duration"`

	Graph *graph.DependencyGraph `json:"-" yaml:"-"`
}

// EdgeStats counts dependency edges by kind
type EdgeStats struct {
	Internal int `json:"internal" yaml:"internal"`
	External int `json:"external" yaml:"external"`
}

// Options configures an Assessor
type Options struct {
	Workers int // Parallel file readers (default: runtime.NumCPU())
}

// Assessor runs assessments with a fixed configuration
type Assessor struct {
	cfg    *config.Config
	opts   Options
	logger logger.Logger
}

// New creates an Assessor. A nil config means defaults.
func New(cfg *config.Config, opts Options) *Assessor {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Assessor{cfg: cfg, opts: opts, logger: logger.Default()}
}

// WithLogger returns a new Assessor with the specified logger
func (a *Assessor) WithLogger(log logger.Logger) *Assessor {
	return &Assessor{cfg: a.cfg, opts: a.opts, logger: log}
}

// Assess scans root and runs every analyzer against it
func (a *Assessor) Assess(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	sc := scanner.New(scanner.Options{
		Workers: a.opts.Workers,
		Exclude: a.cfg.Exclude,
	}).WithLogger(a.logger)

	scanned, err := sc.Scan(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	// resolve "auto" once so every analyzer sees the detected project type;
	// without marker files the layer analyzer infers it from extensions
	cfg := *a.cfg
	if cfg.EffectiveProjectType() == config.ProjectTypeAuto && scanned.ProjectType != "generic" {
		cfg.ProjectType = scanned.ProjectType
	}

	return a.analyze(ctx, scanned.Root, &cfg, scanned.Graph, scanned.Files, start)
}

// AssessGraph runs the analyzers over an already-built graph and file list,
// for callers that extract imports themselves
func (a *Assessor) AssessGraph(ctx context.Context, root string, g *graph.DependencyGraph, files []analysis.SourceFile) (*Result, error) {
	return a.analyze(ctx, root, a.cfg, g, files, time.Now())
}

func (a *Assessor) analyze(ctx context.Context, root string, cfg *config.Config, g *graph.DependencyGraph, files []analysis.SourceFile, start time.Time) (*Result, error) {
	ac, err := analysis.NewContext(root, cfg, g, files)
	if err != nil {
		return nil, err
	}
	for _, s := range ac.Skipped() {
		a.logger.Warn("Skipping unreadable file", logger.F("file", s.Path), logger.F("reason", s.Reason))
	}

	layerAnalyzer := layers.New().WithLogger(a.logger.WithFields(logger.F("analyzer", "layers")))
	couplingAnalyzer := coupling.New().WithLogger(a.logger.WithFields(logger.F("analyzer", "coupling")))

	vs, err := analysis.Run(ctx, ac, couplingAnalyzer, layerAnalyzer)
	if err != nil {
		return nil, err
	}

	internal, external := ac.Graph.EdgeCount()
	res := &Result{
		ProjectRoot: root,
		ProjectType: ac.ProjectType(),
		Files:       len(ac.Files),
		Edges:       EdgeStats{Internal: internal, External: external},
		Layers:      layerAnalyzer.FileLayers(),
		Fan:         ac.Graph.CalculateFanMetrics(),
		Cycles:      ac.Graph.DetectCycles(),
		Violations:  vs,
		Summary:     violation.Summarize(vs),
		Skipped:     ac.Skipped(),
		Duration:    time.Since(start),
		Graph:       ac.Graph,
	}

	a.logger.Info("Assessment complete",
		logger.F("files", res.Files),
		logger.F("violations", res.Summary.Total),
		logger.F("duration", res.Duration))

	return res, nil
}

// Failed reports whether any violation is at or above min
func (r *Result) Failed(min violation.Severity) bool {
	return r.Summary.CountAtLeast(min) > 0
}
