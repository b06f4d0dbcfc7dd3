// Package analysis defines the shared input every analyzer receives and runs
// analyzers over it.
package analysis

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
)

// ErrNoContext is returned by Run when it is given a nil context
var ErrNoContext = errors.New("analysis context is nil")

// SourceFile is one project file. Err is set when the file could not be read.
type SourceFile struct {
	Path   string
	Source []byte
	Err    error
}

// SkippedFile records a file excluded from analysis
type SkippedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Context is the read-only snapshot analyzers work on
type Context struct {
	ProjectRoot string
	Config      *config.Config // nil means defaults
	Graph       *graph.DependencyGraph
	Files       []SourceFile

	skipped []SkippedFile
}

// NewContext validates cfg, normalizes file and graph paths to
// slash-separated project-relative form, drops unreadable files from both the
// file list and the graph, and freezes the graph. A caller graph is copied,
// never frozen in place.
//
// A nil graph is replaced by one holding every readable file as a node.
func NewContext(root string, cfg *config.Config, g *graph.DependencyGraph, files []SourceFile) (*Context, error) {
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	ac := &Context{
		ProjectRoot: root,
		Config:      cfg,
		Files:       make([]SourceFile, 0, len(files)),
	}

	seen := make(map[string]bool, len(files))
	drop := make(map[string]bool)
	for _, f := range files {
		p := NormalizePath(root, f.Path)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true

		if f.Err != nil {
			ac.skipped = append(ac.skipped, SkippedFile{Path: p, Reason: f.Err.Error()})
			drop[p] = true
			continue
		}
		ac.Files = append(ac.Files, SourceFile{Path: p, Source: f.Source})
	}

	if g == nil {
		g = graph.New()
		for _, f := range ac.Files {
			if err := g.AddNode(f.Path); err != nil {
				return nil, fmt.Errorf("building graph: %w", err)
			}
		}
	} else {
		var err error
		if g, err = normalizeGraph(root, g, drop); err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
	}

	g.Freeze()
	ac.Graph = g

	return ac, nil
}

// normalizeGraph copies g with every project path in the same form as the
// file list, leaving out dropped files and any edge touching them.
// External targets are module names, not paths, and are kept verbatim.
func normalizeGraph(root string, g *graph.DependencyGraph, drop map[string]bool) (*graph.DependencyGraph, error) {
	out := graph.New()
	for _, n := range g.ProjectNodes() {
		p := NormalizePath(root, n)
		if p == "" || drop[p] {
			continue
		}
		if err := out.AddNode(p); err != nil {
			return nil, err
		}
	}

	for _, e := range g.Edges() {
		from := NormalizePath(root, e.From)
		to := e.To
		if !e.External {
			to = NormalizePath(root, e.To)
		}
		if from == "" || to == "" || drop[from] || drop[to] {
			continue
		}
		// two spellings of one file collapse into the same node
		if from == to && e.From != e.To {
			continue
		}
		if err := out.AddDependency(from, to, e.External); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Skipped lists files that were excluded because they could not be read
func (c *Context) Skipped() []SkippedFile {
	return append([]SkippedFile(nil), c.skipped...)
}

// Thresholds returns the configured coupling thresholds, or the defaults
func (c *Context) Thresholds() config.Thresholds {
	if c.Config == nil {
		return config.DefaultThresholds()
	}
	return c.Config.CouplingThresholds
}

// ProjectType returns the configured project type, "auto" without a config
func (c *Context) ProjectType() string {
	if c.Config == nil {
		return config.ProjectTypeAuto
	}
	return c.Config.EffectiveProjectType()
}

// CustomLayers returns the configured custom layers, if any
func (c *Context) CustomLayers() []config.LayerDefinition {
	if c.Config == nil {
		return nil
	}
	return c.Config.CustomLayers
}

// NormalizePath converts p to a clean slash-separated path relative to root.
// Paths outside root are kept as given, in slash form.
func NormalizePath(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}

	if root != "" && filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}

	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}
