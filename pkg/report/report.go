// Package report renders assessment results for people and machines.
//
// Supported formats are a styled terminal summary, Markdown, HTML (rendered
// from the Markdown), JSON and YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/osprey/pkg/analysis"
	"github.com/simonhull/firebird-suite/osprey/pkg/assessment"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// Format selects a renderer
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatHTML, FormatJSON, FormatYAML}
}

// ParseFormat parses a format name. "md" and "yml" are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (expected text, markdown, html, json or yaml)", name)
}

// Options tunes rendering
type Options struct {
	Top     int  // Most-coupled files to list (default: 10)
	Verbose bool // Include explanations in text output
	Width   int  // Terminal width for text output (default: 80)
}

func (o Options) top() int {
	if o.Top <= 0 {
		return 10
	}
	return o.Top
}

func (o Options) width() int {
	if o.Width <= 0 {
		return 80
	}
	return o.Width
}

// Document is the machine-readable shape of a result
type Document struct {
	ProjectRoot string                 `json:"project_root" yaml:"project_root"`
	ProjectType string                 `json:"project_type" yaml:"project_type"`
	Files       int                    `json:"files" yaml:"files"`
	Edges       assessment.EdgeStats   `json:"edges" yaml:"edges"`
	Summary     violation.Summary      `json:"summary" yaml:"summary"`
	Violations  []violation.Violation  `json:"violations" yaml:"violations"`
	MostCoupled []graph.NodeMetrics    `json:"most_coupled" yaml:"most_coupled"`
	Cycles      []graph.Cycle          `json:"cycles" yaml:"cycles"`
	Layers      map[string]string      `json:"layers,omitempty" yaml:"layers,omitempty"`
	Skipped     []analysis.SkippedFile `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	DurationMS  int64                  `json:"duration_ms" yaml:"duration_ms"`
}

// NewDocument flattens a result, keeping the top most-coupled files
func NewDocument(res *assessment.Result, opts Options) Document {
	doc := Document{
		ProjectRoot: res.ProjectRoot,
		ProjectType: res.ProjectType,
		Files:       res.Files,
		Edges:       res.Edges,
		Summary:     res.Summary,
		Violations:  res.Violations,
		MostCoupled: res.Fan.Top(opts.top()),
		Cycles:      res.Cycles,
		Layers:      res.Layers,
		Skipped:     res.Skipped,
		DurationMS:  res.Duration.Milliseconds(),
	}
	// empty lists render as [] rather than null
	if doc.Violations == nil {
		doc.Violations = []violation.Violation{}
	}
	if doc.MostCoupled == nil {
		doc.MostCoupled = []graph.NodeMetrics{}
	}
	if doc.Cycles == nil {
		doc.Cycles = []graph.Cycle{}
	}
	return doc
}

// Render writes res to w in the given format
func Render(w io.Writer, res *assessment.Result, format Format, opts Options) error {
	if res == nil {
		return fmt.Errorf("nothing to render")
	}

	switch format {
	case FormatText, "":
		return renderText(w, res, opts)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(res, opts))
		return err
	case FormatHTML:
		return renderHTML(w, res, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(NewDocument(res, opts)); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(res, opts)); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown report format %q", format)
}

// bySeverity groups violations from most to least severe, keeping their order
func bySeverity(vs []violation.Violation) map[violation.Severity][]violation.Violation {
	groups := make(map[violation.Severity][]violation.Violation)
	for _, v := range vs {
		groups[v.Severity] = append(groups[v.Severity], v)
	}
	return groups
}
