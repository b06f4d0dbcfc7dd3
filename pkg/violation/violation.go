// Package violation defines the finding record shared by every analyzer.
//
// A Violation is a value: analyzers build fresh slices on every run and
// nothing in this package persists them. Rendering lives in pkg/report.
package violation

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks how urgently a finding needs attention
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns a sortable weight, higher is more severe. Unknown severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other or more
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// ParseSeverity parses a severity name case-insensitively
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(name)))
	if s.Rank() == 0 {
		return "", fmt.Errorf("unknown severity %q (expected LOW, MEDIUM, HIGH or CRITICAL)", name)
	}
	return s, nil
}

// Severities lists all severities from most to least severe
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Dimension is the quality dimension an analyzer reports on
type Dimension string

const (
	DimensionCoupling Dimension = "coupling"
	DimensionLayer    Dimension = "layer"
)

// Type tags the kind of finding. Each analyzer emits a closed subset.
type Type string

const (
	TypeHighCoupling         Type = "HighCoupling"
	TypeGodModule            Type = "GodModule"
	TypeCircularDependency   Type = "CircularDependency"
	TypeDeepDependencyChain  Type = "DeepDependencyChain"
	TypeDirectDatabaseAccess Type = "DirectDatabaseAccess"
	TypeLayerViolation       Type = "LayerViolation"
)

// order is the tie-break position of a type when sorting violations on the same file
func (t Type) order() int {
	switch t {
	case TypeHighCoupling:
		return 0
	case TypeGodModule:
		return 1
	case TypeCircularDependency:
		return 2
	case TypeDeepDependencyChain:
		return 3
	case TypeDirectDatabaseAccess:
		return 4
	case TypeLayerViolation:
		return 5
	default:
		return 6
	}
}

// Violation is a single structured finding
type Violation struct {
	ID             string         `json:"id" yaml:"id"`
	Type           Type           `json:"type" yaml:"type"`
	Severity       Severity       `json:"severity" yaml:"severity"`
	Dimension      Dimension      `json:"dimension" yaml:"dimension"`
	FilePath       string         `json:"file_path" yaml:"file_path"`
	LineNumber     int            `json:"line_number,omitempty" yaml:"line_number,omitempty"` // 0 when not tied to a line
	Message        string         `json:"message" yaml:"message"`
	Metadata       map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Recommendation string         `json:"recommendation" yaml:"recommendation"`
	Explanation    string         `json:"explanation" yaml:"explanation"`
}

// HasLine reports whether the violation points at a specific source line
func (v Violation) HasLine() bool {
	return v.LineNumber > 0
}

// Location formats the file path with the line number when known
func (v Violation) Location() string {
	if v.HasLine() {
		return fmt.Sprintf("%s:%d", v.FilePath, v.LineNumber)
	}
	return v.FilePath
}

// Sort orders violations by file path, line, type and message.
// The result is deterministic for identical input.
func Sort(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		if a.Type.order() != b.Type.order() {
			return a.Type.order() < b.Type.order()
		}
		return a.Message < b.Message
	})
}

// AssignIDs numbers violations in their current order as <prefix>-1, <prefix>-2, ...
func AssignIDs(prefix string, vs []Violation) {
	seq := NewSequence(prefix)
	for i := range vs {
		vs[i].ID = seq.Next()
	}
}

// Sequence hands out analyzer-prefixed IDs
type Sequence struct {
	prefix string
	n      int
}

// NewSequence creates a sequence for the given prefix (e.g. "CPL")
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next ID in the sequence
func (s *Sequence) Next() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
