package violation

// Summary aggregates violation counts
type Summary struct {
	Total       int               `json:"total" yaml:"total"`
	BySeverity  map[Severity]int  `json:"by_severity" yaml:"by_severity"`
	ByType      map[Type]int      `json:"by_type" yaml:"by_type"`
	ByDimension map[Dimension]int `json:"by_dimension" yaml:"by_dimension"`
}

// Summarize counts violations per severity, type and dimension
func Summarize(vs []Violation) Summary {
	s := Summary{
		Total:       len(vs),
		BySeverity:  make(map[Severity]int),
		ByType:      make(map[Type]int),
		ByDimension: make(map[Dimension]int),
	}
	for _, v := range vs {
		s.BySeverity[v.Severity]++
		s.ByType[v.Type]++
		s.ByDimension[v.Dimension]++
	}
	return s
}

// Highest returns the most severe severity present, or "" when there are none
func (s Summary) Highest() Severity {
	for _, sev := range Severities() {
		if s.BySeverity[sev] > 0 {
			return sev
		}
	}
	return ""
}

// CountAtLeast counts violations at or above the given severity
func (s Summary) CountAtLeast(min Severity) int {
	n := 0
	for sev, count := range s.BySeverity {
		if sev.AtLeast(min) {
			n += count
		}
	}
	return n
}
