package graph

import "sort"

// NodeMetrics holds fan metrics for one file. Only internal edges count.
type NodeMetrics struct {
	Path         string   `json:"path" yaml:"path"`
	FanOut       int      `json:"fan_out" yaml:"fan_out"`
	FanIn        int      `json:"fan_in" yaml:"fan_in"`
	Instability  float64  `json:"instability" yaml:"instability"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty" yaml:"dependents,omitempty"`
}

// FanReport is the result of CalculateFanMetrics
type FanReport struct {
	Nodes map[string]NodeMetrics `json:"nodes" yaml:"nodes"`

	// MostCoupled ranks nodes by fan-out descending, ties broken by path ascending
	MostCoupled []NodeMetrics `json:"most_coupled" yaml:"most_coupled"`
}

// Get returns the metrics for path. Absent nodes have zero fan-in and fan-out.
func (r FanReport) Get(path string) NodeMetrics {
	if m, ok := r.Nodes[path]; ok {
		return m
	}
	return NodeMetrics{Path: path}
}

// Top returns at most n entries of MostCoupled
func (r FanReport) Top(n int) []NodeMetrics {
	if n <= 0 || n >= len(r.MostCoupled) {
		return r.MostCoupled
	}
	return r.MostCoupled[:n]
}

// Instability computes fanOut / (fanIn + fanOut), or 0 when both are zero
func Instability(fanIn, fanOut int) float64 {
	if fanIn+fanOut == 0 {
		return 0
	}
	return float64(fanOut) / float64(fanIn+fanOut)
}

// CalculateFanMetrics computes fan-in, fan-out and instability for every project node
func (g *DependencyGraph) CalculateFanMetrics() FanReport {
	v := g.view()

	report := FanReport{
		Nodes:       make(map[string]NodeMetrics, len(v.project)),
		MostCoupled: make([]NodeMetrics, 0, len(v.project)),
	}

	for _, n := range v.nodes {
		if !v.project[n] {
			continue
		}
		deps := append([]string(nil), v.out[n]...)
		dependents := append([]string(nil), v.in[n]...)

		m := NodeMetrics{
			Path:         n,
			FanOut:       len(deps),
			FanIn:        len(dependents),
			Instability:  Instability(len(dependents), len(deps)),
			Dependencies: deps,
			Dependents:   dependents,
		}
		report.Nodes[n] = m
		report.MostCoupled = append(report.MostCoupled, m)
	}

	sort.SliceStable(report.MostCoupled, func(i, j int) bool {
		a, b := report.MostCoupled[i], report.MostCoupled[j]
		if a.FanOut != b.FanOut {
			return a.FanOut > b.FanOut
		}
		return a.Path < b.Path
	})

	return report
}
