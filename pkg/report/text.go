package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/firebird-suite/osprey/pkg/assessment"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// textStyles are bound to the renderer of the output writer, so colors are
// only emitted when it is a terminal
type textStyles struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	muted    lipgloss.Style
	ok       lipgloss.Style
	id       lipgloss.Style
	message  lipgloss.Style
	severity map[violation.Severity]lipgloss.Style
}

func newTextStyles(r *lipgloss.Renderer, width int) textStyles {
	indent := 9
	return textStyles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		heading: r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("240")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		id:      r.NewStyle().Bold(true),
		message: r.NewStyle().Width(max(width-indent, 20)),
		severity: map[violation.Severity]lipgloss.Style{
			violation.SeverityCritical: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			violation.SeverityHigh:     r.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
			violation.SeverityMedium:   r.NewStyle().Foreground(lipgloss.Color("3")),
			violation.SeverityLow:      r.NewStyle().Foreground(lipgloss.Color("4")),
		},
	}
}

func renderText(w io.Writer, res *assessment.Result, opts Options) error {
	st := newTextStyles(lipgloss.NewRenderer(w), opts.width())
	var b strings.Builder

	b.WriteString(st.title.Render("🦅 Osprey architecture assessment") + "\n")
	fmt.Fprintf(&b, "%s %s (%s)\n", st.muted.Render("Project:"), res.ProjectRoot, res.ProjectType)
	fmt.Fprintf(&b, "%s %d   %s %d internal, %d external   %s %s\n\n",
		st.muted.Render("Files:"), res.Files,
		st.muted.Render("Edges:"), res.Edges.Internal, res.Edges.External,
		st.muted.Render("Took:"), res.Duration.Round(time.Millisecond))

	if res.Summary.Total == 0 {
		b.WriteString(st.ok.Render("✅ No architecture violations found") + "\n")
	} else {
		b.WriteString(st.heading.Render(summaryLine(res.Summary)) + "\n")

		groups := bySeverity(res.Violations)
		for _, sev := range violation.Severities() {
			vs := groups[sev]
			if len(vs) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n%s\n", st.severity[sev].Render(fmt.Sprintf("%s (%d)", sev, len(vs))))
			for _, v := range vs {
				writeTextViolation(&b, st, v, opts.Verbose)
			}
		}
	}

	if top := res.Fan.Top(opts.top()); len(top) > 0 && top[0].FanOut > 0 {
		b.WriteString("\n" + st.heading.Render("Most coupled files") + "\n")
		for _, m := range top {
			if m.FanOut == 0 {
				break
			}
			fmt.Fprintf(&b, "  %-40s fan-out %-3d fan-in %-3d instability %.2f\n", m.Path, m.FanOut, m.FanIn, m.Instability)
		}
	}

	if len(res.Cycles) > 0 {
		b.WriteString("\n" + st.heading.Render(fmt.Sprintf("Dependency cycles (%d)", len(res.Cycles))) + "\n")
		for _, c := range res.Cycles {
			b.WriteString("  " + c.String() + "\n")
		}
	}

	if len(res.Skipped) > 0 {
		b.WriteString("\n" + st.muted.Render(fmt.Sprintf("Skipped %d unreadable files", len(res.Skipped))) + "\n")
		for _, s := range res.Skipped {
			b.WriteString(st.muted.Render("  "+s.Path+": "+s.Reason) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTextViolation(b *strings.Builder, st textStyles, v violation.Violation, verbose bool) {
	fmt.Fprintf(b, "  %-6s %s\n", st.id.Render(v.ID), v.Location())
	for _, line := range strings.Split(st.message.Render(v.Message), "\n") {
		b.WriteString("         " + strings.TrimRight(line, " ") + "\n")
	}
	if v.Recommendation != "" {
		for _, line := range strings.Split(st.message.Render("→ "+v.Recommendation), "\n") {
			b.WriteString("         " + st.muted.Render(strings.TrimRight(line, " ")) + "\n")
		}
	}
	if verbose && v.Explanation != "" {
		for _, line := range strings.Split(st.message.Render(v.Explanation), "\n") {
			b.WriteString("         " + st.muted.Render(strings.TrimRight(line, " ")) + "\n")
		}
	}
}

// summaryLine renders "3 violations (2 CRITICAL, 1 HIGH)"
func summaryLine(s violation.Summary) string {
	var parts []string
	for _, sev := range violation.Severities() {
		if n := s.BySeverity[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	noun := "violations"
	if s.Total == 1 {
		noun = "violation"
	}
	return fmt.Sprintf("%d %s (%s)", s.Total, noun, strings.Join(parts, ", "))
}
