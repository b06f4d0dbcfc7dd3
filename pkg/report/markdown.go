package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/simonhull/firebird-suite/osprey/pkg/assessment"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Markdown renders res as a GitHub-flavored Markdown document
func Markdown(res *assessment.Result, opts Options) string {
	var b strings.Builder

	b.WriteString("# Architecture Assessment\n\n")
	fmt.Fprintf(&b, "- **Project:** `%s`\n", res.ProjectRoot)
	fmt.Fprintf(&b, "- **Project type:** %s\n", res.ProjectType)
	fmt.Fprintf(&b, "- **Files analyzed:** %d\n", res.Files)
	fmt.Fprintf(&b, "- **Dependencies:** %d internal, %d external\n\n", res.Edges.Internal, res.Edges.External)

	b.WriteString("## Summary\n\n")
	if res.Summary.Total == 0 {
		b.WriteString("No architecture violations found.\n\n")
	} else {
		b.WriteString("| Severity | Count |\n|---|---|\n")
		for _, sev := range violation.Severities() {
			fmt.Fprintf(&b, "| %s | %d |\n", sev, res.Summary.BySeverity[sev])
		}
		fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", res.Summary.Total)

		b.WriteString("## Violations\n\n")
		b.WriteString("| ID | Severity | Type | Location | Message |\n|---|---|---|---|---|\n")
		for _, v := range res.Violations {
			fmt.Fprintf(&b, "| %s | %s | %s | `%s` | %s |\n", v.ID, v.Severity, v.Type, v.Location(), cell(v.Message))
		}
		b.WriteString("\n")

		b.WriteString("### Recommendations\n\n")
		for _, v := range res.Violations {
			fmt.Fprintf(&b, "- **%s**: %s\n", v.ID, v.Recommendation)
		}
		b.WriteString("\n")
	}

	if top := res.Fan.Top(opts.top()); len(top) > 0 {
		b.WriteString("## Most Coupled Files\n\n")
		b.WriteString("| File | Fan-out | Fan-in | Instability |\n|---|---|---|---|\n")
		for _, m := range top {
			fmt.Fprintf(&b, "| `%s` | %d | %d | %.2f |\n", m.Path, m.FanOut, m.FanIn, m.Instability)
		}
		b.WriteString("\n")
	}

	if len(res.Cycles) > 0 {
		b.WriteString("## Dependency Cycles\n\n")
		for _, c := range res.Cycles {
			fmt.Fprintf(&b, "- `%s`\n", c.String())
		}
		b.WriteString("\n")
	}

	if len(res.Skipped) > 0 {
		b.WriteString("## Skipped Files\n\n")
		for _, s := range res.Skipped {
			fmt.Fprintf(&b, "- `%s`: %s\n", s.Path, s.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// cell escapes text for a Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func renderHTML(w io.Writer, res *assessment.Result, opts Options) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(res, opts)), &body); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Architecture Assessment: %s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(res.ProjectRoot), body.String())
	return err
}
