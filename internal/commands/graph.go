package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/osprey/internal/output"
	"github.com/simonhull/firebird-suite/osprey/pkg/graph"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/scanner"
)

// GraphCmd creates the 'graph' command
func GraphCmd() *cobra.Command {
	var (
		configPath string
		format     string
		top        int
		external   bool
	)

	cmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Show the dependency graph of a project",
		Long: `Scans a project and prints its most coupled files and dependency cycles,
or exports the whole graph.

Example:
  osprey graph --top 20
  osprey graph ./src -f dot | dot -Tsvg > deps.svg
  osprey graph -f json --external`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := projectPath(args)

			cfg, err := loadConfig(configPath, path)
			if err != nil {
				return err
			}

			sc := scanner.New(scanner.Options{Exclude: cfg.Exclude}).WithLogger(logger.Default())

			var res *scanner.Result
			err = output.Spin("Scanning "+path, func() error {
				var err error
				res, err = sc.Scan(cmd.Context(), path)
				return err
			})
			if err != nil {
				return err
			}
			res.Graph.Freeze()

			w := cmd.OutOrStdout()
			switch format {
			case "text", "":
				printGraphSummary(w, res.Graph, top)
				return nil
			case "dot":
				return res.Graph.WriteDOT(w, external)
			case "json":
				return writeGraphJSON(w, res.Graph, external)
			}
			return fmt.Errorf("unknown graph format %q (expected text, dot or json)", format)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: <path>/osprey.yaml)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, dot or json")
	cmd.Flags().IntVar(&top, "top", 10, "Number of most-coupled files to list")
	cmd.Flags().BoolVar(&external, "external", false, "Include external packages in dot and json output")

	return cmd
}

func printGraphSummary(w io.Writer, g *graph.DependencyGraph, top int) {
	internal, external := g.EdgeCount()
	fmt.Fprintf(w, "%d files, %d internal dependencies, %d external dependencies\n\n",
		len(g.ProjectNodes()), internal, external)

	fmt.Fprintln(w, "Most coupled files:")
	for _, m := range g.CalculateFanMetrics().Top(top) {
		fmt.Fprintf(w, "  %-40s fan-out %-3d fan-in %-3d instability %.2f\n", m.Path, m.FanOut, m.FanIn, m.Instability)
	}

	cycles := g.DetectCycles()
	if len(cycles) == 0 {
		fmt.Fprintln(w, "\nNo dependency cycles")
		return
	}
	fmt.Fprintf(w, "\nDependency cycles (%d):\n", len(cycles))
	for _, c := range cycles {
		fmt.Fprintf(w, "  %s\n", c)
	}
}

func writeGraphJSON(w io.Writer, g *graph.DependencyGraph, withExternal bool) error {
	doc := struct {
		Nodes []string     `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}{Nodes: g.ProjectNodes(), Edges: []graph.Edge{}}

	for _, e := range g.Edges() {
		if e.External && !withExternal {
			continue
		}
		doc.Edges = append(doc.Edges, e)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
