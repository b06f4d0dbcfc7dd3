package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/osprey/internal/output"
	"github.com/simonhull/firebird-suite/osprey/pkg/assessment"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
	"github.com/simonhull/firebird-suite/osprey/pkg/report"
	"github.com/simonhull/firebird-suite/osprey/pkg/violation"
)

// ErrViolationsFound is returned when violations reach the --fail-on severity
var ErrViolationsFound = errors.New("violations at or above the failure threshold")

// AssessCmd creates the 'assess' command
func AssessCmd() *cobra.Command {
	var (
		configPath string
		format     string
		outPath    string
		workers    int
		failOn     string
		top        int
	)

	cmd := &cobra.Command{
		Use:   "assess [path]",
		Short: "Assess the architecture of a project",
		Long: `Scans a project, builds its dependency graph and reports coupling and
layering violations.

Example:
  osprey assess
  osprey assess ./backend -f markdown -o architecture.md
  osprey assess . --fail-on HIGH`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := projectPath(args)

			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			var threshold violation.Severity
			if failOn != "" {
				if threshold, err = violation.ParseSeverity(failOn); err != nil {
					return err
				}
			}

			cfg, err := loadConfig(configPath, path)
			if err != nil {
				return err
			}
			output.Verbose(fmt.Sprintf("Project type: %s", cfg.EffectiveProjectType()))

			assessor := assessment.New(cfg, assessment.Options{Workers: workers}).WithLogger(logger.Default())

			var res *assessment.Result
			err = output.Spin("Assessing "+path, func() error {
				var err error
				res, err = assessor.Assess(cmd.Context(), path)
				return err
			})
			if err != nil {
				return fmt.Errorf("assessment failed: %w", err)
			}

			if err := writeReport(cmd.OutOrStdout(), outPath, res, f, report.Options{
				Top:     top,
				Verbose: output.IsVerbose(),
				Width:   output.TerminalWidth(),
			}); err != nil {
				return err
			}
			if outPath != "" {
				output.Success(fmt.Sprintf("Report written to %s", outPath))
			}

			if threshold != "" && res.Failed(threshold) {
				return fmt.Errorf("%w: %d violations at %s or above", ErrViolationsFound, res.Summary.CountAtLeast(threshold), threshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: <path>/osprey.yaml)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format: text, markdown, html, json or yaml")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel file readers (default: number of CPUs)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit non-zero when a violation at this severity or above is found (LOW, MEDIUM, HIGH, CRITICAL)")
	cmd.Flags().IntVar(&top, "top", 10, "Number of most-coupled files to list")

	return cmd
}

// loadConfig reads an explicit config file, or osprey.yaml in the project
func loadConfig(configPath, projectPath string) (*config.Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.Load(configPath)
	}
	return config.LoadFromDir(projectPath)
}

func writeReport(stdout io.Writer, outPath string, res *assessment.Result, f report.Format, opts report.Options) error {
	if outPath == "" {
		return report.Render(stdout, res, f, opts)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := report.Render(file, res, f, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
