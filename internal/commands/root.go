package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/osprey"
	"github.com/simonhull/firebird-suite/osprey/internal/output"
	"github.com/simonhull/firebird-suite/osprey/pkg/logger"
)

// RootCmd creates and returns the root command for the Osprey CLI
func RootCmd() *cobra.Command {
	var (
		verbose  bool
		quiet    bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "osprey",
		Short: "Osprey - Architecture Quality Assessment",
		Long: `Osprey builds a file-level dependency graph of a project and reports
architecture problems:
• High coupling, god modules and deep dependency chains
• Circular dependencies
• Layer violations and direct database access from upper layers

Go, Python and JavaScript/TypeScript projects are supported.`,
		Version:       osprey.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			output.SetVerbose(verbose)
			output.SetQuiet(quiet)

			level, err := logger.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			if verbose {
				level = logger.LevelDebug
			}
			logger.SetDefault(logger.NewLogger(level, os.Stderr))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print the report and errors")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error or silent")

	return cmd
}

// NewApp builds the root command with every subcommand registered
func NewApp() *cobra.Command {
	root := RootCmd()
	root.AddCommand(AssessCmd())
	root.AddCommand(GraphCmd())
	root.AddCommand(InitCmd())
	root.AddCommand(VersionCmd())
	return root
}

// VersionCmd prints the version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Osprey v%s\n", osprey.Version)
		},
	}
}

// projectPath returns the first positional argument or "."
func projectPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
