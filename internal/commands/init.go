package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/osprey/internal/output"
	"github.com/simonhull/firebird-suite/osprey/pkg/config"
	"github.com/simonhull/firebird-suite/osprey/pkg/scanner"
)

// InitCmd creates the 'init' command
func InitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default osprey.yaml",
		Long: `Writes osprey.yaml with the default thresholds and the detected
project type. An existing file is kept unless --force is given.

Example:
  osprey init
  osprey init ./backend --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectPath(args)
			target := filepath.Join(dir, config.FileName)

			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			cfg := config.Default()
			if pt := scanner.DetectProjectType(dir); pt != "generic" {
				cfg.ProjectType = pt
			}

			if err := config.Save(target, cfg); err != nil {
				return err
			}

			output.Success(fmt.Sprintf("Created %s (project type: %s)", target, cfg.ProjectType))
			output.Info("Next steps:")
			output.Step("Adjust coupling_thresholds or add custom_layers")
			output.Step(fmt.Sprintf("osprey assess %s", dir))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing osprey.yaml")

	return cmd
}
