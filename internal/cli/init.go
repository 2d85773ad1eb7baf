package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chachako/pretty-changelog/internal/changelog"
	"github.com/chachako/pretty-changelog/internal/config"
	clierrors "github.com/chachako/pretty-changelog/internal/errors"
)

func newInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default cliff.toml",
		Long: `Write the default configuration to ./cliff.toml (inside --workdir when set).

Pass a path to write elsewhere, or "-" to print it to stdout.`,
		Example: `  pretty-changelog init
  pretty-changelog init .github/cliff.toml
  pretty-changelog init - > cliff.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigPath(opts.workDir())
			if len(args) > 0 {
				path = args[0]
			}
			return writeDefaultConfig(cmd, path, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}

func writeDefaultConfig(cmd *cobra.Command, path string, force bool) error {
	data := config.DefaultConfig()
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return clierrors.NewArgumentError(
			fmt.Sprintf("%s already exists", path),
			"Overwrite it with: pretty-changelog init --force",
		)
	}
	if err := changelog.WriteFile(path, data); err != nil {
		return clierrors.OutputFailed(path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", filepath.ToSlash(path))
	return nil
}
