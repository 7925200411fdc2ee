package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <environment-file...>",
	Short: "Validate environment files against the schema",
	Long: `Validate YAML or JSON environment files against the environment schema
without resolving anything. With --workspace, workspace files are checked
for decoding errors and duplicate request paths instead.

Examples:
  restvars validate environments.yaml
  restvars validate envs/*.yaml
  restvars validate --workspace workspace.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

var validateWorkspaceFlag bool

func init() {
	validateCmd.Flags().BoolVar(&validateWorkspaceFlag, "workspace", false, "Treat arguments as workspace files")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	hasErrors := false
	for _, file := range args {
		var err error
		if validateWorkspaceFlag {
			err = validateWorkspace(cmd, file)
		} else {
			err = validateEnvironmentFile(file)
		}

		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			var verr *env.ValidationError
			if errors.As(err, &verr) {
				for _, p := range verr.Problems {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
				}
			}
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return withExitCode(ExitParseError, fmt.Errorf("validation failed"))
	}

	return nil
}

func validateEnvironmentFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return env.ValidateEnvironments(data)
}

// validateWorkspace decodes a workspace and warns about request paths that
// FindRequest could not tell apart.
func validateWorkspace(cmd *cobra.Command, path string) error {
	ws, err := collection.LoadWorkspace(path)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, ref := range ws.Requests() {
		p := ref.Path()
		if seen[p] {
			warnf(cmd, "%s: duplicate request path %q; refer to it by ID", path, p)
		}
		seen[p] = true
	}
	return nil
}
