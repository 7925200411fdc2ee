package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/restvars/packages/script"
	"github.com/spf13/cobra"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings <script|->",
	Short: "List the variables a test script assigns from the response",
	Long: `Statically read a Postman-style test script and list every
pm.environment.set / pm.collectionVariables.set / postman.setEnvironmentVariable
call as a variable name and the response path it reads. The script is never run.

Examples:
  restvars mappings tests.js
  pbpaste | restvars mappings -`,
	Args: cobra.ExactArgs(1),
	RunE: mappingsCommand,
}

func mappingsCommand(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to read script: %w", err))
	}

	newFormatter(cmd.OutOrStdout()).FormatMappings(script.ParseTokenMappings(string(data)))
	return nil
}
