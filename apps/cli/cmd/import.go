package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/import/curl"
	"github.com/abdul-hamid-achik/restvars/packages/import/httpfile"
	"github.com/abdul-hamid-achik/restvars/packages/import/insomnia"
	"github.com/abdul-hamid-achik/restvars/packages/import/openapi"
	"github.com/abdul-hamid-achik/restvars/packages/import/postman"
	"github.com/spf13/cobra"
)

var (
	importFileFlag        string
	importMergeFlag       bool
	importEnvFlags        []string
	importNoVarsFlag      bool
	importNoEnvsFlag      bool
	importNameFlag        string
	importKeepAuthHdrFlag bool
	importBaseURLFlag     string
	importTagFlags        []string
	importExcludeTagFlags []string
	importOperationFlags  []string
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Import requests from other API clients",
	Long: `Import requests, collections, auth and environments from other API
clients and write them as a restvars workspace (YAML).

Supported formats:
  postman  - Postman Collection v2.1 and environment exports
  insomnia - Insomnia v4 exports
  curl     - curl command lines
  openapi  - OpenAPI 3 documents (JSON or YAML)
  http     - .http request files

Examples:
  restvars import postman collection.json -f workspace.yaml
  restvars import postman collection.json --environment staging.postman_environment.json
  restvars import insomnia export.json -f workspace.yaml --merge
  restvars import curl requests.sh
  restvars import openapi openapi.yaml --tag users -f workspace.yaml
  restvars import http api.http --merge -f workspace.yaml
  restvars import curl "curl -H 'Authorization: Bearer abc' https://api.example.com/me"`,
}

var importPostmanCmd = &cobra.Command{
	Use:   "postman <collection-file>",
	Short: "Import from Postman collection",
	Long: `Import a Postman Collection v2.1 file. Folders become nested
collections, collection and folder auth is kept for inheritance, and test
scripts are kept so their variable assignments can be used by extract.`,
	Args: cobra.ExactArgs(1),
	RunE: importPostmanCommand,
}

var importInsomniaCmd = &cobra.Command{
	Use:   "insomnia <export-file>",
	Short: "Import from Insomnia export",
	Args:  cobra.ExactArgs(1),
	RunE:  importInsomniaCommand,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <file|command>",
	Short: "Import from curl commands",
	Args:  cobra.ExactArgs(1),
	RunE:  importCurlCommand,
}

var importOpenAPICmd = &cobra.Command{
	Use:   "openapi <document>",
	Short: "Import from an OpenAPI document",
	Long: `Import an OpenAPI 3 document. Operations are grouped by their first
tag, security schemes become collection auth referencing stored tokens, and
the first server URL becomes the baseUrl environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: importOpenAPICommand,
}

var importHTTPCmd = &cobra.Command{
	Use:   "http <file>",
	Short: "Import from a .http request file",
	Long: `Import a .http request file. File variables become an environment,
@auth annotations become request auth, and capture blocks become variable
assignments in the request's test script.`,
	Args: cobra.ExactArgs(1),
	RunE: importHTTPCommand,
}

func init() {
	for _, c := range []*cobra.Command{importPostmanCmd, importInsomniaCmd, importCurlCmd, importOpenAPICmd, importHTTPCmd} {
		c.Flags().StringVarP(&importFileFlag, "file", "f", "", "Workspace file to write (default: stdout)")
		c.Flags().BoolVar(&importMergeFlag, "merge", false, "Append to the workspace file instead of replacing it")
	}

	importPostmanCmd.Flags().StringArrayVar(&importEnvFlags, "environment", nil, "Postman environment export to import (repeatable)")
	importPostmanCmd.Flags().BoolVar(&importNoVarsFlag, "no-variables", false, "Don't import collection variables as an environment")

	importInsomniaCmd.Flags().BoolVar(&importNoEnvsFlag, "no-environments", false, "Don't import environments")

	importCurlCmd.Flags().StringVar(&importNameFlag, "name", "", "Collection name (default: file name)")
	importCurlCmd.Flags().BoolVar(&importKeepAuthHdrFlag, "keep-auth-headers", false, "Keep -u and Authorization headers as raw headers")

	importHTTPCmd.Flags().StringVar(&importNameFlag, "name", "", "Collection name (default: file name)")

	importOpenAPICmd.Flags().StringVar(&importBaseURLFlag, "base-url", "", "Base URL (default: first server in the document)")
	importOpenAPICmd.Flags().StringSliceVar(&importTagFlags, "tag", nil, "Only import operations with these tags")
	importOpenAPICmd.Flags().StringSliceVar(&importExcludeTagFlags, "exclude-tag", nil, "Skip operations with these tags")
	importOpenAPICmd.Flags().StringSliceVar(&importOperationFlags, "operation", nil, "Only import these operation IDs")

	importCmd.AddCommand(importPostmanCmd)
	importCmd.AddCommand(importInsomniaCmd)
	importCmd.AddCommand(importCurlCmd)
	importCmd.AddCommand(importOpenAPICmd)
	importCmd.AddCommand(importHTTPCmd)
	rootCmd.AddCommand(importCmd)
}

func importPostmanCommand(cmd *cobra.Command, args []string) error {
	converter := postman.NewConverter(
		postman.WithCollectionVariables(!importNoVarsFlag),
		postman.WithWarnFunc(func(format string, a ...any) { warnf(cmd, format, a...) }),
	)

	ws, err := converter.ConvertFile(args[0])
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to convert Postman collection: %w", err))
	}

	for _, path := range importEnvFlags {
		environment, err := converter.ConvertEnvironmentFile(path)
		if err != nil {
			return withExitCode(ExitParseError, fmt.Errorf("failed to convert Postman environment %s: %w", path, err))
		}
		ws.Environments = append(ws.Environments, *environment)
	}

	return writeWorkspace(cmd, ws)
}

func importInsomniaCommand(cmd *cobra.Command, args []string) error {
	converter := insomnia.NewConverter(
		insomnia.WithEnvironments(!importNoEnvsFlag),
		insomnia.WithWarnFunc(func(format string, a ...any) { warnf(cmd, format, a...) }),
	)

	ws, err := converter.ConvertFile(args[0])
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to convert Insomnia export: %w", err))
	}
	return writeWorkspace(cmd, ws)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	opts := []curl.Option{curl.WithAuthDetection(!importKeepAuthHdrFlag)}
	if importNameFlag != "" {
		opts = append(opts, curl.WithCollectionName(importNameFlag))
	}
	converter := curl.NewConverter(opts...)

	source := strings.TrimSpace(args[0])
	if !strings.HasPrefix(source, "curl ") {
		ws, err := converter.ConvertFile(source)
		if err != nil {
			return withExitCode(ExitParseError, fmt.Errorf("failed to convert curl commands: %w", err))
		}
		return writeWorkspace(cmd, ws)
	}

	req, err := converter.ConvertCommand(source)
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to convert curl command: %w", err))
	}
	name := importNameFlag
	if name == "" {
		name = "curl"
	}
	col := collection.NewCollection(name)
	col.AddRequest(*req)
	return writeWorkspace(cmd, &collection.Workspace{Name: name, Collections: []collection.Collection{col}})
}

func importOpenAPICommand(cmd *cobra.Command, args []string) error {
	converter := openapi.NewConverter(
		openapi.WithBaseURL(importBaseURLFlag),
		openapi.WithTokenName(cfg.AccessTokenName),
		openapi.WithTags(importTagFlags),
		openapi.WithExcludeTags(importExcludeTagFlags),
		openapi.WithOperations(importOperationFlags),
		openapi.WithWarnFunc(func(format string, a ...any) { warnf(cmd, format, a...) }),
	)

	ws, err := converter.ConvertFile(args[0])
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to convert OpenAPI document: %w", err))
	}
	return writeWorkspace(cmd, ws)
}

func importHTTPCommand(cmd *cobra.Command, args []string) error {
	converter := httpfile.NewConverter(
		httpfile.WithCollectionName(importNameFlag),
		httpfile.WithWarnFunc(func(format string, a ...any) { warnf(cmd, format, a...) }),
	)

	ws, err := converter.ConvertFile(args[0])
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to convert .http file: %w", err))
	}
	return writeWorkspace(cmd, ws)
}

// writeWorkspace prints ws or writes it to --file, merging into an existing
// workspace when --merge is set.
func writeWorkspace(cmd *cobra.Command, ws *collection.Workspace) error {
	if importFileFlag == "" {
		data, err := ws.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if importMergeFlag {
		if existing, err := collection.LoadWorkspace(importFileFlag); err == nil {
			existing.Collections = append(existing.Collections, ws.Collections...)
			existing.Environments = append(existing.Environments, ws.Environments...)
			ws = existing
		} else if !errors.Is(err, fs.ErrNotExist) {
			return withExitCode(ExitParseError, fmt.Errorf("failed to read %s for merge: %w", importFileFlag, err))
		}
	}

	if dir := filepath.Dir(importFileFlag); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := ws.Save(importFileFlag); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	requests := len(ws.Requests())
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully imported to %s (%d requests, %d environments)\n",
		importFileFlag, requests, len(ws.Environments))
	return nil
}
