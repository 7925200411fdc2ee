package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/restvars/packages/auth/tokenstore"
	"github.com/abdul-hamid-achik/restvars/packages/output"
	"github.com/abdul-hamid-achik/restvars/packages/script"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResolution(r *output.Resolution)
	FormatExtraction(e *output.Extraction)
	FormatMappings(mappings []script.TokenMapping)
	FormatTokens(tokens []output.TokenView)
	FormatError(err error)
	FormatHeader(version string)
}

func newFormatter(w io.Writer) Formatter {
	if outputFlag == "json" {
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(w),
		output.WithVerbose(verboseFlag),
		output.WithNoColor(cfg.GetNoColor()),
	)
}

// warnf prints a warning to stderr.
func warnf(cmd *cobra.Command, format string, args ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", yellow("warning:"), fmt.Sprintf(format, args...))
}

// openStore opens the configured token store.
func openStore(ctx context.Context) (tokenstore.Store, error) {
	store, err := tokenstore.Open(ctx, tokenstore.Config{
		Driver: cfg.TokenStore.Driver,
		Path:   cfg.TokenStore.Path,
		Key:    cfg.TokenStore.Key,
	})
	if err != nil {
		return nil, withExitCode(ExitStoreError, fmt.Errorf("failed to open token store: %w", err))
	}
	return store, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
