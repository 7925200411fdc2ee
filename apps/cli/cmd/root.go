package cmd

import (
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/restvars/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	noColorFlag bool
	outputFlag  string
	verboseFlag bool

	// cfg is the loaded configuration with flag overrides applied.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "restvars",
	Short: "Resolve {{variables}} and auth tokens in saved API requests.",
	Long: `restvars resolves {{placeholders}} in saved REST requests from
environments and captured auth tokens, follows collection auth
inheritance, and discovers tokens in API responses.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("RESTVARS_CONFIG", ""), "Path to config file (env: RESTVARS_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("RESTVARS_NO_COLOR", false), "Disable colored output (env: RESTVARS_NO_COLOR)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", getEnvString("RESTVARS_OUTPUT", "console"), "Output format: console, json (env: RESTVARS_OUTPUT)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("RESTVARS_VERBOSE", false), "Show token values and IDs (env: RESTVARS_VERBOSE)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("failed to load config: %w", err))
	}

	overrides := &config.Config{}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	cfg = loaded.Merge(overrides)

	switch outputFlag {
	case "console", "json":
	default:
		return withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q", outputFlag))
	}
	return nil
}
