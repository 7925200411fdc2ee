package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/auth/tokenstore"
	"github.com/abdul-hamid-achik/restvars/packages/output"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage stored auth tokens",
	Long: `Manage the auth tokens used to resolve {{placeholders}}. Tokens take
priority over environment variables with the same name.

The store is selected by the tokenStore section of the config file. The
default memory store does not outlive the process; configure the sqlite
driver to keep tokens between runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd, args); err != nil {
			return err
		}
		if cfg.TokenStore.Driver == "" || cfg.TokenStore.Driver == tokenstore.DriverMemory {
			warnf(cmd, "using the in-memory token store; tokens are not persisted")
		}
		return nil
	},
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens with masked values",
	Args:  cobra.NoArgs,
	RunE:  tokensListCommand,
}

var tokensAddCmd = &cobra.Command{
	Use:   "add <name> <value>",
	Short: "Add a token, or replace the one with the same name",
	Args:  cobra.ExactArgs(2),
	RunE:  tokensAddCommand,
}

var tokensDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete a token by ID or name",
	Args:  cobra.ExactArgs(1),
	RunE:  tokensDeleteCommand,
}

var tokensClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored token",
	Args:  cobra.NoArgs,
	RunE:  tokensClearCommand,
}

var (
	revealFlag      bool
	tokenSourceFlag string
)

func init() {
	tokensListCmd.Flags().BoolVar(&revealFlag, "reveal", false, "Show full token values")
	tokensAddCmd.Flags().StringVar(&tokenSourceFlag, "source", string(auth.SourceManual), "Token source: manual, extracted, imported")

	tokensCmd.AddCommand(tokensListCmd)
	tokensCmd.AddCommand(tokensAddCmd)
	tokensCmd.AddCommand(tokensDeleteCmd)
	tokensCmd.AddCommand(tokensClearCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func tokensListCommand(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := store.Load(ctx)
	if err != nil {
		return withExitCode(ExitStoreError, fmt.Errorf("failed to load tokens: %w", err))
	}

	now := time.Now()
	views := make([]output.TokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, output.NewTokenView(t, revealFlag, now))
	}
	newFormatter(cmd.OutOrStdout()).FormatTokens(views)
	return nil
}

func tokensAddCommand(cmd *cobra.Command, args []string) error {
	source := auth.Source(tokenSourceFlag)
	switch source {
	case auth.SourceManual, auth.SourceExtracted, auth.SourceImported:
	default:
		return withExitCode(ExitUsageError, fmt.Errorf("unknown token source %q", tokenSourceFlag))
	}

	ctx := commandContext(cmd)
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	draft := auth.Draft{Name: args[0], Value: args[1], Source: source}

	// sqlite appends, so replace an existing token explicitly.
	existing, err := store.GetByName(ctx, draft.Normalize().Name)
	var tok auth.Token
	switch {
	case err == nil:
		tok, err = store.Update(ctx, existing.ID, draft)
	case errors.Is(err, tokenstore.ErrNotFound):
		tok, err = store.Save(ctx, draft)
	}
	if errors.Is(err, tokenstore.ErrInvalidToken) {
		return withExitCode(ExitUsageError, err)
	}
	if err != nil {
		return withExitCode(ExitStoreError, fmt.Errorf("failed to save token: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", tok.Name, tok.Masked())
	if exp, ok := tok.ExpiresAt(); ok && !exp.After(time.Now()) {
		warnf(cmd, "%s expired at %s", tok.Name, exp.Format(time.RFC3339))
	}
	return nil
}

func tokensDeleteCommand(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ref := args[0]
	tok, err := store.Get(ctx, ref)
	if errors.Is(err, tokenstore.ErrNotFound) {
		tok, err = store.GetByName(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return withExitCode(ExitUsageError, fmt.Errorf("%w: %s", err, ref))
		}
		return withExitCode(ExitStoreError, err)
	}

	if err := store.Delete(ctx, tok.ID); err != nil {
		return withExitCode(ExitStoreError, fmt.Errorf("failed to delete token: %w", err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", tok.Name)
	return nil
}

func tokensClearCommand(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return withExitCode(ExitStoreError, fmt.Errorf("failed to clear tokens: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cleared all tokens")
	return nil
}
