package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/capture"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/abdul-hamid-achik/restvars/packages/output"
	"github.com/abdul-hamid-achik/restvars/packages/script"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <response-body|->",
	Short: "Find auth tokens in a JSON response body",
	Long: `Scan a JSON response body for credential-shaped fields (token,
accessToken, api_key, jwt, ...) and, when a test script is given, apply its
pm.environment.set(...) assignments to the same body.

Only 2xx responses are scanned for candidates; --status sets the status the
body was returned with.

Examples:
  restvars extract login.json
  curl -s https://api.example.com/login -d @creds.json | restvars extract -
  restvars extract login.json --script tests.js --save
  restvars extract login.json --workspace workspace.yaml -r "API/Auth/Login" --save`,
	Args: cobra.ExactArgs(1),
	RunE: extractCommand,
}

var (
	statusFlag      int
	contentTypeFlag string
	scriptFlag      string
	workspaceFlag   string
	extractReqFlag  string
	saveFlag        bool
)

func init() {
	extractCmd.Flags().IntVar(&statusFlag, "status", 200, "HTTP status the body was returned with")
	extractCmd.Flags().StringVar(&contentTypeFlag, "content-type", "application/json", "Content-Type the body was returned with")
	extractCmd.Flags().StringVar(&scriptFlag, "script", "", "Test script whose variable assignments are applied to the body")
	extractCmd.Flags().StringVar(&workspaceFlag, "workspace", getEnvString("RESTVARS_WORKSPACE", ""), "Workspace holding the request whose test script is applied (env: RESTVARS_WORKSPACE)")
	extractCmd.Flags().StringVarP(&extractReqFlag, "request", "r", "", "Request whose test script is applied (with --workspace)")
	extractCmd.Flags().BoolVar(&saveFlag, "save", false, "Save candidates and captures to the token store")
}

func extractCommand(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	body, err := readInput(cmd, args[0])
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to read response: %w", err))
	}

	resp := &http.Response{
		StatusCode: statusFlag,
		Headers:    map[string]string{"Content-Type": contentTypeFlag},
		Body:       body,
	}
	if !resp.IsJSON() {
		warnf(cmd, "content type %s is not JSON; nothing to extract", contentTypeFlag)
	} else if _, ok := resp.JSON(); !ok && len(strings.TrimSpace(string(body))) > 0 {
		warnf(cmd, "response body is not valid JSON")
	}

	extractor := capture.NewExtractor(
		capture.WithFieldFragments(cfg.ExtraTokenFields...),
		capture.WithAccessTokenName(cfg.AccessTokenName),
		capture.WithRefreshTokenName(cfg.RefreshTokenName),
	)

	result := &output.Extraction{
		StatusCode: statusFlag,
		Candidates: extractor.Extract(resp),
	}

	testScript, err := loadTestScript()
	if err != nil {
		return err
	}
	if testScript != "" {
		result.Captures = script.Apply(script.ParseTokenMappings(testScript), resp)
	}

	if saveFlag {
		drafts := append(capture.ToDrafts(result.Candidates), script.Drafts(result.Captures)...)
		saved, err := saveDrafts(ctx, drafts)
		if err != nil {
			return err
		}
		result.Saved = saved
	}

	newFormatter(cmd.OutOrStdout()).FormatExtraction(result)
	return nil
}

// loadTestScript returns the script named by --script, or the test script of
// the --workspace request.
func loadTestScript() (string, error) {
	if scriptFlag != "" {
		data, err := os.ReadFile(scriptFlag)
		if err != nil {
			return "", withExitCode(ExitParseError, fmt.Errorf("failed to read script: %w", err))
		}
		return string(data), nil
	}
	if workspaceFlag == "" && extractReqFlag == "" {
		return "", nil
	}
	if workspaceFlag == "" || extractReqFlag == "" {
		return "", withExitCode(ExitUsageError, fmt.Errorf("--workspace and --request must be used together"))
	}

	ws, err := collection.LoadWorkspace(workspaceFlag)
	if err != nil {
		return "", withExitCode(ExitParseError, err)
	}
	ref, err := ws.FindRequest(extractReqFlag)
	if err != nil {
		return "", withExitCode(ExitUsageError, err)
	}
	return ref.Request.TestScript, nil
}

// saveDrafts stores drafts in order. Later drafts for the same name replace
// earlier ones in stores that upsert by name.
func saveDrafts(ctx context.Context, drafts []auth.Draft) ([]auth.Token, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var saved []auth.Token
	for _, d := range drafts {
		tok, err := store.Save(ctx, d)
		if err != nil {
			return saved, withExitCode(ExitStoreError, fmt.Errorf("failed to save %s: %w", d.Name, err))
		}
		saved = append(saved, tok)
	}
	return saved, nil
}
