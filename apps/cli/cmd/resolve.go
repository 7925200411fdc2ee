package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/auth/tokenstore"
	"github.com/abdul-hamid-achik/restvars/packages/builtin"
	"github.com/abdul-hamid-achik/restvars/packages/collection"
	"github.com/abdul-hamid-achik/restvars/packages/core/env"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/abdul-hamid-achik/restvars/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <workspace>",
	Short: "Resolve a saved request against an environment and the token store",
	Long: `Resolve a saved request: substitute {{placeholders}} in its URL, headers,
body and auth from auth tokens first and environment variables second,
apply the effective (possibly inherited) auth, and print the result.

Examples:
  restvars resolve workspace.yaml -r "API/Auth/Login" -e staging
  restvars resolve workspace.yaml -r Login --env-file .env --token user_token=abc
  restvars resolve workspace.yaml -r Login -e dev --dynamic --watch
  restvars resolve workspace.yaml -r Login -o json --strict`,
	Args: cobra.ExactArgs(1),
	RunE: resolveCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	requestFlag   string
	envFlag       string
	envFileFlag   string
	systemEnvFlag string
	tokenFlags    []string
	dynamicFlag   bool
	watchFlag     bool
	strictFlag    bool
)

func init() {
	resolveCmd.Flags().StringVarP(&requestFlag, "request", "r", "", "Request ID, path (Collection/Folder/Name) or name")
	resolveCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("RESTVARS_ENV", ""), "Environment to use (env: RESTVARS_ENV)")
	resolveCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("RESTVARS_ENV_FILE", ""), "Environment file: YAML/JSON environments or a .env file (env: RESTVARS_ENV_FILE)")
	resolveCmd.Flags().StringVar(&systemEnvFlag, "system-env", getEnvString("RESTVARS_SYSTEM_ENV", ""), "Also read OS environment variables with this prefix (env: RESTVARS_SYSTEM_ENV)")
	resolveCmd.Flags().StringArrayVarP(&tokenFlags, "token", "t", nil, "Extra token as name=value; takes priority over stored tokens")
	resolveCmd.Flags().BoolVar(&dynamicFlag, "dynamic", getEnvBool("RESTVARS_DYNAMIC", false), "Resolve {{$guid}}, {{$timestamp}} and other dynamic variables (env: RESTVARS_DYNAMIC)")
	resolveCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch input files and re-resolve on change")
	resolveCmd.Flags().BoolVar(&strictFlag, "strict", getEnvBool("RESTVARS_STRICT", false), "Exit with code 1 when placeholders remain unresolved (env: RESTVARS_STRICT)")
	_ = resolveCmd.MarkFlagRequired("request")
}

func resolveCommand(cmd *cobra.Command, args []string) error {
	workspacePath := args[0]
	formatter := newFormatter(cmd.OutOrStdout())

	run := func() (int, error) {
		res, err := resolveRequest(commandContext(cmd), cmd, workspacePath)
		if err != nil {
			return 0, err
		}
		formatter.FormatResolution(res)
		return len(res.Unresolved), nil
	}

	unresolved, err := run()
	if err != nil {
		return err
	}

	if !watchFlag {
		if strictFlag && unresolved > 0 {
			return withExitCode(ExitUnresolved, fmt.Errorf("%d unresolved placeholder(s)", unresolved))
		}
		return nil
	}

	return watchInputs(cmd, watchedPaths(workspacePath), func() {
		if _, err := run(); err != nil {
			formatter.FormatError(err)
		}
	})
}

func resolveRequest(ctx context.Context, cmd *cobra.Command, workspacePath string) (*output.Resolution, error) {
	ws, err := collection.LoadWorkspace(workspacePath)
	if err != nil {
		return nil, withExitCode(ExitParseError, err)
	}

	ref, err := ws.FindRequest(requestFlag)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	environment, err := selectEnvironment(ws)
	if err != nil {
		return nil, err
	}

	tokens, err := loadTokens(ctx)
	if err != nil {
		return nil, err
	}

	var opts []env.Option
	if dynamicFlag || cfg.GetDynamicVariables() {
		opts = append(opts, env.WithDynamicVariables(builtin.NewRegistry()))
	}
	resolver := env.NewResolver(environment, tokens, opts...)

	prepared := http.Prepare(ref.Request.ToRequest(), ref.CollectionAuth(), resolver)

	res := &output.Resolution{
		Request:  ref.Path(),
		Prepared: prepared,
	}
	if environment != nil {
		res.Environment = environment.Name
	}

	for _, name := range unresolvedIn(prepared, resolver) {
		u := output.Unresolved{Name: name, Suggestions: resolver.Suggest(name)}
		res.Unresolved = append(res.Unresolved, u)
		if cfg.GetWarnUnresolved() && outputFlag != "json" {
			if len(u.Suggestions) > 0 {
				warnf(cmd, "unresolved variable: %s (did you mean %s?)", name, u.Suggestions[0])
			} else {
				warnf(cmd, "unresolved variable: %s", name)
			}
		}
	}
	return res, nil
}

// selectEnvironment layers the selected environment between a .env file
// (highest priority) and prefixed OS variables (lowest).
func selectEnvironment(ws *collection.Workspace) (*env.Environment, error) {
	name := envFlag
	if name == "" {
		name = cfg.DefaultEnvironment
	}
	envFile := envFileFlag
	if envFile == "" {
		envFile = cfg.EnvironmentFile
	}

	envs := ws.Environments
	var dotenv *env.Environment
	if envFile != "" {
		if isEnvironmentsFile(envFile) {
			loaded, err := env.LoadEnvironments(envFile)
			if err != nil {
				return nil, withExitCode(ExitParseError, err)
			}
			envs = append(loaded, envs...)
		} else {
			loaded, err := env.FromDotEnv("", envFile)
			if err != nil {
				return nil, withExitCode(ExitParseError, err)
			}
			dotenv = loaded
		}
	}

	var selected *env.Environment
	switch {
	case name != "":
		selected = env.Find(envs, name)
		if selected == nil {
			return nil, withExitCode(ExitConfigError, fmt.Errorf("environment %q not found", name))
		}
	case len(envs) == 1:
		selected = &envs[0]
	}

	var system *env.Environment
	if systemEnvFlag != "" {
		system = env.FromSystem("system", systemEnvFlag)
	}

	if dotenv == nil && system == nil {
		return selected, nil
	}

	mergedName := name
	switch {
	case selected != nil:
		mergedName = selected.Name
	case dotenv != nil:
		mergedName = dotenv.Name
	}
	return env.Merge(mergedName, dotenv, selected, system), nil
}

func isEnvironmentsFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// loadTokens returns --token values ahead of the stored tokens.
func loadTokens(ctx context.Context) ([]auth.Token, error) {
	extra := tokenstore.NewMemoryStore()
	for _, kv := range tokenFlags {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid --token %q: expected name=value", kv))
		}
		if _, err := extra.Save(ctx, auth.Draft{Name: name, Value: value, Source: auth.SourceManual}); err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid --token %q: %w", kv, err))
		}
	}
	flagged, err := extra.Load(ctx)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	stored, err := store.Load(ctx)
	if err != nil {
		return nil, withExitCode(ExitStoreError, fmt.Errorf("failed to load tokens: %w", err))
	}
	return append(flagged, stored...), nil
}

// unresolvedIn lists the placeholders still present in any resolved surface.
func unresolvedIn(p *http.Prepared, r *env.Resolver) []string {
	texts := []string{p.URL, p.Body}
	for k, v := range p.Headers {
		texts = append(texts, k, v)
	}
	if p.Auth != nil {
		for _, param := range p.Auth.Params() {
			texts = append(texts, param.Value)
		}
	}

	seen := make(map[string]bool)
	var names []string
	for _, text := range texts {
		for _, name := range r.Unresolved(text) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func watchedPaths(workspacePath string) []string {
	paths := []string{workspacePath}
	if envFileFlag != "" {
		paths = append(paths, envFileFlag)
	} else if cfg.EnvironmentFile != "" {
		paths = append(paths, cfg.EnvironmentFile)
	}
	if cfg.TokenStore.Driver == tokenstore.DriverSQLite && cfg.TokenStore.Path != "" {
		paths = append(paths, cfg.TokenStore.Path)
	}
	return paths
}

// watchInputs calls rerun, debounced, whenever one of paths changes. It
// watches parent directories so editors that replace files are seen.
func watchInputs(cmd *cobra.Command, paths []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				warnf(cmd, "failed to watch %s: %v", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	watchLoop(commandContext(cmd), watcher.Events, watcher.Errors, watched, WatchDebounceDelay,
		func(name string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "File changed: %s\n", name)
			rerun()
		},
		func(err error) {
			warnf(cmd, "watcher error: %v", err)
		})
	return nil
}

// watchLoop debounces events for watched files and calls onChange from the
// loop itself, so reruns never overlap.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, watched map[string]bool, delay time.Duration, onChange func(name string), onError func(error)) {
	var debounceTimer *time.Timer
	var fire <-chan time.Time
	var changed string

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		case <-fire:
			fire = nil
			onChange(changed)
		case event, ok := <-events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(delay)
			fire = debounceTimer.C
			changed = event.Name
		case err, ok := <-errs:
			if !ok {
				return
			}
			onError(err)
		}
	}
}
