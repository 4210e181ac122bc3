package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/vibeusage/internal/apierr"
	"github.com/joshuadavidthomas/vibeusage/internal/cache"
	"github.com/joshuadavidthomas/vibeusage/internal/config"
	"github.com/joshuadavidthomas/vibeusage/internal/display"
	"github.com/joshuadavidthomas/vibeusage/internal/fetch"
	"github.com/joshuadavidthomas/vibeusage/internal/gate"
	"github.com/joshuadavidthomas/vibeusage/internal/httpclient"
	"github.com/joshuadavidthomas/vibeusage/internal/logging"
	"github.com/joshuadavidthomas/vibeusage/internal/provider"
	// Register all providers.
	_ "github.com/joshuadavidthomas/vibeusage/internal/provider/claude"
	_ "github.com/joshuadavidthomas/vibeusage/internal/provider/codex"
	_ "github.com/joshuadavidthomas/vibeusage/internal/provider/copilot"
	_ "github.com/joshuadavidthomas/vibeusage/internal/provider/openrouter"
)

// version is injected at build time via -ldflags.
var version = "dev"

var (
	jsonOutput bool
	noColor    bool
	verbose    bool
	quiet      bool
	refresh    bool
)

// gates is the process-wide failure gate registry, persisted under the
// state directory so a gated provider stays gated across invocations.
var gates = gate.NewRegistry(cache.GateStore{})

// exitCode is set by the usage commands so main can exit with the
// aggregate result code even when cobra reports no error.
var exitCode int

var rootCmd = &cobra.Command{
	Use:          "vibeusage",
	Short:        "Track usage across agentic LLM providers",
	Long:         "A unified CLI tool that aggregates usage statistics from Claude, Codex, Copilot, and OpenRouter.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && quiet {
			verbose = false
		}
		l := newConfiguredLogger()
		cmd.SetContext(logging.WithLogger(cmd.Context(), l))

		// Load config from disk so malformed files surface a warning.
		cfg, err := config.Init()
		if err != nil {
			l.Warn("config file is malformed, using defaults", "err", err)
		}

		if noColor || os.Getenv("VIBEUSAGE_NO_COLOR") != "" {
			display.DisableColor()
		}

		httpclient.Configure(fetchTimeout(cfg), cfg.Fetch.MaxRetries)
	},
	RunE: runDefaultUsage,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	rootCmd.PersistentFlags().BoolVarP(&refresh, "refresh", "r", false, "Disable cache fallback — fresh data or error")
	rootCmd.Flags().Bool("version", false, "Show version and exit")

	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(updateCmd)

	for _, id := range provider.ListIDs() {
		rootCmd.AddCommand(makeProviderCmd(id))
	}
}

// ExecuteContext runs the root command and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if jsonOutput {
			_ = display.OutputErrorJSON(outWriter, apierr.Classify(err, ""))
		}
		return fetch.ExitAllFailed
	}
	return exitCode
}

func runDefaultUsage(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		out("vibeusage %s\n", version)
		return nil
	}

	cfg := config.Get()
	if len(cfg.EnabledProviders) == 0 && provider.CountConfigured() == 0 && !jsonOutput && !quiet {
		showFirstRunMessage()
		return nil
	}

	return fetchAndDisplayAll(cmd.Context())
}

func fetchAndDisplayAll(ctx context.Context) error {
	start := time.Now()

	cfg := config.Get()
	orchCfg := orchestratorConfigFromConfig(cfg)
	providerMap := availableStrategyMap(cfg)

	var outcomes map[string]fetch.FetchOutcome
	err := runWithProgress(provider.AvailableIDs(cfg), func(onProgress func(fetch.FetchOutcome)) {
		outcomes = fetch.FetchEnabledProviders(ctx, providerMap, !refresh, orchCfg, cfg.IsProviderEnabled, onProgress)
	})
	if err != nil {
		return err
	}

	exitCode = fetch.ExitCode(outcomes)

	if jsonOutput {
		return display.OutputOutcomesJSON(outWriter, outcomes)
	}

	displayOutcomes(ctx, outcomes, time.Since(start).Milliseconds())
	return nil
}

// runWithProgress runs fn under the fetch spinner when stdout is an
// interactive terminal, or directly (with progress discarded) otherwise.
func runWithProgress(ids []string, fn func(onProgress func(fetch.FetchOutcome))) error {
	if !display.SpinnerShouldShow(quiet, jsonOutput, display.IsTTY()) {
		fn(func(fetch.FetchOutcome) {})
		return nil
	}
	if err := display.SpinnerRun(ids, fn); err != nil {
		return fmt.Errorf("progress display: %w", err)
	}
	return nil
}

// availableStrategyMap restricts the registry's strategy map to providers
// that are enabled and have at least one usable credential source, so
// unconfigured providers never show up as failures.
func availableStrategyMap(cfg config.Config) map[string][]fetch.Strategy {
	m := make(map[string][]fetch.Strategy)
	for _, id := range provider.AvailableIDs(cfg) {
		if p, ok := provider.Get(id); ok {
			m[id] = p.FetchStrategies()
		}
	}
	return m
}

func displayOutcomes(ctx context.Context, outcomes map[string]fetch.FetchOutcome, durationMs int64) {
	logger := logging.FromContext(ctx)

	ids := make([]string, 0, len(outcomes))
	for id := range outcomes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summary := fetch.Aggregate(outcomes)

	if !summary.HasAnyData() {
		if !quiet {
			outln("No usage data available")
			if summary.AllFailed() {
				outln()
				for _, pid := range ids {
					outln(display.RenderProviderError(outcomes[pid]))
				}
			} else {
				outln("\nSet up a provider with:")
				outln("  vibeusage auth <provider>")
			}
		}
		logOutcomeErrors(logger, outcomes, ids)
		return
	}

	for _, pid := range ids {
		o := outcomes[pid]
		if !o.Success || o.Snapshot == nil {
			continue
		}
		if quiet {
			for _, p := range o.Snapshot.Periods {
				out("%s %s: %d%%\n", pid, p.Name, p.Utilization)
			}
			continue
		}
		outln(display.RenderProviderPanel(o))
	}

	if !quiet {
		for _, pid := range ids {
			o := outcomes[pid]
			if o.Success && o.Snapshot != nil {
				continue
			}
			outln(display.RenderProviderError(o))
		}
	}

	if durationMs > 0 {
		logger.Debug("fetch complete", "total_duration_ms", durationMs)
	}
	logOutcomeErrors(logger, outcomes, ids)
}

func logOutcomeErrors(logger *log.Logger, outcomes map[string]fetch.FetchOutcome, ids []string) {
	for _, pid := range ids {
		if o := outcomes[pid]; o.Err != nil {
			logger.Debug("provider error", "provider", pid, "error", o.Err.Message, "category", string(o.Err.Category))
		}
	}
}

func makeProviderCmd(providerID string) *cobra.Command {
	titleName := provider.DisplayName(providerID)
	return &cobra.Command{
		Use:   providerID,
		Short: "Show usage for " + titleName,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchAndDisplayProvider(cmd.Context(), providerID)
		},
	}
}

func fetchAndDisplayProvider(ctx context.Context, providerID string) error {
	logger := logging.FromContext(ctx)

	p, ok := provider.Get(providerID)
	if !ok {
		return fmt.Errorf("unknown provider: %s. Available: %s", providerID, strings.Join(provider.ListIDs(), ", "))
	}

	start := time.Now()

	strategies := p.FetchStrategies()
	pipeCfg := pipelineConfigFromConfig(config.Get())

	var outcome fetch.FetchOutcome
	err := runWithProgress([]string{providerID}, func(onProgress func(fetch.FetchOutcome)) {
		outcome = fetch.FetchSingleProvider(ctx, providerID, strategies, !refresh, pipeCfg)
		onProgress(outcome)
	})
	if err != nil {
		return err
	}

	outcomes := map[string]fetch.FetchOutcome{providerID: outcome}
	exitCode = fetch.ExitCode(outcomes)

	if jsonOutput {
		return display.OutputOutcomesJSON(outWriter, outcomes)
	}

	if !outcome.Success || outcome.Snapshot == nil {
		outln(display.RenderProviderError(outcome))
		return nil
	}

	if quiet {
		for _, period := range outcome.Snapshot.Periods {
			out("%s %s: %d%%\n", providerID, period.Name, period.Utilization)
		}
		return nil
	}

	logFields := []any{"provider", providerID, "source", outcome.Source}
	if d := time.Since(start).Milliseconds(); d > 0 {
		logFields = append(logFields, "duration_ms", d)
	}
	logger.Debug("fetch complete", logFields...)

	// The detail view includes upstream health, fetched separately.
	status := p.FetchStatus(ctx)
	outln(display.RenderSingleProvider(outcome, display.DetailOptions{Status: &status}))
	return nil
}

func fetchTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.Fetch.Timeout * float64(time.Second))
}

func pipelineConfigFromConfig(cfg config.Config) fetch.PipelineConfig {
	return fetch.PipelineConfig{
		Timeout:               fetchTimeout(cfg),
		StaleThresholdMinutes: cfg.Fetch.StaleThresholdMinutes,
		Cache:                 cache.SnapshotStore{},
		Gates:                 gates,
	}
}

func orchestratorConfigFromConfig(cfg config.Config) fetch.OrchestratorConfig {
	return fetch.OrchestratorConfig{
		MaxConcurrent: cfg.Fetch.MaxConcurrent,
		Pipeline:      pipelineConfigFromConfig(cfg),
	}
}

func showFirstRunMessage() {
	outln()
	outln("Welcome to vibeusage!")
	outln("Track your usage across AI providers in one place.")
	outln()
	outln("Get started with:")
	outln("  vibeusage auth <provider>")
	outln()
}
