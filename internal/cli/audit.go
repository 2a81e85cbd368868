package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/flagaudit/internal/cache"
	"github.com/ppiankov/flagaudit/internal/mealie"
	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/pipeline"
	"github.com/ppiankov/flagaudit/internal/worker"
)

var (
	cacheSeconds int
	recipesFile  string
	saveSnapshot string
	runTimeout   time.Duration
	failOnIssues bool
)

// errIssuesFound makes the process exit non-zero when --fail-on-issues is set
var errIssuesFound = errors.New("flag tag issues found")

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit [recipe-slug...]",
	Short: "Check every flag tag against its recipe",
	Long: `Audit fetches recipes, tags and categories from Mealie (or a snapshot),
runs one rule per flag tag and writes the issues to tags-report.json.

Recipes whose flag tags all agree with their data are left out of the report.
Flag tags that do not exist in Mealie are skipped with a warning.

Example:
  flagaudit audit -u https://mealie.example.com -t $TOKEN
  FLAGAUDIT_MEALIE_TOKEN=... flagaudit audit -u https://mealie.example.com --md report.md
  flagaudit audit --snapshot mealie.json --dry-run
  flagaudit audit pad-thai beef-stew --recipes more-slugs.txt`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	f := auditCmd.Flags()

	// Source flags
	f.StringP("url", "u", "", "URL of the Mealie instance")
	f.StringP("token", "t", "", "Mealie API token (prefer FLAGAUDIT_MEALIE_TOKEN)")
	f.StringP("ca-path", "c", "", "CA bundle used to verify the Mealie TLS certificate")
	f.Duration("timeout", 30*time.Second, "timeout for each Mealie request")
	f.String("snapshot", "", "read recipes from a snapshot file instead of Mealie")
	f.StringVar(&saveSnapshot, "save-snapshot", "", "write the fetched data to a snapshot file")
	f.IntVar(&cacheSeconds, "cache-duration", 12*3600, "seconds before cached responses expire (-1 never, 0 disables caching)")
	f.StringVar(&recipesFile, "recipes", "", "file with recipe slugs to audit (one per line)")

	// Execution flags
	f.Int("workers", runtime.NumCPU(), "recipes audited in parallel")
	f.DurationVar(&runTimeout, "run-timeout", 0, "abort the whole audit after this long (0 = no limit)")

	// Output flags
	f.String("json", "tags-report.json", "path of the JSON report")
	f.String("md", "", "also write a Markdown report to this path")
	f.Bool("table", true, "print a summary table")
	f.BoolP("dry-run", "d", false, "no-op; do not write any file")
	f.BoolVar(&failOnIssues, "fail-on-issues", false, "exit non-zero when the report is not empty")

	// LLM flags
	f.String("llm", "", "write an LLM narrative with this provider (openai, anthropic, ollama)")
	f.Lookup("llm").NoOptDefVal = "openai"
	f.String("llm-model", "", "LLM model name")
	f.String("llm-base-url", "", "LLM API base URL")

	for key, flag := range map[string]string{
		"mealie.url":          "url",
		"mealie.token":        "token",
		"mealie.ca_path":      "ca-path",
		"mealie.timeout":      "timeout",
		"mealie.snapshot":     "snapshot",
		"concurrency.workers": "workers",
		"output.json":         "json",
		"output.markdown":     "md",
		"output.table":        "table",
		"output.dry_run":      "dry-run",
		"llm.provider":        "llm",
		"llm.model":           "llm-model",
		"llm.base_url":        "llm-base-url",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("cache-duration") {
		cfg.Cache.Duration = time.Duration(cacheSeconds) * time.Second
	}
	if env := providerKeyEnv[cfg.LLM.Provider]; env != "" && cfg.LLM.APIKey == "" {
		return fmt.Errorf("%s environment variable not set", env)
	}

	slugs, err := selectedSlugs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	source, name, err := openSource(cfg)
	if err != nil {
		return err
	}

	if cfg.Output.DryRun {
		logger.Warn("[DRY RUN] running in dry run mode; no file will be written")
	}
	logger.Info("analysing recipe tags", zap.String("source", name), zap.Int("selected", len(slugs)))

	p := pipeline.NewPipeline(cfg, source, name, logger)

	snapshotPath := saveSnapshot
	if cfg.Output.DryRun {
		snapshotPath = ""
	}

	doc, runErr := p.Run(ctx, pipeline.RunOptions{Slugs: slugs, SaveSnapshot: snapshotPath})
	if doc == nil {
		return fmt.Errorf("audit failed: %w", runErr)
	}
	if runErr != nil {
		logger.Warn("audit interrupted, report is partial", zap.Error(runErr))
	}

	if err := p.RenderReport(doc, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("audit interrupted: %w", runErr)
	}

	logger.Info("processing completed",
		zap.Int("audited", doc.Summary.RecipesAudited),
		zap.Int("flagged", doc.Summary.RecipesFlagged),
		zap.Int("index", doc.Summary.Index))

	if failOnIssues && len(doc.Report) > 0 {
		return errIssuesFound
	}
	return nil
}

// selectedSlugs merges slugs from the command line and --recipes
func selectedSlugs(args []string) ([]string, error) {
	slugs := append([]string(nil), args...)
	if recipesFile != "" {
		fromFile, err := worker.ReadSlugsFromFile(recipesFile)
		if err != nil {
			return nil, fmt.Errorf("read recipes file: %w", err)
		}
		slugs = append(slugs, fromFile...)
	}

	seen := make(map[string]bool, len(slugs))
	out := slugs[:0]
	for _, s := range slugs {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// openSource returns the snapshot or a live Mealie client, plus a display name
func openSource(cfg *model.Config) (pipeline.Source, string, error) {
	if cfg.Mealie.Snapshot != "" {
		source, err := mealie.LoadSnapshot(cfg.Mealie.Snapshot)
		if err != nil {
			return nil, "", err
		}
		return source, cfg.Mealie.Snapshot, nil
	}

	if cfg.Mealie.URL == "" {
		return nil, "", fmt.Errorf("%w: Mealie URL is required (--url, FLAGAUDIT_MEALIE_URL or mealie.url)", model.ErrNoSource)
	}
	if cfg.Mealie.Token == "" {
		return nil, "", fmt.Errorf("Mealie API token is required (--token or FLAGAUDIT_MEALIE_TOKEN)")
	}

	client, err := mealie.NewClient(cfg.Mealie, mealie.Options{
		Cache:        cache.New(cfg.Cache),
		CacheTTL:     cfg.Cache.Duration,
		Throttle:     mealie.NewThrottle(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		FetchWorkers: cfg.Concurrency.FetchWorkers,
		Logger:       logger.Named("mealie"),
	})
	if err != nil {
		return nil, "", err
	}
	return client, cfg.Mealie.URL, nil
}
