// Package pipeline wires a recipe source, the auditor and the renderers into one run
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/flagaudit/internal/audit"
	"github.com/ppiankov/flagaudit/internal/llm"
	"github.com/ppiankov/flagaudit/internal/mealie"
	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/score"
	"github.com/ppiankov/flagaudit/internal/validate"
)

// Source provides the data an audit reads. Implemented by the Mealie client and snapshots.
type Source interface {
	Recipes(ctx context.Context, slugs []string) ([]model.Recipe, error)
	Tags(ctx context.Context) ([]model.Tag, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// Pipeline orchestrates the complete audit process
type Pipeline struct {
	source     Source
	sourceName string
	registry   *validate.Registry
	auditor    *audit.Auditor
	scorer     *score.Scorer
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	config     *model.Config
	log        *zap.Logger
	now        func() time.Time
}

// NewPipeline creates a new pipeline reading from source
func NewPipeline(cfg *model.Config, source Source, sourceName string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM), log.Named("llm"))
		if err != nil {
			log.Warn("failed to initialize LLM provider", zap.Error(err))
		} else {
			summarizer = s
		}
	}

	registry := validate.NewRegistry(cfg.Rules, log.Named("rules"))

	return &Pipeline{
		source:     source,
		sourceName: sourceName,
		registry:   registry,
		auditor:    audit.New(registry, cfg.Concurrency.Workers, log.Named("audit")),
		scorer:     score.NewScorer(),
		renderer:   NewRenderer(),
		summarizer: summarizer,
		config:     cfg,
		log:        log,
		now:        time.Now,
	}
}

// RunOptions narrow a run
type RunOptions struct {
	// Slugs restricts the audit to these recipes; empty audits every recipe
	Slugs []string

	// SaveSnapshot writes the fetched data to this file before auditing
	SaveSnapshot string
}

// Run fetches everything, audits it and scores the result.
// When ctx is cancelled mid-audit the partial document is returned along with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*model.AuditDocument, error) {
	// 1. Fetch the vocabularies concurrently
	var (
		tags       []model.Tag
		categories []model.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tags, err = p.source.Tags(gctx)
		if err != nil {
			return fmt.Errorf("fetch tags: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = p.source.Categories(gctx)
		if err != nil {
			return fmt.Errorf("fetch categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 2. Fetch recipe details
	recipes, err := p.source.Recipes(ctx, opts.Slugs)
	if err != nil {
		return nil, fmt.Errorf("fetch recipes: %w", err)
	}
	p.log.Info("fetched data",
		zap.Int("recipes", len(recipes)),
		zap.Int("tags", len(tags)),
		zap.Int("categories", len(categories)))

	// 3. Keep an offline copy if asked
	if opts.SaveSnapshot != "" {
		if err := mealie.SaveSnapshot(opts.SaveSnapshot, mealie.Snapshot{
			Recipes:    recipes,
			Tags:       tags,
			Categories: categories,
		}); err != nil {
			return nil, err
		}
		p.log.Info("saved snapshot", zap.String("path", opts.SaveSnapshot))
	}

	// 4. Audit
	result, auditErr := p.auditor.Run(ctx, recipes, tags, categories)
	if result == nil {
		return nil, auditErr
	}

	// 5. Score
	doc := &model.AuditDocument{
		GeneratedAt: p.now().UTC(),
		Source:      p.sourceName,
		Report:      result.Report,
		Summary:     p.scorer.Calculate(result.Report, result.Audited, result.Skipped),
		Failed:      result.Failed,
	}
	if auditErr != nil {
		return doc, auditErr
	}

	// 6. Generate LLM summary if enabled (AFTER scoring, never affects verdicts).
	// The narrative is only written next to the Markdown report.
	switch {
	case !p.summarizer.IsEnabled():
	case !p.narrativeWritable():
		p.log.Warn("skipping LLM summary, no Markdown report will be written",
			zap.String("provider", p.summarizer.ProviderName()),
			zap.Bool("dry_run", p.config.Output.DryRun))
	default:
		summary, err := p.summarizer.GenerateSummary(ctx, *doc)
		if err != nil {
			p.log.Warn("LLM summary generation failed", zap.Error(err))
		} else if summary != nil {
			doc.LLM = summary
		}
	}

	return doc, nil
}

// narrativeWritable reports whether RenderReport will write an LLM narrative file
func (p *Pipeline) narrativeWritable() bool {
	return p.config.Output.MarkdownPath != "" && !p.config.Output.DryRun
}

// RenderReport writes the configured outputs for doc and the summary table to out.
// A dry run renders the table only.
func (p *Pipeline) RenderReport(doc *model.AuditDocument, out io.Writer) error {
	output := p.config.Output

	if output.Table && out != nil {
		p.renderer.RenderTable(doc, out)
	}

	if output.DryRun {
		p.log.Warn("[DRY RUN] would have written report files",
			zap.String("json", output.JSONPath),
			zap.String("markdown", output.MarkdownPath))
		return nil
	}

	var errs []error

	if output.JSONPath != "" {
		if err := p.renderer.RenderJSON(doc.Report, output.JSONPath); err != nil {
			errs = append(errs, fmt.Errorf("render JSON: %w", err))
		} else {
			p.log.Info("wrote report", zap.String("path", output.JSONPath))
		}
	}

	if output.MarkdownPath != "" {
		if err := p.renderer.RenderMarkdown(doc, output.MarkdownPath); err != nil {
			errs = append(errs, fmt.Errorf("render markdown: %w", err))
		} else {
			p.log.Info("wrote markdown", zap.String("path", output.MarkdownPath))
		}

		// Render LLM summary to separate file if present
		if doc.LLM != nil && doc.LLM.Enabled {
			llmPath := strings.TrimSuffix(output.MarkdownPath, ".md") + ".llm.md"
			if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(doc.LLM), llmPath); err != nil {
				p.log.Warn("failed to write LLM summary", zap.String("path", llmPath), zap.Error(err))
			} else {
				p.log.Info("wrote LLM summary", zap.String("path", llmPath))
			}
		}
	}

	return errors.Join(errs...)
}
