// Package audit runs the flag rules over a recipe collection
package audit

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/validate"
	"github.com/ppiankov/flagaudit/internal/worker"
)

// Auditor evaluates every recipe of a batch and keeps the issues
type Auditor struct {
	registry *validate.Registry
	workers  int
	log      *zap.Logger
}

// Result is the outcome of one batch
type Result struct {
	Report  model.Report
	Audited int
	Skipped []string // Flag slugs the data source has no tag for
	Failed  []string // Recipes whose audit job failed outright
}

// New creates an auditor running at most workers recipes in parallel
func New(registry *validate.Registry, workers int, log *zap.Logger) *Auditor {
	if log == nil {
		log = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Auditor{
		registry: registry,
		workers:  workers,
		log:      log,
	}
}

// ResolveFlags maps each known flag slug onto the data source's tag.
// Slugs with no tag are returned as skipped, in flag order.
func (a *Auditor) ResolveFlags(allTags []model.Tag) (flags []model.Tag, skipped []string) {
	bySlug := make(map[string]model.Tag, len(allTags))
	for _, t := range allTags {
		bySlug[t.Slug] = t
	}

	for _, slug := range validate.FlagSlugs() {
		if !a.registry.Has(slug) {
			continue
		}
		tag, ok := bySlug[string(slug)]
		if !ok {
			a.log.Warn("Mealie doesn't have tag slug, skipping validation", zap.String("slug", string(slug)))
			skipped = append(skipped, string(slug))
			continue
		}
		flags = append(flags, tag)
	}

	return flags, skipped
}

// Run audits recipes against the flag tags found in allTags.
// Recipes are dispatched in slug order; the report only holds recipes with issues.
// Cancelling ctx stops dispatch and Run returns the partial result with ctx.Err().
func (a *Auditor) Run(ctx context.Context, recipes []model.Recipe, allTags []model.Tag, allCategories []model.Category) (*Result, error) {
	flags, skipped := a.ResolveFlags(allTags)

	sorted := make([]model.Recipe, len(recipes))
	copy(sorted, recipes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slug < sorted[j].Slug })

	builder := newReportBuilder()
	processor := worker.NewBatchProcessor(a.registry, a.workers)

	a.log.Info("auditing recipes",
		zap.Int("recipes", len(sorted)),
		zap.Int("flags", len(flags)),
		zap.Int("workers", a.workers))

	results, err := processor.Process(ctx, worker.Batch{
		Recipes:       sorted,
		Flags:         flags,
		AllTags:       allTags,
		AllCategories: allCategories,
	}, builder)

	res := &Result{
		Report:  builder.report(),
		Skipped: skipped,
	}

	for _, r := range results {
		if r.Error != nil {
			if ctx.Err() == nil {
				a.log.Error("recipe audit failed", zap.String("recipe", r.Slug), zap.Error(r.Error))
				res.Failed = append(res.Failed, r.Slug)
			}
			continue
		}
		res.Audited++
	}
	sort.Strings(res.Failed)

	if err != nil {
		return res, err
	}

	a.log.Info("audit complete",
		zap.Int("audited", res.Audited),
		zap.Int("flagged", len(res.Report)),
		zap.Int("issues", res.Report.IssueCount()))

	return res, nil
}

// reportBuilder collects per-recipe issues from concurrent jobs
type reportBuilder struct {
	mu     sync.Mutex
	issues model.Report
}

func newReportBuilder() *reportBuilder {
	return &reportBuilder{issues: make(model.Report)}
}

// Add records a recipe's issues; called once per recipe
func (b *reportBuilder) Add(slug string, issues []model.Verdict) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issues[slug] = issues
}

func (b *reportBuilder) report() model.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(model.Report, len(b.issues))
	for slug, issues := range b.issues {
		out[slug] = issues
	}
	return out
}
