package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/flagaudit/internal/model"
)

// Evaluator runs the flag rules for one recipe
type Evaluator interface {
	Evaluate(recipe *model.Recipe, tagsToValidate []model.Tag, allTags []model.Tag, allCategories []model.Category) []model.Verdict
}

// Sink receives the issues of one recipe. Add is called concurrently.
type Sink interface {
	Add(slug string, issues []model.Verdict)
}

// AuditJob audits a single recipe
type AuditJob struct {
	Recipe        *model.Recipe
	Flags         []model.Tag
	AllTags       []model.Tag
	AllCategories []model.Category
	Evaluator     Evaluator
	Sink          Sink
}

// Execute evaluates the recipe and hands its non-OK verdicts to the sink.
// A panic in the evaluator becomes the error of this recipe's result.
func (j *AuditJob) Execute(ctx context.Context) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = &AuditResult{Slug: j.Recipe.Slug, Error: fmt.Errorf("audit of %s panicked: %v", j.Recipe.Slug, rec)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return &AuditResult{Slug: j.Recipe.Slug, Error: err}
	}

	verdicts := j.Evaluator.Evaluate(j.Recipe, j.Flags, j.AllTags, j.AllCategories)

	var issues []model.Verdict
	for _, v := range verdicts {
		if v.IsIssue() {
			issues = append(issues, v)
		}
	}

	if len(issues) > 0 {
		j.Sink.Add(j.Recipe.Slug, issues)
	}

	return &AuditResult{
		Slug:      j.Recipe.Slug,
		Evaluated: len(verdicts),
		Issues:    len(issues),
	}
}

// AuditResult represents the result of an audit job
type AuditResult struct {
	Slug      string
	Evaluated int
	Issues    int
	Error     error
}

// GetError returns the error from the audit result
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchProcessor audits recipes concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// Batch is the read-only input shared by every job of a run
type Batch struct {
	Recipes       []model.Recipe
	Flags         []model.Tag
	AllTags       []model.Tag
	AllCategories []model.Category
}

// Process audits every recipe of the batch. Recipes are dispatched in order;
// once ctx is cancelled no further recipe is dispatched and ctx.Err() is returned.
func (b *BatchProcessor) Process(ctx context.Context, batch Batch, sink Sink) ([]*AuditResult, error) {
	if len(batch.Recipes) == 0 {
		return []*AuditResult{}, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	var submitErr error
	for i := range batch.Recipes {
		job := &AuditJob{
			Recipe:        &batch.Recipes[i],
			Flags:         batch.Flags,
			AllTags:       batch.AllTags,
			AllCategories: batch.AllCategories,
			Evaluator:     b.evaluator,
			Sink:          sink,
		}
		if err := pool.Submit(job); err != nil {
			submitErr = err
			break
		}
	}

	results := pool.Wait()

	auditResults := make([]*AuditResult, 0, len(results))
	for _, result := range results {
		switch r := result.(type) {
		case *AuditResult:
			auditResults = append(auditResults, r)
		case *PanicResult:
			auditResults = append(auditResults, &AuditResult{Error: r.GetError()})
		}
	}

	if submitErr != nil {
		return auditResults, submitErr
	}
	if err := ctx.Err(); err != nil {
		return auditResults, err
	}

	return auditResults, nil
}

// ReadSlugsFromFile reads recipe slugs from a file (one per line)
func ReadSlugsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var slugs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			slugs = append(slugs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return slugs, nil
}
