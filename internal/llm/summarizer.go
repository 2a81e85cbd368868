package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/flagaudit/internal/model"
)

// Summarizer wraps a provider and degrades gracefully when it fails
type Summarizer struct {
	provider Provider
	config   Config
	log      *zap.Logger
}

// NewSummarizer creates a summarizer; an empty provider yields a disabled one
func NewSummarizer(config Config, log *zap.Logger) (*Summarizer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		provider: provider,
		config:   config,
		log:      log,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary asks the provider for a narrative of doc.
// Provider failures end up as warnings on the result, never as an error.
func (s *Summarizer) GenerateSummary(ctx context.Context, doc model.AuditDocument) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	logger := s.logger()
	name := s.provider.Name()

	if err := s.provider.Available(ctx); err != nil {
		logger.Warn("LLM provider not available", zap.String("provider", name), zap.Error(err))
		return &model.LLMSummary{
			Enabled:  false,
			Provider: name,
			Warnings: []string{fmt.Sprintf("LLM provider %s is not available: %v", name, err)},
		}, nil
	}

	allowed := AllowedSlugs(doc)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Document:     doc,
		AllowedSlugs: allowed,
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	})

	summary := &model.LLMSummary{
		Enabled:        true,
		Provider:       name,
		Model:          s.config.Model,
		StrictMentions: s.config.StrictMentions,
	}

	if err != nil {
		logger.Warn("LLM summary generation failed", zap.String("provider", name), zap.Error(err))
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Summary generation failed: %v", err))
		return summary, nil
	}

	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.SummaryMD = resp.Summary
	summary.TokensUsed = resp.TokensUsed
	summary.Warnings = append(summary.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d mentions against %d allowed slugs", len(resp.Mentioned), len(allowed)))

	logger.Debug("LLM summary generated",
		zap.String("provider", name),
		zap.String("model", summary.Model),
		zap.Int("tokens", resp.TokensUsed))

	return summary, nil
}

func (s *Summarizer) logger() *zap.Logger {
	if s.log == nil {
		return zap.NewNop()
	}
	return s.log
}

// RenderSeparateMarkdown renders the narrative as a standalone Markdown file,
// clearly marked as generated
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder

	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** Verdicts and counts in the audit report were determined independently of this text.\n\n")

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Provider | %s |\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "| Model | %s |\n", summary.Model)
	}
	fmt.Fprintf(&b, "| Strict Mention Mode | %t |\n\n", summary.StrictMentions)

	if summary.SummaryMD != "" {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	} else {
		b.WriteString("_No summary was generated._\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
