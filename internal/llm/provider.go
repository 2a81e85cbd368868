// Package llm writes an optional narrative for an audit run.
// The narrative is produced after every verdict is final and never feeds back into them.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/score"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narrative of the audit in strict mention mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// Available returns an error when the provider cannot be reached
	Available(ctx context.Context) error
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Document is the finished audit run
	Document model.AuditDocument

	// AllowedSlugs is the STRICT allowlist of recipe and flag slugs the LLM may mention.
	// Any other backticked slug in the answer is rejected.
	AllowedSlugs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary string

	// Mentioned are the slugs the LLM actually referred to (for verification)
	Mentioned []string

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI or Anthropic; unused by Ollama
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama's OpenAI-compatible API)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictMentions enforces the slug allowlist (should always be true)
	StrictMentions bool

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictMentions: true,
		MaxTokens:      800,
	}
}

// maxListedRecipes caps the recipes quoted in the prompt
const maxListedRecipes = 20

// BuildPrompt constructs the default prompt for summarization with strict mention mode
func BuildPrompt(doc model.AuditDocument) string {
	s := doc.Summary

	var b strings.Builder
	fmt.Fprintf(&b, `You are summarizing a recipe flag-tag audit. Flag tags (such as missing-image) mark data-quality problems on a recipe.
The audit checks whether each flag tag agrees with the recipe's actual data. It NEVER judges the recipes themselves.

CRITICAL RULES:
1. Wrap every recipe or flag slug you mention in backticks.
2. You MUST ONLY mention slugs that appear below.
3. Codes mean: CONFLICT = flag present but problem already fixed, remove the tag; MISSING = problem proven, add the tag; UNKNOWN = problem plausible, a human should check.
4. Do not speculate about recipes that are not listed.

Audit Summary:
- Source: %s
- Recipes audited: %d
- Recipes with issues: %d
- Issues: %d
- Clean index: %d/100
`, doc.Source, s.RecipesAudited, s.RecipesFlagged, s.Issues, s.Index)

	b.WriteString("\nIssues by code:\n")
	for _, code := range model.Codes() {
		if n := s.ByCode[code]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", code, n)
		}
	}

	b.WriteString("\nMost frequent flags:\n")
	for _, slug := range score.TopTags(s, 5) {
		fmt.Fprintf(&b, "- `%s`: %d\n", slug, s.ByTag[slug])
	}

	if len(s.SkippedTags) > 0 {
		fmt.Fprintf(&b, "\nFlags not validated (tag missing in Mealie): %s\n", joinSlugs(s.SkippedTags))
	}

	b.WriteString("\nRecipes with issues:")
	b.WriteString(listRecipes(doc.Report))

	b.WriteString("\n\nProvide a 3-4 sentence summary of where the tagging is out of date and what to fix first.")

	return b.String()
}

// AllowedSlugs returns every slug the LLM may mention for doc
func AllowedSlugs(doc model.AuditDocument) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(slug string) {
		if slug != "" && !seen[slug] {
			seen[slug] = true
			out = append(out, slug)
		}
	}

	for _, slug := range doc.Report.Slugs() {
		add(slug)
		for _, v := range doc.Report[slug] {
			add(v.TagSlug)
		}
	}
	for _, slug := range doc.Summary.SkippedTags {
		add(slug)
	}
	return out
}

// Helper functions

func joinSlugs(slugs []string) string {
	quoted := make([]string, len(slugs))
	for i, s := range slugs {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

func listRecipes(report model.Report) string {
	slugs := report.Slugs()
	if len(slugs) == 0 {
		return "\n(None - every flag tag agrees with its recipe)"
	}

	var b strings.Builder
	for i, slug := range slugs {
		if i >= maxListedRecipes {
			fmt.Fprintf(&b, "\n... and %d more recipes", len(slugs)-maxListedRecipes)
			break
		}
		fmt.Fprintf(&b, "\n- `%s`:", slug)
		for _, v := range report[slug] {
			fmt.Fprintf(&b, " `%s` %s;", v.TagSlug, v.Code)
		}
	}
	return b.String()
}
