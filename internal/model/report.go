package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

// Report maps a recipe slug to the verdicts that need attention.
// Recipes whose verdicts are all OK are never present.
type Report map[string][]Verdict

// recipeIssues is the per-recipe JSON envelope, kept compatible with the
// tags-report.json files produced by earlier tooling
type recipeIssues struct {
	Issues []Verdict `json:"issues"`
}

// MarshalJSON renders {"<slug>": {"issues": [...]}} without escaping HTML.
// The caller's encoder decides the final form: json.Marshal escapes <, > and &
// again, an Encoder with SetEscapeHTML(false) keeps them.
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]recipeIssues, len(r))
	for slug, verdicts := range r {
		out[slug] = recipeIssues{Issues: verdicts}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads the envelope written by MarshalJSON
func (r *Report) UnmarshalJSON(data []byte) error {
	var in map[string]recipeIssues
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = make(Report, len(in))
	for slug, issues := range in {
		(*r)[slug] = issues.Issues
	}
	return nil
}

// Slugs returns the report's recipe slugs in sorted order
func (r Report) Slugs() []string {
	slugs := make([]string, 0, len(r))
	for slug := range r {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// IssueCount returns the total number of verdicts across all recipes
func (r Report) IssueCount() int {
	n := 0
	for _, verdicts := range r {
		n += len(verdicts)
	}
	return n
}

// Summary is the transparent aggregate of an audit run
type Summary struct {
	RecipesAudited int            `json:"recipes_audited"`
	RecipesFlagged int            `json:"recipes_flagged"`
	Issues         int            `json:"issues"`
	ByCode         map[Code]int   `json:"by_code"`
	ByTag          map[string]int `json:"by_tag"`
	SkippedTags    []string       `json:"skipped_tags,omitempty"` // Flag slugs with no tag in the data source
	Index          int            `json:"index"`                  // Percentage of recipes with no issues (0-100)
	Formula        string         `json:"formula"`
}

// AuditDocument is everything a run produces, ready for rendering
type AuditDocument struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Source      string      `json:"source"`
	Report      Report      `json:"report"`
	Summary     Summary     `json:"summary"`
	Failed      []string    `json:"failed,omitempty"` // Recipes whose audit job failed outright
	LLM         *LLMSummary `json:"llm,omitempty"`    // Never affects verdicts
}

// LLMSummary contains the optional model-written narrative of a report
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictMentions bool     `json:"strict_mentions"`
	SummaryMD      string   `json:"summary_md,omitempty"`
	TokensUsed     int      `json:"tokens_used,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
