// Package score aggregates an audit report into a transparent summary
package score

import (
	"math"
	"sort"

	"github.com/ppiankov/flagaudit/internal/model"
)

// IndexFormula documents how Summary.Index is derived
const IndexFormula = "round(clean_recipes / recipes_audited * 100), 100 when nothing was audited"

// Scorer turns a report into a summary
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate summarizes report for a run that audited the given number of recipes.
// skipped lists the flag slugs the data source has no tag for.
func (s *Scorer) Calculate(report model.Report, audited int, skipped []string) model.Summary {
	byCode, byTag := s.countIssues(report)

	summary := model.Summary{
		RecipesAudited: audited,
		RecipesFlagged: len(report),
		Issues:         report.IssueCount(),
		ByCode:         byCode,
		ByTag:          byTag,
		Index:          s.calculateIndex(audited, len(report)),
		Formula:        IndexFormula,
	}

	if len(skipped) > 0 {
		summary.SkippedTags = append([]string(nil), skipped...)
		sort.Strings(summary.SkippedTags)
	}

	return summary
}

func (s *Scorer) countIssues(report model.Report) (map[model.Code]int, map[string]int) {
	byCode := make(map[model.Code]int)
	byTag := make(map[string]int)

	for _, verdicts := range report {
		for _, v := range verdicts {
			byCode[v.Code]++
			slug := v.TagSlug
			if slug == "" {
				slug = v.TagName
			}
			byTag[slug]++
		}
	}

	return byCode, byTag
}

// calculateIndex returns the percentage of audited recipes with no issues (0-100)
func (s *Scorer) calculateIndex(audited, flagged int) int {
	if audited <= 0 {
		return 100
	}
	clean := audited - flagged
	if clean < 0 {
		clean = 0
	}
	return int(math.Round(float64(clean) / float64(audited) * 100))
}

// TopTags returns the n flag slugs with the most issues, most frequent first.
// Ties are broken by slug.
func TopTags(summary model.Summary, n int) []string {
	tags := make([]string, 0, len(summary.ByTag))
	for slug := range summary.ByTag {
		tags = append(tags, slug)
	}

	sort.Slice(tags, func(i, j int) bool {
		ci, cj := summary.ByTag[tags[i]], summary.ByTag[tags[j]]
		if ci != cj {
			return ci > cj
		}
		return tags[i] < tags[j]
	})

	if n >= 0 && len(tags) > n {
		tags = tags[:n]
	}
	return tags
}
