package validate

import (
	"strings"

	"github.com/ppiankov/flagaudit/internal/model"
)

// SlugSet is a set of tag or category slugs
type SlugSet map[string]struct{}

// NewSlugSet builds a set from slugs, ignoring blanks
func NewSlugSet(slugs ...string) SlugSet {
	set := make(SlugSet, len(slugs))
	for _, slug := range slugs {
		slug = normalizeSlug(slug)
		if slug == "" {
			continue
		}
		set[slug] = struct{}{}
	}
	return set
}

// Has reports whether slug is in the set
func (s SlugSet) Has(slug string) bool {
	_, ok := s[normalizeSlug(slug)]
	return ok
}

// Tags returns the tags of all whose slug is in the set, preserving order
func (s SlugSet) Tags(all []model.Tag) []model.Tag {
	var out []model.Tag
	for _, t := range all {
		if s.Has(t.Slug) {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the categories of all whose slug is in the set, preserving order
func (s SlugSet) Categories(all []model.Category) []model.Category {
	var out []model.Category
	for _, c := range all {
		if s.Has(c.Slug) {
			out = append(out, c)
		}
	}
	return out
}

// AllowLists are the "real" tags and categories that resolve a flag tag
type AllowLists struct {
	Protein   SlugSet
	Country   SlugSet
	MealType  SlugSet
	BBQ       SlugSet
	Freezable SlugSet
	Sauce     SlugSet
	Salad     SlugSet

	SpiceSectionTitle    string
	DuplicateExtraPrefix string
}

// NewAllowLists compiles the configured allow-lists
func NewAllowLists(cfg model.RulesConfig) *AllowLists {
	defaults := model.DefaultRules()

	lists := &AllowLists{
		Protein:              NewSlugSet(cfg.ProteinTags...),
		Country:              NewSlugSet(cfg.CountryTags...),
		MealType:             NewSlugSet(cfg.MealTypeCategories...),
		BBQ:                  NewSlugSet(cfg.BBQTags...),
		Freezable:            NewSlugSet(cfg.FreezableTags...),
		Sauce:                NewSlugSet(cfg.SauceTags...),
		Salad:                NewSlugSet(cfg.SaladTags...),
		SpiceSectionTitle:    cfg.SpiceSectionTitle,
		DuplicateExtraPrefix: cfg.DuplicateExtraPrefix,
	}

	if lists.SpiceSectionTitle == "" {
		lists.SpiceSectionTitle = defaults.SpiceSectionTitle
	}
	if lists.DuplicateExtraPrefix == "" {
		lists.DuplicateExtraPrefix = defaults.DuplicateExtraPrefix
	}

	return lists
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
