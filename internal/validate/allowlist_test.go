package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/flagaudit/internal/model"
)

func TestSlugSet_Has(t *testing.T) {
	set := NewSlugSet("beef", " Pork ", "", "TOFU")

	tests := []struct {
		slug string
		want bool
	}{
		{"beef", true},
		{"pork", true},
		{"tofu", true},
		{"Beef", true},
		{"", false},
		{"lamb", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, set.Has(tt.slug))
		})
	}
	assert.Len(t, set, 3)
}

func TestSlugSet_TagsPreservesOrder(t *testing.T) {
	set := NewSlugSet("pork", "beef")
	all := []model.Tag{beefTag, quickTag, newTag("pork", "Pork")}

	got := set.Tags(all)

	assert.Equal(t, []model.Tag{beefTag, newTag("pork", "Pork")}, got)
}

func TestSlugSet_Categories(t *testing.T) {
	set := NewSlugSet(model.DefaultRules().MealTypeCategories...)

	got := set.Categories(testCategories())

	assert.Equal(t, []model.Category{dinnerCategory}, got)
}

func TestNewAllowLists_Defaults(t *testing.T) {
	lists := NewAllowLists(model.RulesConfig{})

	assert.Equal(t, "Spice Mix", lists.SpiceSectionTitle)
	assert.Equal(t, "duplicate", lists.DuplicateExtraPrefix)
	assert.Empty(t, lists.Protein)

	lists = NewAllowLists(model.DefaultRules())
	assert.True(t, lists.Protein.Has("vegetarian"))
	assert.True(t, lists.Country.Has("belgium"))
	assert.True(t, lists.MealType.Has("vinaigrette"))
	assert.False(t, lists.MealType.Has("sides"))
}
