package validate

// FlagSlug is the slug of a tag whose only purpose is to flag a data-quality problem
type FlagSlug string

const (
	FlagMissingBBQTag            FlagSlug = "missing-bbq-tag"
	FlagMissingSpiceRatios       FlagSlug = "missing-spice-ratios"
	FlagMissingServingSize       FlagSlug = "missing-serving-size"
	FlagMissingFreezableTag      FlagSlug = "missing-freezable-tag"
	FlagMissingParsedIngredients FlagSlug = "missing-parsed-ingredients"
	FlagMissingSauceTag          FlagSlug = "missing-sauce-tag"
	FlagMissingSaladTag          FlagSlug = "missing-salad-tag"
	FlagMissingProteinTags       FlagSlug = "missing-protein-tags"
	FlagMissingInstructions      FlagSlug = "missing-instructions"
	FlagMissingInstructionImages FlagSlug = "missing-instruction-images"
	FlagMissingNutritionFacts    FlagSlug = "missing-nutrition-facts"
	FlagMissingTools             FlagSlug = "missing-tools"
	FlagMissingMealTypeCategory  FlagSlug = "missing-meal-type-category"
	FlagMissingCountryTag        FlagSlug = "missing-country-tag"
	FlagMissingIngredients       FlagSlug = "missing-ingredients"
	FlagMissingDescription       FlagSlug = "missing-description"
	FlagMissingCookTime          FlagSlug = "missing-cook-time"
	FlagMissingPrepTime          FlagSlug = "missing-prep-time"
	FlagMissingTotalTime         FlagSlug = "missing-total-time"
	FlagMissingImage             FlagSlug = "missing-image"
	FlagDuplicate                FlagSlug = "duplicate"
	FlagMissingRating            FlagSlug = "missing-rating"
)

// flagOrder is the dispatch order of Evaluate
var flagOrder = []FlagSlug{
	FlagMissingBBQTag,
	FlagMissingSpiceRatios,
	FlagMissingServingSize,
	FlagMissingFreezableTag,
	FlagMissingParsedIngredients,
	FlagMissingSauceTag,
	FlagMissingSaladTag,
	FlagMissingProteinTags,
	FlagMissingInstructions,
	FlagMissingInstructionImages,
	FlagMissingNutritionFacts,
	FlagMissingTools,
	FlagMissingMealTypeCategory,
	FlagMissingCountryTag,
	FlagMissingIngredients,
	FlagMissingDescription,
	FlagMissingCookTime,
	FlagMissingPrepTime,
	FlagMissingTotalTime,
	FlagMissingImage,
	FlagDuplicate,
	FlagMissingRating,
}

// FlagSlugs returns every known flag slug in dispatch order
func FlagSlugs() []FlagSlug {
	out := make([]FlagSlug, len(flagOrder))
	copy(out, flagOrder)
	return out
}
