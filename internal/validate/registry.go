package validate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/flagaudit/internal/model"
)

// Registry maps flag slugs to their rules
type Registry struct {
	rules map[FlagSlug]registered
	log   *zap.Logger
}

type registered struct {
	rule        Rule
	description string
}

// NewRegistry creates a registry holding every built-in rule
func NewRegistry(cfg model.RulesConfig, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	lists := NewAllowLists(cfg)
	rs := &ruleSet{lists: lists, log: log}

	r := &Registry{
		rules: make(map[FlagSlug]registered, len(flagOrder)),
		log:   log,
	}

	r.Register(FlagMissingBBQTag, "optional; resolved by a BBQ tag",
		exclusiveTags(func(l *AllowLists) SlugSet { return l.BBQ }, lists, false))
	r.Register(FlagMissingSpiceRatios, "optional; resolved by a '"+lists.SpiceSectionTitle+"' ingredient section",
		rs.spiceRatios)
	r.Register(FlagMissingServingSize, "resolved by recipeYield", field(FieldRecipeYield))
	r.Register(FlagMissingFreezableTag, "optional; resolved by a freezable tag",
		exclusiveTags(func(l *AllowLists) SlugSet { return l.Freezable }, lists, false))
	r.Register(FlagMissingParsedIngredients, "optional; resolved when every ingredient links a food and amounts are disabled",
		rs.parsedIngredients)
	r.Register(FlagMissingSauceTag, "optional; resolved by a sauce tag",
		exclusiveTags(func(l *AllowLists) SlugSet { return l.Sauce }, lists, false))
	r.Register(FlagMissingSaladTag, "optional; resolved by a salad tag",
		exclusiveTags(func(l *AllowLists) SlugSet { return l.Salad }, lists, false))
	r.Register(FlagMissingProteinTags, "mandatory; resolved by a protein tag",
		exclusiveTags(func(l *AllowLists) SlugSet { return l.Protein }, lists, true))
	r.Register(FlagMissingInstructions, "resolved by at least one step, each with a title or text",
		rs.instructions)
	r.Register(FlagMissingInstructionImages, "optional; resolved when every step embeds an image",
		rs.instructionImages)
	r.Register(FlagMissingNutritionFacts, "resolved when every nutrition fact is set", rs.nutritionFacts)
	r.Register(FlagMissingTools, "resolved by at least one tool", rs.tools)
	r.Register(FlagMissingMealTypeCategory, "mandatory; resolved by a meal-type category", rs.mealTypeCategory)
	r.Register(FlagMissingCountryTag, "mandatory; resolved by a country tag",
		exclusiveTags(func(l *AllowLists) SlugSet { return l.Country }, lists, true))
	r.Register(FlagMissingIngredients, "resolved by at least one ingredient, each complete", rs.ingredients)
	r.Register(FlagMissingDescription, "resolved by description", field(FieldDescription))
	r.Register(FlagMissingCookTime, "resolved by performTime", field(FieldPerformTime))
	r.Register(FlagMissingPrepTime, "resolved by prepTime", field(FieldPrepTime))
	r.Register(FlagMissingTotalTime, "resolved by totalTime", field(FieldTotalTime))
	r.Register(FlagMissingImage, "resolved by image", field(FieldImage))
	r.Register(FlagDuplicate, "requires '"+lists.DuplicateExtraPrefix+"' extras carrying URLs", rs.duplicate)
	r.Register(FlagMissingRating, "resolved by a non-zero rating", field(FieldRating))

	return r
}

// Register binds a rule to a flag slug, replacing any previous binding.
// Not safe to call concurrently with Evaluate.
func (r *Registry) Register(slug FlagSlug, description string, rule Rule) {
	r.rules[slug] = registered{rule: rule, description: description}
}

// Has reports whether a rule is bound to slug
func (r *Registry) Has(slug FlagSlug) bool {
	_, ok := r.rules[slug]
	return ok
}

// Slugs returns the flag slugs that have a rule, in dispatch order
func (r *Registry) Slugs() []FlagSlug {
	out := make([]FlagSlug, 0, len(r.rules))
	for _, slug := range flagOrder {
		if r.Has(slug) {
			out = append(out, slug)
		}
	}
	return out
}

// Describe returns a one-line description of the rule bound to slug
func (r *Registry) Describe(slug FlagSlug) string {
	return r.rules[slug].description
}

// Evaluate runs every registered rule whose flag tag is in tagsToValidate,
// in FlagSlugs order. Flags without a rule are skipped.
// Exactly one verdict is returned per dispatched rule; a panicking rule yields RULE_ERROR.
func (r *Registry) Evaluate(recipe *model.Recipe, tagsToValidate []model.Tag, allTags []model.Tag, allCategories []model.Category) []model.Verdict {
	bySlug := make(map[string]model.Tag, len(tagsToValidate))
	for _, t := range tagsToValidate {
		bySlug[t.Slug] = t
	}

	verdicts := make([]model.Verdict, 0, len(bySlug))
	for _, slug := range flagOrder {
		tag, ok := bySlug[string(slug)]
		if !ok {
			continue
		}
		entry, ok := r.rules[slug]
		if !ok {
			continue
		}

		verdicts = append(verdicts, r.run(slug, entry.rule, Input{
			Recipe:        recipe,
			Tag:           tag,
			AllTags:       allTags,
			AllCategories: allCategories,
		}))
	}

	return verdicts
}

// run isolates a rule so one defect cannot abort the batch
func (r *Registry) run(slug FlagSlug, rule Rule, in Input) (v model.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			recipeSlug := ""
			if in.Recipe != nil {
				recipeSlug = in.Recipe.Slug
			}
			r.log.Error("rule failed",
				zap.String("recipe", recipeSlug),
				zap.String("tag", string(slug)),
				zap.Any("panic", rec))
			v = verdict(in.Tag, model.CodeRuleError, fmt.Sprintf("rule for '%s' failed: %v", slug, rec))
		}
	}()

	v = rule(in)
	if v.TagSlug == "" {
		v.TagSlug = in.Tag.Slug
	}
	if v.TagName == "" {
		v.TagName = in.Tag.Name
	}
	return v
}
