package validate

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/flagaudit/internal/markup"
	"github.com/ppiankov/flagaudit/internal/model"
)

// Input is everything a rule may consult
type Input struct {
	Recipe        *model.Recipe
	Tag           model.Tag        // Flag tag being validated
	AllTags       []model.Tag      // Every tag known to the service
	AllCategories []model.Category // Every category known to the service
}

// Rule derives exactly one verdict for a flag tag on a recipe. Rules never mutate their input.
type Rule func(in Input) model.Verdict

// ruleSet binds the rules to their allow-lists
type ruleSet struct {
	lists *AllowLists
	log   *zap.Logger
}

func field(f Field) Rule {
	return func(in Input) model.Verdict {
		return CheckField(in.Recipe, in.Tag, f)
	}
}

func exclusiveTags(set func(*AllowLists) SlugSet, lists *AllowLists, mandatory bool) Rule {
	return func(in Input) model.Verdict {
		return CheckMutuallyExclusiveTags(in.Recipe, in.Tag, set(lists).Tags(in.AllTags), mandatory)
	}
}

func (rs *ruleSet) mealTypeCategory(in Input) model.Verdict {
	return checkMutuallyExclusiveCategories(in.Recipe, in.Tag, rs.lists.MealType.Categories(in.AllCategories), true)
}

func (rs *ruleSet) spiceRatios(in Input) model.Verdict {
	hasSection := false
	for _, ing := range in.Recipe.Ingredients {
		if ing.Title != "" && ing.Title == rs.lists.SpiceSectionTitle {
			hasSection = true
			break
		}
	}

	return presenceCheck(in.Recipe, in.Tag, hasSection,
		"recipe has Spice Ratios",
		"might need to be present", model.CodeUnknown)
}

func (rs *ruleSet) parsedIngredients(in Input) model.Verdict {
	recipe := in.Recipe

	if hasTag(recipe, in.Tag.Slug) && !recipe.AmountsDisabled() {
		return verdict(in.Tag, model.CodeConflict,
			"Tag '"+in.Tag.Name+"' is present but recipe's 'Disable Ingredient Amounts' setting is false")
	}

	allLinked := true
	for _, ing := range recipe.Ingredients {
		if ing.Food == nil {
			rs.log.Debug("ingredient has no linked food",
				zap.String("recipe", recipe.Slug),
				zap.String("ingredient", ingredientLabel(ing)))
			allLinked = false
			break
		}
	}

	return presenceCheck(recipe, in.Tag, allLinked,
		"recipe has parsed ingredients",
		"might need to be present", model.CodeUnknown)
}

func (rs *ruleSet) instructions(in Input) model.Verdict {
	recipe := in.Recipe
	present := hasTag(recipe, in.Tag.Slug)

	valid := len(recipe.Instructions) > 0
	for _, step := range recipe.Instructions {
		if step.Title == "" && step.Text == "" {
			valid = false
			break
		}
	}

	switch {
	case present && valid:
		return verdict(in.Tag, model.CodeConflict,
			"Tag '"+in.Tag.Name+"' is present but recipe has valid instructions")
	case !present && len(recipe.Instructions) == 0:
		return verdict(in.Tag, model.CodeMissing,
			"Tag '"+in.Tag.Name+"' should be present; recipe has no instructions")
	case !present && !valid:
		return verdict(in.Tag, model.CodeMissing,
			"Tag '"+in.Tag.Name+"' should be present; recipe has invalid instructions")
	default:
		return verdict(in.Tag, model.CodeOK, "")
	}
}

// instructionImages passes a recipe without steps as fully illustrated
func (rs *ruleSet) instructionImages(in Input) model.Verdict {
	allImages := true
	for i, step := range in.Recipe.Instructions {
		if !markup.HasImage(step.Text) {
			rs.log.Debug("instruction step has no image",
				zap.String("recipe", in.Recipe.Slug),
				zap.Int("step", i+1))
			allImages = false
			break
		}
	}

	return presenceCheck(in.Recipe, in.Tag, allImages,
		"recipe has instruction images",
		"might need to be present", model.CodeUnknown)
}

func (rs *ruleSet) nutritionFacts(in Input) model.Verdict {
	complete := in.Recipe.Nutrition != nil
	if complete {
		for _, v := range in.Recipe.Nutrition.Fields() {
			if v == "" {
				complete = false
				break
			}
		}
	}

	return presenceCheck(in.Recipe, in.Tag, complete,
		"recipe has Nutrition Facts",
		"should be present", model.CodeMissing)
}

func (rs *ruleSet) tools(in Input) model.Verdict {
	return presenceCheck(in.Recipe, in.Tag, len(in.Recipe.Tools) > 0,
		"recipe has tools",
		"should be present; recipe has no tools", model.CodeMissing)
}

func (rs *ruleSet) ingredients(in Input) model.Verdict {
	recipe := in.Recipe
	present := hasTag(recipe, in.Tag.Slug)
	amountsDisabled := recipe.AmountsDisabled()

	valid := len(recipe.Ingredients) > 0
	for _, ing := range recipe.Ingredients {
		if !ingredientValid(ing, amountsDisabled) {
			rs.log.Debug("invalid ingredient",
				zap.String("recipe", recipe.Slug),
				zap.String("ingredient", ingredientLabel(ing)))
			valid = false
			break
		}
	}

	switch {
	case present && valid:
		return verdict(in.Tag, model.CodeConflict,
			"Tag '"+in.Tag.Name+"' is present but recipe has valid ingredient(s)")
	case !present && len(recipe.Ingredients) == 0:
		return verdict(in.Tag, model.CodeMissing,
			"Tag '"+in.Tag.Name+"' should be present; recipe has no ingredient")
	case !present && !valid:
		return verdict(in.Tag, model.CodeMissing,
			"Tag '"+in.Tag.Name+"' should be present; recipe has invalid ingredient(s)")
	default:
		return verdict(in.Tag, model.CodeOK, "")
	}
}

// duplicate never flags an absent tag; duplication cannot be inferred from one recipe
func (rs *ruleSet) duplicate(in Input) model.Verdict {
	if !hasTag(in.Recipe, in.Tag.Slug) {
		return verdict(in.Tag, model.CodeOK, "")
	}

	var keys []string
	for k := range in.Recipe.Extras {
		if strings.HasPrefix(k, rs.lists.DuplicateExtraPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return verdict(in.Tag, model.CodeMissing,
			"Missing '"+rs.lists.DuplicateExtraPrefix+"' entry in API Extras")
	}

	for _, k := range keys {
		if in.Recipe.Extras[k] == "" {
			return verdict(in.Tag, model.CodeMissing, "Not all API Extras have URLs")
		}
	}

	return verdict(in.Tag, model.CodeOK, "")
}

// ingredientValid: with amounts disabled only the note matters, otherwise a food and a positive quantity
func ingredientValid(ing model.Ingredient, amountsDisabled bool) bool {
	if amountsDisabled {
		return ing.Note != ""
	}
	return ing.Food != nil && ing.Quantity > 0
}

func ingredientLabel(ing model.Ingredient) string {
	switch {
	case ing.Display != "":
		return ing.Display
	case ing.OriginalText != "":
		return ing.OriginalText
	default:
		return ing.Note
	}
}
