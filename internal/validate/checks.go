package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/flagaudit/internal/model"
)

// Field is a named, optional recipe field.
// Value returns the rendered value and whether the field counts as set.
type Field struct {
	Name  string
	Value func(*model.Recipe) (string, bool)
}

// resolve never panics on a nil recipe or a nil accessor
func (f Field) resolve(recipe *model.Recipe) (string, bool) {
	if recipe == nil || f.Value == nil {
		return "", false
	}
	return f.Value(recipe)
}

func textField(name string, get func(*model.Recipe) string) Field {
	return Field{
		Name: name,
		Value: func(r *model.Recipe) (string, bool) {
			v := get(r)
			return v, v != ""
		},
	}
}

// Recipe fields checked by the single-field rules
var (
	FieldRecipeYield = textField("recipeYield", func(r *model.Recipe) string { return r.RecipeYield })
	FieldDescription = textField("description", func(r *model.Recipe) string { return r.Description })
	FieldPerformTime = textField("performTime", func(r *model.Recipe) string { return r.PerformTime })
	FieldPrepTime    = textField("prepTime", func(r *model.Recipe) string { return r.PrepTime })
	FieldTotalTime   = textField("totalTime", func(r *model.Recipe) string { return r.TotalTime })
	FieldImage       = textField("image", func(r *model.Recipe) string { return r.Image })

	// FieldRating treats a zero rating as unset; the service stores "no rating" and 0 the same way
	FieldRating = Field{
		Name: "rating",
		Value: func(r *model.Recipe) (string, bool) {
			if r.Rating == nil || *r.Rating == 0 {
				return "", false
			}
			return strconv.FormatFloat(*r.Rating, 'f', -1, 64), true
		},
	}
)

// CheckField validates a flag tag that marks a single missing field.
// The tag and the field must not be present at the same time, and one of them must be.
func CheckField(recipe *model.Recipe, tag model.Tag, field Field) model.Verdict {
	value, set := field.resolve(recipe)
	present := hasTag(recipe, tag.Slug)

	switch {
	case present && set:
		return verdict(tag, model.CodeConflict,
			fmt.Sprintf("Tag '%s' is present but recipe has field '%s' set to: %s", tag.Name, field.Name, value))
	case !present && !set:
		return verdict(tag, model.CodeMissing, fmt.Sprintf("Tag '%s' should be present", tag.Name))
	default:
		return verdict(tag, model.CodeOK, "")
	}
}

// CheckMutuallyExclusiveTags validates a flag tag against the real tags it stands in for.
// A mandatory flag must be replaced by at least one real tag; an optional one yields Unknown.
func CheckMutuallyExclusiveTags(recipe *model.Recipe, validated model.Tag, realTags []model.Tag, mandatory bool) model.Verdict {
	var found []string
	for _, t := range realTags {
		if hasTag(recipe, t.Slug) {
			found = append(found, t.Name)
		}
	}

	return exclusive(recipe, validated, found, exclusiveWording{
		noun:    "tag(s)",
		missing: func(model.Tag) string { return "Couldn't find corresponding tag(s) on recipe" },
	}, mandatory)
}

// checkMutuallyExclusiveCategories is CheckMutuallyExclusiveTags for categories
func checkMutuallyExclusiveCategories(recipe *model.Recipe, validated model.Tag, realCategories []model.Category, mandatory bool) model.Verdict {
	var found []string
	for _, c := range realCategories {
		if hasCategory(recipe, c.Slug) {
			found = append(found, c.Name)
		}
	}

	return exclusive(recipe, validated, found, exclusiveWording{
		noun:    "category(ies)",
		missing: func(t model.Tag) string { return fmt.Sprintf("Tag '%s' needs to be present", t.Name) },
	}, mandatory)
}

type exclusiveWording struct {
	noun    string
	missing func(model.Tag) string
}

func exclusive(recipe *model.Recipe, validated model.Tag, found []string, w exclusiveWording, mandatory bool) model.Verdict {
	present := hasTag(recipe, validated.Slug)

	switch {
	case present && len(found) > 0:
		return verdict(validated, model.CodeConflict,
			fmt.Sprintf("Tag '%s' is present but also found %s: '%s'", validated.Name, w.noun, strings.Join(found, ", ")))
	case !present && len(found) == 0 && mandatory:
		return verdict(validated, model.CodeMissing, w.missing(validated))
	case !present && len(found) == 0:
		return verdict(validated, model.CodeUnknown, fmt.Sprintf("Tag '%s' might need to be present", validated.Name))
	default:
		return verdict(validated, model.CodeOK, "")
	}
}

// presenceCheck covers the rules where a recipe property replaces the flag tag entirely
func presenceCheck(recipe *model.Recipe, tag model.Tag, satisfied bool, conflict, missing string, code model.Code) model.Verdict {
	present := hasTag(recipe, tag.Slug)

	switch {
	case present && satisfied:
		return verdict(tag, model.CodeConflict, fmt.Sprintf("Tag '%s' is present but %s", tag.Name, conflict))
	case !present && !satisfied:
		return verdict(tag, code, fmt.Sprintf("Tag '%s' %s", tag.Name, missing))
	default:
		return verdict(tag, model.CodeOK, "")
	}
}

func verdict(tag model.Tag, code model.Code, reason string) model.Verdict {
	return model.Verdict{
		TagName: tag.Name,
		TagSlug: tag.Slug,
		Code:    code,
		Reason:  reason,
	}
}

func hasTag(recipe *model.Recipe, slug string) bool {
	return recipe != nil && recipe.HasTag(slug)
}

func hasCategory(recipe *model.Recipe, slug string) bool {
	return recipe != nil && recipe.HasCategory(slug)
}
