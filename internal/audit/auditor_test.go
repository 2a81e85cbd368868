package audit

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/validate"
)

var (
	beef   = model.Tag{Slug: "beef", Name: "Beef"}
	canada = model.Tag{Slug: "canada", Name: "Canada"}
	bbq    = model.Tag{Slug: "bbq", Name: "BBQ"}
	dinner = model.Category{Slug: "dinner", Name: "Dinner"}
)

func flag(slug validate.FlagSlug) model.Tag {
	return model.Tag{Slug: string(slug), Name: "Flag " + string(slug)}
}

func allTags() []model.Tag {
	tags := []model.Tag{beef, canada, bbq}
	for _, slug := range validate.FlagSlugs() {
		tags = append(tags, flag(slug))
	}
	return tags
}

func allCategories() []model.Category {
	return []model.Category{dinner}
}

// randomRecipe builds a recipe whose fields are filled or left empty at random
func randomRecipe(seed int64) model.Recipe {
	rng := rand.New(rand.NewSource(seed))
	pick := func() bool { return rng.Intn(2) == 0 }

	r := model.Recipe{Slug: fmt.Sprintf("recipe-%d", seed)}
	if pick() {
		r.Description = "Something tasty"
	}
	if pick() {
		r.RecipeYield = "4 servings"
	}
	if pick() {
		r.PerformTime = "20 minutes"
	}
	if pick() {
		rating := float64(rng.Intn(6))
		r.Rating = &rating
	}
	if pick() {
		r.Settings = &model.Settings{DisableAmount: pick()}
	}
	for i := rng.Intn(3); i > 0; i-- {
		ing := model.Ingredient{Note: "a note", Quantity: float64(rng.Intn(3))}
		if pick() {
			ing.Food = &model.Food{Name: "flour"}
		}
		r.Ingredients = append(r.Ingredients, ing)
	}
	for i := rng.Intn(3); i > 0; i-- {
		text := "Stir"
		if pick() {
			text = `Stir <img src="stir.png">`
		}
		r.Instructions = append(r.Instructions, model.Step{Text: text})
	}
	for _, t := range allTags() {
		if rng.Intn(4) == 0 {
			r.Tags = append(r.Tags, t)
		}
	}
	if pick() {
		r.Categories = []model.Category{dinner}
	}
	if pick() {
		r.Extras = map[string]string{"duplicate": ""}
	}
	return r
}

func randomRecipes(seeds []int64) []model.Recipe {
	seen := make(map[int64]bool)
	var out []model.Recipe
	for _, s := range seeds {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, randomRecipe(s))
	}
	return out
}

func newAuditor(workers int) *Auditor {
	return New(validate.NewRegistry(model.DefaultRules(), nil), workers, nil)
}

func TestRun_ReportHoldsOnlyIssues(t *testing.T) {
	rating := 5.0
	clean := model.Recipe{
		Slug:        "clean",
		Description: "ok",
		Rating:      &rating,
		Tags:        []model.Tag{flag(validate.FlagMissingImage)},
	}
	dirty := model.Recipe{
		Slug:        "dirty",
		Description: "has one",
		Tags:        []model.Tag{flag(validate.FlagMissingDescription)},
	}

	// Only two flags exist in this data source
	tags := []model.Tag{flag(validate.FlagMissingDescription), flag(validate.FlagMissingRating)}

	res, err := newAuditor(2).Run(context.Background(), []model.Recipe{dirty, clean}, tags, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Audited)
	require.Len(t, res.Report, 1)
	issues := res.Report["dirty"]
	require.Len(t, issues, 2)
	assert.Equal(t, model.CodeConflict, issues[0].Code)
	assert.Equal(t, "missing-description", issues[0].TagSlug)
	assert.Equal(t, model.CodeMissing, issues[1].Code)
	assert.Equal(t, "missing-rating", issues[1].TagSlug)
	assert.Len(t, res.Skipped, len(validate.FlagSlugs())-2)
}

func TestRun_WarnsAboutMissingFlagTags(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	auditor := New(validate.NewRegistry(model.DefaultRules(), nil), 1, zap.New(core))

	tags := allTags()[:3] // no flag tags at all
	tags = append(tags, flag(validate.FlagDuplicate))

	res, err := auditor.Run(context.Background(), []model.Recipe{{Slug: "stew"}}, tags, nil)
	require.NoError(t, err)

	assert.Len(t, res.Skipped, len(validate.FlagSlugs())-1)
	assert.NotContains(t, res.Skipped, "duplicate")
	assert.Equal(t, "missing-bbq-tag", res.Skipped[0])

	warnings := logs.FilterMessage("Mealie doesn't have tag slug, skipping validation").All()
	assert.Len(t, warnings, len(validate.FlagSlugs())-1)
	assert.Equal(t, "missing-bbq-tag", warnings[0].ContextMap()["slug"])
	assert.Empty(t, res.Report, "duplicate flag absent from the recipe is always OK")
}

func TestRun_Empty(t *testing.T) {
	res, err := newAuditor(4).Run(context.Background(), nil, allTags(), allCategories())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Audited)
	assert.Empty(t, res.Report)
	assert.Empty(t, res.Skipped)
}

func TestRun_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("two runs over the same recipes produce identical reports", prop.ForAll(
		func(seeds []int64) bool {
			recipes := randomRecipes(seeds)
			auditor := newAuditor(4)

			first, err1 := auditor.Run(context.Background(), recipes, allTags(), allCategories())
			second, err2 := auditor.Run(context.Background(), recipes, allTags(), allCategories())
			if err1 != nil || err2 != nil {
				return false
			}
			return cmp.Equal(first.Report, second.Report)
		},
		gen.SliceOfN(15, gen.Int64()),
	))

	properties.TestingRun(t)
}

func TestRun_Sparsity(t *testing.T) {
	registry := validate.NewRegistry(model.DefaultRules(), nil)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("a recipe is reported iff some rule is not OK", prop.ForAll(
		func(seeds []int64) bool {
			recipes := randomRecipes(seeds)
			res, err := New(registry, 3, nil).Run(context.Background(), recipes, allTags(), allCategories())
			if err != nil {
				return false
			}

			for i := range recipes {
				verdicts := registry.Evaluate(&recipes[i], allTags(), allTags(), allCategories())
				hasIssue := false
				for _, v := range verdicts {
					if v.IsIssue() {
						hasIssue = true
					}
				}
				issues, reported := res.Report[recipes[i].Slug]
				if reported != hasIssue {
					return false
				}
				for _, v := range issues {
					if v.Code == model.CodeOK {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(15, gen.Int64()),
	))

	properties.TestingRun(t)
}

func TestRun_SequentialMatchesParallel(t *testing.T) {
	var seeds []int64
	for i := int64(0); i < 200; i++ {
		seeds = append(seeds, i*7919)
	}
	recipes := randomRecipes(seeds)

	sequential, err := newAuditor(1).Run(context.Background(), recipes, allTags(), allCategories())
	require.NoError(t, err)
	parallel, err := newAuditor(16).Run(context.Background(), recipes, allTags(), allCategories())
	require.NoError(t, err)

	if diff := cmp.Diff(sequential.Report, parallel.Report); diff != "" {
		t.Errorf("parallel report differs (-sequential +parallel):\n%s", diff)
	}
	assert.Equal(t, sequential.Audited, parallel.Audited)
}

func TestRun_RuleFailureIsIsolated(t *testing.T) {
	builtin := validate.NewRegistry(model.DefaultRules(), nil)
	registry := validate.NewRegistry(model.DefaultRules(), nil)
	registry.Register(validate.FlagMissingTools, "fails on one recipe", func(in validate.Input) model.Verdict {
		if in.Recipe.Slug == "cursed" {
			panic(errors.New("unexpected shape"))
		}
		return builtin.Evaluate(in.Recipe, []model.Tag{in.Tag}, in.AllTags, in.AllCategories)[0]
	})

	recipes := []model.Recipe{{Slug: "cursed"}, {Slug: "plain"}}

	res, err := New(registry, 2, nil).Run(context.Background(), recipes, allTags(), allCategories())
	require.NoError(t, err)

	baseline, err := newAuditor(2).Run(context.Background(), recipes, allTags(), allCategories())
	require.NoError(t, err)

	assert.Equal(t, baseline.Report["plain"], res.Report["plain"], "other recipes are unaffected")

	var ruleErrors, others []model.Verdict
	for _, v := range res.Report["cursed"] {
		if v.Code == model.CodeRuleError {
			ruleErrors = append(ruleErrors, v)
		} else {
			others = append(others, v)
		}
	}
	require.Len(t, ruleErrors, 1)
	assert.Contains(t, ruleErrors[0].Reason, "unexpected shape")

	var baselineOthers []model.Verdict
	for _, v := range baseline.Report["cursed"] {
		if v.TagSlug != string(validate.FlagMissingTools) {
			baselineOthers = append(baselineOthers, v)
		}
	}
	assert.Equal(t, baselineOthers, others, "other flags on the same recipe are unaffected")
	assert.Empty(t, res.Failed)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newAuditor(2).Run(ctx, randomRecipes([]int64{1, 2, 3}), allTags(), allCategories())

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Failed, "cancellation is not a recipe failure")
}
