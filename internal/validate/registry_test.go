package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/flagaudit/internal/model"
)

func TestRegistry_EveryFlagHasRule(t *testing.T) {
	reg := NewRegistry(model.DefaultRules(), nil)

	for _, slug := range FlagSlugs() {
		assert.True(t, reg.Has(slug), "no rule for %s", slug)
		assert.NotEmpty(t, reg.Describe(slug), "no description for %s", slug)
	}
	assert.Len(t, FlagSlugs(), 22)
	assert.Equal(t, FlagSlugs(), reg.Slugs())
}

func TestRegistry_EvaluateFollowsFlagOrder(t *testing.T) {
	reg := NewRegistry(model.DefaultRules(), nil)

	// Reversed input must not change dispatch order
	toValidate := []model.Tag{
		flagTag(FlagMissingRating),
		flagTag(FlagMissingDescription),
		flagTag(FlagMissingBBQTag),
	}

	verdicts := reg.Evaluate(&model.Recipe{}, toValidate, testTags(), testCategories())

	require.Len(t, verdicts, 3)
	assert.Equal(t, string(FlagMissingBBQTag), verdicts[0].TagSlug)
	assert.Equal(t, string(FlagMissingDescription), verdicts[1].TagSlug)
	assert.Equal(t, string(FlagMissingRating), verdicts[2].TagSlug)
}

func TestRegistry_EvaluateSkipsUnknownTags(t *testing.T) {
	reg := NewRegistry(model.DefaultRules(), nil)

	toValidate := []model.Tag{
		newTag("not-a-flag", "Not A Flag"),
		flagTag(FlagMissingImage),
	}

	verdicts := reg.Evaluate(&model.Recipe{}, toValidate, testTags(), testCategories())

	require.Len(t, verdicts, 1)
	assert.Equal(t, "Flag missing-image", verdicts[0].TagName)
}

func TestRegistry_EvaluateNoTags(t *testing.T) {
	reg := NewRegistry(model.DefaultRules(), nil)

	verdicts := reg.Evaluate(&model.Recipe{}, nil, testTags(), testCategories())

	assert.Empty(t, verdicts)
}

func TestRegistry_PanickingRuleIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	reg := NewRegistry(model.DefaultRules(), zap.New(core))

	reg.Register(FlagMissingTools, "always fails", func(in Input) model.Verdict {
		panic("boom")
	})

	recipe := &model.Recipe{Slug: "stew"}
	verdicts := reg.Evaluate(recipe, []model.Tag{
		flagTag(FlagMissingInstructions),
		flagTag(FlagMissingTools),
		flagTag(FlagMissingDescription),
	}, testTags(), testCategories())

	require.Len(t, verdicts, 3)
	assert.Equal(t, model.CodeMissing, verdicts[0].Code)
	assert.Equal(t, model.CodeRuleError, verdicts[1].Code)
	assert.Equal(t, "rule for 'missing-tools' failed: boom", verdicts[1].Reason)
	assert.Equal(t, "Flag missing-tools", verdicts[1].TagName)
	assert.Equal(t, model.CodeMissing, verdicts[2].Code)

	entries := logs.FilterMessage("rule failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stew", entries[0].ContextMap()["recipe"])
}

func TestRegistry_NilRecipeYieldsRuleError(t *testing.T) {
	reg := NewRegistry(model.DefaultRules(), nil)

	verdicts := reg.Evaluate(nil, []model.Tag{
		flagTag(FlagMissingDescription),
		flagTag(FlagMissingTools),
	}, testTags(), testCategories())

	require.Len(t, verdicts, 2)
	assert.Equal(t, model.CodeRuleError, verdicts[0].Code)
	assert.Equal(t, model.CodeMissing, verdicts[1].Code)
}

func TestRegistry_RuleFillsTagIdentity(t *testing.T) {
	reg := NewRegistry(model.DefaultRules(), nil)
	reg.Register(FlagMissingImage, "bare", func(in Input) model.Verdict {
		return model.Verdict{Code: model.CodeOK}
	})

	verdicts := reg.Evaluate(&model.Recipe{}, []model.Tag{flagTag(FlagMissingImage)}, testTags(), testCategories())

	require.Len(t, verdicts, 1)
	assert.Equal(t, "missing-image", verdicts[0].TagSlug)
	assert.Equal(t, "Flag missing-image", verdicts[0].TagName)
}

func TestRegistry_CustomAllowLists(t *testing.T) {
	rules := model.DefaultRules()
	rules.ProteinTags = []string{"  Chicken "}
	reg := NewRegistry(rules, nil)

	beefOnly := tagged(&model.Recipe{}, beefTag)
	chickenOnly := tagged(&model.Recipe{}, chickenTag)

	assert.Equal(t, model.CodeMissing,
		reg.Evaluate(beefOnly, []model.Tag{flagTag(FlagMissingProteinTags)}, testTags(), testCategories())[0].Code)
	assert.Equal(t, model.CodeOK,
		reg.Evaluate(chickenOnly, []model.Tag{flagTag(FlagMissingProteinTags)}, testTags(), testCategories())[0].Code)
}

func TestRegistry_CustomDuplicatePrefix(t *testing.T) {
	rules := model.DefaultRules()
	rules.DuplicateExtraPrefix = "dupe"
	reg := NewRegistry(rules, nil)

	recipe := tagged(&model.Recipe{Extras: map[string]string{"duplicate": "https://x"}}, flagTag(FlagDuplicate))
	verdicts := reg.Evaluate(recipe, []model.Tag{flagTag(FlagDuplicate)}, testTags(), testCategories())

	require.Len(t, verdicts, 1)
	assert.Equal(t, "Missing 'dupe' entry in API Extras", verdicts[0].Reason)
}
