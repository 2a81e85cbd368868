package model

// Recipe is a read-only snapshot of a recipe as returned by the Mealie API.
// JSON field names follow the API so snapshots can be decoded directly.
type Recipe struct {
	ID          ID     `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RecipeYield string `json:"recipeYield,omitempty"`

	PrepTime    string `json:"prepTime,omitempty"`
	CookTime    string `json:"cookTime,omitempty"`
	PerformTime string `json:"performTime,omitempty"` // Shown as "Cook Time" in the Mealie UI
	TotalTime   string `json:"totalTime,omitempty"`

	Rating *float64 `json:"rating,omitempty"` // nil when never rated
	Image  string   `json:"image,omitempty"`
	OrgURL string   `json:"orgURL,omitempty"`

	Ingredients  []Ingredient `json:"recipeIngredient"`
	Instructions []Step       `json:"recipeInstructions"`
	Tools        []Tool       `json:"tools"`
	Tags         []Tag        `json:"tags"`
	Categories   []Category   `json:"recipeCategory"`

	Nutrition *Nutrition        `json:"nutrition,omitempty"`
	Settings  *Settings         `json:"settings,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
}

// HasTag reports whether the recipe carries a tag with the given slug
func (r *Recipe) HasTag(slug string) bool {
	for _, t := range r.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// HasCategory reports whether the recipe is filed under the given category slug
func (r *Recipe) HasCategory(slug string) bool {
	for _, c := range r.Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// AmountsDisabled returns the recipe's "Disable Ingredient Amounts" setting.
// A recipe without settings behaves like Mealie's default, which disables amounts.
func (r *Recipe) AmountsDisabled() bool {
	if r.Settings == nil {
		return true
	}
	return r.Settings.DisableAmount
}

// Ingredient is one line of a recipe's ingredient list. Lines with a Title
// start a new section ("Spice Mix", "For the sauce", ...).
type Ingredient struct {
	Title         string  `json:"title,omitempty"`
	Note          string  `json:"note,omitempty"`
	Food          *Food   `json:"food,omitempty"`
	Unit          *Unit   `json:"unit,omitempty"`
	Quantity      float64 `json:"quantity"`
	DisableAmount bool    `json:"disableAmount"`
	OriginalText  string  `json:"originalText,omitempty"`
	Display       string  `json:"display,omitempty"`
}

// Food is a parsed ingredient's linked food entry
type Food struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Unit is a parsed ingredient's linked unit entry
type Unit struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

// Step is a single instruction step. Text may embed HTML such as <img> tags.
type Step struct {
	ID                   string                `json:"id,omitempty"`
	Title                string                `json:"title,omitempty"`
	Text                 string                `json:"text"`
	IngredientReferences []IngredientReference `json:"ingredientReferences,omitempty"`
}

// IngredientReference links a step back to an ingredient line
type IngredientReference struct {
	ReferenceID string `json:"referenceId"`
}

// Tag is a recipe label. Tags are identified by slug.
type Tag struct {
	ID   ID     `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Category is a recipe category. Categories are identified by slug.
type Category struct {
	ID   ID     `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Tool is a piece of kitchen equipment referenced by a recipe
type Tool struct {
	ID     ID     `json:"id"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	OnHand bool   `json:"onHand"`
}

// Nutrition holds the free-text nutrition facts of a recipe
type Nutrition struct {
	Calories            string `json:"calories,omitempty"`
	FatContent          string `json:"fatContent,omitempty"`
	ProteinContent      string `json:"proteinContent,omitempty"`
	CarbohydrateContent string `json:"carbohydrateContent,omitempty"`
	FiberContent        string `json:"fiberContent,omitempty"`
	SodiumContent       string `json:"sodiumContent,omitempty"`
	SugarContent        string `json:"sugarContent,omitempty"`
}

// Fields returns every nutrition fact keyed by its API name
func (n Nutrition) Fields() map[string]string {
	return map[string]string{
		"calories":            n.Calories,
		"fatContent":          n.FatContent,
		"proteinContent":      n.ProteinContent,
		"carbohydrateContent": n.CarbohydrateContent,
		"fiberContent":        n.FiberContent,
		"sodiumContent":       n.SodiumContent,
		"sugarContent":        n.SugarContent,
	}
}

// Settings mirrors the per-recipe display settings
type Settings struct {
	Public          bool `json:"public"`
	ShowNutrition   bool `json:"showNutrition"`
	ShowAssets      bool `json:"showAssets"`
	LandscapeView   bool `json:"landscapeView"`
	DisableComments bool `json:"disableComments"`
	DisableAmount   bool `json:"disableAmount"`
	Locked          bool `json:"locked"`
}
