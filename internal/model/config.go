package model

import (
	"runtime"
	"time"
)

// Config holds every tunable of an audit run
type Config struct {
	Mealie       MealieConfig       `yaml:"mealie" mapstructure:"mealie"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Rules        RulesConfig        `yaml:"rules" mapstructure:"rules"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
}

// MealieConfig locates the recipe service (or an offline snapshot)
type MealieConfig struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	Token    string        `yaml:"-" mapstructure:"token"` // Prefer FLAGAUDIT_MEALIE_TOKEN
	CAPath   string        `yaml:"ca_path,omitempty" mapstructure:"ca_path"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	PerPage  int           `yaml:"per_page" mapstructure:"per_page"`
	Snapshot string        `yaml:"snapshot,omitempty" mapstructure:"snapshot"` // JSON file used instead of the API

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls API response caching.
// Duration < 0 never expires; Duration == 0 disables the cache.
type CacheConfig struct {
	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
	Dir      string        `yaml:"dir" mapstructure:"dir"`
}

// Enabled reports whether responses should be cached at all
func (c CacheConfig) Enabled() bool {
	return c.Duration != 0
}

// RateLimitingConfig throttles requests to the recipe service
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`             // Recipes audited in parallel
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"` // Recipe detail requests in flight
}

// RulesConfig holds the allow-lists consulted by the tag rules
type RulesConfig struct {
	ProteinTags          []string `yaml:"protein_tags" mapstructure:"protein_tags"`
	CountryTags          []string `yaml:"country_tags" mapstructure:"country_tags"`
	MealTypeCategories   []string `yaml:"meal_type_categories" mapstructure:"meal_type_categories"`
	BBQTags              []string `yaml:"bbq_tags" mapstructure:"bbq_tags"`
	FreezableTags        []string `yaml:"freezable_tags" mapstructure:"freezable_tags"`
	SauceTags            []string `yaml:"sauce_tags" mapstructure:"sauce_tags"`
	SaladTags            []string `yaml:"salad_tags" mapstructure:"salad_tags"`
	SpiceSectionTitle    string   `yaml:"spice_section_title" mapstructure:"spice_section_title"`
	DuplicateExtraPrefix string   `yaml:"duplicate_extra_prefix" mapstructure:"duplicate_extra_prefix"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	JSONPath     string `yaml:"json" mapstructure:"json"`
	MarkdownPath string `yaml:"markdown,omitempty" mapstructure:"markdown"`
	Table        bool   `yaml:"table" mapstructure:"table"`
	DryRun       bool   `yaml:"dry_run" mapstructure:"dry_run"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // DEBUG, INFO, WARNING, ERROR, CRITICAL
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// LLMConfig configures the optional report narrative
type LLMConfig struct {
	Provider  string `yaml:"provider,omitempty" mapstructure:"provider"` // "", "openai", "anthropic", "ollama"
	Model     string `yaml:"model,omitempty" mapstructure:"model"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Mealie: MealieConfig{
			Timeout: 30 * time.Second,
			PerPage: 50,
		},
		Cache: CacheConfig{
			Duration: 12 * time.Hour,
			Dir:      defaultCacheDir(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 10,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      runtime.NumCPU(),
			FetchWorkers: 4,
		},
		Rules: DefaultRules(),
		Output: OutputConfig{
			JSONPath: "tags-report.json",
			Table:    true,
		},
		Log: LogConfig{
			Level: "INFO",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
		},
	}
}

// DefaultRules returns the built-in allow-lists
func DefaultRules() RulesConfig {
	return RulesConfig{
		ProteinTags: []string{
			"beef",
			"chicken",
			"cod",
			"haddock",
			"halloumi",
			"lobster",
			"pork",
			"salmon",
			"sausage",
			"shrimp",
			"tilapia",
			"tofu",
			"turkey",
			"veal",
			"vegetarian",
		},
		CountryTags: []string{
			"canada",
			"belgium",
		},
		MealTypeCategories: []string{
			"breakfast",
			"dessert",
			"dinner",
			"sauce",
			"vinaigrette",
		},
		BBQTags:              []string{"bbq"},
		FreezableTags:        []string{"freezable"},
		SauceTags:            []string{"sauce"},
		SaladTags:            []string{"salad"},
		SpiceSectionTitle:    "Spice Mix",
		DuplicateExtraPrefix: "duplicate",
	}
}

func defaultCacheDir() string {
	return ".flagaudit-cache"
}
