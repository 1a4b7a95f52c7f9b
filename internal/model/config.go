package model

import "time"

// Config holds all reporter settings
type Config struct {
	Generation  GenerationConfig  `yaml:"generation" mapstructure:"generation"`
	Planner     PlannerConfig     `yaml:"planner" mapstructure:"planner"`
	Selector    SelectorConfig    `yaml:"selector" mapstructure:"selector"`
	Templates   TemplatesConfig   `yaml:"templates" mapstructure:"templates"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Archive     ArchiveConfig     `yaml:"archive" mapstructure:"archive"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// GenerationConfig controls a single generation request
type GenerationConfig struct {
	Seed       uint64 `yaml:"seed" mapstructure:"seed"`               // PRNG seed; 0 picks one at startup
	Language   string `yaml:"language" mapstructure:"language"`       // Default output language
	Format     string `yaml:"format" mapstructure:"format"`           // p, ul or ol
	Links      bool   `yaml:"links" mapstructure:"links"`             // Keep <a> elements in the output
	MaxOutputs int    `yaml:"max_outputs" mapstructure:"max_outputs"` // Max documents returned for multi-part input
}

// PlannerConfig holds the document planner thresholds
type PlannerConfig struct {
	MinParagraphs         int     `yaml:"min_paragraphs" mapstructure:"min_paragraphs"`
	MaxParagraphs         int     `yaml:"max_paragraphs" mapstructure:"max_paragraphs"`
	SentencesPerParagraph int     `yaml:"sentences_per_paragraph" mapstructure:"sentences_per_paragraph"`
	MaxExpandedNuclei     int     `yaml:"max_expanded_nuclei" mapstructure:"max_expanded_nuclei"`
	EndStoryRelative      float64 `yaml:"end_story_relative" mapstructure:"end_story_relative"`
	EndStoryAbsolute      float64 `yaml:"end_story_absolute" mapstructure:"end_story_absolute"`
	EndParagraphRelative  float64 `yaml:"end_paragraph_relative" mapstructure:"end_paragraph_relative"`
	EndParagraphAbsolute  float64 `yaml:"end_paragraph_absolute" mapstructure:"end_paragraph_absolute"`
}

// SelectorConfig controls template selection
type SelectorConfig struct {
	// Re-express the location at a paragraph start after this many sentences without it
	LocationIfNotSince int `yaml:"location_if_not_since" mapstructure:"location_if_not_since"`
}

// TemplatesConfig lists template and vocabulary sources. Empty values use
// the embedded defaults.
type TemplatesConfig struct {
	Files      []string `yaml:"files" mapstructure:"files"`
	Vocabulary string   `yaml:"vocabulary" mapstructure:"vocabulary"`
}

// CacheConfig controls the generated report cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls parallel runs across input splits
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins      []string `yaml:"allow_origins" mapstructure:"allow_origins"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
}

// ArchiveConfig controls storage of payloads that failed generation
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Path        string `yaml:"path" mapstructure:"path"`
	MaxPayloads int    `yaml:"max_payloads" mapstructure:"max_payloads"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // dev or prod
}

// DefaultPlannerConfig returns the planner defaults
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MinParagraphs:         3,
		MaxParagraphs:         5,
		SentencesPerParagraph: 7,
		MaxExpandedNuclei:     2,
		EndStoryRelative:      0.2,
		EndStoryAbsolute:      0.0,
		EndParagraphRelative:  0.05,
		EndParagraphAbsolute:  0.0,
	}
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Seed:       0,
			Language:   "en",
			Format:     "p",
			Links:      false,
			MaxOutputs: 5,
		},
		Planner: DefaultPlannerConfig(),
		Selector: SelectorConfig{
			LocationIfNotSince: 6,
		},
		Templates: TemplatesConfig{},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".reporter-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr: ":8080",
			AllowOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Archive: ArchiveConfig{
			Enabled:     true,
			Path:        ".reporter/errored_payloads.db",
			MaxPayloads: 25,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}
