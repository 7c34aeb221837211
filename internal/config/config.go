package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/openclaw-tagger/internal/datatype"
	"github.com/ajitpratap0/openclaw-tagger/internal/tagmerge"
)

const (
	// DefaultMaxRetries is the default number of reviewed writer attempts.
	DefaultMaxRetries = 3

	// DefaultMergeThreshold is the default similarity needed to merge when
	// a category has no data type.
	DefaultMergeThreshold = 0.75

	// DefaultTypedThreshold is the default similarity needed to merge under
	// data-type-aware scoring.
	DefaultTypedThreshold = 0.8

	// DefaultDedupThreshold is the default clustering threshold for tag cleanup.
	DefaultDedupThreshold = tagmerge.DefaultThreshold

	// DefaultConcurrency is the default number of pages processed at once.
	DefaultConcurrency = 4
)

// Config holds all configuration for the tagger.
type Config struct {
	Claude     ClaudeConfig        `mapstructure:"claude"`
	Workflow   WorkflowConfig      `mapstructure:"workflow"`
	Merge      MergeConfig         `mapstructure:"merge"`
	Neo4j      Neo4jConfig         `mapstructure:"neo4j"`
	Pipeline   PipelineConfig      `mapstructure:"pipeline"`
	Catalogue  CatalogueConfig     `mapstructure:"catalogue"`
	Heuristics datatype.Heuristics `mapstructure:"heuristics"`
	Logging    LoggingConfig       `mapstructure:"logging"`
}

// ClaudeConfig holds Anthropic Claude API settings.
type ClaudeConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s, MaxTokens:%d, Timeout:%s}", masked, c.Model, c.MaxTokens, c.Timeout)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// WorkflowConfig holds writer/reviewer loop settings.
type WorkflowConfig struct {
	MaxRetries      int `mapstructure:"max_retries"`
	PageTokenBudget int `mapstructure:"page_token_budget"`
}

// MergeConfig holds tag merge thresholds.
type MergeConfig struct {
	Threshold      float64 `mapstructure:"threshold"`
	TypedThreshold float64 `mapstructure:"typed_threshold"`
	DedupThreshold float64 `mapstructure:"dedup_threshold"`
}

// Neo4jConfig holds graph database connection settings. An empty URI
// selects the in-memory store.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// PipelineConfig holds book processing settings.
type PipelineConfig struct {
	Concurrency      int  `mapstructure:"concurrency"`
	IngestUnapproved bool `mapstructure:"ingest_unapproved"`
}

// CatalogueConfig locates the category catalogue.
type CatalogueConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("claude.max_tokens", 4096)
	v.SetDefault("claude.timeout", 60*time.Second)

	v.SetDefault("workflow.max_retries", DefaultMaxRetries)
	v.SetDefault("workflow.page_token_budget", 6000)

	v.SetDefault("merge.threshold", DefaultMergeThreshold)
	v.SetDefault("merge.typed_threshold", DefaultTypedThreshold)
	v.SetDefault("merge.dedup_threshold", DefaultDedupThreshold)

	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("pipeline.concurrency", DefaultConcurrency)
	v.SetDefault("pipeline.ingest_unapproved", false)

	v.SetDefault("catalogue.path", filepath.Join(homeDir(), ".openclaw-tagger", "categories.yaml"))

	h := datatype.DefaultHeuristics()
	v.SetDefault("heuristics.date_keywords", h.DateKeywords)
	v.SetDefault("heuristics.number_units", h.NumberUnits)
	v.SetDefault("heuristics.low_quality_patterns", h.LowQualityPatterns)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".openclaw-tagger"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("OPENCLAW_TAGGER")
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("claude.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("neo4j.uri", "OPENCLAW_TAGGER_NEO4J_URI")
	_ = v.BindEnv("neo4j.username", "OPENCLAW_TAGGER_NEO4J_USERNAME")
	_ = v.BindEnv("neo4j.password", "OPENCLAW_TAGGER_NEO4J_PASSWORD")
	_ = v.BindEnv("catalogue.path", "OPENCLAW_TAGGER_CATALOGUE_PATH")
	_ = v.BindEnv("workflow.max_retries", "OPENCLAW_TAGGER_WORKFLOW_MAX_RETRIES")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Claude.Model == "" {
		return fmt.Errorf("claude.model must not be empty")
	}
	if c.Claude.MaxTokens <= 0 {
		return fmt.Errorf("claude.max_tokens must be greater than 0")
	}
	if c.Claude.Timeout < 0 {
		return fmt.Errorf("claude.timeout must be >= 0")
	}
	if c.Workflow.MaxRetries < 0 {
		return fmt.Errorf("workflow.max_retries must be >= 0")
	}
	if c.Workflow.PageTokenBudget < 0 {
		return fmt.Errorf("workflow.page_token_budget must be >= 0")
	}
	if c.Merge.Threshold <= 0 || c.Merge.Threshold > 1 {
		return fmt.Errorf("merge.threshold must be in (0, 1]")
	}
	if c.Merge.TypedThreshold <= 0 || c.Merge.TypedThreshold > 1 {
		return fmt.Errorf("merge.typed_threshold must be in (0, 1]")
	}
	if c.Merge.DedupThreshold <= 0 || c.Merge.DedupThreshold > 1 {
		return fmt.Errorf("merge.dedup_threshold must be in (0, 1]")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be greater than 0")
	}
	if c.Neo4j.URI != "" && c.Neo4j.Username == "" {
		return fmt.Errorf("neo4j.username must not be empty when neo4j.uri is set")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
