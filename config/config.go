package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	LLM      LLMConfig
	Search   SearchConfig
	Resolver ResolverConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds catalog source configuration
type CatalogConfig struct {
	SourceURL       string        `mapstructure:"source_url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// LLMConfig holds language-model provider configuration
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxCandidates int           `mapstructure:"max_candidates"`
	Enabled       bool          `mapstructure:"enabled"`
}

// SearchConfig holds search engine configuration
type SearchConfig struct {
	MaxResults int     `mapstructure:"max_results"`
	MinScore   float64 `mapstructure:"min_score"`
}

// ResolverConfig holds ambiguity-resolution thresholds.
// A clarification is only escalated to the user when the candidate count
// reaches MinChoiceCandidates AND the max/min price ratio exceeds
// PriceSpreadRatio.
type ResolverConfig struct {
	PriceSpreadRatio    float64 `mapstructure:"price_spread_ratio"`
	MinChoiceCandidates int     `mapstructure:"min_choice_candidates"`
	MaxClarifyOptions   int     `mapstructure:"max_clarify_options"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/tiendabot/")

	// Environment variable settings
	v.SetEnvPrefix("TIENDABOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults. The empty source URL default registers the key so
	// the environment variable is seen during Unmarshal.
	v.SetDefault("catalog.source_url", "")
	v.SetDefault("catalog.refresh_interval", "15m")

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "6s")
	v.SetDefault("llm.max_candidates", 15)
	v.SetDefault("llm.enabled", true)

	// Search defaults
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.min_score", 0.3)

	// Resolver defaults
	v.SetDefault("resolver.price_spread_ratio", 2.0)
	v.SetDefault("resolver.min_choice_candidates", 5)
	v.SetDefault("resolver.max_clarify_options", 4)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.SourceURL == "" {
		return fmt.Errorf("catalog source URL is required (set TIENDABOT_CATALOG_SOURCE_URL)")
	}

	if config.LLM.Enabled && config.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required when LLM is enabled (set TIENDABOT_LLM_API_KEY)")
	}

	if config.Search.MinScore < 0 || config.Search.MinScore > 1 {
		return fmt.Errorf("search min_score must be in [0,1], got: %v", config.Search.MinScore)
	}

	if config.Resolver.PriceSpreadRatio < 1 {
		return fmt.Errorf("resolver price_spread_ratio must be >= 1, got: %v", config.Resolver.PriceSpreadRatio)
	}

	return nil
}
