package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Rainforest RainforestConfig
	Embedding  EmbeddingConfig
	Matching   MatchingConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RainforestConfig holds marketplace API configuration
type RainforestConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	AmazonDomain string        `mapstructure:"amazon_domain"`
	SortBy       string        `mapstructure:"sort_by"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig selects the embedding strategy
type EmbeddingConfig struct {
	Strategy string                `mapstructure:"strategy"` // "lexical" or "remote"
	Remote   RemoteEmbeddingConfig `mapstructure:"remote"`
}

// RemoteEmbeddingConfig configures the remote neural strategy
type RemoteEmbeddingConfig struct {
	Provider string        `mapstructure:"provider"` // "huggingface" or "openai"
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MatchingConfig holds competitor matching configuration
type MatchingConfig struct {
	CandidateLimit     int           `mapstructure:"candidate_limit"`
	MinTextLength      int           `mapstructure:"min_text_length"`
	TitleFallback      bool          `mapstructure:"title_fallback"`
	EnrichConcurrency  int           `mapstructure:"enrich_concurrency"`
	SearchTimeout      time.Duration `mapstructure:"search_timeout"`
	DetailTimeout      time.Duration `mapstructure:"detail_timeout"`
	EmbedTimeout       time.Duration `mapstructure:"embed_timeout"`
	EnableDebugLogging bool          `mapstructure:"enable_debug_logging"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "none" or "memory"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP      int `mapstructure:"per_ip"`     // requests per minute
	Rainforest int `mapstructure:"rainforest"` // requests per hour
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/optiprice/")

	// OPTIPRICE_RAINFOREST_API_KEY -> rainforest.api_key
	v.SetEnvPrefix("OPTIPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values. Every key needs a default so
// AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:3000"})

	// Rainforest defaults
	v.SetDefault("rainforest.api_key", "")
	v.SetDefault("rainforest.base_url", "https://api.rainforestapi.com")
	v.SetDefault("rainforest.amazon_domain", "amazon.de")
	v.SetDefault("rainforest.sort_by", "featured")
	v.SetDefault("rainforest.timeout", "30s")

	// Embedding defaults
	v.SetDefault("embedding.strategy", "lexical")
	v.SetDefault("embedding.remote.provider", "huggingface")
	v.SetDefault("embedding.remote.base_url", "")
	v.SetDefault("embedding.remote.model", "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2")
	v.SetDefault("embedding.remote.api_key", "")
	v.SetDefault("embedding.remote.timeout", "30s")

	// Matching defaults
	v.SetDefault("matching.candidate_limit", 3)
	v.SetDefault("matching.min_text_length", 20)
	v.SetDefault("matching.title_fallback", false)
	v.SetDefault("matching.enrich_concurrency", 3)
	v.SetDefault("matching.search_timeout", "30s")
	v.SetDefault("matching.detail_timeout", "20s")
	v.SetDefault("matching.embed_timeout", "30s")
	v.SetDefault("matching.enable_debug_logging", false)

	// Cache defaults
	v.SetDefault("cache.type", "none")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.rainforest", 1000)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Rainforest.APIKey == "" {
		return fmt.Errorf("Rainforest API key is required (set OPTIPRICE_RAINFOREST_API_KEY)")
	}

	switch config.Embedding.Strategy {
	case "lexical":
	case "remote":
		switch config.Embedding.Remote.Provider {
		case "huggingface":
			if config.Embedding.Remote.BaseURL == "" {
				return fmt.Errorf("embedding base URL is required for the huggingface provider (set OPTIPRICE_EMBEDDING_REMOTE_BASE_URL)")
			}
		case "openai":
		default:
			return fmt.Errorf("embedding provider must be 'huggingface' or 'openai', got: %s", config.Embedding.Remote.Provider)
		}
	default:
		return fmt.Errorf("embedding strategy must be 'lexical' or 'remote', got: %s", config.Embedding.Strategy)
	}

	if config.Matching.CandidateLimit <= 0 {
		return fmt.Errorf("matching candidate limit must be positive, got: %d", config.Matching.CandidateLimit)
	}

	if config.Cache.Type != "none" && config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'none' or 'memory', got: %s", config.Cache.Type)
	}

	return nil
}
