package embedding

import (
	"fmt"
	"strings"
	"time"

	"github.com/optiprice/backend/internal/domain"
)

// Strategy and remote provider identifiers
const (
	StrategyRemote  = "remote"
	StrategyLexical = "lexical"

	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
)

// Provider is an embedding strategy whose shared resource can be initialized up front
type Provider interface {
	domain.EmbeddingProvider
	Warm() error
}

// Config selects and configures the embedding strategy
type Config struct {
	Strategy string
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// NewProvider builds the configured strategy. Exactly one strategy serves a process.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Strategy) {
	case StrategyLexical, "":
		return NewLexicalProvider(), nil

	case StrategyRemote:
		provider := strings.ToLower(cfg.Provider)
		switch provider {
		case ProviderHuggingFace, "":
			return NewRemoteProvider(ProviderHuggingFace, NewLazy(func() (Backend, error) {
				if cfg.BaseURL == "" {
					return nil, fmt.Errorf("huggingface base URL is required")
				}
				return NewHuggingFaceBackend(cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.Timeout), nil
			})), nil

		case ProviderOpenAI:
			return NewRemoteProvider(ProviderOpenAI, NewLazy(func() (Backend, error) {
				return NewOpenAIBackend(cfg.BaseURL, cfg.Model, cfg.APIKey), nil
			})), nil

		default:
			return nil, fmt.Errorf("unsupported remote embedding provider: %s", cfg.Provider)
		}

	default:
		return nil, fmt.Errorf("unsupported embedding strategy: %s", cfg.Strategy)
	}
}
