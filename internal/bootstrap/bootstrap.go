package bootstrap

import (
	"fmt"
	"log"

	"github.com/optiprice/backend/config"
	"github.com/optiprice/backend/internal/domain"
	"github.com/optiprice/backend/internal/infrastructure/cache"
	"github.com/optiprice/backend/internal/infrastructure/embedding"
	"github.com/optiprice/backend/internal/infrastructure/rainforest"
	"github.com/optiprice/backend/internal/usecase"
)

// App is the wired competitor matching stack
type App struct {
	Service  *usecase.CompetitorService
	Embedder embedding.Provider
	cache    *cache.MemoryCache
}

// Build wires infrastructure and usecase layers from configuration. The embedding
// strategy's shared resource is initialized before Build returns.
func Build(cfg *config.Config) (*App, error) {
	client := rainforest.NewClient(cfg.Rainforest.APIKey, cfg.Rainforest.BaseURL, rainforest.Options{
		AmazonDomain:    cfg.Rainforest.AmazonDomain,
		SortBy:          cfg.Rainforest.SortBy,
		Timeout:         cfg.Rainforest.Timeout,
		RequestsPerHour: cfg.RateLimit.Rainforest,
	})

	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		log.Printf("Rainforest client debug mode enabled")
	}

	app := &App{}

	var detailClient domain.DetailClient = client
	if cfg.Cache.Type == "memory" {
		app.cache = cache.NewMemoryCache(cache.DefaultCleanupInterval)
		detailClient = cache.NewDetailClient(client, app.cache, cfg.Cache.TTL)
		log.Printf("Detail cache enabled (TTL: %s)", cfg.Cache.TTL)
	}

	embedder, err := embedding.NewProvider(embedding.Config{
		Strategy: cfg.Embedding.Strategy,
		Provider: cfg.Embedding.Remote.Provider,
		BaseURL:  cfg.Embedding.Remote.BaseURL,
		Model:    cfg.Embedding.Remote.Model,
		APIKey:   cfg.Embedding.Remote.APIKey,
		Timeout:  cfg.Embedding.Remote.Timeout,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	// Initialization barrier: no match runs before the shared resource is ready
	if err := embedder.Warm(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize embedding strategy %s: %w", embedder.Name(), err)
	}

	app.Embedder = embedder
	app.Service = usecase.NewCompetitorService(client, detailClient, embedder, usecase.CompetitorServiceConfig{
		CandidateLimit:     cfg.Matching.CandidateLimit,
		MinTextLength:      cfg.Matching.MinTextLength,
		TitleFallback:      cfg.Matching.TitleFallback,
		EnrichConcurrency:  cfg.Matching.EnrichConcurrency,
		SearchTimeout:      cfg.Matching.SearchTimeout,
		DetailTimeout:      cfg.Matching.DetailTimeout,
		EmbedTimeout:       cfg.Matching.EmbedTimeout,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})

	log.Printf("Matching: strategy=%s, candidates=%d, title_fallback=%v, debug=%v",
		embedder.Name(),
		cfg.Matching.CandidateLimit,
		cfg.Matching.TitleFallback,
		cfg.Matching.EnableDebugLogging)

	return app, nil
}

// Close releases background resources
func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}
