package domain

import (
	"context"
	"time"
)

// CacheRepository stores serialized values with a TTL. Get returns ErrCacheMiss for
// missing or expired keys.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchClient returns up to limit marketplace listings for a keyword, in marketplace order.
// Fails with ErrSearchUnavailable.
type SearchClient interface {
	Search(ctx context.Context, keyword string, limit int) ([]Candidate, error)
}

// DetailClient fetches the descriptive text of one listing.
// Returns (nil, nil) when the listing has no detail; fails with ErrDetailUnavailable.
type DetailClient interface {
	FetchDetail(ctx context.Context, id string) (*ProductText, error)
}

// EmbeddingProvider turns a batch of texts into vectors of identical dimensionality,
// one per input and in input order. Every failure wraps ErrEmbeddingUnavailable.
type EmbeddingProvider interface {
	Name() string
	Embed(ctx context.Context, batch []string) ([]EmbeddingVector, error)
}
