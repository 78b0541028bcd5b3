package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/optiprice/backend/internal/domain"
)

const detailKeyPrefix = "detail:"

// DetailClient serves product details from a cache before asking the wrapped client.
// Only successful, non-empty details are stored.
type DetailClient struct {
	next  domain.DetailClient
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewDetailClient wraps next with a cache
func NewDetailClient(next domain.DetailClient, cache domain.CacheRepository, ttl time.Duration) *DetailClient {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DetailClient{next: next, cache: cache, ttl: ttl}
}

// FetchDetail implements domain.DetailClient
func (d *DetailClient) FetchDetail(ctx context.Context, id string) (*domain.ProductText, error) {
	key := detailKeyPrefix + id

	if cached, err := d.cache.Get(ctx, key); err == nil {
		var detail domain.ProductText
		if err := json.Unmarshal(cached, &detail); err == nil {
			log.Printf("[CACHE] Hit for %s", key)
			return &detail, nil
		}
		log.Printf("[CACHE] Discarding unreadable entry %s", key)
		_ = d.cache.Delete(ctx, key)
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("[CACHE] Get failed for %s: %v", key, err)
	}

	detail, err := d.next.FetchDetail(ctx, id)
	if err != nil || detail == nil || detail.IsEmpty() {
		return detail, err
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		log.Printf("[CACHE] Failed to encode %s: %v", key, err)
		return detail, nil
	}
	if err := d.cache.Set(ctx, key, payload, d.ttl); err != nil {
		log.Printf("[CACHE] Set failed for %s: %v", key, err)
	}

	return detail, nil
}
