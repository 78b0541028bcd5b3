package embedding

import (
	"context"
	"fmt"

	"github.com/optiprice/backend/internal/domain"
)

// Backend performs one remote embedding call for a whole batch.
// Transport failures are returned as errors; provider error payloads as a Result.
type Backend interface {
	Embed(ctx context.Context, batch []string) (Result, error)
}

// RemoteProvider delegates embedding to a neural model behind a remote service
type RemoteProvider struct {
	name    string
	backend *Lazy[Backend]
}

// NewRemoteProvider creates a remote provider around a lazily built backend
func NewRemoteProvider(name string, backend *Lazy[Backend]) *RemoteProvider {
	return &RemoteProvider{name: name, backend: backend}
}

// Name returns the strategy identifier
func (p *RemoteProvider) Name() string { return StrategyRemote + ":" + p.name }

// Warm initializes the shared backend
func (p *RemoteProvider) Warm() error {
	_, err := p.backend.Get()
	return err
}

// Embed sends the batch in a single call and validates the normalized response
func (p *RemoteProvider) Embed(ctx context.Context, batch []string) ([]domain.EmbeddingVector, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: empty batch", domain.ErrEmbeddingUnavailable)
	}

	backend, err := p.backend.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: backend init: %v", domain.ErrEmbeddingUnavailable, err)
	}

	result, err := backend.Embed(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	if result.Kind == ResultProviderError {
		return nil, fmt.Errorf("%w: provider error: %s", domain.ErrEmbeddingUnavailable, result.Message)
	}

	if err := validateVectors(result.Vectors, len(batch)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	return result.Vectors, nil
}
