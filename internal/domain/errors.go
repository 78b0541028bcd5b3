package domain

import "errors"

var (
	// ErrInvalidInput is returned when request parameters are invalid (e.g. empty keyword)
	ErrInvalidInput = errors.New("invalid input")

	// ErrSearchUnavailable is returned by a search client on transport, auth or quota errors
	ErrSearchUnavailable = errors.New("marketplace search unavailable")

	// ErrDetailUnavailable is returned by a detail client when a product detail cannot be fetched
	ErrDetailUnavailable = errors.New("marketplace product detail unavailable")

	// ErrEmbeddingUnavailable covers every failure of an embedding provider:
	// network errors, provider error payloads, malformed responses and empty models
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrSearchFailed is returned by the orchestrator when the search stage fails
	ErrSearchFailed = errors.New("competitor search failed")

	// ErrDetailFailed marks a candidate that was dropped because enrichment failed
	ErrDetailFailed = errors.New("candidate enrichment failed")

	// ErrCancelled is returned when the caller cancels a match run
	ErrCancelled = errors.New("match cancelled")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
