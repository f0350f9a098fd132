package domain

import "errors"

var (
	// ErrInvalidInput signals a request rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrVectorNotNormalized signals a vector without unit L2 norm.
	ErrVectorNotNormalized = errors.New("vector not normalized")

	// ErrRateLimited signals a provider-side rate limit (HTTP 429). Retryable.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderUnavailable signals a transient provider failure (5xx, timeout). Retryable.
	ErrProviderUnavailable = errors.New("search provider unavailable")
	// ErrProviderError signals a non-retryable search provider failure.
	ErrProviderError = errors.New("search provider error")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrMediaFetch signals a media resource that could not be downloaded.
	ErrMediaFetch = errors.New("media fetch failed")
	// ErrMediaDecode signals a media resource that could not be decoded into frames.
	ErrMediaDecode = errors.New("media decode failed")
	// ErrGeneratorError signals a chat-completion (terms/reply) failure.
	ErrGeneratorError = errors.New("generator error")
	// ErrNotConfigured signals an optional collaborator that is not configured.
	ErrNotConfigured = errors.New("not configured")
)
