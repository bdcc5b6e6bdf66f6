package domain

import "errors"

var (
	// ErrInvalidQuery signals a query with neither text nor image, or
	// out-of-range parameters. Caller bug, never retried.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrImageDecode signals an unreadable or corrupt query image.
	ErrImageDecode = errors.New("image decode failed")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
