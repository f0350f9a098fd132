package gifrank

import "github.com/kailas-cloud/gifrank/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrProviderUnavailable    = domain.ErrProviderUnavailable
	ErrProviderError          = domain.ErrProviderError
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrGeneratorError         = domain.ErrGeneratorError
	ErrNotConfigured          = domain.ErrNotConfigured
)
