package giphy

import (
	"fmt"
	"net/http"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

// APIError is a non-200 response from Giphy.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("giphy api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to a domain sentinel: 429 → ErrRateLimited,
// 5xx → ErrProviderUnavailable, everything else → ErrProviderError.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrProviderUnavailable
	default:
		return domain.ErrProviderError
	}
}
