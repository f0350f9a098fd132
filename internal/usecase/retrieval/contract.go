package retrieval

import (
	"context"

	"github.com/kailas-cloud/gifrank/internal/gateway"
)

// Provider is the raw search provider (Giphy adapter).
type Provider interface {
	Search(ctx context.Context, term string, limit int) ([]string, error)
	Trending(ctx context.Context, limit int) ([]string, error)
}

// Gateway throttles and caches provider calls.
type Gateway interface {
	Execute(ctx context.Context, key string, fn gateway.RequestFunc) ([]string, error)
}

// Searcher is the keyword search contract consumed by the aggregator.
type Searcher interface {
	SearchByKeyword(ctx context.Context, term string, limit int) []string
}
