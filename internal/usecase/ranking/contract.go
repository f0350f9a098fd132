package ranking

import "context"

// Aggregator turns search terms into a deduplicated candidate URL list.
type Aggregator interface {
	Aggregate(ctx context.Context, terms []string, perTermLimit int) []string
}
