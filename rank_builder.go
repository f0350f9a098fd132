package gifrank

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/gifrank/internal/domain/rank"
)

// RankBuilder is a fluent builder for ranking requests.
type RankBuilder struct {
	client *Client

	query        string
	terms        []string
	perTermLimit int
	topK         int
}

// Terms sets the keyword search terms. Blank terms are dropped.
func (b *RankBuilder) Terms(terms ...string) *RankBuilder {
	b.terms = append(b.terms, terms...)
	return b
}

// PerTermLimit sets how many results are requested per term (default 10, max 50).
func (b *RankBuilder) PerTermLimit(n int) *RankBuilder {
	b.perTermLimit = n
	return b
}

// TopK sets the maximum number of returned items (default 6, max 50). Non-positive k fails in Do.
func (b *RankBuilder) TopK(k int) *RankBuilder {
	b.topK = k
	return b
}

// Do validates the request and runs the pipeline.
func (b *RankBuilder) Do(ctx context.Context) (Result, error) {
	req, err := rank.NewRequest(b.query, b.terms, b.perTermLimit, b.topK)
	if err != nil {
		return Result{}, fmt.Errorf("rank: %w", err)
	}
	return b.client.rank(ctx, &req)
}
