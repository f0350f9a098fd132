package retrieval

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Aggregator fans out over search terms and merges candidates.
type Aggregator struct {
	searcher    Searcher
	parallelism int
}

// NewAggregator creates an aggregator that queries terms one at a time.
func NewAggregator(searcher Searcher) *Aggregator {
	return &Aggregator{searcher: searcher, parallelism: 1}
}

// WithParallelism sets how many terms are searched concurrently.
// Merge order stays term order regardless of completion order.
func (a *Aggregator) WithParallelism(n int) *Aggregator {
	if n > 0 {
		a.parallelism = n
	}
	return a
}

// Aggregate concatenates per-term results in term order and drops duplicate URLs,
// keeping the first occurrence. Failed or empty terms contribute nothing.
func (a *Aggregator) Aggregate(ctx context.Context, terms []string, perTermLimit int) []string {
	if len(terms) == 0 {
		return []string{}
	}

	slots := make([][]string, len(terms))
	if a.parallelism <= 1 || len(terms) == 1 {
		for i, term := range terms {
			if ctx.Err() != nil {
				break
			}
			slots[i] = a.searcher.SearchByKeyword(ctx, term, perTermLimit)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.parallelism)
		for i, term := range terms {
			g.Go(func() error {
				slots[i] = a.searcher.SearchByKeyword(gctx, term, perTermLimit)
				return nil
			})
		}
		_ = g.Wait() // workers never fail; errors are absorbed by the searcher
	}

	return Dedup(slots...)
}

// Dedup concatenates lists and removes repeated or empty URLs, first occurrence wins.
func Dedup(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, u := range list {
			if u == "" {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}
