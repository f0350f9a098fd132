package vecindex

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/kailas-cloud/gifrank/internal/domain"
)

type record[M any] struct {
	vector   []float32
	metadata M
}

// Flat is an exact brute-force inner-product index, O(N·D) per query.
// Safe for concurrent use.
type Flat[M any] struct {
	mu      sync.RWMutex
	dim     int
	records []record[M]
}

// NewFlat creates an empty index for vectors of dimension dim.
func NewFlat[M any](dim int) *Flat[M] {
	return &Flat[M]{dim: dim}
}

// Dim returns the configured vector dimension.
func (f *Flat[M]) Dim() int { return f.dim }

// Len returns the number of stored records.
func (f *Flat[M]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.records)
}

// Insert appends a vector. The vector is copied and never renormalized.
func (f *Flat[M]) Insert(vector []float32, metadata M) error {
	if err := domain.ValidateVector(vector, f.dim); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	f.mu.Lock()
	f.records = append(f.records, record[M]{vector: slices.Clone(vector), metadata: metadata})
	f.mu.Unlock()
	return nil
}

// Search returns up to topK records by descending inner product with query.
// Equal scores keep insertion order.
func (f *Flat[M]) Search(query []float32, topK int) ([]Match[M], error) {
	if err := domain.ValidateVector(query, f.dim); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if topK <= 0 {
		return []Match[M]{}, nil
	}

	f.mu.RLock()
	matches := make([]Match[M], len(f.records))
	for i, r := range f.records {
		matches[i] = Match[M]{Metadata: r.metadata, Score: domain.Dot(query, r.vector)}
	}
	f.mu.RUnlock()

	slices.SortStableFunc(matches, func(a, b Match[M]) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
