// Package vecindex holds normalized embeddings with opaque metadata and answers
// inner-product nearest-neighbour queries.
package vecindex

// Match is a single nearest-neighbour hit.
type Match[M any] struct {
	Metadata M
	Score    float64
}

// Index stores normalized vectors. Flat is the exact implementation;
// an approximate structure can satisfy the same contract.
type Index[M any] interface {
	Insert(vector []float32, metadata M) error
	Search(query []float32, topK int) ([]Match[M], error)
	Len() int
}
