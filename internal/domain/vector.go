package domain

import (
	"fmt"
	"math"
)

// NormTolerance is the allowed deviation of ‖v‖₂ from 1 for a vector to count as normalized.
const NormTolerance = 1e-3

// Dot returns the inner product of a and b accumulated in float64.
// Callers must pass vectors of equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// IsNormalized reports whether v has unit length within NormTolerance.
func IsNormalized(v []float32) bool {
	return math.Abs(Norm(v)-1) <= NormTolerance
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) ([]float32, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("cannot normalize vector with norm %v: %w", n, ErrVectorNotNormalized)
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / n)
	}
	return out, nil
}

// Mean averages equally sized vectors component-wise.
func Mean(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("mean of zero vectors: %w", ErrVectorDimMismatch)
	}
	dim := len(vectors[0])
	acc := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d: %w", i, len(v), dim, ErrVectorDimMismatch)
		}
		for j, f := range v {
			acc[j] += float64(f)
		}
	}
	out := make([]float32, dim)
	for j, s := range acc {
		out[j] = float32(s / float64(len(vectors)))
	}
	return out, nil
}
