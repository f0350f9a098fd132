package domain

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) EmbedText(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.6, 0.8}}}
	emb := NewInstructionEmbedder(inner, "a gif of ")

	result, err := emb.EmbedText(context.Background(), "dancing cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "a gif of dancing cat" {
		t.Errorf("expected prepended text, got %q", inner.got)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("expected 2-element vector, got %d", len(result.Embedding))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "a gif of ")

	_, err := emb.EmbedText(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestInstructionEmbedder_EmptyInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}}}
	emb := NewInstructionEmbedder(inner, "")

	if _, err := emb.EmbedText(context.Background(), "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "test" {
		t.Errorf("expected 'test', got %q", inner.got)
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		v       []float32
		dim     int
		wantErr error
	}{
		{"unit", []float32{0.6, 0.8}, 2, nil},
		{"any dim", []float32{1, 0, 0}, 0, nil},
		{"wrong dim", []float32{0.6, 0.8}, 3, ErrVectorDimMismatch},
		{"empty", nil, 0, ErrVectorDimMismatch},
		{"not normalized", []float32{1, 1}, 2, ErrVectorNotNormalized},
		{"zero", []float32{0, 0}, 2, ErrVectorNotNormalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector(tt.v, tt.dim)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected [0.6 0.8], got %v", v)
	}
	if !IsNormalized(v) {
		t.Error("expected normalized output")
	}

	if _, err := Normalize([]float32{0, 0}); !errors.Is(err, ErrVectorNotNormalized) {
		t.Errorf("expected ErrVectorNotNormalized for zero vector, got %v", err)
	}
}

func TestMean(t *testing.T) {
	m, err := Mean([][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[0] != 0.5 || m[1] != 0.5 {
		t.Errorf("expected [0.5 0.5], got %v", m)
	}

	if _, err := Mean([][]float32{{1, 0}, {1}}); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
	if _, err := Mean(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestEmbeddingUsage_ConcurrentAdd(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			UsageFromContext(ctx).AddTokens(3)
		}()
	}
	wg.Wait()
	if u.TotalTokens() != 30 {
		t.Errorf("expected 30 tokens, got %d", u.TotalTokens())
	}
	if !u.Used() {
		t.Error("expected Used=true")
	}

	var nilUsage *EmbeddingUsage
	nilUsage.AddTokens(5)
	if nilUsage.TotalTokens() != 0 || nilUsage.Used() {
		t.Error("nil usage must be a no-op")
	}
}
