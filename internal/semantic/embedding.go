package semantic

import (
	"context"
	"fmt"
	"sync"
)

// Embedder turns text into a vector. llm.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedding scores texts by the cosine of their embeddings. Vectors are
// cached per text for the lifetime of the value.
type Embedding struct {
	embedder Embedder

	mu    sync.Mutex
	cache map[string][]float64
}

// NewEmbedding wraps e.
func NewEmbedding(e Embedder) *Embedding {
	return &Embedding{embedder: e, cache: make(map[string][]float64)}
}

// Similarity returns the cosine clamped to [0,1].
func (s *Embedding) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := s.vector(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.vector(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(va) != len(vb) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(va), len(vb))
	}
	return max(0, min(1, CosineVectors(va, vb))), nil
}

func (s *Embedding) vector(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	v, ok := s.cache[text]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	raw, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	v = make([]float64, len(raw))
	for i, x := range raw {
		v[i] = float64(x)
	}

	s.mu.Lock()
	s.cache[text] = v
	s.mu.Unlock()
	return v, nil
}

// Fallback tries primary and uses secondary when primary fails.
type Fallback struct {
	Primary, Secondary interface {
		Similarity(ctx context.Context, a, b string) (float64, error)
	}
}

// Similarity implements ranking.Similarity.
func (f Fallback) Similarity(ctx context.Context, a, b string) (float64, error) {
	if f.Primary != nil {
		if v, err := f.Primary.Similarity(ctx, a, b); err == nil {
			return v, nil
		}
	}
	if f.Secondary == nil {
		return 0, fmt.Errorf("no similarity available")
	}
	return f.Secondary.Similarity(ctx, a, b)
}
