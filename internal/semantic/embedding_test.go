package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return v, nil
}

func TestEmbedding_Similarity(t *testing.T) {
	f := &fakeEmbedder{vectors: map[string][]float32{
		"matt":  {1, 0},
		"flat":  {1, 0},
		"gloss": {-1, 0},
		"short": {1},
	}}
	s := NewEmbedding(f)
	ctx := context.Background()

	v, err := s.Similarity(ctx, "matt", "flat")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)

	v, err = s.Similarity(ctx, "matt", "gloss")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v, "negative cosine clamps to zero")

	// matt was cached
	assert.Equal(t, 3, f.calls)

	_, err = s.Similarity(ctx, "matt", "short")
	assert.Error(t, err)

	_, err = s.Similarity(ctx, "matt", "missing")
	assert.Error(t, err)
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	f := Fallback{Primary: NewEmbedding(&fakeEmbedder{}), Secondary: NewLexical()}

	v, err := f.Similarity(ctx, "exterior matt", "exterior matt")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)

	_, err = Fallback{Primary: NewEmbedding(&fakeEmbedder{})}.Similarity(ctx, "a", "b")
	assert.Error(t, err)
}
