package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/rfp-agent/internal/llm"
	"github.com/jonathan/rfp-agent/internal/semantic"
	"github.com/jonathan/rfp-agent/internal/types"
)

type offlineLLM struct{}

func (offlineLLM) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "", errors.New("offline")
}

func (offlineLLM) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	return "", errors.New("offline")
}

func (offlineLLM) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("offline")
}

func (offlineLLM) Close() error { return nil }

func TestSimilarity_LexicalWithoutClient(t *testing.T) {
	s := similarity(nil)
	assert.IsType(t, &semantic.Lexical{}, s)

	v, err := s.Similarity(context.Background(), "exterior matt", "exterior matt")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestSimilarity_EmbeddingFallsBackToLexical(t *testing.T) {
	s := similarity(offlineLLM{})
	require.IsType(t, semantic.Fallback{}, s)

	v, err := s.Similarity(context.Background(), "exterior matt", "exterior matt")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestRunCommand_SemanticWithoutLLM(t *testing.T) {
	isolate(t)
	t.Setenv("RFP_LLM__SEMANTIC", "true")

	out, err := execute(t, "run", "--rfp", sampleRFP, "--json")
	require.NoError(t, err)

	var res types.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, types.RunCompleted, res.Status)
	require.NotNil(t, res.Selection)
}
