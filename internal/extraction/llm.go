package extraction

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jonathan/rfp-agent/internal/llm"
	"github.com/jonathan/rfp-agent/internal/prompts"
	"github.com/jonathan/rfp-agent/internal/schemas"
	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/jonathan/rfp-agent/internal/validation"
)

// LLMEntityExtractor asks a language model for the RFP entities.
type LLMEntityExtractor struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMEntityExtractor wraps client. Structured extraction runs on the standard tier.
func NewLLMEntityExtractor(client llm.Client) *LLMEntityExtractor {
	return &LLMEntityExtractor{client: client, tier: llm.TierStandard}
}

// Extract implements EntityExtractor.
func (x *LLMEntityExtractor) Extract(ctx context.Context, text string) (*types.ExtractedEntities, error) {
	prompt := llm.BuildExtractionPrompt(llm.RFPEntitiesSchema(), validation.Quote(text, "rfp document"))

	raw, err := x.client.GenerateJSON(ctx, prompt, x.tier)
	if err != nil {
		return nil, &APICallError{Message: "failed to extract RFP entities", Cause: err}
	}
	raw = llm.CleanJSONBlock(raw)

	if err := schemas.Validate(schemas.RFPEntities, []byte(raw)); err != nil {
		return nil, &ParseError{Message: "model output does not match entity schema", Cause: err}
	}

	var e types.ExtractedEntities
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, &ParseError{Message: "failed to decode entity JSON", Cause: err}
	}
	return &e, nil
}

// Summarize returns a short bid-manager summary of the RFP.
func (x *LLMEntityExtractor) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	prompt := prompts.Format(prompts.MustGet("extraction.json", "rfp-summary"), map[string]string{
		"MaxSentences": strconv.Itoa(maxSentences),
		"Text":         validation.Quote(validation.StripInjection(text), "rfp document"),
	})
	out, err := x.client.GenerateContent(ctx, prompt, x.tier)
	if err != nil {
		return "", &APICallError{Message: "failed to summarize RFP", Cause: err}
	}
	return strings.TrimSpace(out), nil
}
