package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaEmbedded(t *testing.T) {
	for _, table := range []string{"pipeline_runs", "artifacts", "run_steps", "audit_entries", "historical_records"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		step string
		want string
	}{
		{StepRFPData, CategoryExtraction},
		{StepMatches, CategoryMatching},
		{StepVendorQuotes, CategoryPricing},
		{StepStrategy, CategoryPricing},
		{StepSelection, CategorySelection},
		{StepWinProbability, CategoryEstimation},
		{StepReview, CategoryEscalation},
		{StepRunResult, CategoryResult},
		{"unknown", CategoryResult},
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(tt.step))
		})
	}
}

func TestRunStore_RejectsMalformedIDs(t *testing.T) {
	store := (&DB{}).Runs()
	ctx := context.Background()

	err := store.CreateRun(ctx, "not-a-uuid", "title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")

	require.Error(t, store.StartStep(ctx, "nope", "matching"))
	require.Error(t, store.SaveArtifact(ctx, "nope", StepMatches, nil))

	res, err := store.LoadRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestAuditStore_MalformedRunID(t *testing.T) {
	trail, err := (&DB{}).Audit().Trail(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, trail)
}
