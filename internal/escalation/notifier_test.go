package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSNSNotifier_Notify(t *testing.T) {
	var got *sns.PublishInput
	client := &mockSNS{PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
		got = params
		return &sns.PublishOutput{}, nil
	}}
	n := NewSNSNotifier(client, "arn:aws:sns:us-east-1:123456789012:rfp-review")

	err := n.Notify(context.Background(), Notification{
		RunID:  "run-1",
		Title:  strings.Repeat("Hospital ", 20),
		Review: types.Review{Required: true, Priority: PriorityUrgent},
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:rfp-review", *got.TopicArn)
	assert.LessOrEqual(t, len(*got.Subject), 100)
	assert.True(t, strings.HasPrefix(*got.Subject, "[URGENT] RFP review required"))
	assert.Equal(t, PriorityUrgent, *got.MessageAttributes["priority"].StringValue)

	var body Notification
	require.NoError(t, json.Unmarshal([]byte(*got.Message), &body))
	assert.Equal(t, "run-1", body.RunID)
}

func TestSNSNotifier_PublishError(t *testing.T) {
	client := &mockSNS{PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("throttled")
	}}
	err := NewSNSNotifier(client, "arn").Notify(context.Background(), Notification{})
	assert.ErrorContains(t, err, "throttled")
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logger.NewTestLogger(t))
	assert.NoError(t, n.Notify(context.Background(), Notification{RunID: "r"}))
}
