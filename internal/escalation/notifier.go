package escalation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/jonathan/rfp-agent/internal/logger"
	"github.com/jonathan/rfp-agent/internal/types"
)

// Notification is what a reviewer receives.
type Notification struct {
	RunID  string       `json:"run_id"`
	Title  string       `json:"title"`
	Review types.Review `json:"review"`
}

// Notifier delivers review requests.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes review requests to an SNS topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
}

// NewSNSNotifier wraps an existing client.
func NewSNSNotifier(client SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// NewSNSNotifierFromRegion loads the default AWS configuration for region.
func NewSNSNotifierFromRegion(ctx context.Context, region, topicARN string) (*SNSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSNSNotifier(sns.NewFromConfig(cfg), topicARN), nil
}

// Notify implements Notifier.
func (s *SNSNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	subject := fmt.Sprintf("[%s] RFP review required: %s", n.Review.Priority, n.Title)
	if len(subject) > 100 {
		subject = subject[:100]
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"priority": {DataType: aws.String("String"), StringValue: aws.String(n.Review.Priority)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish review request: %w", err)
	}
	return nil
}

// LogNotifier writes review requests to the log.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.log.Warn("human review required", map[string]interface{}{
		"run_id":     n.RunID,
		"title":      n.Title,
		"priority":   n.Review.Priority,
		"confidence": n.Review.Confidence,
		"issues":     len(n.Review.Issues),
	})
	return nil
}
