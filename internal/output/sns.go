package output

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/chrisdamba/dealradar/internal/logger"
	"github.com/chrisdamba/dealradar/internal/models"
)

const publishTimeout = 10 * time.Second

// Publisher is the subset of the SNS client the output needs.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSOutput publishes every message to one topic; the logical topic travels as the "topic"
// message attribute so subscribers can filter on it.
type SNSOutput struct {
	client   Publisher
	topicARN string
	log      logger.Logger
}

func NewSNSOutput(ctx context.Context, cfg models.SNSConfig, log logger.Logger) (*SNSOutput, error) {
	if cfg.TopicARN == "" {
		return nil, fmt.Errorf("sns topic arn is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewSNSOutputWithClient(sns.NewFromConfig(awsCfg), cfg.TopicARN, log), nil
}

func NewSNSOutputWithClient(client Publisher, topicARN string, log logger.Logger) *SNSOutput {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SNSOutput{client: client, topicARN: topicARN, log: log}
}

func (s *SNSOutput) WriteMessage(topic string, msg []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(msg)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"topic": {
				DataType:    aws.String("String"),
				StringValue: aws.String(topic),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topicARN, err)
	}
	s.log.Debug("published message", map[string]interface{}{
		"topic":      topic,
		"message_id": aws.ToString(out.MessageId),
	})
	return nil
}

func (s *SNSOutput) Close() error {
	return nil
}
