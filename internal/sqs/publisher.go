package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// PublisherAPI defines the interface for SQS operations used by Publisher.
type PublisherAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher handles publishing messages to AWS SQS.
type Publisher struct {
	client   PublisherAPI
	queueURL string
}

// NewPublisher creates a new SQS Publisher with the given client and queue URL.
func NewPublisher(client PublisherAPI, queueURL string) *Publisher {
	return &Publisher{
		client:   client,
		queueURL: queueURL,
	}
}

// TrendMessage represents a message about a trend product lifecycle event.
type TrendMessage struct {
	Action      string  `json:"action"`
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	MarketZone  string  `json:"market_zone"`
	Segment     string  `json:"segment"`
	SourceBrand string  `json:"source_brand"`
	TrendScore  int     `json:"trend_score"`
	Price       float64 `json:"price"`
}

// PublishTrendMessage publishes a trend message to the SQS queue.
func (p *Publisher) PublishTrendMessage(ctx context.Context, msg TrendMessage) error {
	messageBody, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(messageBody)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}
