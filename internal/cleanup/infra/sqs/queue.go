package sqs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/dwikikusuma/cartd/internal/cleanup/app"
)

// API is the slice of the SQS client the queue uses. Tests fake it.
type API interface {
	SendMessage(ctx context.Context, in *awssqs.SendMessageInput, opts ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *awssqs.ReceiveMessageInput, opts ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *awssqs.DeleteMessageInput, opts ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
}

type Config struct {
	QueueURL string
	Region   string
	Endpoint string
	// WaitSeconds enables long polling on Receive. Default 10.
	WaitSeconds int32
}

type Queue struct {
	client API
	url    string
	wait   int32
}

func New(ctx context.Context, cfg Config) (*Queue, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("sqs queue url required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.QueueURL, cfg.WaitSeconds), nil
}

func NewWithClient(client API, queueURL string, waitSeconds int32) *Queue {
	if waitSeconds <= 0 {
		waitSeconds = 10
	}
	return &Queue{client: client, url: queueURL, wait: waitSeconds}
}

func (q *Queue) Enqueue(ctx context.Context, task app.Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = q.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("%w: sqs send: %v", app.ErrUnavailable, err)
	}
	return nil
}

func (q *Queue) Receive(ctx context.Context, max int) ([]app.Message, error) {
	if max <= 0 || max > 10 {
		max = 10
	}
	out, err := q.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(max),
		WaitTimeSeconds:     q.wait,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sqs receive: %v", app.ErrUnavailable, err)
	}
	msgs := make([]app.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, app.Message{
			ID:   aws.ToString(m.ReceiptHandle),
			Body: []byte(aws.ToString(m.Body)),
		})
	}
	return msgs, nil
}

func (q *Queue) Ack(ctx context.Context, msg app.Message) error {
	_, err := q.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(msg.ID),
	})
	if err != nil {
		return fmt.Errorf("%w: sqs delete: %v", app.ErrUnavailable, err)
	}
	return nil
}
