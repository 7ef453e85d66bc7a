package sqs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dwikikusuma/cartd/internal/cleanup/app"
)

// fakeSQS records the inputs the queue builds and replays canned
// responses or failures.
type fakeSQS struct {
	sendErr    error
	receiveErr error
	deleteErr  error

	sent        []awssqs.SendMessageInput
	lastReceive *awssqs.ReceiveMessageInput
	deleted     []string

	messages []types.Message
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, *in)
	return &awssqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, in *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	f.lastReceive = in
	return &awssqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, in *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(in.ReceiptHandle))
	return &awssqs.DeleteMessageOutput{}, nil
}

const testQueueURL = "https://sqs.test/cleanup"

func TestEnqueueSendsTask(t *testing.T) {
	fake := &fakeSQS{}
	queue := NewWithClient(fake, testQueueURL, 0)

	if err := queue.Enqueue(context.Background(), app.NewDeleteTask("u1", "p1")); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(fake.sent))
	}
	if got := aws.ToString(fake.sent[0].QueueUrl); got != testQueueURL {
		t.Fatalf("wrong queue url: %s", got)
	}

	var task app.Task
	if err := json.Unmarshal([]byte(aws.ToString(fake.sent[0].MessageBody)), &task); err != nil {
		t.Fatalf("body must decode as a task: %v", err)
	}
	if task.Action != app.ActionDelete || task.OwnerID != "u1" || task.ProductID != "p1" {
		t.Fatalf("task round trip mismatch: %+v", task)
	}
}

func TestEnqueueWrapsSendFailure(t *testing.T) {
	fake := &fakeSQS{sendErr: fmt.Errorf("throttled")}
	queue := NewWithClient(fake, testQueueURL, 0)

	err := queue.Enqueue(context.Background(), app.NewDeleteTask("u1", "p1"))
	if !errors.Is(err, app.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestReceiveClampsBatchSize(t *testing.T) {
	fake := &fakeSQS{messages: []types.Message{
		{ReceiptHandle: aws.String("rh-1"), Body: aws.String(`{"action":"delete","ownerId":"u1","productId":"p1"}`)},
	}}
	queue := NewWithClient(fake, testQueueURL, 7)

	msgs, err := queue.Receive(context.Background(), 50)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if got := fake.lastReceive.MaxNumberOfMessages; got != 10 {
		t.Fatalf("batch size must clamp to 10, got %d", got)
	}
	if got := fake.lastReceive.WaitTimeSeconds; got != 7 {
		t.Fatalf("long-poll wait not passed through, got %d", got)
	}

	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if msgs[0].ID != "rh-1" {
		t.Fatalf("message id must carry the receipt handle, got %q", msgs[0].ID)
	}
	var task app.Task
	if err := json.Unmarshal(msgs[0].Body, &task); err != nil || task.ProductID != "p1" {
		t.Fatalf("message body mismatch: %s (%v)", msgs[0].Body, err)
	}
}

func TestReceiveWrapsFailure(t *testing.T) {
	fake := &fakeSQS{receiveErr: fmt.Errorf("timeout")}
	queue := NewWithClient(fake, testQueueURL, 0)

	if _, err := queue.Receive(context.Background(), 10); !errors.Is(err, app.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAckDeletesByReceiptHandle(t *testing.T) {
	fake := &fakeSQS{}
	queue := NewWithClient(fake, testQueueURL, 0)

	if err := queue.Ack(context.Background(), app.Message{ID: "rh-9"}); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "rh-9" {
		t.Fatalf("expected delete of rh-9, got %v", fake.deleted)
	}

	fake.deleteErr = fmt.Errorf("gone")
	if err := queue.Ack(context.Background(), app.Message{ID: "rh-9"}); !errors.Is(err, app.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
