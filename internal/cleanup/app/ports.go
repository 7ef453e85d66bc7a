package app

import (
	"context"
	"errors"
)

// ErrUnavailable is wrapped by queue drivers when the queue cannot be
// reached. Enqueue failures never fail the request that produced them.
var ErrUnavailable = errors.New("queue unavailable")

// Task instructs the worker to remove one migrated-away line item.
// Delivery is at-least-once; the delete is idempotent, so duplicates
// are safe.
type Task struct {
	Action    string `json:"action"`
	OwnerID   string `json:"ownerId"`
	ProductID string `json:"productId"`
}

const ActionDelete = "delete"

func NewDeleteTask(ownerID, productID string) Task {
	return Task{Action: ActionDelete, OwnerID: ownerID, ProductID: productID}
}

// Message is one delivered queue entry. Body carries the JSON task;
// ID is the driver's receipt handle for acking.
type Message struct {
	ID   string
	Body []byte
}

type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Receive blocks up to the driver's wait time and returns at most
	// max messages; an empty batch is not an error.
	Receive(ctx context.Context, max int) ([]Message, error)
	// Ack removes a delivered message. Unacked messages are redelivered
	// per the driver's policy.
	Ack(ctx context.Context, msg Message) error
}

// ItemDeleter is the slice of the cart mutation service the worker
// needs.
type ItemDeleter interface {
	DeleteItem(ctx context.Context, ownerID, productID string) error
}
