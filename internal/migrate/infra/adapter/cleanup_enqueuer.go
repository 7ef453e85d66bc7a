package adapter

import (
	"context"

	cleanupapp "github.com/dwikikusuma/cartd/internal/cleanup/app"
)

type QueueEnqueuer struct {
	queue cleanupapp.Queue
}

func NewQueueEnqueuer(queue cleanupapp.Queue) *QueueEnqueuer {
	return &QueueEnqueuer{queue: queue}
}

func (a *QueueEnqueuer) EnqueueDelete(ctx context.Context, ownerID, productID string) error {
	return a.queue.Enqueue(ctx, cleanupapp.NewDeleteTask(ownerID, productID))
}
