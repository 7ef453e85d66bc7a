package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dwikikusuma/cartd/internal/observability"
)

// Worker drains cleanup tasks and deletes the corresponding records.
// One bad message never fails a batch: malformed tasks are dropped,
// store failures leave the message unacked for redelivery.
type Worker struct {
	queue     Queue
	deleter   ItemDeleter
	log       *slog.Logger
	metrics   *observability.Metrics
	batchSize int
	idleWait  time.Duration
}

// BatchResult reports what a single batch pass did.
type BatchResult struct {
	Received int
	Deleted  int
	Dropped  int
	Failed   int
}

func NewWorker(queue Queue, deleter ItemDeleter, log *slog.Logger, metrics *observability.Metrics, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Worker{
		queue:     queue,
		deleter:   deleter,
		log:       log,
		metrics:   metrics,
		batchSize: batchSize,
		idleWait:  time.Second,
	}
}

// Run consumes batches until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := w.RunOnce(ctx)
		if err != nil {
			w.log.Error("cleanup receive failed", slog.Any("err", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.idleWait):
			}
			continue
		}
		if res.Received == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.idleWait):
			}
		}
	}
}

// RunOnce processes a single batch.
func (w *Worker) RunOnce(ctx context.Context) (BatchResult, error) {
	msgs, err := w.queue.Receive(ctx, w.batchSize)
	if err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Received: len(msgs)}
	for _, msg := range msgs {
		var task Task
		if err := json.Unmarshal(msg.Body, &task); err != nil {
			w.log.Warn("dropping undecodable cleanup message", slog.String("msgId", msg.ID), slog.Any("err", err))
			res.Dropped++
			w.metrics.CleanupTask("dropped")
			w.ack(ctx, msg)
			continue
		}
		if task.OwnerID == "" || task.ProductID == "" {
			w.log.Warn("dropping malformed cleanup task",
				slog.String("msgId", msg.ID),
				slog.String("ownerId", task.OwnerID),
				slog.String("productId", task.ProductID))
			res.Dropped++
			w.metrics.CleanupTask("dropped")
			w.ack(ctx, msg)
			continue
		}

		if err := w.deleter.DeleteItem(ctx, task.OwnerID, task.ProductID); err != nil {
			// Leave unacked; the queue redelivers.
			w.log.Error("cleanup delete failed",
				slog.String("ownerId", task.OwnerID),
				slog.String("productId", task.ProductID),
				slog.Any("err", err))
			res.Failed++
			w.metrics.CleanupTask("failed")
			continue
		}
		res.Deleted++
		w.metrics.CleanupTask("deleted")
		w.ack(ctx, msg)
	}
	return res, nil
}

func (w *Worker) ack(ctx context.Context, msg Message) {
	if err := w.queue.Ack(ctx, msg); err != nil {
		w.log.Warn("cleanup ack failed", slog.String("msgId", msg.ID), slog.Any("err", err))
	}
}
