package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	cartapp "github.com/dwikikusuma/cartd/internal/cart/app"
	cartmem "github.com/dwikikusuma/cartd/internal/cart/infra/memory"
	"github.com/dwikikusuma/cartd/internal/cleanup/app"
	queuemem "github.com/dwikikusuma/cartd/internal/cleanup/infra/memory"
	"github.com/dwikikusuma/cartd/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type flakyDeleter struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (d *flakyDeleter) DeleteItem(ctx context.Context, ownerID, productID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.failures > 0 {
		d.failures--
		return fmt.Errorf("%w: simulated outage", cartapp.ErrUnavailable)
	}
	return nil
}

func TestWorkerDeletesScheduledItems(t *testing.T) {
	ctx := context.Background()
	store := cartmem.New()
	cartSvc := cartapp.NewService(store)
	queue := queuemem.NewQueue()

	if _, err := cartSvc.AddItem(ctx, "u1", "p1", 2, 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := queue.Enqueue(ctx, app.NewDeleteTask("u1", "p1")); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	worker := app.NewWorker(queue, cartSvc, testLogger(), nil, 10)
	res, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("expected one delete, got %+v", res)
	}

	items, err := cartSvc.ListItems(ctx, "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("source item should be gone, got %+v", items)
	}
	if queue.Depth() != 0 {
		t.Fatalf("processed message should be acked, depth=%d", queue.Depth())
	}
}

func TestWorkerDuplicateDeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := cartmem.New()
	cartSvc := cartapp.NewService(store)
	queue := queuemem.NewQueue()

	if _, err := cartSvc.AddItem(ctx, "u1", "p1", 1, 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := queue.Enqueue(ctx, app.NewDeleteTask("u1", "p1")); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	worker := app.NewWorker(queue, cartSvc, testLogger(), nil, 10)
	res, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Deleted != 2 || res.Failed != 0 {
		t.Fatalf("duplicate delivery must succeed both times, got %+v", res)
	}

	items, _ := cartSvc.ListItems(ctx, "u1")
	if len(items) != 0 {
		t.Fatalf("end state must match single delivery, got %+v", items)
	}
}

func TestWorkerDropsMalformedMessages(t *testing.T) {
	ctx := context.Background()
	queue := queuemem.NewQueue()

	// Missing productId.
	if err := queue.Enqueue(ctx, app.Task{Action: app.ActionDelete, OwnerID: "u1"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	// Well-formed alongside it.
	if err := queue.Enqueue(ctx, app.NewDeleteTask("u1", "p1")); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	deleter := &flakyDeleter{}
	worker := app.NewWorker(queue, deleter, testLogger(), nil, 10)
	res, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Dropped != 1 || res.Deleted != 1 {
		t.Fatalf("one drop and one delete expected, got %+v", res)
	}
	if queue.Depth() != 0 {
		t.Fatalf("malformed message must be acked away, depth=%d", queue.Depth())
	}
}

func TestWorkerLeavesFailedDeletesForRedelivery(t *testing.T) {
	ctx := context.Background()
	queue := queuemem.NewQueue()
	if err := queue.Enqueue(ctx, app.NewDeleteTask("u1", "p1")); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	deleter := &flakyDeleter{failures: 1}
	worker := app.NewWorker(queue, deleter, testLogger(), nil, 10)

	res, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", res)
	}
	if queue.Depth() != 1 {
		t.Fatalf("failed message must stay queued, depth=%d", queue.Depth())
	}

	// Redelivery succeeds once the store recovers.
	res, err = worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Deleted != 1 || queue.Depth() != 0 {
		t.Fatalf("redelivered message should complete, got %+v depth=%d", res, queue.Depth())
	}
}

func TestWorkerDropsUndecodableBody(t *testing.T) {
	ctx := context.Background()

	// Bypass Enqueue to plant a broken payload the way a foreign
	// producer could.
	raw, _ := json.Marshal("not a task")
	msgs := []app.Message{{ID: "x", Body: raw}}
	deleter := &flakyDeleter{}
	worker := app.NewWorker(&staticQueue{msgs: msgs}, deleter, testLogger(), nil, 10)

	res, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Dropped != 1 || deleter.calls != 0 {
		t.Fatalf("undecodable body must be dropped without a delete, got %+v", res)
	}
}

func TestWorkerCountsTaskOutcomes(t *testing.T) {
	ctx := context.Background()
	queue := queuemem.NewQueue()

	// One malformed, one that hits a failing store, one that lands.
	if err := queue.Enqueue(ctx, app.Task{Action: app.ActionDelete, OwnerID: "u1"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	for _, productID := range []string{"p1", "p2"} {
		if err := queue.Enqueue(ctx, app.NewDeleteTask("u1", productID)); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	metrics := observability.New(reg)
	deleter := &flakyDeleter{failures: 1}
	worker := app.NewWorker(queue, deleter, testLogger(), metrics, 10)

	res, err := worker.RunOnce(ctx)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if res.Dropped != 1 || res.Failed != 1 || res.Deleted != 1 {
		t.Fatalf("expected one of each outcome, got %+v", res)
	}

	expected := `
# HELP cart_cleanup_tasks_total Cleanup tasks by outcome.
# TYPE cart_cleanup_tasks_total counter
cart_cleanup_tasks_total{result="deleted"} 1
cart_cleanup_tasks_total{result="dropped"} 1
cart_cleanup_tasks_total{result="failed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cart_cleanup_tasks_total"); err != nil {
		t.Fatalf("counter mismatch: %v", err)
	}
}

type staticQueue struct {
	msgs []app.Message
	done bool
}

func (q *staticQueue) Enqueue(ctx context.Context, task app.Task) error { return nil }

func (q *staticQueue) Receive(ctx context.Context, max int) ([]app.Message, error) {
	if q.done {
		return nil, nil
	}
	q.done = true
	return q.msgs, nil
}

func (q *staticQueue) Ack(ctx context.Context, msg app.Message) error { return nil }
