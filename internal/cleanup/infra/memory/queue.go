package memory

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/dwikikusuma/cartd/internal/cleanup/app"
)

// Queue is an in-process cleanup queue for dev mode and tests.
// Received messages stay in flight until acked, so an unacked message
// is redelivered on the next Receive, mirroring the production queue.
type Queue struct {
	mu       sync.Mutex
	pending  []app.Message
	inflight map[string]app.Message
	nextID   int
}

func NewQueue() *Queue {
	return &Queue{inflight: make(map[string]app.Message)}
}

func (q *Queue) Enqueue(ctx context.Context, task app.Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.pending = append(q.pending, app.Message{ID: strconv.Itoa(q.nextID), Body: body})
	return nil
}

func (q *Queue) Receive(ctx context.Context, max int) ([]app.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Redeliver anything left in flight from a previous batch first.
	var out []app.Message
	for _, msg := range q.inflight {
		if len(out) >= max {
			break
		}
		out = append(out, msg)
	}
	for len(out) < max && len(q.pending) > 0 {
		msg := q.pending[0]
		q.pending = q.pending[1:]
		q.inflight[msg.ID] = msg
		out = append(out, msg)
	}
	return out, nil
}

func (q *Queue) Ack(ctx context.Context, msg app.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, msg.ID)
	return nil
}

// Depth reports queued plus in-flight messages.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) + len(q.inflight)
}
