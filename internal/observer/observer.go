// Package observer consumes the store's change feed and reduces it to
// per-batch counts. It never mutates store state.
package observer

import (
	"context"
	"log/slog"
	"time"

	"github.com/dwikikusuma/cartd/internal/cart/domain"
	"github.com/dwikikusuma/cartd/internal/observability"
)

type Summary struct {
	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
	Modified  int `json:"modified"`
	Removed   int `json:"removed"`
}

type Observer struct {
	log     *slog.Logger
	metrics *observability.Metrics
}

func New(log *slog.Logger, metrics *observability.Metrics) *Observer {
	return &Observer{log: log, metrics: metrics}
}

// Process classifies one batch. Unknown kinds count toward Processed
// only and are logged as such.
func (o *Observer) Process(ctx context.Context, events []domain.ChangeEvent) Summary {
	var sum Summary
	for _, ev := range events {
		sum.Processed++
		o.metrics.ChangeEvent(string(ev.Kind))

		attrs := []any{
			slog.String("kind", string(ev.Kind)),
			slog.String("ownerId", ev.Key.OwnerID),
			slog.String("productId", ev.Key.ProductID),
		}
		if ev.Before != nil {
			attrs = append(attrs, slog.Int64("beforeQuantity", ev.Before.Quantity))
		}
		if ev.After != nil {
			attrs = append(attrs, slog.Int64("afterQuantity", ev.After.Quantity))
		}

		switch ev.Kind {
		case domain.ChangeInsert:
			sum.Inserted++
		case domain.ChangeModify:
			sum.Modified++
		case domain.ChangeRemove:
			sum.Removed++
		default:
			o.log.Warn("unknown change kind", attrs...)
			continue
		}
		o.log.Info("cart change", attrs...)
	}
	return sum
}

// Run drains the feed, flushing a batch summary every flushEvery
// events or flushInterval, whichever comes first. Returns when the
// feed closes or ctx is cancelled.
func (o *Observer) Run(ctx context.Context, feed <-chan domain.ChangeEvent, flushEvery int, flushInterval time.Duration) {
	if flushEvery <= 0 {
		flushEvery = 100
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]domain.ChangeEvent, 0, flushEvery)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		sum := o.Process(ctx, batch)
		o.log.Info("change batch summary",
			slog.Int("processed", sum.Processed),
			slog.Int("inserted", sum.Inserted),
			slog.Int("modified", sum.Modified),
			slog.Int("removed", sum.Removed))
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case ev, ok := <-feed:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= flushEvery {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
