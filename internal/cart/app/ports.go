package app

import (
	"context"

	"github.com/dwikikusuma/cartd/internal/cart/domain"
)

// Store is the cart record store. ConditionalUpsert applies mutate
// atomically relative to other writers on the same key: the mutator
// observes the current record (nil if absent) and returns the full
// replacement. Concurrent upserts on one key are serialized, so
// increments never lose updates.
type Store interface {
	ConditionalUpsert(ctx context.Context, key domain.Key, mutate func(existing *domain.LineItem) (domain.LineItem, error)) (domain.LineItem, error)
	Get(ctx context.Context, key domain.Key) (domain.LineItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error)
	// Delete removes the record unconditionally and succeeds when the
	// key is absent.
	Delete(ctx context.Context, key domain.Key) error
}
