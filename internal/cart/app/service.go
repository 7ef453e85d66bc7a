package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwikikusuma/cartd/internal/cart/domain"
	"github.com/google/uuid"
)

var (
	// ErrInvalidInput covers missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is wrapped by store drivers when the backing
	// store is unreachable or rejects a write.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrNotFound is returned by Store.Get for an absent key.
	ErrNotFound = errors.New("not found")
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// AddItem accumulates deltaQuantity onto the owner's record for the
// product, creating it on first add. UnitPrice is set at creation (or
// when still unset) and otherwise preserved. A retried request adds
// again: the increment itself is atomic, but dedup of client retries
// is a caller concern.
func (s *Service) AddItem(ctx context.Context, ownerID, productID string, deltaQuantity, price int64) (domain.LineItem, error) {
	if err := requireKey(ownerID, productID); err != nil {
		return domain.LineItem{}, err
	}
	if deltaQuantity <= 0 {
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidInput, deltaQuantity)
	}
	if price < 0 {
		return domain.LineItem{}, fmt.Errorf("%w: price cannot be negative, got %d", ErrInvalidInput, price)
	}

	key := domain.Key{OwnerID: ownerID, ProductID: productID}
	return s.store.ConditionalUpsert(ctx, key, func(existing *domain.LineItem) (domain.LineItem, error) {
		now := s.now()
		if existing == nil {
			return domain.LineItem{
				ItemID:    uuid.NewString(),
				OwnerID:   ownerID,
				ProductID: productID,
				Quantity:  deltaQuantity,
				UnitPrice: price,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		next := *existing
		next.Quantity += deltaQuantity
		if next.UnitPrice == 0 {
			next.UnitPrice = price
		}
		next.UpdatedAt = now
		return next, nil
	})
}

// SetItem overwrites the quantity absolutely. Quantity zero removes
// the record instead of writing a zero-quantity row; the second return
// reports that removal.
func (s *Service) SetItem(ctx context.Context, ownerID, productID string, quantity, price int64) (domain.LineItem, bool, error) {
	if err := requireKey(ownerID, productID); err != nil {
		return domain.LineItem{}, false, err
	}
	if quantity < 0 {
		return domain.LineItem{}, false, fmt.Errorf("%w: quantity cannot be negative, got %d", ErrInvalidInput, quantity)
	}

	key := domain.Key{OwnerID: ownerID, ProductID: productID}
	if quantity == 0 {
		if err := s.store.Delete(ctx, key); err != nil {
			return domain.LineItem{}, false, err
		}
		return domain.LineItem{}, true, nil
	}

	item, err := s.store.ConditionalUpsert(ctx, key, func(existing *domain.LineItem) (domain.LineItem, error) {
		now := s.now()
		if existing == nil {
			return domain.LineItem{
				ItemID:    uuid.NewString(),
				OwnerID:   ownerID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: price,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		next := *existing
		next.Quantity = quantity
		if price > 0 {
			next.UnitPrice = price
		}
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		return domain.LineItem{}, false, err
	}
	return item, false, nil
}

// DeleteItem removes the record; deleting an absent key is a no-op
// success.
func (s *Service) DeleteItem(ctx context.Context, ownerID, productID string) error {
	if err := requireKey(ownerID, productID); err != nil {
		return err
	}
	return s.store.Delete(ctx, domain.Key{OwnerID: ownerID, ProductID: productID})
}

func (s *Service) ListItems(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: ownerId is required", ErrInvalidInput)
	}
	return s.store.ListByOwner(ctx, ownerID)
}

func requireKey(ownerID, productID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: ownerId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: productId is required", ErrInvalidInput)
	}
	return nil
}
