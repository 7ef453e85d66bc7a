package memory

import (
	"context"
	"sync"

	"github.com/dwikikusuma/cartd/internal/cart/app"
	"github.com/dwikikusuma/cartd/internal/cart/domain"
)

// Store is an in-process cart record store. Writes to one key are
// serialized under the store mutex, which makes ConditionalUpsert's
// read-modify-write atomic. Committed writes fan out as ChangeEvents
// to registered watchers.
type Store struct {
	mu       sync.Mutex
	items    map[domain.Key]domain.LineItem
	watchers []chan domain.ChangeEvent
}

func New() *Store {
	return &Store{items: make(map[domain.Key]domain.LineItem)}
}

// Watch registers a change feed subscriber. Events are dropped for a
// subscriber whose buffer is full, never blocking writers.
func (s *Store) Watch(buffer int) <-chan domain.ChangeEvent {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan domain.ChangeEvent, buffer)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) ConditionalUpsert(ctx context.Context, key domain.Key, mutate func(existing *domain.LineItem) (domain.LineItem, error)) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *domain.LineItem
	if cur, ok := s.items[key]; ok {
		cp := cur
		existing = &cp
	}

	next, err := mutate(existing)
	if err != nil {
		return domain.LineItem{}, err
	}
	s.items[key] = next

	ev := domain.ChangeEvent{Kind: domain.ChangeInsert, Key: key, After: &next}
	if existing != nil {
		ev.Kind = domain.ChangeModify
		ev.Before = existing
	}
	s.notify(ev)
	return next, nil
}

func (s *Store) Get(ctx context.Context, key domain.Key) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return domain.LineItem{}, app.ErrNotFound
	}
	return item, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineItem, 0)
	for key, item := range s.items {
		if key.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.items[key]
	if !ok {
		return nil
	}
	delete(s.items, key)
	s.notify(domain.ChangeEvent{Kind: domain.ChangeRemove, Key: key, Before: &prev})
	return nil
}

// notify requires s.mu held.
func (s *Store) notify(ev domain.ChangeEvent) {
	for _, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}
