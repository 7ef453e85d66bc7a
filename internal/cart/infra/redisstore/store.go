package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dwikikusuma/cartd/internal/cart/app"
	"github.com/dwikikusuma/cartd/internal/cart/domain"
)

// Store keeps line items as JSON under cart:<owner>:<product> with a
// per-owner index set. ConditionalUpsert runs under WATCH so a write
// that raced another writer is retried against the fresh record.
// Committed changes are published on a pub/sub channel for observers.
type Store struct {
	rdb      *goredis.Client
	channel  string
	attempts int
}

type Config struct {
	Addr    string
	Channel string
}

const (
	defaultChannel = "cart.changes"
	casAttempts    = 8
)

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(rdb, cfg.Channel), nil
}

func NewWithClient(rdb *goredis.Client, channel string) *Store {
	if channel == "" {
		channel = defaultChannel
	}
	return &Store{rdb: rdb, channel: channel, attempts: casAttempts}
}

func itemKey(key domain.Key) string  { return "cart:" + key.OwnerID + ":" + key.ProductID }
func ownerKey(ownerID string) string { return "cart:" + ownerID }

type record struct {
	ItemID    string    `json:"itemId"`
	OwnerID   string    `json:"ownerId"`
	ProductID string    `json:"productId"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"price"`
	CreatedAt time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRecord(li domain.LineItem) record {
	return record{
		ItemID:    li.ItemID,
		OwnerID:   li.OwnerID,
		ProductID: li.ProductID,
		Quantity:  li.Quantity,
		UnitPrice: li.UnitPrice,
		CreatedAt: li.CreatedAt,
		UpdatedAt: li.UpdatedAt,
	}
}

func (r record) toDomain() domain.LineItem {
	return domain.LineItem{
		ItemID:    r.ItemID,
		OwnerID:   r.OwnerID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) ConditionalUpsert(ctx context.Context, key domain.Key, mutate func(existing *domain.LineItem) (domain.LineItem, error)) (domain.LineItem, error) {
	var next domain.LineItem
	var before *domain.LineItem
	var mutateErr error

	txf := func(tx *goredis.Tx) error {
		before = nil
		raw, err := tx.Get(ctx, itemKey(key)).Bytes()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if err == nil {
			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			cur := rec.toDomain()
			before = &cur
		}

		next, mutateErr = mutate(before)
		if mutateErr != nil {
			return mutateErr
		}
		payload, err := json.Marshal(toRecord(next))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, itemKey(key), payload, 0)
			pipe.SAdd(ctx, ownerKey(key.OwnerID), key.ProductID)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.attempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, itemKey(key))
		if err == nil {
			kind := domain.ChangeInsert
			if before != nil {
				kind = domain.ChangeModify
			}
			s.publish(ctx, domain.ChangeEvent{Kind: kind, Key: key, Before: before, After: &next})
			return next, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if mutateErr != nil {
			return domain.LineItem{}, mutateErr
		}
		return domain.LineItem{}, fmt.Errorf("%w: redis upsert: %v", app.ErrUnavailable, err)
	}
	return domain.LineItem{}, fmt.Errorf("%w: redis upsert contention on %s/%s", app.ErrUnavailable, key.OwnerID, key.ProductID)
}

func (s *Store) Get(ctx context.Context, key domain.Key) (domain.LineItem, error) {
	raw, err := s.rdb.Get(ctx, itemKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.LineItem{}, app.ErrNotFound
	}
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: redis get: %v", app.ErrUnavailable, err)
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: redis decode: %v", app.ErrUnavailable, err)
	}
	return rec.toDomain(), nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	productIDs, err := s.rdb.SMembers(ctx, ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis smembers: %v", app.ErrUnavailable, err)
	}
	items := make([]domain.LineItem, 0, len(productIDs))
	for _, productID := range productIDs {
		item, err := s.Get(ctx, domain.Key{OwnerID: ownerID, ProductID: productID})
		if errors.Is(err, app.ErrNotFound) {
			// Index entry outlived the record; self-heal.
			s.rdb.SRem(ctx, ownerKey(ownerID), productID)
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) Delete(ctx context.Context, key domain.Key) error {
	prev, err := s.Get(ctx, key)
	if errors.Is(err, app.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, itemKey(key))
		pipe.SRem(ctx, ownerKey(key.OwnerID), key.ProductID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis delete: %v", app.ErrUnavailable, err)
	}
	s.publish(ctx, domain.ChangeEvent{Kind: domain.ChangeRemove, Key: key, Before: &prev})
	return nil
}

type wireEvent struct {
	Kind      string  `json:"eventKind"`
	OwnerID   string  `json:"ownerId"`
	ProductID string  `json:"productId"`
	Before    *record `json:"before,omitempty"`
	After     *record `json:"after,omitempty"`
}

// publish is best-effort; a lost notification degrades observer counts,
// not cart state.
func (s *Store) publish(ctx context.Context, ev domain.ChangeEvent) {
	we := wireEvent{Kind: string(ev.Kind), OwnerID: ev.Key.OwnerID, ProductID: ev.Key.ProductID}
	if ev.Before != nil {
		rec := toRecord(*ev.Before)
		we.Before = &rec
	}
	if ev.After != nil {
		rec := toRecord(*ev.After)
		we.After = &rec
	}
	payload, err := json.Marshal(we)
	if err != nil {
		return
	}
	_ = s.rdb.Publish(ctx, s.channel, payload).Err()
}

// SubscribeChanges consumes the store's pub/sub channel and decodes
// each message into a ChangeEvent. The returned channel closes when
// ctx is cancelled.
func SubscribeChanges(ctx context.Context, rdb *goredis.Client, channel string) <-chan domain.ChangeEvent {
	if channel == "" {
		channel = defaultChannel
	}
	sub := rdb.Subscribe(ctx, channel)
	out := make(chan domain.ChangeEvent, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var we wireEvent
				if err := json.Unmarshal([]byte(msg.Payload), &we); err != nil {
					continue
				}
				ev := domain.ChangeEvent{
					Kind: domain.ChangeKind(we.Kind),
					Key:  domain.Key{OwnerID: we.OwnerID, ProductID: we.ProductID},
				}
				if we.Before != nil {
					cur := we.Before.toDomain()
					ev.Before = &cur
				}
				if we.After != nil {
					cur := we.After.toDomain()
					ev.After = &cur
				}
				out <- ev
			}
		}
	}()
	return out
}
