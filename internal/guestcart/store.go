// Package guestcart persists the anonymous cart of a browser tab.
package guestcart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/internal/events"
	"github.com/burgnice/storefront/internal/lock"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/redis"
)

// Store is the only writer of the guest cart key and the only emitter of
// cart-updated notifications for guest carts.
type Store struct {
	kv     redis.KV
	bus    events.Publisher
	logg   *logger.Logger
	ttl    time.Duration
	locker *lock.KeyedMutex
}

func NewStore(kv redis.KV, bus events.Publisher, logg *logger.Logger, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	return &Store{
		kv:     kv,
		bus:    bus,
		logg:   logg,
		ttl:    ttl,
		locker: lock.NewKeyedMutex(),
	}, nil
}

// Load returns the stored units, or an empty slice when nothing is stored.
// Unparseable data is logged and treated as an empty cart.
func (s *Store) Load(ctx context.Context, sessionID string) ([]cart.Unit, error) {
	raw, err := s.kv.Get(ctx, redis.GuestCartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return []cart.Unit{}, nil
		}
		return nil, fmt.Errorf("load guest cart: %w", err)
	}
	if raw == "" {
		return []cart.Unit{}, nil
	}

	var units []cart.Unit
	if err := json.Unmarshal([]byte(raw), &units); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding unparseable guest cart")
		}
		return []cart.Unit{}, nil
	}
	if units == nil {
		units = []cart.Unit{}
	}
	return units, nil
}

// Lines is Load followed by aggregation.
func (s *Store) Lines(ctx context.Context, sessionID string) ([]cart.Line, error) {
	units, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return cart.Aggregate(units), nil
}

// Save overwrites the stored units in a single write and publishes the new totals.
func (s *Store) Save(ctx context.Context, sessionID string, units []cart.Unit) error {
	unlock := s.locker.Lock(sessionID)
	defer unlock()
	return s.save(ctx, sessionID, units)
}

// Clear removes the stored units and publishes an empty cart.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.Discard(ctx, sessionID); err != nil {
		return err
	}
	s.bus.Publish(sessionID, events.CartUpdated{})
	return nil
}

// Discard removes the stored units without a notification. The caller owns
// the cart-updated event, as after a login merge.
func (s *Store) Discard(ctx context.Context, sessionID string) error {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	if err := s.kv.Del(ctx, redis.GuestCartKey(sessionID)); err != nil {
		return fmt.Errorf("clear guest cart: %w", err)
	}
	return nil
}

// MutateFunc receives the latest stored units and returns the units to store.
type MutateFunc func(units []cart.Unit) ([]cart.Unit, error)

// Mutate runs a read-modify-write against the latest snapshot. Calls for the
// same session are serialized; returning an error from fn leaves the store
// untouched.
func (s *Store) Mutate(ctx context.Context, sessionID string, fn MutateFunc) ([]cart.Unit, error) {
	unlock := s.locker.Lock(sessionID)
	defer unlock()

	current, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []cart.Unit{}
	}
	if err := s.save(ctx, sessionID, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) save(ctx context.Context, sessionID string, units []cart.Unit) error {
	if units == nil {
		units = []cart.Unit{}
	}
	payload, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	if err := s.kv.Set(ctx, redis.GuestCartKey(sessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save guest cart: %w", err)
	}

	totals := cart.ComputeTotals(cart.Aggregate(units))
	s.bus.Publish(sessionID, events.CartUpdated{Count: totals.Count, Total: totals.Total})
	return nil
}
