package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/burgnice/storefront/pkg/enums"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/redis"
)

// Store keeps the per-session checkout state: the saved draft, the order-type
// preference and the pending payment marker.
type Store struct {
	kv   redis.KV
	logg *logger.Logger
	ttl  time.Duration
}

func NewStore(kv redis.KV, logg *logger.Logger, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &Store{kv: kv, logg: logg, ttl: ttl}, nil
}

func (s *Store) Draft(ctx context.Context, sessionID string) (*Draft, bool, error) {
	var draft Draft
	ok, err := s.getJSON(ctx, redis.CheckoutDraftKey(sessionID), &draft)
	if err != nil || !ok {
		return nil, false, err
	}
	return &draft, true, nil
}

func (s *Store) SaveDraft(ctx context.Context, sessionID string, draft Draft) error {
	return s.setJSON(ctx, redis.CheckoutDraftKey(sessionID), draft, s.ttl)
}

func (s *Store) ClearDraft(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, redis.CheckoutDraftKey(sessionID)); err != nil {
		return fmt.Errorf("clear checkout draft: %w", err)
	}
	return nil
}

// OrderType returns the saved delivery/pickup preference. An unknown stored
// value is reported as absent.
func (s *Store) OrderType(ctx context.Context, sessionID string) (enums.OrderType, bool, error) {
	raw, err := s.kv.Get(ctx, redis.OrderTypeKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load order type: %w", err)
	}
	orderType, err := enums.ParseOrderType(strings.TrimSpace(raw))
	if err != nil {
		return "", false, nil
	}
	return orderType, true, nil
}

func (s *Store) SaveOrderType(ctx context.Context, sessionID string, orderType enums.OrderType) error {
	if err := s.kv.Set(ctx, redis.OrderTypeKey(sessionID), string(orderType), s.ttl); err != nil {
		return fmt.Errorf("save order type: %w", err)
	}
	return nil
}

func (s *Store) Pending(ctx context.Context, sessionID string) (*PendingPayment, bool, error) {
	var marker PendingPayment
	ok, err := s.getJSON(ctx, redis.PendingPaymentKey(sessionID), &marker)
	if err != nil || !ok {
		return nil, false, err
	}
	if marker.OrderID == "" {
		return nil, false, nil
	}
	return &marker, true, nil
}

// SavePending stores the marker. The key ttl is only a backstop; expiry is
// decided by the marker's own timestamp.
func (s *Store) SavePending(ctx context.Context, sessionID string, marker PendingPayment, ttl time.Duration) error {
	return s.setJSON(ctx, redis.PendingPaymentKey(sessionID), marker, ttl)
}

func (s *Store) ClearPending(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, redis.PendingPaymentKey(sessionID)); err != nil {
		return fmt.Errorf("clear pending payment: %w", err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "discarding unparseable checkout state")
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(payload), ttl); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
