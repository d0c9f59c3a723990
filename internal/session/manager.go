// Package session stores the per-tab application state in Redis.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/pkg/auth"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/redis"
	"github.com/burgnice/storefront/pkg/upstream"
)

var errSessionNotFound = pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found or expired")

type toucher interface {
	Touch(ctx context.Context, key string, ttl time.Duration) error
}

// Manager loads and persists session state with a sliding TTL.
type Manager struct {
	store redis.KV
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store redis.KV, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// TTL is the sliding lifetime applied to every key of a session.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts an anonymous session with a fresh id.
func (m *Manager) Create(ctx context.Context) (*State, error) {
	now := m.now().UTC()
	state := &State{
		ID:        auth.NewSessionID(),
		SyncState: enums.SyncStateAnonymous,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (m *Manager) Load(ctx context.Context, sessionID string) (*State, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errSessionNotFound
	}
	raw, err := m.store.Get(ctx, redis.SessionKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, errSessionNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	if state.ID == "" {
		state.ID = sessionID
	}
	if !state.SyncState.IsValid() {
		state.SyncState = enums.SyncStateAnonymous
	}
	return &state, nil
}

// Save writes the whole state and restarts its TTL.
func (m *Manager) Save(ctx context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "session state requires an id")
	}
	state.UpdatedAt = m.now().UTC()
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := m.store.Set(ctx, redis.SessionKey(state.ID), string(payload), m.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
	}
	return nil
}

// Update applies fn to the latest stored state and saves the result. The state
// is not saved when fn fails.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := m.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Authenticate stores the user and upstream token and moves the session to
// syncing. Callers run the cart merge afterwards.
func (m *Manager) Authenticate(ctx context.Context, sessionID string, user upstream.User, token string) (*State, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	return m.Update(ctx, sessionID, func(s *State) error {
		u := user
		s.User = &u
		s.Token = token
		s.AuthCart = nil
		s.SyncState = enums.SyncStateSyncing
		return nil
	})
}

// SetUser replaces the stored profile without touching the sync state.
func (m *Manager) SetUser(ctx context.Context, sessionID string, user upstream.User) (*State, error) {
	return m.Update(ctx, sessionID, func(s *State) error {
		if !s.Authenticated() {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
		}
		u := user
		s.User = &u
		return nil
	})
}

// SetAuthCart stores the server-side cart and marks the session synced.
func (m *Manager) SetAuthCart(ctx context.Context, sessionID string, lines []cart.Line) (*State, error) {
	return m.Update(ctx, sessionID, func(s *State) error {
		if !s.Authenticated() {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
		}
		if lines == nil {
			lines = []cart.Line{}
		}
		s.AuthCart = lines
		s.SyncState = enums.SyncStateSynced
		return nil
	})
}

// MarkSynced finishes a login that had nothing to merge. The server cart is
// left unknown and fetched on first view.
func (m *Manager) MarkSynced(ctx context.Context, sessionID string) (*State, error) {
	return m.Update(ctx, sessionID, func(s *State) error {
		if !s.Authenticated() {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
		}
		s.SyncState = enums.SyncStateSynced
		return nil
	})
}

// Logout drops the user, token and authenticated cart and returns the
// session to anonymous.
func (m *Manager) Logout(ctx context.Context, sessionID string) (*State, error) {
	return m.Update(ctx, sessionID, func(s *State) error {
		s.User = nil
		s.Token = ""
		s.AuthCart = nil
		s.SyncState = enums.SyncStateAnonymous
		return nil
	})
}

// Touch extends the lifetime of every key in the session's key space.
func (m *Manager) Touch(ctx context.Context, sessionID string) error {
	t, ok := m.store.(toucher)
	if !ok {
		return nil
	}
	keys := []string{
		redis.SessionKey(sessionID),
		redis.GuestCartKey(sessionID),
		redis.OrderTypeKey(sessionID),
		redis.CheckoutDraftKey(sessionID),
		redis.PendingPaymentKey(sessionID),
	}
	for _, key := range keys {
		if err := t.Touch(ctx, key, m.ttl); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh session ttl")
		}
	}
	return nil
}
