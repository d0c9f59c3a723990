package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/redis"
	"github.com/burgnice/storefront/pkg/upstream"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	touched []string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) Touch(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, key)
	return nil
}

func TestCreateAndLoad(t *testing.T) {
	store := newMockStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	created, err := manager.Create(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.SyncState != enums.SyncStateAnonymous || created.Authenticated() {
		t.Fatalf("new session should be anonymous, got %+v", created)
	}
	if store.ttls[redis.SessionKey(created.ID)] != time.Hour {
		t.Fatalf("expected session ttl to be applied")
	}

	loaded, err := manager.Load(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != created.ID {
		t.Fatalf("expected id %s, got %s", created.ID, loaded.ID)
	}
}

func TestLoadMissingSessionIsUnauthorized(t *testing.T) {
	manager, _ := NewManager(newMockStore(), time.Hour)
	_, err := manager.Load(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAuthenticateSyncAndLogout(t *testing.T) {
	ctx := context.Background()
	manager, _ := NewManager(newMockStore(), time.Hour)
	created, _ := manager.Create(ctx)

	state, err := manager.Authenticate(ctx, created.ID, upstream.User{ID: "u1", Email: "a@b.c"}, "tok")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !state.Authenticated() || state.SyncState != enums.SyncStateSyncing {
		t.Fatalf("expected syncing authenticated session, got %+v", state)
	}

	state, err = manager.SetAuthCart(ctx, created.ID, []cart.Line{{ItemID: "a", UnitPrice: 2, Quantity: 3}})
	if err != nil {
		t.Fatalf("set auth cart: %v", err)
	}
	if state.SyncState != enums.SyncStateSynced {
		t.Fatalf("expected synced, got %s", state.SyncState)
	}
	if totals := state.AuthTotals(); totals.Count != 3 || totals.Total != 6 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	state, err = manager.Logout(ctx, created.ID)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if state.Authenticated() || state.AuthCart != nil || state.SyncState != enums.SyncStateAnonymous {
		t.Fatalf("expected anonymous session after logout, got %+v", state)
	}

	reloaded, _ := manager.Load(ctx, created.ID)
	if reloaded.Authenticated() {
		t.Fatal("logout should be persisted")
	}
}

func TestReauthenticateDropsPreviousCart(t *testing.T) {
	ctx := context.Background()
	manager, _ := NewManager(newMockStore(), time.Hour)
	created, _ := manager.Create(ctx)

	if _, err := manager.Authenticate(ctx, created.ID, upstream.User{ID: "u1"}, "tok-1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := manager.SetAuthCart(ctx, created.ID, []cart.Line{{ItemID: "a", Quantity: 1}}); err != nil {
		t.Fatalf("set auth cart: %v", err)
	}
	state, err := manager.Authenticate(ctx, created.ID, upstream.User{ID: "u2"}, "tok-2")
	if err != nil {
		t.Fatalf("authenticate again: %v", err)
	}
	if state.AuthCart != nil {
		t.Fatalf("expected previous cart dropped, got %+v", state.AuthCart)
	}

	state, err = manager.MarkSynced(ctx, created.ID)
	if err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if state.SyncState != enums.SyncStateSynced || state.AuthCart != nil {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestSetAuthCartRequiresLogin(t *testing.T) {
	ctx := context.Background()
	manager, _ := NewManager(newMockStore(), time.Hour)
	created, _ := manager.Create(ctx)

	if _, err := manager.SetAuthCart(ctx, created.ID, nil); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestTouchRefreshesWholeKeySpace(t *testing.T) {
	store := newMockStore()
	manager, _ := NewManager(store, time.Hour)

	if err := manager.Touch(context.Background(), "s1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if len(store.touched) != 5 {
		t.Fatalf("expected 5 keys refreshed, got %v", store.touched)
	}
	if store.touched[1] != redis.GuestCartKey("s1") {
		t.Fatalf("unexpected key order %v", store.touched)
	}
}

func TestNewManagerValidatesInput(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(newMockStore(), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
