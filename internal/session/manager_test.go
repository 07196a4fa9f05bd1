// internal/session/manager_test.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
	"github.com/your-org/storefront-gateway/internal/infrastructure/storage"
)

type stubAPI struct {
	mu    sync.Mutex
	items []cart.LineItem

	lastAuth *commerce.Auth
}

func (a *stubAPI) FetchCart(ctx context.Context, auth *commerce.Auth) ([]cart.LineItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAuth = auth
	return append([]cart.LineItem(nil), a.items...), nil
}

func (a *stubAPI) AddItem(ctx context.Context, auth *commerce.Auth, item cart.LineItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAuth = auth
	a.items = append(a.items, item)
	return nil
}

func (a *stubAPI) UpdateItem(ctx context.Context, auth *commerce.Auth, key cart.Key, quantity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAuth = auth
	for i := range a.items {
		if a.items[i].Key() == key {
			a.items[i].Quantity = quantity
			return nil
		}
	}
	return errors.New("no such item")
}

func (a *stubAPI) RemoveItem(ctx context.Context, auth *commerce.Auth, key cart.Key) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAuth = auth
	for i := range a.items {
		if a.items[i].Key() == key {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (a *stubAPI) ClearCart(ctx context.Context, auth *commerce.Auth) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastAuth = auth
	a.items = nil
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := value.([]byte)
	if !ok {
		return errors.New("unsupported value type")
	}
	c.values[key] = string(data)
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

type fakeDurable struct {
	mu     sync.Mutex
	slices map[string]string
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{slices: make(map[string]string)}
}

func (d *fakeDurable) key(sessionID, slice string) string {
	return sessionID + "/" + slice
}

func (d *fakeDurable) SaveSlice(sessionID, slice string, payload interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	d.slices[d.key(sessionID, slice)] = string(data)
	return nil
}

func (d *fakeDurable) LoadSlice(sessionID, slice string, out interface{}) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.slices[d.key(sessionID, slice)]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(data), out)
}

func (d *fakeDurable) DeleteSession(sessionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k := range d.slices {
		if len(k) > len(sessionID) && k[:len(sessionID)+1] == sessionID+"/" {
			delete(d.slices, k)
		}
	}
	return nil
}

func testManager(api CommerceAPI, cache hotCache, durable durableStore) *Manager {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Session:  config.SessionConfig{CartTTL: time.Hour},
		Commerce: config.CommerceConfig{CoalesceWindow: time.Millisecond},
	}
	return NewManager(api, cache, durable, cfg, logger)
}

func TestGetCreatesGuestSession(t *testing.T) {
	t.Parallel()

	m := testManager(&stubAPI{}, newFakeCache(), newFakeDurable())

	s := m.Get(context.Background(), "sess-1", "")
	if s.Authenticated() {
		t.Errorf("expected guest session without a token")
	}
	if s.Engine.Authenticated() {
		t.Errorf("guest engine must have no backend binding")
	}

	// Same ID returns the same live session.
	if again := m.Get(context.Background(), "sess-1", ""); again != s {
		t.Errorf("expected the same session instance")
	}
}

func TestGetWithTokenBindsBackend(t *testing.T) {
	t.Parallel()

	api := &stubAPI{}
	m := testManager(api, newFakeCache(), newFakeDurable())

	s := m.Get(context.Background(), "sess-1", "tok-1")
	if !s.Authenticated() {
		t.Fatalf("expected authenticated session")
	}
	if !s.Engine.Authenticated() {
		t.Fatalf("expected engine bound to the backend")
	}

	// Mutations flow through with the session's credentials.
	if _, err := s.Engine.AddItem(context.Background(), cart.LineItem{ProductID: "p1", Price: 100, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if api.lastAuth == nil || api.lastAuth.AccessToken != "tok-1" {
		t.Errorf("expected backend call with the session token, got %+v", api.lastAuth)
	}
}

func TestGetRefreshedTokenKeepsEngine(t *testing.T) {
	t.Parallel()

	m := testManager(&stubAPI{}, newFakeCache(), newFakeDurable())

	s := m.Get(context.Background(), "sess-1", "tok-1")
	engine := s.Engine

	// A newer token for the same session updates credentials in place
	// without rebuilding the engine and losing its state.
	again := m.Get(context.Background(), "sess-1", "tok-2")
	if again.Engine != engine {
		t.Errorf("token rotation must not rebuild the engine")
	}
	if again.Auth.AccessToken != "tok-2" {
		t.Errorf("expected token updated in place, got %q", again.Auth.AccessToken)
	}
}

func TestPersistAndRestoreAcrossEviction(t *testing.T) {
	t.Parallel()

	durable := newFakeDurable()
	m := testManager(&stubAPI{}, newFakeCache(), durable)

	s := m.Get(context.Background(), "sess-1", "")
	if _, err := s.Engine.AddItem(context.Background(), cart.LineItem{ProductID: "p1", Price: 100, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	s.Persist(context.Background())

	// A second manager simulates a process restart with a cold cache.
	m2 := testManager(&stubAPI{}, newFakeCache(), durable)
	restored := m2.Get(context.Background(), "sess-1", "")

	items := restored.Engine.Store().Items()
	if len(items) != 1 || items[0].ProductID != "p1" || items[0].Quantity != 2 {
		t.Fatalf("expected cart restored from durable slice, got %+v", items)
	}
}

func TestBindPersistsAuthAndUnbindDropsIt(t *testing.T) {
	t.Parallel()

	durable := newFakeDurable()
	m := testManager(&stubAPI{}, newFakeCache(), durable)

	s := m.Get(context.Background(), "sess-1", "")
	m.Bind(context.Background(), s, &commerce.Auth{AccessToken: "tok-1", RefreshToken: "ref-1"})

	if !s.Authenticated() || !s.Engine.Authenticated() {
		t.Fatalf("expected session bound after login")
	}

	var auth commerce.Auth
	found, err := durable.LoadSlice("sess-1", storage.SliceAuth, &auth)
	if err != nil || !found {
		t.Fatalf("expected persisted auth slice, found=%v err=%v", found, err)
	}
	if auth.RefreshToken != "ref-1" {
		t.Errorf("expected refresh token persisted, got %q", auth.RefreshToken)
	}

	m.Unbind(context.Background(), s)
	if s.Authenticated() || s.Engine.Authenticated() {
		t.Errorf("expected guest session after unbind")
	}
	if found, _ := durable.LoadSlice("sess-1", storage.SliceAuth, &auth); found {
		t.Errorf("expected auth slice dropped on unbind")
	}
}

func TestPruneDropsIdleSessions(t *testing.T) {
	t.Parallel()

	m := testManager(&stubAPI{}, newFakeCache(), newFakeDurable())

	s := m.Get(context.Background(), "sess-1", "")
	m.mu.Lock()
	s.lastSeen = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	m.prune()

	m.mu.Lock()
	_, alive := m.sessions["sess-1"]
	m.mu.Unlock()
	if alive {
		t.Errorf("expected idle session pruned")
	}
}
