// internal/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
	"github.com/your-org/storefront-gateway/internal/infrastructure/storage"
)

// CommerceAPI is the slice of the commerce client the session layer binds
// cart engines to
type CommerceAPI interface {
	FetchCart(ctx context.Context, auth *commerce.Auth) ([]cart.LineItem, error)
	AddItem(ctx context.Context, auth *commerce.Auth, item cart.LineItem) error
	UpdateItem(ctx context.Context, auth *commerce.Auth, key cart.Key, quantity int) error
	RemoveItem(ctx context.Context, auth *commerce.Auth, key cart.Key) error
	ClearCart(ctx context.Context, auth *commerce.Auth) error
}

// hotCache is satisfied by the Redis infrastructure client
type hotCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// durableStore is satisfied by the storage state-slice store
type durableStore interface {
	SaveSlice(sessionID, slice string, payload interface{}) error
	LoadSlice(sessionID, slice string, out interface{}) (bool, error)
	DeleteSession(sessionID string) error
}

// Session is one browser session's cart context
type Session struct {
	ID        string
	Auth      *commerce.Auth
	Engine    *cart.SyncEngine
	Coalescer *cart.Coalescer

	manager  *Manager
	lastSeen time.Time
}

// Authenticated reports whether the session is bound to backend credentials
func (s *Session) Authenticated() bool {
	return s.Auth != nil
}

// Persist writes the session's cart state to the hot cache and the durable
// store. Persistence failures are logged, never surfaced: losing a snapshot
// must not break the flow that produced it.
func (s *Session) Persist(ctx context.Context) {
	state := s.Engine.Store().Snapshot()

	data, err := json.Marshal(state)
	if err != nil {
		s.manager.logger.WithError(err).Error("Failed to encode cart state")
		return
	}

	if err := s.manager.cache.Set(ctx, cartKey(s.ID), data, s.manager.cartTTL); err != nil {
		s.manager.logger.WithError(err).Warn("Failed to cache cart state")
	}
	if err := s.manager.durable.SaveSlice(s.ID, storage.SliceCart, state); err != nil {
		s.manager.logger.WithError(err).Warn("Failed to persist cart slice")
	}
}

// Manager hands out sessions and restores their persisted state.
//
// Live cart state sits in Redis with a TTL; the durable store backs it for
// restarts and evictions. Auth slices live only in the durable store.
type Manager struct {
	api     CommerceAPI
	cache   hotCache
	durable durableStore
	logger  *logrus.Logger

	cartTTL        time.Duration
	coalesceWindow time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(api CommerceAPI, cache hotCache, durable durableStore, cfg *config.Config, logger *logrus.Logger) *Manager {
	return &Manager{
		api:            api,
		cache:          cache,
		durable:        durable,
		logger:         logger,
		cartTTL:        cfg.Session.CartTTL,
		coalesceWindow: cfg.Commerce.CoalesceWindow,
		sessions:       make(map[string]*Session),
	}
}

// NewSessionID generates a fresh session identifier
func NewSessionID() string {
	return uuid.New().String()
}

// Get returns the session for an ID, creating and restoring it on first
// access. A non-empty access token binds the session to the backend.
func (m *Manager) Get(ctx context.Context, sessionID, accessToken string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		s = &Session{
			ID:      sessionID,
			manager: m,
		}
		store := cart.NewStore()
		m.restoreCart(ctx, sessionID, store)
		m.restoreAuth(sessionID, s)
		s.Engine = cart.NewSyncEngine(store, nil, m.logger)
		s.Coalescer = cart.NewCoalescer(s.Engine, m.coalesceWindow)
		m.sessions[sessionID] = s
	}
	s.lastSeen = time.Now()

	if accessToken != "" {
		if s.Auth == nil {
			s.Auth = &commerce.Auth{}
		}
		s.Auth.AccessToken = accessToken
	}
	m.rebindLocked(s)

	return s
}

// Bind attaches backend credentials to a session and persists the auth
// slice. Used at login, optionally carrying a refresh token so the
// commerce client can retry after a 401.
func (m *Manager) Bind(ctx context.Context, s *Session, auth *commerce.Auth) {
	m.mu.Lock()
	if s.Auth != nil {
		// The engine binding holds the existing pointer; update it in
		// place so in-flight refreshes stay visible.
		*s.Auth = *auth
	} else {
		s.Auth = auth
	}
	m.rebindLocked(s)
	m.mu.Unlock()

	if err := m.durable.SaveSlice(s.ID, storage.SliceAuth, s.Auth); err != nil {
		m.logger.WithError(err).Warn("Failed to persist auth slice")
	}
}

// Unbind detaches backend credentials, returning the session to guest mode
func (m *Manager) Unbind(ctx context.Context, s *Session) {
	m.mu.Lock()
	s.Auth = nil
	m.rebindLocked(s)
	m.mu.Unlock()

	if err := m.durable.DeleteSession(s.ID); err != nil {
		m.logger.WithError(err).Warn("Failed to drop session slices")
	}
	if err := m.cache.Del(ctx, cartKey(s.ID)); err != nil {
		m.logger.WithError(err).Warn("Failed to drop cached cart state")
	}
}

// PersistAuth saves the session's (possibly refreshed) token pair
func (m *Manager) PersistAuth(s *Session) {
	if s.Auth == nil {
		return
	}
	if err := m.durable.SaveSlice(s.ID, storage.SliceAuth, s.Auth); err != nil {
		m.logger.WithError(err).Warn("Failed to persist auth slice")
	}
}

// StartJanitor prunes sessions idle longer than the cart TTL. Their state
// stays restorable from the durable store.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.prune()
			}
		}
	}()
}

func (m *Manager) prune() {
	cutoff := time.Now().Add(-m.cartTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// rebindLocked rebuilds the session's engine binding after an auth change.
// Caller must hold m.mu.
func (m *Manager) rebindLocked(s *Session) {
	if s.Engine != nil && (s.Auth != nil) == s.Engine.Authenticated() {
		// Token values mutate in place; only a guest/authenticated flip
		// needs a new binding.
		return
	}

	var backend cart.Backend
	if s.Auth != nil {
		backend = &backendBinding{api: m.api, auth: s.Auth}
	}
	s.Engine = cart.NewSyncEngine(s.Engine.Store(), backend, m.logger)
	s.Coalescer = cart.NewCoalescer(s.Engine, m.coalesceWindow)
}

// restoreCart hydrates a store from the hot cache, falling back to the
// durable slice
func (m *Manager) restoreCart(ctx context.Context, sessionID string, store *cart.Store) {
	if data, err := m.cache.Get(ctx, cartKey(sessionID)); err == nil {
		var state cart.State
		if err := json.Unmarshal([]byte(data), &state); err == nil {
			store.Restore(state)
			return
		}
		m.logger.Warn("Discarding unreadable cached cart state")
	}

	var state cart.State
	found, err := m.durable.LoadSlice(sessionID, storage.SliceCart, &state)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to restore cart slice")
		return
	}
	if found {
		store.Restore(state)
	}
}

// restoreAuth hydrates the session's credentials from the durable store
func (m *Manager) restoreAuth(sessionID string, s *Session) {
	var auth commerce.Auth
	found, err := m.durable.LoadSlice(sessionID, storage.SliceAuth, &auth)
	if err != nil {
		m.logger.WithError(err).Warn("Failed to restore auth slice")
		return
	}
	if found && auth.AccessToken != "" {
		s.Auth = &auth
	}
}

// backendBinding adapts the commerce client plus one session's credentials
// to the cart.Backend interface
type backendBinding struct {
	api  CommerceAPI
	auth *commerce.Auth
}

func (b *backendBinding) FetchCart(ctx context.Context) ([]cart.LineItem, error) {
	return b.api.FetchCart(ctx, b.auth)
}

func (b *backendBinding) AddItem(ctx context.Context, item cart.LineItem) error {
	return b.api.AddItem(ctx, b.auth, item)
}

func (b *backendBinding) UpdateItem(ctx context.Context, key cart.Key, quantity int) error {
	return b.api.UpdateItem(ctx, b.auth, key, quantity)
}

func (b *backendBinding) RemoveItem(ctx context.Context, key cart.Key) error {
	return b.api.RemoveItem(ctx, b.auth, key)
}

func (b *backendBinding) ClearCart(ctx context.Context) error {
	return b.api.ClearCart(ctx, b.auth)
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}
