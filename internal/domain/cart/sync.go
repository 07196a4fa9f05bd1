// internal/domain/cart/sync.go
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend is the slice of the commerce client the sync engine needs.
// The session layer binds it to a concrete client plus the session's
// credentials; a nil backend means guest mode.
type Backend interface {
	FetchCart(ctx context.Context) ([]LineItem, error)
	AddItem(ctx context.Context, item LineItem) error
	UpdateItem(ctx context.Context, key Key, quantity int) error
	RemoveItem(ctx context.Context, key Key) error
	ClearCart(ctx context.Context) error
}

// MutationStatus reports how far a cart mutation got
type MutationStatus string

const (
	// StatusLocalOnly means the mutation applied locally with no backend
	// involved (guest mode)
	StatusLocalOnly MutationStatus = "local_only"

	// StatusCommitted means the backend accepted the mutation and local
	// state was overwritten with the re-fetched server cart
	StatusCommitted MutationStatus = "committed"

	// StatusFailed means the backend call or the follow-up re-fetch
	// failed. The optimistic local mutation is kept, the engine is marked
	// dirty, and Resync is the compensating path.
	StatusFailed MutationStatus = "failed"
)

// SyncEngine reconciles optimistic local cart mutations with the remote
// persisted cart.
//
// Authenticated mutations always run the same pipeline: apply locally for
// responsive UI, push to the backend, then re-fetch the full backend cart
// and overwrite local state with it. The final overwrite is load-bearing:
// it guarantees eventual consistency even when the optimistic shape
// differs from the server's canonical one.
type SyncEngine struct {
	store   *Store
	backend Backend
	logger  *logrus.Logger

	mu    sync.Mutex
	dirty bool
}

// NewSyncEngine creates a sync engine over a local store. A nil backend
// puts the engine in guest mode.
func NewSyncEngine(store *Store, backend Backend, logger *logrus.Logger) *SyncEngine {
	return &SyncEngine{
		store:   store,
		backend: backend,
		logger:  logger,
	}
}

// Store returns the local cart store
func (e *SyncEngine) Store() *Store {
	return e.store
}

// Authenticated reports whether the engine pushes mutations to a backend
func (e *SyncEngine) Authenticated() bool {
	return e.backend != nil
}

// Dirty reports whether a failed mutation left local state possibly ahead
// of or behind the backend
func (e *SyncEngine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *SyncEngine) setDirty(dirty bool) {
	e.mu.Lock()
	e.dirty = dirty
	e.mu.Unlock()
}

// AddItem applies an add optimistically and pushes it to the backend
func (e *SyncEngine) AddItem(ctx context.Context, item LineItem) (MutationStatus, error) {
	if err := e.store.AddItem(item); err != nil {
		return StatusFailed, err
	}
	if e.backend == nil {
		return StatusLocalOnly, nil
	}

	if err := e.backend.AddItem(ctx, item); err != nil {
		e.setDirty(true)
		return StatusFailed, err
	}
	return e.refreshFromBackend(ctx)
}

// UpdateQuantity applies a quantity change optimistically and pushes it to
// the backend. Quantity zero must be routed to RemoveItem by the caller.
func (e *SyncEngine) UpdateQuantity(ctx context.Context, key Key, quantity int) (MutationStatus, error) {
	if err := e.store.UpdateQuantity(key, quantity); err != nil {
		return StatusFailed, err
	}
	if e.backend == nil {
		return StatusLocalOnly, nil
	}

	if err := e.backend.UpdateItem(ctx, key, quantity); err != nil {
		e.setDirty(true)
		return StatusFailed, err
	}
	return e.refreshFromBackend(ctx)
}

// RemoveItem applies a removal optimistically and pushes it to the backend
func (e *SyncEngine) RemoveItem(ctx context.Context, key Key) (MutationStatus, error) {
	e.store.RemoveItem(key)
	if e.backend == nil {
		return StatusLocalOnly, nil
	}

	if err := e.backend.RemoveItem(ctx, key); err != nil {
		e.setDirty(true)
		return StatusFailed, err
	}
	return e.refreshFromBackend(ctx)
}

// Clear empties the cart locally and on the backend
func (e *SyncEngine) Clear(ctx context.Context) (MutationStatus, error) {
	e.store.Clear()
	if e.backend == nil {
		return StatusLocalOnly, nil
	}

	if err := e.backend.ClearCart(ctx); err != nil {
		e.setDirty(true)
		return StatusFailed, err
	}
	return e.refreshFromBackend(ctx)
}

// Resync re-establishes the backend cart as local truth. This is the
// explicit compensation path after a failed mutation.
func (e *SyncEngine) Resync(ctx context.Context) error {
	if e.backend == nil {
		return fmt.Errorf("cannot resync a guest cart")
	}
	_, err := e.refreshFromBackend(ctx)
	return err
}

// SyncOnLogin reconciles the guest cart with the user's persisted backend
// cart, exactly once per login.
//
// Local items the backend does not know yet are pushed concurrently; items
// the backend already has are not re-pushed, so quantities never double
// count. After all pushes settle the backend cart is re-fetched and
// overwrites local state as the new source of truth. Any failure is
// logged and must never block login.
func (e *SyncEngine) SyncOnLogin(ctx context.Context) error {
	if e.backend == nil {
		return fmt.Errorf("cannot sync a guest cart without a backend")
	}

	localItems := e.store.Items()

	backendItems, err := e.backend.FetchCart(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Login cart sync: backend fetch failed")
		return err
	}

	// Nothing local to merge; adopt the backend cart verbatim.
	if len(localItems) == 0 {
		e.store.SetItems(backendItems)
		e.setDirty(false)
		return nil
	}

	backendKeys := make(map[Key]struct{}, len(backendItems))
	for _, item := range backendItems {
		backendKeys[item.Key()] = struct{}{}
	}

	// Push local items the backend is missing. Each targets a distinct
	// key, so the pushes have no ordering dependency between them; only
	// the final re-fetch must wait for all of them.
	var wg sync.WaitGroup
	var pushMu sync.Mutex
	var pushErrs []error

	for _, item := range localItems {
		if _, exists := backendKeys[item.Key()]; exists {
			continue
		}

		wg.Add(1)
		go func(item LineItem) {
			defer wg.Done()
			if err := e.backend.AddItem(ctx, item); err != nil {
				pushMu.Lock()
				pushErrs = append(pushErrs, err)
				pushMu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	for _, pushErr := range pushErrs {
		e.logger.WithError(pushErr).Warn("Login cart sync: item push failed")
	}

	merged, err := e.backend.FetchCart(ctx)
	if err != nil {
		// Best-effort sync: local state stays whatever it was.
		e.logger.WithError(err).Warn("Login cart sync: final fetch failed")
		e.setDirty(true)
		return err
	}

	e.store.SetItems(merged)
	e.setDirty(len(pushErrs) > 0)

	if len(pushErrs) > 0 {
		return fmt.Errorf("cart sync completed with %d failed item pushes", len(pushErrs))
	}
	return nil
}

// refreshFromBackend fetches the authoritative cart and overwrites local
// state with it
func (e *SyncEngine) refreshFromBackend(ctx context.Context) (MutationStatus, error) {
	items, err := e.backend.FetchCart(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("Cart refresh after mutation failed")
		e.setDirty(true)
		return StatusFailed, err
	}

	e.store.SetItems(items)
	e.setDirty(false)
	return StatusCommitted, nil
}
