// internal/domain/cart/queue.go
package cart

import (
	"context"
	"sync"
	"time"
)

// Coalescer absorbs rapid repeated quantity changes on the same line item
// so the backend sees one call per burst instead of one per click.
//
// Updates are keyed by line-item identity and carry monotonically
// increasing per-key sequence numbers. The local store is updated
// immediately on every enqueue; only the backend push is deferred by the
// flush window. A flush whose sequence number is no longer the newest for
// its key discards its re-fetched cart, so a stale in-flight response can
// never overwrite newer local state.
type Coalescer struct {
	engine *SyncEngine
	window time.Duration

	mu      sync.Mutex
	pending map[Key]*pendingUpdate
	seq     map[Key]uint64
	wg      sync.WaitGroup
}

type pendingUpdate struct {
	quantity int
	seq      uint64
	timer    *time.Timer
}

// NewCoalescer creates a coalescing quantity pusher over a sync engine
func NewCoalescer(engine *SyncEngine, window time.Duration) *Coalescer {
	return &Coalescer{
		engine:  engine,
		window:  window,
		pending: make(map[Key]*pendingUpdate),
		seq:     make(map[Key]uint64),
	}
}

// Enqueue applies a quantity change locally right away and schedules the
// backend push. Consecutive calls for the same key within the flush window
// collapse into a single push carrying the most recent quantity.
func (c *Coalescer) Enqueue(key Key, quantity int) error {
	if err := c.engine.store.UpdateQuantity(key, quantity); err != nil {
		return err
	}
	if c.engine.backend == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq[key]++
	seq := c.seq[key]

	if p, ok := c.pending[key]; ok {
		// A push is already scheduled; refresh it with the newer state
		// and restart its window.
		p.quantity = quantity
		p.seq = seq
		p.timer.Reset(c.window)
		return nil
	}

	p := &pendingUpdate{quantity: quantity, seq: seq}
	c.wg.Add(1)
	p.timer = time.AfterFunc(c.window, func() {
		c.flush(key)
	})
	c.pending[key] = p
	return nil
}

// flush pushes the pending update for a key and, if its sequence number is
// still the newest, overwrites local state with the re-fetched cart
func (c *Coalescer) flush(key Key) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if !ok {
		// A racing fire already flushed this key.
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	quantity, seq := p.quantity, p.seq
	c.mu.Unlock()
	defer c.wg.Done()

	ctx := context.Background()

	if err := c.engine.backend.UpdateItem(ctx, key, quantity); err != nil {
		c.engine.logger.WithError(err).Warn("Coalesced quantity push failed")
		c.engine.setDirty(true)
		return
	}

	items, err := c.engine.backend.FetchCart(ctx)
	if err != nil {
		c.engine.logger.WithError(err).Warn("Cart refresh after coalesced push failed")
		c.engine.setDirty(true)
		return
	}

	c.mu.Lock()
	stale := c.seq[key] != seq
	c.mu.Unlock()
	if stale {
		// A newer update was enqueued while this push was in flight; its
		// own flush will bring the authoritative cart back.
		return
	}

	c.engine.store.SetItems(items)
	c.engine.setDirty(false)
}

// Wait blocks until every scheduled push has flushed. Intended for
// shutdown and tests.
func (c *Coalescer) Wait() {
	c.mu.Lock()
	for _, p := range c.pending {
		if p.timer.Stop() {
			// Fire immediately instead of waiting out the window.
			p.timer.Reset(0)
		}
	}
	c.mu.Unlock()
	c.wg.Wait()
}
