// internal/domain/cart/store.go
package cart

import (
	"errors"
	"sync"
)

var (
	// ErrInvalidQuantity is returned for quantities below 1. Routing a
	// zero quantity to removal is the caller's job, not the store's.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrItemNotFound is returned when updating a line item that is not
	// in the cart. Removal of a missing item is a no-op instead.
	ErrItemNotFound = errors.New("item not found in cart")
)

// Store holds the local cart state for one browser session.
//
// It is a reducer over line items: every mutation rewrites the item list
// and totals are recomputed from items on read, so the derived figures can
// never desync from the state that produced them. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	items  []LineItem
	merged bool
}

// NewStore creates an empty cart store
func NewStore() *Store {
	return &Store{}
}

// Restore replaces the store contents with a previously persisted state
func (s *Store) Restore(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]LineItem(nil), state.Items...)
	s.merged = state.Merged
}

// AddItem adds a line item to the cart. An item matching an existing
// (productID, size, color) key increments that entry's quantity instead
// of inserting a duplicate.
func (s *Store) AddItem(item LineItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.Key()
	for i := range s.items {
		if s.items[i].Key() == key {
			s.items[i].Quantity += item.Quantity
			s.items[i].Price = item.Price // Price may have changed since first add
			return nil
		}
	}

	s.items = append(s.items, item)
	return nil
}

// UpdateQuantity sets the quantity of an existing line item
func (s *Store) UpdateQuantity(key Key, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Key() == key {
			s.items[i].Quantity = quantity
			return nil
		}
	}

	return ErrItemNotFound
}

// RemoveItem removes a line item from the cart. Removing an item that is
// not present is a no-op.
func (s *Store) RemoveItem(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Key() == key {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// SetItems wholesale-replaces local items with a server-provided list and
// marks the state as merged. This is the authoritative-overwrite path used
// after every successful backend mutation or fetch.
func (s *Store) SetItems(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]LineItem(nil), items...)
	s.merged = true
}

// MergeItems merges a server-provided list additively: quantities of
// matching keys are summed, unknown server items are appended. Used only
// for login-time reconciliation, not at every refresh.
func (s *Store) MergeItems(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, incoming := range items {
		key := incoming.Key()
		found := false
		for i := range s.items {
			if s.items[i].Key() == key {
				s.items[i].Quantity += incoming.Quantity
				found = true
				break
			}
		}
		if !found {
			s.items = append(s.items, incoming)
		}
	}
	s.merged = true
}

// Clear empties the cart and resets the merged flag
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.merged = false
}

// Items returns a copy of the current line items
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...)
}

// Snapshot returns the serializable cart state for persistence
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Items:  append([]LineItem(nil), s.items...),
		Merged: s.merged,
	}
}

// Totals derives the current cart totals
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.items)
}

// Merged reports whether local state has been reconciled with the backend
// at least once this session
func (s *Store) Merged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merged
}
