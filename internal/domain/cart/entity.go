// internal/domain/cart/entity.go
package cart

// LineItem represents one distinct (product, size, color) entry in a cart.
// Price is the per-unit price in paise at the time of adding.
type LineItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// Key identifies a line item inside a cart. No two line items in a cart
// may share a key; adding a matching item increments quantity instead.
type Key struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// Key returns the composite identity of the line item
func (i LineItem) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// State is the serializable cart shape persisted and restored by the
// session layer. Totals are always derived, never stored.
type State struct {
	Items  []LineItem `json:"items"`
	Merged bool       `json:"merged"`
}

// Totals represents derived cart totals. SubTotal is in paise.
type Totals struct {
	TotalQuantity int   `json:"total_quantity"`
	SubTotal      int64 `json:"sub_total"`
}

// ComputeTotals derives totals from a list of line items
func ComputeTotals(items []LineItem) Totals {
	var totals Totals
	for _, item := range items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.Price * int64(item.Quantity)
	}
	return totals
}
