// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/domain/shipping"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
	"github.com/your-org/storefront-gateway/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-gateway/internal/session"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	sessions *session.Manager
	shipping *shipping.Calculator
}

// NewCartHandler creates a new cart handler
func NewCartHandler(sessions *session.Manager, shippingCalc *shipping.Calculator) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		shipping: shippingCalc,
	}
}

// cartView is the cart payload returned by every cart endpoint
type cartView struct {
	Items    []cart.LineItem `json:"items"`
	Totals   cart.Totals     `json:"totals"`
	Merged   bool            `json:"merged"`
	Shipping int64           `json:"shipping"`
	Dirty    bool            `json:"dirty,omitempty"`
}

func (h *CartHandler) view(s *session.Session) cartView {
	items := s.Engine.Store().Items()
	return cartView{
		Items:    items,
		Totals:   cart.ComputeTotals(items),
		Merged:   s.Engine.Store().Merged(),
		Shipping: h.shipping.Amount(items),
		Dirty:    s.Engine.Dirty(),
	}
}

func (h *CartHandler) currentSession(c *gin.Context) *session.Session {
	return h.sessions.Get(
		c.Request.Context(),
		middleware.GetSessionIDFromContext(c),
		middleware.GetAccessTokenFromContext(c),
	)
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	s := h.currentSession(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    h.view(s),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	s := h.currentSession(c)

	var item cart.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	status, err := s.Engine.AddItem(c.Request.Context(), item)
	s.Persist(c.Request.Context())
	h.sessions.PersistAuth(s)

	if err != nil {
		h.mutationError(c, s, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"status":  status,
		"data":    h.view(s),
	})
}

// updateCartRequest identifies a line item and its new quantity.
// Quantity zero is routed to removal here, not inside the store.
type updateCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  *int   `json:"quantity" binding:"required,min=0"`
}

// UpdateCartItem handles PUT /cart/items
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	s := h.currentSession(c)

	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	key := cart.Key{ProductID: req.ProductID, Size: req.Size, Color: req.Color}

	if *req.Quantity == 0 {
		h.removeItem(c, s, key)
		return
	}

	// Rapid quantity clicks coalesce into one backend push; the local
	// state updates immediately either way.
	if err := s.Coalescer.Enqueue(key, *req.Quantity); err != nil {
		h.mutationError(c, s, cart.StatusFailed, err)
		return
	}
	s.Persist(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    h.view(s),
	})
}

// RemoveFromCart handles DELETE /cart/items
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	s := h.currentSession(c)

	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "productId is required",
		})
		return
	}

	key := cart.Key{
		ProductID: productID,
		Size:      c.Query("size"),
		Color:     c.Query("color"),
	}
	h.removeItem(c, s, key)
}

func (h *CartHandler) removeItem(c *gin.Context, s *session.Session, key cart.Key) {
	status, err := s.Engine.RemoveItem(c.Request.Context(), key)
	s.Persist(c.Request.Context())
	h.sessions.PersistAuth(s)

	if err != nil {
		h.mutationError(c, s, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"status":  status,
		"data":    h.view(s),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	s := h.currentSession(c)

	status, err := s.Engine.Clear(c.Request.Context())
	s.Persist(c.Request.Context())
	h.sessions.PersistAuth(s)

	if err != nil {
		h.mutationError(c, s, status, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"status":  status,
		"data":    h.view(s),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	s := h.currentSession(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": s.Engine.Store().Totals().TotalQuantity,
		},
	})
}

// syncCartRequest optionally carries a refresh token so the gateway can
// renew backend credentials transparently after a 401
type syncCartRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SyncCart handles POST /cart/sync, the login-time merge
func (h *CartHandler) SyncCart(c *gin.Context) {
	accessToken := middleware.GetAccessTokenFromContext(c)
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required to sync cart",
		})
		return
	}

	s := h.currentSession(c)

	var req syncCartRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	h.sessions.Bind(c.Request.Context(), s, &commerce.Auth{
		AccessToken:  accessToken,
		RefreshToken: req.RefreshToken,
	})

	err := s.Engine.SyncOnLogin(c.Request.Context())
	s.Persist(c.Request.Context())
	h.sessions.PersistAuth(s)

	if err != nil {
		// Sync is best-effort: the user proceeds with whatever cart
		// state is currently resolvable.
		c.JSON(http.StatusOK, gin.H{
			"message": "Cart sync incomplete",
			"warning": err.Error(),
			"data":    h.view(s),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart synced successfully",
		"data":    h.view(s),
	})
}

// ResyncCart handles POST /cart/resync, the explicit compensation path
// after a failed mutation
func (h *CartHandler) ResyncCart(c *gin.Context) {
	s := h.currentSession(c)

	if !s.Authenticated() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Guest carts have nothing to resync",
		})
		return
	}

	if err := s.Engine.Resync(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to resync cart",
			"data":  h.view(s),
		})
		return
	}
	s.Persist(c.Request.Context())
	h.sessions.PersistAuth(s)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart resynced successfully",
		"data":    h.view(s),
	})
}

// mutationError maps a failed mutation to a response. Validation errors
// are the caller's fault; anything else means the backend call failed and
// the optimistic local state stands until a resync.
func (h *CartHandler) mutationError(c *gin.Context, s *session.Session, status cart.MutationStatus, err error) {
	if errors.Is(err, cart.ErrInvalidQuantity) || errors.Is(err, cart.ErrItemNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{
		"error":  err.Error(),
		"status": status,
		"data":   h.view(s),
	})
}
