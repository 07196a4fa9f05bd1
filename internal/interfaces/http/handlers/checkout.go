// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-gateway/internal/domain/address"
	"github.com/your-org/storefront-gateway/internal/domain/checkout"
	"github.com/your-org/storefront-gateway/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-gateway/internal/session"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	sessions *session.Manager
	checkout *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions *session.Manager, checkoutService *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		checkout: checkoutService,
	}
}

func (h *CheckoutHandler) currentSession(c *gin.Context) *session.Session {
	return h.sessions.Get(
		c.Request.Context(),
		middleware.GetSessionIDFromContext(c),
		middleware.GetAccessTokenFromContext(c),
	)
}

// GetSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	s := h.currentSession(c)

	summary := h.checkout.Summarize(c.Request.Context(), s.ID, s.Engine.Store().Items())

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary retrieved successfully",
		"data":    summary,
	})
}

// BuildOrderDraft handles POST /checkout/draft
func (h *CheckoutHandler) BuildOrderDraft(c *gin.Context) {
	s := h.currentSession(c)

	if len(s.Engine.Store().Items()) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart is empty",
		})
		return
	}

	var raw address.Raw
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	normalized := address.Normalize(raw)
	summary := h.checkout.Summarize(c.Request.Context(), s.ID, s.Engine.Store().Items())
	draft := h.checkout.BuildOrderDraft(summary, &normalized)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order draft built successfully",
		"data":    draft,
	})
}
