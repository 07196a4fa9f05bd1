// internal/interfaces/http/handlers/offers.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/domain/offers"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
	"github.com/your-org/storefront-gateway/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-gateway/internal/session"
)

// OffersHandler handles promo code endpoints
type OffersHandler struct {
	sessions *session.Manager
	offers   *offers.Service
}

// NewOffersHandler creates a new offers handler
func NewOffersHandler(sessions *session.Manager, offersService *offers.Service) *OffersHandler {
	return &OffersHandler{
		sessions: sessions,
		offers:   offersService,
	}
}

func (h *OffersHandler) currentSession(c *gin.Context) *session.Session {
	return h.sessions.Get(
		c.Request.Context(),
		middleware.GetSessionIDFromContext(c),
		middleware.GetAccessTokenFromContext(c),
	)
}

// GetActiveOffers handles GET /offers/active
func (h *OffersHandler) GetActiveOffers(c *gin.Context) {
	s := h.currentSession(c)

	active, err := h.offers.Active(c.Request.Context(), s.Auth)
	h.sessions.PersistAuth(s)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to retrieve active offers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Active offers retrieved successfully",
		"data": gin.H{
			"offers": active,
		},
	})
}

type applyOfferRequest struct {
	PromoCode string `json:"promo_code" binding:"required"`
}

// ApplyOffer handles POST /offers/apply
func (h *OffersHandler) ApplyOffer(c *gin.Context) {
	s := h.currentSession(c)

	var req applyOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	subtotal := cart.ComputeTotals(s.Engine.Store().Items()).SubTotal

	applied, err := h.offers.Apply(c.Request.Context(), s.ID, s.Auth, req.PromoCode, subtotal)
	h.sessions.PersistAuth(s)
	if err != nil {
		var apiErr *commerce.APIError
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": apiErr.Message,
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Discount applied successfully",
		"data":    applied,
	})
}

// RemoveOffer handles DELETE /offers/apply
func (h *OffersHandler) RemoveOffer(c *gin.Context) {
	s := h.currentSession(c)

	if err := h.offers.Remove(c.Request.Context(), s.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove discount",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Discount removed successfully",
	})
}
