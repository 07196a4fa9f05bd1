// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-gateway/internal/domain/checkout"
	"github.com/your-org/storefront-gateway/internal/domain/offers"
	"github.com/your-org/storefront-gateway/internal/domain/shipping"
	"github.com/your-org/storefront-gateway/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-gateway/internal/session"
)

// Deps carries the wired services the route handlers need
type Deps struct {
	Sessions *session.Manager
	Shipping *shipping.Calculator
	Offers   *offers.Service
	Checkout *checkout.Service
}

// SetupRoutes registers all gateway routes on the given group
func SetupRoutes(rg *gin.RouterGroup, deps Deps) {
	SetupCartRoutes(rg, deps)
	SetupOfferRoutes(rg, deps)
	SetupCheckoutRoutes(rg, deps)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, deps Deps) {
	cartHandler := handlers.NewCartHandler(deps.Sessions, deps.Shipping)

	// Cart routes work for guest sessions and authenticated users alike
	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items", cartHandler.UpdateCartItem)
		cart.DELETE("/items", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.POST("/sync", cartHandler.SyncCart)
		cart.POST("/resync", cartHandler.ResyncCart)
	}
}

// SetupOfferRoutes sets up promo code related routes
func SetupOfferRoutes(rg *gin.RouterGroup, deps Deps) {
	offersHandler := handlers.NewOffersHandler(deps.Sessions, deps.Offers)

	offersGroup := rg.Group("/offers")
	{
		offersGroup.GET("/active", offersHandler.GetActiveOffers)
		offersGroup.POST("/apply", offersHandler.ApplyOffer)
		offersGroup.DELETE("/apply", offersHandler.RemoveOffer)
	}
}

// SetupCheckoutRoutes sets up checkout related routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, deps Deps) {
	checkoutHandler := handlers.NewCheckoutHandler(deps.Sessions, deps.Checkout)

	checkoutGroup := rg.Group("/checkout")
	{
		checkoutGroup.GET("/summary", checkoutHandler.GetSummary)
		checkoutGroup.POST("/draft", checkoutHandler.BuildOrderDraft)
	}
}
