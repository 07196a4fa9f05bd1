// internal/domain/checkout/service.go
package checkout

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-gateway/internal/domain/address"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/domain/offers"
	"github.com/your-org/storefront-gateway/internal/domain/shipping"
)

// Service assembles the final payable amount for an order summary.
//
// Shipping always comes from the weight-based calculator on the cart being
// checked out; there is exactly one shipping figure in the system. The
// assembled total is advisory for display before payment; the backend
// revalidates everything at order-creation time.
type Service struct {
	shipping *shipping.Calculator
	offers   *offers.Service
	logger   *logrus.Logger
}

// NewService creates a checkout service
func NewService(shippingCalc *shipping.Calculator, offersService *offers.Service, logger *logrus.Logger) *Service {
	return &Service{
		shipping: shippingCalc,
		offers:   offersService,
		logger:   logger,
	}
}

// Pricing represents the checkout pricing breakdown in paise
type Pricing struct {
	Subtotal        int64 `json:"subtotal"`
	DiscountAmount  int64 `json:"discount_amount"`
	ShippingCharges int64 `json:"shipping_charges"`
	FinalAmount     int64 `json:"final_amount"`
}

// Summary represents the complete order summary shown before payment
type Summary struct {
	Items         []cart.LineItem       `json:"items"`
	Totals        cart.Totals           `json:"totals"`
	AppliedCoupon *offers.AppliedCoupon `json:"applied_coupon,omitempty"`
	Pricing       Pricing               `json:"pricing"`
}

// OrderDraft is the order-creation payload handed to the payment flow
type OrderDraft struct {
	Items           []cart.LineItem  `json:"items"`
	Pricing         Pricing          `json:"pricing"`
	ShippingAddress *address.Address `json:"shipping_address,omitempty"`
}

// Summarize computes subtotal, discount and shipping for the session's
// current cart items
func (s *Service) Summarize(ctx context.Context, sessionID string, items []cart.LineItem) *Summary {
	totals := cart.ComputeTotals(items)

	summary := &Summary{
		Items:  items,
		Totals: totals,
		Pricing: Pricing{
			Subtotal: totals.SubTotal,
		},
	}

	if coupon := s.offers.Applied(ctx, sessionID, totals.SubTotal); coupon != nil {
		summary.AppliedCoupon = coupon
		summary.Pricing.DiscountAmount = coupon.DiscountAmount
	}

	summary.Pricing.ShippingCharges = s.shipping.Amount(items)
	summary.Pricing.FinalAmount = summary.Pricing.Subtotal -
		summary.Pricing.DiscountAmount +
		summary.Pricing.ShippingCharges

	return summary
}

// BuildOrderDraft attaches the shipping address to a summary, producing
// the payload for backend order creation
func (s *Service) BuildOrderDraft(summary *Summary, shippingAddress *address.Address) *OrderDraft {
	return &OrderDraft{
		Items:           summary.Items,
		Pricing:         summary.Pricing,
		ShippingAddress: shippingAddress,
	}
}
