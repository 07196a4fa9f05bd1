// internal/domain/shipping/calculator.go
package shipping

import (
	"math"

	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/domain/weight"
)

// Calculator computes tiered shipping charges from cart weight
type Calculator struct {
	baseCharge       int64
	chargePerExtraKg int64
	thresholdGrams   float64
}

// NewCalculator creates a shipping calculator from the configured fee schedule
func NewCalculator(cfg *config.Config) *Calculator {
	return &Calculator{
		baseCharge:       cfg.Shipping.BaseCharge,
		chargePerExtraKg: cfg.Shipping.ChargePerExtraKg,
		thresholdGrams:   cfg.Shipping.ThresholdGrams,
	}
}

// Breakdown carries the weight figures behind a quote. It is for internal
// and admin display only; customers see just the total.
type Breakdown struct {
	TotalWeightGrams float64 `json:"total_weight_grams"`
	TotalWeightKg    float64 `json:"total_weight_kg"`
	AdditionalKg     int64   `json:"additional_kg"`
}

// Quote represents a shipping charge calculation. Amounts are in paise.
type Quote struct {
	BaseCharge       int64     `json:"base_charge"`
	AdditionalCharge int64     `json:"additional_charge"`
	TotalShipping    int64     `json:"total_shipping"`
	WeightBreakdown  Breakdown `json:"weight_breakdown"`
}

// Calculate quotes shipping for a total cart weight in grams.
//
// Shipping is a step function: zero for weightless (empty or unparsable)
// carts, a flat base charge up to the threshold, then a per-started-kg
// surcharge above it. A 1.01kg cart pays the same surcharge as a 1.99kg one.
func (c *Calculator) Calculate(totalGrams float64) Quote {
	if totalGrams <= 0 {
		return Quote{}
	}

	quote := Quote{
		BaseCharge: c.baseCharge,
		WeightBreakdown: Breakdown{
			TotalWeightGrams: totalGrams,
			TotalWeightKg:    totalGrams / 1000,
		},
	}

	if totalGrams > c.thresholdGrams {
		additionalKg := int64(math.Ceil((totalGrams - c.thresholdGrams) / 1000))
		quote.WeightBreakdown.AdditionalKg = additionalKg
		quote.AdditionalCharge = additionalKg * c.chargePerExtraKg
	}

	quote.TotalShipping = quote.BaseCharge + quote.AdditionalCharge
	return quote
}

// TotalWeight sums parsed item weights times quantity across the cart.
// Items without a parsable size contribute zero weight.
func TotalWeight(items []cart.LineItem) float64 {
	var totalGrams float64
	for _, item := range items {
		totalGrams += weight.Parse(item.Size).Grams() * float64(item.Quantity)
	}
	return totalGrams
}

// QuoteCart quotes shipping for a set of cart items
func (c *Calculator) QuoteCart(items []cart.LineItem) Quote {
	return c.Calculate(TotalWeight(items))
}

// Amount returns the shipping charge for the given cart items. This is the
// only shipping figure exposed to the storefront.
func (c *Calculator) Amount(items []cart.LineItem) int64 {
	return c.QuoteCart(items).TotalShipping
}
