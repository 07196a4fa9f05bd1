// internal/domain/offers/service.go
package offers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
)

// Validator is the slice of the commerce client the offers service needs
type Validator interface {
	ApplyDiscount(ctx context.Context, auth *commerce.Auth, promoCode string, totalAmount int64) (*commerce.Offer, error)
	ActiveOffers(ctx context.Context, auth *commerce.Auth) ([]commerce.Offer, error)
}

// couponCache is satisfied by the Redis infrastructure client
type couponCache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// AppliedCoupon is a server-validated offer applied to the current session
type AppliedCoupon struct {
	Offer          commerce.Offer `json:"offer"`
	DiscountAmount int64          `json:"discount_amount"`
}

// Service handles coupon application and discount math.
//
// Validation is always delegated to the backend; this service only layers
// the effective-discount clamp on top and remembers the applied offer for
// the session. Coupons are never persisted beyond the session window.
type Service struct {
	validator Validator
	cache     couponCache
	couponTTL time.Duration
	logger    *logrus.Logger
}

// NewService creates an offers service
func NewService(validator Validator, cache couponCache, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		validator: validator,
		cache:     cache,
		couponTTL: cfg.Session.CouponTTL,
		logger:    logger,
	}
}

// EffectiveDiscount computes the discount an offer yields on a subtotal:
// min(subtotal x percentage / 100, cap), never negative and never more
// than the subtotal itself. Amounts are in paise.
func EffectiveDiscount(subtotal int64, discountPercentage float64, maxDiscountAmount int64) int64 {
	if subtotal <= 0 || discountPercentage <= 0 {
		return 0
	}

	discount := int64(math.Round(float64(subtotal) * discountPercentage / 100))
	if maxDiscountAmount >= 0 && discount > maxDiscountAmount {
		discount = maxDiscountAmount
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// Apply validates a promo code against the backend and caches the applied
// offer for the session
func (s *Service) Apply(ctx context.Context, sessionID string, auth *commerce.Auth, promoCode string, subtotal int64) (*AppliedCoupon, error) {
	promoCode = strings.TrimSpace(promoCode)
	if promoCode == "" {
		return nil, fmt.Errorf("promo code is required")
	}
	if subtotal <= 0 {
		return nil, fmt.Errorf("cannot apply a coupon to an empty cart")
	}

	offer, err := s.validator.ApplyDiscount(ctx, auth, promoCode, subtotal)
	if err != nil {
		return nil, err
	}

	applied := &AppliedCoupon{
		Offer:          *offer,
		DiscountAmount: EffectiveDiscount(subtotal, offer.DiscountPercentage, offer.MaxDiscountAmount),
	}

	data, err := json.Marshal(applied)
	if err != nil {
		return nil, fmt.Errorf("failed to encode applied coupon: %w", err)
	}
	if err := s.cache.Set(ctx, s.couponKey(sessionID), data, s.couponTTL); err != nil {
		// The coupon still applies to this response; it just will not
		// survive to the next request.
		s.logger.WithError(err).Warn("Failed to cache applied coupon")
	}

	return applied, nil
}

// Applied returns the session's cached coupon with its discount recomputed
// against the current subtotal, or nil when none is applied
func (s *Service) Applied(ctx context.Context, sessionID string, subtotal int64) *AppliedCoupon {
	data, err := s.cache.Get(ctx, s.couponKey(sessionID))
	if err != nil {
		return nil
	}

	var applied AppliedCoupon
	if err := json.Unmarshal([]byte(data), &applied); err != nil {
		s.logger.WithError(err).Warn("Discarding unreadable cached coupon")
		return nil
	}

	applied.DiscountAmount = EffectiveDiscount(subtotal, applied.Offer.DiscountPercentage, applied.Offer.MaxDiscountAmount)
	return &applied
}

// Remove clears the session's applied coupon. Coupons are not deallocated
// server-side; they are simply absent from the next order creation.
func (s *Service) Remove(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, s.couponKey(sessionID))
}

// Active lists currently valid promotional codes for display
func (s *Service) Active(ctx context.Context, auth *commerce.Auth) ([]commerce.Offer, error) {
	return s.validator.ActiveOffers(ctx, auth)
}

func (s *Service) couponKey(sessionID string) string {
	return fmt.Sprintf("applied_coupon:%s", sessionID)
}
