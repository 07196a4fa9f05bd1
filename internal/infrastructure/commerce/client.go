// internal/infrastructure/commerce/client.go
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
)

// Client talks to the remote commerce backend over its REST contract.
// The backend owns all business truth (pricing, inventory, the persisted
// cart); this client only moves state back and forth and normalizes wire
// shapes into the gateway's canonical types.
type Client struct {
	baseURL     string
	refreshPath string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewClient creates a commerce backend client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.Commerce.BaseURL, "/"),
		refreshPath: cfg.Commerce.RefreshPath,
		httpClient: &http.Client{
			Timeout: cfg.Commerce.Timeout,
		},
		logger: logger,
	}
}

// Auth carries the backend credentials of one authenticated session.
// A successful token refresh mutates it in place; callers persist the
// updated pair afterwards.
type Auth struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// APIError represents a structured failure response from the backend
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("commerce backend: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("commerce backend: request failed with status %d", e.StatusCode)
}

// Offer represents a server-validated promotional code.
// MaxDiscountAmount is normalized to paise.
type Offer struct {
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	DiscountPercentage float64 `json:"discount_percentage"`
	MaxDiscountAmount  int64   `json:"max_discount_amount"`
}

// serverCartItem tolerates the backend's historically inconsistent field
// names; normalization into cart.LineItem happens in one place, here.
type serverCartItem struct {
	ProductID      string  `json:"productId"`
	ProductIDSnake string  `json:"product_id"`
	Size           string  `json:"size"`
	Color          string  `json:"color"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	ImageURL       string  `json:"imageUrl"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
}

func (s serverCartItem) toLineItem() cart.LineItem {
	productID := s.ProductID
	if productID == "" {
		productID = s.ProductIDSnake
	}
	image := s.Image
	if image == "" {
		image = s.ImageURL
	}
	return cart.LineItem{
		ProductID: productID,
		Size:      s.Size,
		Color:     s.Color,
		Name:      s.Name,
		Image:     image,
		Price:     rupeesToPaise(s.Price),
		Quantity:  s.Quantity,
	}
}

// rupeesToPaise converts the backend's rupee floats into the gateway's
// integer money representation
func rupeesToPaise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// paiseToRupees converts back for request payloads the backend expects
// in rupees
func paiseToRupees(paise int64) float64 {
	return float64(paise) / 100
}

// FetchCart retrieves the authoritative backend cart
func (c *Client) FetchCart(ctx context.Context, auth *Auth) ([]cart.LineItem, error) {
	var payload struct {
		Cart struct {
			Items []serverCartItem `json:"items"`
		} `json:"cart"`
	}

	if err := c.do(ctx, auth, http.MethodGet, "/cart", nil, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch backend cart: %w", err)
	}

	items := make([]cart.LineItem, len(payload.Cart.Items))
	for i, item := range payload.Cart.Items {
		items[i] = item.toLineItem()
	}
	return items, nil
}

// AddItem pushes a line item into the backend cart
func (c *Client) AddItem(ctx context.Context, auth *Auth, item cart.LineItem) error {
	body := map[string]interface{}{
		"productId": item.ProductID,
		"size":      item.Size,
		"color":     item.Color,
		"quantity":  item.Quantity,
	}
	if err := c.do(ctx, auth, http.MethodPost, "/cart/add", nil, body, nil); err != nil {
		return fmt.Errorf("failed to add item to backend cart: %w", err)
	}
	return nil
}

// UpdateItem sets the quantity of a backend cart line item
func (c *Client) UpdateItem(ctx context.Context, auth *Auth, key cart.Key, quantity int) error {
	body := map[string]interface{}{
		"productId": key.ProductID,
		"size":      key.Size,
		"color":     key.Color,
		"quantity":  quantity,
	}
	if err := c.do(ctx, auth, http.MethodPut, "/cart/update", nil, body, nil); err != nil {
		return fmt.Errorf("failed to update backend cart item: %w", err)
	}
	return nil
}

// RemoveItem deletes a line item from the backend cart
func (c *Client) RemoveItem(ctx context.Context, auth *Auth, key cart.Key) error {
	query := url.Values{}
	query.Set("productId", key.ProductID)
	query.Set("size", key.Size)
	query.Set("color", key.Color)

	if err := c.do(ctx, auth, http.MethodDelete, "/cart/remove", query, nil, nil); err != nil {
		return fmt.Errorf("failed to remove backend cart item: %w", err)
	}
	return nil
}

// ClearCart empties the backend cart
func (c *Client) ClearCart(ctx context.Context, auth *Auth) error {
	if err := c.do(ctx, auth, http.MethodDelete, "/cart/clear", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to clear backend cart: %w", err)
	}
	return nil
}

// ApplyDiscount asks the backend to validate a promo code against the
// current order total. TotalAmount is in paise; the wire format is rupees.
func (c *Client) ApplyDiscount(ctx context.Context, auth *Auth, promoCode string, totalAmount int64) (*Offer, error) {
	body := map[string]interface{}{
		"promoCode":   promoCode,
		"totalAmount": paiseToRupees(totalAmount),
	}

	var payload struct {
		OfferDetails struct {
			Name               string  `json:"name"`
			DiscountPercentage float64 `json:"discountPercentage"`
			MaxDiscountAmount  float64 `json:"maxDiscountAmount"`
		} `json:"offerDetails"`
	}

	if err := c.do(ctx, auth, http.MethodPost, "/offers/apply-discount", nil, body, &payload); err != nil {
		return nil, err
	}

	return &Offer{
		Code:               promoCode,
		Name:               payload.OfferDetails.Name,
		DiscountPercentage: payload.OfferDetails.DiscountPercentage,
		MaxDiscountAmount:  rupeesToPaise(payload.OfferDetails.MaxDiscountAmount),
	}, nil
}

// ActiveOffers lists the currently valid promotional codes, for display
// only; validation always goes through ApplyDiscount.
func (c *Client) ActiveOffers(ctx context.Context, auth *Auth) ([]Offer, error) {
	var payload struct {
		Offers []struct {
			Code               string  `json:"code"`
			Name               string  `json:"name"`
			DiscountPercentage float64 `json:"discountPercentage"`
			MaxDiscountAmount  float64 `json:"maxDiscountAmount"`
		} `json:"offers"`
	}

	if err := c.do(ctx, auth, http.MethodGet, "/offers/active", nil, nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch active offers: %w", err)
	}

	offers := make([]Offer, len(payload.Offers))
	for i, o := range payload.Offers {
		offers[i] = Offer{
			Code:               o.Code,
			Name:               o.Name,
			DiscountPercentage: o.DiscountPercentage,
			MaxDiscountAmount:  rupeesToPaise(o.MaxDiscountAmount),
		}
	}
	return offers, nil
}

// do executes one backend request, retrying exactly once after a token
// refresh when the backend answers 401.
func (c *Client) do(ctx context.Context, auth *Auth, method, path string, query url.Values, body, out interface{}) error {
	status, err := c.doOnce(ctx, auth, method, path, query, body, out)
	if err == nil {
		return nil
	}

	if status == http.StatusUnauthorized && auth != nil && auth.RefreshToken != "" {
		if refreshErr := c.refresh(ctx, auth); refreshErr != nil {
			c.logger.WithError(refreshErr).Warn("Token refresh failed")
			return err
		}
		_, err = c.doOnce(ctx, auth, method, path, query, body, out)
	}

	return err
}

func (c *Client) doOnce(ctx context.Context, auth *Auth, method, path string, query url.Values, body, out interface{}) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil && auth.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&failure); decodeErr == nil {
			if failure.Error != "" {
				apiErr.Message = failure.Error
			} else {
				apiErr.Message = failure.Message
			}
		}
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// refresh exchanges the refresh token for a fresh token pair and mutates
// the session auth in place
func (c *Client) refresh(ctx context.Context, auth *Auth) error {
	body := map[string]interface{}{
		"refreshToken": auth.RefreshToken,
	}

	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	if _, err := c.doOnce(ctx, nil, http.MethodPost, c.refreshPath, nil, body, &payload); err != nil {
		return err
	}

	if payload.AccessToken == "" {
		return fmt.Errorf("refresh response missing access token")
	}

	auth.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		auth.RefreshToken = payload.RefreshToken
	}
	return nil
}
