// internal/interfaces/http/handlers/cart_test.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-gateway/internal/config"
	"github.com/your-org/storefront-gateway/internal/domain/cart"
	"github.com/your-org/storefront-gateway/internal/domain/shipping"
	"github.com/your-org/storefront-gateway/internal/infrastructure/commerce"
	"github.com/your-org/storefront-gateway/internal/session"
)

type stubAPI struct {
	mu    sync.Mutex
	items []cart.LineItem
}

func (a *stubAPI) FetchCart(ctx context.Context, auth *commerce.Auth) ([]cart.LineItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]cart.LineItem(nil), a.items...), nil
}

func (a *stubAPI) AddItem(ctx context.Context, auth *commerce.Auth, item cart.LineItem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, item)
	return nil
}

func (a *stubAPI) UpdateItem(ctx context.Context, auth *commerce.Auth, key cart.Key, quantity int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].Key() == key {
			a.items[i].Quantity = quantity
			return nil
		}
	}
	return errors.New("no such item")
}

func (a *stubAPI) RemoveItem(ctx context.Context, auth *commerce.Auth, key cart.Key) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.items {
		if a.items[i].Key() == key {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (a *stubAPI) ClearCart(ctx context.Context, auth *commerce.Auth) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = nil
	return nil
}

type nopCache struct{}

func (nopCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (nopCache) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("key not found")
}
func (nopCache) Del(ctx context.Context, keys ...string) error { return nil }

type nopDurable struct{}

func (nopDurable) SaveSlice(sessionID, slice string, payload interface{}) error { return nil }
func (nopDurable) LoadSlice(sessionID, slice string, out interface{}) (bool, error) {
	return false, nil
}
func (nopDurable) DeleteSession(sessionID string) error { return nil }

func testRouter(t *testing.T, api *stubAPI, token string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Session:  config.SessionConfig{CartTTL: time.Hour},
		Commerce: config.CommerceConfig{CoalesceWindow: time.Millisecond},
		Shipping: config.ShippingConfig{
			BaseCharge:       8000,
			ChargePerExtraKg: 8000,
			ThresholdGrams:   1000,
		},
	}

	sessions := session.NewManager(api, nopCache{}, nopDurable{}, cfg, logger)
	handler := NewCartHandler(sessions, shipping.NewCalculator(cfg))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("session_id", "sess-1")
		if token != "" {
			c.Set("access_token", token)
		}
	})
	r.GET("/cart", handler.GetCart)
	r.POST("/cart/items", handler.AddToCart)
	r.PUT("/cart/items", handler.UpdateCartItem)
	r.DELETE("/cart/items", handler.RemoveFromCart)
	r.DELETE("/cart", handler.ClearCart)
	r.POST("/cart/sync", handler.SyncCart)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v\n%s", err, w.Body.String())
		}
	}
	return w, payload
}

func cartData(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data envelope: %+v", payload)
	}
	return data
}

func TestAddToCartGuest(t *testing.T) {
	r := testRouter(t, &stubAPI{}, "")

	w, payload := doJSON(t, r, http.MethodPost, "/cart/items",
		`{"product_id":"p1","size":"550g","price":29900,"quantity":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if payload["status"] != string(cart.StatusLocalOnly) {
		t.Errorf("expected local_only status for guest, got %v", payload["status"])
	}

	data := cartData(t, payload)
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	// 1100g cart: base charge plus one started extra kg.
	if data["shipping"] != float64(16000) {
		t.Errorf("expected shipping 16000, got %v", data["shipping"])
	}
}

func TestAddToCartValidation(t *testing.T) {
	r := testRouter(t, &stubAPI{}, "")

	w, _ := doJSON(t, r, http.MethodPost, "/cart/items", `{"size":"100g","quantity":2}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing product_id, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/cart/items", `{"product_id":"p1","quantity":0}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero quantity, got %d", w.Code)
	}
}

func TestUpdateQuantityZeroRoutesToRemoval(t *testing.T) {
	r := testRouter(t, &stubAPI{}, "")

	if w, _ := doJSON(t, r, http.MethodPost, "/cart/items",
		`{"product_id":"p1","price":100,"quantity":2}`); w.Code != http.StatusOK {
		t.Fatalf("add failed: %d", w.Code)
	}

	w, payload := doJSON(t, r, http.MethodPut, "/cart/items",
		`{"product_id":"p1","quantity":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := cartData(t, payload)
	if items := data["items"].([]interface{}); len(items) != 0 {
		t.Errorf("expected empty cart after zero-quantity update, got %d items", len(items))
	}
}

func TestAuthenticatedAddCommits(t *testing.T) {
	api := &stubAPI{}
	r := testRouter(t, api, "tok-1")

	w, payload := doJSON(t, r, http.MethodPost, "/cart/items",
		`{"product_id":"p1","price":100,"quantity":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if payload["status"] != string(cart.StatusCommitted) {
		t.Errorf("expected committed status, got %v", payload["status"])
	}
	if len(api.items) != 1 {
		t.Errorf("expected item pushed to the backend")
	}
}

func TestSyncCartRequiresToken(t *testing.T) {
	r := testRouter(t, &stubAPI{}, "")

	w, _ := doJSON(t, r, http.MethodPost, "/cart/sync", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for guest sync, got %d", w.Code)
	}
}

func TestSyncCartMergesGuestItems(t *testing.T) {
	api := &stubAPI{items: []cart.LineItem{{ProductID: "srv", Price: 500, Quantity: 1}}}
	r := testRouter(t, api, "tok-1")

	// Seed the session cart, then log in and sync.
	if w, _ := doJSON(t, r, http.MethodPost, "/cart/items",
		`{"product_id":"local","price":100,"quantity":1}`); w.Code != http.StatusOK {
		t.Fatalf("add failed")
	}

	w, payload := doJSON(t, r, http.MethodPost, "/cart/sync", "{}")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := cartData(t, payload)
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("expected both local and server items after sync, got %d", len(items))
	}
	if data["merged"] != true {
		t.Errorf("expected merged flag set after sync")
	}
}

func TestRemoveFromCartRequiresProductID(t *testing.T) {
	r := testRouter(t, &stubAPI{}, "")

	w, _ := doJSON(t, r, http.MethodDelete, "/cart/items", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without productId, got %d", w.Code)
	}
}
