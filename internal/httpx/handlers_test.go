package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/lifecycle"
	"github.com/soultouch-za/storefront/internal/notify"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/payments"
)

// stubLedger answers availability from a fixed shortfall list and rejects
// writes; enough for exercising the HTTP surface.
type stubLedger struct {
	short []inventory.Shortfall
}

func (s *stubLedger) CheckAvailability(context.Context, []inventory.Line) ([]inventory.Shortfall, error) {
	return s.short, nil
}
func (s *stubLedger) Reserve(context.Context, []inventory.Line) ([]inventory.Shortfall, error) {
	return s.short, nil
}
func (s *stubLedger) Release(context.Context, []inventory.Line) error { return nil }
func (s *stubLedger) Commit(context.Context, []inventory.Line) error  { return nil }
func (s *stubLedger) SetStockLevel(context.Context, string, int64) error {
	return inventory.ErrNotFound
}
func (s *stubLedger) ListForProduct(context.Context, string) ([]inventory.Record, error) {
	return []inventory.Record{{ID: "rec-1", ProductID: "p1", Size: "UK9", StockLevel: 3, Available: 3}}, nil
}

type stubStore struct{}

func (stubStore) CreateOrderTx(_ context.Context, o *orders.Order, lines []inventory.Line) ([]orders.Item, error) {
	o.Subtotal = 2799
	o.Total = o.Subtotal + o.DeliveryCost
	return nil, nil
}
func (stubStore) GetOrder(context.Context, string) (*orders.Order, []orders.Item, error) {
	return nil, nil, orders.ErrNotFound
}
func (stubStore) SetPaymentIntent(context.Context, string, string) error { return nil }
func (stubStore) MarkPaymentSucceeded(context.Context, string, string) (bool, error) {
	return false, nil
}
func (stubStore) MarkPaymentFailed(context.Context, string, string) (bool, error) {
	return false, nil
}
func (stubStore) SetOrderStatus(context.Context, string, orders.Status) (orders.Status, error) {
	return "", orders.ErrNotFound
}
func (stubStore) ListPendingBefore(context.Context, time.Time) ([]orders.Order, error) {
	return nil, nil
}

type stubVerifier struct {
	ev  *payments.Event
	err error
}

func (s stubVerifier) VerifyWebhook([]byte, string) (*payments.Event, error) {
	return s.ev, s.err
}

func testServer(short []inventory.Shortfall, verifier WebhookVerifier, gatewayConfigured bool) *Server {
	ledger := &stubLedger{short: short}
	ctrl := &lifecycle.Controller{
		Ledger:           ledger,
		Orders:           stubStore{},
		Notifier:         notify.Nop{},
		DeliveryStandard: 100,
		DeliveryExpress:  180,
	}
	if gatewayConfigured {
		ctrl.Gateway = stubGateway{}
	}
	return &Server{
		Controller: ctrl,
		Ledger:     ledger,
		Verifier:   verifier,
	}
}

type stubGateway struct{}

func (stubGateway) CreateIntent(context.Context, payments.IntentRequest) (*payments.Intent, error) {
	return &payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

const checkoutBody = `{
	"customerName": "Thabo M",
	"customerEmail": "thabo@example.com",
	"deliveryAddress": "12 Juta Street",
	"deliveryCity": "Johannesburg",
	"deliveryMethod": "standard",
	"items": [{"productId": "dunk-low-panda", "size": "UK9", "quantity": 1}]
}`

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	return w
}

func TestCheckoutEndpointSuccess(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ClientSecret string `json:"clientSecret"`
		Total        int64  `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientSecret != "pi_1_secret" || resp.Total != 2899 {
		t.Fatalf("resp: %+v", resp)
	}
}

func TestCheckoutEndpointOutOfStock(t *testing.T) {
	short := []inventory.Shortfall{{ProductID: "dunk-low-panda", Size: "UK9", Requested: 1, Available: 0}}
	s := testServer(short, nil, true)

	w := doRequest(t, s, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		UnavailableItems []inventory.Shortfall `json:"unavailableItems"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.UnavailableItems) != 1 || resp.UnavailableItems[0].Size != "UK9" {
		t.Fatalf("resp: %+v", resp)
	}
}

func TestCheckoutEndpointWithoutGateway(t *testing.T) {
	s := testServer(nil, nil, false)
	w := doRequest(t, s, http.MethodPost, "/api/checkout/create-payment-intent", checkoutBody)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestCheckoutEndpointBadBody(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodPost, "/api/checkout/create-payment-intent", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/api/checkout/create-payment-intent", `{"items":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: status %d", w.Code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s := testServer(nil, stubVerifier{err: errors.New("bad signature")}, true)
	w := doRequest(t, s, http.MethodPost, "/api/webhooks/stripe", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestWebhookAcknowledgesUnhandledEventTypes(t *testing.T) {
	s := testServer(nil, stubVerifier{ev: &payments.Event{ID: "evt_1", Type: "charge.refunded"}}, true)
	w := doRequest(t, s, http.MethodPost, "/api/webhooks/stripe", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

type failingStore struct{ stubStore }

func (failingStore) MarkPaymentSucceeded(context.Context, string, string) (bool, error) {
	return false, errors.New("db down")
}

// A verified event that fails processing is still acknowledged; only bad
// signatures get a non-2xx. Otherwise the gateway would retry forever against
// a persistent fault.
func TestWebhookAcknowledgesProcessingFailure(t *testing.T) {
	ev := &payments.Event{
		ID:       "evt_1",
		Type:     payments.EventPaymentSucceeded,
		IntentID: "pi_1",
		Metadata: map[string]string{payments.MetaOrderID: "ord-1"},
	}
	s := testServer(nil, stubVerifier{ev: ev}, true)
	s.Controller.Orders = failingStore{}

	w := doRequest(t, s, http.MethodPost, "/api/webhooks/stripe", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestWebhookWithoutVerifier(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodPost, "/api/webhooks/stripe", `{}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", w.Code)
	}
}

func TestInventoryCheckEndpoint(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodPost, "/api/inventory/check",
		`{"items":[{"productId":"p1","size":"UK9","quantity":1}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Available        bool                  `json:"available"`
		UnavailableItems []inventory.Shortfall `json:"unavailableItems"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Available || len(resp.UnavailableItems) != 0 {
		t.Fatalf("resp: %+v", resp)
	}

	w = doRequest(t, s, http.MethodPost, "/api/inventory/check", `{"items":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty items: status %d", w.Code)
	}
}

func TestProductInventoryEndpoint(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodGet, "/api/inventory/p1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Sizes []struct {
			Size      string `json:"size"`
			Available int64  `json:"available"`
		} `json:"sizes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sizes) != 1 || resp.Sizes[0].Available != 3 {
		t.Fatalf("resp: %+v", resp)
	}
}

func TestAdminLoginUnconfigured(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodPost, "/api/admin/login",
		`{"username":"admin","password":"pw"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	s := testServer(nil, nil, true)
	w := doRequest(t, s, http.MethodGet, "/api/admin/orders", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
}
