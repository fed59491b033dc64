package httpx

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soultouch-za/storefront/internal/catalog"
	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/lifecycle"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/payments"
)

const maxWebhookBody = 1 << 20

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load products")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProductInventory(w http.ResponseWriter, r *http.Request) {
	records, err := s.Ledger.ListForProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load inventory")
		return
	}
	type sizeStock struct {
		ID        string `json:"id"`
		Size      string `json:"size"`
		Available int64  `json:"available"`
	}
	out := make([]sizeStock, 0, len(records))
	for _, rec := range records {
		out = append(out, sizeStock{ID: rec.ID, Size: rec.Size, Available: rec.Available})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sizes": out})
}

// handleCheckInventory is the cart's pre-checkout availability probe.
func (s *Server) handleCheckInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []inventory.Line `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	short, err := s.Ledger.CheckAvailability(r.Context(), req.Items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not check availability")
		return
	}
	if short == nil {
		short = []inventory.Shortfall{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available":        len(short) == 0,
		"unavailableItems": short,
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.CheckoutInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.Controller.Checkout(r.Context(), in)
	if err != nil {
		var oos *lifecycle.OutOfStockError
		switch {
		case errors.As(err, &oos):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":            "some items are no longer available",
				"unavailableItems": oos.Shortfalls,
			})
		case errors.Is(err, lifecycle.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, payments.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "payments are temporarily unavailable")
		default:
			log.Printf("checkout: %v", err)
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clientSecret":    res.ClientSecret,
		"paymentIntentId": res.IntentID,
		"orderId":         res.Order.ID,
		"orderNumber":     res.Order.OrderNumber,
		"total":           res.Order.Total,
	})
}

// handleStripeWebhook verifies the signature and settles the order. Only a
// bad signature is rejected; once the event is authenticated we acknowledge
// with 200 even if processing fails, otherwise a persistent fault would have
// the gateway retrying forever. Processing failures are logged and left to
// reconciliation.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are temporarily unavailable")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	ev, err := s.Verifier.VerifyWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	switch ev.Type {
	case payments.EventPaymentSucceeded:
		err = s.Controller.HandlePaymentSucceeded(r.Context(), *ev)
	case payments.EventPaymentFailed:
		err = s.Controller.HandlePaymentFailed(r.Context(), *ev)
	default:
		// Unhandled event types are acknowledged so the gateway stops
		// resending them.
	}
	if err != nil {
		log.Printf("webhook %s event=%s: processing failed, needs reconciliation: %v", ev.Type, ev.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, items, err := s.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o, "items": items})
}

// handleTrackOrder serves the public tracking page by order number. The
// status cache answers repeat polls without touching Postgres.
func (s *Server) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	o, items, err := s.Orders.GetByNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	status, pay := o.OrderStatus, o.PaymentStatus
	if s.Cache != nil {
		if cached, err := s.Cache.GetStatus(r.Context(), o.ID); err == nil && cached != nil {
			status, pay = cached.OrderStatus, cached.PaymentStatus
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orderNumber":   o.OrderNumber,
		"orderStatus":   status,
		"paymentStatus": pay,
		"items":         items,
		"placedAt":      o.CreatedAt,
	})
}
