package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/soultouch-za/storefront/internal/catalog"
	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/lifecycle"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/payments"
)

// WebhookVerifier authenticates a raw gateway callback body.
// Satisfied by payments.StripeGateway.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*payments.Event, error)
}

type Server struct {
	Controller *lifecycle.Controller
	Catalog    *catalog.Repo
	Orders     *orders.Repo
	Ledger     inventory.Ledger
	Cache      lifecycle.Cache
	Verifier   WebhookVerifier
	RDB        *redis.Client

	AdminUsername     string
	AdminPasswordHash string
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Get("/inventory/{productId}", s.handleProductInventory)
		r.Post("/inventory/check", s.handleCheckInventory)

		r.Post("/checkout/create-payment-intent", s.handleCheckout)
		r.Post("/webhooks/stripe", s.handleStripeWebhook)

		r.Get("/orders/track/{orderNumber}", s.handleTrackOrder)
		r.Get("/orders/{id}", s.handleGetOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)
			r.Post("/logout", s.handleAdminLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/orders", s.handleAdminListOrders)
				r.Patch("/orders/{id}/status", s.handleAdminSetOrderStatus)
				r.Get("/stats", s.handleAdminStats)
				r.Get("/products", s.handleAdminListProducts)
				r.Post("/products", s.handleAdminUpsertProduct)
				r.Patch("/inventory/{id}", s.handleAdminSetStock)
				r.Patch("/inventory", s.handleAdminBulkSetStock)
			})
		})
	})

	return r
}
