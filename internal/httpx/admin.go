package httpx

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/soultouch-za/storefront/internal/catalog"
	"github.com/soultouch-za/storefront/internal/inventory"
	"github.com/soultouch-za/storefront/internal/lifecycle"
	"github.com/soultouch-za/storefront/internal/orders"
	"github.com/soultouch-za/storefront/internal/redisx"
)

const sessionCookie = "admin_session"

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if s.AdminPasswordHash == "" {
		writeError(w, http.StatusServiceUnavailable, "admin login is not configured")
		return
	}
	if req.Username != s.AdminUsername ||
		bcrypt.CompareHashAndPassword([]byte(s.AdminPasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	token := hex.EncodeToString(buf)

	key := fmt.Sprintf(redisx.KeyAdminSession, token)
	if err := s.RDB.Set(r.Context(), key, req.Username, redisx.TTLAdminSession).Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(redisx.TTLAdminSession.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]string{"username": req.Username})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		key := fmt.Sprintf(redisx.KeyAdminSession, c.Value)
		if err := s.RDB.Del(r.Context(), key).Err(); err != nil {
			log.Printf("session delete: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionCookie, Value: "", Path: "/", HttpOnly: true, MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireAdmin gates the admin surface on a valid session token in Redis.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ok, err := redisx.Exists(r.Context(), s.RDB, fmt.Sprintf(redisx.KeyAdminSession, c.Value))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.Orders.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (s *Server) handleAdminSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status orders.Status `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	o, err := s.Controller.SetOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, lifecycle.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Printf("set order status: %v", err)
		writeError(w, http.StatusInternalServerError, "could not update order")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"order": o})
	}
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Orders.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.Catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load products")
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": list})
}

func (s *Server) handleAdminUpsertProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" || p.Brand == "" || p.Price <= 0 {
		writeError(w, http.StatusBadRequest, "name, brand and a positive price are required")
		return
	}
	if err := s.Catalog.Upsert(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, "could not save product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAdminSetStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StockLevel *int64 `json:"stockLevel"`
	}
	if err := decodeJSON(r, &req); err != nil || req.StockLevel == nil {
		writeError(w, http.StatusBadRequest, "stockLevel is required")
		return
	}
	if *req.StockLevel < 0 {
		writeError(w, http.StatusBadRequest, "stockLevel must not be negative")
		return
	}
	err := s.Ledger.SetStockLevel(r.Context(), chi.URLParam(r, "id"), *req.StockLevel)
	if errors.Is(err, inventory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "inventory record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not update stock")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleAdminBulkSetStock applies a stock take: many records in one request.
// Failures are reported per record, the rest still apply.
func (s *Server) handleAdminBulkSetStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []struct {
			ID         string `json:"id"`
			StockLevel int64  `json:"stockLevel"`
		} `json:"updates"`
	}
	if err := decodeJSON(r, &req); err != nil || len(req.Updates) == 0 {
		writeError(w, http.StatusBadRequest, "updates is required")
		return
	}

	failed := map[string]string{}
	for _, u := range req.Updates {
		if u.StockLevel < 0 {
			failed[u.ID] = "stockLevel must not be negative"
			continue
		}
		if err := s.Ledger.SetStockLevel(r.Context(), u.ID, u.StockLevel); err != nil {
			failed[u.ID] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": len(req.Updates) - len(failed),
		"failed":  failed,
	})
}
