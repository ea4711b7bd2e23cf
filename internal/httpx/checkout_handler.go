package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dityaaz/go-shop-checkout/internal/checkout"
	"github.com/dityaaz/go-shop-checkout/internal/orders"
	"github.com/dityaaz/go-shop-checkout/internal/redisx"
	"github.com/dityaaz/go-shop-checkout/internal/shipping"
)

type CheckoutHandler struct {
	Service  *checkout.Service
	Redis    *redis.Client
	Validate *validator.Validate
	Log      *zap.Logger
}

type addressReq struct {
	Recipient  string `json:"recipient" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

type checkoutReq struct {
	UserID         string     `json:"user_id" validate:"required"`
	Address        addressReq `json:"address" validate:"required"`
	ShippingMethod string     `json:"shipping_method" validate:"required,oneof=regular express same_day"`
	PaymentMethod  string     `json:"payment_method" validate:"required"`
	Notes          string     `json:"notes"`
}

type cancelReq struct {
	UserID string `json:"user_id" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type adminStatusReq struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number"`
}

type adminPaymentReq struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
	PaymentRef    string `json:"payment_ref"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.doCheckout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Patch("/admin/orders/{id}/status", h.adminStatus)
	r.Patch("/admin/orders/{id}/payment", h.adminPayment)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

// writeError maps the checkout error taxonomy onto HTTP statuses.
func (h *CheckoutHandler) writeError(w http.ResponseWriter, err error) {
	var (
		empty       *checkout.EmptyCartError
		unavailable *checkout.ProductUnavailableError
		stock       *checkout.InsufficientStockError
		state       *checkout.InvalidOrderStateError
		persist     *checkout.PersistenceError
	)
	switch {
	case errors.As(err, &empty):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "sku": unavailable.SKUCode})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": err.Error(), "sku": stock.SKUCode, "available": stock.Available,
		})
	case errors.As(err, &state):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, checkout.ErrTrackingRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &persist):
		h.Log.Error("store failure", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}

func (h *CheckoutHandler) doCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if !decode(w, r, h.Validate, &req) {
		return
	}

	o, err := h.Service.Checkout(r.Context(), checkout.CheckoutInput{
		UserID: req.UserID,
		Address: orders.Address{
			Recipient: req.Address.Recipient, Phone: req.Address.Phone,
			Street: req.Address.Street, City: req.Address.City,
			Province: req.Address.Province, PostalCode: req.Address.PostalCode,
		},
		ShippingMethod: shipping.Method(req.ShippingMethod),
		PaymentMethod:  req.PaymentMethod,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheOrder(r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")
	if orderID == "" || userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id or user_id"})
		return
	}

	// coba cache dulu
	key := fmt.Sprintf(redisx.KeyOrderCache, orderID)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
		var cached orders.Order
		if json.Unmarshal([]byte(s), &cached) == nil && cached.UserID == userID {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	o, err := h.Service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheOrder(r, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *CheckoutHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}
	out, err := h.Service.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CheckoutHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req cancelReq
	if !decode(w, r, h.Validate, &req) {
		return
	}
	o, err := h.Service.CancelOrder(r.Context(), req.UserID, orderID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *CheckoutHandler) adminStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req adminStatusReq
	if !decode(w, r, h.Validate, &req) {
		return
	}
	o, err := h.Service.AdminUpdateStatus(r.Context(), orderID, orders.Status(req.Status), req.TrackingNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *CheckoutHandler) adminPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req adminPaymentReq
	if !decode(w, r, h.Validate, &req) {
		return
	}
	o, err := h.Service.AdminUpdatePaymentStatus(r.Context(), orderID, orders.PaymentStatus(req.PaymentStatus), req.PaymentRef)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *CheckoutHandler) cacheOrder(r *http.Request, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderCache, o.ID)
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	_ = h.Redis.Set(r.Context(), key, b, redisx.TTLOrderCache).Err()
}
