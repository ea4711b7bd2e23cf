package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dityaaz/go-shop-checkout/internal/cart"
	"github.com/dityaaz/go-shop-checkout/internal/catalog"
)

// CartHandler is thin controller-to-store glue: validate, snapshot the price
// from the catalog, write the line.
type CartHandler struct {
	Carts    *cart.Repo
	Catalog  *catalog.Repo
	Validate *validator.Validate
	Log      *zap.Logger
}

type cartLineReq struct {
	UserID    string `json:"user_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	SKUCode   string `json:"sku_code" validate:"required"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type cartLineDelReq struct {
	UserID    string `json:"user_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	SKUCode   string `json:"sku_code" validate:"required"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.upsertLine)
	r.Delete("/cart/items", h.removeLine)
	r.Get("/products", h.listProducts)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}
	c, err := h.Carts.Load(r.Context(), userID)
	if err != nil {
		h.Log.Error("cart load failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) upsertLine(w http.ResponseWriter, r *http.Request) {
	var req cartLineReq
	if !decode(w, r, h.Validate, &req) {
		return
	}

	// add-time validation against the live catalog; checkout revalidates
	p, sku, err := h.Catalog.GetProductAndSKU(r.Context(), req.ProductID, req.SKUCode)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product or sku not found"})
		return
	}
	if err != nil {
		h.Log.Error("catalog lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if !p.IsActive || !sku.IsActive {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "product is not available"})
		return
	}
	if sku.Stock < req.Qty {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "insufficient stock", "available": sku.Stock})
		return
	}

	line := cart.Line{ProductID: p.ID, SKUCode: sku.Code, Qty: req.Qty, PriceCents: sku.PriceCents}
	if err := h.Carts.UpsertLine(r.Context(), req.UserID, line); err != nil {
		h.Log.Error("cart upsert failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (h *CartHandler) removeLine(w http.ResponseWriter, r *http.Request) {
	var req cartLineDelReq
	if !decode(w, r, h.Validate, &req) {
		return
	}
	if err := h.Carts.RemoveLine(r.Context(), req.UserID, req.ProductID, req.SKUCode); err != nil {
		h.Log.Error("cart remove failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		h.Log.Error("list products failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
