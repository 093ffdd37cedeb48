package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/store"
)

// PricesHandler handles product price endpoints.
type PricesHandler struct {
	store PriceStore
	log   zerolog.Logger
}

// NewPricesHandler creates a new product prices handler.
func NewPricesHandler(store PriceStore, log zerolog.Logger) *PricesHandler {
	return &PricesHandler{store: store, log: log}
}

// List handles GET /api/product-prices. The latest price of each product is
// listed under its market.
func (h *PricesHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListPricesGrouped(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to list product prices")
		return
	}
	if groups == nil {
		groups = []domain.MarketPrices{}
	}
	middleware.WriteJSON(w, http.StatusOK, groups)
}

// Create handles POST /api/product-prices
func (h *PricesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductName string  `json:"product_name"`
		MarketName  string  `json:"market_name"`
		Price       float64 `json:"price"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	price, err := h.store.InsertPrice(r.Context(), req.ProductName, req.MarketName, req.Price)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to record product price")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"ok":    true,
		"price": price,
	})
}

// Update handles PATCH /api/product-prices/{id}
func (h *PricesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ProductName *string  `json:"product_name"`
		MarketName  *string  `json:"market_name"`
		Price       *float64 `json:"price"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.store.UpdatePrice(r.Context(), id, store.PriceUpdate{
		ProductName: req.ProductName,
		MarketName:  req.MarketName,
		Price:       req.Price,
	})
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to update product price")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, okResponse)
}

// Delete handles DELETE /api/product-prices/{id}
func (h *PricesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeletePrice(r.Context(), id); err != nil {
		writeStoreError(w, h.log, err, "Failed to delete product price")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
