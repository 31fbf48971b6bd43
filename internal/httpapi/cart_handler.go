package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/namamy/cart-service/internal/cart"
	"go.uber.org/zap"
)

type CartHandler struct {
	manager *cart.Manager
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(manager *cart.Manager, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ApplyCouponRequestDTO struct {
	Code string `json:"code"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	container := h.manager.Get(getSessionID(ctx))
	respondJSON(w, http.StatusOK, container.Snapshot(ctx))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	container := h.manager.Get(getSessionID(ctx))
	res, err := container.AddItem(ctx, req.ProductID, req.Quantity, req.Variant)
	if err != nil {
		respondBusinessError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineItemID := chi.URLParam(r, "id")
	if lineItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_item_id", "line item id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	container := h.manager.Get(getSessionID(ctx))
	res, err := container.UpdateQuantity(ctx, lineItemID, req.Quantity)
	if err != nil {
		respondBusinessError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineItemID := chi.URLParam(r, "id")
	if lineItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_item_id", "line item id is required")
		return
	}

	container := h.manager.Get(getSessionID(ctx))
	res, err := container.RemoveItem(ctx, lineItemID)
	if err != nil {
		respondBusinessError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ApplyCouponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_code", "coupon code is required")
		return
	}

	container := h.manager.Get(getSessionID(ctx))
	res, err := container.ApplyCoupon(ctx, req.Code)
	if err != nil {
		respondBusinessError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	container := h.manager.Get(getSessionID(ctx))
	res, err := container.RemoveCoupon(ctx)
	if err != nil {
		respondBusinessError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	container := h.manager.Get(getSessionID(ctx))
	res, err := container.Clear(ctx)
	if err != nil {
		respondBusinessError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}
