package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/namamy/cart-service/internal/cart"
	"github.com/namamy/cart-service/internal/catalog"
	"github.com/namamy/cart-service/internal/coupon"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, code, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Details: details,
	})
}

// respondBusinessError maps typed cart failures to HTTP statuses.
// Anything unrecognized is a 500.
func respondBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, cart.ErrLineItemNotFound):
		respondError(w, http.StatusNotFound, "line_item_not_found", err.Error())
	case errors.Is(err, cart.ErrVariantNotFound):
		respondError(w, http.StatusNotFound, "variant_not_found", err.Error())
	case errors.Is(err, cart.ErrCouponAlreadyApplied):
		respondError(w, http.StatusConflict, "coupon_already_applied", err.Error())
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, catalog.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", err.Error())
	case errors.Is(err, coupon.ErrNotFound):
		respondError(w, http.StatusNotFound, "coupon_not_found", err.Error())
	case errors.Is(err, coupon.ErrExpired):
		respondError(w, http.StatusUnprocessableEntity, "coupon_expired", err.Error())
	case errors.Is(err, coupon.ErrMinOrderNotMet):
		respondError(w, http.StatusUnprocessableEntity, "coupon_min_order_not_met", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
