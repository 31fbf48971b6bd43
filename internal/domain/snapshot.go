package domain

import "github.com/shopspring/decimal"

// AppliedCoupon is the coupon portion of a snapshot: the code plus the
// discount it resolved to against the current subtotal.
type AppliedCoupon struct {
	Code         string          `json:"code"`
	Discount     decimal.Decimal `json:"discount"`
	FreeShipping bool            `json:"free_shipping,omitempty"`
}

// CartSnapshot is the fully derived, read-only view of the cart.
// It is a pure function of {items, applied coupon, configured rates}
// and is recomputed after every mutation, never mutated in place and
// never trusted from storage.
type CartSnapshot struct {
	Items          []LineItem      `json:"items"`
	TotalItemCount int             `json:"total_item_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	AppliedCoupon  *AppliedCoupon  `json:"applied_coupon,omitempty"`
	Total          decimal.Decimal `json:"total"`
}
