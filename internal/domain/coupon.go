package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "free_shipping"
)

// CouponRule is the resolved discount rule for a coupon code.
// Value is a percentage in [0,100] for percentage coupons and a
// currency amount for fixed coupons; it is ignored for free-shipping
// coupons. Zero MaxDiscount means no cap, zero ExpiresAt means the
// coupon never expires.
type CouponRule struct {
	Code          string
	Type          DiscountType
	Value         decimal.Decimal
	MaxDiscount   decimal.Decimal
	MinOrderValue decimal.Decimal
	ExpiresAt     time.Time
}

// Expired reports whether the rule is past its expiry at the given time.
func (r CouponRule) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// MeetsMinOrder reports whether the subtotal satisfies the rule's
// minimum order value.
func (r CouponRule) MeetsMinOrder(subtotal decimal.Decimal) bool {
	return r.MinOrderValue.IsZero() || subtotal.GreaterThanOrEqual(r.MinOrderValue)
}
