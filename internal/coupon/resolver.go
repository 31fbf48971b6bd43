package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/namamy/cart-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Resolver turns a coupon code into a discount rule or a typed
// rejection, validated against the subtotal at apply time.
type Resolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.CouponRule, error)
}

var (
	ErrNotFound       = errors.New("coupon not found")
	ErrExpired        = errors.New("coupon expired")
	ErrMinOrderNotMet = errors.New("minimum order value not met")
)

// validate applies the checks shared by every resolver backend.
func validate(rule *domain.CouponRule, subtotal decimal.Decimal, now time.Time) error {
	if rule.Expired(now) {
		return ErrExpired
	}
	if !rule.MeetsMinOrder(subtotal) {
		return ErrMinOrderNotMet
	}
	return nil
}
