package pricing

import (
	"github.com/namamy/cart-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Config holds the rates every derived-totals computation uses.
type Config struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
}

// Input is everything a totals computation depends on. LivePrices maps
// line-item ID to the current catalog price; items without an entry are
// priced from their snapshot (degraded mode).
type Input struct {
	Items      []domain.LineItem
	LivePrices map[string]decimal.Decimal
	Coupon     *domain.CouponRule
}

// Result carries the derived snapshot plus whether the coupon was
// dropped because the subtotal fell below its minimum order value.
type Result struct {
	Snapshot      domain.CartSnapshot
	CouponDropped bool
}

// Compute derives the full cart snapshot. The step order is load-bearing:
// subtotal, then coupon re-validation, then discount, then shipping and
// tax on the post-discount amount. Callers must not reorder or reimplement
// pieces of this.
func Compute(cfg Config, in Input) Result {
	snap := domain.CartSnapshot{
		Items:        in.Items,
		Subtotal:     decimal.Zero,
		Discount:     decimal.Zero,
		ShippingCost: decimal.Zero,
		TaxAmount:    decimal.Zero,
		Total:        decimal.Zero,
	}

	for _, item := range in.Items {
		price := item.UnitPriceSnapshot
		if live, ok := in.LivePrices[item.ID]; ok {
			price = live
		}
		snap.TotalItemCount += item.Quantity
		snap.Subtotal = snap.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	coupon := in.Coupon
	dropped := false
	if coupon != nil && !coupon.MeetsMinOrder(snap.Subtotal) {
		coupon = nil
		dropped = true
	}

	freeShipping := false
	if coupon != nil {
		snap.Discount = discountFor(*coupon, snap.Subtotal)
		freeShipping = coupon.Type == domain.DiscountFreeShipping
		snap.AppliedCoupon = &domain.AppliedCoupon{
			Code:         coupon.Code,
			Discount:     snap.Discount,
			FreeShipping: freeShipping,
		}
	}

	discounted := snap.Subtotal.Sub(snap.Discount)

	switch {
	case freeShipping:
		// coupon grants free shipping regardless of threshold
	case len(in.Items) == 0:
		// empty cart ships nothing
	case discounted.GreaterThanOrEqual(cfg.FreeShippingThreshold):
		// above threshold
	default:
		snap.ShippingCost = cfg.FlatShippingRate
	}

	snap.TaxAmount = cfg.TaxRate.Mul(discounted)

	total := discounted.Add(snap.ShippingCost).Add(snap.TaxAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	snap.Total = total

	return Result{Snapshot: snap, CouponDropped: dropped}
}

// discountFor applies the rule to the subtotal, capped at the subtotal
// and at the rule's MaxDiscount when one is set.
func discountFor(rule domain.CouponRule, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch rule.Type {
	case domain.DiscountPercentage:
		d = subtotal.Mul(rule.Value).Div(decimal.NewFromInt(100))
	case domain.DiscountFixed:
		d = rule.Value
	default:
		return decimal.Zero
	}

	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if !rule.MaxDiscount.IsZero() && d.GreaterThan(rule.MaxDiscount) {
		d = rule.MaxDiscount
	}
	return d
}
