package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/namamy/cart-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResolver_Resolve(t *testing.T) {
	r := NewMemoryResolver()
	r.SetRule(domain.CouponRule{
		Code:          "SAVE10",
		Type:          domain.DiscountPercentage,
		Value:         decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(200),
	})

	rule, err := r.Resolve(context.Background(), "SAVE10", decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", rule.Code)
	assert.Equal(t, domain.DiscountPercentage, rule.Type)
}

func TestMemoryResolver_NotFound(t *testing.T) {
	r := NewMemoryResolver()

	_, err := r.Resolve(context.Background(), "NOPE", decimal.NewFromInt(300))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryResolver_Expired(t *testing.T) {
	r := NewMemoryResolver()
	r.SetRule(domain.CouponRule{
		Code:      "OLD",
		Type:      domain.DiscountPercentage,
		Value:     decimal.NewFromInt(10),
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	_, err := r.Resolve(context.Background(), "OLD", decimal.NewFromInt(300))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestMemoryResolver_MinOrderNotMet(t *testing.T) {
	r := NewMemoryResolver()
	r.SetRule(domain.CouponRule{
		Code:          "SAVE10",
		Type:          domain.DiscountPercentage,
		Value:         decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(200),
	})

	_, err := r.Resolve(context.Background(), "SAVE10", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrMinOrderNotMet)
}

func TestMemoryResolver_ResolveReturnsCopy(t *testing.T) {
	r := NewMemoryResolver()
	r.SetRule(domain.CouponRule{
		Code:  "SAVE10",
		Type:  domain.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	})

	rule, err := r.Resolve(context.Background(), "SAVE10", decimal.NewFromInt(300))
	require.NoError(t, err)
	rule.Value = decimal.NewFromInt(99)

	again, err := r.Resolve(context.Background(), "SAVE10", decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.True(t, again.Value.Equal(decimal.NewFromInt(10)))
}
