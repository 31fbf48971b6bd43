package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/namamy/cart-service/internal/domain"
	"github.com/shopspring/decimal"
)

// MemoryResolver is an in-memory Resolver for development and tests.
type MemoryResolver struct {
	mu    sync.RWMutex
	rules map[string]domain.CouponRule
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		rules: make(map[string]domain.CouponRule),
	}
}

func (m *MemoryResolver) Resolve(_ context.Context, code string, subtotal decimal.Decimal) (*domain.CouponRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rule, ok := m.rules[code]
	if !ok {
		return nil, ErrNotFound
	}

	if err := validate(&rule, subtotal, time.Now()); err != nil {
		return nil, err
	}

	return &rule, nil
}

// SetRule inserts or replaces a coupon rule, keyed by its code.
func (m *MemoryResolver) SetRule(rule domain.CouponRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.Code] = rule
}
