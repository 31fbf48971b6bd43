package cart

import (
	"sync"

	"github.com/namamy/cart-service/internal/catalog"
	"github.com/namamy/cart-service/internal/coupon"
	"github.com/namamy/cart-service/internal/pricing"
	"github.com/namamy/cart-service/internal/store"
	"go.uber.org/zap"
)

// Manager hands out one Container per session, creating it lazily.
// The container restores itself from storage on first use.
type Manager struct {
	mu    sync.Mutex
	carts map[string]*Container

	catalog catalog.Catalog
	coupons coupon.Resolver
	store   store.Store
	rates   pricing.Config
	logger  *zap.Logger
}

func NewManager(cat catalog.Catalog, res coupon.Resolver, st store.Store, rates pricing.Config, logger *zap.Logger) *Manager {
	return &Manager{
		carts:   make(map[string]*Container),
		catalog: cat,
		coupons: res,
		store:   st,
		rates:   rates,
		logger:  logger,
	}
}

// Get returns the session's container, creating it on first use.
func (m *Manager) Get(sessionID string) *Container {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[sessionID]
	if !ok {
		c = New(sessionID, m.catalog, m.coupons, m.store, m.rates, m.logger)
		m.carts[sessionID] = c
	}
	return c
}
