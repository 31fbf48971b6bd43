package catalog

import (
	"context"
	"sync"

	"github.com/namamy/cart-service/internal/domain"
)

// MemoryCatalog is an in-memory Catalog for development and tests.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		products: make(map[int64]domain.Product),
	}
}

func (m *MemoryCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

// SetProduct inserts or replaces a product record.
func (m *MemoryCatalog) SetProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// SetStock adjusts the stock level of an existing product.
func (m *MemoryCatalog) SetStock(id int64, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return
	}
	p.Stock = stock
	m.products[id] = p
}
