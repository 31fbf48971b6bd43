package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]SavedCart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]SavedCart),
	}
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, cart *SavedCart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = *cart
	return nil
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*SavedCart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cart, nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}
