package store

import (
	"context"
	"errors"
	"time"
)

// SavedItem is the persisted form of a line item. Prices are stored as
// strings; derived totals are never persisted.
type SavedItem struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Variant   string    `json:"variant,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// SavedCart is everything the cart persists between sessions: the item
// list and the coupon code. The snapshot is recomputed fresh on load.
type SavedCart struct {
	Items      []SavedItem `json:"items"`
	CouponCode string      `json:"coupon_code,omitempty"`
}

// Store persists carts per session, best-effort.
type Store interface {
	Save(ctx context.Context, sessionID string, cart *SavedCart) error
	Load(ctx context.Context, sessionID string) (*SavedCart, error)
	Delete(ctx context.Context, sessionID string) error
}

var (
	ErrNotFound = errors.New("no saved cart")

	// ErrCorrupted means the stored payload could not be parsed.
	// Callers recover by starting from an empty cart.
	ErrCorrupted = errors.New("saved cart corrupted")
)
