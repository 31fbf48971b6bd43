package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one distinct product+variant entry in the cart.
// Its ID is stable across quantity changes; the same product with a
// different variant is a different line item.
type LineItem struct {
	ID                string          `json:"id"`
	ProductID         int64           `json:"product_id"`
	Quantity          int             `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
	Variant           string          `json:"variant,omitempty"`
	AddedAt           time.Time       `json:"added_at"`
}

// SameLine reports whether the item occupies the same cart line as
// the given product+variant pair.
func (li LineItem) SameLine(productID int64, variant string) bool {
	return li.ProductID == productID && li.Variant == variant
}
