package domain

import "github.com/shopspring/decimal"

// Product is a catalog record as returned by the catalog lookup.
// The cart stores product references by value and re-resolves price
// and stock at mutation time.
type Product struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Stock    int
	Variants []string
}
