package catalog

import (
	"context"
	"errors"

	"github.com/namamy/cart-service/internal/domain"
)

// Catalog defines the product lookup contract the cart depends on.
// Consumers define this interface, not the MongoDB implementation.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

var (
	ErrProductNotFound = errors.New("product not found")

	// ErrUnavailable means the lookup could not be completed at all;
	// callers fall back to last-known prices (degraded mode).
	ErrUnavailable = errors.New("catalog unavailable")
)
