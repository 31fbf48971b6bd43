package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/namamy/cart-service/internal/domain"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// Guard wraps a Catalog with a circuit breaker and request deduplication.
// Concurrent lookups for the same product share one upstream call, and a
// tripped breaker surfaces as ErrUnavailable so callers can switch to
// last-known prices instead of hammering a dead backend.
type Guard struct {
	inner   Catalog
	breaker *gobreaker.CircuitBreaker[*domain.Product]
	sfg     singleflight.Group
}

func NewGuard(inner Catalog) *Guard {
	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a missing product is a valid answer, not a backend failure
			return err == nil || errors.Is(err, ErrProductNotFound)
		},
	}

	return &Guard{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*domain.Product](settings),
	}
}

func (g *Guard) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := g.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return g.breaker.Execute(func() (*domain.Product, error) {
			return g.inner.GetProduct(ctx, id)
		})
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, ErrUnavailable
	}

	return v.(*domain.Product), nil
}
