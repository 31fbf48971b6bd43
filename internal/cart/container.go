package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/namamy/cart-service/internal/catalog"
	"github.com/namamy/cart-service/internal/coupon"
	"github.com/namamy/cart-service/internal/domain"
	"github.com/namamy/cart-service/internal/pricing"
	"github.com/namamy/cart-service/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be greater than 0")
	ErrOutOfStock           = errors.New("requested quantity exceeds available stock")
	ErrLineItemNotFound     = errors.New("line item not found in cart")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrCouponAlreadyApplied = errors.New("coupon already applied")
)

// Warning is a non-fatal signal attached to a successful mutation.
type Warning string

const (
	// WarnQuantityClamped means the requested quantity exceeded live
	// stock and was reduced to the maximum available.
	WarnQuantityClamped Warning = "quantity_clamped"

	// WarnCouponDropped means the applied coupon's minimum order value
	// is no longer met and the coupon was removed.
	WarnCouponDropped Warning = "coupon_dropped"

	// WarnStalePrices means the catalog was unreachable and totals were
	// computed from last-known prices.
	WarnStalePrices Warning = "stale_prices"
)

// Result is what every mutation returns: the freshly derived snapshot
// plus any warnings the presentation layer should surface.
type Result struct {
	Snapshot domain.CartSnapshot `json:"snapshot"`
	Warnings []Warning           `json:"warnings,omitempty"`
}

// Container is the single source of truth for one session's cart.
// All mutations go through it and are fully serialized: the lock is
// held across the catalog/coupon call and the recompute, so a second
// in-flight mutation can never observe or produce interleaved state.
type Container struct {
	mu       sync.Mutex
	restored bool

	sessionID string
	items     []domain.LineItem
	coupon    *domain.CouponRule
	snapshot  domain.CartSnapshot

	catalog catalog.Catalog
	coupons coupon.Resolver
	store   store.Store
	rates   pricing.Config
	logger  *zap.Logger
}

func New(sessionID string, cat catalog.Catalog, res coupon.Resolver, st store.Store, rates pricing.Config, logger *zap.Logger) *Container {
	c := &Container{
		sessionID: sessionID,
		catalog:   cat,
		coupons:   res,
		store:     st,
		rates:     rates,
		logger:    logger,
	}
	c.snapshot = pricing.Compute(rates, pricing.Input{}).Snapshot
	return c
}

// AddItem adds quantity units of the product+variant to the cart. If a
// line item already exists for the pair its quantity is incremented.
// Quantities exceeding live stock are clamped with WarnQuantityClamped;
// if nothing at all can be added the call fails with ErrOutOfStock.
func (c *Container) AddItem(ctx context.Context, productID int64, quantity int, variant string) (*Result, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureRestored(ctx)

	var warns []Warning

	product, err := c.catalog.GetProduct(ctx, productID)
	switch {
	case err == nil:
		// validated below
	case errors.Is(err, catalog.ErrProductNotFound):
		return nil, err
	default:
		// Catalog unreachable. An existing line can still be incremented
		// against its snapshot price; a brand-new line has no price to
		// fall back to.
		idx := c.findLine(productID, variant)
		if idx < 0 {
			return nil, catalog.ErrUnavailable
		}
		c.items[idx].Quantity += quantity
		warns = append(warns, WarnStalePrices)
		res := c.recomputeLocked(ctx, warns)
		c.persistLocked(ctx)
		return res, nil
	}

	if variant != "" && len(product.Variants) > 0 && !containsVariant(product.Variants, variant) {
		return nil, ErrVariantNotFound
	}

	idx := c.findLine(productID, variant)
	if idx >= 0 {
		current := c.items[idx].Quantity
		if product.Stock <= current {
			return nil, ErrOutOfStock
		}
		want := current + quantity
		if want > product.Stock {
			want = product.Stock
			warns = append(warns, WarnQuantityClamped)
		}
		c.items[idx].Quantity = want
	} else {
		if product.Stock < 1 {
			return nil, ErrOutOfStock
		}
		want := quantity
		if want > product.Stock {
			want = product.Stock
			warns = append(warns, WarnQuantityClamped)
		}
		c.items = append(c.items, domain.LineItem{
			ID:                uuid.New().String(),
			ProductID:         productID,
			Quantity:          want,
			UnitPriceSnapshot: product.Price,
			Variant:           variant,
			AddedAt:           time.Now(),
		})
	}

	res := c.recomputeLocked(ctx, warns)
	c.persistLocked(ctx)
	return res, nil
}

// UpdateQuantity sets the line item's quantity, reclamped to live stock.
// A quantity of zero or less removes the line item.
func (c *Container) UpdateQuantity(ctx context.Context, lineItemID string, quantity int) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureRestored(ctx)

	idx := c.findByID(lineItemID)
	if idx < 0 {
		return nil, ErrLineItemNotFound
	}

	if quantity <= 0 {
		c.removeAt(idx)
		res := c.recomputeLocked(ctx, nil)
		c.persistLocked(ctx)
		return res, nil
	}

	var warns []Warning

	product, err := c.catalog.GetProduct(ctx, c.items[idx].ProductID)
	switch {
	case err == nil:
		if product.Stock < 1 {
			return nil, ErrOutOfStock
		}
		if quantity > product.Stock {
			quantity = product.Stock
			warns = append(warns, WarnQuantityClamped)
		}
	default:
		// No live stock to reclamp against; keep the request as-is.
		warns = append(warns, WarnStalePrices)
	}

	c.items[idx].Quantity = quantity
	res := c.recomputeLocked(ctx, warns)
	c.persistLocked(ctx)
	return res, nil
}

// RemoveItem removes the line item from the cart.
func (c *Container) RemoveItem(ctx context.Context, lineItemID string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureRestored(ctx)

	idx := c.findByID(lineItemID)
	if idx < 0 {
		return nil, ErrLineItemNotFound
	}

	c.removeAt(idx)
	res := c.recomputeLocked(ctx, nil)
	c.persistLocked(ctx)
	return res, nil
}

// ApplyCoupon resolves the code against the current subtotal and stores
// the rule. Only one coupon is active at a time; applying a different
// code replaces the previous one. On failure the cart is unchanged.
func (c *Container) ApplyCoupon(ctx context.Context, code string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureRestored(ctx)

	if c.coupon != nil && c.coupon.Code == code {
		return nil, ErrCouponAlreadyApplied
	}

	rule, err := c.coupons.Resolve(ctx, code, c.snapshot.Subtotal)
	if err != nil {
		return nil, err
	}

	c.coupon = rule
	res := c.recomputeLocked(ctx, nil)
	c.persistLocked(ctx)
	return res, nil
}

// RemoveCoupon clears the applied coupon, if any.
func (c *Container) RemoveCoupon(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureRestored(ctx)

	c.coupon = nil
	res := c.recomputeLocked(ctx, nil)
	c.persistLocked(ctx)
	return res, nil
}

// Clear empties the cart and its coupon and drops the saved copy.
// Called after order confirmation.
func (c *Container) Clear(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restored = true // nothing saved is worth restoring over a clear

	c.items = nil
	c.coupon = nil
	res := c.recomputeLocked(ctx, nil)

	if err := c.store.Delete(ctx, c.sessionID); err != nil {
		c.logger.Warn("failed to delete saved cart", zap.String("session_id", c.sessionID), zap.Error(err))
	}
	return res, nil
}

// Snapshot returns the current derived view without mutating anything.
func (c *Container) Snapshot(ctx context.Context) domain.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureRestored(ctx)
	return c.snapshot
}

// recomputeLocked rederives the snapshot from current items and coupon.
// Live prices are fetched per item; lookups that fail fall back to the
// item's snapshot price. Must be called with the lock held.
func (c *Container) recomputeLocked(ctx context.Context, warns []Warning) *Result {
	livePrices := make(map[string]decimal.Decimal, len(c.items))
	stale := false
	for _, item := range c.items {
		product, err := c.catalog.GetProduct(ctx, item.ProductID)
		switch {
		case err == nil:
			livePrices[item.ID] = product.Price
		case errors.Is(err, catalog.ErrProductNotFound):
			// product vanished from the catalog; keep the snapshot price
		default:
			stale = true
		}
	}
	if stale {
		warns = addWarning(warns, WarnStalePrices)
	}

	items := append([]domain.LineItem(nil), c.items...)
	out := pricing.Compute(c.rates, pricing.Input{
		Items:      items,
		LivePrices: livePrices,
		Coupon:     c.coupon,
	})

	if out.CouponDropped {
		c.logger.Info("coupon invalidated: minimum order value no longer met",
			zap.String("session_id", c.sessionID), zap.String("code", c.coupon.Code))
		c.coupon = nil
		warns = addWarning(warns, WarnCouponDropped)
	}

	c.snapshot = out.Snapshot
	return &Result{Snapshot: out.Snapshot, Warnings: warns}
}

// persistLocked saves items and coupon code, best-effort. Derived
// fields are never written; the snapshot is recomputed on load.
func (c *Container) persistLocked(ctx context.Context) {
	saved := &store.SavedCart{
		Items: make([]store.SavedItem, len(c.items)),
	}
	for i, item := range c.items {
		saved.Items[i] = store.SavedItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPriceSnapshot.String(),
			Variant:   item.Variant,
			AddedAt:   item.AddedAt,
		}
	}
	if c.coupon != nil {
		saved.CouponCode = c.coupon.Code
	}

	if err := c.store.Save(ctx, c.sessionID, saved); err != nil {
		c.logger.Warn("failed to persist cart", zap.String("session_id", c.sessionID), zap.Error(err))
	}
}

// ensureRestored rehydrates the cart from storage on first use.
// Corrupted or unreadable payloads reset to an empty cart; a saved
// coupon code is re-resolved and dropped silently if no longer valid.
func (c *Container) ensureRestored(ctx context.Context) {
	if c.restored {
		return
	}
	c.restored = true

	saved, err := c.store.Load(ctx, c.sessionID)
	switch {
	case err == nil:
		// rebuilt below
	case errors.Is(err, store.ErrNotFound):
		return
	case errors.Is(err, store.ErrCorrupted):
		c.logger.Warn("discarding corrupted saved cart", zap.String("session_id", c.sessionID))
		if delErr := c.store.Delete(ctx, c.sessionID); delErr != nil {
			c.logger.Warn("failed to delete corrupted cart", zap.Error(delErr))
		}
		return
	default:
		c.logger.Warn("failed to load saved cart", zap.String("session_id", c.sessionID), zap.Error(err))
		return
	}

	for _, si := range saved.Items {
		price, perr := decimal.NewFromString(si.UnitPrice)
		if si.ID == "" || si.Quantity < 1 || perr != nil {
			c.logger.Warn("skipping invalid saved line item", zap.String("session_id", c.sessionID))
			continue
		}
		c.items = append(c.items, domain.LineItem{
			ID:                si.ID,
			ProductID:         si.ProductID,
			Quantity:          si.Quantity,
			UnitPriceSnapshot: price,
			Variant:           si.Variant,
			AddedAt:           si.AddedAt,
		})
	}

	c.recomputeLocked(ctx, nil)

	if saved.CouponCode != "" {
		rule, rerr := c.coupons.Resolve(ctx, saved.CouponCode, c.snapshot.Subtotal)
		if rerr != nil {
			c.logger.Info("dropping saved coupon", zap.String("code", saved.CouponCode), zap.Error(rerr))
		} else {
			c.coupon = rule
			c.recomputeLocked(ctx, nil)
		}
	}
}

func (c *Container) findLine(productID int64, variant string) int {
	for i, item := range c.items {
		if item.SameLine(productID, variant) {
			return i
		}
	}
	return -1
}

func (c *Container) findByID(lineItemID string) int {
	for i, item := range c.items {
		if item.ID == lineItemID {
			return i
		}
	}
	return -1
}

func (c *Container) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

func addWarning(warns []Warning, w Warning) []Warning {
	for _, existing := range warns {
		if existing == w {
			return warns
		}
	}
	return append(warns, w)
}

func containsVariant(variants []string, variant string) bool {
	for _, v := range variants {
		if v == variant {
			return true
		}
	}
	return false
}
