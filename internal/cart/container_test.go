package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/namamy/cart-service/internal/catalog"
	"github.com/namamy/cart-service/internal/coupon"
	"github.com/namamy/cart-service/internal/domain"
	"github.com/namamy/cart-service/internal/pricing"
	"github.com/namamy/cart-service/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalog struct {
	m        sync.RWMutex
	products map[int64]domain.Product
	err      error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{products: make(map[int64]domain.Product)}
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockCatalog) set(p domain.Product) {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[p.ID] = p
}

func (m *mockCatalog) fail(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.err = err
}

type corruptStore struct{}

func (corruptStore) Save(context.Context, string, *store.SavedCart) error { return nil }
func (corruptStore) Load(context.Context, string) (*store.SavedCart, error) {
	return nil, store.ErrCorrupted
}
func (corruptStore) Delete(context.Context, string) error { return nil }

func testRates() pricing.Config {
	return pricing.Config{
		TaxRate:               decimal.NewFromFloat(0.05),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingRate:      decimal.NewFromInt(50),
	}
}

type fixture struct {
	catalog *mockCatalog
	coupons *coupon.MemoryResolver
	store   store.Store
}

func newFixture() *fixture {
	return &fixture{
		catalog: newMockCatalog(),
		coupons: coupon.NewMemoryResolver(),
		store:   store.NewMemoryStore(),
	}
}

func (f *fixture) container(sessionID string) *Container {
	return New(sessionID, f.catalog, f.coupons, f.store, testRates(), zap.NewNop())
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	want, err := decimal.NewFromString(expected)
	require.NoError(t, err)
	assert.True(t, want.Equal(actual), "expected %s, got %s", expected, actual)
}

func TestAddItem_NewAndIncrement(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Name: "Masala Makhana", Price: decimal.NewFromInt(100), Stock: 10})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 2, "")
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Items, 1)
	assert.Equal(t, 2, res.Snapshot.TotalItemCount)

	res, err = c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Items, 1, "same product+variant increments the existing line")
	assert.Equal(t, 5, res.Snapshot.TotalItemCount)
	assertDecimal(t, "500", res.Snapshot.Subtotal)
	assert.Empty(t, res.Warnings)
}

func TestAddItem_VariantsAreSeparateLines(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{
		ID: 1, Price: decimal.NewFromInt(100), Stock: 10,
		Variants: []string{"100g", "250g"},
	})
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 1, "100g")
	require.NoError(t, err)
	res, err := c.AddItem(context.Background(), 1, 1, "250g")
	require.NoError(t, err)

	assert.Len(t, res.Snapshot.Items, 2)
	assert.NotEqual(t, res.Snapshot.Items[0].ID, res.Snapshot.Items[1].ID)
}

func TestAddItem_UnknownVariantRejected(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{
		ID: 1, Price: decimal.NewFromInt(100), Stock: 10,
		Variants: []string{"100g"},
	})
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 1, "5kg")
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestAddItem_ClampsToStockWithWarning(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 5})
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)

	res, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Snapshot.TotalItemCount)
	assertDecimal(t, "500", res.Snapshot.Subtotal)
	assert.Contains(t, res.Warnings, WarnQuantityClamped)
}

func TestAddItem_OutOfStock(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 2})
	f.catalog.set(domain.Product{ID: 2, Price: decimal.NewFromInt(100), Stock: 0})
	c := f.container("s1")

	// nothing available at all
	_, err := c.AddItem(context.Background(), 2, 1, "")
	assert.ErrorIs(t, err, ErrOutOfStock)

	// already holding the full stock
	_, err = c.AddItem(context.Background(), 1, 2, "")
	require.NoError(t, err)
	_, err = c.AddItem(context.Background(), 1, 1, "")
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	f := newFixture()
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 42, 1, "")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	f := newFixture()
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 0, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdateQuantity_ZeroEqualsRemove(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.catalog.set(domain.Product{ID: 2, Price: decimal.NewFromInt(40), Stock: 10})

	viaUpdate := f.container("s-update")
	viaRemove := f.container("s-remove")

	for _, c := range []*Container{viaUpdate, viaRemove} {
		_, err := c.AddItem(context.Background(), 1, 2, "")
		require.NoError(t, err)
		_, err = c.AddItem(context.Background(), 2, 1, "")
		require.NoError(t, err)
	}

	idUpdate := viaUpdate.Snapshot(context.Background()).Items[0].ID
	idRemove := viaRemove.Snapshot(context.Background()).Items[0].ID

	resUpdate, err := viaUpdate.UpdateQuantity(context.Background(), idUpdate, 0)
	require.NoError(t, err)
	resRemove, err := viaRemove.RemoveItem(context.Background(), idRemove)
	require.NoError(t, err)

	assert.Equal(t, resRemove.Snapshot.TotalItemCount, resUpdate.Snapshot.TotalItemCount)
	assert.True(t, resRemove.Snapshot.Subtotal.Equal(resUpdate.Snapshot.Subtotal))
	assert.True(t, resRemove.Snapshot.Total.Equal(resUpdate.Snapshot.Total))
	assert.Len(t, resUpdate.Snapshot.Items, 1)
}

func TestUpdateQuantity_ReclampsToLiveStock(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 2, "")
	require.NoError(t, err)
	lineID := res.Snapshot.Items[0].ID

	// stock dropped since the item was added
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 4})

	res, err = c.UpdateQuantity(context.Background(), lineID, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Snapshot.TotalItemCount)
	assert.Contains(t, res.Warnings, WarnQuantityClamped)
}

func TestUpdateQuantity_UnknownLineItem(t *testing.T) {
	f := newFixture()
	c := f.container("s1")

	_, err := c.UpdateQuantity(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, ErrLineItemNotFound)
}

func TestRemoveItem_UnknownLineItem(t *testing.T) {
	f := newFixture()
	c := f.container("s1")

	_, err := c.RemoveItem(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrLineItemNotFound)
}

func TestCouponScenario(t *testing.T) {
	// spec walkthrough: clamp at stock, apply percentage coupon with a
	// minimum order, shrink the cart, coupon survives while above the
	// minimum
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 5})
	f.coupons.SetRule(domain.CouponRule{
		Code:          "SAVE10",
		Type:          domain.DiscountPercentage,
		Value:         decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(200),
	})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	assertDecimal(t, "300", res.Snapshot.Subtotal)

	res, err = c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	assertDecimal(t, "500", res.Snapshot.Subtotal)
	assert.Contains(t, res.Warnings, WarnQuantityClamped)

	res, err = c.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)
	assertDecimal(t, "50", res.Snapshot.Discount)
	// 450 is below the 500 free-shipping threshold
	assertDecimal(t, "50", res.Snapshot.ShippingCost)

	lineID := res.Snapshot.Items[0].ID
	res, err = c.UpdateQuantity(context.Background(), lineID, 3)
	require.NoError(t, err)
	assertDecimal(t, "300", res.Snapshot.Subtotal)
	assertDecimal(t, "30", res.Snapshot.Discount)
	require.NotNil(t, res.Snapshot.AppliedCoupon, "coupon stays while min order is met")
	// 270 discounted + 50 shipping + 13.5 tax
	assertDecimal(t, "333.5", res.Snapshot.Total)
}

func TestApplyCoupon_RoundTripRestoresTotals(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code:  "SAVE10",
		Type:  domain.DiscountPercentage,
		Value: decimal.NewFromInt(10),
	})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	before := res.Snapshot

	_, err = c.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)
	res, err = c.RemoveCoupon(context.Background())
	require.NoError(t, err)

	assert.True(t, before.Subtotal.Equal(res.Snapshot.Subtotal))
	assert.True(t, before.ShippingCost.Equal(res.Snapshot.ShippingCost))
	assert.True(t, before.TaxAmount.Equal(res.Snapshot.TaxAmount))
	assert.True(t, before.Total.Equal(res.Snapshot.Total))
	assert.Nil(t, res.Snapshot.AppliedCoupon)
}

func TestApplyCoupon_ReplacesPrevious(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code: "SAVE10", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10),
	})
	f.coupons.SetRule(domain.CouponRule{
		Code: "SAVE20", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(20),
	})
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	_, err = c.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	res, err := c.ApplyCoupon(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot.AppliedCoupon)
	assert.Equal(t, "SAVE20", res.Snapshot.AppliedCoupon.Code)
	assertDecimal(t, "60", res.Snapshot.Discount)
}

func TestApplyCoupon_AlreadyApplied(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code: "SAVE10", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10),
	})
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	_, err = c.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	_, err = c.ApplyCoupon(context.Background(), "SAVE10")
	assert.ErrorIs(t, err, ErrCouponAlreadyApplied)
}

func TestApplyCoupon_FailureLeavesCartUnchanged(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	before := res.Snapshot

	_, err = c.ApplyCoupon(context.Background(), "NOPE")
	assert.ErrorIs(t, err, coupon.ErrNotFound)

	after := c.Snapshot(context.Background())
	assert.True(t, before.Total.Equal(after.Total))
	assert.Nil(t, after.AppliedCoupon)
}

func TestCoupon_AutoInvalidatedBelowMinOrder(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code:          "SAVE10",
		Type:          domain.DiscountPercentage,
		Value:         decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(250),
	})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	lineID := res.Snapshot.Items[0].ID

	_, err = c.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	res, err = c.UpdateQuantity(context.Background(), lineID, 2)
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnCouponDropped)
	assert.Nil(t, res.Snapshot.AppliedCoupon)
	assertDecimal(t, "0", res.Snapshot.Discount)
}

func TestDegradedMode_UsesSnapshotPrices(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	c := f.container("s1")

	res, err := c.AddItem(context.Background(), 1, 2, "")
	require.NoError(t, err)
	lineID := res.Snapshot.Items[0].ID

	f.catalog.fail(catalog.ErrUnavailable)

	res, err = c.UpdateQuantity(context.Background(), lineID, 3)
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, WarnStalePrices)
	assertDecimal(t, "300", res.Snapshot.Subtotal)
}

func TestDegradedMode_NewItemRejected(t *testing.T) {
	f := newFixture()
	f.catalog.fail(catalog.ErrUnavailable)
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 1, "")
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
}

func TestClear_EmptiesCartAndStorage(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code: "SAVE10", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10),
	})
	c := f.container("s1")

	_, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	_, err = c.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	res, err := c.Clear(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.Items)
	assert.Equal(t, 0, res.Snapshot.TotalItemCount)
	assertDecimal(t, "0", res.Snapshot.Total)
	assert.Nil(t, res.Snapshot.AppliedCoupon)

	_, err = f.store.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestore_ReproducesSnapshot(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code: "SAVE10", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10),
	})

	first := f.container("s1")
	_, err := first.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	res, err := first.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)
	before := res.Snapshot

	// a fresh container for the same session rehydrates from storage
	second := f.container("s1")
	after := second.Snapshot(context.Background())

	assert.Equal(t, before.TotalItemCount, after.TotalItemCount)
	assert.True(t, before.Subtotal.Equal(after.Subtotal))
	assert.True(t, before.Discount.Equal(after.Discount))
	assert.True(t, before.Total.Equal(after.Total))
	require.NotNil(t, after.AppliedCoupon)
	assert.Equal(t, "SAVE10", after.AppliedCoupon.Code)
}

func TestRestore_DropsExpiredCoupon(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(100), Stock: 10})
	f.coupons.SetRule(domain.CouponRule{
		Code: "SAVE10", Type: domain.DiscountPercentage, Value: decimal.NewFromInt(10),
	})

	first := f.container("s1")
	_, err := first.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	_, err = first.ApplyCoupon(context.Background(), "SAVE10")
	require.NoError(t, err)

	// coupon expires between sessions
	f.coupons.SetRule(domain.CouponRule{
		Code:      "SAVE10",
		Type:      domain.DiscountPercentage,
		Value:     decimal.NewFromInt(10),
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	second := f.container("s1")
	after := second.Snapshot(context.Background())
	assert.Nil(t, after.AppliedCoupon)
	assertDecimal(t, "0", after.Discount)
}

func TestRestore_CorruptedStorageYieldsEmptyCart(t *testing.T) {
	f := newFixture()
	c := New("s1", f.catalog, f.coupons, corruptStore{}, testRates(), zap.NewNop())

	snap := c.Snapshot(context.Background())
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.TotalItemCount)
	assertDecimal(t, "0", snap.Total)
}

func TestTotalItemCountInvariant(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(10), Stock: 50})
	f.catalog.set(domain.Product{ID: 2, Price: decimal.NewFromInt(20), Stock: 50})
	c := f.container("s1")

	check := func(res *Result) {
		t.Helper()
		sum := 0
		for _, item := range res.Snapshot.Items {
			sum += item.Quantity
		}
		assert.Equal(t, sum, res.Snapshot.TotalItemCount)
	}

	res, err := c.AddItem(context.Background(), 1, 3, "")
	require.NoError(t, err)
	check(res)

	res, err = c.AddItem(context.Background(), 2, 4, "")
	require.NoError(t, err)
	check(res)

	lineID := res.Snapshot.Items[0].ID
	res, err = c.UpdateQuantity(context.Background(), lineID, 1)
	require.NoError(t, err)
	check(res)

	res, err = c.RemoveItem(context.Background(), lineID)
	require.NoError(t, err)
	check(res)
}

func TestConcurrentAdds_Serialized(t *testing.T) {
	f := newFixture()
	f.catalog.set(domain.Product{ID: 1, Price: decimal.NewFromInt(10), Stock: 100})
	c := f.container("s1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.AddItem(context.Background(), 1, 1, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := c.Snapshot(context.Background())
	assert.Equal(t, 10, snap.TotalItemCount)
	assert.Len(t, snap.Items, 1)
}
