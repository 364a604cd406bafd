package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// --- Mock implementations ---

type mockItemRepo struct {
	bySlug map[string]*catalog.Item
}

func (m *mockItemRepo) List(_ context.Context) ([]catalog.Item, error) {
	return nil, nil
}

func (m *mockItemRepo) GetBySlug(_ context.Context, slug string) (*catalog.Item, error) {
	it, ok := m.bySlug[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return it, nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

// fakeOrderRepo is an in-memory Repository with the same merge and
// decrement semantics as the real storage layer.
type fakeOrderRepo struct {
	items  map[string]catalog.Item
	orders map[string]*Order
	seq    int
}

func newFakeOrderRepo(items ...catalog.Item) *fakeOrderRepo {
	byID := make(map[string]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return &fakeOrderRepo{
		items:  byID,
		orders: make(map[string]*Order),
	}
}

func (f *fakeOrderRepo) ActiveOrder(_ context.Context, userID string) (*Order, error) {
	o, ok := f.orders[userID]
	if !ok {
		return nil, ErrNoActiveOrder
	}
	cp := *o
	cp.Lines = append([]Line(nil), o.Lines...)
	return &cp, nil
}

func (f *fakeOrderRepo) AddItem(_ context.Context, userID, itemID string) error {
	o, ok := f.orders[userID]
	if !ok {
		f.seq++
		o = &Order{ID: "order-" + userID, UserID: userID}
		f.orders[userID] = o
	}
	for i := range o.Lines {
		if o.Lines[i].Item.ID == itemID {
			o.Lines[i].Quantity++
			return nil
		}
	}
	o.Lines = append(o.Lines, Line{
		ID:       "line-" + itemID,
		Item:     f.items[itemID],
		Quantity: 1,
	})
	return nil
}

func (f *fakeOrderRepo) RemoveItem(_ context.Context, userID, itemID string) error {
	o, ok := f.orders[userID]
	if !ok {
		return ErrNoActiveOrder
	}
	for i := range o.Lines {
		if o.Lines[i].Item.ID == itemID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return nil
		}
	}
	return ErrItemNotInCart
}

func (f *fakeOrderRepo) DecrementItem(_ context.Context, userID, itemID string) error {
	o, ok := f.orders[userID]
	if !ok {
		return ErrNoActiveOrder
	}
	for i := range o.Lines {
		if o.Lines[i].Item.ID == itemID {
			if o.Lines[i].Quantity <= 1 {
				o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			} else {
				o.Lines[i].Quantity--
			}
			return nil
		}
	}
	return ErrItemNotInCart
}

func (f *fakeOrderRepo) AttachCoupon(_ context.Context, orderID, code string) error {
	for _, o := range f.orders {
		if o.ID == orderID {
			o.Coupon = &coupon.Coupon{Code: code}
			return nil
		}
	}
	return ErrNoActiveOrder
}

func (f *fakeOrderRepo) AttachBillingAddress(_ context.Context, orderID, addressID string) error {
	for _, o := range f.orders {
		if o.ID == orderID {
			o.BillingAddressID = addressID
			return nil
		}
	}
	return ErrNoActiveOrder
}

// --- Helpers ---

func newTestItem(id, slug string, price string) catalog.Item {
	return catalog.Item{
		ID:       id,
		Slug:     slug,
		Title:    slug,
		Price:    decimal.RequireFromString(price),
		Category: catalog.CategoryShirt,
	}
}

func newTestService(items ...catalog.Item) (*Service, *fakeOrderRepo) {
	bySlug := make(map[string]*catalog.Item, len(items))
	for i := range items {
		bySlug[items[i].Slug] = &items[i]
	}
	repo := newFakeOrderRepo(items...)
	svc := NewService(&mockItemRepo{bySlug: bySlug}, &mockCouponRepo{}, repo)
	return svc, repo
}

// --- Tests ---

func TestAddItem_CreatesActiveOrder(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	o, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	require.Len(t, o.Lines, 1)
	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.False(t, o.Ordered)
}

func TestAddItem_MergesIntoExistingLine(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	_, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	o, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	require.Len(t, o.Lines, 1, "re-adding the same item must not create a second line")
	assert.Equal(t, 2, o.Lines[0].Quantity)
}

func TestAddItem_UnknownSlug(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.AddItem(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddItem_SeparateUsersSeparateCarts(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	_, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "u2", "shirt")
	require.NoError(t, err)

	o1, err := svc.ActiveOrder(context.Background(), "u1")
	require.NoError(t, err)
	o2, err := svc.ActiveOrder(context.Background(), "u2")
	require.NoError(t, err)

	assert.NotEqual(t, o1.ID, o2.ID)
	assert.Equal(t, 1, o1.Lines[0].Quantity)
	assert.Equal(t, 1, o2.Lines[0].Quantity)
}

func TestRemoveItem_DetachesRegardlessOfQuantity(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	for range 3 {
		_, err := svc.AddItem(context.Background(), "u1", "shirt")
		require.NoError(t, err)
	}

	o, err := svc.RemoveItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)
	assert.Empty(t, o.Lines)
}

func TestRemoveItem_NotInCart(t *testing.T) {
	svc, _ := newTestService(
		newTestItem("i1", "shirt", "10.00"),
		newTestItem("i2", "coat", "99.00"),
	)

	_, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	_, err = svc.RemoveItem(context.Background(), "u1", "coat")
	require.ErrorIs(t, err, ErrItemNotInCart)
}

func TestRemoveItem_NoActiveOrder(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	_, err := svc.RemoveItem(context.Background(), "u1", "shirt")
	require.ErrorIs(t, err, ErrNoActiveOrder)
}

func TestDecrementItem_LowersQuantity(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	for range 3 {
		_, err := svc.AddItem(context.Background(), "u1", "shirt")
		require.NoError(t, err)
	}

	o, err := svc.DecrementItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 2, o.Lines[0].Quantity)
}

func TestDecrementItem_DetachesAtOne(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	_, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	o, err := svc.DecrementItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)
	assert.Empty(t, o.Lines, "a linked line never reaches quantity zero")
}

func TestApplyCoupon_AttachesToActiveOrder(t *testing.T) {
	item := newTestItem("i1", "shirt", "10.00")
	repo := newFakeOrderRepo(item)
	svc := NewService(
		&mockItemRepo{bySlug: map[string]*catalog.Item{"shirt": &item}},
		&mockCouponRepo{byCode: map[string]*coupon.Coupon{
			"SAVE5": {Code: "SAVE5", Amount: decimal.RequireFromString("5.00")},
		}},
		repo,
	)

	_, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	o, err := svc.ApplyCoupon(context.Background(), "u1", "SAVE5")
	require.NoError(t, err)
	require.NotNil(t, o.Coupon)
	assert.Equal(t, "SAVE5", o.Coupon.Code)
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	svc, _ := newTestService(newTestItem("i1", "shirt", "10.00"))

	_, err := svc.AddItem(context.Background(), "u1", "shirt")
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(context.Background(), "u1", "BOGUS")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestApplyCoupon_NoActiveOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewService(
		&mockItemRepo{bySlug: map[string]*catalog.Item{}},
		&mockCouponRepo{byCode: map[string]*coupon.Coupon{
			"SAVE5": {Code: "SAVE5", Amount: decimal.RequireFromString("5.00")},
		}},
		repo,
	)

	_, err := svc.ApplyCoupon(context.Background(), "u1", "SAVE5")
	require.ErrorIs(t, err, ErrNoActiveOrder)
}
