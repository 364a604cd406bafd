package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// Service owns the lifecycle of a user's active order: item merge and
// quantity rules, removal, and coupon attachment.
type Service struct {
	items   catalog.Repository
	coupons coupon.Repository
	orders  Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(items catalog.Repository, coupons coupon.Repository, orders Repository) *Service {
	return &Service{
		items:   items,
		coupons: coupons,
		orders:  orders,
	}
}

// AddItem adds one unit of the item to the user's cart, creating the active
// order when none exists and merging into an existing line otherwise.
// Returns catalog.ErrNotFound for an unknown slug.
func (s *Service) AddItem(ctx context.Context, userID, slug string) (*Order, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.orders.AddItem(ctx, userID, item.ID); err != nil {
		return nil, errors.Wrapf(err, "add item %s", item.ID)
	}

	return s.orders.ActiveOrder(ctx, userID)
}

// RemoveItem detaches the item's line from the cart entirely, regardless of
// its quantity. Returns ErrNoActiveOrder or ErrItemNotInCart.
func (s *Service) RemoveItem(ctx context.Context, userID, slug string) (*Order, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.orders.RemoveItem(ctx, userID, item.ID); err != nil {
		return nil, err
	}

	return s.orders.ActiveOrder(ctx, userID)
}

// DecrementItem lowers the line quantity by one, detaching the line when it
// was at one. A linked line never reaches quantity zero.
func (s *Service) DecrementItem(ctx context.Context, userID, slug string) (*Order, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.orders.DecrementItem(ctx, userID, item.ID); err != nil {
		return nil, err
	}

	return s.orders.ActiveOrder(ctx, userID)
}

// ApplyCoupon looks up the coupon by exact code and attaches it to the
// user's active order. Returns coupon.ErrNotFound or ErrNoActiveOrder.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (*Order, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.ActiveOrder(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.AttachCoupon(ctx, o.ID, c.Code); err != nil {
		return nil, errors.Wrapf(err, "attach coupon %s", c.Code)
	}

	return s.orders.ActiveOrder(ctx, userID)
}

// ActiveOrder returns the user's cart, or ErrNoActiveOrder.
func (s *Service) ActiveOrder(ctx context.Context, userID string) (*Order, error) {
	return s.orders.ActiveOrder(ctx, userID)
}
