package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// Sentinel errors for cart operations.
var (
	ErrNoActiveOrder = errors.New("no active order")
	ErrItemNotInCart = errors.New("item not in cart")
)

// Line is a single (item, quantity) entry in an order. A line exists at most
// once per (order, item) pair; repeated adds merge into the quantity.
type Line struct {
	ID       string
	Item     catalog.Item
	Quantity int
	Ordered  bool
}

// UnitPrice returns the discount price when the item has one, the list price
// otherwise.
func (l Line) UnitPrice() decimal.Decimal {
	return l.Item.EffectivePrice()
}

// Total returns quantity times the unit price.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a user's order. While Ordered is false it is the user's single
// mutable cart; settlement flips Ordered exactly once, after which the order
// and its lines are frozen.
type Order struct {
	ID               string
	UserID           string
	RefCode          string
	StartDate        time.Time
	OrderedDate      *time.Time
	Ordered          bool
	BillingAddressID string
	PaymentID        string
	Coupon           *coupon.Coupon
	RefundRequested  bool
	RefundGranted    bool
	Lines            []Line
}

// Subtotal returns the sum of line totals before any coupon discount.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Total returns the subtotal minus the coupon amount when a coupon is
// attached, floored at zero and rounded to 2 decimal places.
func (o *Order) Total() decimal.Decimal {
	total := o.Subtotal()
	if o.Coupon != nil {
		total = total.Sub(o.Coupon.Amount)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}

// Repository defines persistence for active orders and their lines. Every
// mutating method is atomic: implementations must guarantee that two
// concurrent calls for the same user never produce a second active order or
// a duplicate line for the same item.
type Repository interface {
	// ActiveOrder returns the user's unordered order with its lines and
	// coupon, or ErrNoActiveOrder.
	ActiveOrder(ctx context.Context, userID string) (*Order, error)

	// AddItem finds or creates the user's active order and merges the item
	// into it: an existing line gains quantity 1, otherwise a quantity-1 line
	// is created.
	AddItem(ctx context.Context, userID, itemID string) error

	// RemoveItem detaches the item's line from the active order entirely,
	// regardless of quantity. Returns ErrNoActiveOrder or ErrItemNotInCart.
	RemoveItem(ctx context.Context, userID, itemID string) error

	// DecrementItem lowers the line quantity by one, detaching the line when
	// the quantity would drop below one. Returns ErrNoActiveOrder or
	// ErrItemNotInCart.
	DecrementItem(ctx context.Context, userID, itemID string) error

	// AttachCoupon sets the order's coupon code.
	AttachCoupon(ctx context.Context, orderID, code string) error

	// AttachBillingAddress sets the order's billing address.
	AttachBillingAddress(ctx context.Context, orderID, addressID string) error
}
