package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	activeOrderSQL = `SELECT o.id, o.user_id, o.ref_code, o.start_date, o.ordered_date, o.ordered,
			o.billing_address_id, o.payment_id, o.coupon_code, o.refund_requested, o.refund_granted, c.amount
		FROM orders o
		LEFT JOIN coupons c ON c.code = o.coupon_code
		WHERE o.user_id = $1 AND NOT o.ordered`

	orderLinesSQL = `SELECT oi.id, oi.quantity, oi.ordered,
			i.id, i.slug, i.title, i.price, i.discount_price, i.category, i.label
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at`

	// Insertion races on the partial unique index resolve to DO NOTHING, so
	// two concurrent add-to-cart calls converge on one active order.
	createActiveOrderSQL = `INSERT INTO orders (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) WHERE NOT ordered DO NOTHING`

	activeOrderIDSQL = `SELECT id FROM orders WHERE user_id = $1 AND NOT ordered`

	// Merge-or-create: the UNIQUE (order_id, item_id) constraint turns a
	// repeated add into a quantity increment, never a duplicate line.
	upsertLineSQL = `INSERT INTO order_items (id, order_id, item_id, quantity)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (order_id, item_id)
		DO UPDATE SET quantity = order_items.quantity + 1`

	deleteLineSQL = `DELETE FROM order_items WHERE order_id = $1 AND item_id = $2`

	lineForUpdateSQL = `SELECT id, quantity FROM order_items
		WHERE order_id = $1 AND item_id = $2 FOR UPDATE`

	decrementLineSQL = `UPDATE order_items SET quantity = quantity - 1 WHERE id = $1`

	deleteLineByIDSQL = `DELETE FROM order_items WHERE id = $1`

	attachCouponSQL = `UPDATE orders SET coupon_code = $2 WHERE id = $1 AND NOT ordered`

	attachBillingAddressSQL = `UPDATE orders SET billing_address_id = $2 WHERE id = $1 AND NOT ordered`
)

var _ cart.Repository = (*OrderRepository)(nil)

// OrderRepository implements cart.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// ActiveOrder returns the user's unordered order with lines and coupon.
func (r *OrderRepository) ActiveOrder(ctx context.Context, userID string) (*cart.Order, error) {
	rows, err := r.pool.Query(ctx, activeOrderSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting active order for %q: %w", userID, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoActiveOrder
		}
		return nil, fmt.Errorf("getting active order for %q: %w", userID, err)
	}

	lineRows, err := r.pool.Query(ctx, orderLinesSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %q: %w", o.ID, err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanLine)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %q: %w", o.ID, err)
	}

	return &o, nil
}

// AddItem finds or creates the active order and merges the item into it.
func (r *OrderRepository) AddItem(ctx context.Context, userID, itemID string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createActiveOrderSQL, uuid.New().String(), userID); err != nil {
			return errors.Wrap(err, "create active order")
		}

		var orderID string
		if err := tx.QueryRow(ctx, activeOrderIDSQL, userID).Scan(&orderID); err != nil {
			return errors.Wrap(err, "find active order")
		}

		if _, err := tx.Exec(ctx, upsertLineSQL, uuid.New().String(), orderID, itemID); err != nil {
			return errors.Wrap(err, "upsert line")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("adding item %q for %q: %w", itemID, userID, err)
	}
	return nil
}

// RemoveItem detaches the item's line from the active order entirely.
func (r *OrderRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		orderID, err := activeOrderID(ctx, tx, userID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, deleteLineSQL, orderID, itemID)
		if err != nil {
			return fmt.Errorf("deleting line: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrItemNotInCart
		}
		return nil
	})
}

// DecrementItem lowers the quantity by one, removing the line at quantity one.
func (r *OrderRepository) DecrementItem(ctx context.Context, userID, itemID string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		orderID, err := activeOrderID(ctx, tx, userID)
		if err != nil {
			return err
		}

		var (
			lineID   string
			quantity int
		)
		err = tx.QueryRow(ctx, lineForUpdateSQL, orderID, itemID).Scan(&lineID, &quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cart.ErrItemNotInCart
			}
			return fmt.Errorf("locking line: %w", err)
		}

		if quantity > 1 {
			_, err = tx.Exec(ctx, decrementLineSQL, lineID)
		} else {
			_, err = tx.Exec(ctx, deleteLineByIDSQL, lineID)
		}
		if err != nil {
			return fmt.Errorf("decrementing line: %w", err)
		}
		return nil
	})
}

// AttachCoupon sets the order's coupon code.
func (r *OrderRepository) AttachCoupon(ctx context.Context, orderID, code string) error {
	tag, err := r.pool.Exec(ctx, attachCouponSQL, orderID, code)
	if err != nil {
		return fmt.Errorf("attaching coupon %q to order %q: %w", code, orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNoActiveOrder
	}
	return nil
}

// AttachBillingAddress sets the order's billing address.
func (r *OrderRepository) AttachBillingAddress(ctx context.Context, orderID, addressID string) error {
	tag, err := r.pool.Exec(ctx, attachBillingAddressSQL, orderID, addressID)
	if err != nil {
		return fmt.Errorf("attaching address %q to order %q: %w", addressID, orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNoActiveOrder
	}
	return nil
}

func activeOrderID(ctx context.Context, tx pgx.Tx, userID string) (string, error) {
	var orderID string
	err := tx.QueryRow(ctx, activeOrderIDSQL, userID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", cart.ErrNoActiveOrder
		}
		return "", fmt.Errorf("finding active order: %w", err)
	}
	return orderID, nil
}

func scanOrder(row pgx.CollectableRow) (cart.Order, error) {
	var (
		o                cart.Order
		refCode          *string
		orderedDate      *time.Time
		billingAddressID *string
		paymentID        *string
		couponCode       *string
		couponAmount     *decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.UserID, &refCode, &o.StartDate, &orderedDate, &o.Ordered,
		&billingAddressID, &paymentID, &couponCode, &o.RefundRequested, &o.RefundGranted,
		&couponAmount,
	)
	if refCode != nil {
		o.RefCode = *refCode
	}
	o.OrderedDate = orderedDate
	if billingAddressID != nil {
		o.BillingAddressID = *billingAddressID
	}
	if paymentID != nil {
		o.PaymentID = *paymentID
	}
	if couponCode != nil && couponAmount != nil {
		o.Coupon = &coupon.Coupon{Code: *couponCode, Amount: *couponAmount}
	}
	return o, err
}

func scanLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l             cart.Line
		price         decimal.Decimal
		discountPrice *decimal.Decimal
		category      string
		label         *string
	)
	err := row.Scan(
		&l.ID, &l.Quantity, &l.Ordered,
		&l.Item.ID, &l.Item.Slug, &l.Item.Title, &price, &discountPrice, &category, &label,
	)
	l.Item.Price = price
	l.Item.DiscountPrice = discountPrice
	l.Item.Category = catalog.Category(category)
	if label != nil {
		l.Item.Label = catalog.Label(*label)
	}
	return l, err
}
