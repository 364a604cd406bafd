package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/payment"
)

const (
	insertPaymentSQL = `INSERT INTO payments (id, provider_charge_id, user_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	settleOrderSQL = `UPDATE orders
		SET ref_code = $2, payment_id = $3, ordered = TRUE, ordered_date = now()
		WHERE id = $1 AND NOT ordered`

	settleLinesSQL = `UPDATE order_items SET ordered = TRUE WHERE order_id = $1`

	uniqueViolationCode = "23505"
)

var _ payment.Repository = (*SettlementRepository)(nil)

// SettlementRepository performs the atomic unpaid-cart to paid-order
// transition.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

// NewSettlementRepository returns a SettlementRepository that uses the given
// pool.
func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

// Settle records the payment, assigns the reference code, and flips the
// order and all of its lines to ordered, in one transaction. A failure at
// any step rolls everything back, leaving the cart mutable and unpaid.
func (r *SettlementRepository) Settle(ctx context.Context, orderID, refCode string, p payment.Payment) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertPaymentSQL,
			p.ID, p.ProviderChargeID, p.UserID, p.Amount, p.CreatedAt); err != nil {
			return errors.Wrap(err, "insert payment")
		}

		tag, err := tx.Exec(ctx, settleOrderSQL, orderID, refCode, p.ID)
		if err != nil {
			return errors.Wrap(err, "settle order")
		}
		if tag.RowsAffected() == 0 {
			return errors.New("order already settled")
		}

		if _, err := tx.Exec(ctx, settleLinesSQL, orderID); err != nil {
			return errors.Wrap(err, "settle lines")
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == "orders_ref_code_key" {
			return payment.ErrRefCodeTaken
		}
		return fmt.Errorf("settling order %q: %w", orderID, err)
	}
	return nil
}
