package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/refund"
)

const (
	orderIDByRefCodeSQL = `SELECT id FROM orders WHERE ref_code = $1`

	markRefundRequestedSQL = `UPDATE orders SET refund_requested = TRUE WHERE id = $1`

	// Deliberately no uniqueness guard: a resubmitted reference code creates
	// a second refund row.
	createRefundSQL = `INSERT INTO refunds (id, order_id, reason, email, accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

var _ refund.Repository = (*RefundRepository)(nil)

// RefundRepository implements refund.Repository backed by PostgreSQL.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository returns a RefundRepository that uses the given pool.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// FindOrderIDByRefCode resolves a reference code to an order ID.
func (r *RefundRepository) FindOrderIDByRefCode(ctx context.Context, refCode string) (string, error) {
	var orderID string
	err := r.pool.QueryRow(ctx, orderIDByRefCodeSQL, refCode).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", refund.ErrOrderNotFound
		}
		return "", fmt.Errorf("finding order by ref code: %w", err)
	}
	return orderID, nil
}

// MarkRefundRequested flags the order; repeated calls are no-ops.
func (r *RefundRepository) MarkRefundRequested(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, markRefundRequestedSQL, orderID)
	if err != nil {
		return fmt.Errorf("marking refund requested for order %q: %w", orderID, err)
	}
	return nil
}

// Create inserts a refund request row.
func (r *RefundRepository) Create(ctx context.Context, req *refund.Refund) error {
	_, err := r.pool.Exec(ctx, createRefundSQL,
		req.ID, req.OrderID, req.Reason, req.Email, req.Accepted, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating refund for order %q: %w", req.OrderID, err)
	}
	return nil
}
