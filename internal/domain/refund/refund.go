package refund

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrOrderNotFound is returned when no settled order carries the given
// reference code.
var ErrOrderNotFound = errors.New("order not found")

// Refund is a refund request against a settled order. Requests are not
// deduplicated: resubmitting the same reference code creates another row.
type Refund struct {
	ID        string
	OrderID   string
	Reason    string
	Email     string
	Accepted  bool
	CreatedAt time.Time
}

// Repository defines persistence for refund requests.
type Repository interface {
	// FindOrderIDByRefCode resolves a reference code to an order ID, or
	// returns ErrOrderNotFound.
	FindOrderIDByRefCode(ctx context.Context, refCode string) (string, error)

	// MarkRefundRequested flags the order. Setting the flag again when it is
	// already set is harmless.
	MarkRefundRequested(ctx context.Context, orderID string) error

	// Create inserts a refund request row.
	Create(ctx context.Context, r *Refund) error
}
