package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a code does not match any active coupon.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a flat-amount discount, looked up by exact code and attached to
// at most one active order at a time.
type Coupon struct {
	Code   string
	Amount decimal.Decimal
}

// Repository provides coupon lookups.
type Repository interface {
	// FindByCode returns the active coupon with the given code, or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
