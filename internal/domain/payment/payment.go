package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for the settlement entry points.
var (
	// ErrMissingBillingAddress means the order cannot be settled until the
	// user goes back through checkout.
	ErrMissingBillingAddress = errors.New("billing address required")

	// ErrRefCodeTaken is returned by Repository.Settle when the generated
	// reference code collides with an existing order; the caller generates a
	// new code and retries.
	ErrRefCodeTaken = errors.New("ref code already in use")
)

// Kind classifies a provider charge failure. The taxonomy is closed: every
// provider outcome maps to exactly one kind.
type Kind string

const (
	KindCardDeclined        Kind = "card_declined"
	KindRateLimited         Kind = "rate_limited"
	KindInvalidRequest      Kind = "invalid_request"
	KindAuthFailed          Kind = "auth_failed"
	KindNetworkError        Kind = "network_error"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindUnknown             Kind = "unknown"
)

// ProviderError is a classified charge failure. No local state is mutated
// when one is returned; the message is safe to show to the user.
type ProviderError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("charge failed (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("charge failed (%s)", e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ChargeRequest is the input to the external charge capability. Amounts are
// in minor currency units (cents).
type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	Token       string
}

// Charge is a successful provider charge.
type Charge struct {
	ID string
}

// Charger is the single capability exposed by the external card-processing
// provider. Implementations classify failures into *ProviderError.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// Payment records a successful charge. Exactly one payment exists per
// settled order.
type Payment struct {
	ID               string
	ProviderChargeID string
	UserID           string
	Amount           decimal.Decimal
	CreatedAt        time.Time
}

// Receipt is returned to the caller after a successful settlement.
type Receipt struct {
	RefCode  string
	ChargeID string
	Amount   decimal.Decimal
}

// Repository performs the atomic settlement transaction.
type Repository interface {
	// Settle assigns refCode to the order, records the payment, marks every
	// order line and the order itself as ordered, and links the payment, all
	// in a single transaction. Partial application must never be observable.
	// Returns ErrRefCodeTaken on a reference code collision.
	Settle(ctx context.Context, orderID, refCode string, p Payment) error
}

// Alerter notifies operators about unclassified provider failures, which may
// mask an outage or an integration bug.
type Alerter interface {
	Alert(ctx context.Context, msg string, err error)
}
