package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/cart"
)

// refCodeAttempts bounds retries on reference code collisions. Collisions
// are vanishingly rare for 20-character codes; the storage-layer unique
// constraint is the actual guarantee.
const refCodeAttempts = 5

// Config holds provider settings for the settlement engine. It is injected
// at construction time; there is no ambient provider state.
type Config struct {
	// Currency is the ISO 4217 code sent with every charge.
	Currency string
	// ChargeTimeout bounds the external charge call. Expiry is treated as
	// KindProviderUnavailable.
	ChargeTimeout time.Duration
}

// Service converts an order total to minor units, invokes the external
// charge capability, and performs the atomic transition from unpaid cart to
// paid order.
type Service struct {
	orders  cart.Repository
	store   Repository
	charger Charger
	alerts  Alerter
	cfg     Config

	// newRefCode is swapped out in tests.
	newRefCode func() string
	now        func() time.Time
}

// NewService creates a settlement Service.
func NewService(orders cart.Repository, store Repository, charger Charger, alerts Alerter, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.ChargeTimeout <= 0 {
		cfg.ChargeTimeout = 30 * time.Second
	}
	return &Service{
		orders:     orders,
		store:      store,
		charger:    charger,
		alerts:     alerts,
		cfg:        cfg,
		newRefCode: NewRefCode,
		now:        time.Now,
	}
}

// Settle charges the user's active order and, on success only, freezes it:
// ref code assignment, payment record, ordered flips, and payment linking
// happen in one transaction. Any charge failure leaves the cart untouched.
//
// The total snapshot (coupon applied) is taken before the charge; the charge
// itself runs outside any database transaction so a slow provider round trip
// never holds a row lock.
func (s *Service) Settle(ctx context.Context, userID, token string) (*Receipt, error) {
	o, err := s.orders.ActiveOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	if o.BillingAddressID == "" {
		return nil, ErrMissingBillingAddress
	}

	total := o.Total()
	amountMinor := total.Shift(2).Round(0).IntPart()

	chargeCtx, cancel := context.WithTimeout(ctx, s.cfg.ChargeTimeout)
	defer cancel()

	charge, err := s.charger.Charge(chargeCtx, ChargeRequest{
		AmountMinor: amountMinor,
		Currency:    s.cfg.Currency,
		Token:       token,
	})
	if err != nil {
		return nil, s.classifyChargeError(ctx, err)
	}

	p := Payment{
		ID:               uuid.New().String(),
		ProviderChargeID: charge.ID,
		UserID:           userID,
		Amount:           total,
		CreatedAt:        s.now(),
	}

	for range refCodeAttempts {
		refCode := s.newRefCode()
		err = s.store.Settle(ctx, o.ID, refCode, p)
		if errors.Is(err, ErrRefCodeTaken) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "settle order")
		}
		return &Receipt{
			RefCode:  refCode,
			ChargeID: charge.ID,
			Amount:   total,
		}, nil
	}

	return nil, errors.Wrap(err, "exhausted ref code attempts")
}

// classifyChargeError normalizes charge failures to *ProviderError and fires
// the operator alert for unclassified failures.
func (s *Service) classifyChargeError(ctx context.Context, err error) error {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return &ProviderError{
				Kind:    KindProviderUnavailable,
				Message: "payment provider timed out",
				Err:     err,
			}
		}
		perr = &ProviderError{
			Kind:    KindUnknown,
			Message: "something went wrong, you were not charged",
			Err:     err,
		}
	}

	if perr.Kind == KindUnknown {
		s.alerts.Alert(ctx, "unclassified payment provider failure", err)
	}
	return perr
}
