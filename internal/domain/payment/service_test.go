package payment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	order *cart.Order
}

func (m *mockOrderRepo) ActiveOrder(_ context.Context, _ string) (*cart.Order, error) {
	if m.order == nil {
		return nil, cart.ErrNoActiveOrder
	}
	return m.order, nil
}

func (m *mockOrderRepo) AddItem(_ context.Context, _, _ string) error             { return nil }
func (m *mockOrderRepo) RemoveItem(_ context.Context, _, _ string) error          { return nil }
func (m *mockOrderRepo) DecrementItem(_ context.Context, _, _ string) error       { return nil }
func (m *mockOrderRepo) AttachCoupon(_ context.Context, _, _ string) error        { return nil }
func (m *mockOrderRepo) AttachBillingAddress(_ context.Context, _, _ string) error { return nil }

type mockCharger struct {
	requests []ChargeRequest
	charge   *Charge
	err      error
}

func (m *mockCharger) Charge(_ context.Context, req ChargeRequest) (*Charge, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.charge, nil
}

type settleCall struct {
	orderID string
	refCode string
	payment Payment
}

type mockSettleRepo struct {
	calls []settleCall
	errs  []error
}

func (m *mockSettleRepo) Settle(_ context.Context, orderID, refCode string, p Payment) error {
	m.calls = append(m.calls, settleCall{orderID: orderID, refCode: refCode, payment: p})
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return err
	}
	return nil
}

type mockAlerter struct {
	alerts []string
}

func (m *mockAlerter) Alert(_ context.Context, msg string, _ error) {
	m.alerts = append(m.alerts, msg)
}

// --- Helpers ---

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testOrder mirrors the demo scenario: 2x $10 + 1x $20 with a $5 coupon.
func testOrder() *cart.Order {
	return &cart.Order{
		ID:               "o1",
		UserID:           "u1",
		BillingAddressID: "addr1",
		Coupon:           &coupon.Coupon{Code: "SAVE5", Amount: dec("5.00")},
		Lines: []cart.Line{
			{Item: catalog.Item{ID: "i1", Price: dec("10.00")}, Quantity: 2},
			{Item: catalog.Item{ID: "i2", Price: dec("20.00")}, Quantity: 1},
		},
	}
}

func newTestService(o *cart.Order, charger *mockCharger, store *mockSettleRepo, alerts *mockAlerter) *Service {
	return NewService(&mockOrderRepo{order: o}, store, charger, alerts, Config{
		Currency:      "usd",
		ChargeTimeout: time.Second,
	})
}

// --- Tests ---

func TestSettle_Success(t *testing.T) {
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{}
	svc := newTestService(testOrder(), charger, store, &mockAlerter{})

	receipt, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.NoError(t, err)

	// $40.00 subtotal minus $5.00 coupon, charged in minor units.
	require.Len(t, charger.requests, 1)
	assert.Equal(t, int64(3500), charger.requests[0].AmountMinor)
	assert.Equal(t, "usd", charger.requests[0].Currency)
	assert.Equal(t, "tok_visa", charger.requests[0].Token)

	require.Len(t, store.calls, 1)
	call := store.calls[0]
	assert.Equal(t, "o1", call.orderID)
	assert.True(t, dec("35.00").Equal(call.payment.Amount))
	assert.Equal(t, "ch_1", call.payment.ProviderChargeID)
	assert.Equal(t, "u1", call.payment.UserID)

	assert.Equal(t, call.refCode, receipt.RefCode)
	assert.Equal(t, "ch_1", receipt.ChargeID)
	assert.True(t, dec("35.00").Equal(receipt.Amount))
}

func TestSettle_RefCodeFormat(t *testing.T) {
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{}
	svc := newTestService(testOrder(), charger, store, &mockAlerter{})

	receipt, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{20}$`), receipt.RefCode)
}

func TestSettle_NoActiveOrder(t *testing.T) {
	svc := newTestService(nil, &mockCharger{}, &mockSettleRepo{}, &mockAlerter{})

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.ErrorIs(t, err, cart.ErrNoActiveOrder)
}

func TestSettle_MissingBillingAddress(t *testing.T) {
	o := testOrder()
	o.BillingAddressID = ""
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{}
	svc := newTestService(o, charger, store, &mockAlerter{})

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.ErrorIs(t, err, ErrMissingBillingAddress)

	assert.Empty(t, charger.requests, "no charge may be attempted without a billing address")
	assert.Empty(t, store.calls)
}

func TestSettle_ChargeFailureLeavesCartUntouched(t *testing.T) {
	charger := &mockCharger{err: &ProviderError{Kind: KindCardDeclined, Message: "card declined"}}
	store := &mockSettleRepo{}
	alerts := &mockAlerter{}
	svc := newTestService(testOrder(), charger, store, alerts)

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindCardDeclined, perr.Kind)

	assert.Empty(t, store.calls, "a failed charge must not settle anything")
	assert.Empty(t, alerts.alerts, "classified failures do not page the operator")
}

func TestSettle_TimeoutIsProviderUnavailable(t *testing.T) {
	charger := &mockCharger{err: context.DeadlineExceeded}
	svc := newTestService(testOrder(), charger, &mockSettleRepo{}, &mockAlerter{})

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindProviderUnavailable, perr.Kind)
}

func TestSettle_UnclassifiedFailureAlertsOperator(t *testing.T) {
	charger := &mockCharger{err: errors.New("wire format changed")}
	alerts := &mockAlerter{}
	svc := newTestService(testOrder(), charger, &mockSettleRepo{}, alerts)

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KindUnknown, perr.Kind)
	assert.Equal(t, "something went wrong, you were not charged", perr.Message)

	require.Len(t, alerts.alerts, 1)
}

func TestSettle_RetriesOnRefCodeCollision(t *testing.T) {
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{errs: []error{ErrRefCodeTaken}}
	svc := newTestService(testOrder(), charger, store, &mockAlerter{})

	receipt, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.NoError(t, err)

	require.Len(t, store.calls, 2)
	assert.NotEqual(t, store.calls[0].refCode, store.calls[1].refCode)
	assert.Equal(t, store.calls[1].refCode, receipt.RefCode)

	require.Len(t, charger.requests, 1, "the user is charged exactly once")
}

func TestSettle_ExhaustsRefCodeAttempts(t *testing.T) {
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{errs: []error{
		ErrRefCodeTaken, ErrRefCodeTaken, ErrRefCodeTaken, ErrRefCodeTaken, ErrRefCodeTaken,
	}}
	svc := newTestService(testOrder(), charger, store, &mockAlerter{})

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.Error(t, err)
	assert.Len(t, store.calls, refCodeAttempts)
}

func TestSettle_SettleErrorPropagates(t *testing.T) {
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{errs: []error{errors.New("db write failed")}}
	svc := newTestService(testOrder(), charger, store, &mockAlerter{})

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settle order")
}

func TestSettle_ZeroTotalChargesZero(t *testing.T) {
	o := testOrder()
	o.Coupon = &coupon.Coupon{Code: "HUGE", Amount: dec("999.00")}
	charger := &mockCharger{charge: &Charge{ID: "ch_1"}}
	store := &mockSettleRepo{}
	svc := newTestService(o, charger, store, &mockAlerter{})

	_, err := svc.Settle(context.Background(), "u1", "tok_visa")
	require.NoError(t, err)

	require.Len(t, charger.requests, 1)
	assert.Equal(t, int64(0), charger.requests[0].AmountMinor)
}
