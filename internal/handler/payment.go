package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/payment"
)

// SettlePayment charges the user's active order and, on success, returns the
// settlement receipt. Any charge failure leaves the cart untouched.
func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	var token string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "token":
			v, err := d.Str()
			token = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	receipt, err := h.payments.Settle(r.Context(), UserID(r.Context()), token)
	if err != nil {
		writePaymentError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ref_code")
	e.Str(receipt.RefCode)
	e.FieldStart("charge_id")
	e.Str(receipt.ChargeID)
	e.FieldStart("amount")
	e.Str(receipt.Amount.StringFixed(2))
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, &e)
}

// writePaymentError maps settlement failures to HTTP statuses. Provider
// failures carry the user-facing message from the classification.
func writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrNoActiveOrder):
		writeError(w, http.StatusNotFound, "no active order")
		return
	case errors.Is(err, payment.ErrMissingBillingAddress):
		writeError(w, http.StatusConflict, "checkout must be completed first")
		return
	}

	var perr *payment.ProviderError
	if !errors.As(err, &perr) {
		writeInternalError(w, r, err)
		return
	}

	status := http.StatusInternalServerError
	switch perr.Kind {
	case payment.KindCardDeclined:
		status = http.StatusPaymentRequired
	case payment.KindRateLimited:
		status = http.StatusTooManyRequests
	case payment.KindInvalidRequest:
		status = http.StatusBadRequest
	case payment.KindAuthFailed, payment.KindNetworkError:
		status = http.StatusBadGateway
	case payment.KindProviderUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, perr.Message)
}
