package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
)

// SubmitCheckout validates the billing details, records a fresh billing
// address on the user's active order, and returns the payment route.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	var (
		det    checkout.BillingDetails
		method checkout.Method
	)
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "street_address":
			det.StreetAddress, err = d.Str()
		case "apartment_address":
			det.ApartmentAddress, err = d.Str()
		case "country":
			det.Country, err = d.Str()
		case "zip":
			det.Zip, err = d.Str()
		case "payment_method":
			var v string
			v, err = d.Str()
			method = checkout.Method(v)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	route, err := h.checkout.Submit(r.Context(), UserID(r.Context()), det, method)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, verr)
		case errors.Is(err, cart.ErrNoActiveOrder):
			writeError(w, http.StatusNotFound, "no active order")
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("payment_method")
	e.Str(string(route))
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}

// writeValidationError reports every invalid field in one response:
// {"code": 422, "message": ..., "fields": {"zip": "required", ...}}.
func writeValidationError(w http.ResponseWriter, verr *checkout.ValidationError) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(http.StatusUnprocessableEntity)
	e.FieldStart("message")
	e.Str(verr.Error())
	e.FieldStart("fields")
	e.ObjStart()
	for _, name := range verr.FieldNames() {
		e.FieldStart(name)
		e.Str(verr.Fields[name])
	}
	e.ObjEnd()
	e.ObjEnd()
	writeJSON(w, http.StatusUnprocessableEntity, &e)
}
