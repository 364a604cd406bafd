package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/refund"
)

// RequestRefund flags the order matching the reference code as
// refund-requested and records the request.
func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var refCode, reason, email string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "ref_code":
			refCode, err = d.Str()
		case "reason":
			reason, err = d.Str()
		case "email":
			email, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(refCode) == "" {
		writeError(w, http.StatusBadRequest, "ref_code is required")
		return
	}

	req, err := h.refunds.Request(r.Context(), refCode, reason, email)
	if err != nil {
		if errors.Is(err, refund.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(req.ID)
	e.FieldStart("order_id")
	e.Str(req.OrderID)
	e.FieldStart("accepted")
	e.Bool(req.Accepted)
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, &e)
}
