package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// GetCart returns the authenticated user's active order.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	o, err := h.carts.ActiveOrder(r.Context(), UserID(r.Context()))
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

// AddToCart merges one unit of the item into the user's cart, creating the
// cart when none exists.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	o, err := h.carts.AddItem(r.Context(), UserID(r.Context()), r.PathValue("slug"))
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

// RemoveFromCart detaches the item's line entirely, regardless of quantity.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	o, err := h.carts.RemoveItem(r.Context(), UserID(r.Context()), r.PathValue("slug"))
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

// DecrementItem lowers the line quantity by one, detaching the line when it
// was at one.
func (h *Handler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	o, err := h.carts.DecrementItem(r.Context(), UserID(r.Context()), r.PathValue("slug"))
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

// ApplyCoupon attaches a coupon, looked up by exact code, to the user's cart.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var code string
	if err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Str()
			code = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	o, err := h.carts.ApplyCoupon(r.Context(), UserID(r.Context()), code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		writeCartError(w, r, err)
		return
	}
	writeOrder(w, http.StatusOK, o)
}

// writeCartError maps cart and catalog sentinel errors to HTTP statuses.
func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, cart.ErrNoActiveOrder):
		writeError(w, http.StatusNotFound, "no active order")
	case errors.Is(err, cart.ErrItemNotInCart):
		writeError(w, http.StatusNotFound, "item not in cart")
	default:
		writeInternalError(w, r, err)
	}
}

func writeOrder(w http.ResponseWriter, status int, o *cart.Order) {
	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, status, &e)
}

func encodeOrder(e *jx.Encoder, o *cart.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	if o.RefCode != "" {
		e.FieldStart("ref_code")
		e.Str(o.RefCode)
	}
	e.FieldStart("ordered")
	e.Bool(o.Ordered)
	e.FieldStart("items")
	e.ArrStart()
	for i := range o.Lines {
		encodeLine(e, &o.Lines[i])
	}
	e.ArrEnd()
	if o.Coupon != nil {
		e.FieldStart("coupon")
		e.ObjStart()
		e.FieldStart("code")
		e.Str(o.Coupon.Code)
		e.FieldStart("amount")
		e.Str(o.Coupon.Amount.StringFixed(2))
		e.ObjEnd()
	}
	e.FieldStart("subtotal")
	e.Str(o.Subtotal().StringFixed(2))
	e.FieldStart("total")
	e.Str(o.Total().StringFixed(2))
	e.ObjEnd()
}

func encodeLine(e *jx.Encoder, l *cart.Line) {
	e.ObjStart()
	e.FieldStart("slug")
	e.Str(l.Item.Slug)
	e.FieldStart("title")
	e.Str(l.Item.Title)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("unit_price")
	e.Str(l.UnitPrice().StringFixed(2))
	e.FieldStart("total")
	e.Str(l.Total().StringFixed(2))
	e.ObjEnd()
}
