// Package handler is the thin presentation glue over the domain services.
// It speaks JSON over net/http; all business rules live in internal/domain.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/refund"
)

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	items    catalog.Repository
	carts    *cart.Service
	checkout *checkout.Service
	payments *payment.Service
	refunds  *refund.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	items catalog.Repository,
	carts *cart.Service,
	co *checkout.Service,
	payments *payment.Service,
	refunds *refund.Service,
) *Handler {
	return &Handler{
		items:    items,
		carts:    carts,
		checkout: co,
		payments: payments,
		refunds:  refunds,
	}
}

// Register adds all API routes to the mux. Routes under /api/ expect an
// authenticated user in the request context (see SecurityMiddleware), except
// the catalog reads and refund submission, which are public.
func (h *Handler) Register(mux *http.ServeMux, secure func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/items", h.ListItems)
	mux.HandleFunc("GET /api/items/{slug}", h.GetItem)
	mux.HandleFunc("POST /api/refunds", h.RequestRefund)

	mux.Handle("GET /api/cart", secure(http.HandlerFunc(h.GetCart)))
	mux.Handle("POST /api/cart/items/{slug}", secure(http.HandlerFunc(h.AddToCart)))
	mux.Handle("DELETE /api/cart/items/{slug}", secure(http.HandlerFunc(h.RemoveFromCart)))
	mux.Handle("POST /api/cart/items/{slug}/decrement", secure(http.HandlerFunc(h.DecrementItem)))
	mux.Handle("POST /api/cart/coupon", secure(http.HandlerFunc(h.ApplyCoupon)))
	mux.Handle("POST /api/checkout", secure(http.HandlerFunc(h.SubmitCheckout)))
	mux.Handle("POST /api/payment", secure(http.HandlerFunc(h.SettlePayment)))
}

// writeJSON writes the encoder's buffer with the given status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard error body: {"code": ..., "message": ...}.
func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// writeInternalError logs the error and responds 500 without leaking detail.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
