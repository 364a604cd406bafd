package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ListItems returns the full catalog.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range items {
		encodeItem(&e, &items[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// GetItem returns a single catalog item by slug.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeItem(&e, item)
	writeJSON(w, http.StatusOK, &e)
}

func encodeItem(e *jx.Encoder, item *catalog.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(item.ID)
	e.FieldStart("slug")
	e.Str(item.Slug)
	e.FieldStart("title")
	e.Str(item.Title)
	e.FieldStart("price")
	e.Str(item.Price.StringFixed(2))
	if item.DiscountPrice != nil {
		e.FieldStart("discount_price")
		e.Str(item.DiscountPrice.StringFixed(2))
	}
	e.FieldStart("category")
	e.Str(string(item.Category))
	if item.Label != "" {
		e.FieldStart("label")
		e.Str(string(item.Label))
	}
	e.ObjEnd()
}
