package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("item not found")

// Category enumerates the catalog sections an item can belong to.
type Category string

const (
	CategoryShirt     Category = "shirt"
	CategorySportwear Category = "sportwear"
	CategoryOutwear   Category = "outwear"
)

// Label enumerates the optional merchandising badges on an item.
type Label string

const (
	LabelNew        Label = "new"
	LabelBestseller Label = "bestseller"
	LabelSale       Label = "sale"
)

// Item is an immutable catalog record. DiscountPrice, when set, takes
// precedence over Price in cart totals.
type Item struct {
	ID            string
	Slug          string
	Title         string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Category      Category
	Label         Label
}

// EffectivePrice returns the discount price when present, the list price
// otherwise.
func (i Item) EffectivePrice() decimal.Decimal {
	if i.DiscountPrice != nil {
		return *i.DiscountPrice
	}
	return i.Price
}

// Repository defines read operations for the item catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetBySlug(ctx context.Context, slug string) (*Item, error)
}
