package checkout

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Service validates checkout submissions, attaches a fresh billing address to
// the user's active order, and reports which payment route to take next.
type Service struct {
	orders    cart.Repository
	addresses AddressRepository
}

// NewService creates a checkout Service.
func NewService(orders cart.Repository, addresses AddressRepository) *Service {
	return &Service{
		orders:    orders,
		addresses: addresses,
	}
}

// Submit validates the billing details and payment method, creates a new
// billing address record, and attaches it to the active order.
// It returns the payment route for the settlement stage.
// Returns cart.ErrNoActiveOrder when the user has no cart, or a
// *ValidationError listing every invalid field.
func (s *Service) Submit(ctx context.Context, userID string, det BillingDetails, method Method) (Method, error) {
	if err := validate(det, method); err != nil {
		return "", err
	}

	o, err := s.orders.ActiveOrder(ctx, userID)
	if err != nil {
		return "", err
	}

	addr := &Address{
		ID:               uuid.New().String(),
		UserID:           userID,
		StreetAddress:    strings.TrimSpace(det.StreetAddress),
		ApartmentAddress: strings.TrimSpace(det.ApartmentAddress),
		Country:          strings.ToUpper(strings.TrimSpace(det.Country)),
		Zip:              strings.TrimSpace(det.Zip),
		Type:             AddressBilling,
	}
	if err := s.addresses.Create(ctx, addr); err != nil {
		return "", errors.Wrap(err, "create billing address")
	}

	if err := s.orders.AttachBillingAddress(ctx, o.ID, addr.ID); err != nil {
		return "", errors.Wrap(err, "attach billing address")
	}

	return method, nil
}

func validate(det BillingDetails, method Method) error {
	fields := make(map[string]string)

	if strings.TrimSpace(det.StreetAddress) == "" {
		fields["street_address"] = "required"
	}
	if strings.TrimSpace(det.ApartmentAddress) == "" {
		fields["apartment_address"] = "required"
	}
	if !isCountryCode(strings.TrimSpace(det.Country)) {
		fields["country"] = "must be an ISO 3166-1 alpha-2 code"
	}
	if strings.TrimSpace(det.Zip) == "" {
		fields["zip"] = "required"
	}

	switch method {
	case MethodCard, MethodWallet:
	default:
		fields["payment_method"] = "must be one of: card, wallet"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// isCountryCode reports whether s is two ASCII letters.
func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := range len(s) {
		c := s[i]
		if !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// FieldNames returns the sorted invalid field names, for stable messages.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
