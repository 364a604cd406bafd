package checkout

import (
	"context"
	"fmt"
	"strings"
)

// Method enumerates the supported payment routes.
type Method string

const (
	// MethodCard routes settlement through the card-processing provider.
	MethodCard Method = "card"
	// MethodWallet routes settlement through the alternate wallet provider.
	MethodWallet Method = "wallet"
)

// BillingDetails is the address input submitted at checkout. All fields are
// required; Country must be an ISO 3166-1 alpha-2 code.
type BillingDetails struct {
	StreetAddress    string
	ApartmentAddress string
	Country          string
	Zip              string
}

// Address is a persisted billing or shipping address. A fresh row is created
// on every checkout submission; addresses are never reused across orders.
type Address struct {
	ID               string
	UserID           string
	StreetAddress    string
	ApartmentAddress string
	Country          string
	Zip              string
	Type             AddressType
}

// AddressType distinguishes billing from shipping addresses.
type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
)

// ValidationError carries field-level validation failures back to the caller
// so the user can be re-prompted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout fields: %s", strings.Join(e.FieldNames(), ", "))
}

// AddressRepository persists checkout addresses.
type AddressRepository interface {
	Create(ctx context.Context, addr *Address) error
}
