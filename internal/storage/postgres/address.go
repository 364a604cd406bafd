package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/checkout"
)

const createAddressSQL = `INSERT INTO addresses (id, user_id, street_address, apartment_address, country, zip, address_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

var _ checkout.AddressRepository = (*AddressRepository)(nil)

// AddressRepository implements checkout.AddressRepository backed by
// PostgreSQL. Every checkout submission inserts a fresh row; addresses are
// never deduplicated.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts the address.
func (r *AddressRepository) Create(ctx context.Context, addr *checkout.Address) error {
	_, err := r.pool.Exec(ctx, createAddressSQL,
		addr.ID, addr.UserID, addr.StreetAddress, addr.ApartmentAddress,
		addr.Country, addr.Zip, string(addr.Type))
	if err != nil {
		return fmt.Errorf("creating address %q: %w", addr.ID, err)
	}
	return nil
}
