package dealers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for dealers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ExistsByCode reports whether an active dealer already uses the code.
func (r *Repository) ExistsByCode(ctx context.Context, dealerCode string) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM dealers WHERE dealer_code = $1`, dealerCode).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureTx resolves the dealer by code within the transaction, creating it
// when absent. Approval relies on this being part of the surrounding
// all-or-nothing unit.
func (r *Repository) EnsureTx(ctx context.Context, tx pgx.Tx, dealer Dealer) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM dealers WHERE dealer_code = $1`, dealer.DealerCode).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	err = tx.QueryRow(ctx, `INSERT INTO dealers (
	dealer_code, dealer_name, address, city, state, country, postal_code, phone, email, brand, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'active')
RETURNING id`,
		dealer.DealerCode, dealer.Name, dealer.Address, dealer.City, dealer.State,
		dealer.Country, dealer.PostalCode, dealer.Phone, dealer.Email, dealer.Brand,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
