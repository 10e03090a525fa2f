package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealerlink/dealerlink/internal/rbac"
)

// Repository provides PostgreSQL backed persistence for user provisioning.
// The Tx-suffixed methods run inside the approval transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActiveEmailExists reports whether an active account already uses the email.
func (r *Repository) ActiveEmailExists(ctx context.Context, email string) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1 AND is_active = true`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateTx inserts the user and its role assignments within the transaction.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, params NewUserParams) (int64, error) {
	var userID int64
	err := tx.QueryRow(ctx, `INSERT INTO users (
	email, password_hash, name, user_type, dealer_id, designation, is_active, created_by
) VALUES ($1, $2, $3, $4, $5, $6, true, $7)
RETURNING id`,
		params.Email, params.PasswordHash, params.Name, params.UserType,
		params.DealerID, params.Designation, params.CreatedBy,
	).Scan(&userID)
	if err != nil {
		return 0, err
	}

	for _, role := range params.Roles {
		if err := r.AssignRoleTx(ctx, tx, userID, role); err != nil {
			return 0, err
		}
	}
	return userID, nil
}

// AssignRoleTx links the user to a catalog role. Re-assigning an already held
// role is a no-op, not an error.
func (r *Repository) AssignRoleTx(ctx context.Context, tx pgx.Tx, userID int64, role rbac.Role) error {
	_, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id)
SELECT $1, id FROM roles WHERE name = $2
ON CONFLICT (user_id, role_id) DO NOTHING`, userID, string(role))
	return err
}

// SetApprovalStatusTx upserts the account-level approval gate.
func (r *Repository) SetApprovalStatusTx(ctx context.Context, tx pgx.Tx, userID int64, status rbac.ApprovalStatus, reason string) error {
	_, err := tx.Exec(ctx, `INSERT INTO user_approval_status (user_id, status, rejection_reason)
VALUES ($1, $2, NULLIF($3, ''))
ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, rejection_reason = EXCLUDED.rejection_reason, updated_at = NOW()`,
		userID, string(status), reason)
	return err
}

// Deactivate disables an account. Role assignments stay in place; the login
// path refuses inactive users regardless.
func (r *Repository) Deactivate(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = false, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List returns all users ordered by id.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, name, user_type, dealer_id, is_active, created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.UserType, &user.DealerID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
