package users

import (
	"time"

	"github.com/dealerlink/dealerlink/internal/rbac"
)

// User represents a user account for management views.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	UserType  string    `json:"userType"`
	DealerID  *int64    `json:"dealerId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserParams collects everything needed to provision an account during
// registration approval. PasswordHash is already the opaque bcrypt output;
// plaintext never reaches this package.
type NewUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	UserType     string
	DealerID     int64
	Designation  string
	Roles        []rbac.Role
	CreatedBy    int64
}
