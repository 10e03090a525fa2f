package auth

import "time"

// User types. Manufacturer users are the reviewing side of the approval
// workflow; dealer users are provisioned by it.
const (
	UserTypeDealer       = "dealer"
	UserTypeManufacturer = "manufacturer"
)

// User represents an account row.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	UserType     string
	DealerID     *int64
	Designation  string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
