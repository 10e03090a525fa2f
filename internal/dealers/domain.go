package dealers

import "time"

// Dealer represents a dealership row. Created either by back-office import or
// as a side effect of an approved registration request.
type Dealer struct {
	ID         int64
	DealerCode string
	Name       string
	Address    string
	City       string
	State      string
	Country    string
	PostalCode string
	Phone      string
	Email      string
	Brand      string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
