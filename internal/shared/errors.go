package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateRegistration indicates a submission colliding with an open
	// request or an active account.
	ErrDuplicateRegistration = errors.New("duplicate registration")
	// ErrRequestNotFound indicates an unknown registration request id.
	ErrRequestNotFound = errors.New("registration request not found")
	// ErrAlreadyTerminal indicates a transition attempted on an approved or
	// rejected request.
	ErrAlreadyTerminal = errors.New("registration request already finalised")
	// ErrStorage wraps backing-store failures so callers can distinguish
	// infrastructure faults from guard violations.
	ErrStorage = errors.New("storage failure")
)
