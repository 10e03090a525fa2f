// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/dealerlink/dealerlink/internal/shared"
)

// RespondError maps domain errors to RFC7807 responses. Each workflow error
// kind gets its own status and title so the frontend can show an accurate
// message instead of a generic failure.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrRequestNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateRegistration):
		Problem(w, http.StatusConflict, "Duplicate Registration", "A registration with this dealer code or email already exists")
	case errors.Is(err, shared.ErrAlreadyTerminal):
		Problem(w, http.StatusConflict, "Already Finalised", "This registration request has already been approved or rejected")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid email or password")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
