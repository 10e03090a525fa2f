package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dealerlink/dealerlink/internal/rbac"
)

// PrincipalSource resolves the mutable half of a principal (roles, approval
// status). Implemented by rbac.Store.
type PrincipalSource interface {
	PrincipalState(ctx context.Context, userID int64) (*rbac.PrincipalState, error)
}

// Middleware turns bearer tokens into context principals.
type Middleware struct {
	Tokens   *TokenManager
	Sessions *SessionRegistry
	States   PrincipalSource
	Logger   *slog.Logger
}

// Authenticate verifies the bearer token, checks the session registry, loads
// role assignments and approval status, and stores an immutable Principal in
// context. Requests without a token pass through unauthenticated; the
// evaluator's identity gate denies them where it matters.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.Tokens.Verify(token, TokenKindAccess)
		if err != nil {
			rbac.WriteDenial(w, &rbac.Denial{Kind: rbac.DenyUnauthenticated})
			return
		}
		active, err := m.Sessions.Active(r.Context(), claims.ID)
		if err != nil {
			m.Logger.Error("session registry lookup", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !active {
			rbac.WriteDenial(w, &rbac.Denial{Kind: rbac.DenyUnauthenticated})
			return
		}

		state, err := m.States.PrincipalState(r.Context(), claims.UserID)
		if err != nil {
			m.Logger.Error("load principal state", slog.Int64("user_id", claims.UserID), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		principal := &rbac.Principal{
			UserID:          claims.UserID,
			Email:           claims.Email,
			Name:            claims.Subject,
			UserType:        claims.UserType,
			DealerID:        claims.DealerID,
			Roles:           state.Roles,
			ApprovalStatus:  state.ApprovalStatus,
			RejectionReason: state.RejectionReason,
		}
		ctx := rbac.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthenticated short-circuits requests that carry no principal.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rbac.PrincipalFromContext(r.Context()) == nil {
			rbac.WriteDenial(w, &rbac.Denial{Kind: rbac.DenyUnauthenticated})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
