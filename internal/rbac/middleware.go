package rbac

import (
	"log/slog"
	"net/http"

	"github.com/dealerlink/dealerlink/internal/platform/httpx"
)

// DenialObserver receives the gate kind of every denial, for metrics.
type DenialObserver interface {
	ObserveAuthzDenial(kind string)
}

// Middleware wires the authorization evaluator into chi handler chains. Every
// gate variant goes through the same Authorize pipeline so denials share one
// taxonomy.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
	Observer  DenialObserver
}

// RequireRoles allows only principals holding at least one of the roles.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return m.require(RequireRoles(roles...))
}

// RequireAdmin allows only manufacturer-side administrators.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.require(RequireAdmin())
}

// RequireFeature allows only principals with view access to the feature.
func (m Middleware) RequireFeature(feature Feature) func(http.Handler) http.Handler {
	return m.require(RequireFeature(feature))
}

// RequireFeatureAction allows only principals granted the action on the
// feature.
func (m Middleware) RequireFeatureAction(feature Feature, action Action) func(http.Handler) http.Handler {
	return m.require(RequireFeatureAction(feature, action))
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if err := m.Evaluator.Authorize(principal, req); err != nil {
				m.deny(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, err error) {
	denial, ok := err.(*Denial)
	if !ok {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	if m.Logger != nil {
		m.Logger.Warn("authorization denied",
			slog.String("kind", string(denial.Kind)),
			slog.Int64("user_id", denial.UserID),
			slog.String("requirement", denial.Requirement.String()),
		)
	}
	if m.Observer != nil {
		m.Observer.ObserveAuthzDenial(string(denial.Kind))
	}
	WriteDenial(w, denial)
}

// WriteDenial renders a denial as an RFC7807 problem, keeping each gate kind
// user-distinguishable. Collapsing approval and permission failures into one
// generic body would regress the portal UX.
func WriteDenial(w http.ResponseWriter, denial *Denial) {
	switch denial.Kind {
	case DenyUnauthenticated:
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
	case DenyApprovalPending:
		httpx.Problem(w, http.StatusForbidden, "Approval Pending", "Your account approval is pending")
	case DenyApprovalRejected:
		detail := "Your account has been rejected"
		if denial.Reason != "" {
			detail += ": " + denial.Reason
		}
		httpx.Problem(w, http.StatusForbidden, "Approval Rejected", detail)
	case DenyFeatureForbidden:
		httpx.Problem(w, http.StatusForbidden, "Feature Forbidden", "You do not have access to this feature")
	case DenyActionForbidden:
		httpx.Problem(w, http.StatusForbidden, "Action Forbidden", "You do not have permission to perform this action")
	default:
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions for this resource")
	}
}
