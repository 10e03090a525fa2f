package rbac

import "context"

// Principal is the immutable per-request representation of the authenticated
// actor: identity, assigned roles and the account-level approval gate. It is
// built once by the auth middleware and threaded through context.
type Principal struct {
	UserID          int64
	Email           string
	Name            string
	UserType        string
	DealerID        *int64
	Roles           []Role
	ApprovalStatus  ApprovalStatus
	RejectionReason string
}

// HasRole reports whether the principal holds the role.
func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, nil when unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
