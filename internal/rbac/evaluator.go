package rbac

import (
	"fmt"
	"strings"
)

// DenialKind discriminates why an authorization failed. Each gate reports its
// own kind so callers can render an accurate message instead of a generic
// forbidden.
type DenialKind string

const (
	DenyUnauthenticated  DenialKind = "unauthenticated"
	DenyApprovalPending  DenialKind = "approval_pending"
	DenyApprovalRejected DenialKind = "approval_rejected"
	DenyForbidden        DenialKind = "forbidden"
	DenyFeatureForbidden DenialKind = "feature_forbidden"
	DenyActionForbidden  DenialKind = "action_forbidden"
)

// Denial is the typed result of a failed authorization. It carries enough
// structure for the caller to log who was denied what and why.
type Denial struct {
	Kind        DenialKind
	UserID      int64
	Requirement Requirement
	Reason      string
}

func (d *Denial) Error() string {
	if d.Reason != "" {
		return fmt.Sprintf("rbac: %s (%s)", d.Kind, d.Reason)
	}
	return fmt.Sprintf("rbac: %s", d.Kind)
}

type requirementKind int

const (
	requireRoles requirementKind = iota
	requireAdmin
	requireFeature
	requireFeatureAction
)

// Requirement describes what an endpoint demands of the principal. Construct
// with RequireRoles, RequireAdmin, RequireFeature or RequireFeatureAction.
type Requirement struct {
	kind    requirementKind
	roles   []Role
	feature Feature
	action  Action
}

// RequireRoles demands that the principal hold at least one of the roles.
func RequireRoles(roles ...Role) Requirement {
	return Requirement{kind: requireRoles, roles: roles}
}

// RequireAdmin demands a manufacturer-side administrative role.
func RequireAdmin() Requirement {
	return Requirement{kind: requireAdmin}
}

// RequireFeature demands view access to the feature through any held role.
func RequireFeature(feature Feature) Requirement {
	return Requirement{kind: requireFeature, feature: feature}
}

// RequireFeatureAction demands the specific action on the feature through any
// held role.
func RequireFeatureAction(feature Feature, action Action) Requirement {
	return Requirement{kind: requireFeatureAction, feature: feature, action: action}
}

// String renders the requirement for logs.
func (r Requirement) String() string {
	switch r.kind {
	case requireAdmin:
		return "admin"
	case requireRoles:
		parts := make([]string, len(r.roles))
		for i, role := range r.roles {
			parts[i] = string(role)
		}
		return "roles:" + strings.Join(parts, ",")
	case requireFeatureAction:
		return fmt.Sprintf("feature:%s action:%s", r.feature, r.action)
	default:
		return "feature:" + string(r.feature)
	}
}

// Evaluator decides allow/deny by running the gate pipeline against the
// permission matrix. It performs no I/O; the principal arrives fully
// resolved.
type Evaluator struct {
	matrix *Matrix
}

// NewEvaluator constructs an Evaluator over the given matrix.
func NewEvaluator(matrix *Matrix) *Evaluator {
	return &Evaluator{matrix: matrix}
}

// Matrix exposes the underlying permission table.
func (e *Evaluator) Matrix() *Matrix {
	return e.matrix
}

// Authorize runs the gates in order, short-circuiting on the first failure:
// identity, approval, role, feature, action. A nil return means allowed; a
// non-nil return is always a *Denial.
func (e *Evaluator) Authorize(p *Principal, req Requirement) error {
	if p == nil {
		return &Denial{Kind: DenyUnauthenticated, Requirement: req}
	}

	switch p.ApprovalStatus {
	case ApprovalApproved:
	case ApprovalRejected:
		return &Denial{Kind: DenyApprovalRejected, UserID: p.UserID, Requirement: req, Reason: p.RejectionReason}
	default:
		// Pending and any unknown status block everything.
		return &Denial{Kind: DenyApprovalPending, UserID: p.UserID, Requirement: req}
	}

	switch req.kind {
	case requireRoles:
		for _, required := range req.roles {
			if p.HasRole(required) {
				return nil
			}
		}
		return &Denial{Kind: DenyForbidden, UserID: p.UserID, Requirement: req}

	case requireAdmin:
		for _, held := range p.Roles {
			if e.matrix.IsAdminRole(held) {
				return nil
			}
		}
		return &Denial{Kind: DenyForbidden, UserID: p.UserID, Requirement: req}

	case requireFeature:
		if e.featureAllowed(p, req.feature) {
			return nil
		}
		return &Denial{Kind: DenyFeatureForbidden, UserID: p.UserID, Requirement: req}

	case requireFeatureAction:
		if !e.featureAllowed(p, req.feature) {
			return &Denial{Kind: DenyFeatureForbidden, UserID: p.UserID, Requirement: req}
		}
		if e.actionAllowed(p, req.feature, req.action) {
			return nil
		}
		return &Denial{Kind: DenyActionForbidden, UserID: p.UserID, Requirement: req}
	}

	return &Denial{Kind: DenyForbidden, UserID: p.UserID, Requirement: req}
}

// AccessibleFeatures returns the union of feature grants across every role
// the principal holds, ordered by display order. Administrative roles see the
// whole catalog.
func (e *Evaluator) AccessibleFeatures(p *Principal) []FeatureInfo {
	if p == nil {
		return nil
	}
	seen := make(map[Feature]struct{})
	for _, role := range p.Roles {
		if e.matrix.IsAdminRole(role) {
			return e.matrix.Features()
		}
		for _, f := range e.matrix.AccessibleFeatures(role) {
			seen[f.Slug] = struct{}{}
		}
	}
	var features []FeatureInfo
	for _, f := range e.matrix.Features() {
		if _, ok := seen[f.Slug]; ok {
			features = append(features, f)
		}
	}
	return features
}

// Access is the union, not the intersection, of each held role's grants:
// dealer staff routinely combine responsibilities.
func (e *Evaluator) featureAllowed(p *Principal, feature Feature) bool {
	for _, role := range p.Roles {
		if e.matrix.IsAdminRole(role) || e.matrix.HasAccess(role, feature) {
			return true
		}
	}
	return false
}

func (e *Evaluator) actionAllowed(p *Principal, feature Feature, action Action) bool {
	for _, role := range p.Roles {
		if e.matrix.IsAdminRole(role) || e.matrix.CanPerform(role, feature, action) {
			return true
		}
	}
	return false
}
