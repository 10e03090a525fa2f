package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealerlink/dealerlink/internal/platform/httpx"
)

// Handler serves the feature catalog and the permission report consumed by
// the dashboard frontend.
type Handler struct {
	logger    *slog.Logger
	evaluator *Evaluator
	mw        Middleware
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, evaluator *Evaluator, mw Middleware) *Handler {
	return &Handler{logger: logger, evaluator: evaluator, mw: mw}
}

// MountRoutes registers rbac routes under the authenticated API group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/features", h.listFeatures)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAdmin())
		r.Get("/permissions", h.permissionReport)
	})
}

// listFeatures returns the union of the caller's feature grants with display
// metadata, ordered for the dashboard.
func (h *Handler) listFeatures(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		WriteDenial(w, &Denial{Kind: DenyUnauthenticated})
		return
	}
	features := h.evaluator.AccessibleFeatures(principal)
	if features == nil {
		features = []FeatureInfo{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"features": features})
}

type rolePermissions struct {
	Role        Role          `json:"role"`
	DisplayName string        `json:"displayName"`
	Admin       bool          `json:"admin"`
	Features    []FeatureInfo `json:"features"`
}

type featureRoles struct {
	Feature Feature `json:"feature"`
	Roles   []Role  `json:"roles"`
}

// permissionReport renders the static matrix both ways (role→features and
// feature→roles) for administrative review.
func (h *Handler) permissionReport(w http.ResponseWriter, r *http.Request) {
	matrix := h.evaluator.Matrix()

	var byRole []rolePermissions
	for _, role := range []Role{
		RoleDealerGM, RoleServiceHead, RoleServiceManager,
		RoleMasterTechnician, RoleWarrantyManager,
		RoleManufacturerAdmin, RoleSuperAdmin,
	} {
		entry := rolePermissions{
			Role:        role,
			DisplayName: matrix.RoleDisplayName(role),
			Admin:       matrix.IsAdminRole(role),
			Features:    matrix.AccessibleFeatures(role),
		}
		if entry.Features == nil {
			entry.Features = []FeatureInfo{}
		}
		byRole = append(byRole, entry)
	}

	var byFeature []featureRoles
	for _, f := range matrix.Features() {
		roles := matrix.RolesGranting(f.Slug)
		if roles == nil {
			roles = []Role{}
		}
		byFeature = append(byFeature, featureRoles{Feature: f.Slug, Roles: roles})
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"roles":    byRole,
		"features": byFeature,
	})
}
