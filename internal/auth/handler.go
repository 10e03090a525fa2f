package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dealerlink/dealerlink/internal/platform/httpx"
	"github.com/dealerlink/dealerlink/internal/rbac"
)

// Handler serves the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	evaluator *rbac.Evaluator
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, evaluator *rbac.Evaluator) *Handler {
	return &Handler{logger: logger, service: service, evaluator: evaluator}
}

// MountPublicRoutes registers the unauthenticated auth endpoints.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
}

// MountProtectedRoutes registers endpoints requiring a principal.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.logout)
	r.Get("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		httpx.ValidationProblem(w, map[string]string{"email": "email and password are required"})
		return
	}

	user, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"tokens": pair,
		"user": map[string]any{
			"id":       user.ID,
			"email":    user.Email,
			"name":     user.Name,
			"userType": user.UserType,
			"dealerId": user.DealerID,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "refresh token required")
		return
	}
	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tokens": pair})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		rbac.WriteDenial(w, &rbac.Denial{Kind: rbac.DenyUnauthenticated})
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

// me returns the resolved principal plus its accessible features, the shape
// the dashboard bootstraps from.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		rbac.WriteDenial(w, &rbac.Denial{Kind: rbac.DenyUnauthenticated})
		return
	}
	features := h.evaluator.AccessibleFeatures(principal)
	if features == nil {
		features = []rbac.FeatureInfo{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":             principal.UserID,
			"email":          principal.Email,
			"userType":       principal.UserType,
			"dealerId":       principal.DealerID,
			"roles":          principal.Roles,
			"approvalStatus": principal.ApprovalStatus,
		},
		"features": features,
	})
}
