package registration

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dealerlink/dealerlink/internal/platform/httpx"
	"github.com/dealerlink/dealerlink/internal/rbac"
)

// Handler exposes the registration workflow over HTTP. Submission is public;
// everything else sits behind the administrative gate.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountPublicRoutes registers the unauthenticated submission endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/requests", h.submit)
}

// MountAdminRoutes registers the review endpoints. The caller wraps these in
// the admin middleware.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/requests", h.list)
	r.Get("/requests/{id}", h.get)
	r.Put("/requests/{id}/review", h.review)
	r.Post("/requests/{id}/approve", h.approve)
	r.Post("/requests/{id}/reject", h.reject)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var input SubmitInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	req, err := h.service.Submit(r.Context(), input, clientMeta(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":     req.ID,
		"status": req.Status,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		filter.Offset, _ = strconv.Atoi(raw)
	}

	requests, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if requests == nil {
		requests = []Request{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"total":    total,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	req, trail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if trail == nil {
		trail = []AuditEntry{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"request":  req,
		"auditLog": trail,
	})
}

type reviewInput struct {
	Status   string `json:"status"`
	Comments string `json:"comments"`
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	var input reviewInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	err := h.service.Review(r.Context(), id, Status(input.Status), actor(r), input.Comments, clientMeta(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "status": input.Status})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	var input ApproveInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	result, err := h.service.Approve(r.Context(), id, input, actor(r), clientMeta(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type rejectInput struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	var input rejectInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request Body", err.Error())
		return
	}

	err := h.service.Reject(r.Context(), id, input.Reason, actor(r), clientMeta(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "status": StatusRejected})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpx.ValidationProblem(w, verr.Fields)
		return
	}
	h.logger.Error("registration request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request ID", "request id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func actor(r *http.Request) Actor {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		return Actor{}
	}
	return Actor{ID: principal.UserID, Email: principal.Email}
}

func clientMeta(r *http.Request) ClientMeta {
	return ClientMeta{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}
