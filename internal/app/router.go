package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealerlink/dealerlink/internal/auth"
	"github.com/dealerlink/dealerlink/internal/observability"
	"github.com/dealerlink/dealerlink/internal/rbac"
	"github.com/dealerlink/dealerlink/internal/registration"
	"github.com/dealerlink/dealerlink/internal/users"
	"github.com/dealerlink/dealerlink/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthHandler         *auth.Handler
	AuthMiddleware      auth.Middleware
	RBACHandler         *rbac.Handler
	RBACMiddleware      rbac.Middleware
	RegistrationHandler *registration.Handler
	UsersHandler        *users.Handler
	JobsHandler         *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi router for the portal API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthMiddleware.Authenticate)
				r.Use(auth.RequireAuthenticated)
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Route("/dealer-registration", func(r chi.Router) {
			// Submission is public but throttled harder than the rest of
			// the API.
			r.Group(func(r chi.Router) {
				r.Use(SubmissionRateLimit())
				params.RegistrationHandler.MountPublicRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(params.AuthMiddleware.Authenticate)
				r.Use(auth.RequireAuthenticated)
				r.Use(params.RBACMiddleware.RequireAdmin())
				params.RegistrationHandler.MountAdminRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			r.Use(auth.RequireAuthenticated)

			params.RBACHandler.MountRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireAdmin())
				r.Route("/users", params.UsersHandler.MountRoutes)
				if params.JobsHandler != nil {
					r.Route("/jobs", params.JobsHandler.MountRoutes)
				}
			})
		})
	})

	return r
}
