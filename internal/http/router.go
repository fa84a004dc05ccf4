package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/schoolapply/registration-api/internal/applicant"
	"github.com/schoolapply/registration-api/internal/auth"
	"github.com/schoolapply/registration-api/internal/config"
	"github.com/schoolapply/registration-api/internal/httputil"
	"github.com/schoolapply/registration-api/internal/logging"
	"github.com/schoolapply/registration-api/internal/schoolclass"
	"github.com/schoolapply/registration-api/internal/status"
	"github.com/schoolapply/registration-api/internal/user"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	applicantHandler *applicant.Handler,
	userHandler *user.Handler,
	schoolClassHandler *schoolclass.Handler,
	statusHandler *status.Handler,
	authMiddleware *auth.Middleware,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		logger.Info("swagger UI disabled (production mode)")
	}

	// The registration form loads the track catalogue before any account exists
	r.Get("/schoolClass", schoolClassHandler.List)

	r.Route("/applicant", func(r chi.Router) {
		// Public: registration and the confirmation workflow
		r.Post("/register", applicantHandler.Register)
		r.Post("/signIn", applicantHandler.SignIn)
		r.Post("/confirm", applicantHandler.Confirm)
		r.Post("/{id}/resendConfirmation", applicantHandler.ResendConfirmation)

		// Applicant-scoped
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/current", applicantHandler.Current)
			r.Patch("/{id}", applicantHandler.Update)
			r.Delete("/{id}", applicantHandler.Delete)
		})

		// Administration-scoped
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(authMiddleware.RequireRole(auth.RoleAdministration))
			r.Get("/", applicantHandler.List)
			r.Get("/export-csv", applicantHandler.ExportCSV)
			r.Get("/{id}", applicantHandler.GetOne)
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Post("/signIn", userHandler.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(authMiddleware.RequireRole(auth.RoleAdministration))
			r.Post("/register", userHandler.Register)
			r.Get("/current", userHandler.Current)
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.GetOne)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(authMiddleware.RequireRole(auth.RoleAdministration))
		r.Get("/applicantStatus", statusHandler.List)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
