package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/auth"
	"github.com/schoolapply/registration-api/internal/credentials"
	"github.com/schoolapply/registration-api/internal/httputil"
	"github.com/schoolapply/registration-api/internal/logging"
	"github.com/schoolapply/registration-api/internal/ratelimit"
)

// Handler contains HTTP handlers for administrative-user endpoints
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SignInRequest represents the sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles administrative sign-in
// @Summary      Administration sign-in
// @Description  Verify credentials and receive an administration-scoped bearer token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body SignInRequest true "Credentials"
// @Success      200 {object} auth.Session
// @Failure      401 {object} httputil.ErrorResponse "Unknown email or wrong password"
// @Failure      403 {object} httputil.ErrorResponse "Account deactivated"
// @Router       /user/signIn [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := ratelimit.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "admin-signin")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "admin-signin"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid sign-in request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrUserNotFound):
			logger.Warn("sign-in failed: user not found")
			httputil.RespondErrorWithCode(w, "no account exists for this email", httputil.CodeUserNotFound, http.StatusUnauthorized)
		case errors.Is(err, credentials.ErrUserNotActive):
			logger.Warn("sign-in failed: account deactivated")
			httputil.RespondErrorWithCode(w, "account is deactivated", httputil.CodeUserNotActive, http.StatusForbidden)
		case errors.Is(err, credentials.ErrWrongPassword):
			logger.Warn("sign-in failed: wrong password")
			httputil.RespondErrorWithCode(w, "wrong password", httputil.CodeWrongPassword, http.StatusUnauthorized)
		default:
			logger.Error("sign-in failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to sign in", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("administrative user signed in successfully")
	httputil.RespondJSON(w, session, http.StatusOK)
}

// Register creates a new administrative user
// @Summary      Create administrative user
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RegisterInput true "New user credentials"
// @Success      201 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Router       /user/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var input RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Register(r.Context(), input)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, validationMessage(validationErrs), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("administrative user registered", "user_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// Current returns the user belonging to the session
// @Summary      Current administrative user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} User
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /user/current [get]
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := auth.GetIdentityIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// GetOne returns a single administrative user
// @Summary      Get administrative user
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} User
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /user/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, err := h.service.GetOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// List returns all administrative users
// @Summary      List administrative users
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} User
// @Router       /user [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.service.List(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, users, http.StatusOK)
}

// validationMessage flattens validator errors into a single message
func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Field()+" failed on "+fe.Tag())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
