package applicant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/schoolapply/registration-api/internal/auth"
	"github.com/schoolapply/registration-api/internal/confirm"
	"github.com/schoolapply/registration-api/internal/credentials"
	"github.com/schoolapply/registration-api/internal/httputil"
	"github.com/schoolapply/registration-api/internal/logging"
	"github.com/schoolapply/registration-api/internal/ratelimit"
)

// Handler contains HTTP handlers for applicant endpoints
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

// ConfirmRequest represents the email-confirmation request body
type ConfirmRequest struct {
	Token string `json:"token"`
}

// Register handles applicant registration
// @Summary      Register a new applicant
// @Description  Create an applicant account with ranked school-track choices. A confirmation email will be sent.
// @Tags         applicant
// @Accept       json
// @Produce      json
// @Param        request body RegisterInput true "Registration data"
// @Success      201 {object} Applicant
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /applicant/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.throttled(w, r, "register") {
		return
	}

	var input RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": input.Email})

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
			httputil.RespondErrorWithCode(w, "failed to register applicant", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("applicant registered successfully", "applicant_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// SignIn handles applicant sign-in
// @Summary      Applicant sign-in
// @Description  Verify credentials and receive an applicant-scoped bearer token
// @Tags         applicant
// @Accept       json
// @Produce      json
// @Param        request body SignInRequest true "Credentials"
// @Success      200 {object} auth.Session
// @Failure      401 {object} httputil.ErrorResponse "Unknown email or wrong password"
// @Failure      403 {object} httputil.ErrorResponse "Account deactivated"
// @Router       /applicant/signIn [post]
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.throttled(w, r, "signin") {
		return
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
		respondVerifyError(w, logger, err)
		return
	}

	logger.Info("applicant signed in successfully")
	httputil.RespondJSON(w, session, http.StatusOK)
}

// Confirm handles email confirmation
// @Summary      Confirm email address
// @Description  Confirm an applicant's email using the token from the confirmation link
// @Tags         applicant
// @Accept       json
// @Produce      json
// @Param        request body ConfirmRequest true "Confirmation token"
// @Success      200 {object} Applicant
// @Failure      400 {object} httputil.ErrorResponse "Expired, invalid or already used token"
// @Router       /applicant/confirm [post]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid confirm request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		logger.Warn("email confirmation failed: token missing")
		httputil.RespondErrorWithCode(w, "confirmation token required", httputil.CodeTokenInvalid, http.StatusBadRequest)
		return
	}

	confirmed, err := h.service.Confirm(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, confirm.ErrTokenExpired):
			logger.Warn("email confirmation failed: token expired")
			httputil.RespondErrorWithCode(w, "confirmation link has expired, please request a new one", httputil.CodeTokenExpired, http.StatusBadRequest)
		case errors.Is(err, confirm.ErrAlreadyConfirmed):
			logger.Warn("email confirmation failed: already confirmed")
			httputil.RespondErrorWithCode(w, "this email is already confirmed", httputil.CodeEmailAlreadyConfirmed, http.StatusBadRequest)
		case errors.Is(err, confirm.ErrTokenInvalid):
			logger.Warn("email confirmation failed: invalid token")
			httputil.RespondErrorWithCode(w, "invalid confirmation token", httputil.CodeTokenInvalid, http.StatusBadRequest)
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("email confirmation timed out")
			httputil.RespondErrorWithCode(w, "confirmation timed out, please try again", httputil.CodeTimeout, http.StatusServiceUnavailable)
		default:
			logger.Error("email confirmation failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to confirm email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("email confirmed successfully", "applicant_id", confirmed.ID)
	httputil.RespondJSON(w, confirmed, http.StatusOK)
}

// ResendConfirmation dispatches a fresh confirmation link
// @Summary      Resend confirmation email
// @Description  Send a new confirmation link for an unconfirmed applicant
// @Tags         applicant
// @Produce      json
// @Param        id path string true "Applicant ID"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Email already confirmed"
// @Failure      404 {object} httputil.ErrorResponse "Applicant not found"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /applicant/{id}/resendConfirmation [post]
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid applicant id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if h.throttled(w, r, "resend") {
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, confirm.ErrAlreadyConfirmed):
			logger.Warn("resend confirmation failed: already confirmed", "applicant_id", id)
			httputil.RespondErrorWithCode(w, "this email is already confirmed", httputil.CodeEmailAlreadyConfirmed, http.StatusBadRequest)
		case errors.Is(err, confirm.ErrCooldownActive):
			logger.Warn("resend confirmation failed: cooldown active", "applicant_id", id)
			httputil.RespondErrorWithCode(w, "please wait before requesting another confirmation link", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		case errors.Is(err, confirm.ErrIdentityNotFound):
			logger.Warn("resend confirmation failed: applicant not found", "applicant_id", id)
			httputil.RespondErrorWithCode(w, "applicant not found", httputil.CodeNotFound, http.StatusNotFound)
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("resend confirmation timed out", "applicant_id", id)
			httputil.RespondErrorWithCode(w, "dispatch timed out, please try again", httputil.CodeTimeout, http.StatusServiceUnavailable)
		default:
			logger.Error("resend confirmation failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to resend confirmation", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("confirmation link resent", "applicant_id", id)
	httputil.RespondJSON(w, map[string]string{"message": "confirmation link sent"}, http.StatusOK)
}

// Current returns the applicant belonging to the session
// @Summary      Current applicant
// @Tags         applicant
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Applicant
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /applicant/current [get]
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := auth.GetIdentityIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	a, err := h.service.GetOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "applicant not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current applicant", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load applicant", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	// Unconfirmed accounts may not use the application area yet
	if !a.EmailConfirmed {
		httputil.RespondErrorWithCode(w, "email not confirmed", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	httputil.RespondJSON(w, a, http.StatusOK)
}

// GetOne returns a single applicant (administration)
// @Summary      Get applicant
// @Tags         applicant
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Applicant ID"
// @Success      200 {object} Applicant
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /applicant/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid applicant id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	a, err := h.service.GetOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "applicant not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load applicant", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load applicant", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, a, http.StatusOK)
}

// List returns applicants for the administration view
// @Summary      List applicants
// @Tags         applicant
// @Produce      json
// @Security     BearerAuth
// @Param        all query bool false "Include completed applicants"
// @Param        search query string false "Search in names and email"
// @Success      200 {array} Applicant
// @Router       /applicant [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	includeCompleted := r.URL.Query().Get("all") == "true"
	search := r.URL.Query().Get("search")

	applicants, err := h.service.List(r.Context(), search, includeCompleted)
	if err != nil {
		logger.Error("failed to list applicants", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list applicants", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, applicants, http.StatusOK)
}

// Update applies a partial update to an applicant
// @Summary      Update applicant
// @Tags         applicant
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Applicant ID"
// @Param        request body UpdateInput true "Update data"
// @Success      200 {object} Applicant
// @Failure      403 {object} httputil.ErrorResponse "Not your record"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /applicant/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid applicant id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if !h.mayAccess(r, id) {
		httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logger.Warn("invalid update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			logger.Warn("update failed: validation error", "error", err.Error())
			httputil.RespondErrorWithCode(w, validationMessage(validationErrs), httputil.CodeValidationFailed, http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "applicant not found", httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("update failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to update applicant", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("applicant updated", "applicant_id", id)
	httputil.RespondJSON(w, updated, http.StatusOK)
}

// Delete removes an applicant
// @Summary      Delete applicant
// @Tags         applicant
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Applicant ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Router       /applicant/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid applicant id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if !h.mayAccess(r, id) {
		httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "applicant not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("delete failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete applicant", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("applicant deleted", "applicant_id", id)
	httputil.RespondJSON(w, map[string]string{"message": "applicant deleted"}, http.StatusOK)
}

// ExportCSV streams applicant data as CSV (administration)
// @Summary      Export applicants as CSV
// @Tags         applicant
// @Produce      text/csv
// @Security     BearerAuth
// @Param        statusKey query string false "Filter by status key"
// @Success      200 {string} string
// @Router       /applicant/export-csv [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	data, err := h.service.ExportCSV(r.Context(), r.URL.Query().Get("statusKey"))
	if err != nil {
		logger.Error("CSV export failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to export applicants", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="applicants.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write CSV response", "error", err.Error())
	}
}

// respondVerifyError maps credential verification failures to responses.
// Each failure surfaces its own code; nothing beyond the defined codes leaks
// about the stored record.
func respondVerifyError(w http.ResponseWriter, logger *logging.Logger, err error) {
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
}

// mayAccess reports whether the session may touch the given applicant record:
// administrators always, applicants only their own.
func (h *Handler) mayAccess(r *http.Request, id uuid.UUID) bool {
	role, ok := auth.GetRoleFromContext(r.Context())
	if !ok {
		return false
	}
	if role == auth.RoleAdministration {
		return true
	}

	sessionID, ok := auth.GetIdentityIDFromContext(r.Context())
	return ok && sessionID == id
}

// throttled applies IP rate limiting and reports whether the request was
// rejected. Limiter failures are logged but never block legitimate requests.
func (h *Handler) throttled(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := ratelimit.ClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// validationMessage flattens validator errors into a single message
func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fe.Field()+" failed on "+fe.Tag())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
