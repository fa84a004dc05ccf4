package status

import (
	"context"
	"fmt"
	"net/http"

	"github.com/uptrace/bun"

	"github.com/schoolapply/registration-api/internal/database"
	"github.com/schoolapply/registration-api/internal/httputil"
	"github.com/schoolapply/registration-api/internal/logging"
)

// ApplicantStatus is one processing state in the applicant workflow.
type ApplicantStatus struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Repository handles applicant-status persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List retrieves all statuses ordered by title
func (r *Repository) List(ctx context.Context) ([]*ApplicantStatus, error) {
	var dbStatuses []*database.ApplicantStatus
	err := r.db.NewSelect().
		Model(&dbStatuses).
		Order("title ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list applicant statuses: %w", err)
	}

	statuses := make([]*ApplicantStatus, 0, len(dbStatuses))
	for _, dbs := range dbStatuses {
		statuses = append(statuses, &ApplicantStatus{
			Key:   dbs.Key,
			Title: dbs.Title,
		})
	}

	return statuses, nil
}

// Handler contains HTTP handlers for applicant-status endpoints
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List returns all applicant statuses
// @Summary      List applicant statuses
// @Tags         applicantStatus
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} ApplicantStatus
// @Router       /applicantStatus [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	statuses, err := h.repo.List(r.Context())
	if err != nil {
		logger.Error("failed to list applicant statuses", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list applicant statuses", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, statuses, http.StatusOK)
}
