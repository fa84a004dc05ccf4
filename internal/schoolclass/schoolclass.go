package schoolclass

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/schoolapply/registration-api/internal/database"
	"github.com/schoolapply/registration-api/internal/httputil"
	"github.com/schoolapply/registration-api/internal/logging"
)

// SchoolClass is a school track applicants can apply for.
type SchoolClass struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
}

// Repository handles school-class persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List retrieves school classes, optionally filtered by a title substring.
// The registration form's track selector feeds from this.
func (r *Repository) List(ctx context.Context, title string) ([]*SchoolClass, error) {
	var dbClasses []*database.SchoolClass

	q := r.db.NewSelect().
		Model(&dbClasses).
		Order("title ASC")

	if title != "" {
		q = q.Where("title ILIKE ?", "%"+title+"%")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list school classes: %w", err)
	}

	classes := make([]*SchoolClass, 0, len(dbClasses))
	for _, dbc := range dbClasses {
		classes = append(classes, &SchoolClass{
			ID:          dbc.ID,
			Title:       dbc.Title,
			Description: dbc.Description,
		})
	}

	return classes, nil
}

// Handler contains HTTP handlers for school-class endpoints
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List returns school classes matching an optional title filter
// @Summary      List school classes
// @Tags         schoolClass
// @Produce      json
// @Param        title query string false "Title substring filter"
// @Success      200 {array} SchoolClass
// @Router       /schoolClass [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	classes, err := h.repo.List(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		logger.Error("failed to list school classes", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list school classes", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, classes, http.StatusOK)
}
