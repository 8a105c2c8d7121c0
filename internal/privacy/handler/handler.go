// Package handler exposes the data subject rights endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attestgate/internal/privacy/models"
	"attestgate/pkg/domain"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/httputil"
	"attestgate/pkg/platform/middleware"
	"attestgate/pkg/requestcontext"
)

// Service defines the subject rights operations the handler needs.
type Service interface {
	DeleteSubjectData(ctx context.Context, subjectID domain.SubjectID) (models.DeletionSummary, error)
	ValidateOwnership(ctx context.Context, authID string, subjectID domain.SubjectID) bool
	ExportSubjectData(ctx context.Context, subjectID domain.SubjectID) (models.DataExport, error)
}

// Handler handles subject rights endpoints.
type Handler struct {
	logger       *slog.Logger
	privacy      Service
	jwtValidator middleware.JWTValidator
}

// New creates a subject rights Handler.
func New(privacy Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		privacy:      privacy,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the subject rights routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	router.Get("/subjects/{id}/export", h.handleExport)
	router.Delete("/subjects/{id}", h.handleDelete)

	r.Mount("/", router)
}

// subjectFromRequest parses the subject path param and enforces ownership.
// Ownership failures deliberately read as not found so the endpoint does
// not confirm which subject IDs exist.
func (h *Handler) subjectFromRequest(r *http.Request) (domain.SubjectID, error) {
	ctx := r.Context()

	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "id"))
	if err != nil {
		return domain.SubjectID{}, dErrors.New(dErrors.CodeBadRequest, "invalid subject ID")
	}

	authID := requestcontext.AuthID(ctx)
	if !h.privacy.ValidateOwnership(ctx, authID, subjectID) {
		return domain.SubjectID{}, dErrors.New(dErrors.CodeNotFound, "subject not found")
	}
	return subjectID, nil
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := h.subjectFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	export, err := h.privacy.ExportSubjectData(ctx, subjectID)
	if err != nil {
		h.logger.ErrorContext(ctx, "subject export failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, export)
}

// handleDelete always answers 200 with the summary body when the request
// itself is well formed; per-step outcomes live in the summary fields.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjectID, err := h.subjectFromRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summary, err := h.privacy.DeleteSubjectData(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}
