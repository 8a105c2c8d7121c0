// Package handler exposes the verification completion endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"attestgate/internal/attestation"
	"attestgate/internal/verification/models"
	"attestgate/pkg/domain"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/httputil"
	"attestgate/pkg/platform/middleware"
	"attestgate/pkg/requestcontext"
)

// Service defines the verification operations the handler needs.
type Service interface {
	RegisterSession(ctx context.Context, session models.Session) error
	Complete(ctx context.Context, req models.CompleteRequest) (models.Outcome, error)
}

// Handler handles verification endpoints.
type Handler struct {
	logger       *slog.Logger
	verification Service
	jwtValidator middleware.JWTValidator
}

// New creates a verification Handler.
func New(verification Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		verification: verification,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the verification routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Device)
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	router.Post("/verification/sessions", h.handleRegisterSession)
	router.Post("/verification/complete", h.handleComplete)

	r.Mount("/", router)
}

type registerSessionRequest struct {
	Ref            string `json:"ref"`
	SubjectID      string `json:"subject_id"`
	CounterpartyID string `json:"counterparty_id"`
}

func (h *Handler) handleRegisterSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerSessionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	subjectID, err := domain.ParseSubjectID(req.SubjectID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid subject ID"))
		return
	}
	counterpartyID, err := domain.ParseCounterpartyID(req.CounterpartyID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid counterparty ID"))
		return
	}

	if err := h.verification.RegisterSession(ctx, models.Session{
		Ref:            req.Ref,
		SubjectID:      subjectID,
		CounterpartyID: counterpartyID,
	}); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"ref": req.Ref})
}

type addressPayload struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type completeRequest struct {
	SessionRef string `json:"session_ref"`
	Identity   struct {
		DateOfBirth     string         `json:"date_of_birth"`
		Address         addressPayload `json:"address"`
		DocumentNumbers []string       `json:"document_numbers,omitempty"`
	} `json:"identity"`
	AddressMatch struct {
		Verified   bool    `json:"verified"`
		Confidence float64 `json:"confidence"`
	} `json:"address_match"`
	AgeThreshold int `json:"age_threshold,omitempty"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req completeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid verification request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	dob, err := time.Parse("2006-01-02", req.Identity.DateOfBirth)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "date_of_birth must be YYYY-MM-DD"))
		return
	}

	outcome, err := h.verification.Complete(ctx, models.CompleteRequest{
		SessionRef: req.SessionRef,
		Identity: models.IdentityAttributes{
			DateOfBirth: dob,
			Address: attestation.Address{
				Line1:      req.Identity.Address.Line1,
				Line2:      req.Identity.Address.Line2,
				City:       req.Identity.Address.City,
				Region:     req.Identity.Address.Region,
				PostalCode: req.Identity.Address.PostalCode,
				Country:    req.Identity.Address.Country,
			},
			DocumentNumbers: req.Identity.DocumentNumbers,
		},
		AddressMatch: attestation.MatchResult{
			Verified:   req.AddressMatch.Verified,
			Confidence: req.AddressMatch.Confidence,
		},
		AgeThreshold: req.AgeThreshold,
	})
	if err != nil {
		if dErrors.CodeOf(err).HTTPStatus() >= http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "verification completion failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, outcome)
}
