package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attestgate/internal/privacy/models"
	"attestgate/pkg/domain"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/audit"
	"attestgate/pkg/platform/sentinel"
	"attestgate/pkg/requestcontext"
)

// DeleteSubjectData erases a subject across all four stores:
//
//	delete secrets -> anonymize events -> anonymize payments -> delete account
//
// The steps run strictly in this order and each failure is caught,
// recorded in the summary, and never aborts the steps after it. Secrets go
// first because they are the most sensitive data; the account row goes
// last because earlier steps' lookups may depend on it. There is no
// cross-store transaction: the stores are independent systems, so erasure
// maximizes what it can remove rather than being all-or-nothing.
//
// A NotFound from a delete step means the data is already gone, which is
// the requested end state. The step's flag stays false and no failure is
// recorded, so re-running a deletion is harmless.
//
// The only error returned is for a nil subject ID; everything else is a
// summary, never an error.
func (s *Service) DeleteSubjectData(ctx context.Context, subjectID domain.SubjectID) (models.DeletionSummary, error) {
	if subjectID.IsNil() {
		return models.DeletionSummary{}, dErrors.New(dErrors.CodeBadRequest, "subject ID required")
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "privacy.delete_subject_data",
		trace.WithAttributes(attribute.String("subject_ref", domain.SubjectReferenceCode(subjectID))))
	defer span.End()

	summary := models.DeletionSummary{
		SubjectID:    subjectID,
		StepFailures: map[string]string{},
	}

	s.runStep(ctx, &summary, models.StepDeleteSecrets, func(ctx context.Context) error {
		err := s.secrets.Delete(ctx, subjectID)
		if err == nil {
			summary.SecretsDeleted = true
		}
		return err
	})

	s.runStep(ctx, &summary, models.StepAnonymizeEvents, func(ctx context.Context) error {
		count, err := s.events.AnonymizeForSubject(ctx, subjectID)
		summary.EventsAnonymized = count
		return err
	})

	s.runStep(ctx, &summary, models.StepAnonymizePayments, func(ctx context.Context) error {
		count, err := s.payments.AnonymizeForSubject(ctx, subjectID)
		summary.PaymentsAnonymized = count
		return err
	})

	s.runStep(ctx, &summary, models.StepDeleteAccount, func(ctx context.Context) error {
		err := s.accounts.Delete(ctx, subjectID)
		if err == nil {
			summary.AccountDeleted = true
		}
		return err
	})

	summary.CompletedAt = requestcontext.Now(ctx)
	if len(summary.StepFailures) == 0 {
		summary.StepFailures = nil
	}

	s.metrics.IncDeletion()
	s.metrics.ObserveDeletion(start)

	s.logAudit(ctx, audit.EventSubjectErased, audit.Event{
		Timestamp:      summary.CompletedAt,
		SubjectRefCode: domain.SubjectReferenceCode(subjectID),
		Decision:       erasureDecision(summary),
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        requestcontext.AuthID(ctx),
	})

	s.logger.InfoContext(ctx, "subject data erased",
		"subject_ref", domain.SubjectReferenceCode(subjectID),
		"secrets_deleted", summary.SecretsDeleted,
		"events_anonymized", summary.EventsAnonymized,
		"payments_anonymized", summary.PaymentsAnonymized,
		"account_deleted", summary.AccountDeleted,
		"step_failures", len(summary.StepFailures),
	)

	return summary, nil
}

// runStep executes one erasure step with failure isolation. NotFound is a
// soft success: the data the step was meant to remove does not exist.
func (s *Service) runStep(ctx context.Context, summary *models.DeletionSummary, step string, fn func(context.Context) error) {
	ctx, span := s.tracer.Start(ctx, "privacy."+step)
	defer span.End()

	err := fn(ctx)
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		return
	}

	span.RecordError(err)
	summary.StepFailures[step] = err.Error()
	s.metrics.IncStepFailure(step)
	s.logger.ErrorContext(ctx, "erasure step failed",
		"step", step,
		"subject_ref", domain.SubjectReferenceCode(summary.SubjectID),
		"error", err,
	)
}

func erasureDecision(summary models.DeletionSummary) string {
	if summary.Failed() {
		return "partial"
	}
	return "complete"
}
