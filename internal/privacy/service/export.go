package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"attestgate/internal/privacy/models"
	"attestgate/pkg/domain"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/audit"
	"attestgate/pkg/platform/sentinel"
	"attestgate/pkg/requestcontext"
)

// ExportSubjectData aggregates the account record, full event history, and
// payment history for a subject access request. Encrypted secret records
// are never part of the export: encrypted PII does not leave the store
// through this path, even to its owner.
//
// Unlike erasure, export is a plain read path with no partial-success
// concept, so any store failure propagates. An export racing a deletion
// may observe a partially anonymized history; that is accepted.
func (s *Service) ExportSubjectData(ctx context.Context, subjectID domain.SubjectID) (models.DataExport, error) {
	if subjectID.IsNil() {
		return models.DataExport{}, dErrors.New(dErrors.CodeBadRequest, "subject ID required")
	}

	ctx, span := s.tracer.Start(ctx, "privacy.export_subject_data")
	defer span.End()

	var export models.DataExport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		account, err := s.accounts.GetBySubject(gctx, subjectID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Wrap(err, dErrors.CodeNotFound, "subject account not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		export.Account = *account
		return nil
	})
	g.Go(func() error {
		events, err := s.events.ListBySubject(gctx, subjectID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event history")
		}
		export.Events = events
		return nil
	})
	g.Go(func() error {
		payments, err := s.payments.ListBySubject(gctx, subjectID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment history")
		}
		export.Payments = payments
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return models.DataExport{}, err
	}

	export.ExportedAt = requestcontext.Now(ctx)

	s.metrics.IncExport()
	s.logAudit(ctx, audit.EventDataExported, audit.Event{
		Timestamp:      export.ExportedAt,
		SubjectRefCode: domain.SubjectReferenceCode(subjectID),
		Decision:       "exported",
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        requestcontext.AuthID(ctx),
	})

	return export, nil
}
