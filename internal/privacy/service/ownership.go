package service

import (
	"context"

	"attestgate/pkg/domain"
	"attestgate/pkg/platform/audit"
	"attestgate/pkg/requestcontext"
)

// ValidateOwnership reports whether the authenticated caller owns the
// target subject. It fails closed: any lookup error, missing account, or
// mismatch yields false rather than an error, because the callers are
// export and erasure paths where a wrong "yes" leaks another subject's
// data.
func (s *Service) ValidateOwnership(ctx context.Context, authID string, subjectID domain.SubjectID) bool {
	if authID == "" || subjectID.IsNil() {
		return false
	}

	account, err := s.accounts.GetBySubject(ctx, subjectID)
	if err != nil {
		s.logger.WarnContext(ctx, "ownership lookup failed closed",
			"subject_ref", domain.SubjectReferenceCode(subjectID),
			"error", err,
		)
		s.denyOwnership(ctx, authID, subjectID, "lookup failed")
		return false
	}

	if account.AuthID != authID {
		s.denyOwnership(ctx, authID, subjectID, "auth identity does not own subject")
		return false
	}
	return true
}

func (s *Service) denyOwnership(ctx context.Context, authID string, subjectID domain.SubjectID, reason string) {
	s.metrics.IncOwnershipDenied()
	s.logAudit(ctx, audit.EventOwnershipDenied, audit.Event{
		Timestamp:      requestcontext.Now(ctx),
		SubjectRefCode: domain.SubjectReferenceCode(subjectID),
		Decision:       "denied",
		Reason:         reason,
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        authID,
	})
}
