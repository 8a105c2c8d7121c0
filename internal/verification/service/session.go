package service

import (
	"context"

	"attestgate/internal/verification/models"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/requestcontext"
)

// RegisterSession binds a provider inquiry ref to the subject and
// counterparty that started it, so the completion webhook can resolve the
// subject without carrying identity in the payload. The provider assigns
// the ref; registering the same ref again overwrites the binding and
// resets the TTL.
func (s *Service) RegisterSession(ctx context.Context, session models.Session) error {
	if session.Ref == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session ref required")
	}
	if session.SubjectID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "subject ID required")
	}
	if session.CounterpartyID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "counterparty ID required")
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = requestcontext.Now(ctx)
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register session")
	}

	s.logger.InfoContext(ctx, "verification session registered", "ref", session.Ref)
	return nil
}
