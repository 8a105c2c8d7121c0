// Package service completes identity verifications: it turns the decrypted
// identity attributes from the hosted provider into attestations, seals the
// sensitive payloads, and records the compliance event.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"attestgate/internal/attestation"
	"attestgate/internal/commitment"
	ledgerModels "attestgate/internal/ledger/models"
	"attestgate/internal/secrets/crypto"
	secretModels "attestgate/internal/secrets/models"
	"attestgate/internal/verification/metrics"
	"attestgate/internal/verification/models"
	"attestgate/pkg/domain"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/audit"
	"attestgate/pkg/platform/sentinel"
	"attestgate/pkg/requestcontext"
)

// SessionStore resolves inquiry sessions to their subject binding.
type SessionStore interface {
	Put(ctx context.Context, session models.Session) error
	Get(ctx context.Context, ref string) (*models.Session, error)
	Delete(ctx context.Context, ref string) error
}

// SecretStore persists sealed secret records.
type SecretStore interface {
	Create(ctx context.Context, record secretModels.SecretRecord) error
}

// EventStore appends compliance events.
type EventStore interface {
	Append(ctx context.Context, event ledgerModels.ComplianceEvent) (ledgerModels.ComplianceEvent, error)
}

// AnchorClient submits commitments for best-effort chain anchoring.
type AnchorClient interface {
	Submit(ctx context.Context, eventRef, commitment string) (*ledgerModels.AnchorInfo, error)
}

// TxRunner runs a function inside one storage transaction so the secret
// record and the compliance event land together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service completes verifications.
type Service struct {
	sessions SessionStore
	secrets  SecretStore
	events   EventStore
	keyring  *crypto.Keyring
	runner   TxRunner
	anchors  AnchorClient

	auditor audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAnchorClient enables best-effort chain anchoring.
func WithAnchorClient(c AnchorClient) Option {
	return func(s *Service) {
		s.anchors = c
	}
}

// WithTxRunner couples the secret and event writes in one transaction.
// Without a runner the writes run sequentially, which the in-memory stores
// rely on.
func WithTxRunner(r TxRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// New creates the verification service.
func New(sessions SessionStore, secrets SecretStore, events EventStore, keyring *crypto.Keyring, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("secret store is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if keyring == nil {
		return nil, fmt.Errorf("keyring is required")
	}

	s := &Service{
		sessions: sessions,
		secrets:  secrets,
		events:   events,
		keyring:  keyring,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Complete finishes a verification: both attestations are generated, the
// identity attributes and credential bundle are sealed, and the secret
// record plus compliance event are written together. Anchoring is attached
// best-effort and never blocks the append.
func (s *Service) Complete(ctx context.Context, req models.CompleteRequest) (models.Outcome, error) {
	start := time.Now()

	if req.SessionRef == "" {
		return models.Outcome{}, dErrors.New(dErrors.CodeBadRequest, "session ref required")
	}

	session, err := s.sessions.Get(ctx, req.SessionRef)
	if err != nil {
		s.metrics.IncFailed()
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Outcome{}, dErrors.Wrap(err, dErrors.CodeNotFound, "verification session not found")
		}
		return models.Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification session")
	}

	age, err := attestation.GenerateAgeCommitment(ctx, req.Identity.DateOfBirth, req.AgeThreshold)
	if err != nil {
		s.failAudit(ctx, session, "age attestation rejected")
		return models.Outcome{}, err
	}

	addr, err := attestation.GenerateAddressCommitment(ctx, req.Identity.Address, req.AddressMatch)
	if err != nil {
		s.failAudit(ctx, session, "address attestation rejected")
		return models.Outcome{}, err
	}

	record, err := s.sealSecrets(session, req.Identity, age, addr, requestcontext.Now(ctx))
	if err != nil {
		s.metrics.IncFailed()
		return models.Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seal identity attributes")
	}

	event := ledgerModels.ComplianceEvent{
		SubjectRef:                &session.SubjectID,
		CounterpartyRef:           &session.CounterpartyID,
		SubjectReferenceCode:      domain.SubjectReferenceCode(session.SubjectID),
		CounterpartyReferenceCode: domain.CounterpartyReferenceCode(session.CounterpartyID),
		VerificationPayload: map[string]any{
			"age_commitment":     age.Commitment,
			"age_payload":        age.Payload,
			"address_commitment": addr.Commitment,
			"address_payload":    addr.Payload,
		},
		AgeVerified:     age.Verified,
		AddressVerified: addr.Verified,
		Anchor:          s.anchor(ctx, session, age.Commitment, addr.Commitment),
		CreatedAt:       requestcontext.Now(ctx),
	}

	if err := s.runInTx(ctx, func(ctx context.Context) error {
		if err := s.secrets.Create(ctx, record); err != nil {
			return fmt.Errorf("create secret record: %w", err)
		}
		event, err = s.events.Append(ctx, event)
		if err != nil {
			return fmt.Errorf("append compliance event: %w", err)
		}
		return nil
	}); err != nil {
		s.failAudit(ctx, session, "persistence failed")
		if errors.Is(err, sentinel.ErrConflict) {
			return models.Outcome{}, dErrors.Wrap(err, dErrors.CodeConflict, "subject already verified")
		}
		return models.Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}

	// Session is single-use; losing the delete only costs an extra TTL.
	if err := s.sessions.Delete(ctx, session.Ref); err != nil {
		s.logger.WarnContext(ctx, "session cleanup failed", "ref", session.Ref, "error", err)
	}

	s.metrics.IncCompleted()
	s.metrics.ObserveComplete(start)
	s.logAudit(ctx, audit.EventVerificationCompleted, audit.Event{
		Timestamp:      event.CreatedAt,
		SubjectRefCode: event.SubjectReferenceCode,
		Decision:       "verified",
		RequestID:      requestcontext.RequestID(ctx),
		ActorID:        requestcontext.AuthID(ctx),
		Device:         requestcontext.Device(ctx),
	})

	return models.Outcome{
		EventID:           event.ID,
		SubjectRefCode:    event.SubjectReferenceCode,
		AgeVerified:       age.Verified,
		AddressVerified:   addr.Verified,
		AgeCommitment:     age.Commitment,
		AddressCommitment: addr.Commitment,
		Anchored:          event.Anchor != nil,
		CompletedAt:       event.CreatedAt,
	}, nil
}

// sealSecrets marshals and seals the identity attributes and the derived
// credential bundle. Plaintext never outlives this call.
func (s *Service) sealSecrets(session *models.Session, identity models.IdentityAttributes, age, addr attestation.Result, now time.Time) (secretModels.SecretRecord, error) {
	identityBlob, err := json.Marshal(struct {
		DateOfBirth     string              `json:"date_of_birth"`
		Address         attestation.Address `json:"address"`
		DocumentNumbers []string            `json:"document_numbers,omitempty"`
	}{
		DateOfBirth:     identity.DateOfBirth.Format("2006-01-02"),
		Address:         identity.Address,
		DocumentNumbers: identity.DocumentNumbers,
	})
	if err != nil {
		return secretModels.SecretRecord{}, fmt.Errorf("marshal identity attributes: %w", err)
	}

	credentialBlob, err := json.Marshal(map[string]any{
		attestation.ClaimAgeMeetsThreshold: age.Verified,
		attestation.ClaimAddressVerified:   addr.Verified,
		"age_commitment":                   age.Commitment,
		"address_commitment":               addr.Commitment,
	})
	if err != nil {
		return secretModels.SecretRecord{}, fmt.Errorf("marshal credential bundle: %w", err)
	}

	keyID, identityBox, err := s.keyring.Seal(identityBlob)
	if err != nil {
		return secretModels.SecretRecord{}, err
	}
	_, credentialBox, err := s.keyring.Seal(credentialBlob)
	if err != nil {
		return secretModels.SecretRecord{}, err
	}

	return secretModels.SecretRecord{
		SubjectID:                   session.SubjectID,
		EncryptedIdentityAttributes: identityBox,
		EncryptedCredentialBundle:   credentialBox,
		EncryptionKeyID:             keyID,
		VerificationSessionRef:      session.Ref,
		CreatedAt:                   now,
	}, nil
}

// anchor submits the event commitment for chain anchoring. Any failure is
// logged, counted and swallowed: anchoring never blocks the ledger write.
func (s *Service) anchor(ctx context.Context, session *models.Session, ageCommitment, addrCommitment string) *ledgerModels.AnchorInfo {
	if s.anchors == nil {
		return nil
	}

	eventCommitment, err := commitment.Hash(map[string]any{
		"age_commitment":     ageCommitment,
		"address_commitment": addrCommitment,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "anchor commitment failed", "error", err)
		return nil
	}

	info, err := s.anchors.Submit(ctx, session.Ref, eventCommitment)
	if err != nil {
		s.metrics.IncAnchorSkipped()
		s.logger.WarnContext(ctx, "anchor skipped", "ref", session.Ref, "error", err)
		s.logAudit(ctx, audit.EventAnchorSkipped, audit.Event{
			Timestamp:      requestcontext.Now(ctx),
			SubjectRefCode: domain.SubjectReferenceCode(session.SubjectID),
			Reason:         err.Error(),
			RequestID:      requestcontext.RequestID(ctx),
		})
		return nil
	}

	s.metrics.IncAnchorAttached()
	s.logAudit(ctx, audit.EventAnchorAttached, audit.Event{
		Timestamp:      requestcontext.Now(ctx),
		SubjectRefCode: domain.SubjectReferenceCode(session.SubjectID),
		Decision:       info.TxHash,
		RequestID:      requestcontext.RequestID(ctx),
	})
	return info
}

func (s *Service) runInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.runner == nil {
		return fn(ctx)
	}
	return s.runner.RunInTx(ctx, fn)
}

func (s *Service) failAudit(ctx context.Context, session *models.Session, reason string) {
	s.metrics.IncFailed()
	s.logAudit(ctx, audit.EventVerificationFailed, audit.Event{
		Timestamp:      requestcontext.Now(ctx),
		SubjectRefCode: domain.SubjectReferenceCode(session.SubjectID),
		Decision:       "rejected",
		Reason:         reason,
		RequestID:      requestcontext.RequestID(ctx),
		Device:         requestcontext.Device(ctx),
	})
}

func (s *Service) logAudit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Action = string(action)
	event.Category = action.Category()
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
