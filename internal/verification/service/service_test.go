package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attestgate/internal/attestation"
	ledgerModels "attestgate/internal/ledger/models"
	ledgerStore "attestgate/internal/ledger/store"
	"attestgate/internal/secrets/crypto"
	secretStore "attestgate/internal/secrets/store"
	"attestgate/internal/verification/models"
	sessionStore "attestgate/internal/verification/store/session"
	"attestgate/pkg/domain"
	dErrors "attestgate/pkg/domain-errors"
	"attestgate/pkg/platform/audit"
	auditMemory "attestgate/pkg/platform/audit/store/memory"
	"attestgate/pkg/requestcontext"
)

type failingAnchor struct{}

func (failingAnchor) Submit(context.Context, string, string) (*ledgerModels.AnchorInfo, error) {
	return nil, errors.New("anchor service unavailable")
}

type staticAnchor struct {
	info ledgerModels.AnchorInfo
}

func (a staticAnchor) Submit(context.Context, string, string) (*ledgerModels.AnchorInfo, error) {
	info := a.info
	return &info, nil
}

type VerificationServiceSuite struct {
	suite.Suite
	sessions   *sessionStore.InMemoryStore
	secrets    *secretStore.InMemoryStore
	events     *ledgerStore.InMemoryStore
	keyring    *crypto.Keyring
	auditStore *auditMemory.Store
	session    models.Session
	now        time.Time
	ctx        context.Context
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *VerificationServiceSuite) SetupTest() {
	s.sessions = sessionStore.NewInMemoryStore(30 * time.Minute)
	s.secrets = secretStore.NewInMemoryStore()
	s.events = ledgerStore.NewInMemoryStore()
	s.auditStore = auditMemory.New()

	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.keyring, err = crypto.NewKeyring(map[string][]byte{"key-1": key}, "key-1")
	s.Require().NoError(err)

	s.now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.session = models.Session{
		Ref:            "inq_xyz789",
		SubjectID:      domain.NewSubjectID(),
		CounterpartyID: domain.NewCounterpartyID(),
		CreatedAt:      s.now,
	}
	s.Require().NoError(s.sessions.Put(s.ctx, s.session))
}

func (s *VerificationServiceSuite) newService(opts ...Option) *Service {
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditStore),
	}, opts...)
	svc, err := New(s.sessions, s.secrets, s.events, s.keyring, opts...)
	s.Require().NoError(err)
	return svc
}

func (s *VerificationServiceSuite) validRequest() models.CompleteRequest {
	return models.CompleteRequest{
		SessionRef: s.session.Ref,
		Identity: models.IdentityAttributes{
			DateOfBirth: time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC),
			Address: attestation.Address{
				Line1:      "221 Main St",
				City:       "Springfield",
				Region:     "IL",
				PostalCode: "62701",
				Country:    "US",
			},
			DocumentNumbers: []string{"D1234567"},
		},
		AddressMatch: attestation.MatchResult{Verified: true, Confidence: 0.95},
		AgeThreshold: 18,
	}
}

func (s *VerificationServiceSuite) TestComplete() {
	s.Run("records event and sealed secrets", func() {
		outcome, err := s.newService().Complete(s.ctx, s.validRequest())
		s.Require().NoError(err)

		s.True(outcome.AgeVerified)
		s.True(outcome.AddressVerified)
		s.NotEmpty(outcome.EventID)
		s.NotEmpty(outcome.AgeCommitment)
		s.NotEmpty(outcome.AddressCommitment)
		s.False(outcome.Anchored)
		s.Equal(s.now, outcome.CompletedAt)

		// Event carries both commitments and the subject link.
		event, err := s.events.GetByID(s.ctx, outcome.EventID)
		s.Require().NoError(err)
		s.Equal(outcome.AgeCommitment, event.VerificationPayload["age_commitment"])
		s.Equal(outcome.AddressCommitment, event.VerificationPayload["address_commitment"])
		s.Equal(s.session.SubjectID, *event.SubjectRef)

		// Secret record is sealed: ciphertext opens back to the identity.
		record, err := s.secrets.Get(s.ctx, s.session.SubjectID)
		s.Require().NoError(err)
		s.Equal("key-1", record.EncryptionKeyID)
		s.Equal(s.session.Ref, record.VerificationSessionRef)

		plain, err := s.keyring.Open(record.EncryptionKeyID, record.EncryptedIdentityAttributes)
		s.Require().NoError(err)
		var identity map[string]any
		s.Require().NoError(json.Unmarshal(plain, &identity))
		s.Equal("1990-05-15", identity["date_of_birth"])

		// Credential bundle projects back through the claim helpers.
		credPlain, err := s.keyring.Open(record.EncryptionKeyID, record.EncryptedCredentialBundle)
		s.Require().NoError(err)
		var credential map[string]any
		s.Require().NoError(json.Unmarshal(credPlain, &credential))
		ageOK, err := attestation.VerifyAgeFromCredential(credential)
		s.Require().NoError(err)
		s.True(ageOK)

		// Session is consumed.
		_, err = s.sessions.Get(s.ctx, s.session.Ref)
		s.Error(err)

		completed := s.auditStore.ByAction(audit.EventVerificationCompleted)
		s.Require().Len(completed, 1)
		s.Equal(domain.SubjectReferenceCode(s.session.SubjectID), completed[0].SubjectRefCode)
	})

	s.Run("unknown session is not found", func() {
		req := s.validRequest()
		req.SessionRef = "inq_unknown"
		_, err := s.newService().Complete(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing session ref is bad request", func() {
		req := s.validRequest()
		req.SessionRef = ""
		_, err := s.newService().Complete(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("zero birth date is rejected and audited", func() {
		req := s.validRequest()
		req.Identity.DateOfBirth = time.Time{}
		_, err := s.newService().Complete(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		failed := s.auditStore.ByAction(audit.EventVerificationFailed)
		s.Require().Len(failed, 1)
		s.Equal("age attestation rejected", failed[0].Reason)
	})

	s.Run("underage subject still completes with verified false", func() {
		req := s.validRequest()
		req.Identity.DateOfBirth = time.Date(2010, 5, 15, 0, 0, 0, 0, time.UTC)

		outcome, err := s.newService().Complete(s.ctx, req)
		s.Require().NoError(err)
		s.False(outcome.AgeVerified)
		s.True(outcome.AddressVerified)
	})

	s.Run("second verification for the same subject conflicts", func() {
		svc := s.newService()
		_, err := svc.Complete(s.ctx, s.validRequest())
		s.Require().NoError(err)

		s.Require().NoError(s.sessions.Put(s.ctx, s.session))
		_, err = svc.Complete(s.ctx, s.validRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *VerificationServiceSuite) TestRegisterSession() {
	s.Run("registered session resolves on completion", func() {
		session := models.Session{
			Ref:            "inq_new",
			SubjectID:      domain.NewSubjectID(),
			CounterpartyID: domain.NewCounterpartyID(),
		}
		s.Require().NoError(s.newService().RegisterSession(s.ctx, session))

		got, err := s.sessions.Get(s.ctx, "inq_new")
		s.Require().NoError(err)
		s.Equal(session.SubjectID, got.SubjectID)
		s.Equal(s.now, got.CreatedAt)
	})

	s.Run("missing ref is rejected", func() {
		err := s.newService().RegisterSession(s.ctx, models.Session{SubjectID: domain.NewSubjectID(), CounterpartyID: domain.NewCounterpartyID()})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("nil subject is rejected", func() {
		err := s.newService().RegisterSession(s.ctx, models.Session{Ref: "inq_x", CounterpartyID: domain.NewCounterpartyID()})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *VerificationServiceSuite) TestAnchoring() {
	s.Run("anchor failure never blocks the append", func() {
		outcome, err := s.newService(WithAnchorClient(failingAnchor{})).Complete(s.ctx, s.validRequest())
		s.Require().NoError(err)
		s.False(outcome.Anchored)

		event, err := s.events.GetByID(s.ctx, outcome.EventID)
		s.Require().NoError(err)
		s.Nil(event.Anchor)

		skipped := s.auditStore.ByAction(audit.EventAnchorSkipped)
		s.Require().Len(skipped, 1)
	})

	s.Run("successful anchor is attached to the event", func() {
		anchor := staticAnchor{info: ledgerModels.AnchorInfo{
			Network:     "testnet",
			TxHash:      "0xdeadbeef",
			BlockNumber: 77,
		}}

		outcome, err := s.newService(WithAnchorClient(anchor)).Complete(s.ctx, s.validRequest())
		s.Require().NoError(err)
		s.True(outcome.Anchored)

		event, err := s.events.GetByID(s.ctx, outcome.EventID)
		s.Require().NoError(err)
		s.Require().NotNil(event.Anchor)
		s.Equal("0xdeadbeef", event.Anchor.TxHash)

		attached := s.auditStore.ByAction(audit.EventAnchorAttached)
		s.Require().Len(attached, 1)
	})
}
