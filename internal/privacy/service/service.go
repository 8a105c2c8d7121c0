// Package service implements the data subject rights operations: erasure
// (right to be forgotten), data export (subject access requests), and the
// ownership check gating both.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	accountModels "attestgate/internal/account/models"
	ledgerModels "attestgate/internal/ledger/models"
	paymentModels "attestgate/internal/payments/models"
	"attestgate/internal/privacy/metrics"
	"attestgate/pkg/domain"
	"attestgate/pkg/platform/audit"
)

// SecretStore is the encrypted secret record adapter.
type SecretStore interface {
	Delete(ctx context.Context, subjectID domain.SubjectID) error
}

// EventStore is the compliance event ledger adapter.
type EventStore interface {
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]ledgerModels.ComplianceEvent, error)
	AnonymizeForSubject(ctx context.Context, subjectID domain.SubjectID) (int64, error)
}

// PaymentStore is the payment ledger adapter.
type PaymentStore interface {
	ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]paymentModels.PaymentEvent, error)
	AnonymizeForSubject(ctx context.Context, subjectID domain.SubjectID) (int64, error)
}

// AccountStore is the subject account adapter.
type AccountStore interface {
	GetBySubject(ctx context.Context, subjectID domain.SubjectID) (*accountModels.Account, error)
	GetByAuthID(ctx context.Context, authID string) (*accountModels.Account, error)
	Delete(ctx context.Context, subjectID domain.SubjectID) error
}

// Service coordinates subject rights operations across the four
// independent stores. It holds no state of its own; every operation is a
// short-lived request/response call.
type Service struct {
	secrets  SecretStore
	events   EventStore
	payments PaymentStore
	accounts AccountStore

	auditor audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

// New creates the subject rights service. All four stores are required.
func New(secrets SecretStore, events EventStore, payments PaymentStore, accounts AccountStore, opts ...Option) (*Service, error) {
	if secrets == nil {
		return nil, fmt.Errorf("secret store is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment store is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}

	s := &Service{
		secrets:  secrets,
		events:   events,
		payments: payments,
		accounts: accounts,
		logger:   slog.Default(),
		tracer:   otel.Tracer("attestgate/privacy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
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
