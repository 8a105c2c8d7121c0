package models

import (
	"time"

	accountModels "attestgate/internal/account/models"
	ledgerModels "attestgate/internal/ledger/models"
	paymentModels "attestgate/internal/payments/models"
	"attestgate/pkg/domain"
)

// Deletion step names, in execution order.
const (
	StepDeleteSecrets     = "delete_secrets"
	StepAnonymizeEvents   = "anonymize_events"
	StepAnonymizePayments = "anonymize_payments"
	StepDeleteAccount     = "delete_account"
)

// DeletionSummary reports what an erasure request actually accomplished.
// The overall operation succeeds even when individual steps fail; callers
// that need certainty inspect the per-step fields, not a single boolean.
type DeletionSummary struct {
	SubjectID domain.SubjectID `json:"subject_id"`

	SecretsDeleted     bool  `json:"secrets_deleted"`
	EventsAnonymized   int64 `json:"events_anonymized"`
	PaymentsAnonymized int64 `json:"payments_anonymized"`
	AccountDeleted     bool  `json:"account_deleted"`

	// StepFailures maps a failed step's name to its error message. Absent
	// steps either succeeded or found nothing to remove.
	StepFailures map[string]string `json:"step_failures,omitempty"`

	CompletedAt time.Time `json:"completed_at"`
}

// Failed reports whether any step hit a real failure. A re-run over an
// already-erased subject has all flags false and Failed() == false.
func (s DeletionSummary) Failed() bool {
	return len(s.StepFailures) > 0
}

// DataExport is the subject-access-request payload: the account row plus
// full event and payment history. Encrypted secret records are deliberately
// excluded from this path.
type DataExport struct {
	Account  accountModels.Account          `json:"account"`
	Events   []ledgerModels.ComplianceEvent `json:"events"`
	Payments []paymentModels.PaymentEvent   `json:"payments"`

	ExportedAt time.Time `json:"exported_at"`
}
