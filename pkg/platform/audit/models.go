package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// verifications, erasure requests, data exports. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// ownership-check denials, auth failures.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging with shorter
	// retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Identity is
// carried as the pseudonymous subject reference code, never a raw PII
// field: audit rows must survive erasure without becoming erasure targets
// themselves.
type Event struct {
	Category  EventCategory
	Timestamp time.Time

	// SubjectRefCode is the durable pseudonymous subject code.
	SubjectRefCode string

	Action   string
	Decision string
	Reason   string

	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID tracks who performed the action when different from the
	// subject (admin-processed erasure requests).
	ActorID string
	// Device is the coarse device descriptor from the User-Agent, for
	// forensics on verification events.
	Device string
}

// AuditEvent names the actions this service emits.
type AuditEvent string

const (
	// Verification events
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventVerificationFailed    AuditEvent = "verification_failed"
	EventAnchorAttached        AuditEvent = "anchor_attached"
	EventAnchorSkipped         AuditEvent = "anchor_skipped"

	// Data subject rights events
	EventSubjectErased   AuditEvent = "subject_erased"
	EventDataExported    AuditEvent = "data_exported"
	EventOwnershipDenied AuditEvent = "ownership_denied"
)

// eventCategories is the source of truth for action → category routing.
var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationCompleted: CategoryCompliance,
	EventVerificationFailed:    CategoryCompliance,
	EventSubjectErased:         CategoryCompliance,
	EventDataExported:          CategoryCompliance,
	EventOwnershipDenied:       CategorySecurity,
	EventAnchorAttached:        CategoryOperations,
	EventAnchorSkipped:         CategoryOperations,
}

// Category returns the event's category, defaulting to operations for
// unknown actions.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
