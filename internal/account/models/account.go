package models

import (
	"time"

	"attestgate/pkg/domain"
)

// Account is the subject's account row. AuthID links the hosted auth
// provider's identity to the subject; ownership validation resolves through
// it before any export or erasure is allowed.
type Account struct {
	SubjectID     domain.SubjectID
	AuthID        string
	Email         string
	ReferenceCode string
	CreatedAt     time.Time
}
