package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and external-store
// adapters return these (optionally wrapped) so services can translate them
// into domain errors.
//
// The distinction that matters most here is ErrNotFound vs a query failure:
// the erasure orchestrator treats "no row matched" as goal-already-achieved
// while a genuine store failure only flips a summary flag. Collapsing the
// two would break deletion idempotence.
//
// For validation errors (bad input, missing claim fields), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
