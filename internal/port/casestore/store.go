// Package casestore defines the persistence port for verification cases.
package casestore

import (
	"context"

	"github.com/verigate/verigate/internal/domain/verification"
)

// Store is the durable record of every case. It is the single source of
// truth; the review queue is a derived index over cases in pending state.
type Store interface {
	// Create persists a freshly routed case. Auto-resolved cases arrive
	// already terminal with their system decision attached.
	Create(ctx context.Context, c *verification.Case) error

	// Get returns the case with the given ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*verification.Case, error)

	// ListPending returns all cases currently in pending state,
	// ordered by submission time ascending.
	ListPending(ctx context.Context) ([]verification.Case, error)

	// Finalize atomically transitions a pending case to the terminal state
	// implied by the decision's outcome, stamping the decision record and
	// resolution time. The check-and-set is atomic per case: of any number
	// of concurrent Finalize calls on the same ID, exactly one succeeds.
	// Returns domain.ErrNotFound for an unknown ID, or a
	// *verification.ConflictError carrying the actual terminal state when
	// the case is no longer pending. A failed call changes nothing.
	Finalize(ctx context.Context, id string, d verification.Decision) (*verification.Case, error)
}
