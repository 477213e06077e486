// Package auditlog defines the append-only audit trail port.
package auditlog

import (
	"context"

	"github.com/verigate/verigate/internal/domain/audit"
)

// Log records every case transition for compliance review. Implementations
// must be append-only: entries are never updated or deleted.
type Log interface {
	Append(ctx context.Context, e *audit.Entry) error

	// ListByCase returns all entries for one case, oldest first.
	ListByCase(ctx context.Context, caseID string) ([]audit.Entry, error)

	// List returns the most recent entries across all cases, newest first,
	// capped at limit.
	List(ctx context.Context, limit int) ([]audit.Entry, error)
}
