// Package scoring defines the boundary to the external verification engine.
package scoring

import (
	"context"

	"github.com/verigate/verigate/internal/domain/verification"
)

// Engine scores a document and returns its authenticity report. The engine
// is the only operation in the system expected to have meaningful latency;
// callers run it under a bounded timeout and translate any failure into an
// error-status report rather than surfacing it to the uploader.
type Engine interface {
	Score(ctx context.Context, filename string, doc []byte) (*verification.Report, error)

	// Health reports whether the engine is currently reachable.
	Health(ctx context.Context) error
}
