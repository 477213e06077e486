package verification

import (
	"fmt"
	"time"

	"github.com/verigate/verigate/internal/domain"
)

// Thresholds holds the routing policy's configurable score boundaries.
type Thresholds struct {
	// AutoApprove is the minimum confidence score at which a verified
	// report bypasses human review.
	AutoApprove float64
	// AutoReject is the hard floor below which a suspicious report is
	// rejected without consuming reviewer time.
	AutoReject float64
}

// Validate checks the thresholds are in range and not inverted.
func (t Thresholds) Validate() error {
	if t.AutoApprove < 0 || t.AutoApprove > 100 {
		return fmt.Errorf("%w: auto-approve threshold %v outside [0,100]", domain.ErrValidation, t.AutoApprove)
	}
	if t.AutoReject < 0 || t.AutoReject > 100 {
		return fmt.Errorf("%w: auto-reject floor %v outside [0,100]", domain.ErrValidation, t.AutoReject)
	}
	if t.AutoReject > t.AutoApprove {
		return fmt.Errorf("%w: auto-reject floor %v above auto-approve threshold %v", domain.ErrValidation, t.AutoReject, t.AutoApprove)
	}
	return nil
}

// Routing is the outcome of routing a fresh report: the case's initial state
// and, for auto-resolutions, the system-authored decision.
type Routing struct {
	State    State
	Decision *Decision
}

// Route maps a fresh report to an initial case state. It is pure and
// deterministic: the same report and thresholds always yield the same
// routing outcome. The decided-at timestamp is taken from now so callers
// control the clock.
//
// Policy:
//   - error reports (including structurally invalid ones) always queue;
//     a scoring failure is never silently auto-resolved
//   - verified reports at or above the auto-approve threshold resolve
//     without review
//   - suspicious reports below the auto-reject floor resolve as rejected;
//     absent that strong fraud signal the case defers to a human
func Route(r Report, t Thresholds, now time.Time) Routing {
	r = r.Sanitize()

	switch r.Status {
	case StatusError:
		return Routing{State: StatePending}
	case StatusVerified:
		if r.ConfidenceScore >= t.AutoApprove {
			return Routing{
				State: StateAutoApproved,
				Decision: &Decision{
					VerifierID: SystemActor,
					Outcome:    OutcomeApprove,
					Remarks:    "auto-approved: confidence ≥ threshold",
					DecidedAt:  now,
				},
			}
		}
	case StatusSuspicious:
		if r.ConfidenceScore < t.AutoReject {
			return Routing{
				State: StateAutoRejected,
				Decision: &Decision{
					VerifierID: SystemActor,
					Outcome:    OutcomeReject,
					Remarks:    "auto-rejected: confidence below rejection floor",
					DecidedAt:  now,
				},
			}
		}
	}

	return Routing{State: StatePending}
}
