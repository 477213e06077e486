// Package verification defines domain types for document authentication cases.
package verification

import (
	"errors"
	"fmt"
	"time"

	"github.com/verigate/verigate/internal/domain"
)

// ReportStatus is the scoring engine's overall assessment of a document.
type ReportStatus string

const (
	StatusVerified   ReportStatus = "verified"
	StatusSuspicious ReportStatus = "suspicious"
	StatusError      ReportStatus = "error"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusVerified, StatusSuspicious, StatusError:
		return true
	}
	return false
}

// Report is the scoring engine's output for a single document.
// A report is immutable once attached to a case; re-scoring a document
// always creates a new case.
type Report struct {
	Status              ReportStatus `json:"status"`
	ConfidenceScore     float64      `json:"confidence_score"`
	Issues              []string     `json:"issues"`
	ExtractedText       string       `json:"extracted_text"`
	TotalTextBlocks     int          `json:"total_text_blocks"`
	LowConfidenceBlocks int          `json:"low_confidence_blocks"`
}

var (
	ErrUnknownStatus   = errors.New("unknown report status")
	ErrScoreOutOfRange = errors.New("confidence_score outside [0,100]")
	ErrNegativeBlocks  = errors.New("block counts must be >= 0")
)

// Validate checks the report for structural correctness.
func (r *Report) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 100 {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, r.ConfidenceScore)
	}
	if r.TotalTextBlocks < 0 || r.LowConfidenceBlocks < 0 {
		return ErrNegativeBlocks
	}
	return nil
}

// Sanitize returns the report unchanged when it is valid. An invalid report
// is downgraded to an error-status report so it can never be trusted for
// auto-resolution and always reaches a human reviewer.
func (r Report) Sanitize() Report {
	err := r.Validate()
	if err == nil {
		return r
	}
	return Report{
		Status:          StatusError,
		ConfidenceScore: 0,
		Issues:          append([]string{"invalid scoring report: " + err.Error()}, r.Issues...),
		ExtractedText:   r.ExtractedText,
	}
}

// State is the lifecycle state of a case. Pending is the only non-terminal
// state; all others are final and immutable.
type State string

const (
	StatePending      State = "pending"
	StateApproved     State = "approved"
	StateRejected     State = "rejected"
	StateAutoApproved State = "auto_approved"
	StateAutoRejected State = "auto_rejected"
)

// Valid reports whether s is a known case state.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateAutoApproved, StateAutoRejected:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s.Valid() && s != StatePending
}

// Outcome is a verifier's verdict on a pending case.
type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// State maps the outcome to the terminal case state it produces.
func (o Outcome) State() (State, error) {
	switch o {
	case OutcomeApprove:
		return StateApproved, nil
	case OutcomeReject:
		return StateRejected, nil
	}
	return "", fmt.Errorf("%w: unknown outcome %q", domain.ErrValidation, o)
}

// SystemActor is the actor recorded for router-driven auto-resolutions.
const SystemActor = "system"

// Decision is the single terminal judgment applied to a case, authored
// either by a verifier or by the router itself.
type Decision struct {
	VerifierID string    `json:"verifier_id"`
	Outcome    Outcome   `json:"outcome"`
	Remarks    string    `json:"remarks"`
	DecidedAt  time.Time `json:"decided_at"`
}

// Case is one submitted document's full review record, from ingestion to
// terminal resolution. Cases are never deleted; they form the audit trail.
type Case struct {
	ID          string     `json:"case_id"`
	Report      Report     `json:"report"`
	State       State      `json:"state"`
	Decision    *Decision  `json:"decision,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// Priority reports whether the case should jump ahead of same-age cases in
// the review queue. Scoring failures are reviewed first.
func (c *Case) Priority() bool {
	return c.Report.Status == StatusError
}

// ConflictError reports a decision attempt on a case that is no longer
// pending. It carries the case's actual terminal state so a caller can
// reconcile its view. It unwraps to domain.ErrConflict.
type ConflictError struct {
	CaseID string
	State  State
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("case %s already resolved: state is %s", e.CaseID, e.State)
}

func (e *ConflictError) Unwrap() error { return domain.ErrConflict }
