// Package audit defines the append-only audit trail entry type.
package audit

import "time"

// Action identifies the case transition an audit entry records.
type Action string

const (
	ActionCaseCreated  Action = "case.created"
	ActionAutoApproved Action = "case.auto_approved"
	ActionAutoRejected Action = "case.auto_rejected"
	ActionApproved     Action = "case.approved"
	ActionRejected     Action = "case.rejected"
)

// Entry is one immutable record in the compliance audit trail. Entries are
// only ever appended, never updated or deleted.
type Entry struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Action    Action    `json:"action"`
	Actor     string    `json:"actor"` // "system" or a verifier ID
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
