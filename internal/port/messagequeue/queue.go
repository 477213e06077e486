// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Queue is the port interface for publishing audit events to downstream
// compliance consumers.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the queue connection.
	Close() error
}

// Subjects for audit events. One subject per case transition kind so
// compliance consumers can filter with audit.case.> wildcards.
const (
	SubjectCaseCreated  = "audit.case.created"
	SubjectCaseResolved = "audit.case.resolved" // terminal transitions, auto or human
)
