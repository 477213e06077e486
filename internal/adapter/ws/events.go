package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventCaseQueued   = "case.queued"
	EventCaseResolved = "case.resolved"
)

// CaseQueuedEvent is broadcast when a new case enters the review queue.
type CaseQueuedEvent struct {
	CaseID       string  `json:"case_id"`
	ReportStatus string  `json:"report_status"`
	Score        float64 `json:"confidence_score"`
	Priority     bool    `json:"priority"`
}

// CaseResolvedEvent is broadcast when a case reaches a terminal state.
type CaseResolvedEvent struct {
	CaseID     string `json:"case_id"`
	State      string `json:"state"`
	VerifierID string `json:"verifier_id,omitempty"`
}

// BroadcastEvent marshals a typed event and broadcasts it to all clients.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
