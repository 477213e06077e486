package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verigate/verigate/internal/adapter/otel"
	"github.com/verigate/verigate/internal/adapter/ws"
	"github.com/verigate/verigate/internal/domain"
	"github.com/verigate/verigate/internal/domain/audit"
	"github.com/verigate/verigate/internal/domain/verification"
	"github.com/verigate/verigate/internal/port/auditlog"
	"github.com/verigate/verigate/internal/port/broadcast"
	"github.com/verigate/verigate/internal/port/casestore"
	"github.com/verigate/verigate/internal/port/messagequeue"
	"github.com/verigate/verigate/internal/queue"
)

// ReviewService serves the verifier-facing side: listing queued work,
// inspecting cases, and finalizing decisions.
type ReviewService struct {
	store  casestore.Store
	queue  *queue.Queue
	audits auditlog.Log

	mq      messagequeue.Queue
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewReviewService creates a ReviewService with its required dependencies.
func NewReviewService(store casestore.Store, q *queue.Queue, audits auditlog.Log) *ReviewService {
	return &ReviewService{
		store:  store,
		queue:  q,
		audits: audits,
	}
}

// SetMessageQueue attaches a publisher for audit events.
func (s *ReviewService) SetMessageQueue(mq messagequeue.Queue) {
	s.mq = mq
}

// SetBroadcaster attaches a hub for pushing queue changes to dashboards.
func (s *ReviewService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetMetrics attaches metric instruments.
func (s *ReviewService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// PendingCases returns a point-in-time snapshot of the review queue in
// working order: error reports first, then oldest submissions.
func (s *ReviewService) PendingCases(_ context.Context) []verification.Case {
	return s.queue.Pending()
}

// QueueLength returns the current number of queued cases.
func (s *ReviewService) QueueLength() int {
	return s.queue.Len()
}

// GetCase returns one case by ID, terminal or not.
func (s *ReviewService) GetCase(ctx context.Context, id string) (*verification.Case, error) {
	return s.store.Get(ctx, id)
}

// Decide finalizes a pending case with a verifier's decision. Exactly one of
// any set of concurrent decisions on the same case wins; the rest receive a
// conflict error carrying the state the winner produced.
func (s *ReviewService) Decide(ctx context.Context, caseID, verifierID string, outcome verification.Outcome, remarks string) (*verification.Case, error) {
	ctx, span := otel.StartDecideSpan(ctx, caseID, string(outcome))
	defer span.End()

	if strings.TrimSpace(verifierID) == "" {
		return nil, fmt.Errorf("%w: verifier id is required", domain.ErrValidation)
	}
	if _, err := outcome.State(); err != nil {
		return nil, err
	}

	d := verification.Decision{
		VerifierID: verifierID,
		Outcome:    outcome,
		Remarks:    remarks,
		DecidedAt:  time.Now().UTC(),
	}

	c, err := s.store.Finalize(ctx, caseID, d)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// The case was resolved under us; whoever won already pulled
			// it out of the queue.
			s.queue.Remove(caseID)
			if s.metrics != nil {
				s.metrics.DecisionConflicts.Add(ctx, 1)
			}
		}
		return nil, err
	}

	s.queue.Remove(caseID)
	if s.metrics != nil {
		s.metrics.DecisionsApplied.Add(ctx, 1)
	}

	action := audit.ActionApproved
	if c.State == verification.StateRejected {
		action = audit.ActionRejected
	}
	entry := &audit.Entry{
		ID:        uuid.NewString(),
		CaseID:    c.ID,
		Action:    action,
		Actor:     verifierID,
		Detail:    remarks,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		slog.Error("audit append failed", "case_id", c.ID, "action", action, "error", err)
	}
	s.publishResolved(ctx, entry)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventCaseResolved, ws.CaseResolvedEvent{
			CaseID:     c.ID,
			State:      string(c.State),
			VerifierID: verifierID,
		})
	}

	slog.Info("case decided",
		"case_id", c.ID,
		"state", c.State,
		"verifier_id", verifierID,
	)
	return c, nil
}

// AuditTrail returns all audit entries for one case, oldest first. The case
// must exist.
func (s *ReviewService) AuditTrail(ctx context.Context, caseID string) ([]audit.Entry, error) {
	if _, err := s.store.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.audits.ListByCase(ctx, caseID)
}

// RecentAudit returns the most recent audit entries across all cases.
func (s *ReviewService) RecentAudit(ctx context.Context, limit int) ([]audit.Entry, error) {
	return s.audits.List(ctx, limit)
}

func (s *ReviewService) publishResolved(ctx context.Context, e *audit.Entry) {
	if s.mq == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.mq.Publish(ctx, messagequeue.SubjectCaseResolved, data); err != nil {
		slog.Error("audit publish failed", "subject", messagequeue.SubjectCaseResolved, "error", err)
	}
}
