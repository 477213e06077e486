// Package service implements the application services that tie the domain
// model to the adapters.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verigate/verigate/internal/adapter/otel"
	"github.com/verigate/verigate/internal/adapter/ws"
	"github.com/verigate/verigate/internal/domain/audit"
	"github.com/verigate/verigate/internal/domain/verification"
	"github.com/verigate/verigate/internal/port/auditlog"
	"github.com/verigate/verigate/internal/port/broadcast"
	"github.com/verigate/verigate/internal/port/cache"
	"github.com/verigate/verigate/internal/port/casestore"
	"github.com/verigate/verigate/internal/port/messagequeue"
	"github.com/verigate/verigate/internal/port/scoring"
	"github.com/verigate/verigate/internal/queue"
)

// IngestService runs the intake path: score a document, route the report,
// persist the case, and surface pending work to reviewers.
type IngestService struct {
	store      casestore.Store
	engine     scoring.Engine
	queue      *queue.Queue
	audits     auditlog.Log
	thresholds verification.Thresholds

	scoringTimeout time.Duration

	// Optional collaborators, attached via the Set* methods. All of them
	// are best-effort: a failure never blocks intake.
	reportCache cache.Cache
	cacheTTL    time.Duration
	mq          messagequeue.Queue
	hub         broadcast.Broadcaster
	metrics     *otel.Metrics
}

// NewIngestService creates an IngestService with its required dependencies.
func NewIngestService(
	store casestore.Store,
	engine scoring.Engine,
	q *queue.Queue,
	audits auditlog.Log,
	thresholds verification.Thresholds,
	scoringTimeout time.Duration,
) *IngestService {
	return &IngestService{
		store:          store,
		engine:         engine,
		queue:          q,
		audits:         audits,
		thresholds:     thresholds,
		scoringTimeout: scoringTimeout,
	}
}

// SetCache attaches a report cache keyed by document fingerprint.
func (s *IngestService) SetCache(c cache.Cache, ttl time.Duration) {
	s.reportCache = c
	s.cacheTTL = ttl
}

// SetMessageQueue attaches a publisher for audit events.
func (s *IngestService) SetMessageQueue(mq messagequeue.Queue) {
	s.mq = mq
}

// SetBroadcaster attaches a hub for pushing queue changes to dashboards.
func (s *IngestService) SetBroadcaster(hub broadcast.Broadcaster) {
	s.hub = hub
}

// SetMetrics attaches metric instruments.
func (s *IngestService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Ingest scores the document, routes the resulting report, persists the case
// and, for pending cases, enqueues it for human review. A scoring failure is
// translated into an error-status report so the document still lands in the
// queue rather than being lost.
func (s *IngestService) Ingest(ctx context.Context, filename string, doc []byte) (*verification.Case, error) {
	ctx, span := otel.StartIngestSpan(ctx, filename)
	defer span.End()

	report := s.score(ctx, filename, doc).Sanitize()
	routing := verification.Route(report, s.thresholds, time.Now().UTC())

	c := &verification.Case{
		ID:          uuid.NewString(),
		Report:      report,
		State:       routing.State,
		Decision:    routing.Decision,
		SubmittedAt: time.Now().UTC(),
	}
	if routing.Decision != nil {
		resolved := routing.Decision.DecidedAt
		c.ResolvedAt = &resolved
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CasesIngested.Add(ctx, 1)
	}
	s.recordAudit(ctx, c)

	if c.State == verification.StatePending {
		s.queue.Enqueue(*c)
		if s.metrics != nil {
			s.metrics.CasesQueued.Add(ctx, 1)
		}
		if s.hub != nil {
			s.hub.BroadcastEvent(ctx, ws.EventCaseQueued, ws.CaseQueuedEvent{
				CaseID:       c.ID,
				ReportStatus: string(c.Report.Status),
				Score:        c.Report.ConfidenceScore,
				Priority:     c.Priority(),
			})
		}
	}

	slog.Info("case ingested",
		"case_id", c.ID,
		"state", c.State,
		"report_status", c.Report.Status,
		"score", c.Report.ConfidenceScore,
	)
	return c, nil
}

// EngineHealth reports whether the scoring engine is reachable.
func (s *IngestService) EngineHealth(ctx context.Context) error {
	return s.engine.Health(ctx)
}

// score obtains a report for the document, consulting the fingerprint cache
// first. Engine failures degrade to an error-status report.
func (s *IngestService) score(ctx context.Context, filename string, doc []byte) verification.Report {
	fp := fingerprint(doc)

	if cached, ok := s.cachedReport(ctx, fp); ok {
		slog.Debug("scoring cache hit", "fingerprint", fp)
		return cached
	}

	start := time.Now()
	scoreCtx, cancel := context.WithTimeout(ctx, s.scoringTimeout)
	defer cancel()

	report, err := s.engine.Score(scoreCtx, filename, doc)
	if s.metrics != nil {
		s.metrics.ScoringDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		slog.Warn("scoring engine failed, queueing as error report", "filename", filename, "error", err)
		return verification.Report{
			Status: verification.StatusError,
			Issues: []string{"scoring engine unavailable"},
		}
	}

	s.storeReport(ctx, fp, *report)
	return *report
}

func (s *IngestService) cachedReport(ctx context.Context, fp string) (verification.Report, bool) {
	if s.reportCache == nil {
		return verification.Report{}, false
	}
	data, ok, err := s.reportCache.Get(ctx, fp)
	if err != nil || !ok {
		return verification.Report{}, false
	}
	var r verification.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return verification.Report{}, false
	}
	return r, true
}

func (s *IngestService) storeReport(ctx context.Context, fp string, r verification.Report) {
	if s.reportCache == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := s.reportCache.Set(ctx, fp, data, s.cacheTTL); err != nil {
		slog.Debug("report cache set failed", "error", err)
	}
}

// recordAudit appends the creation entry and, for auto-resolutions, the
// terminal entry, then publishes them for downstream consumers. Audit and
// publish failures are logged, never propagated: the case itself is already
// durable.
func (s *IngestService) recordAudit(ctx context.Context, c *verification.Case) {
	created := &audit.Entry{
		ID:        uuid.NewString(),
		CaseID:    c.ID,
		Action:    audit.ActionCaseCreated,
		Actor:     verification.SystemActor,
		Detail:    fmt.Sprintf("report status %s, score %.1f", c.Report.Status, c.Report.ConfidenceScore),
		CreatedAt: time.Now().UTC(),
	}
	s.appendAudit(ctx, created)
	s.publish(ctx, messagequeue.SubjectCaseCreated, created)

	switch c.State {
	case verification.StateAutoApproved:
		if s.metrics != nil {
			s.metrics.CasesAutoApproved.Add(ctx, 1)
		}
	case verification.StateAutoRejected:
		if s.metrics != nil {
			s.metrics.CasesAutoRejected.Add(ctx, 1)
		}
	default:
		return
	}

	action := audit.ActionAutoApproved
	if c.State == verification.StateAutoRejected {
		action = audit.ActionAutoRejected
	}
	resolvedEntry := &audit.Entry{
		ID:        uuid.NewString(),
		CaseID:    c.ID,
		Action:    action,
		Actor:     verification.SystemActor,
		Detail:    c.Decision.Remarks,
		CreatedAt: time.Now().UTC(),
	}
	s.appendAudit(ctx, resolvedEntry)
	s.publish(ctx, messagequeue.SubjectCaseResolved, resolvedEntry)
}

func (s *IngestService) appendAudit(ctx context.Context, e *audit.Entry) {
	if err := s.audits.Append(ctx, e); err != nil {
		slog.Error("audit append failed", "case_id", e.CaseID, "action", e.Action, "error", err)
	}
}

func (s *IngestService) publish(ctx context.Context, subject string, e *audit.Entry) {
	if s.mq == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.mq.Publish(ctx, subject, data); err != nil {
		slog.Error("audit publish failed", "subject", subject, "error", err)
	}
}

// fingerprint returns the hex SHA-256 of the document bytes.
func fingerprint(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}
