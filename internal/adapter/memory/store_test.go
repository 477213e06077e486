package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/verigate/verigate/internal/adapter/memory"
	"github.com/verigate/verigate/internal/domain"
	"github.com/verigate/verigate/internal/domain/audit"
	"github.com/verigate/verigate/internal/domain/verification"
)

func newPendingCase(id string) *verification.Case {
	return &verification.Case{
		ID:          id,
		State:       verification.StatePending,
		Report:      verification.Report{Status: verification.StatusSuspicious, ConfidenceScore: 62},
		SubmittedAt: time.Now().UTC(),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	if err := s.Create(ctx, newPendingCase("c1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != verification.StatePending {
		t.Fatalf("expected pending, got %s", got.State)
	}
}

func TestStore_CreateRejectsDuplicateID(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	if err := s.Create(ctx, newPendingCase("c1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, newPendingCase("c1")); err == nil {
		t.Fatal("expected error for duplicate case ID")
	}
}

func TestStore_GetUnknownIsNotFound(t *testing.T) {
	s := memory.NewStore()
	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_FinalizeTransitionsPendingOnce(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	if err := s.Create(ctx, newPendingCase("c1")); err != nil {
		t.Fatal(err)
	}

	d := verification.Decision{
		VerifierID: "v1",
		Outcome:    verification.OutcomeReject,
		Remarks:    "forged signature",
		DecidedAt:  time.Now().UTC(),
	}
	got, err := s.Finalize(ctx, "c1", d)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got.State != verification.StateRejected {
		t.Fatalf("expected rejected, got %s", got.State)
	}
	if got.Decision == nil || got.Decision.VerifierID != "v1" {
		t.Fatalf("decision not stamped: %+v", got.Decision)
	}
	if got.ResolvedAt == nil {
		t.Fatal("resolved_at not stamped")
	}

	// Second decision conflicts and reports the actual terminal state.
	_, err = s.Finalize(ctx, "c1", verification.Decision{
		VerifierID: "v2",
		Outcome:    verification.OutcomeApprove,
		DecidedAt:  time.Now().UTC(),
	})
	var ce *verification.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.State != verification.StateRejected {
		t.Fatalf("conflict must carry actual state, got %s", ce.State)
	}

	// The losing call changed nothing.
	after, err := s.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if after.Decision.VerifierID != "v1" {
		t.Fatal("decision was overwritten by conflicting call")
	}
}

func TestStore_FinalizeUnknownIsNotFound(t *testing.T) {
	s := memory.NewStore()
	_, err := s.Finalize(context.Background(), "ghost", verification.Decision{
		VerifierID: "v1", Outcome: verification.OutcomeApprove, DecidedAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ConcurrentFinalizeSingleWinner(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	if err := s.Create(ctx, newPendingCase("c1")); err != nil {
		t.Fatal(err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := verification.OutcomeApprove
			if i%2 == 0 {
				outcome = verification.OutcomeReject
			}
			_, err := s.Finalize(ctx, "c1", verification.Decision{
				VerifierID: "v1", Outcome: outcome, DecidedAt: time.Now().UTC(),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning decide, got %d", wins)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestStore_ListPendingExcludesTerminal(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	early := newPendingCase("early")
	early.SubmittedAt = time.Now().Add(-time.Hour)
	if err := s.Create(ctx, early); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, newPendingCase("late")); err != nil {
		t.Fatal(err)
	}

	done := newPendingCase("done")
	done.State = verification.StateAutoApproved
	if err := s.Create(ctx, done); err != nil {
		t.Fatal(err)
	}

	pending, err := s.ListPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != "early" {
		t.Fatalf("expected oldest first, got %s", pending[0].ID)
	}
}

func TestAuditLog_AppendAndList(t *testing.T) {
	l := memory.NewAuditLog()
	ctx := context.Background()

	for i, action := range []audit.Action{audit.ActionCaseCreated, audit.ActionRejected} {
		e := &audit.Entry{
			ID:        string(rune('a' + i)),
			CaseID:    "c1",
			Action:    action,
			Actor:     "v1",
			CreatedAt: time.Now().UTC(),
		}
		if err := l.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.Append(ctx, &audit.Entry{ID: "x", CaseID: "c2", Action: audit.ActionCaseCreated, Actor: "system"}); err != nil {
		t.Fatal(err)
	}

	byCase, err := l.ListByCase(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(byCase) != 2 || byCase[0].Action != audit.ActionCaseCreated {
		t.Fatalf("unexpected per-case trail: %+v", byCase)
	}

	recent, err := l.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].CaseID != "c2" {
		t.Fatalf("expected newest first with limit, got %+v", recent)
	}
}
