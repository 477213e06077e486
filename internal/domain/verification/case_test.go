package verification_test

import (
	"errors"
	"testing"

	"github.com/verigate/verigate/internal/domain"
	"github.com/verigate/verigate/internal/domain/verification"
)

func TestReportValidate_Valid(t *testing.T) {
	r := &verification.Report{
		Status:          verification.StatusVerified,
		ConfidenceScore: 97.5,
		Issues:          []string{"Document appears authentic"},
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid, got: %v", err)
	}
}

func TestReportValidate_UnknownStatus(t *testing.T) {
	r := &verification.Report{Status: "maybe", ConfidenceScore: 50}
	if err := r.Validate(); !errors.Is(err, verification.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got: %v", err)
	}
}

func TestReportValidate_ScoreOutOfRange(t *testing.T) {
	for _, score := range []float64{-1, 100.01, 250} {
		r := &verification.Report{Status: verification.StatusVerified, ConfidenceScore: score}
		if err := r.Validate(); !errors.Is(err, verification.ErrScoreOutOfRange) {
			t.Fatalf("score %v: expected ErrScoreOutOfRange, got: %v", score, err)
		}
	}
}

func TestReportValidate_NegativeBlocks(t *testing.T) {
	r := &verification.Report{Status: verification.StatusVerified, ConfidenceScore: 80, TotalTextBlocks: -1}
	if err := r.Validate(); !errors.Is(err, verification.ErrNegativeBlocks) {
		t.Fatalf("expected ErrNegativeBlocks, got: %v", err)
	}
}

func TestReportSanitize_InvalidBecomesError(t *testing.T) {
	r := verification.Report{
		Status:          verification.StatusVerified,
		ConfidenceScore: 140,
		Issues:          []string{"signature mismatch"},
	}
	s := r.Sanitize()
	if s.Status != verification.StatusError {
		t.Fatalf("expected error status, got %s", s.Status)
	}
	if s.ConfidenceScore != 0 {
		t.Fatalf("expected zero score, got %v", s.ConfidenceScore)
	}
	if len(s.Issues) != 2 {
		t.Fatalf("expected original issue preserved, got %v", s.Issues)
	}
}

func TestReportSanitize_ValidUnchanged(t *testing.T) {
	r := verification.Report{Status: verification.StatusSuspicious, ConfidenceScore: 62}
	if s := r.Sanitize(); s.Status != verification.StatusSuspicious || s.ConfidenceScore != 62 {
		t.Fatalf("valid report was modified: %+v", s)
	}
}

func TestStateTerminal(t *testing.T) {
	if verification.StatePending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	for _, s := range []verification.State{
		verification.StateApproved,
		verification.StateRejected,
		verification.StateAutoApproved,
		verification.StateAutoRejected,
	} {
		if !s.Terminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	if verification.State("archived").Terminal() {
		t.Fatal("unknown state must not be terminal")
	}
}

func TestOutcomeState(t *testing.T) {
	s, err := verification.OutcomeApprove.State()
	if err != nil || s != verification.StateApproved {
		t.Fatalf("approve: got (%s, %v)", s, err)
	}
	s, err = verification.OutcomeReject.State()
	if err != nil || s != verification.StateRejected {
		t.Fatalf("reject: got (%s, %v)", s, err)
	}
	if _, err := verification.Outcome("defer").State(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}

func TestCasePriority(t *testing.T) {
	c := &verification.Case{Report: verification.Report{Status: verification.StatusError}}
	if !c.Priority() {
		t.Fatal("error-status case must have priority")
	}
	c.Report.Status = verification.StatusSuspicious
	if c.Priority() {
		t.Fatal("suspicious case must not have priority")
	}
}

func TestConflictError_UnwrapsToConflict(t *testing.T) {
	err := error(&verification.ConflictError{CaseID: "c1", State: verification.StateApproved})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatal("ConflictError must unwrap to domain.ErrConflict")
	}
	var ce *verification.ConflictError
	if !errors.As(err, &ce) || ce.State != verification.StateApproved {
		t.Fatalf("expected actual state in conflict error, got %+v", ce)
	}
}
