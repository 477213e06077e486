package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/verigate/verigate/internal/adapter/scoring"
	"github.com/verigate/verigate/internal/domain/verification"
	"github.com/verigate/verigate/internal/resilience"
)

func TestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer func() { _ = f.Close() }()
		if hdr.Filename != "marksheet.pdf" {
			t.Fatalf("unexpected filename: %q", hdr.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(verification.Report{
			Status:          verification.StatusVerified,
			ConfidenceScore: 97.2,
			ExtractedText:   "STATEMENT OF MARKS",
			TotalTextBlocks: 42,
		})
	}))
	defer srv.Close()

	client := scoring.NewClient(srv.URL, 5*time.Second)
	report, err := client.Score(context.Background(), "marksheet.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if report.Status != verification.StatusVerified {
		t.Fatalf("expected verified, got %s", report.Status)
	}
	if report.ConfidenceScore != 97.2 {
		t.Fatalf("expected score 97.2, got %v", report.ConfidenceScore)
	}
}

func TestScore_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := scoring.NewClient(srv.URL, 5*time.Second)
	if _, err := client.Score(context.Background(), "doc.jpg", []byte{0xFF, 0xD8}); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client := scoring.NewClient(srv.URL, 5*time.Second)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}

func TestScore_BreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := scoring.NewClient(srv.URL, 5*time.Second)
	client.SetBreaker(resilience.NewBreaker(2, time.Minute))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.Score(ctx, "doc.pdf", []byte("%PDF")); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := client.Score(ctx, "doc.pdf", []byte("%PDF"))
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}
