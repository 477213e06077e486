package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Routing.AutoApproveScore != 90 {
		t.Errorf("expected auto-approve 90, got %v", cfg.Routing.AutoApproveScore)
	}
	if cfg.Routing.AutoRejectScore != 20 {
		t.Errorf("expected auto-reject 20, got %v", cfg.Routing.AutoRejectScore)
	}
	if cfg.Scoring.Timeout != 20*time.Second {
		t.Errorf("expected scoring timeout 20s, got %v", cfg.Scoring.Timeout)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
scoring:
  url: "http://scorer:9100"
  timeout: 5s
routing:
  auto_approve_score: 95
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Scoring.URL != "http://scorer:9100" {
		t.Errorf("expected scorer URL override, got %s", cfg.Scoring.URL)
	}
	if cfg.Scoring.Timeout != 5*time.Second {
		t.Errorf("expected scoring timeout 5s, got %v", cfg.Scoring.Timeout)
	}
	if cfg.Routing.AutoApproveScore != 95 {
		t.Errorf("expected auto-approve 95, got %v", cfg.Routing.AutoApproveScore)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("VERIGATE_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("VERIGATE_AUTO_APPROVE_SCORE", "85.5")
	t.Setenv("VERIGATE_SCORING_TIMEOUT", "7s")
	t.Setenv("VERIGATE_TELEMETRY_ENABLED", "true")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected DSN override, got %s", cfg.Postgres.DSN)
	}
	if cfg.Routing.AutoApproveScore != 85.5 {
		t.Errorf("expected auto-approve 85.5, got %v", cfg.Routing.AutoApproveScore)
	}
	if cfg.Scoring.Timeout != 7*time.Second {
		t.Errorf("expected scoring timeout 7s, got %v", cfg.Scoring.Timeout)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("expected telemetry enabled")
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := Defaults()
	cfg.Routing.AutoRejectScore = 95 // above auto-approve
	if err := validate(&cfg); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}
}

func TestValidateRejectsZeroScoringTimeout(t *testing.T) {
	cfg := Defaults()
	cfg.Scoring.Timeout = 0
	if err := validate(&cfg); err == nil {
		t.Fatal("expected error for zero scoring timeout")
	}
}

func TestLoadFromAppliesValidation(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	content := `
routing:
  auto_approve_score: 10
  auto_reject_score: 60
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(yamlPath); err == nil {
		t.Fatal("expected validation failure")
	}
}
