package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "verigate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "VERIGATE_PORT")
	setString(&cfg.Server.CORSOrigin, "VERIGATE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "VERIGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "VERIGATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "VERIGATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "VERIGATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "VERIGATE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Scoring.URL, "VERIGATE_SCORING_URL")
	setDuration(&cfg.Scoring.Timeout, "VERIGATE_SCORING_TIMEOUT")
	setFloat64(&cfg.Routing.AutoApproveScore, "VERIGATE_AUTO_APPROVE_SCORE")
	setFloat64(&cfg.Routing.AutoRejectScore, "VERIGATE_AUTO_REJECT_SCORE")
	setString(&cfg.Logging.Level, "VERIGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "VERIGATE_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "VERIGATE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "VERIGATE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "VERIGATE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "VERIGATE_RATE_BURST")
	setInt64(&cfg.Cache.MaxSizeMB, "VERIGATE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "VERIGATE_CACHE_TTL")
	setString(&cfg.Watch.Dir, "VERIGATE_WATCH_DIR")
	setDuration(&cfg.Watch.Interval, "VERIGATE_WATCH_INTERVAL")
	setInt(&cfg.Watch.MaxParallel, "VERIGATE_WATCH_MAX_PARALLEL")
	setBool(&cfg.Telemetry.Enabled, "VERIGATE_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "VERIGATE_OTLP_ENDPOINT")
}

// validate checks that required fields are set and thresholds are coherent.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Scoring.URL == "" {
		return errors.New("scoring.url is required")
	}
	if cfg.Scoring.Timeout <= 0 {
		return errors.New("scoring.timeout must be > 0")
	}
	if cfg.Routing.AutoApproveScore < 0 || cfg.Routing.AutoApproveScore > 100 {
		return errors.New("routing.auto_approve_score must be in [0,100]")
	}
	if cfg.Routing.AutoRejectScore < 0 || cfg.Routing.AutoRejectScore > 100 {
		return errors.New("routing.auto_reject_score must be in [0,100]")
	}
	if cfg.Routing.AutoRejectScore > cfg.Routing.AutoApproveScore {
		return errors.New("routing.auto_reject_score must not exceed auto_approve_score")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Watch.Dir != "" && cfg.Watch.MaxParallel < 1 {
		return errors.New("watch.max_parallel must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
