package app

import (
	"testing"
	"time"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "QUIZ_PASS_THRESHOLD", "QUIZ_RESULT_DELAY", "VISIT_IDLE_TTL", "CORS_ALLOWED_ORIGINS", "OTEL_SAMPLER_RATIO"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("driver: want=%q got=%q", DriverPostgres, cfg.DBDriver)
	}
	if cfg.Visit.PassThreshold != 70 {
		t.Fatalf("pass threshold: want=70 got=%d", cfg.Visit.PassThreshold)
	}
	if cfg.Visit.QuizResultDelay != 2*time.Second || cfg.Visit.GameCelebrationDelay != 3*time.Second {
		t.Fatalf("delays: got=%v/%v", cfg.Visit.QuizResultDelay, cfg.Visit.GameCelebrationDelay)
	}
	if cfg.Visit.IdleTTL != 30*time.Minute {
		t.Fatalf("idle ttl: want=30m got=%v", cfg.Visit.IdleTTL)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Fatalf("expected default cors origins")
	}
	if cfg.Otel.SampleRatio != 0.1 {
		t.Fatalf("sample ratio: want=0.1 got=%v", cfg.Otel.SampleRatio)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("QUIZ_PASS_THRESHOLD", "80")
	t.Setenv("QUIZ_RESULT_DELAY", "500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-token=abc")

	cfg := LoadConfig(logger.Nop())
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("driver: want=%q got=%q", DriverSQLite, cfg.DBDriver)
	}
	if cfg.Visit.PassThreshold != 80 {
		t.Fatalf("pass threshold: want=80 got=%d", cfg.Visit.PassThreshold)
	}
	if cfg.Visit.QuizResultDelay != 500*time.Millisecond {
		t.Fatalf("quiz delay: want=500ms got=%v", cfg.Visit.QuizResultDelay)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got=%v", cfg.CORSOrigins)
	}
	if cfg.Otel.Headers["x-token"] != "abc" {
		t.Fatalf("otlp headers: got=%v", cfg.Otel.Headers)
	}
}

func TestLoadConfigUnknownDriverFallsBack(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if got := LoadConfig(logger.Nop()).DBDriver; got != DriverPostgres {
		t.Fatalf("driver: want=%q got=%q", DriverPostgres, got)
	}
}

func TestWireClientsDefaultsToLocalBus(t *testing.T) {
	clients, err := wireClients(logger.Nop(), Config{})
	if err != nil {
		t.Fatalf("wireClients: %v", err)
	}
	if clients.Bus == nil {
		t.Fatalf("expected a bus")
	}
	_ = clients.Bus.Close()
}
