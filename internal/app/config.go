package app

import (
	"strings"
	"time"

	"github.com/yungbote/learn2go-backend/internal/data/db"
	"github.com/yungbote/learn2go-backend/internal/http/middleware"
	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/learning/quiz"
	"github.com/yungbote/learn2go-backend/internal/observability"
	"github.com/yungbote/learn2go-backend/internal/platform/envutil"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime/bus"
	"github.com/yungbote/learn2go-backend/internal/services"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port    string
	LogMode string

	DBDriver   string
	Postgres   db.PostgresConfig
	SQLitePath string

	JWTSecretKey string
	JWTIssuer    string

	RedisAddr    string
	RedisChannel string

	Visit       services.VisitConfig
	SeedCatalog bool
	CORSOrigins []string

	Otel observability.OtelConfig

	MetricsEnabled        bool
	MetricsAddr           string
	MetricsScrapeInterval time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	driver := strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres, log))
	if driver != DriverPostgres && driver != DriverSQLite {
		log.Warn("unknown DB_DRIVER, using postgres", "value", driver)
		driver = DriverPostgres
	}

	serviceName := envutil.String("OTEL_SERVICE_NAME", "learn2go-backend", log)

	return Config{
		Port:    envutil.String("PORT", "8080", log),
		LogMode: envutil.String("LOG_MODE", "development", log),

		DBDriver: driver,
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost", log),
			Port:     envutil.String("POSTGRES_PORT", "5432", log),
			User:     envutil.String("POSTGRES_USER", "postgres", log),
			Password: envutil.String("POSTGRES_PASSWORD", "", nil),
			Name:     envutil.String("POSTGRES_NAME", "learn2go", log),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
		},
		SQLitePath: envutil.String("SQLITE_PATH", "learn2go.db", log),

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", "", nil),
		JWTIssuer:    envutil.String("JWT_ISSUER", "", log),

		RedisAddr:    envutil.String("REDIS_ADDR", "", log),
		RedisChannel: envutil.String("REDIS_CHANNEL", bus.DefaultRedisChannel, log),

		Visit: services.VisitConfig{
			PassThreshold:        envutil.Int("QUIZ_PASS_THRESHOLD", quiz.PassThreshold, log),
			QuizResultDelay:      envutil.Duration("QUIZ_RESULT_DELAY", flow.DefaultQuizResultDelay, log),
			GameCelebrationDelay: envutil.Duration("GAME_CELEBRATION_DELAY", flow.DefaultGameCelebrationDelay, log),
			IdleTTL:              envutil.Duration("VISIT_IDLE_TTL", services.DefaultVisitIdleTTL, log),
		},
		SeedCatalog: envutil.Bool("SEED_CATALOG", false),
		CORSOrigins: envutil.List("CORS_ALLOWED_ORIGINS", middleware.DefaultCORSOrigins),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: serviceName,
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", nil)),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
		},

		MetricsEnabled:        envutil.Bool("METRICS_ENABLED", false),
		MetricsAddr:           envutil.String("METRICS_ADDR", ":9090", log),
		MetricsScrapeInterval: envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second, log),
	}
}
