package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime/bus"
	"github.com/yungbote/learn2go-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Lesson    services.LessonService
	Progress  services.ProgressService
	Telemetry services.TelemetryService
	Analytics services.AnalyticsService
	Visit     services.VisitService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, b bus.Bus) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	lesson := services.NewLessonService(db, log, repos.Lesson)
	progress := services.NewProgressService(db, log, repos.LessonProgress)
	telemetry := services.NewTelemetryService(db, log, repos.UserEvent, b)
	analytics := services.NewAnalyticsService(db, log, repos.Lesson, repos.LessonProgress, repos.UserEvent)

	visit := services.NewVisitService(log, cfg.Visit, lesson, progress, telemetry, b, flow.SystemClock())

	return Services{
		Auth:      auth,
		Lesson:    lesson,
		Progress:  progress,
		Telemetry: telemetry,
		Analytics: analytics,
		Visit:     visit,
	}, nil
}
