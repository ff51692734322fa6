package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/learn2go-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learn2go-backend/internal/http/middleware"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime"
)

type Handlers struct {
	Lesson    *httpH.LessonHandler
	Visit     *httpH.VisitHandler
	Progress  *httpH.ProgressHandler
	Narration *httpH.NarrationHandler
	Event     *httpH.EventHandler
	Admin     *httpH.AdminHandler
	Realtime  *httpH.RealtimeHandler
	Health    *httpH.HealthHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Lesson:    httpH.NewLessonHandler(services.Lesson),
		Visit:     httpH.NewVisitHandler(services.Visit),
		Progress:  httpH.NewProgressHandler(services.Progress),
		Narration: httpH.NewNarrationHandler(services.Lesson),
		Event:     httpH.NewEventHandler(services.Telemetry),
		Admin:     httpH.NewAdminHandler(services.Analytics, services.Lesson),
		Realtime:  httpH.NewRealtimeHandler(log, hub),
		Health:    httpH.NewHealthHandler(db),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}
