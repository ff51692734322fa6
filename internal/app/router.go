package app

import (
	apphttp "github.com/yungbote/learn2go-backend/internal/http"
	"github.com/yungbote/learn2go-backend/internal/observability"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		ServiceName: cfg.Otel.ServiceName,
		CORSOrigins: cfg.CORSOrigins,

		AuthMiddleware: middleware.Auth,

		LessonHandler:    handlers.Lesson,
		VisitHandler:     handlers.Visit,
		ProgressHandler:  handlers.Progress,
		NarrationHandler: handlers.Narration,
		EventHandler:     handlers.Event,
		AdminHandler:     handlers.Admin,
		RealtimeHandler:  handlers.Realtime,

		HealthHandler: handlers.Health,
	})
}
