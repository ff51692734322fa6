package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/learn2go-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learn2go-backend/internal/http/middleware"
	"github.com/yungbote/learn2go-backend/internal/observability"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	LessonHandler    *httpH.LessonHandler
	VisitHandler     *httpH.VisitHandler
	ProgressHandler  *httpH.ProgressHandler
	NarrationHandler *httpH.NarrationHandler
	EventHandler     *httpH.EventHandler
	AdminHandler     *httpH.AdminHandler
	RealtimeHandler  *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "learn2go"
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Lessons
		if cfg.LessonHandler != nil {
			protected.GET("/lessons", cfg.LessonHandler.ListCatalog)
			protected.GET("/lessons/:id", cfg.LessonHandler.GetLesson)
		}

		// Visits (lesson flow)
		if cfg.VisitHandler != nil {
			protected.POST("/lessons/:id/visits", cfg.VisitHandler.Start)
			protected.GET("/visits/:id", cfg.VisitHandler.Get)
			protected.POST("/visits/:id/continue", cfg.VisitHandler.Continue)
			protected.POST("/visits/:id/answer", cfg.VisitHandler.Answer)
			protected.POST("/visits/:id/next", cfg.VisitHandler.Next)
			protected.POST("/visits/:id/retake", cfg.VisitHandler.Retake)
			protected.POST("/visits/:id/back", cfg.VisitHandler.BackToLesson)
			protected.POST("/visits/:id/game", cfg.VisitHandler.ReportGame)
			protected.POST("/visits/:id/finish", cfg.VisitHandler.Finish)
			protected.DELETE("/visits/:id", cfg.VisitHandler.Leave)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.List)
			protected.GET("/progress/:id", cfg.ProgressHandler.Get)
		}

		// Narration
		if cfg.NarrationHandler != nil {
			protected.POST("/narration/voice", cfg.NarrationHandler.SelectVoice)
			protected.GET("/lessons/:id/narration", cfg.NarrationHandler.Segments)
		}

		// Telemetry
		if cfg.EventHandler != nil {
			protected.GET("/events", cfg.EventHandler.ListRecent)
			protected.GET("/visits/:id/events", cfg.EventHandler.ListByVisit)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/events/stream", cfg.RealtimeHandler.UserStream)
		}
	}

	admin := protected.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	{
		if cfg.AdminHandler != nil {
			admin.GET("/analytics", cfg.AdminHandler.Analytics)
			admin.POST("/lessons", cfg.AdminHandler.CreateLesson)
			admin.PUT("/lessons/:id", cfg.AdminHandler.UpdateLesson)
			admin.DELETE("/lessons/:id", cfg.AdminHandler.DeleteLesson)
		}
		if cfg.RealtimeHandler != nil {
			admin.GET("/events/stream", cfg.RealtimeHandler.AdminStream)
		}
	}

	return r
}
