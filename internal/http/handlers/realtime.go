package handlers

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient // key: user, session and channel
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// GET /api/events/stream: visit updates for the caller.
func (h *RealtimeHandler) UserStream(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	h.serve(c, rd.UserID, rd.SessionID, realtime.UserChannel(rd.UserID))
}

// GET /api/admin/events/stream: every recorded learning event.
func (h *RealtimeHandler) AdminStream(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	h.serve(c, rd.UserID, rd.SessionID, realtime.AdminTelemetryChannel)
}

// serve keeps one stream per session and channel; a reconnect replaces the previous stream.
func (h *RealtimeHandler) serve(c *gin.Context, userID, sessionID uuid.UUID, channel string) {
	key := uuid.NewSHA1(userID, []byte(sessionID.String()+"|"+channel))
	client := h.hub.NewSSEClient(userID)

	h.mu.Lock()
	if existing, ok := h.clients[key]; ok {
		h.hub.CloseClient(existing)
	}
	h.clients[key] = client
	h.mu.Unlock()

	h.log.Info("SSE stream open", "user_id", userID, "session_id", sessionID, "channel", channel)
	h.hub.AddChannel(client, channel)
	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.mu.Lock()
	if h.clients[key] == client {
		delete(h.clients, key)
	}
	h.mu.Unlock()
	h.hub.CloseClient(client)
}
