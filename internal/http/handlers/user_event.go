package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/services"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

type EventHandler struct {
	events services.TelemetryService
}

func NewEventHandler(events services.TelemetryService) *EventHandler {
	return &EventHandler{events: events}
}

// GET /api/events?limit=
func (h *EventHandler) ListRecent(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultEventLimit)))
	if err != nil || limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	rows, err := h.events.ListRecent(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		response.RespondAPIError(c, err, "events_failed")
		return
	}
	response.RespondOK(c, gin.H{"events": rows})
}

// GET /api/visits/:id/events. Only the caller's own events are returned.
func (h *EventHandler) ListByVisit(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	visitID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.events.ListByVisit(c.Request.Context(), visitID)
	if err != nil {
		response.RespondAPIError(c, err, "events_failed")
		return
	}
	out := make([]*types.UserEvent, 0, len(rows))
	for _, ev := range rows {
		if ev.UserID == rd.UserID {
			out = append(out, ev)
		}
	}
	response.RespondOK(c, gin.H{"events": out})
}
