package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/learning/narration"
	"github.com/yungbote/learn2go-backend/internal/services"
)

var errNoVoice = errors.New("no voice available")

type NarrationHandler struct {
	lessons *LessonHandler
}

func NewNarrationHandler(lessons services.LessonService) *NarrationHandler {
	return &NarrationHandler{lessons: NewLessonHandler(lessons)}
}

type selectVoiceRequest struct {
	Locale string            `json:"locale"`
	Voices []narration.Voice `json:"voices"`
}

// POST /api/narration/voice
func (h *NarrationHandler) SelectVoice(c *gin.Context) {
	var req selectVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Locale) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errInvalidBody)
		return
	}
	v, ok := narration.SelectVoice(req.Locale, req.Voices)
	if !ok {
		response.RespondError(c, http.StatusNotFound, "voice_not_found", errNoVoice)
		return
	}
	response.RespondOK(c, gin.H{"voice": v})
}

// GET /api/lessons/:id/narration
func (h *NarrationHandler) Segments(c *gin.Context) {
	l, ok := h.lessons.loadLesson(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{
		"lesson_id": l.ID,
		"locale":    l.Locale,
		"segments":  narration.Segments(l),
	})
}
