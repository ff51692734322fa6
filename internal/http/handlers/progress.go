package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/services"
)

var errNoProgress = errors.New("no progress for this lesson")

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/progress
func (h *ProgressHandler) List(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	rows, err := h.progress.ListForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondAPIError(c, err, "progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": rows})
}

// GET /api/progress/:id
func (h *ProgressHandler) Get(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	row, err := h.progress.Get(c.Request.Context(), rd.UserID, lessonID)
	if err != nil {
		response.RespondAPIError(c, err, "progress_failed")
		return
	}
	if row == nil {
		response.RespondError(c, http.StatusNotFound, "progress_not_found", errNoProgress)
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}
