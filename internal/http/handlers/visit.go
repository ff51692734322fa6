package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
	"github.com/yungbote/learn2go-backend/internal/services"
)

var errInvalidBody = errors.New("invalid request body")

type VisitHandler struct {
	visits services.VisitService
}

func NewVisitHandler(visits services.VisitService) *VisitHandler {
	return &VisitHandler{visits: visits}
}

// POST /api/lessons/:id/visits
func (h *VisitHandler) Start(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var opts services.VisitOptions
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_body", errInvalidBody)
			return
		}
	}
	opts.AllowDrafts = rd.IsAdmin()
	snap, err := h.visits.Start(c.Request.Context(), rd.UserID, lessonID, opts)
	if err != nil {
		respondLessonErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visit": snap})
}

// GET /api/visits/:id
func (h *VisitHandler) Get(c *gin.Context) {
	h.do(c, h.visits.Snapshot)
}

// POST /api/visits/:id/continue
func (h *VisitHandler) Continue(c *gin.Context) {
	h.do(c, h.visits.Continue)
}

// POST /api/visits/:id/answer {"option": 1}
func (h *VisitHandler) Answer(c *gin.Context) {
	var req struct {
		Option *int `json:"option"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Option == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errInvalidBody)
		return
	}
	h.do(c, func(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
		return h.visits.Answer(ctx, userID, visitID, *req.Option)
	})
}

// POST /api/visits/:id/next
func (h *VisitHandler) Next(c *gin.Context) {
	h.do(c, h.visits.Next)
}

// POST /api/visits/:id/retake
func (h *VisitHandler) Retake(c *gin.Context) {
	h.do(c, h.visits.Retake)
}

// POST /api/visits/:id/back
func (h *VisitHandler) BackToLesson(c *gin.Context) {
	h.do(c, h.visits.BackToLesson)
}

// POST /api/visits/:id/game {"score": 87.5}
func (h *VisitHandler) ReportGame(c *gin.Context) {
	var req struct {
		Score *float64 `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Score == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errInvalidBody)
		return
	}
	h.do(c, func(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error) {
		return h.visits.ReportGame(ctx, userID, visitID, *req.Score)
	})
}

// POST /api/visits/:id/finish
func (h *VisitHandler) Finish(c *gin.Context) {
	h.do(c, h.visits.Finish)
}

// DELETE /api/visits/:id
func (h *VisitHandler) Leave(c *gin.Context) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	visitID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.visits.Leave(c.Request.Context(), rd.UserID, visitID); err != nil {
		response.RespondAPIError(c, err, "visit_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

type visitAction func(ctx context.Context, userID, visitID uuid.UUID) (flow.Snapshot, error)

// do runs a visit action. Guard violations still return the unchanged snapshot next to the error
// so the client can resync.
func (h *VisitHandler) do(c *gin.Context, action visitAction) {
	rd := requireUser(c)
	if rd == nil {
		return
	}
	visitID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	snap, err := action(c.Request.Context(), rd.UserID, visitID)
	if err != nil {
		ae := apierr.As(err, "visit_failed")
		if snap.VisitID == uuid.Nil || ae.Status >= http.StatusInternalServerError {
			response.RespondAPIError(c, err, "visit_failed")
			return
		}
		c.JSON(ae.Status, gin.H{
			"error": response.APIError{Message: ae.Error(), Code: ae.Code},
			"visit": snap,
		})
		return
	}
	response.RespondOK(c, gin.H{"visit": snap})
}
