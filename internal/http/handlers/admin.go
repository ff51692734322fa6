package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/services"
)

type AdminHandler struct {
	analytics services.AnalyticsService
	lessons   services.LessonService
}

func NewAdminHandler(analytics services.AnalyticsService, lessons services.LessonService) *AdminHandler {
	return &AdminHandler{analytics: analytics, lessons: lessons}
}

// GET /api/admin/analytics?from=&to=&format=json|csv
func (h *AdminHandler) Analytics(c *gin.Context) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_from", err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_to", err)
		return
	}
	report, err := h.analytics.Report(c.Request.Context(), from, to)
	if err != nil {
		response.RespondAPIError(c, err, "analytics_failed")
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		response.RespondOK(c, report)
	case "csv":
		var buf bytes.Buffer
		if err := h.analytics.WriteCSV(&buf, report); err != nil {
			response.RespondAPIError(c, err, "analytics_failed")
			return
		}
		name := fmt.Sprintf("learn2go-analytics-%s.csv", report.To.Format("20060102"))
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_format", fmt.Errorf("format must be json or csv"))
	}
}

// POST /api/admin/lessons
func (h *AdminHandler) CreateLesson(c *gin.Context) {
	var in services.LessonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errInvalidBody)
		return
	}
	l, err := h.lessons.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err, "lesson_create_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lesson": l})
}

// PUT /api/admin/lessons/:id
func (h *AdminHandler) UpdateLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.LessonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errInvalidBody)
		return
	}
	l, err := h.lessons.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err, "lesson_update_failed")
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// DELETE /api/admin/lessons/:id
func (h *AdminHandler) DeleteLesson(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.lessons.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err, "lesson_delete_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// parseTimeQuery accepts RFC 3339 timestamps or plain dates. A missing value is the zero time.
func parseTimeQuery(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: want RFC 3339 or YYYY-MM-DD, got %q", name, raw)
	}
	return t, nil
}
