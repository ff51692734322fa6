package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/http/response"
	"github.com/yungbote/learn2go-backend/internal/learning/catalog"
	"github.com/yungbote/learn2go-backend/internal/learning/game"
	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
	"github.com/yungbote/learn2go-backend/internal/platform/ctxutil"
	"github.com/yungbote/learn2go-backend/internal/services"
)

type LessonHandler struct {
	lessons services.LessonService
}

func NewLessonHandler(lessons services.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// questionView never carries the correct answer; that is revealed by the quiz result.
type questionView struct {
	ID      uuid.UUID `json:"id"`
	Index   int       `json:"index"`
	Prompt  string    `json:"prompt"`
	Options []string  `json:"options"`
}

type lessonView struct {
	ID          uuid.UUID      `json:"id"`
	Slug        string         `json:"slug"`
	Locale      string         `json:"locale"`
	Region      string         `json:"region"`
	Position    int            `json:"position"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Body        string         `json:"body,omitempty"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	Difficulty  int            `json:"difficulty"`
	GameKind    game.Kind      `json:"game_kind"`
	Questions   []questionView `json:"questions,omitempty"`
}

func newLessonView(l *types.Lesson, full bool) lessonView {
	v := lessonView{
		ID:          l.ID,
		Slug:        l.Slug,
		Locale:      l.Locale,
		Region:      l.Region,
		Position:    l.Position,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Tags:        append([]string{}, l.Tags...),
		Difficulty:  l.Difficulty,
		GameKind:    game.KindFor(l),
	}
	if !full {
		return v
	}
	v.Body = l.Body
	v.Questions = make([]questionView, 0, len(l.Questions))
	for _, q := range l.Questions {
		v.Questions = append(v.Questions, questionView{
			ID:      q.ID,
			Index:   q.Index,
			Prompt:  q.Prompt,
			Options: append([]string{}, q.Options...),
		})
	}
	return v
}

// GET /api/lessons?locale=&region=
func (h *LessonHandler) ListCatalog(c *gin.Context) {
	locale := strings.TrimSpace(c.DefaultQuery("locale", "en"))
	region := strings.TrimSpace(c.Query("region"))
	lessons, err := h.lessons.ListCatalog(c.Request.Context(), locale, region)
	if err != nil {
		response.RespondAPIError(c, err, "catalog_failed")
		return
	}
	out := make([]lessonView, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, newLessonView(l, false))
	}
	response.RespondOK(c, gin.H{"lessons": out})
}

// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	l, ok := h.loadLesson(c)
	if !ok {
		return
	}
	view := newLessonView(l, true)
	cat, err := h.lessons.Catalog(c.Request.Context(), l.Locale, l.Region)
	next := catalog.DashboardRoute
	if err == nil {
		next = cat.NextRoute(l.ID)
	}
	response.RespondOK(c, gin.H{"lesson": view, "next_route": next})
}

// loadLesson answers 404 with a dashboard redirect for missing lessons, and hides drafts from
// everyone but admins.
func (h *LessonHandler) loadLesson(c *gin.Context) (*types.Lesson, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil, false
	}
	l, err := h.lessons.GetLesson(c.Request.Context(), id)
	if err == nil && !l.Published && !ctxutil.GetRequestData(c.Request.Context()).IsAdmin() {
		err = apierr.NotFound("lesson_not_found", services.ErrLessonNotFound)
	}
	if err != nil {
		respondLessonErr(c, err)
		return nil, false
	}
	return l, true
}

func respondLessonErr(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status == http.StatusNotFound {
		response.RespondRedirect(c, ae.Status, ae.Code, ae, catalog.DashboardRoute)
		return
	}
	response.RespondAPIError(c, err, "lesson_failed")
}
