package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/data/db"
	"github.com/yungbote/learn2go-backend/internal/data/repos"
	types "github.com/yungbote/learn2go-backend/internal/domain"
	domainlearning "github.com/yungbote/learn2go-backend/internal/domain/learning"
	"github.com/yungbote/learn2go-backend/internal/learning/catalog"
	"github.com/yungbote/learn2go-backend/internal/platform/apierr"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

var (
	ErrLessonNotFound = domainlearning.ErrLessonNotFound
	ErrInvalidLesson  = errors.New("invalid lesson")
)

var slugUnsafeRe = regexp.MustCompile(`[^a-z0-9]+`)

type QuestionInput struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

type LessonInput struct {
	Slug        string          `json:"slug"`
	Locale      string          `json:"locale"`
	Region      string          `json:"region"`
	Position    int             `json:"position"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Body        string          `json:"body"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Difficulty  int             `json:"difficulty"`
	Published   *bool           `json:"published"`
	Questions   []QuestionInput `json:"questions"`
}

// LessonService is the content store: catalog reads for learners and content management for
// admins.
type LessonService interface {
	GetLesson(ctx context.Context, id uuid.UUID) (*types.Lesson, error)
	ListCatalog(ctx context.Context, locale, region string) ([]*types.Lesson, error)
	Catalog(ctx context.Context, locale, region string) (*catalog.Catalog, error)
	Create(ctx context.Context, in LessonInput) (*types.Lesson, error)
	Update(ctx context.Context, id uuid.UUID, in LessonInput) (*types.Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type lessonService struct {
	db      *gorm.DB
	log     *logger.Logger
	lessons repos.LessonRepo
}

func NewLessonService(db *gorm.DB, baseLog *logger.Logger, lessons repos.LessonRepo) LessonService {
	return &lessonService{
		db:      db,
		log:     baseLog.With("service", "LessonService"),
		lessons: lessons,
	}
}

// GetLesson returns a 404 apierr when the lesson does not exist or was deleted.
func (s *lessonService) GetLesson(ctx context.Context, id uuid.UUID) (*types.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, nil, id)
	if errors.Is(err, ErrLessonNotFound) {
		return nil, apierr.NotFound("lesson_not_found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	return l, nil
}

func (s *lessonService) ListCatalog(ctx context.Context, locale, region string) ([]*types.Lesson, error) {
	out, err := s.lessons.ListCatalog(ctx, nil, repos.CatalogFilter{
		Locale: normalizeLocale(locale),
		Region: strings.ToLower(strings.TrimSpace(region)),
	})
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return out, nil
}

func (s *lessonService) Catalog(ctx context.Context, locale, region string) (*catalog.Catalog, error) {
	lessons, err := s.ListCatalog(ctx, locale, region)
	if err != nil {
		return nil, err
	}
	return catalog.New(lessons), nil
}

func (s *lessonService) Create(ctx context.Context, in LessonInput) (*types.Lesson, error) {
	l, err := lessonFromInput(in)
	if err != nil {
		return nil, err
	}
	created, err := s.lessons.Create(ctx, nil, []*types.Lesson{l})
	if err != nil {
		return nil, s.mapWriteErr(err)
	}
	s.log.Info("lesson created", "lesson_id", created[0].ID, "slug", created[0].Slug, "locale", created[0].Locale)
	return s.GetLesson(ctx, created[0].ID)
}

func (s *lessonService) Update(ctx context.Context, id uuid.UUID, in LessonInput) (*types.Lesson, error) {
	l, err := lessonFromInput(in)
	if err != nil {
		return nil, err
	}
	l.ID = id
	updated, err := s.lessons.ReplaceContent(ctx, nil, l)
	if err != nil {
		return nil, s.mapWriteErr(err)
	}
	s.log.Info("lesson updated", "lesson_id", id, "questions", len(updated.Questions))
	return updated, nil
}

func (s *lessonService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetLesson(ctx, id); err != nil {
		return err
	}
	if err := s.lessons.SoftDeleteByIDs(ctx, nil, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	s.log.Info("lesson deleted", "lesson_id", id)
	return nil
}

func (s *lessonService) mapWriteErr(err error) error {
	switch {
	case errors.Is(err, ErrLessonNotFound):
		return apierr.NotFound("lesson_not_found", err)
	case errors.Is(err, domainlearning.ErrInvalidQuestion):
		return apierr.New(http.StatusUnprocessableEntity, "invalid_question", err)
	}
	if db.Classify(err) == db.ClassConflict {
		return apierr.Conflict("lesson_slug_taken", fmt.Errorf("a lesson with this slug already exists for the locale and region"))
	}
	return fmt.Errorf("save lesson: %w", err)
}

func lessonFromInput(in LessonInput) (*types.Lesson, error) {
	invalid := func(msg string) error {
		return apierr.New(http.StatusUnprocessableEntity, "invalid_lesson", fmt.Errorf("%w: %s", ErrInvalidLesson, msg))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	locale := normalizeLocale(in.Locale)
	if locale == "" {
		return nil, invalid("locale is required")
	}
	if len(in.Questions) == 0 {
		return nil, invalid("at least one quiz question is required")
	}
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, invalid("slug is empty")
	}
	difficulty := in.Difficulty
	if difficulty <= 0 {
		difficulty = 1
	}
	published := true
	if in.Published != nil {
		published = *in.Published
	}

	l := &types.Lesson{
		Slug:        slug,
		Locale:      locale,
		Region:      strings.ToLower(strings.TrimSpace(in.Region)),
		Position:    in.Position,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Body:        in.Body,
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
		Tags:        cleanTags(in.Tags),
		Difficulty:  difficulty,
		Published:   published,
	}
	for i, q := range in.Questions {
		qq := types.QuizQuestion{
			Index:        i,
			Prompt:       strings.TrimSpace(q.Prompt),
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  strings.TrimSpace(q.Explanation),
		}
		if qq.Prompt == "" {
			return nil, invalid(fmt.Sprintf("question %d has no prompt", i))
		}
		if !qq.Valid() {
			return nil, apierr.New(http.StatusUnprocessableEntity, "invalid_question",
				fmt.Errorf("question %d: %w", i, domainlearning.ErrInvalidQuestion))
		}
		l.Questions = append(l.Questions, qq)
	}
	return l, nil
}

// Slugify lowercases s and joins its alphanumeric runs with '-'.
func Slugify(s string) string {
	s = slugUnsafeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

// normalizeLocale keeps the primary language subtag: "en-US" and "EN_us" both become "en".
func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(locale, "_", "-")))
	if i := strings.IndexByte(locale, '-'); i >= 0 {
		locale = locale[:i]
	}
	return locale
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
