package learning

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learn2go-backend/internal/domain"
	domainlearning "github.com/yungbote/learn2go-backend/internal/domain/learning"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

type CatalogFilter struct {
	Locale string
	// Region "" matches only region-neutral lessons; any other value also includes them.
	Region           string
	AllRegions       bool
	IncludeDrafts    bool
	IncludeQuestions bool
}

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error)
	ListCatalog(ctx context.Context, tx *gorm.DB, filter CatalogFilter) ([]*types.Lesson, error)
	ReplaceContent(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("question_index ASC")
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error) {
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	for _, l := range lessons {
		for i := range l.Questions {
			if !l.Questions[i].Valid() {
				return nil, domainlearning.ErrInvalidQuestion
			}
		}
	}
	// Create omits a false published and reads the column default back, so drafts are noted first.
	var drafts []*types.Lesson
	for _, l := range lessons {
		if !l.Published {
			drafts = append(drafts, l)
		}
	}
	err := r.tx(tx).WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Create(&lessons).Error; err != nil {
			return err
		}
		for _, l := range drafts {
			if err := txx.Model(&types.Lesson{}).Where("id = ?", l.ID).Update("published", false).Error; err != nil {
				return err
			}
			l.Published = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lesson, error) {
	if id == uuid.Nil {
		return nil, domainlearning.ErrLessonNotFound
	}
	var row types.Lesson
	err := r.tx(tx).WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainlearning.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
	var out []*types.Lesson
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.tx(tx).WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListCatalog returns lessons in catalog order: position, then title, then id for stability.
func (r *lessonRepo) ListCatalog(ctx context.Context, tx *gorm.DB, filter CatalogFilter) ([]*types.Lesson, error) {
	q := r.tx(tx).WithContext(ctx).Model(&types.Lesson{})
	if locale := strings.TrimSpace(filter.Locale); locale != "" {
		q = q.Where("locale = ?", locale)
	}
	switch region := strings.TrimSpace(filter.Region); {
	case filter.AllRegions:
	case region != "":
		q = q.Where("region = ? OR region = ''", region)
	default:
		q = q.Where("region = ''")
	}
	if !filter.IncludeDrafts {
		q = q.Where("published = ?", true)
	}
	if filter.IncludeQuestions {
		q = q.Preload("Questions", orderedQuestions)
	}
	var out []*types.Lesson
	if err := q.Order("position ASC, title ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceContent overwrites the lesson's editable fields and swaps its question list wholesale.
func (r *lessonRepo) ReplaceContent(ctx context.Context, tx *gorm.DB, lesson *types.Lesson) (*types.Lesson, error) {
	if lesson == nil || lesson.ID == uuid.Nil {
		return nil, domainlearning.ErrLessonNotFound
	}
	for i := range lesson.Questions {
		if !lesson.Questions[i].Valid() {
			return nil, domainlearning.ErrInvalidQuestion
		}
	}
	err := r.tx(tx).WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		res := txx.Model(&types.Lesson{ID: lesson.ID}).
			Select("slug", "locale", "region", "position", "title", "description", "body", "category", "tags", "difficulty", "published", "updated_at").
			Omit(clause.Associations).
			Updates(lesson)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainlearning.ErrLessonNotFound
		}
		if err := txx.Where("lesson_id = ?", lesson.ID).Delete(&types.QuizQuestion{}).Error; err != nil {
			return err
		}
		if len(lesson.Questions) == 0 {
			return nil
		}
		questions := make([]*types.QuizQuestion, 0, len(lesson.Questions))
		for i := range lesson.Questions {
			q := lesson.Questions[i]
			q.ID = uuid.Nil
			q.LessonID = lesson.ID
			q.Index = i
			questions = append(questions, &q)
		}
		return txx.Create(&questions).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, tx, lesson.ID)
}

func (r *lessonRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var n int64
	err := r.tx(tx).WithContext(ctx).Model(&types.Lesson{}).Count(&n).Error
	return n, err
}

func (r *lessonRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.Lesson{}).Error
}
