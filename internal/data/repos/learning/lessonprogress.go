package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

type LessonProgressRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.LessonProgress, error)
	ListUpdatedBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.LessonProgress, error)
	UpsertQuizResult(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, score int, completed bool) error
	SetGameScore(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, score int) error
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

// Get returns nil, nil when the user has never submitted the lesson's quiz.
func (r *lessonProgressRepo) Get(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	if userID == uuid.Nil || lessonID == uuid.Nil {
		return nil, nil
	}
	var row types.LessonProgress
	err := r.tx(tx).WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonProgressRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.LessonProgress, error) {
	var out []*types.LessonProgress
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonProgressRepo) ListUpdatedBetween(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]*types.LessonProgress, error) {
	var out []*types.LessonProgress
	if err := r.tx(tx).WithContext(ctx).
		Where("updated_at >= ? AND updated_at < ?", from.UTC(), to.UTC()).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertQuizResult records a quiz submission. The latest score wins; completion is sticky and
// keeps its first completed_at.
func (r *lessonProgressRepo) UpsertQuizResult(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, score int, completed bool) error {
	if userID == uuid.Nil || lessonID == uuid.Nil {
		return errors.New("user and lesson ids are required")
	}
	now := time.Now().UTC()
	row := &types.LessonProgress{
		ID:        uuid.New(),
		UserID:    userID,
		LessonID:  lessonID,
		Completed: completed,
		Score:     score,
		Attempts:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if completed {
		row.CompletedAt = &now
	}
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score":        gorm.Expr("excluded.score"),
				"completed":    gorm.Expr("lesson_progress.completed OR excluded.completed"),
				"completed_at": gorm.Expr("COALESCE(lesson_progress.completed_at, excluded.completed_at)"),
				"attempts":     gorm.Expr("lesson_progress.attempts + 1"),
				"updated_at":   gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(row).Error
}

// SetGameScore is a no-op when no quiz result was ever stored for the pair.
func (r *lessonProgressRepo) SetGameScore(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, score int) error {
	return r.tx(tx).WithContext(ctx).
		Model(&types.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Updates(map[string]interface{}{
			"game_score": score,
			"updated_at": time.Now().UTC(),
		}).Error
}
