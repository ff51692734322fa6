package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	types "github.com/yungbote/learn2go-backend/internal/domain"
	"github.com/yungbote/learn2go-backend/internal/platform/logger"
)

// ProgressService is the progress store. Writes are last-writer-wins per (user, lesson);
// completion is sticky once a passing score has been recorded.
type ProgressService interface {
	Get(ctx context.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.LessonProgress, error)
	UpsertProgress(ctx context.Context, userID, lessonID uuid.UUID, score int, completed bool) error
	RecordGameScore(ctx context.Context, userID, lessonID uuid.UUID, score int) error
}

type progressService struct {
	db       *gorm.DB
	log      *logger.Logger
	progress repos.LessonProgressRepo
}

func NewProgressService(db *gorm.DB, baseLog *logger.Logger, progress repos.LessonProgressRepo) ProgressService {
	return &progressService{
		db:       db,
		log:      baseLog.With("service", "ProgressService"),
		progress: progress,
	}
}

// Get returns nil, nil when the user has no record for the lesson.
func (s *progressService) Get(ctx context.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	row, err := s.progress.Get(ctx, nil, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return row, nil
}

func (s *progressService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*types.LessonProgress, error) {
	rows, err := s.progress.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

func (s *progressService) UpsertProgress(ctx context.Context, userID, lessonID uuid.UUID, score int, completed bool) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("score %d out of range", score)
	}
	if err := s.progress.UpsertQuizResult(ctx, nil, userID, lessonID, score, completed); err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	s.log.Debug("progress recorded", "user_id", userID, "lesson_id", lessonID, "score", score, "completed", completed)
	return nil
}

func (s *progressService) RecordGameScore(ctx context.Context, userID, lessonID uuid.UUID, score int) error {
	if err := s.progress.SetGameScore(ctx, nil, userID, lessonID, score); err != nil {
		return fmt.Errorf("record game score: %w", err)
	}
	return nil
}
