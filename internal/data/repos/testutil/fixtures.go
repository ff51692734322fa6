package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/learn2go-backend/internal/domain"
)

type LessonSeed struct {
	Locale   string
	Region   string
	Position int
	Category string
	Draft    bool
	Correct  []int
	Title    string
	OptionsN int
}

// SeedLesson inserts a lesson with one multiple-choice question per entry of Correct.
func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, seed LessonSeed) *types.Lesson {
	tb.Helper()
	if seed.Locale == "" {
		seed.Locale = "en"
	}
	if seed.OptionsN < 2 {
		seed.OptionsN = 4
	}
	title := seed.Title
	if title == "" {
		title = fmt.Sprintf("lesson %d", seed.Position)
	}
	l := &types.Lesson{
		ID:          uuid.New(),
		Slug:        "lesson-" + uuid.NewString()[:8],
		Locale:      seed.Locale,
		Region:      seed.Region,
		Position:    seed.Position,
		Title:       title,
		Description: "description",
		Body:        "body",
		Category:    seed.Category,
		Difficulty:  1,
		Published:   !seed.Draft,
	}
	for i, correct := range seed.Correct {
		opts := make([]string, seed.OptionsN)
		for j := range opts {
			opts[j] = fmt.Sprintf("option %d", j)
		}
		l.Questions = append(l.Questions, types.QuizQuestion{
			Index:        i,
			Prompt:       fmt.Sprintf("question %d", i),
			Options:      opts,
			CorrectIndex: correct,
			Explanation:  "because",
		})
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	if seed.Draft {
		// gorm skips zero-value bools on create when the column has a default.
		if err := tx.WithContext(ctx).Model(l).Update("published", false).Error; err != nil {
			tb.Fatalf("seed draft lesson: %v", err)
		}
	}
	return l
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
