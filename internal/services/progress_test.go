package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	"github.com/yungbote/learn2go-backend/internal/data/repos/testutil"
)

func TestProgressServiceStickyCompletion(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewProgressService(db, log, repos.NewLessonProgressRepo(db, log))
	lesson := testutil.SeedLesson(t, ctx, db, testutil.LessonSeed{Correct: []int{0}})
	user := uuid.New()

	if got, err := svc.Get(ctx, user, lesson.ID); err != nil || got != nil {
		t.Fatalf("Get before any write: row=%+v err=%v", got, err)
	}
	if err := svc.RecordGameScore(ctx, user, lesson.ID, 50); err != nil {
		t.Fatalf("RecordGameScore without row: %v", err)
	}
	if err := svc.UpsertProgress(ctx, user, lesson.ID, 40, false); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	if err := svc.UpsertProgress(ctx, user, lesson.ID, 90, true); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	if err := svc.UpsertProgress(ctx, user, lesson.ID, 20, false); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}
	if err := svc.RecordGameScore(ctx, user, lesson.ID, 93); err != nil {
		t.Fatalf("RecordGameScore: %v", err)
	}

	got, err := svc.Get(ctx, user, lesson.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: row=%+v err=%v", got, err)
	}
	if !got.Completed || got.Score != 20 || got.Attempts != 3 || got.CompletedAt == nil {
		t.Fatalf("progress: %+v", got)
	}
	if got.GameScore == nil || *got.GameScore != 93 {
		t.Fatalf("game score: %v", got.GameScore)
	}

	if err := svc.UpsertProgress(ctx, user, lesson.ID, 101, true); err == nil {
		t.Fatalf("out of range score accepted")
	}
	rows, err := svc.ListForUser(ctx, user)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListForUser: rows=%d err=%v", len(rows), err)
	}
}
