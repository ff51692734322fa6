package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/learn2go-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learn2go-backend/internal/domain"
)

func TestUserEventRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserEventRepo(db, testutil.Logger(t))

	userID := uuid.New()
	visitID := uuid.New()
	lessonID := uuid.New()
	base := time.Now().UTC().Add(-time.Minute)

	var events []*types.UserEvent
	for i, typ := range []types.EventType{types.EventLessonStart, types.EventQuizAttempt, types.EventQuizComplete} {
		events = append(events, &types.UserEvent{
			UserID:     userID,
			VisitID:    testutil.PtrUUID(visitID),
			LessonID:   testutil.PtrUUID(lessonID),
			Type:       typ,
			Data:       datatypes.JSONMap{"seq": i},
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	other := &types.UserEvent{UserID: uuid.New(), Type: types.EventLessonStart, OccurredAt: base.Add(-2 * time.Hour)}
	if _, err := repo.Create(ctx, nil, append(events, other)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byVisit, err := repo.ListByVisit(ctx, nil, visitID)
	if err != nil || len(byVisit) != 3 {
		t.Fatalf("ListByVisit: len=%d err=%v", len(byVisit), err)
	}
	if byVisit[0].Type != types.EventLessonStart || byVisit[2].Type != types.EventQuizComplete {
		t.Fatalf("ListByVisit order: %s .. %s", byVisit[0].Type, byVisit[2].Type)
	}

	byUser, err := repo.ListByUser(ctx, nil, userID, 10)
	if err != nil || len(byUser) != 3 {
		t.Fatalf("ListByUser: len=%d err=%v", len(byUser), err)
	}
	if byUser[0].Type != types.EventQuizComplete {
		t.Fatalf("ListByUser should be newest first, got %s", byUser[0].Type)
	}

	window, err := repo.ListBetween(ctx, nil, base.Add(-time.Second), base.Add(time.Minute), 0)
	if err != nil || len(window) != 3 {
		t.Fatalf("ListBetween: len=%d err=%v", len(window), err)
	}
}
