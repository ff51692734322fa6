package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/data/repos"
	"github.com/yungbote/learn2go-backend/internal/data/repos/testutil"
	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
	"github.com/yungbote/learn2go-backend/internal/learning/flow"
	"github.com/yungbote/learn2go-backend/internal/realtime"
)

func TestTelemetryServiceStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	b := &recordingBus{}
	svc := NewTelemetryService(db, log, repos.NewUserEventRepo(db, log), b)

	user, visit, lesson := uuid.New(), uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, typ := range []telemetry.EventType{telemetry.EventLessonStart, telemetry.EventQuizAttempt, telemetry.EventQuizComplete} {
		err := svc.Record(ctx, flow.Event{
			UserID:     user,
			VisitID:    visit,
			LessonID:   lesson,
			Type:       typ,
			Payload:    map[string]any{"seq": i},
			OccurredAt: at.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record %s: %v", typ, err)
		}
	}

	rows, err := svc.ListByVisit(ctx, visit)
	if err != nil {
		t.Fatalf("ListByVisit: %v", err)
	}
	if len(rows) != 3 || rows[0].Type != telemetry.EventLessonStart || rows[2].Type != telemetry.EventQuizComplete {
		t.Fatalf("stored events: %+v", rows)
	}
	if rows[0].LessonID == nil || *rows[0].LessonID != lesson {
		t.Fatalf("lesson id not stored: %+v", rows[0])
	}
	msgs := b.events()
	if len(msgs) != 3 || msgs[0] != realtime.SSEEventTelemetryRecorded {
		t.Fatalf("published: %v", msgs)
	}
	if b.msgs[0].Channel != realtime.AdminTelemetryChannel {
		t.Fatalf("channel: %s", b.msgs[0].Channel)
	}
}

func TestTelemetryServiceRejectsBadEvents(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewTelemetryService(db, log, repos.NewUserEventRepo(db, log), nil)

	if err := svc.Record(ctx, flow.Event{UserID: uuid.New(), Type: "page_view"}); err == nil {
		t.Fatalf("unknown type accepted")
	}
	if err := svc.Record(ctx, flow.Event{Type: telemetry.EventLessonStart}); err == nil {
		t.Fatalf("event without user accepted")
	}
	user := uuid.New()
	if err := svc.Record(ctx, flow.Event{UserID: user, Type: telemetry.EventLessonStart}); err != nil {
		t.Fatalf("Record without bus: %v", err)
	}
	recent, err := svc.ListRecent(ctx, user, 10)
	if err != nil || len(recent) != 1 || recent[0].VisitID != nil {
		t.Fatalf("ListRecent: rows=%+v err=%v", recent, err)
	}
}
