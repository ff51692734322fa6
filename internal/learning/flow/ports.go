package flow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
)

type ProgressStore interface {
	UpsertProgress(ctx context.Context, userID, lessonID uuid.UUID, score int, completed bool) error
	RecordGameScore(ctx context.Context, userID, lessonID uuid.UUID, score int) error
}

type Event struct {
	UserID     uuid.UUID
	VisitID    uuid.UUID
	LessonID   uuid.UUID
	Type       telemetry.EventType
	Payload    map[string]any
	OccurredAt time.Time
}

type TelemetrySink interface {
	Record(ctx context.Context, ev Event) error
}
