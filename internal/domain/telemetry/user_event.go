package telemetry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventType string

const (
	EventLessonStart    EventType = "lesson_start"
	EventQuizAttempt    EventType = "quiz_attempt"
	EventQuizComplete   EventType = "quiz_complete"
	EventGamePlay       EventType = "game_play"
	EventLessonComplete EventType = "lesson_complete"
)

func (t EventType) Valid() bool {
	switch t {
	case EventLessonStart, EventQuizAttempt, EventQuizComplete, EventGamePlay, EventLessonComplete:
		return true
	default:
		return false
	}
}

// AllEventTypes is in visit order.
var AllEventTypes = []EventType{EventLessonStart, EventQuizAttempt, EventQuizComplete, EventGamePlay, EventLessonComplete}

// UserEvent is an append-only learning telemetry row.
type UserEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	UserID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_event_user_created,priority:1" json:"user_id"`
	VisitID  *uuid.UUID `gorm:"type:uuid;index" json:"visit_id,omitempty"`
	LessonID *uuid.UUID `gorm:"type:uuid;index" json:"lesson_id,omitempty"`

	Type EventType         `gorm:"column:type;type:text;not null;index" json:"type"`
	Data datatypes.JSONMap `gorm:"column:data" json:"data,omitempty"`

	OccurredAt time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime;index:idx_user_event_user_created,priority:2" json:"created_at"`
}

func (UserEvent) TableName() string { return "user_event" }

func (e *UserEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
