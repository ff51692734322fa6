package domain

import (
	"github.com/yungbote/learn2go-backend/internal/domain/learning"
	"github.com/yungbote/learn2go-backend/internal/domain/telemetry"
)

const (
	EventLessonStart    = telemetry.EventLessonStart
	EventQuizAttempt    = telemetry.EventQuizAttempt
	EventQuizComplete   = telemetry.EventQuizComplete
	EventGamePlay       = telemetry.EventGamePlay
	EventLessonComplete = telemetry.EventLessonComplete
)

type Lesson = learning.Lesson
type QuizQuestion = learning.QuizQuestion
type LessonProgress = learning.LessonProgress

type EventType = telemetry.EventType
type UserEvent = telemetry.UserEvent

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Lesson{},
		&QuizQuestion{},
		&LessonProgress{},
		&UserEvent{},
	}
}
