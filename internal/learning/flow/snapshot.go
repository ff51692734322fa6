package flow

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/learning/game"
	"github.com/yungbote/learn2go-backend/internal/learning/quiz"
)

// Snapshot is a copy of the visit state safe to hand to callers.
type Snapshot struct {
	VisitID        uuid.UUID     `json:"visit_id"`
	LessonID       uuid.UUID     `json:"lesson_id"`
	State          State         `json:"state"`
	QuestionIndex  int           `json:"question_index"`
	TotalQuestions int           `json:"total_questions"`
	Answers        map[int]int   `json:"answers"`
	Attempts       int           `json:"attempts"`
	Result         *quiz.Result  `json:"result,omitempty"`
	GameKind       game.Kind     `json:"game_kind"`
	GameScore      *int          `json:"game_score,omitempty"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	Route          string        `json:"route,omitempty"`
	Closed         bool          `json:"closed"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		VisitID:        c.cfg.VisitID,
		LessonID:       c.lesson.ID,
		State:          c.state,
		QuestionIndex:  c.current,
		TotalQuestions: len(c.lesson.Questions),
		Answers:        c.answers.Clone(),
		Attempts:       c.attempts,
		GameKind:       c.gameKind,
		Route:          c.route,
		Closed:         c.closed,
	}
	if c.result != nil {
		r := *c.result
		r.Questions = append([]quiz.QuestionResult(nil), c.result.Questions...)
		s.Result = &r
	}
	if c.gameScore != nil {
		v := *c.gameScore
		s.GameScore = &v
	}
	end := c.clock.Now()
	if c.state == StateComplete {
		end = c.completedAt
	}
	s.Elapsed = end.Sub(c.startedAt)
	return s
}
