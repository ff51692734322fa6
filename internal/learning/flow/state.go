package flow

import "errors"

type State string

const (
	StateLesson   State = "lesson"
	StateQuiz     State = "quiz"
	StateGame     State = "game"
	StateComplete State = "complete"
)

var (
	ErrAnswerRequired    = errors.New("current question has no selected answer")
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrInvalidOption     = errors.New("selected option out of range")
	ErrEmptyQuiz         = errors.New("lesson has no quiz questions")
	ErrNoLesson          = errors.New("lesson is required")
	ErrClosed            = errors.New("visit closed")
)
