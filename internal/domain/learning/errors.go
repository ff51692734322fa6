package learning

import "errors"

var (
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrInvalidQuestion = errors.New("quiz question needs at least two options and a correct index inside them")
)
