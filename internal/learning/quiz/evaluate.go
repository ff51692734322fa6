// Package quiz scores multiple-choice quiz attempts.
package quiz

import (
	"math"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
)

// PassThreshold is the minimum percentage that completes a lesson.
const PassThreshold = 70

type QuestionResult struct {
	Position     int    `json:"position"`
	Selected     *int   `json:"selected,omitempty"`
	CorrectIndex int    `json:"correct_index"`
	IsCorrect    bool   `json:"is_correct"`
	Explanation  string `json:"explanation,omitempty"`
}

type Result struct {
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Score     int              `json:"score"`
	Passed    bool             `json:"passed"`
	Questions []QuestionResult `json:"questions"`
}

type Evaluator struct {
	PassThreshold int
}

func NewEvaluator(threshold int) Evaluator {
	if threshold <= 0 || threshold > 100 {
		threshold = PassThreshold
	}
	return Evaluator{PassThreshold: threshold}
}

// Evaluate scores answers with the default threshold.
func Evaluate(questions []learning.QuizQuestion, answers AnswerSet) Result {
	return NewEvaluator(PassThreshold).Evaluate(questions, answers)
}

// Evaluate never fails: unanswered positions and selections outside a question's options count
// as incorrect. An empty question list scores 0.
func (e Evaluator) Evaluate(questions []learning.QuizQuestion, answers AnswerSet) Result {
	res := Result{Total: len(questions), Questions: make([]QuestionResult, 0, len(questions))}
	for i, q := range questions {
		qr := QuestionResult{Position: i, CorrectIndex: q.CorrectIndex, Explanation: q.Explanation}
		if sel, ok := answers.Selected(i); ok {
			sel := sel
			qr.Selected = &sel
			qr.IsCorrect = sel >= 0 && sel < len(q.Options) && sel == q.CorrectIndex
		}
		if qr.IsCorrect {
			res.Correct++
		}
		res.Questions = append(res.Questions, qr)
	}
	res.Score = Percent(res.Correct, res.Total)
	res.Passed = res.Total > 0 && res.Score >= e.PassThreshold
	return res
}

// Percent is round(100*part/whole), 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
