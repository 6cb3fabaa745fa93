package service

import (
	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// Fixed scoring scheme: +2 for a correct answer, -0.25 for a wrong one,
// 0 for skipped and timed-out questions.
const (
	PointsCorrect      = 2.0
	PenaltyWrongAnswer = 0.25
)

// Score computes the final score for an ordered outcome list against the
// correct-answer key. Pure and deterministic; the total may be negative.
func Score(answers []model.Outcome, key map[uuid.UUID]int) float64 {
	var total float64
	for _, a := range answers {
		if a.Status != model.OutcomeAnswered || a.ChoiceIndex == nil {
			continue
		}
		correct, ok := key[a.QuestionID]
		if !ok {
			continue
		}
		if *a.ChoiceIndex == correct {
			total += PointsCorrect
		} else {
			total -= PenaltyWrongAnswer
		}
	}
	return total
}
