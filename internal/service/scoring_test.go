package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/model"
)

func intPtr(i int) *int { return &i }

func TestScore(t *testing.T) {
	q1 := uuid.New()
	q2 := uuid.New()
	q3 := uuid.New()
	key := map[uuid.UUID]int{q1: 0, q2: 1, q3: 2}

	tests := []struct {
		name    string
		answers []model.Outcome
		want    float64
	}{
		{
			name:    "empty",
			answers: []model.Outcome{},
			want:    0,
		},
		{
			name: "all correct",
			answers: []model.Outcome{
				{QuestionID: q1, ChoiceIndex: intPtr(0), Status: model.OutcomeAnswered},
				{QuestionID: q2, ChoiceIndex: intPtr(1), Status: model.OutcomeAnswered},
				{QuestionID: q3, ChoiceIndex: intPtr(2), Status: model.OutcomeAnswered},
			},
			want: 6,
		},
		{
			name: "correct wrong skipped",
			answers: []model.Outcome{
				{QuestionID: q1, ChoiceIndex: intPtr(0), Status: model.OutcomeAnswered},
				{QuestionID: q2, ChoiceIndex: intPtr(3), Status: model.OutcomeAnswered},
				{QuestionID: q3, Status: model.OutcomeSkipped},
			},
			want: 1.75,
		},
		{
			name: "all wrong goes negative",
			answers: []model.Outcome{
				{QuestionID: q1, ChoiceIndex: intPtr(3), Status: model.OutcomeAnswered},
				{QuestionID: q2, ChoiceIndex: intPtr(3), Status: model.OutcomeAnswered},
				{QuestionID: q3, ChoiceIndex: intPtr(3), Status: model.OutcomeAnswered},
			},
			want: -0.75,
		},
		{
			name: "timeout carries no penalty",
			answers: []model.Outcome{
				{QuestionID: q1, Status: model.OutcomeTimeout},
				{QuestionID: q2, ChoiceIndex: intPtr(1), Status: model.OutcomeAnswered},
			},
			want: 2,
		},
		{
			name: "timeout with stale choice is not scored",
			answers: []model.Outcome{
				{QuestionID: q1, ChoiceIndex: intPtr(0), Status: model.OutcomeTimeout},
			},
			want: 0,
		},
		{
			name: "unknown question is ignored",
			answers: []model.Outcome{
				{QuestionID: uuid.New(), ChoiceIndex: intPtr(0), Status: model.OutcomeAnswered},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.answers, key)
			if got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}
