package model

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeStatus is the recorded disposition of one question in a session.
type OutcomeStatus string

const (
	OutcomeAnswered OutcomeStatus = "answered"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeTimeout  OutcomeStatus = "timeout"
)

// Outcome is one element of a session's answers list. ChoiceIndex is present
// only when Status is answered.
type Outcome struct {
	QuestionID  uuid.UUID     `json:"question_id"`
	ChoiceIndex *int          `json:"choice_index,omitempty"`
	Status      OutcomeStatus `json:"status"`
}

// QuizSession is the mutable state of one user's in-progress attempt.
// At most one exists per user; Version carries the optimistic-concurrency
// contract for every mutating write.
type QuizSession struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	QuestionIDs      []uuid.UUID `json:"question_ids"`
	CurrentIndex     int         `json:"current_index"`
	CurrentStartedAt time.Time   `json:"current_started_at"`
	PerQuestionSecs  int         `json:"per_question_secs"`
	EndsAt           time.Time   `json:"ends_at"`
	Answers          []Outcome   `json:"answers"`
	IsPractice       bool        `json:"is_practice"`
	ViolationCount   int         `json:"violation_count"`
	Terminated       bool        `json:"terminated"`
	Version          int         `json:"-"`
	StartedAt        time.Time   `json:"started_at"`
}

// CurrentDeadline is the authoritative deadline of the question at
// CurrentIndex, clamped to the whole-session outer bound.
func (s *QuizSession) CurrentDeadline() time.Time {
	d := s.CurrentStartedAt.Add(time.Duration(s.PerQuestionSecs) * time.Second)
	if d.After(s.EndsAt) {
		return s.EndsAt
	}
	return d
}

// AdvanceAction is the client-declared disposition in an advance request.
// The server overrides it with timeout when the deadline has elapsed.
type AdvanceAction string

const (
	AdvanceAnswered AdvanceAction = "answered"
	AdvanceSkipped  AdvanceAction = "skipped"
)

// AdvanceRequest is the payload for posting an outcome for the current
// question. The engine checks the choice against the question's actual
// option count.
type AdvanceRequest struct {
	QuestionID  string `json:"question_id" binding:"required,uuid"`
	ChoiceIndex *int   `json:"choice_index" binding:"omitempty,min=0"`
	Action      string `json:"action" binding:"required,oneof=answered skipped"`
}

// ViolationKind categorizes a proctoring rule break. Both kinds count
// against the same per-session counter.
type ViolationKind string

const (
	ViolationFullscreenExit ViolationKind = "fullscreen_exit"
	ViolationVisibilityLoss ViolationKind = "visibility_loss"
)

// ViolationRequest is the payload for reporting a proctoring violation.
type ViolationRequest struct {
	Kind string `json:"kind" binding:"required,oneof=fullscreen_exit visibility_loss"`
}
