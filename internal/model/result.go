package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the immutable terminal record of a completed or terminated
// attempt. At most one ever exists per user, enforced by the storage layer.
type Result struct {
	UserID         uuid.UUID `json:"user_id"`
	Score          float64   `json:"score"`
	Answers        []Outcome `json:"answers"`
	WasTerminated  bool      `json:"was_terminated"`
	ViolationCount int       `json:"violation_count"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
