package model

import (
	"time"

	"github.com/google/uuid"
)

// Question represents a question bank entry, including the correct answer.
// It is never serialized to quiz takers — use PublicQuestion for that.
type Question struct {
	ID           uuid.UUID `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicQuestion is a question stripped of the correct answer, safe to send
// to a quiz taker mid-session.
type PublicQuestion struct {
	ID      uuid.UUID `json:"id"`
	Prompt  string    `json:"prompt"`
	Options []string  `json:"options"`
}

// CreateQuestionRequest is the admin payload for adding a question.
type CreateQuestionRequest struct {
	Prompt       string   `json:"prompt" binding:"required,min=1,max=2000"`
	Options      []string `json:"options" binding:"required,min=2,max=8,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" binding:"min=0"`
}

// UpdateQuestionRequest is the admin payload for editing a question.
type UpdateQuestionRequest struct {
	Prompt       string   `json:"prompt" binding:"required,min=1,max=2000"`
	Options      []string `json:"options" binding:"required,min=2,max=8,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" binding:"min=0"`
}
