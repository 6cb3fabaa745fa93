package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/repository"
)

var (
	// ErrCorrectIndexOutOfRange is returned when a question's correct answer
	// does not point at one of its options.
	ErrCorrectIndexOutOfRange = errors.New("correct_index is out of range for the given options")

	// ErrQuestionNotFound is returned when the referenced question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
)

// QuestionService handles admin question bank management.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// List returns paginated questions, newest first.
func (s *QuestionService) List(ctx context.Context, page, perPage int) ([]model.Question, int64, error) {
	return s.questionRepo.List(ctx, page, perPage)
}

// Create adds a question to the bank.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	if req.CorrectIndex >= len(req.Options) {
		return nil, ErrCorrectIndexOutOfRange
	}
	q := &model.Question{
		Prompt:       req.Prompt,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update replaces a question's content.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	if req.CorrectIndex >= len(req.Options) {
		return nil, ErrCorrectIndexOutOfRange
	}
	q := &model.Question{
		ID:           id,
		Prompt:       req.Prompt,
		Options:      req.Options,
		CorrectIndex: req.CorrectIndex,
	}
	if err := s.questionRepo.Update(ctx, q); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes a question from the bank. Sessions that already drew it keep
// their fixed question list, so deletion only affects future draws.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.questionRepo.Delete(ctx, id)
}
