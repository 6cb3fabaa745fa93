package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// QuestionRepository handles question bank data access. It is the engine's
// Question Bank Provider: random draws and public projections never expose
// correct_index; the answer key is fetched only at finalize time.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// DrawRandomIDs picks n distinct question IDs at random.
// Returns fewer than n IDs if the bank is short — the caller decides whether
// that is an error.
func (r *QuestionRepository) DrawRandomIDs(ctx context.Context, n int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM questions ORDER BY random() LIMIT $1`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchPublic retrieves questions without the correct answer, preserving the
// order of the input IDs.
func (r *QuestionRepository) FetchPublic(ctx context.Context, ids []uuid.UUID) ([]model.PublicQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, prompt, options FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]model.PublicQuestion, len(ids))
	for rows.Next() {
		var q model.PublicQuestion
		var options []byte
		if err := rows.Scan(&q.ID, &q.Prompt, &options); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for %s: %w", q.ID, err)
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.PublicQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("question %s not found", id)
		}
		out = append(out, q)
	}
	return out, nil
}

// FetchAnswerKey retrieves the correct answer index for each given question.
func (r *QuestionRepository) FetchAnswerKey(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_index FROM questions WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[uuid.UUID]int, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var correct int
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		key[id] = correct
	}
	return key, rows.Err()
}

// GetByID retrieves a full question including the correct answer. Admin only.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, prompt, options, correct_index, created_at, updated_at
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Prompt, &options, &q.CorrectIndex, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return q, nil
}

// List retrieves questions with pagination, newest first. Admin only.
func (r *QuestionRepository) List(ctx context.Context, page, perPage int) ([]model.Question, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT id, prompt, options, correct_index, created_at, updated_at
		 FROM questions ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Prompt, &options, &q.CorrectIndex, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, 0, fmt.Errorf("decode options for %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, total, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (prompt, options, correct_index)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		q.Prompt, options, q.CorrectIndex,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update replaces a question's prompt, options, and correct answer.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET prompt = $1, options = $2, correct_index = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING updated_at`,
		q.Prompt, options, q.CorrectIndex, q.ID,
	).Scan(&q.UpdatedAt)
}

// Delete removes a question from the bank.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s not found", id)
	}
	return nil
}
