package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// SessionRepository handles quiz session data access. Every mutating write is
// conditional on the session's version column: zero rows affected means a
// concurrent writer committed first and the caller must re-read.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, question_ids, current_index, current_started_at,
	per_question_secs, ends_at, answers, is_practice, violation_count, terminated,
	version, started_at`

func scanSession(row interface{ Scan(...any) error }) (*model.QuizSession, error) {
	s := &model.QuizSession{}
	var answers []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.QuestionIDs, &s.CurrentIndex, &s.CurrentStartedAt,
		&s.PerQuestionSecs, &s.EndsAt, &answers, &s.IsPractice, &s.ViolationCount,
		&s.Terminated, &s.Version, &s.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return s, nil
}

// GetByUser retrieves the active session for a user.
// Returns pgx.ErrNoRows when none exists.
func (r *SessionRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.QuizSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM quiz_sessions WHERE user_id = $1`, userID)
	return scanSession(row)
}

// Replace creates the session for a user, or resets the existing one in place.
// The version is bumped on replace so any in-flight conditional update against
// the old session loses.
func (r *SessionRepository) Replace(ctx context.Context, s *model.QuizSession) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO quiz_sessions
		     (user_id, question_ids, current_index, current_started_at,
		      per_question_secs, ends_at, answers, is_practice)
		 VALUES ($1, $2, 0, $3, $4, $5, '[]', $6)
		 ON CONFLICT (user_id) DO UPDATE SET
		     question_ids       = EXCLUDED.question_ids,
		     current_index      = 0,
		     current_started_at = EXCLUDED.current_started_at,
		     per_question_secs  = EXCLUDED.per_question_secs,
		     ends_at            = EXCLUDED.ends_at,
		     answers            = '[]',
		     is_practice        = EXCLUDED.is_practice,
		     violation_count    = 0,
		     terminated         = FALSE,
		     version            = quiz_sessions.version + 1,
		     started_at         = NOW()
		 RETURNING ` + sessionColumns,
		s.UserID, s.QuestionIDs, s.CurrentStartedAt, s.PerQuestionSecs, s.EndsAt, s.IsPractice,
	)
	fresh, err := scanSession(row)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// AdvanceProgress commits one question transition: the appended outcome list,
// the new index, and the new question start time. The write succeeds only if
// expectedVersion still matches; the returned bool reports whether it did.
func (r *SessionRepository) AdvanceProgress(ctx context.Context, s *model.QuizSession, expectedVersion int) (bool, error) {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return false, fmt.Errorf("encode answers: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_sessions
		 SET current_index = $1, current_started_at = $2, answers = $3,
		     version = version + 1
		 WHERE user_id = $4 AND version = $5`,
		s.CurrentIndex, s.CurrentStartedAt, answers, s.UserID, expectedVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	s.Version = expectedVersion + 1
	return true, nil
}

// SetViolations commits a new violation count and terminated flag under the
// same optimistic-version discipline as AdvanceProgress.
func (r *SessionRepository) SetViolations(ctx context.Context, s *model.QuizSession, expectedVersion int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quiz_sessions
		 SET violation_count = $1, terminated = $2, version = version + 1
		 WHERE user_id = $3 AND version = $4`,
		s.ViolationCount, s.Terminated, s.UserID, expectedVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	s.Version = expectedVersion + 1
	return true, nil
}

// Delete removes a user's session. Deleting an already-deleted session is not
// an error — finalize and terminate race on this.
func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quiz_sessions WHERE user_id = $1`, userID)
	return err
}
