package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizgate/quizgate-backend/internal/model"
)

// UserResult joins an account with its result for admin listing and export.
type UserResult struct {
	UserID        uuid.UUID  `json:"user_id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	RollNo        string     `json:"roll_no"`
	Phone         string     `json:"phone"`
	HasAttempted  bool       `json:"has_attempted"`
	Score         *float64   `json:"score"`
	WasTerminated *bool      `json:"was_terminated"`
	ViolationCnt  *int       `json:"violation_count"`
	SubmittedAt   *time.Time `json:"submitted_at"`
}

// ResultRepository handles terminal quiz results. The results table's primary
// key on user_id is the storage-level backstop for the at-most-one-Result
// invariant; application-level existence checks are only a fast path.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetByUser retrieves a user's result. Returns pgx.ErrNoRows when none exists.
func (r *ResultRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	var answers []byte
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, score, answers, was_terminated, violation_count, submitted_at
		 FROM results WHERE user_id = $1`, userID,
	).Scan(&res.UserID, &res.Score, &answers, &res.WasTerminated, &res.ViolationCount, &res.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return res, nil
}

// CreateOnce inserts a result unless one already exists for the user.
// The returned bool reports whether this call created the row; false means a
// concurrent writer (or an earlier attempt) already committed one.
func (r *ResultRepository) CreateOnce(ctx context.Context, res *model.Result) (bool, error) {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return false, fmt.Errorf("encode answers: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO results (user_id, score, answers, was_terminated, violation_count)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO NOTHING
		 RETURNING submitted_at`,
		res.UserID, res.Score, answers, res.WasTerminated, res.ViolationCount,
	).Scan(&res.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListWithUsers retrieves every account joined with its result (if any),
// paginated, attempted first.
func (r *ResultRepository) ListWithUsers(ctx context.Context, page, perPage int) ([]UserResult, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = 'user'`).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name, u.email, u.username, u.roll_no, u.phone,
		        r.user_id IS NOT NULL AS has_attempted,
		        r.score, r.was_terminated, r.violation_count, r.submitted_at
		 FROM users u
		 LEFT JOIN results r ON r.user_id = u.id
		 WHERE u.role = 'user'
		 ORDER BY has_attempted DESC, u.full_name ASC
		 LIMIT $1 OFFSET $2`, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := scanUserResults(rows)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// AllWithUsers retrieves every account joined with its result, unpaginated.
// Used by the CSV export.
func (r *ResultRepository) AllWithUsers(ctx context.Context) ([]UserResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name, u.email, u.username, u.roll_no, u.phone,
		        r.user_id IS NOT NULL AS has_attempted,
		        r.score, r.was_terminated, r.violation_count, r.submitted_at
		 FROM users u
		 LEFT JOIN results r ON r.user_id = u.id
		 WHERE u.role = 'user'
		 ORDER BY u.full_name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUserResults(rows)
}

func scanUserResults(rows pgx.Rows) ([]UserResult, error) {
	var results []UserResult
	for rows.Next() {
		var ur UserResult
		if err := rows.Scan(
			&ur.UserID, &ur.FullName, &ur.Email, &ur.Username, &ur.RollNo, &ur.Phone,
			&ur.HasAttempted, &ur.Score, &ur.WasTerminated, &ur.ViolationCnt, &ur.SubmittedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, ur)
	}
	return results, rows.Err()
}
