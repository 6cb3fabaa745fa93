package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActiveSessionProgress is one in-progress session row for the admin monitor.
type ActiveSessionProgress struct {
	UserID         uuid.UUID `json:"user_id"`
	FullName       string    `json:"full_name"`
	Username       string    `json:"username"`
	CurrentIndex   int       `json:"current_index"`
	TotalQuestions int       `json:"total_questions"`
	ViolationCount int       `json:"violation_count"`
	IsPractice     bool      `json:"is_practice"`
	Terminated     bool      `json:"terminated"`
	StartedAt      time.Time `json:"started_at"`
}

// MonitorRepository serves the admin live-monitoring queries.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// GetActiveSessions returns progress for every in-progress session.
func (r *MonitorRepository) GetActiveSessions(ctx context.Context) ([]ActiveSessionProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.user_id, u.full_name, u.username, s.current_index,
		        cardinality(s.question_ids) AS total_questions,
		        s.violation_count, s.is_practice, s.terminated, s.started_at
		 FROM quiz_sessions s
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.started_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []ActiveSessionProgress
	for rows.Next() {
		var p ActiveSessionProgress
		if err := rows.Scan(
			&p.UserID, &p.FullName, &p.Username, &p.CurrentIndex, &p.TotalQuestions,
			&p.ViolationCount, &p.IsPractice, &p.Terminated, &p.StartedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, p)
	}
	return sessions, rows.Err()
}

// GetViolationEventCounts returns the audit-log violation count per user.
// This counts persisted events, which can lag the live counter on the session.
func (r *MonitorRepository) GetViolationEventCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COUNT(*) FROM violation_events GROUP BY user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var id uuid.UUID
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
