package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ViolationOutcome is the caller's view of one reported violation: either an
// advisory warning with the remaining allowance, or the termination marker
// carrying the committed Result.
type ViolationOutcome struct {
	Terminated     bool          `json:"terminated"`
	ViolationCount int           `json:"violation_count"`
	Remaining      int           `json:"remaining"`
	Result         *model.Result `json:"result,omitempty"`
}

// ProctorService is the violation tracker: a server-held counter on the
// session that terminates a non-practice session once the threshold is
// crossed. Client-computed counts are never trusted.
type ProctorService struct {
	sessions  SessionStore
	quiz      *QuizService
	rdb       *redis.Client
	threshold int
	log       zerolog.Logger
}

// NewProctorService creates a new ProctorService. rdb may be nil in tests;
// the audit queue and monitor channel are best-effort side channels.
func NewProctorService(sessions SessionStore, quiz *QuizService, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *ProctorService {
	return &ProctorService{
		sessions:  sessions,
		quiz:      quiz,
		rdb:       rdb,
		threshold: cfg.ViolationThreshold,
		log:       log.With().Str("component", "proctor_service").Logger(),
	}
}

// violationEvent is the audit payload queued for the violation worker and
// published on the monitor channel.
type violationEvent struct {
	UserID    string `json:"user_id"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

// Report records one proctoring violation for the user's active session.
// Practice sessions ignore violations entirely. Crossing the threshold is a
// one-way transition to terminated and immediately commits the zero-score
// Result through the engine's idempotent terminate path.
func (s *ProctorService) Report(ctx context.Context, userID uuid.UUID, kind model.ViolationKind) (*ViolationOutcome, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		session, err := s.quiz.loadSession(ctx, userID)
		if err != nil {
			return nil, err
		}

		if session.IsPractice {
			return &ViolationOutcome{
				Terminated:     false,
				ViolationCount: 0,
				Remaining:      s.threshold,
			}, nil
		}

		if session.Terminated {
			// The threshold transition already happened; resolve to the
			// existing Result.
			res, err := s.quiz.Terminate(ctx, userID, session.ViolationCount)
			if err != nil {
				return nil, err
			}
			return &ViolationOutcome{
				Terminated:     true,
				ViolationCount: session.ViolationCount,
				Remaining:      0,
				Result:         res,
			}, nil
		}

		session.ViolationCount++
		session.Terminated = session.ViolationCount >= s.threshold

		ok, err := s.sessions.SetViolations(ctx, session, session.Version)
		if err != nil {
			return nil, fmt.Errorf("record violation: %w: %w", ErrStorageUnavailable, err)
		}
		if !ok {
			continue // Concurrent writer won; re-read and retry.
		}

		s.audit(ctx, userID, kind)

		if session.Terminated {
			res, err := s.quiz.Terminate(ctx, userID, session.ViolationCount)
			if err != nil {
				return nil, err
			}
			return &ViolationOutcome{
				Terminated:     true,
				ViolationCount: session.ViolationCount,
				Remaining:      0,
				Result:         res,
			}, nil
		}

		return &ViolationOutcome{
			Terminated:     false,
			ViolationCount: session.ViolationCount,
			Remaining:      s.threshold - session.ViolationCount,
		}, nil
	}

	return nil, ErrStorageUnavailable
}

// audit queues the event for the persistence worker and publishes it on the
// live monitor channel. Failures are logged, never surfaced — the counter on
// the session row stays the source of truth for termination.
func (s *ProctorService) audit(ctx context.Context, userID uuid.UUID, kind model.ViolationKind) {
	if s.rdb == nil {
		return
	}

	payload, _ := json.Marshal(violationEvent{
		UserID:    userID.String(),
		Kind:      string(kind),
		Timestamp: s.quiz.clk.Now().Unix(),
	})

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("Violation audit enqueue failed")
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.ProctorMonitorChannel(), payload).Err(); err != nil {
		s.log.Debug().Err(err).Msg("Monitor publish failed")
	}
}
