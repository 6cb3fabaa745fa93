package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quizgate/quizgate-backend/internal/clock"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/rs/zerolog"
)

// Quiz session errors, mapped to response codes by the handlers.
var (
	ErrNoActiveSession       = errors.New("no active quiz session")
	ErrAlreadySubmitted      = errors.New("quiz already submitted")
	ErrAlreadyFinished       = errors.New("quiz session already finished")
	ErrSequenceMismatch      = errors.New("question sequence mismatch")
	ErrSessionTerminated     = errors.New("quiz session terminated")
	ErrChoiceOutOfRange      = errors.New("choice index does not reference an option")
	ErrQuestionPoolExhausted = errors.New("not enough questions in the bank")
	ErrNoResult              = errors.New("no result recorded")
	ErrStorageUnavailable    = errors.New("storage unavailable")
)

// maxWriteAttempts bounds the re-read-and-retry loop around optimistic
// version conflicts before the transition surfaces ErrStorageUnavailable.
const maxWriteAttempts = 3

// SessionStore is the engine's durable session storage contract. Every write
// is conditional: the bool result of a conditional update reports whether the
// expected version still held.
type SessionStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.QuizSession, error)
	Replace(ctx context.Context, s *model.QuizSession) error
	AdvanceProgress(ctx context.Context, s *model.QuizSession, expectedVersion int) (bool, error)
	SetViolations(ctx context.Context, s *model.QuizSession, expectedVersion int) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// QuestionBank is the engine's view of the question provider. The answer key
// is requested only at finalize time so correct answers never leak through
// intermediate responses.
type QuestionBank interface {
	DrawRandomIDs(ctx context.Context, n int) ([]uuid.UUID, error)
	FetchPublic(ctx context.Context, ids []uuid.UUID) ([]model.PublicQuestion, error)
	FetchAnswerKey(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
}

// ResultStore persists terminal results. CreateOnce must be backed by a
// storage-level uniqueness guarantee on the user.
type ResultStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.Result, error)
	CreateOnce(ctx context.Context, res *model.Result) (bool, error)
}

// QuestionView is the client projection of the current question. It never
// carries the correct answer; the deadline is the server-authoritative one.
type QuestionView struct {
	Index      int                  `json:"index"`
	Total      int                  `json:"total"`
	Question   model.PublicQuestion `json:"question"`
	Deadline   time.Time            `json:"deadline"`
	IsPractice bool                 `json:"is_practice"`
}

// AdvanceOutcome is what an advance call produced: the next question, or a
// finished marker. Result is set for graded (non-practice) completions.
type AdvanceOutcome struct {
	Finished bool          `json:"finished"`
	Next     *QuestionView `json:"next,omitempty"`
	Result   *model.Result `json:"result,omitempty"`
}

// QuizService is the quiz session engine: it owns session lifecycle, enforces
// per-question deadlines against its injected clock, serializes question
// progression through conditional writes, and guarantees exactly one Result
// per user.
type QuizService struct {
	sessions  SessionStore
	questions QuestionBank
	results   ResultStore
	clk       clock.Clock
	cfg       *config.Config
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	sessions SessionStore,
	questions QuestionBank,
	results ResultStore,
	clk clock.Clock,
	cfg *config.Config,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		sessions:  sessions,
		questions: questions,
		results:   results,
		clk:       clk,
		cfg:       cfg,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// Start creates (or resets) the user's quiz session. Non-practice starts are
// gated on no existing Result; practice mode bypasses the gate and never
// produces one. An existing active session is replaced, not duplicated.
func (s *QuizService) Start(ctx context.Context, userID uuid.UUID, isPractice bool) (*model.QuizSession, error) {
	if !isPractice {
		_, err := s.results.GetByUser(ctx, userID)
		if err == nil {
			return nil, ErrAlreadySubmitted
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check result: %w: %w", ErrStorageUnavailable, err)
		}
	}

	ids, err := s.questions.DrawRandomIDs(ctx, s.cfg.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w: %w", ErrStorageUnavailable, err)
	}
	if len(ids) < s.cfg.QuestionCount {
		return nil, ErrQuestionPoolExhausted
	}

	now := s.clk.Now()
	session := &model.QuizSession{
		UserID:           userID,
		QuestionIDs:      ids,
		CurrentStartedAt: now,
		PerQuestionSecs:  s.cfg.PerQuestionSecs,
		// Outer safety bound only — the per-question deadline governs.
		EndsAt:     now.Add(time.Duration(s.cfg.QuestionCount*s.cfg.PerQuestionSecs) * time.Second),
		IsPractice: isPractice,
	}

	if err := s.sessions.Replace(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w: %w", ErrStorageUnavailable, err)
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Bool("practice", isPractice).
		Int("questions", len(ids)).
		Msg("Quiz session started")

	return session, nil
}

// CurrentQuestion returns the read-only projection of the user's current
// question. It never exposes the correct answer.
func (s *QuizService) CurrentQuestion(ctx context.Context, userID uuid.UUID) (*QuestionView, error) {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.Terminated {
		return nil, ErrSessionTerminated
	}
	if session.CurrentIndex >= len(session.QuestionIDs) {
		return nil, ErrAlreadyFinished
	}
	return s.projectCurrent(ctx, session)
}

// Advance validates and commits the outcome of the current question, then
// returns the next question or the finished marker. The deadline decision is
// server-authoritative: an elapsed budget forces a timeout outcome no matter
// what the client claimed. The whole read-modify-write is applied as one
// conditional update; on version conflict the transition is re-read and
// retried, and a loser whose question already advanced fails with
// ErrSequenceMismatch.
func (s *QuizService) Advance(ctx context.Context, userID, questionID uuid.UUID, choiceIndex *int, action model.AdvanceAction) (*AdvanceOutcome, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		session, err := s.loadSession(ctx, userID)
		if err != nil {
			return nil, err
		}
		if session.Terminated {
			return nil, ErrSessionTerminated
		}
		if session.CurrentIndex >= len(session.QuestionIDs) {
			// A crash between the final transition and the session cleanup can
			// leave a fully-advanced session behind. Result existence is the
			// source of truth; finish() re-resolves it idempotently.
			return s.finish(ctx, session)
		}

		if questionID != session.QuestionIDs[session.CurrentIndex] {
			return nil, ErrSequenceMismatch
		}

		now := s.clk.Now()
		timedOut := now.After(session.CurrentDeadline())
		if !timedOut && action == model.AdvanceAnswered && choiceIndex != nil {
			if err := s.checkChoice(ctx, questionID, *choiceIndex); err != nil {
				return nil, err
			}
		}

		outcome := model.Outcome{QuestionID: questionID}
		switch {
		case timedOut:
			// Budget elapsed: the client-supplied action and choice are not
			// trusted for scoring.
			outcome.Status = model.OutcomeTimeout
		case action == model.AdvanceAnswered && choiceIndex != nil:
			outcome.Status = model.OutcomeAnswered
			outcome.ChoiceIndex = choiceIndex
		default:
			outcome.Status = model.OutcomeSkipped
		}

		session.Answers = append(session.Answers, outcome)
		session.CurrentIndex++
		session.CurrentStartedAt = now

		ok, err := s.sessions.AdvanceProgress(ctx, session, session.Version)
		if err != nil {
			return nil, fmt.Errorf("advance session: %w: %w", ErrStorageUnavailable, err)
		}
		if !ok {
			// A concurrent transition won. Re-read: if it advanced past this
			// question the sequence check above fails the retry.
			continue
		}

		if session.CurrentIndex == len(session.QuestionIDs) {
			return s.finish(ctx, session)
		}
		next, err := s.projectCurrent(ctx, session)
		if err != nil {
			return nil, err
		}
		return &AdvanceOutcome{Finished: false, Next: next}, nil
	}

	return nil, ErrStorageUnavailable
}

// GetResult returns the user's terminal result.
func (s *QuizService) GetResult(ctx context.Context, userID uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoResult
		}
		return nil, fmt.Errorf("get result: %w: %w", ErrStorageUnavailable, err)
	}
	return res, nil
}

// Terminate ends the session for proctoring violations: score 0, no answers,
// was_terminated set. Idempotent — an existing Result short-circuits, so
// concurrent terminate/finalize calls commit exactly one Result.
func (s *QuizService) Terminate(ctx context.Context, userID uuid.UUID, violationCount int) (*model.Result, error) {
	res := &model.Result{
		UserID:         userID,
		Score:          0,
		Answers:        []model.Outcome{},
		WasTerminated:  true,
		ViolationCount: violationCount,
	}
	committed, err := s.commitResult(ctx, res)
	if err != nil {
		return nil, err
	}

	s.log.Warn().
		Str("user_id", userID.String()).
		Int("violations", violationCount).
		Bool("first_write", res == committed).
		Msg("Quiz session terminated")

	return committed, nil
}

// finish completes a fully-advanced session. Practice sessions are deleted
// without a Result; graded sessions are scored against the answer key and
// committed exactly once.
func (s *QuizService) finish(ctx context.Context, session *model.QuizSession) (*AdvanceOutcome, error) {
	if session.IsPractice {
		if err := s.sessions.Delete(ctx, session.UserID); err != nil {
			return nil, fmt.Errorf("delete practice session: %w: %w", ErrStorageUnavailable, err)
		}
		return &AdvanceOutcome{Finished: true}, nil
	}

	key, err := s.questions.FetchAnswerKey(ctx, session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch answer key: %w: %w", ErrStorageUnavailable, err)
	}

	res := &model.Result{
		UserID:         session.UserID,
		Score:          Score(session.Answers, key),
		Answers:        session.Answers,
		WasTerminated:  false,
		ViolationCount: session.ViolationCount,
	}
	committed, err := s.commitResult(ctx, res)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", session.UserID.String()).
		Float64("score", committed.Score).
		Msg("Quiz finalized")

	return &AdvanceOutcome{Finished: true, Result: committed}, nil
}

// commitResult writes the Result at most once and removes the session.
// If a Result already exists — a retry or a racing writer got there first —
// the existing one is returned. The lingering session is garbage either way
// and is discarded, never reused.
func (s *QuizService) commitResult(ctx context.Context, res *model.Result) (*model.Result, error) {
	inserted, err := s.results.CreateOnce(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("create result: %w: %w", ErrStorageUnavailable, err)
	}
	if !inserted {
		existing, err := s.results.GetByUser(ctx, res.UserID)
		if err != nil {
			return nil, fmt.Errorf("fetch existing result: %w: %w", ErrStorageUnavailable, err)
		}
		res = existing
	}

	if err := s.sessions.Delete(ctx, res.UserID); err != nil {
		// The Result is committed; the leftover session is unusable garbage
		// and will be discarded on the next read.
		s.log.Error().Err(err).Str("user_id", res.UserID.String()).Msg("Session cleanup failed")
	}
	return res, nil
}

// checkChoice rejects a choice index that does not reference one of the
// question's options. An out-of-range index would otherwise be scored as a
// wrong answer and silently penalized.
func (s *QuizService) checkChoice(ctx context.Context, questionID uuid.UUID, choice int) error {
	qs, err := s.questions.FetchPublic(ctx, []uuid.UUID{questionID})
	if err != nil {
		return fmt.Errorf("fetch question: %w: %w", ErrStorageUnavailable, err)
	}
	if len(qs) == 0 || choice < 0 || choice >= len(qs[0].Options) {
		return ErrChoiceOutOfRange
	}
	return nil
}

func (s *QuizService) loadSession(ctx context.Context, userID uuid.UUID) (*model.QuizSession, error) {
	session, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("load session: %w: %w", ErrStorageUnavailable, err)
	}
	return session, nil
}

func (s *QuizService) projectCurrent(ctx context.Context, session *model.QuizSession) (*QuestionView, error) {
	qid := session.QuestionIDs[session.CurrentIndex]
	qs, err := s.questions.FetchPublic(ctx, []uuid.UUID{qid})
	if err != nil {
		return nil, fmt.Errorf("fetch question: %w: %w", ErrStorageUnavailable, err)
	}
	return &QuestionView{
		Index:      session.CurrentIndex,
		Total:      len(session.QuestionIDs),
		Question:   qs[0],
		Deadline:   session.CurrentDeadline(),
		IsPractice: session.IsPractice,
	}, nil
}
