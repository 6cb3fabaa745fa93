package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/rs/zerolog"
)

// ─── In-memory fakes ────────────────────────────────────────────────

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func copySession(s *model.QuizSession) *model.QuizSession {
	c := *s
	c.QuestionIDs = append([]uuid.UUID(nil), s.QuestionIDs...)
	c.Answers = append([]model.Outcome(nil), s.Answers...)
	return &c
}

type memSessions struct {
	byUser map[uuid.UUID]*model.QuizSession
	// beforeAdvance runs before each conditional advance; tests use it to
	// simulate a concurrent writer.
	beforeAdvance func()
}

func newMemSessions() *memSessions {
	return &memSessions{byUser: make(map[uuid.UUID]*model.QuizSession)}
}

func (m *memSessions) GetByUser(_ context.Context, userID uuid.UUID) (*model.QuizSession, error) {
	s, ok := m.byUser[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copySession(s), nil
}

func (m *memSessions) Replace(_ context.Context, s *model.QuizSession) error {
	version := 1
	if old, ok := m.byUser[s.UserID]; ok {
		version = old.Version + 1
	}
	s.ID = uuid.New()
	s.CurrentIndex = 0
	s.Answers = []model.Outcome{}
	s.ViolationCount = 0
	s.Terminated = false
	s.Version = version
	s.StartedAt = s.CurrentStartedAt
	m.byUser[s.UserID] = copySession(s)
	return nil
}

func (m *memSessions) AdvanceProgress(_ context.Context, s *model.QuizSession, expectedVersion int) (bool, error) {
	if m.beforeAdvance != nil {
		m.beforeAdvance()
	}
	stored, ok := m.byUser[s.UserID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	stored.CurrentIndex = s.CurrentIndex
	stored.CurrentStartedAt = s.CurrentStartedAt
	stored.Answers = append([]model.Outcome(nil), s.Answers...)
	stored.Version = expectedVersion + 1
	s.Version = stored.Version
	return true, nil
}

func (m *memSessions) SetViolations(_ context.Context, s *model.QuizSession, expectedVersion int) (bool, error) {
	stored, ok := m.byUser[s.UserID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	stored.ViolationCount = s.ViolationCount
	stored.Terminated = s.Terminated
	stored.Version = expectedVersion + 1
	s.Version = stored.Version
	return true, nil
}

func (m *memSessions) Delete(_ context.Context, userID uuid.UUID) error {
	delete(m.byUser, userID)
	return nil
}

type memBank struct {
	ids []uuid.UUID
	key map[uuid.UUID]int
}

func newMemBank(n int) *memBank {
	b := &memBank{key: make(map[uuid.UUID]int)}
	for i := 0; i < n; i++ {
		id := uuid.New()
		b.ids = append(b.ids, id)
		b.key[id] = i % 4
	}
	return b
}

func (b *memBank) DrawRandomIDs(_ context.Context, n int) ([]uuid.UUID, error) {
	if n > len(b.ids) {
		n = len(b.ids)
	}
	return append([]uuid.UUID(nil), b.ids[:n]...), nil
}

func (b *memBank) FetchPublic(_ context.Context, ids []uuid.UUID) ([]model.PublicQuestion, error) {
	out := make([]model.PublicQuestion, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.PublicQuestion{
			ID:      id,
			Prompt:  "prompt",
			Options: []string{"a", "b", "c", "d"},
		})
	}
	return out, nil
}

func (b *memBank) FetchAnswerKey(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	key := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		key[id] = b.key[id]
	}
	return key, nil
}

type memResults struct {
	byUser  map[uuid.UUID]*model.Result
	inserts int
}

func newMemResults() *memResults {
	return &memResults{byUser: make(map[uuid.UUID]*model.Result)}
}

func (m *memResults) GetByUser(_ context.Context, userID uuid.UUID) (*model.Result, error) {
	res, ok := m.byUser[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *res
	return &c, nil
}

func (m *memResults) CreateOnce(_ context.Context, res *model.Result) (bool, error) {
	if _, ok := m.byUser[res.UserID]; ok {
		return false, nil
	}
	res.SubmittedAt = time.Now()
	c := *res
	m.byUser[res.UserID] = &c
	m.inserts++
	return true, nil
}

// ─── Harness ────────────────────────────────────────────────────────

type engineFixture struct {
	quiz     *QuizService
	sessions *memSessions
	bank     *memBank
	results  *memResults
	clk      *fakeClock
	cfg      *config.Config
}

func newEngineFixture(t *testing.T, bankSize int) *engineFixture {
	t.Helper()
	cfg := &config.Config{
		QuestionCount:      3,
		PerQuestionSecs:    90,
		ViolationThreshold: 3,
	}
	sessions := newMemSessions()
	bank := newMemBank(bankSize)
	results := newMemResults()
	clk := &fakeClock{now: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)}
	quiz := NewQuizService(sessions, bank, results, clk, cfg, zerolog.Nop())
	return &engineFixture{quiz: quiz, sessions: sessions, bank: bank, results: results, clk: clk, cfg: cfg}
}

// ─── Lifecycle ──────────────────────────────────────────────────────

func TestStartDrawsConfiguredCount(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()

	session, err := f.quiz.Start(context.Background(), userID, false)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(session.QuestionIDs) != f.cfg.QuestionCount {
		t.Errorf("drew %d questions, want %d", len(session.QuestionIDs), f.cfg.QuestionCount)
	}
	if session.CurrentIndex != 0 || len(session.Answers) != 0 {
		t.Errorf("fresh session not at index 0 with no answers: index=%d answers=%d", session.CurrentIndex, len(session.Answers))
	}
	if session.Terminated || session.IsPractice {
		t.Errorf("fresh graded session has terminated=%v practice=%v", session.Terminated, session.IsPractice)
	}
}

func TestStartReplacesExistingSession(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()

	first, _ := f.quiz.Start(ctx, userID, false)
	mustAdvance(t, f, userID, first.QuestionIDs[0], intPtr(0))

	second, err := f.quiz.Start(ctx, userID, false)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.CurrentIndex != 0 || len(second.Answers) != 0 {
		t.Errorf("restart did not reset progress: index=%d answers=%d", second.CurrentIndex, len(second.Answers))
	}
	if second.Version <= first.Version {
		t.Errorf("restart version %d not above %d; stale conditional writes could still win", second.Version, first.Version)
	}
}

func TestStartRejectedAfterSubmission(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()

	f.results.byUser[userID] = &model.Result{UserID: userID, Score: 4}

	if _, err := f.quiz.Start(ctx, userID, false); err != ErrAlreadySubmitted {
		t.Errorf("graded start after submission: err = %v, want ErrAlreadySubmitted", err)
	}
	// Practice bypasses the gate and must not touch the existing result.
	if _, err := f.quiz.Start(ctx, userID, true); err != nil {
		t.Errorf("practice start after submission: %v", err)
	}
	if f.results.byUser[userID].Score != 4 {
		t.Error("practice start mutated the committed result")
	}
}

func TestStartPoolExhausted(t *testing.T) {
	f := newEngineFixture(t, 2) // bank smaller than QuestionCount

	if _, err := f.quiz.Start(context.Background(), uuid.New(), false); err != ErrQuestionPoolExhausted {
		t.Errorf("err = %v, want ErrQuestionPoolExhausted", err)
	}
}

// ─── Progression ────────────────────────────────────────────────────

func mustAdvance(t *testing.T, f *engineFixture, userID, questionID uuid.UUID, choice *int) *AdvanceOutcome {
	t.Helper()
	action := model.AdvanceAnswered
	if choice == nil {
		action = model.AdvanceSkipped
	}
	out, err := f.quiz.Advance(context.Background(), userID, questionID, choice, action)
	if err != nil {
		t.Fatalf("Advance(%s): %v", questionID, err)
	}
	return out
}

func TestAdvanceRecordsOutcomeAndServesNext(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)

	out := mustAdvance(t, f, userID, session.QuestionIDs[0], intPtr(1))
	if out.Finished {
		t.Fatal("finished after one of three questions")
	}
	if out.Next == nil || out.Next.Index != 1 || out.Next.Total != 3 {
		t.Fatalf("next = %+v, want index 1 of 3", out.Next)
	}
	if out.Next.Question.ID != session.QuestionIDs[1] {
		t.Error("next question is not the session's second question")
	}

	stored := f.sessions.byUser[userID]
	if len(stored.Answers) != stored.CurrentIndex {
		t.Errorf("answers length %d != current index %d", len(stored.Answers), stored.CurrentIndex)
	}
	if stored.Answers[0].Status != model.OutcomeAnswered || *stored.Answers[0].ChoiceIndex != 1 {
		t.Errorf("recorded outcome = %+v, want answered choice 1", stored.Answers[0])
	}
}

func TestAdvanceSequenceMismatchLeavesSessionUntouched(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)

	// Post against the second question while the first is current.
	_, err := f.quiz.Advance(context.Background(), userID, session.QuestionIDs[1], intPtr(0), model.AdvanceAnswered)
	if err != ErrSequenceMismatch {
		t.Fatalf("err = %v, want ErrSequenceMismatch", err)
	}

	stored := f.sessions.byUser[userID]
	if stored.CurrentIndex != 0 || len(stored.Answers) != 0 {
		t.Errorf("rejected advance mutated session: index=%d answers=%d", stored.CurrentIndex, len(stored.Answers))
	}
}

func TestAdvanceDeadlineForcesTimeout(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)

	f.clk.Advance(91 * time.Second)

	// The client claims a (correct) answer, but the budget has elapsed.
	correct := f.bank.key[session.QuestionIDs[0]]
	mustAdvance(t, f, userID, session.QuestionIDs[0], intPtr(correct))

	stored := f.sessions.byUser[userID]
	if stored.Answers[0].Status != model.OutcomeTimeout {
		t.Errorf("status = %s, want timeout", stored.Answers[0].Status)
	}
	if stored.Answers[0].ChoiceIndex != nil {
		t.Error("timed-out outcome kept the untrusted choice")
	}
}

func TestAdvanceAtDeadlineBoundaryCounts(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)

	// Exactly at the deadline is still in time.
	f.clk.Advance(90 * time.Second)
	mustAdvance(t, f, userID, session.QuestionIDs[0], intPtr(2))

	stored := f.sessions.byUser[userID]
	if stored.Answers[0].Status != model.OutcomeAnswered {
		t.Errorf("status = %s, want answered at the boundary", stored.Answers[0].Status)
	}
}

func TestAdvanceAnsweredWithoutChoiceIsSkip(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)

	out, err := f.quiz.Advance(context.Background(), userID, session.QuestionIDs[0], nil, model.AdvanceAnswered)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if out.Finished {
		t.Fatal("unexpected finish")
	}
	if got := f.sessions.byUser[userID].Answers[0].Status; got != model.OutcomeSkipped {
		t.Errorf("status = %s, want skipped", got)
	}
}

func TestAdvanceRejectsChoiceBeyondOptions(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)

	// The bank serves four options; index 4 points past the last one.
	_, err := f.quiz.Advance(context.Background(), userID, session.QuestionIDs[0], intPtr(4), model.AdvanceAnswered)
	if err != ErrChoiceOutOfRange {
		t.Fatalf("Advance = %v, want ErrChoiceOutOfRange", err)
	}

	stored := f.sessions.byUser[userID]
	if stored.CurrentIndex != 0 || len(stored.Answers) != 0 {
		t.Errorf("rejected choice mutated session: index=%d answers=%d", stored.CurrentIndex, len(stored.Answers))
	}

	// A valid choice on the same question still goes through.
	mustAdvance(t, f, userID, session.QuestionIDs[0], intPtr(3))
	if got := f.sessions.byUser[userID].Answers[0].Status; got != model.OutcomeAnswered {
		t.Errorf("status = %s, want answered", got)
	}
}

func TestAdvanceVersionConflictLoserGetsMismatch(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, false)
	ctx := context.Background()

	// First conditional write loses to a concurrent duplicate of the same
	// request that commits just before it.
	fired := false
	f.sessions.beforeAdvance = func() {
		if fired {
			return
		}
		fired = true
		stored := f.sessions.byUser[userID]
		stored.Answers = append(stored.Answers, model.Outcome{
			QuestionID:  session.QuestionIDs[0],
			Status:      model.OutcomeAnswered,
			ChoiceIndex: intPtr(0),
		})
		stored.CurrentIndex = 1
		stored.Version++
	}

	_, err := f.quiz.Advance(ctx, userID, session.QuestionIDs[0], intPtr(0), model.AdvanceAnswered)
	if err != ErrSequenceMismatch {
		t.Fatalf("err = %v, want ErrSequenceMismatch for the losing duplicate", err)
	}

	stored := f.sessions.byUser[userID]
	if len(stored.Answers) != 1 || stored.CurrentIndex != 1 {
		t.Errorf("conflict recorded the outcome twice: answers=%d index=%d", len(stored.Answers), stored.CurrentIndex)
	}
}

// ─── Finalization ───────────────────────────────────────────────────

func TestFinalizeScoresAndCommitsOnce(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()
	session, _ := f.quiz.Start(ctx, userID, false)

	// Correct, wrong, skipped: +2 - 0.25 + 0 = 1.75.
	mustAdvance(t, f, userID, session.QuestionIDs[0], intPtr(f.bank.key[session.QuestionIDs[0]]))
	mustAdvance(t, f, userID, session.QuestionIDs[1], intPtr(f.bank.key[session.QuestionIDs[1]]+1))
	out := mustAdvance(t, f, userID, session.QuestionIDs[2], nil)

	if !out.Finished || out.Result == nil {
		t.Fatalf("final advance: finished=%v result=%v", out.Finished, out.Result)
	}
	if out.Result.Score != 1.75 {
		t.Errorf("score = %v, want 1.75", out.Result.Score)
	}
	if out.Result.WasTerminated {
		t.Error("regular finalization marked terminated")
	}
	if len(out.Result.Answers) != 3 {
		t.Errorf("result carries %d outcomes, want 3", len(out.Result.Answers))
	}

	if _, ok := f.sessions.byUser[userID]; ok {
		t.Error("session survived finalization")
	}
	if f.results.inserts != 1 {
		t.Errorf("result inserted %d times, want 1", f.results.inserts)
	}

	// The session is gone; a repeated advance reports no active session.
	if _, err := f.quiz.Advance(ctx, userID, session.QuestionIDs[2], nil, model.AdvanceSkipped); err != ErrNoActiveSession {
		t.Errorf("advance after finalize: err = %v, want ErrNoActiveSession", err)
	}

	res, err := f.quiz.GetResult(ctx, userID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if res.Score != 1.75 {
		t.Errorf("stored score = %v, want 1.75", res.Score)
	}
}

func TestFinishRecoversFromCrashedFinalization(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()
	session, _ := f.quiz.Start(ctx, userID, false)

	// Simulate a crash after the final transition committed but before the
	// Result write: a fully-advanced session with no Result.
	stored := f.sessions.byUser[userID]
	for _, qid := range session.QuestionIDs {
		stored.Answers = append(stored.Answers, model.Outcome{
			QuestionID:  qid,
			Status:      model.OutcomeAnswered,
			ChoiceIndex: intPtr(f.bank.key[qid]),
		})
	}
	stored.CurrentIndex = len(session.QuestionIDs)

	out, err := f.quiz.Advance(ctx, userID, session.QuestionIDs[2], nil, model.AdvanceSkipped)
	if err != nil {
		t.Fatalf("recovery advance: %v", err)
	}
	if !out.Finished || out.Result == nil || out.Result.Score != 6 {
		t.Fatalf("recovery outcome = %+v, want finished with score 6", out)
	}
}

func TestFinishResolvesToExistingResult(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()
	session, _ := f.quiz.Start(ctx, userID, false)

	// A Result already exists (committed by a racing writer); the lingering
	// fully-advanced session must resolve to it, not overwrite it.
	f.results.byUser[userID] = &model.Result{UserID: userID, Score: 4}
	stored := f.sessions.byUser[userID]
	stored.CurrentIndex = len(session.QuestionIDs)

	out, err := f.quiz.Advance(ctx, userID, session.QuestionIDs[0], nil, model.AdvanceSkipped)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !out.Finished || out.Result == nil || out.Result.Score != 4 {
		t.Fatalf("outcome = %+v, want the existing result with score 4", out)
	}
	if f.results.inserts != 0 {
		t.Error("existing result was overwritten")
	}
}

func TestPracticeFinishLeavesNoResult(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	session, _ := f.quiz.Start(context.Background(), userID, true)

	mustAdvance(t, f, userID, session.QuestionIDs[0], intPtr(0))
	mustAdvance(t, f, userID, session.QuestionIDs[1], nil)
	out := mustAdvance(t, f, userID, session.QuestionIDs[2], intPtr(3))

	if !out.Finished || out.Result != nil {
		t.Fatalf("practice finish: finished=%v result=%v, want finished with no result", out.Finished, out.Result)
	}
	if len(f.results.byUser) != 0 {
		t.Error("practice session produced a result")
	}
	if _, ok := f.sessions.byUser[userID]; ok {
		t.Error("practice session survived completion")
	}
}

// ─── Termination ────────────────────────────────────────────────────

func TestTerminateCommitsZeroScoreOnce(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()
	f.quiz.Start(ctx, userID, false)

	res, err := f.quiz.Terminate(ctx, userID, 3)
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if res.Score != 0 || !res.WasTerminated || len(res.Answers) != 0 || res.ViolationCount != 3 {
		t.Errorf("terminated result = %+v, want score 0, terminated, empty answers", res)
	}
	if _, ok := f.sessions.byUser[userID]; ok {
		t.Error("session survived termination")
	}

	// A repeat resolves to the same committed result.
	again, err := f.quiz.Terminate(ctx, userID, 5)
	if err != nil {
		t.Fatalf("repeat Terminate: %v", err)
	}
	if again.ViolationCount != 3 {
		t.Errorf("repeat mutated the result: violations = %d, want 3", again.ViolationCount)
	}
	if f.results.inserts != 1 {
		t.Errorf("result inserted %d times, want 1", f.results.inserts)
	}
}

// ─── Reads ──────────────────────────────────────────────────────────

func TestCurrentQuestionStates(t *testing.T) {
	f := newEngineFixture(t, 10)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := f.quiz.CurrentQuestion(ctx, userID); err != ErrNoActiveSession {
		t.Errorf("no session: err = %v, want ErrNoActiveSession", err)
	}

	session, _ := f.quiz.Start(ctx, userID, false)
	view, err := f.quiz.CurrentQuestion(ctx, userID)
	if err != nil {
		t.Fatalf("CurrentQuestion: %v", err)
	}
	if view.Index != 0 || view.Question.ID != session.QuestionIDs[0] {
		t.Errorf("view = %+v, want the first question", view)
	}
	wantDeadline := f.clk.Now().Add(90 * time.Second)
	if !view.Deadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v", view.Deadline, wantDeadline)
	}

	f.sessions.byUser[userID].Terminated = true
	if _, err := f.quiz.CurrentQuestion(ctx, userID); err != ErrSessionTerminated {
		t.Errorf("terminated: err = %v, want ErrSessionTerminated", err)
	}

	f.sessions.byUser[userID].Terminated = false
	f.sessions.byUser[userID].CurrentIndex = 3
	if _, err := f.quiz.CurrentQuestion(ctx, userID); err != ErrAlreadyFinished {
		t.Errorf("finished: err = %v, want ErrAlreadyFinished", err)
	}
}

func TestGetResultMissing(t *testing.T) {
	f := newEngineFixture(t, 10)
	if _, err := f.quiz.GetResult(context.Background(), uuid.New()); err != ErrNoResult {
		t.Errorf("err = %v, want ErrNoResult", err)
	}
}
