package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/rs/zerolog"
)

func newProctorFixture(t *testing.T) (*ProctorService, *engineFixture) {
	t.Helper()
	f := newEngineFixture(t, 10)
	// No Redis in unit tests; the audit side channels are best-effort.
	p := NewProctorService(f.sessions, f.quiz, nil, &config.Config{ViolationThreshold: 3}, zerolog.Nop())
	return p, f
}

func TestReportWarnsUntilThreshold(t *testing.T) {
	p, f := newProctorFixture(t)
	userID := uuid.New()
	ctx := context.Background()
	f.quiz.Start(ctx, userID, false)

	for i, wantRemaining := range []int{2, 1} {
		out, err := p.Report(ctx, userID, model.ViolationFullscreenExit)
		if err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
		if out.Terminated {
			t.Fatalf("report %d terminated below the threshold", i+1)
		}
		if out.ViolationCount != i+1 || out.Remaining != wantRemaining {
			t.Errorf("report %d: count=%d remaining=%d, want %d/%d", i+1, out.ViolationCount, out.Remaining, i+1, wantRemaining)
		}
	}

	out, err := p.Report(ctx, userID, model.ViolationVisibilityLoss)
	if err != nil {
		t.Fatalf("threshold report: %v", err)
	}
	if !out.Terminated || out.ViolationCount != 3 || out.Remaining != 0 {
		t.Fatalf("threshold report = %+v, want terminated at 3", out)
	}
	if out.Result == nil || out.Result.Score != 0 || !out.Result.WasTerminated {
		t.Fatalf("termination result = %+v, want zero score with terminated flag", out.Result)
	}
	if len(out.Result.Answers) != 0 {
		t.Error("terminated result carries answers")
	}
	if _, ok := f.sessions.byUser[userID]; ok {
		t.Error("session survived termination")
	}
}

func TestReportAfterTerminationHasNoSession(t *testing.T) {
	p, f := newProctorFixture(t)
	userID := uuid.New()
	ctx := context.Background()
	f.quiz.Start(ctx, userID, false)

	for i := 0; i < 3; i++ {
		if _, err := p.Report(ctx, userID, model.ViolationVisibilityLoss); err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
	}

	if _, err := p.Report(ctx, userID, model.ViolationVisibilityLoss); err != ErrNoActiveSession {
		t.Errorf("report after termination: err = %v, want ErrNoActiveSession", err)
	}
}

func TestReportIgnoredInPractice(t *testing.T) {
	p, f := newProctorFixture(t)
	userID := uuid.New()
	ctx := context.Background()
	f.quiz.Start(ctx, userID, true)

	for i := 0; i < 5; i++ {
		out, err := p.Report(ctx, userID, model.ViolationFullscreenExit)
		if err != nil {
			t.Fatalf("report %d: %v", i+1, err)
		}
		if out.Terminated || out.ViolationCount != 0 || out.Remaining != 3 {
			t.Fatalf("practice report %d = %+v, want advisory no-op", i+1, out)
		}
	}

	stored := f.sessions.byUser[userID]
	if stored.ViolationCount != 0 || stored.Terminated {
		t.Errorf("practice session mutated: count=%d terminated=%v", stored.ViolationCount, stored.Terminated)
	}
	if len(f.results.byUser) != 0 {
		t.Error("practice violations produced a result")
	}
}

func TestReportWithoutSession(t *testing.T) {
	p, _ := newProctorFixture(t)
	if _, err := p.Report(context.Background(), uuid.New(), model.ViolationFullscreenExit); err != ErrNoActiveSession {
		t.Errorf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestViolationCountSurvivesOnResult(t *testing.T) {
	p, f := newProctorFixture(t)
	userID := uuid.New()
	ctx := context.Background()
	session, _ := f.quiz.Start(ctx, userID, false)

	// Two violations, then a legitimate finish: the count rides along on the
	// graded result without terminating it.
	p.Report(ctx, userID, model.ViolationFullscreenExit)
	p.Report(ctx, userID, model.ViolationVisibilityLoss)

	for _, qid := range session.QuestionIDs {
		mustAdvance(t, f, userID, qid, intPtr(f.bank.key[qid]))
	}

	res, err := f.quiz.GetResult(ctx, userID)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if res.WasTerminated {
		t.Error("finished session marked terminated")
	}
	if res.ViolationCount != 2 {
		t.Errorf("violation count = %d, want 2", res.ViolationCount)
	}
	if res.Score != 6 {
		t.Errorf("score = %v, want 6", res.Score)
	}
}
