package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/repository"
)

// MonitorService orchestrates live proctoring overview for admins.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo}
}

// MonitorSnapshot holds every in-progress session plus audit-log violation
// totals. The audit counts can lag the live per-session counter — the worker
// persists them asynchronously.
type MonitorSnapshot struct {
	Sessions        []repository.ActiveSessionProgress `json:"sessions"`
	AuditViolations map[uuid.UUID]int64                `json:"audit_violations"`
	TotalViolations int64                              `json:"total_violations"`
}

// GetSnapshot fetches session progress and violation totals concurrently.
// Session progress is critical; audit counts are best-effort.
func (s *MonitorService) GetSnapshot(ctx context.Context) (*MonitorSnapshot, error) {
	var (
		sessions    []repository.ActiveSessionProgress
		auditCounts map[uuid.UUID]int64
		sessionsErr error
		auditErr    error
		wg          sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions, sessionsErr = s.monitorRepo.GetActiveSessions(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		auditCounts, auditErr = s.monitorRepo.GetViolationEventCounts(ctx)
	}()

	wg.Wait()

	if sessionsErr != nil {
		return nil, sessionsErr
	}

	snapshot := &MonitorSnapshot{
		Sessions:        sessions,
		AuditViolations: make(map[uuid.UUID]int64),
	}
	if auditErr == nil && auditCounts != nil {
		snapshot.AuditViolations = auditCounts
		for _, n := range auditCounts {
			snapshot.TotalViolations += n
		}
	}

	return snapshot, nil
}
