package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/quizgate/quizgate-backend/internal/repository"
)

// ResultService serves admin result listing and CSV export.
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// List returns paginated user results, attempted first.
func (s *ResultService) List(ctx context.Context, page, perPage int) ([]repository.UserResult, int64, error) {
	return s.resultRepo.ListWithUsers(ctx, page, perPage)
}

// ExportCSV writes every user joined with their result as CSV.
func (s *ResultService) ExportCSV(ctx context.Context, w io.Writer) error {
	results, err := s.resultRepo.AllWithUsers(ctx)
	if err != nil {
		return fmt.Errorf("fetch results: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{
		"full_name", "email", "username", "roll_no", "phone",
		"has_attempted", "score", "submitted_at", "was_terminated", "violation_count",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.FullName, r.Email, r.Username, r.RollNo, r.Phone,
			strconv.FormatBool(r.HasAttempted),
			"", "", "", "",
		}
		if r.HasAttempted {
			row[6] = strconv.FormatFloat(*r.Score, 'f', -1, 64)
			row[7] = r.SubmittedAt.UTC().Format(time.RFC3339)
			row[8] = strconv.FormatBool(*r.WasTerminated)
			row[9] = strconv.Itoa(*r.ViolationCnt)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
