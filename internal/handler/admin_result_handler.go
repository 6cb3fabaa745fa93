package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quizgate/quizgate-backend/internal/repository"
	"github.com/quizgate/quizgate-backend/internal/response"
	"github.com/quizgate/quizgate-backend/internal/service"
	"github.com/rs/zerolog"
)

// AdminResultHandler serves quiz result listing and export to admins.
type AdminResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewAdminResultHandler creates a new AdminResultHandler.
func NewAdminResultHandler(resultService *service.ResultService, log zerolog.Logger) *AdminResultHandler {
	return &AdminResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "admin_result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/admin/results
// Lists every participant with their result if they attempted, attempted first.
func (h *AdminResultHandler) ListResults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, total, err := h.resultService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if results == nil {
		results = []repository.UserResult{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	})
}

// ExportResults godoc
// GET /api/v1/admin/results/export
// Streams all participants and their results as a CSV download.
func (h *AdminResultHandler) ExportResults(c *gin.Context) {
	filename := fmt.Sprintf("quiz-results-%s.csv", time.Now().UTC().Format("20060102-150405"))

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.resultService.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers are already sent; the truncated body is all we can signal.
		h.log.Error().Err(err).Msg("CSV export failed mid-stream")
	}
}
