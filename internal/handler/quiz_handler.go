package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/middleware"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/response"
	"github.com/quizgate/quizgate-backend/internal/service"
	"github.com/quizgate/quizgate-backend/internal/validator"
)

// QuizHandler handles the quiz-taking endpoints.
type QuizHandler struct {
	quizService    *service.QuizService
	proctorService *service.ProctorService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, proctorService *service.ProctorService) *QuizHandler {
	return &QuizHandler{quizService: quizService, proctorService: proctorService}
}

// failQuizError maps engine errors onto HTTP statuses and response codes.
func failQuizError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusForbidden, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrAlreadyFinished):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyFinished)
	case errors.Is(err, service.ErrSequenceMismatch):
		response.Fail(c, http.StatusConflict, response.ErrSequenceMismatch)
	case errors.Is(err, service.ErrChoiceOutOfRange):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"choice_index": err.Error(),
		})
	case errors.Is(err, service.ErrSessionTerminated):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminated)
	case errors.Is(err, service.ErrQuestionPoolExhausted):
		response.Fail(c, http.StatusInternalServerError, response.ErrQuestionPoolExhausted)
	case errors.Is(err, service.ErrNoResult):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrStorageUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStorageUnavailable)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Start godoc
// POST /api/v1/quiz/start
// Creates (or resets) the caller's quiz session. Admins always run in
// practice mode: ungraded and exempt from termination.
func (h *QuizHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	isPractice := claims.Role == model.RoleAdmin

	session, err := h.quizService.Start(c.Request.Context(), claims.UserID, isPractice)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"total":       len(session.QuestionIDs),
		"is_practice": session.IsPractice,
		"ends_at":     session.EndsAt,
	})
}

// GetCurrent godoc
// GET /api/v1/quiz/current
// Returns the current question projection with the server-side deadline.
func (h *QuizHandler) GetCurrent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.quizService.CurrentQuestion(c.Request.Context(), claims.UserID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Advance godoc
// POST /api/v1/quiz/advance
// Posts the outcome of the current question and returns the next one or the
// finished marker. The server decides timeouts; the client action is a claim.
func (h *QuizHandler) Advance(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AdvanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	outcome, err := h.quizService.Advance(
		c.Request.Context(),
		claims.UserID,
		questionID,
		req.ChoiceIndex,
		model.AdvanceAction(req.Action),
	)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// ReportViolation godoc
// POST /api/v1/quiz/violation
// Records one proctoring violation; the server-held counter decides
// termination, never the client.
func (h *QuizHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.ViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.proctorService.Report(c.Request.Context(), claims.UserID, model.ViolationKind(req.Kind))
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// GetResult godoc
// GET /api/v1/quiz/result
// Returns the caller's terminal result after submission or termination.
func (h *QuizHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.quizService.GetResult(c.Request.Context(), claims.UserID)
	if err != nil {
		failQuizError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
