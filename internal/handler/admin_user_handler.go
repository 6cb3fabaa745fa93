package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizgate/quizgate-backend/internal/response"
	"github.com/quizgate/quizgate-backend/internal/service"
	"github.com/rs/zerolog"
)

// AdminUserHandler handles taker account management endpoints.
type AdminUserHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(userService *service.UserService, log zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		userService: userService,
		log:         log.With().Str("component", "admin_user_handler").Logger(),
	}
}

// DeleteUser godoc
// DELETE /api/v1/admin/users/:id
// Removes a taker's account along with their session, result, and violation
// history. Admin accounts cannot be removed through this endpoint.
func (h *AdminUserHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrCannotDeleteAdmin):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			h.log.Error().Err(err).Str("user_id", id.String()).Msg("User deletion failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "user deleted"})
}
