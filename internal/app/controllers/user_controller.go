package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/app/models/dto"
	"github.com/studentrecords/backend/internal/app/services"
	"github.com/studentrecords/backend/internal/middleware"
)

// UserController handles administrative user management
type UserController struct {
	userService *services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetAll returns every user account
func (c *UserController) GetAll(ctx *gin.Context) {
	users, err := c.userService.GetAll(ctx.Request.Context())
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to list users")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(users))
}

// GetDetails returns a user and, for student accounts, the linked
// student record
func (c *UserController) GetDetails(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	details, err := c.userService.GetDetails(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(details))
}

// UpdateStudentUser updates a student-role user's record and keeps the
// account email in sync
func (c *UserController) UpdateStudentUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	var req dto.UpdateStudentUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid update student user payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	student, err := c.userService.UpdateStudentUser(ctx.Request.Context(), id, &req)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", id).Msg("Failed to update student user")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", id).Msg("Student user updated")

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(student))
}

// DeleteStudentUser removes a student-role user together with the
// linked student record
func (c *UserController) DeleteStudentUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	deleted, err := c.userService.DeleteStudentUser(ctx.Request.Context(), id)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", id).Msg("Failed to delete student user")
		middleware.HandleAPIError(ctx, err)
		return
	}
	if !deleted {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "User not found")
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
		return
	}

	c.logger.Info().Int64("userID", id).Msg("Student user deleted")

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("User and student record deleted successfully"))
}
