// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/app/models/dto"
	"github.com/studentrecords/backend/internal/app/services"
	"github.com/studentrecords/backend/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	cookieName  string
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, cookieName string, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		cookieName:  cookieName,
		logger:      logger,
	}
}

// Register handles user registration and signs the new user in
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration request payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	c.logger.Info().
		Str("email", req.Email).
		Str("username", req.Username).
		Str("role", req.Role).
		Msg("User registration request received")

	tokenResponse, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to register user")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setSessionCookie(ctx, tokenResponse)

	c.logger.Info().
		Str("email", req.Email).
		Str("role", tokenResponse.Role).
		Msg("User registered successfully")

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(tokenResponse))
}

// Login authenticates a user and sets the session cookie
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	tokenResponse, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setSessionCookie(ctx, tokenResponse)

	c.logger.Info().
		Str("email", tokenResponse.Email).
		Str("role", tokenResponse.Role).
		Msg("User logged in")

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(tokenResponse))
}

// Logout clears the session cookie
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(c.cookieName, "", -1, "/", "", true, true)

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Logged out successfully"))
}

// GetProfile returns the authenticated user's profile
func (c *AuthController) GetProfile(ctx *gin.Context) {
	userID := ctx.GetInt64("userID")

	profile, err := c.authService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		c.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to load profile")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

func (c *AuthController) setSessionCookie(ctx *gin.Context, token *dto.TokenResponse) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(c.cookieName, token.Token, int(token.ExpiresIn), "/", "", true, true)
}
