package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/app/models/dto"
	"github.com/studentrecords/backend/internal/app/repositories"
	"github.com/studentrecords/backend/internal/pkg/apperrors"
	"github.com/studentrecords/backend/internal/pkg/auth"
	"github.com/studentrecords/backend/internal/pkg/email"
)

// DefaultDepartment is assigned to auto-provisioned student records until an
// admin assigns a real one.
const DefaultDepartment = "Not Assigned"

// EmailVerifier reports whether an address is plausibly real
type EmailVerifier interface {
	IsReal(ctx context.Context, address string) bool
}

// AuthService handles authentication and registration
type AuthService struct {
	userRepo      repositories.IUserRepository
	jwtService    *auth.JWTService
	emailVerifier EmailVerifier
	emailService  email.Service
	logger        zerolog.Logger
}

// NewAuthService creates a new AuthService. emailService may be nil when
// credentials mail dispatch is not configured.
func NewAuthService(
	userRepo repositories.IUserRepository,
	jwtService *auth.JWTService,
	emailVerifier EmailVerifier,
	emailService email.Service,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtService:    jwtService,
		emailVerifier: emailVerifier,
		emailService:  emailService,
		logger:        logger,
	}
}

// ValidatePassword checks if a password meets requirements
func (s *AuthService) ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", apperrors.ErrInvalidPassword)
	}

	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters long", apperrors.ErrInvalidPassword)
	}

	hasLetter := false
	hasDigit := false
	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("%w: password must contain at least one letter", apperrors.ErrInvalidPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", apperrors.ErrInvalidPassword)
	}

	return nil
}

// Login authenticates a user by email and password. Unknown email and wrong
// password produce the same error so the response does not leak which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.logger.Info().Int64("userId", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return s.generateTokenResponse(user)
}

// Register creates a new user account. Student-role registrations also
// auto-provision a linked student record with a generated registration
// number, in the same transaction as the user insert. A credentials email is
// dispatched best-effort after the account exists.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	if err := s.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	role := models.Role(req.Role)
	if role != models.RoleAdmin && role != models.RoleStudent {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, req.Role)
	}

	if !s.emailVerifier.IsReal(ctx, req.Email) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidEmail, req.Email)
	}

	exists, err := s.userRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists,
			fmt.Sprintf("user with email %s already exists", req.Email))
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	var student *models.Student
	if role == models.RoleStudent {
		student = &models.Student{
			Name:               req.Username,
			Email:              req.Email,
			RegistrationNumber: generateRegistrationNumber(),
			Department:         DefaultDepartment,
		}
	}

	if err := s.userRepo.CreateWithStudent(ctx, user, student); err != nil {
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().
		Int64("userId", user.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("User registered")

	// Failure to deliver credentials must not fail the registration
	if s.emailService != nil {
		if err := s.emailService.SendCredentialsEmail(ctx, user.Email, user.Username, req.Password); err != nil {
			s.logger.Warn().Err(err).Str("email", user.Email).Msg("Failed to send credentials email")
		}
	}

	return s.generateTokenResponse(user)
}

// GetProfile retrieves the authenticated user's profile
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError(apperrors.ErrUserNotFound,
			fmt.Sprintf("user with id %d not found", userID))
	}

	return &dto.ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}, nil
}

// generateTokenResponse creates the token response for a user
func (s *AuthService) generateTokenResponse(user *models.User) (*dto.TokenResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	return &dto.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(expiresIn),
		Email:     user.Email,
		Username:  user.Username,
		Role:      string(user.Role),
	}, nil
}

// generateRegistrationNumber produces a placeholder registration number for
// auto-provisioned student records; admins replace it later.
func generateRegistrationNumber() string {
	return "REG-" + strings.ToUpper(uuid.New().String()[:8])
}
