package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/app/models/dto"
	"github.com/studentrecords/backend/internal/app/repositories"
	"github.com/studentrecords/backend/internal/pkg/apperrors"
)

// UserService orchestrates admin operations on user accounts and their
// linked student records
type UserService struct {
	userRepo    repositories.IUserRepository
	studentRepo repositories.IStudentRepository
	logger      zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo repositories.IUserRepository,
	studentRepo repositories.IStudentRepository,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		logger:      logger,
	}
}

// GetAll retrieves all user accounts
func (s *UserService) GetAll(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error fetching all users")
		return nil, fmt.Errorf("error fetching users: %w", err)
	}

	return users, nil
}

// GetDetails retrieves a user and, for student accounts, the linked student
// record
func (s *UserService) GetDetails(ctx context.Context, userID int64) (*dto.UserDetailsResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userId", userID).Msg("Error fetching user")
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError(apperrors.ErrUserNotFound,
			fmt.Sprintf("user with id %d not found", userID))
	}

	details := &dto.UserDetailsResponse{User: user}

	if user.Role == models.RoleStudent {
		student, err := s.findStudentFor(ctx, user)
		if err != nil {
			return nil, err
		}
		details.StudentProfile = student
	}

	return details, nil
}

// UpdateStudentUser overwrites a student-role user's record and keeps the
// account email in sync with the record email, in one transaction.
func (s *UserService) UpdateStudentUser(ctx context.Context, userID int64, req *dto.UpdateStudentUserRequest) (*models.Student, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError(apperrors.ErrUserNotFound,
			fmt.Sprintf("user with id %d not found", userID))
	}
	if user.Role != models.RoleStudent {
		return nil, apperrors.ErrNotStudentAccount
	}

	student, err := s.findStudentFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, apperrors.NewNotFoundError(apperrors.ErrStudentProfileNotFound,
			fmt.Sprintf("no student record linked to user %d", userID))
	}

	student.Name = req.Name
	student.Email = req.Email
	student.RegistrationNumber = req.RegistrationNumber
	student.DateOfBirth = req.DateOfBirth
	student.Department = req.Department

	user.Email = req.Email

	if err := s.userRepo.UpdateWithStudent(ctx, user, student); err != nil {
		s.logger.Error().Err(err).Int64("userId", userID).Msg("Error updating student user")
		return nil, err
	}

	s.logger.Info().Int64("userId", userID).Int64("studentId", student.ID).Msg("Student user updated")
	return student, nil
}

// DeleteStudentUser removes a student-role user and its linked student
// record transactionally. Returns false when the user does not exist.
func (s *UserService) DeleteStudentUser(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return false, nil
	}
	if user.Role != models.RoleStudent {
		return false, apperrors.ErrNotStudentAccount
	}

	deleted, err := s.userRepo.DeleteUserAndStudent(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userId", userID).Msg("Error deleting student user")
		return false, fmt.Errorf("error deleting student user: %w", err)
	}

	if deleted {
		s.logger.Info().Int64("userId", userID).Msg("Student user deleted")
	}
	return deleted, nil
}

// findStudentFor locates the student record for a user, preferring the
// user_id link and falling back to the legacy email match.
func (s *UserService) findStudentFor(ctx context.Context, user *models.User) (*models.Student, error) {
	student, err := s.studentRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error fetching student profile: %w", err)
	}
	if student != nil {
		return student, nil
	}

	student, err = s.studentRepo.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error fetching student profile: %w", err)
	}
	return student, nil
}
