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

// StudentService orchestrates student record operations
type StudentService struct {
	studentRepo repositories.IStudentRepository
	logger      zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(studentRepo repositories.IStudentRepository, logger zerolog.Logger) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		logger:      logger,
	}
}

// GetAll retrieves all student records
func (s *StudentService) GetAll(ctx context.Context) ([]*models.Student, error) {
	students, err := s.studentRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error fetching all students")
		return nil, fmt.Errorf("error fetching students: %w", err)
	}

	s.logger.Debug().Int("count", len(students)).Msg("Retrieved students")
	return students, nil
}

// GetByID retrieves a student record. A missing record is a typed not-found
// error at this layer.
func (s *StudentService) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("Error fetching student")
		return nil, fmt.Errorf("error fetching student: %w", err)
	}
	if student == nil {
		s.logger.Warn().Int64("id", id).Msg("Student not found")
		return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound,
			fmt.Sprintf("student with id %d not found", id))
	}

	return student, nil
}

// Create maps a creation request to a new student record
func (s *StudentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*models.Student, error) {
	student := &models.Student{
		Name:               req.Name,
		Email:              req.Email,
		RegistrationNumber: req.RegistrationNumber,
		DateOfBirth:        req.DateOfBirth,
		Department:         req.Department,
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		s.logger.Error().Err(err).Str("registrationNumber", req.RegistrationNumber).Msg("Error creating student")
		return nil, err
	}

	s.logger.Info().Int64("id", student.ID).Str("registrationNumber", student.RegistrationNumber).Msg("Student created")
	return student, nil
}

// Update overwrites the mutable fields of an existing student record. The
// target is addressed by id only; any identity in the payload is ignored.
func (s *StudentService) Update(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*models.Student, error) {
	student := &models.Student{
		ID:                 id,
		Name:               req.Name,
		Email:              req.Email,
		RegistrationNumber: req.RegistrationNumber,
		DateOfBirth:        req.DateOfBirth,
		Department:         req.Department,
	}

	updated, err := s.studentRepo.Update(ctx, student)
	if err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("Error updating student")
		return nil, err
	}
	if updated == nil {
		s.logger.Warn().Int64("id", id).Msg("Student not found for update")
		return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound,
			fmt.Sprintf("student with id %d not found", id))
	}

	s.logger.Info().Int64("id", updated.ID).Msg("Student updated")
	return updated, nil
}

// Delete removes a student record. True iff it existed.
func (s *StudentService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.studentRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("Error deleting student")
		return false, fmt.Errorf("error deleting student: %w", err)
	}

	if !deleted {
		s.logger.Warn().Int64("id", id).Msg("Delete failed, student not found")
		return false, nil
	}

	s.logger.Info().Int64("id", id).Msg("Student deleted")
	return true, nil
}
