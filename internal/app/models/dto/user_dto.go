package dto

import (
	"time"

	"github.com/studentrecords/backend/internal/app/models"
)

// UserDetailsResponse carries a user and, for student accounts, the linked
// student record
type UserDetailsResponse struct {
	User           *models.User    `json:"user"`
	StudentProfile *models.Student `json:"studentProfile,omitempty"`
}

// UpdateStudentUserRequest carries replacement values for a student-role
// user's record; the linked user's email is kept in sync
type UpdateStudentUserRequest struct {
	Name               string    `json:"name" binding:"required,min=2"`
	Email              string    `json:"email" binding:"required,email"`
	RegistrationNumber string    `json:"registrationNumber" binding:"required"`
	DateOfBirth        time.Time `json:"dateOfBirth" binding:"required"`
	Department         string    `json:"department" binding:"required"`
}
