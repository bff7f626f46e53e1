package dto

import "time"

// CreateStudentRequest carries a new student record
type CreateStudentRequest struct {
	Name               string    `json:"name" binding:"required,min=2"`
	Email              string    `json:"email" binding:"required,email"`
	RegistrationNumber string    `json:"registrationNumber" binding:"required"`
	DateOfBirth        time.Time `json:"dateOfBirth" binding:"required"`
	Department         string    `json:"department" binding:"required"`
}

// UpdateStudentRequest carries replacement values for a student record.
// The target ID comes from the route, never from the body.
type UpdateStudentRequest struct {
	Name               string    `json:"name" binding:"required,min=2"`
	Email              string    `json:"email" binding:"required,email"`
	RegistrationNumber string    `json:"registrationNumber" binding:"required"`
	DateOfBirth        time.Time `json:"dateOfBirth" binding:"required"`
	Department         string    `json:"department" binding:"required"`
}
