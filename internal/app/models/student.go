package models

import (
	"time"
)

// Student defines the student record based on the 'students' table.
// UserID links a record to its owning user account; it is nullable because
// admins can create records before an account exists.
type Student struct {
	ID                 int64     `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	Email              string    `json:"email" db:"email"`
	RegistrationNumber string    `json:"registrationNumber" db:"registration_number"`
	DateOfBirth        time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Department         string    `json:"department" db:"department"`
	UserID             *int64    `json:"userId,omitempty" db:"user_id"`
}
