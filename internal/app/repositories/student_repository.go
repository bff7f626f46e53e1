package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/pkg/apperrors"
	"github.com/studentrecords/backend/internal/pkg/dberrors"
)

// IStudentRepository defines the interface for student record database operations
type IStudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Student, error)
	GetAll(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) (*models.Student, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// StudentRepository handles database operations for student records
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
	}
}

const studentColumns = `id, name, email, registration_number, date_of_birth, department, user_id`

// Create inserts a new student record, assigning its ID
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student == nil {
		return apperrors.ErrNilStudent
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO students (name, email, registration_number, date_of_birth, department, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		student.Name, student.Email, student.RegistrationNumber,
		student.DateOfBirth, student.Department, student.UserID).Scan(&student.ID)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.NewConflictError(apperrors.ErrRegistrationNumberExists,
				fmt.Sprintf("student with registration number %s already exists", student.RegistrationNumber))
		}
		return fmt.Errorf("error creating student: %w", err)
	}

	return nil
}

// createTx inserts a student record within an existing transaction
func createStudentTx(ctx context.Context, tx pgx.Tx, student *models.Student) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO students (name, email, registration_number, date_of_birth, department, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		student.Name, student.Email, student.RegistrationNumber,
		student.DateOfBirth, student.Department, student.UserID).Scan(&student.ID)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.NewConflictError(apperrors.ErrRegistrationNumberExists,
				fmt.Sprintf("student with registration number %s already exists", student.RegistrationNumber))
		}
		return fmt.Errorf("error creating student: %w", err)
	}

	return nil
}

// GetByID retrieves a student by ID. A missing row is (nil, nil), not an error.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	student := &models.Student{}
	err := r.db.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE id = $1`,
		id).Scan(
		&student.ID, &student.Name, &student.Email, &student.RegistrationNumber,
		&student.DateOfBirth, &student.Department, &student.UserID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving student by id: %w", err)
	}

	return student, nil
}

// GetByEmail retrieves a student by email. A missing row is (nil, nil).
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	student := &models.Student{}
	err := r.db.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE email = $1`,
		email).Scan(
		&student.ID, &student.Name, &student.Email, &student.RegistrationNumber,
		&student.DateOfBirth, &student.Department, &student.UserID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving student by email: %w", err)
	}

	return student, nil
}

// GetByUserID retrieves the student record linked to a user account. A
// missing row is (nil, nil).
func (r *StudentRepository) GetByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	student := &models.Student{}
	err := r.db.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students
		WHERE user_id = $1`,
		userID).Scan(
		&student.ID, &student.Name, &student.Email, &student.RegistrationNumber,
		&student.DateOfBirth, &student.Department, &student.UserID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving student by user id: %w", err)
	}

	return student, nil
}

// GetAll retrieves all student records
func (r *StudentRepository) GetAll(ctx context.Context) ([]*models.Student, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+studentColumns+`
		FROM students
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(
			&student.ID, &student.Name, &student.Email, &student.RegistrationNumber,
			&student.DateOfBirth, &student.Department, &student.UserID,
		); err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

// Update overwrites the mutable fields of an existing student record.
// The target is addressed by student.ID only; ID and UserID are never
// taken from the payload. A missing target returns (nil, nil).
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (*models.Student, error) {
	if student == nil {
		return nil, apperrors.ErrNilStudent
	}

	existing, err := r.GetByID(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	existing.Name = student.Name
	existing.Email = student.Email
	existing.RegistrationNumber = student.RegistrationNumber
	existing.DateOfBirth = student.DateOfBirth
	existing.Department = student.Department

	_, err = r.db.Exec(ctx, `
		UPDATE students
		SET name = $1, email = $2, registration_number = $3, date_of_birth = $4, department = $5
		WHERE id = $6`,
		existing.Name, existing.Email, existing.RegistrationNumber,
		existing.DateOfBirth, existing.Department, existing.ID)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflictError(apperrors.ErrRegistrationNumberExists,
				fmt.Sprintf("student with registration number %s already exists", existing.RegistrationNumber))
		}
		return nil, fmt.Errorf("error updating student: %w", err)
	}

	return existing, nil
}

// updateStudentTx overwrites the mutable fields of a student record within
// an existing transaction
func updateStudentTx(ctx context.Context, tx pgx.Tx, student *models.Student) error {
	_, err := tx.Exec(ctx, `
		UPDATE students
		SET name = $1, email = $2, registration_number = $3, date_of_birth = $4, department = $5
		WHERE id = $6`,
		student.Name, student.Email, student.RegistrationNumber,
		student.DateOfBirth, student.Department, student.ID)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.NewConflictError(apperrors.ErrRegistrationNumberExists,
				fmt.Sprintf("student with registration number %s already exists", student.RegistrationNumber))
		}
		return fmt.Errorf("error updating student: %w", err)
	}

	return nil
}

// Delete removes a student record. True iff a row existed and was removed.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting student: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
