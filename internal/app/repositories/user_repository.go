package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/db"
	"github.com/studentrecords/backend/internal/pkg/apperrors"
	"github.com/studentrecords/backend/internal/pkg/dberrors"
)

// IUserRepository defines the interface for user account database operations
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	CreateWithStudent(ctx context.Context, user *models.User, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdateWithStudent(ctx context.Context, user *models.User, student *models.Student) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteUserAndStudent(ctx context.Context, userID int64) (bool, error)
}

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

// Create inserts a new user, assigning its ID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return apperrors.ErrNilUser
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash, user.Role).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists,
				fmt.Sprintf("user with email %s already exists", user.Email))
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}

// CreateWithStudent inserts a user and, when student is non-nil, its linked
// student record in a single transaction. The student row carries the new
// user's ID so the association survives later email edits.
func (r *UserRepository) CreateWithStudent(ctx context.Context, user *models.User, student *models.Student) error {
	if user == nil {
		return apperrors.ErrNilUser
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			user.Username, user.Email, user.PasswordHash, user.Role).Scan(
			&user.ID, &user.CreatedAt, &user.UpdatedAt)

		if err != nil {
			if dberrors.IsUniqueViolation(err) {
				return apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists,
					fmt.Sprintf("user with email %s already exists", user.Email))
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		if student == nil {
			return nil
		}

		student.UserID = &user.ID
		return createStudentTx(ctx, tx, student)
	})
}

// GetByID retrieves a user by ID. A missing row is (nil, nil), not an error.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`,
		id).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving user by id: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by exact email match. A missing row is (nil, nil).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1`,
		email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving user by email: %w", err)
	}

	return user, nil
}

// GetAll retrieves all users
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error retrieving users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.Role, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}

	return exists, nil
}

// Update overwrites the mutable fields of an existing user (email, password
// hash, role). The target is addressed by user.ID only; a missing target
// returns (nil, nil).
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, apperrors.ErrNilUser
	}

	existing, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role

	err = r.db.QueryRow(ctx, `
		UPDATE users
		SET email = $1, password_hash = $2, role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`,
		existing.Email, existing.PasswordHash, existing.Role, existing.ID).Scan(&existing.UpdatedAt)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists,
				fmt.Sprintf("user with email %s already exists", existing.Email))
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return existing, nil
}

// UpdateWithStudent updates a user and its linked student record in a single
// transaction, keeping the two email columns in sync.
func (r *UserRepository) UpdateWithStudent(ctx context.Context, user *models.User, student *models.Student) error {
	if user == nil {
		return apperrors.ErrNilUser
	}
	if student == nil {
		return apperrors.ErrNilStudent
	}

	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE users
			SET email = $1, updated_at = NOW()
			WHERE id = $2`,
			user.Email, user.ID)
		if err != nil {
			if dberrors.IsUniqueViolation(err) {
				return apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists,
					fmt.Sprintf("user with email %s already exists", user.Email))
			}
			return fmt.Errorf("error updating user: %w", err)
		}

		return updateStudentTx(ctx, tx, student)
	})
}

// Delete removes a user. True iff a row existed and was removed.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting user: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteUserAndStudent removes a user and any student record linked to it,
// in a single transaction so a partial failure cannot leave an orphaned
// student row. Returns false when the user does not exist. Student rows are
// matched by user_id, with a legacy fallback on the email column.
func (r *UserRepository) DeleteUserAndStudent(ctx context.Context, userID int64) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM students WHERE user_id = $1 OR email = $2`,
			user.ID, user.Email); err != nil {
			return fmt.Errorf("error deleting linked student: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return true, nil
}
