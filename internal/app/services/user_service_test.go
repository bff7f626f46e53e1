package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/app/models/dto"
	"github.com/studentrecords/backend/internal/pkg/apperrors"
)

// setupStudentUser seeds a student-role user with a linked student record.
func setupStudentUser(t *testing.T) (*fakeUserRepo, *fakeStudentRepo, *UserService, int64) {
	t.Helper()

	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()

	user := &models.User{
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: "hash",
		Role:         models.RoleStudent,
	}
	if err := userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user failed: %v", err)
	}

	student := &models.Student{
		Name:               "Jane Doe",
		Email:              "jdoe@example.com",
		RegistrationNumber: "REG-2024-001",
		DateOfBirth:        time.Date(2001, 5, 14, 0, 0, 0, 0, time.UTC),
		Department:         "Computer Science",
		UserID:             &user.ID,
	}
	if err := studentRepo.Create(context.Background(), student); err != nil {
		t.Fatalf("seeding student failed: %v", err)
	}

	service := NewUserService(userRepo, studentRepo, zerolog.Nop())
	return userRepo, studentRepo, service, user.ID
}

func TestUserServiceGetDetailsForStudent(t *testing.T) {
	_, _, service, userID := setupStudentUser(t)

	details, err := service.GetDetails(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}

	if details.User == nil || details.User.ID != userID {
		t.Fatal("GetDetails returned wrong user")
	}
	if details.StudentProfile == nil {
		t.Fatal("GetDetails returned no student profile for a student account")
	}
	if details.StudentProfile.RegistrationNumber != "REG-2024-001" {
		t.Errorf("RegistrationNumber = %q, want REG-2024-001", details.StudentProfile.RegistrationNumber)
	}
}

func TestUserServiceGetDetailsForAdmin(t *testing.T) {
	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()

	admin := &models.User{Username: "root", Email: "root@example.com", Role: models.RoleAdmin}
	if err := userRepo.Create(context.Background(), admin); err != nil {
		t.Fatalf("seeding admin failed: %v", err)
	}

	service := NewUserService(userRepo, studentRepo, zerolog.Nop())

	details, err := service.GetDetails(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if details.StudentProfile != nil {
		t.Error("admin details must not carry a student profile")
	}
}

func TestUserServiceGetDetailsMissing(t *testing.T) {
	_, _, service, _ := setupStudentUser(t)

	_, err := service.GetDetails(context.Background(), 9999)
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("GetDetails error = %v, want ErrUserNotFound", err)
	}
}

func TestUserServiceUpdateStudentUser(t *testing.T) {
	userRepo, _, service, userID := setupStudentUser(t)

	student, err := service.UpdateStudentUser(context.Background(), userID, &dto.UpdateStudentUserRequest{
		Name:               "Jane Smith",
		Email:              "jane.smith@example.com",
		RegistrationNumber: "REG-2024-001",
		DateOfBirth:        time.Date(2001, 5, 14, 0, 0, 0, 0, time.UTC),
		Department:         "Mathematics",
	})
	if err != nil {
		t.Fatalf("UpdateStudentUser failed: %v", err)
	}

	if student.Name != "Jane Smith" {
		t.Errorf("Name = %q, want Jane Smith", student.Name)
	}
	if student.Email != "jane.smith@example.com" {
		t.Errorf("Email = %q, want jane.smith@example.com", student.Email)
	}

	// The account email follows the record email
	if userRepo.users[userID].Email != "jane.smith@example.com" {
		t.Errorf("user email = %q, want jane.smith@example.com", userRepo.users[userID].Email)
	}
}

func TestUserServiceUpdateRejectsNonStudent(t *testing.T) {
	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()

	admin := &models.User{Username: "root", Email: "root@example.com", Role: models.RoleAdmin}
	if err := userRepo.Create(context.Background(), admin); err != nil {
		t.Fatalf("seeding admin failed: %v", err)
	}

	service := NewUserService(userRepo, studentRepo, zerolog.Nop())

	_, err := service.UpdateStudentUser(context.Background(), admin.ID, &dto.UpdateStudentUserRequest{
		Name:               "Root",
		Email:              "root@example.com",
		RegistrationNumber: "REG-0000",
		DateOfBirth:        time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Department:         "None",
	})
	if !errors.Is(err, apperrors.ErrNotStudentAccount) {
		t.Errorf("UpdateStudentUser error = %v, want ErrNotStudentAccount", err)
	}
}

func TestUserServiceUpdateMissingProfile(t *testing.T) {
	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()

	// Student-role user without a linked record
	orphan := &models.User{Username: "ghost", Email: "ghost@example.com", Role: models.RoleStudent}
	if err := userRepo.Create(context.Background(), orphan); err != nil {
		t.Fatalf("seeding user failed: %v", err)
	}

	service := NewUserService(userRepo, studentRepo, zerolog.Nop())

	_, err := service.UpdateStudentUser(context.Background(), orphan.ID, &dto.UpdateStudentUserRequest{
		Name:               "Ghost",
		Email:              "ghost@example.com",
		RegistrationNumber: "REG-0000",
		DateOfBirth:        time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Department:         "None",
	})
	if !errors.Is(err, apperrors.ErrStudentProfileNotFound) {
		t.Errorf("UpdateStudentUser error = %v, want ErrStudentProfileNotFound", err)
	}
}

func TestUserServiceDeleteStudentUser(t *testing.T) {
	userRepo, _, service, userID := setupStudentUser(t)

	deleted, err := service.DeleteStudentUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("DeleteStudentUser failed: %v", err)
	}
	if !deleted {
		t.Fatal("DeleteStudentUser returned false for an existing user")
	}
	if len(userRepo.users) != 0 {
		t.Error("user account still present after delete")
	}

	deleted, err = service.DeleteStudentUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("second DeleteStudentUser failed: %v", err)
	}
	if deleted {
		t.Error("DeleteStudentUser returned true for a missing user")
	}
}

func TestUserServiceDeleteRejectsNonStudent(t *testing.T) {
	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()

	admin := &models.User{Username: "root", Email: "root@example.com", Role: models.RoleAdmin}
	if err := userRepo.Create(context.Background(), admin); err != nil {
		t.Fatalf("seeding admin failed: %v", err)
	}

	service := NewUserService(userRepo, studentRepo, zerolog.Nop())

	_, err := service.DeleteStudentUser(context.Background(), admin.ID)
	if !errors.Is(err, apperrors.ErrNotStudentAccount) {
		t.Errorf("DeleteStudentUser error = %v, want ErrNotStudentAccount", err)
	}
}

func TestUserServiceFindStudentFallsBackToEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	studentRepo := newFakeStudentRepo()

	user := &models.User{Username: "legacy", Email: "legacy@example.com", Role: models.RoleStudent}
	if err := userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user failed: %v", err)
	}

	// Legacy record associated by email only
	student := &models.Student{
		Name:               "Legacy Student",
		Email:              "legacy@example.com",
		RegistrationNumber: "REG-1999-042",
		DateOfBirth:        time.Date(1999, 3, 2, 0, 0, 0, 0, time.UTC),
		Department:         "History",
	}
	if err := studentRepo.Create(context.Background(), student); err != nil {
		t.Fatalf("seeding student failed: %v", err)
	}

	service := NewUserService(userRepo, studentRepo, zerolog.Nop())

	details, err := service.GetDetails(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if details.StudentProfile == nil {
		t.Fatal("email fallback did not locate the student record")
	}
	if details.StudentProfile.RegistrationNumber != "REG-1999-042" {
		t.Errorf("RegistrationNumber = %q, want REG-1999-042", details.StudentProfile.RegistrationNumber)
	}
}
