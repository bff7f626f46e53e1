package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/app/models"
	"github.com/studentrecords/backend/internal/app/models/dto"
	"github.com/studentrecords/backend/internal/pkg/apperrors"
	"github.com/studentrecords/backend/internal/pkg/auth"
)

// fakeUserRepo is an in-memory IUserRepository.
type fakeUserRepo struct {
	users    map[int64]*models.User
	students map[int64]*models.Student
	nextID   int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    map[int64]*models.User{},
		students: map[int64]*models.Student{},
		nextID:   1,
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	return r.CreateWithStudent(ctx, user, nil)
}

func (r *fakeUserRepo) CreateWithStudent(ctx context.Context, user *models.User, student *models.Student) error {
	if user == nil {
		return apperrors.ErrNilUser
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists, "email already exists")
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied

	if student != nil {
		student.UserID = &user.ID
		student.ID = r.nextID
		r.nextID++
		copiedStudent := *student
		r.students[student.ID] = &copiedStudent
	}
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]*models.User, error) {
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		copied := *u
		all = append(all, &copied)
	}
	return all, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) (*models.User, error) {
	existing, ok := r.users[user.ID]
	if !ok {
		return nil, nil
	}
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role
	existing.UpdatedAt = time.Now()
	copied := *existing
	return &copied, nil
}

func (r *fakeUserRepo) UpdateWithStudent(ctx context.Context, user *models.User, student *models.Student) error {
	if existing, ok := r.users[user.ID]; ok {
		existing.Email = user.Email
	}
	if existing, ok := r.students[student.ID]; ok {
		*existing = *student
	}
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *fakeUserRepo) DeleteUserAndStudent(ctx context.Context, userID int64) (bool, error) {
	if _, ok := r.users[userID]; !ok {
		return false, nil
	}
	for id, s := range r.students {
		if s.UserID != nil && *s.UserID == userID {
			delete(r.students, id)
		}
	}
	delete(r.users, userID)
	return true, nil
}

// stubVerifier answers IsReal with a fixed verdict.
type stubVerifier struct {
	real bool
}

func (v stubVerifier) IsReal(ctx context.Context, address string) bool {
	return v.real
}

func newTestAuthService(repo *fakeUserRepo, verifier EmailVerifier) *AuthService {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:     "test-secret",
		TokenExpiry:   time.Hour,
		TokenIssuer:   "studentrecords.app",
		TokenAudience: "studentrecords.app",
	})
	return NewAuthService(repo, jwtService, verifier, nil, zerolog.Nop())
}

func registerRequest(role string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "Passw0rd123",
		Role:     role,
	}
}

func TestRegisterStudentProvisionsRecord(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	resp, err := service.Register(context.Background(), registerRequest("Student"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if resp.Token == "" {
		t.Error("Register returned no token")
	}
	if resp.Role != "Student" {
		t.Errorf("Role = %q, want Student", resp.Role)
	}

	if len(repo.students) != 1 {
		t.Fatalf("student records = %d, want 1", len(repo.students))
	}
	for _, s := range repo.students {
		if s.Name != "jdoe" {
			t.Errorf("student Name = %q, want jdoe", s.Name)
		}
		if s.Email != "jdoe@example.com" {
			t.Errorf("student Email = %q, want jdoe@example.com", s.Email)
		}
		if s.Department != DefaultDepartment {
			t.Errorf("Department = %q, want %q", s.Department, DefaultDepartment)
		}
		if !strings.HasPrefix(s.RegistrationNumber, "REG-") {
			t.Errorf("RegistrationNumber = %q, want REG- prefix", s.RegistrationNumber)
		}
		if s.UserID == nil {
			t.Error("auto-provisioned student is not linked to the user account")
		}
	}
}

func TestRegisterAdminSkipsStudentRecord(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	if _, err := service.Register(context.Background(), registerRequest("Admin")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if len(repo.students) != 0 {
		t.Errorf("student records = %d, want 0 for admin registration", len(repo.students))
	}
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	if _, err := service.Register(context.Background(), registerRequest("Student")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	for _, u := range repo.users {
		if u.PasswordHash == "Passw0rd123" {
			t.Error("password stored in plaintext")
		}
		if !auth.CheckPassword(u.PasswordHash, "Passw0rd123") {
			t.Error("stored hash does not verify against the original password")
		}
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service := newTestAuthService(newFakeUserRepo(), stubVerifier{real: true})

	weak := []string{"", "short1", "lettersonly", "12345678"}
	for _, password := range weak {
		req := registerRequest("Student")
		req.Password = password
		if _, err := service.Register(context.Background(), req); !errors.Is(err, apperrors.ErrInvalidPassword) {
			t.Errorf("Register(%q) error = %v, want ErrInvalidPassword", password, err)
		}
	}
}

func TestRegisterRejectsUnverifiableEmail(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: false})

	_, err := service.Register(context.Background(), registerRequest("Student"))
	if !errors.Is(err, apperrors.ErrInvalidEmail) {
		t.Errorf("Register error = %v, want ErrInvalidEmail", err)
	}
	if len(repo.users) != 0 {
		t.Error("rejected registration must not create a user")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	if _, err := service.Register(context.Background(), registerRequest("Student")); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := service.Register(context.Background(), registerRequest("Student"))
	if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		t.Errorf("Register error = %v, want ErrEmailAlreadyExists", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	if _, err := service.Register(context.Background(), registerRequest("Student")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "jdoe@example.com",
		Password: "Passw0rd123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("Login returned no token")
	}
	if resp.Username != "jdoe" {
		t.Errorf("Username = %q, want jdoe", resp.Username)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	if _, err := service.Register(context.Background(), registerRequest("Student")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown email and wrong password must be indistinguishable
	_, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Passw0rd123",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}

	_, err = service.Login(context.Background(), &dto.LoginRequest{
		Email:    "jdoe@example.com",
		Password: "WrongPassword1",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestGetProfile(t *testing.T) {
	repo := newFakeUserRepo()
	service := newTestAuthService(repo, stubVerifier{real: true})

	if _, err := service.Register(context.Background(), registerRequest("Student")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var userID int64
	for id := range repo.users {
		userID = id
	}

	profile, err := service.GetProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.Email != "jdoe@example.com" {
		t.Errorf("Email = %q, want jdoe@example.com", profile.Email)
	}

	if _, err := service.GetProfile(context.Background(), 9999); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("missing profile error = %v, want ErrUserNotFound", err)
	}
}
