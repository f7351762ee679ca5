package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/security"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// LoginResult is returned by both login flows
type LoginResult struct {
	Token   string          `json:"token"`
	Session *models.Session `json:"session"`
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo    *repository.UserRepository
	studentRepo *repository.StudentRepository
	tokens      *security.TokenIssuer
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, studentRepo *repository.StudentRepository, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		tokens:      tokens,
	}
}

// CreateAdmin creates a staff account
func (s *AuthService) CreateAdmin(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = validation.SanitizeText(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the first staff account when none exists yet. It does
// nothing when email is empty or any account is already present.
func (s *AuthService) EnsureAdmin(email, password, name string) error {
	if email == "" {
		return nil
	}
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if name == "" {
		name = "Administrator"
	}
	user, err := s.CreateAdmin(email, password, name)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	log.Printf("Created bootstrap admin account %s", user.Email)
	return nil
}

// AdminLogin authenticates staff by email and password
func (s *AuthService) AdminLogin(email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user.ID, models.RoleAdmin, user.Name)
}

// StudentLogin authenticates a student by login handle and password
func (s *AuthService) StudentLogin(handle, password string) (*LoginResult, error) {
	student, err := s.studentRepo.GetStudentByHandle(strings.ToLower(strings.TrimSpace(handle)))
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil || !security.CheckPassword(password, student.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !student.Active {
		return nil, ErrAccountDisabled
	}
	return s.issue(student.ID, models.RoleStudent, student.DisplayName)
}

// ValidateToken resolves a bearer token to its principal. Students that were
// deactivated after the token was issued are rejected.
func (s *AuthService) ValidateToken(token string) (*models.Session, error) {
	session, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	if session.Role == models.RoleStudent {
		student, err := s.studentRepo.GetStudentByID(session.SubjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
		if student == nil {
			return nil, security.ErrInvalidToken
		}
		if !student.Active {
			return nil, ErrAccountDisabled
		}
	}
	return session, nil
}

// GetUser returns a staff account by ID
func (s *AuthService) GetUser(id int64) (*models.User, error) {
	return s.userRepo.GetUserByID(id)
}

func (s *AuthService) issue(subjectID int64, role models.Role, name string) (*LoginResult, error) {
	token, session, err := s.tokens.Issue(subjectID, role, name)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Session: session}, nil
}
