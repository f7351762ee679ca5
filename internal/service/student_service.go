package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/credentials"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/security"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var (
	ErrClassNotFound = errors.New("class not found")
	ErrHandleTaken   = errors.New("login handle already taken")
)

const maxHandleAttempts = 10

// StudentInput carries admin-editable student fields. Blank Handle or
// Password are generated.
type StudentInput struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"login_handle"`
	Password    string `json:"password"`
	ClassID     *int64 `json:"class_id"`
}

// StudentUpdate carries the fields an admin may change after creation
type StudentUpdate struct {
	DisplayName string `json:"display_name"`
	ClassID     *int64 `json:"class_id"`
	Active      bool   `json:"active"`
}

// StudentService manages student accounts
type StudentService struct {
	studentRepo *repository.StudentRepository
	classRepo   *repository.ClassRepository
}

// NewStudentService creates a new student service
func NewStudentService(studentRepo *repository.StudentRepository, classRepo *repository.ClassRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo, classRepo: classRepo}
}

// CreateStudent provisions an account and returns its one-time credentials
func (s *StudentService) CreateStudent(in StudentInput) (*models.StudentCredentials, error) {
	name := validation.SanitizeText(in.DisplayName)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.checkClass(in.ClassID); err != nil {
		return nil, err
	}

	handle, err := s.resolveHandle(strings.ToLower(strings.TrimSpace(in.Handle)))
	if err != nil {
		return nil, err
	}

	password := in.Password
	if password == "" {
		if password, err = credentials.GenerateStudentPassword(); err != nil {
			return nil, fmt.Errorf("failed to generate password: %w", err)
		}
	} else if err := validation.ValidateStudentPassword(password); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	student, err := s.studentRepo.CreateStudent(name, handle, hash, in.ClassID)
	if err != nil {
		return nil, err
	}
	return &models.StudentCredentials{Student: student, Password: password}, nil
}

// resolveHandle validates a chosen handle or generates a free one
func (s *StudentService) resolveHandle(handle string) (string, error) {
	if handle != "" {
		if err := validation.ValidateHandle(handle); err != nil {
			return "", err
		}
		taken, err := s.studentRepo.HandleExists(handle)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrHandleTaken
		}
		return handle, nil
	}

	for i := 0; i < maxHandleAttempts; i++ {
		candidate, err := credentials.GenerateStudentHandle()
		if err != nil {
			return "", fmt.Errorf("failed to generate handle: %w", err)
		}
		taken, err := s.studentRepo.HandleExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique handle after %d attempts", maxHandleAttempts)
}

// GetStudent returns a student or ErrStudentNotFound
func (s *StudentService) GetStudent(id int64) (*models.Student, error) {
	student, err := s.studentRepo.GetStudentByID(id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// ListStudents lists students, optionally only one class
func (s *StudentService) ListStudents(classID *int64) ([]models.Student, error) {
	students, err := s.studentRepo.ListStudents(classID)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// UpdateStudent changes name, class and active flag. Deactivated students
// keep their history but can no longer log in.
func (s *StudentService) UpdateStudent(id int64, in StudentUpdate) (*models.Student, error) {
	if _, err := s.GetStudent(id); err != nil {
		return nil, err
	}
	name := validation.SanitizeText(in.DisplayName)
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := s.checkClass(in.ClassID); err != nil {
		return nil, err
	}
	if err := s.studentRepo.UpdateStudent(id, name, in.ClassID, in.Active); err != nil {
		return nil, err
	}
	return s.GetStudent(id)
}

// ResetPassword replaces the password with a new generated one
func (s *StudentService) ResetPassword(id int64) (*models.StudentCredentials, error) {
	student, err := s.GetStudent(id)
	if err != nil {
		return nil, err
	}
	password, err := credentials.GenerateStudentPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.studentRepo.UpdatePassword(id, hash); err != nil {
		return nil, err
	}
	return &models.StudentCredentials{Student: student, Password: password}, nil
}

func (s *StudentService) checkClass(classID *int64) error {
	if classID == nil {
		return nil
	}
	class, err := s.classRepo.GetClassByID(*classID)
	if err != nil {
		return err
	}
	if class == nil {
		return ErrClassNotFound
	}
	return nil
}
