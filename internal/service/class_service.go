package service

import (
	"errors"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var ErrClassNameTaken = errors.New("class name already taken")

// ClassService manages classes
type ClassService struct {
	classRepo *repository.ClassRepository
}

// NewClassService creates a new class service
func NewClassService(classRepo *repository.ClassRepository) *ClassService {
	return &ClassService{classRepo: classRepo}
}

// CreateClass adds a class with a unique name
func (s *ClassService) CreateClass(name, description string) (*models.Class, error) {
	name, description, err := s.clean(0, name, description)
	if err != nil {
		return nil, err
	}
	return s.classRepo.CreateClass(name, description)
}

// GetClass returns a class or ErrClassNotFound
func (s *ClassService) GetClass(id int64) (*models.Class, error) {
	class, err := s.classRepo.GetClassByID(id)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, ErrClassNotFound
	}
	return class, nil
}

// ListClasses lists classes with their enrolment
func (s *ClassService) ListClasses() ([]models.ClassWithCount, error) {
	classes, err := s.classRepo.ListClasses()
	if err != nil {
		return nil, err
	}
	if classes == nil {
		classes = []models.ClassWithCount{}
	}
	return classes, nil
}

// UpdateClass renames or redescribes a class
func (s *ClassService) UpdateClass(id int64, name, description string) (*models.Class, error) {
	if _, err := s.GetClass(id); err != nil {
		return nil, err
	}
	name, description, err := s.clean(id, name, description)
	if err != nil {
		return nil, err
	}
	if err := s.classRepo.UpdateClass(id, name, description); err != nil {
		return nil, err
	}
	return s.GetClass(id)
}

// DeleteClass removes a class; its students become unassigned
func (s *ClassService) DeleteClass(id int64) error {
	if _, err := s.GetClass(id); err != nil {
		return err
	}
	return s.classRepo.DeleteClass(id)
}

func (s *ClassService) clean(id int64, name, description string) (string, string, error) {
	name = validation.SanitizeText(name)
	description = validation.SanitizeText(description)
	if err := validation.ValidateName(name); err != nil {
		return "", "", err
	}

	classes, err := s.classRepo.ListClasses()
	if err != nil {
		return "", "", err
	}
	for _, c := range classes {
		if c.ID != id && c.Name == name {
			return "", "", ErrClassNameTaken
		}
	}
	return name, description, nil
}
