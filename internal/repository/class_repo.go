package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// ClassRepository handles database operations for classes
type ClassRepository struct {
	db database.Querier
}

// NewClassRepository creates a new class repository
func NewClassRepository(db database.Querier) *ClassRepository {
	return &ClassRepository{db: db}
}

// CreateClass inserts a new class
func (r *ClassRepository) CreateClass(name, description string) (*models.Class, error) {
	query := "INSERT INTO classes (name, description) VALUES (?, ?)"
	id, err := r.db.ExecReturningID(query, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	now := time.Now()
	return &models.Class{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetClassByID retrieves a class by ID
func (r *ClassRepository) GetClassByID(id int64) (*models.Class, error) {
	query := "SELECT id, name, description, created_at, updated_at FROM classes WHERE id = ?"
	class := &models.Class{}
	err := r.db.QueryRow(query, id).Scan(
		&class.ID,
		&class.Name,
		&class.Description,
		&class.CreatedAt,
		&class.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get class: %w", err)
	}

	return class, nil
}

// ListClasses returns every class with its number of students
func (r *ClassRepository) ListClasses() ([]models.ClassWithCount, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_at, c.updated_at, COUNT(s.id)
		FROM classes c
		LEFT JOIN students s ON s.class_id = c.id
		GROUP BY c.id, c.name, c.description, c.created_at, c.updated_at
		ORDER BY c.name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var classes []models.ClassWithCount
	for rows.Next() {
		var c models.ClassWithCount
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.StudentCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		classes = append(classes, c)
	}

	return classes, rows.Err()
}

// UpdateClass updates a class's name and description
func (r *ClassRepository) UpdateClass(id int64, name, description string) error {
	query := `
		UPDATE classes
		SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, name, description, id); err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	return nil
}

// DeleteClass deletes a class. Its students stay, unassigned.
func (r *ClassRepository) DeleteClass(id int64) error {
	if _, err := r.db.Exec("UPDATE students SET class_id = NULL WHERE class_id = ?", id); err != nil {
		return fmt.Errorf("failed to unassign students: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM classes WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	return nil
}
