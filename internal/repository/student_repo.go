package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// StudentRepository handles database operations for students
type StudentRepository struct {
	db database.Querier
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.Querier) *StudentRepository {
	return &StudentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *StudentRepository) WithTx(tx *database.Tx) *StudentRepository {
	return &StudentRepository{db: tx}
}

const studentColumns = "id, display_name, login_handle, password_hash, class_id, active, created_at, updated_at"

// CreateStudent inserts a student along with an empty reward balance
func (r *StudentRepository) CreateStudent(displayName, loginHandle, passwordHash string, classID *int64) (*models.Student, error) {
	query := `
		INSERT INTO students (display_name, login_handle, password_hash, class_id, active)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, displayName, loginHandle, passwordHash, classID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	if _, err := r.db.Exec("INSERT INTO reward_balances (student_id, balance) VALUES (?, 0)", id); err != nil {
		return nil, fmt.Errorf("failed to create reward balance: %w", err)
	}

	now := time.Now()
	return &models.Student{
		ID:           id,
		DisplayName:  displayName,
		LoginHandle:  loginHandle,
		PasswordHash: passwordHash,
		ClassID:      classID,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetStudentByID retrieves a student by ID
func (r *StudentRepository) GetStudentByID(id int64) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = ?"
	return scanStudent(r.db.QueryRow(query, id))
}

// GetStudentByHandle retrieves a student by login handle
func (r *StudentRepository) GetStudentByHandle(handle string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE login_handle = ?"
	return scanStudent(r.db.QueryRow(query, handle))
}

// HandleExists reports whether a login handle is taken
func (r *StudentRepository) HandleExists(handle string) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM students WHERE login_handle = ?", handle).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check handle: %w", err)
	}
	return count > 0, nil
}

// ListStudents returns students ordered by name, optionally limited to one class
func (r *StudentRepository) ListStudents(classID *int64) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students"
	var args []interface{}
	if classID != nil {
		query += " WHERE class_id = ?"
		args = append(args, *classID)
	}
	query += " ORDER BY display_name ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		student, err := scanStudentRow(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}

	return students, rows.Err()
}

// UpdateStudent updates a student's profile fields
func (r *StudentRepository) UpdateStudent(id int64, displayName string, classID *int64, active bool) error {
	query := `
		UPDATE students
		SET display_name = ?, class_id = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, displayName, classID, active, id); err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// UpdatePassword replaces a student's password hash
func (r *StudentRepository) UpdatePassword(id int64, passwordHash string) error {
	query := "UPDATE students SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, passwordHash, id); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row *sql.Row) (*models.Student, error) {
	student, err := scanStudentRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return student, err
}

func scanStudentRow(row rowScanner) (*models.Student, error) {
	student := &models.Student{}
	var classID sql.NullInt64
	err := row.Scan(
		&student.ID,
		&student.DisplayName,
		&student.LoginHandle,
		&student.PasswordHash,
		&classID,
		&student.Active,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	if classID.Valid {
		id := classID.Int64
		student.ClassID = &id
	}
	return student, nil
}
