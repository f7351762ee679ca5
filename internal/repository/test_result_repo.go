package repository

import (
	"encoding/json"
	"fmt"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// TestResultRepository stores finished test sessions
type TestResultRepository struct {
	db database.Querier
}

// NewTestResultRepository creates a new test result repository
func NewTestResultRepository(db database.Querier) *TestResultRepository {
	return &TestResultRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *TestResultRepository) WithTx(tx *database.Tx) *TestResultRepository {
	return &TestResultRepository{db: tx}
}

// CreateResult inserts a result and sets its ID
func (r *TestResultRepository) CreateResult(result *models.TestResult) error {
	details, err := json.Marshal(result.Details)
	if err != nil {
		return fmt.Errorf("failed to encode result details: %w", err)
	}

	query := `
		INSERT INTO test_results (student_id, book_name, test_type, range_start, range_end, score,
			correct_count, total_count, details, scheduled_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		result.StudentID, result.BookName, string(result.TestType), result.Range.Start, result.Range.End,
		result.Score, result.CorrectCount, result.TotalCount, string(details), result.ScheduledDate,
		result.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create test result: %w", err)
	}

	result.ID = id
	return nil
}

// ListResults returns a student's results, newest first. limit <= 0 returns all.
func (r *TestResultRepository) ListResults(studentID int64, limit int) ([]models.TestResult, error) {
	query := `
		SELECT id, student_id, book_name, test_type, range_start, range_end, score,
			correct_count, total_count, details, scheduled_date, created_at
		FROM test_results
		WHERE student_id = ?
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{studentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}
	defer rows.Close()

	var results []models.TestResult
	for rows.Next() {
		var res models.TestResult
		var details string
		if err := rows.Scan(
			&res.ID,
			&res.StudentID,
			&res.BookName,
			&res.TestType,
			&res.Range.Start,
			&res.Range.End,
			&res.Score,
			&res.CorrectCount,
			&res.TotalCount,
			&details,
			&res.ScheduledDate,
			&res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &res.Details); err != nil {
			return nil, fmt.Errorf("failed to decode result details: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}
