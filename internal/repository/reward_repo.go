package repository

import (
	"database/sql"
	"fmt"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// RewardRepository handles balances and the append-only reward ledger
type RewardRepository struct {
	db database.Querier
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db database.Querier) *RewardRepository {
	return &RewardRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RewardRepository) WithTx(tx *database.Tx) *RewardRepository {
	return &RewardRepository{db: tx}
}

// LockBalance reads a student's balance, row-locking it where the dialect
// supports it. A missing balance row is created at zero.
func (r *RewardRepository) LockBalance(studentID int64) (int64, error) {
	query := "SELECT balance FROM reward_balances WHERE student_id = ?" + r.db.GetDialect().LockClause()

	var balance int64
	err := r.db.QueryRow(query, studentID).Scan(&balance)
	if err == sql.ErrNoRows {
		if _, err := r.db.Exec("INSERT INTO reward_balances (student_id, balance) VALUES (?, 0)", studentID); err != nil {
			return 0, fmt.Errorf("failed to create reward balance: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// GetBalance returns a student's balance (0 when none exists yet)
func (r *RewardRepository) GetBalance(studentID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow("SELECT balance FROM reward_balances WHERE student_id = ?", studentID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// SetBalance writes a student's balance
func (r *RewardRepository) SetBalance(studentID, balance int64) error {
	query := "UPDATE reward_balances SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE student_id = ?"
	if _, err := r.db.Exec(query, balance, studentID); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// InsertEntry appends an entry to the ledger and sets its ID
func (r *RewardRepository) InsertEntry(e *models.LedgerEntry) error {
	query := `
		INSERT INTO reward_ledger (student_id, amount, reason, category, kind, day_key, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		e.StudentID, e.Amount, e.Reason, string(e.Category), string(e.Kind),
		e.DayKey, e.BalanceAfter, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	e.ID = id
	return nil
}

// SumForDay totals a student's grants in one category on an academy-local day
func (r *RewardRepository) SumForDay(studentID int64, category models.RewardCategory, dayKey string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM reward_ledger
		WHERE student_id = ? AND category = ? AND day_key = ?
	`
	var sum int64
	if err := r.db.QueryRow(query, studentID, string(category), dayKey).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return sum, nil
}

// HasKindForDay reports whether an entry of kind exists for the day
func (r *RewardRepository) HasKindForDay(studentID int64, kind models.RewardKind, dayKey string) (bool, error) {
	query := "SELECT COUNT(*) FROM reward_ledger WHERE student_id = ? AND kind = ? AND day_key = ?"
	var count int
	if err := r.db.QueryRow(query, studentID, string(kind), dayKey).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}
	return count > 0, nil
}

// ListEntries returns a student's ledger newest first. limit <= 0 returns all.
func (r *RewardRepository) ListEntries(studentID int64, limit int) ([]models.LedgerEntry, error) {
	query := ledgerSelect + " WHERE student_id = ? ORDER BY id DESC"
	args := []interface{}{studentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryEntries(query, args...)
}

// ListEntriesInOrder returns a student's ledger in append order
func (r *RewardRepository) ListEntriesInOrder(studentID int64) ([]models.LedgerEntry, error) {
	return r.queryEntries(ledgerSelect+" WHERE student_id = ? ORDER BY id ASC", studentID)
}

const ledgerSelect = `
	SELECT id, student_id, amount, reason, category, kind, day_key, balance_after, created_at
	FROM reward_ledger`

func (r *RewardRepository) queryEntries(query string, args ...interface{}) ([]models.LedgerEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(
			&e.ID,
			&e.StudentID,
			&e.Amount,
			&e.Reason,
			&e.Category,
			&e.Kind,
			&e.DayKey,
			&e.BalanceAfter,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
