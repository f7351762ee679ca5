package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string            `json:"version"`
	ExportedAt   time.Time         `json:"exported_at"`
	DatabaseType string            `json:"database_type"`
	Users        []UserBackup      `json:"users"`
	Classes      []ClassBackup     `json:"classes"`
	Students     []StudentBackup   `json:"students"`
	Words        []WordBackup      `json:"words"`
	Curricula    []SlotBackup      `json:"curricula"`
	BookSettings []SettingsBackup  `json:"book_settings"`
	Progress     []ProgressBackup  `json:"progress"`
	Results      []ResultBackup    `json:"results"`
	Balances     []BalanceBackup   `json:"balances"`
	Ledger       []LedgerBackup    `json:"ledger"`
	GameScores   []GameScoreBackup `json:"game_scores"`
	Settings     map[string]string `json:"settings"`
}

// UserBackup represents a staff account for backup
type UserBackup struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClassBackup represents a class for backup
type ClassBackup struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentBackup represents a student with their schedule fields
type StudentBackup struct {
	ID              int64     `json:"id"`
	DisplayName     string    `json:"display_name"`
	LoginHandle     string    `json:"login_handle"`
	PasswordHash    string    `json:"password_hash"`
	ClassID         *int64    `json:"class_id"`
	Active          bool      `json:"active"`
	WordsPerSession int       `json:"words_per_session"`
	StudyDays       string    `json:"study_days"`
	WeekdayCounts   string    `json:"weekday_counts"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WordBackup represents a word for backup
type WordBackup struct {
	ID              int64     `json:"id"`
	BookName        string    `json:"book_name"`
	UnitName        string    `json:"unit_name"`
	Position        int       `json:"position"`
	English         string    `json:"english"`
	Korean          string    `json:"korean"`
	ExampleSentence string    `json:"example_sentence"`
	SentenceMeaning string    `json:"sentence_meaning"`
	Difficulty      int       `json:"difficulty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SlotBackup represents a curriculum slot with its queue
type SlotBackup struct {
	ID        string        `json:"id"`
	StudentID int64         `json:"student_id"`
	Position  int           `json:"position"`
	BookName  string        `json:"book_name"`
	CreatedAt time.Time     `json:"created_at"`
	Queue     []QueueBackup `json:"queue"`
}

// QueueBackup represents a queued book
type QueueBackup struct {
	Position        int    `json:"position"`
	BookName        string `json:"book_name"`
	TestMode        string `json:"test_mode"`
	WordsPerSession int    `json:"words_per_session"`
}

// SettingsBackup represents per-book test settings
type SettingsBackup struct {
	StudentID       int64  `json:"student_id"`
	BookName        string `json:"book_name"`
	TestMode        string `json:"test_mode"`
	WordsPerSession int    `json:"words_per_session"`
}

// ProgressBackup represents per-book progress
type ProgressBackup struct {
	StudentID int64  `json:"student_id"`
	BookName  string `json:"book_name"`
	LastIndex int    `json:"last_index"`
}

// ResultBackup represents a finished test
type ResultBackup struct {
	ID            int64     `json:"id"`
	StudentID     int64     `json:"student_id"`
	BookName      string    `json:"book_name"`
	TestType      string    `json:"test_type"`
	RangeStart    int       `json:"range_start"`
	RangeEnd      int       `json:"range_end"`
	Score         int       `json:"score"`
	CorrectCount  int       `json:"correct_count"`
	TotalCount    int       `json:"total_count"`
	Details       string    `json:"details"`
	ScheduledDate string    `json:"scheduled_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// BalanceBackup represents a reward balance
type BalanceBackup struct {
	StudentID int64 `json:"student_id"`
	Balance   int64 `json:"balance"`
}

// LedgerBackup represents one ledger entry. Entries are exported in id order
// so running totals replay identically after import.
type LedgerBackup struct {
	ID           int64     `json:"id"`
	StudentID    int64     `json:"student_id"`
	Amount       int64     `json:"amount"`
	Reason       string    `json:"reason"`
	Category     string    `json:"category"`
	Kind         string    `json:"kind"`
	DayKey       string    `json:"day_key"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// GameScoreBackup represents a finished game
type GameScoreBackup struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	GameKind  string    `json:"game_kind"`
	Score     int       `json:"score"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// tablesInDependencyOrder lists every table, parents first
var tablesInDependencyOrder = []string{
	"users",
	"classes",
	"students",
	"words",
	"curriculum_slots",
	"curriculum_queue_entries",
	"book_settings",
	"book_progress",
	"test_results",
	"reward_balances",
	"reward_ledger",
	"game_scores",
	"settings",
}

// serialTables have an integer id sequence to realign after import
var serialTables = []string{"users", "classes", "students", "words", "curriculum_queue_entries", "test_results", "reward_ledger", "game_scores"}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) (*BackupData, error) {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(file)
	if err != nil {
		return nil, err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d students, %d words, %d slots, %d results, %d ledger entries, %d game scores",
		len(backup.Students), len(backup.Words), len(backup.Curricula),
		len(backup.Results), len(backup.Ledger), len(backup.GameScores))
	return backup, nil
}

// ExportToWriter writes the backup as indented JSON to w
func (s *BackupService) ExportToWriter(w io.Writer) (*BackupData, error) {
	backup, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// Snapshot reads the whole database into memory
func (s *BackupService) Snapshot() (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	steps := []struct {
		name string
		fn   func(*BackupData) error
	}{
		{"users", s.exportUsers},
		{"classes", s.exportClasses},
		{"students", s.exportStudents},
		{"words", s.exportWords},
		{"curricula", s.exportCurricula},
		{"book settings", s.exportBookSettings},
		{"progress", s.exportProgress},
		{"results", s.exportResults},
		{"balances", s.exportBalances},
		{"ledger", s.exportLedger},
		{"game scores", s.exportGameScores},
		{"settings", s.exportSettings},
	}
	for _, step := range steps {
		if err := step.fn(backup); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}
	return backup, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader. The whole
// import runs in one transaction.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		return importAll(tx, &backup)
	})
	if err != nil {
		return err
	}

	if err := s.resetSequences(); err != nil {
		return err
	}

	log.Println("Database import completed successfully")
	return nil
}

// Clear deletes all data, children first
func (s *BackupService) Clear() error {
	return s.db.WithTx(func(tx *database.Tx) error {
		for i := len(tablesInDependencyOrder) - 1; i >= 0; i-- {
			table := tablesInDependencyOrder[i]
			if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	})
}

// resetSequences moves PostgreSQL id sequences past the imported ids.
// SQLite and MySQL derive the next id from the table itself.
func (s *BackupService) resetSequences() error {
	if s.db.Dialect.DriverName() != "postgres" {
		return nil
	}
	for _, table := range serialTables {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

// queryEach runs query and calls scan for every row
func (s *BackupService) queryEach(query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, is_admin, created_at, updated_at FROM users ORDER BY id"
	return s.queryEach(query, func(rows *sql.Rows) error {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
		return nil
	})
}

func (s *BackupService) exportClasses(backup *BackupData) error {
	query := "SELECT id, name, description, created_at, updated_at FROM classes ORDER BY id"
	return s.queryEach(query, func(rows *sql.Rows) error {
		var c ClassBackup
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		backup.Classes = append(backup.Classes, c)
		return nil
	})
}

func (s *BackupService) exportStudents(backup *BackupData) error {
	query := `SELECT id, display_name, login_handle, password_hash, class_id, active,
		words_per_session, study_days, weekday_counts, created_at, updated_at
		FROM students ORDER BY id`
	return s.queryEach(query, func(rows *sql.Rows) error {
		var st StudentBackup
		var classID sql.NullInt64
		if err := rows.Scan(&st.ID, &st.DisplayName, &st.LoginHandle, &st.PasswordHash, &classID, &st.Active,
			&st.WordsPerSession, &st.StudyDays, &st.WeekdayCounts, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return err
		}
		if classID.Valid {
			st.ClassID = &classID.Int64
		}
		backup.Students = append(backup.Students, st)
		return nil
	})
}

func (s *BackupService) exportWords(backup *BackupData) error {
	query := `SELECT id, book_name, unit_name, position, english, korean, example_sentence,
		sentence_meaning, difficulty, created_at, updated_at
		FROM words ORDER BY id`
	return s.queryEach(query, func(rows *sql.Rows) error {
		var w WordBackup
		if err := rows.Scan(&w.ID, &w.BookName, &w.UnitName, &w.Position, &w.English, &w.Korean,
			&w.ExampleSentence, &w.SentenceMeaning, &w.Difficulty, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return err
		}
		backup.Words = append(backup.Words, w)
		return nil
	})
}

func (s *BackupService) exportCurricula(backup *BackupData) error {
	query := "SELECT id, student_id, position, book_name, created_at FROM curriculum_slots ORDER BY student_id, position"
	err := s.queryEach(query, func(rows *sql.Rows) error {
		var slot SlotBackup
		if err := rows.Scan(&slot.ID, &slot.StudentID, &slot.Position, &slot.BookName, &slot.CreatedAt); err != nil {
			return err
		}
		backup.Curricula = append(backup.Curricula, slot)
		return nil
	})
	if err != nil {
		return err
	}

	// Queues are read after the slot cursor is closed
	for i := range backup.Curricula {
		slot := &backup.Curricula[i]
		queueQuery := "SELECT position, book_name, test_mode, words_per_session FROM curriculum_queue_entries WHERE slot_id = ? ORDER BY position"
		rows, err := s.db.Query(queueQuery, slot.ID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var q QueueBackup
			if err := rows.Scan(&q.Position, &q.BookName, &q.TestMode, &q.WordsPerSession); err != nil {
				rows.Close()
				return err
			}
			slot.Queue = append(slot.Queue, q)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportBookSettings(backup *BackupData) error {
	query := "SELECT student_id, book_name, test_mode, words_per_session FROM book_settings ORDER BY student_id, book_name"
	return s.queryEach(query, func(rows *sql.Rows) error {
		var bs SettingsBackup
		if err := rows.Scan(&bs.StudentID, &bs.BookName, &bs.TestMode, &bs.WordsPerSession); err != nil {
			return err
		}
		backup.BookSettings = append(backup.BookSettings, bs)
		return nil
	})
}

func (s *BackupService) exportProgress(backup *BackupData) error {
	query := "SELECT student_id, book_name, last_index FROM book_progress ORDER BY student_id, book_name"
	return s.queryEach(query, func(rows *sql.Rows) error {
		var p ProgressBackup
		if err := rows.Scan(&p.StudentID, &p.BookName, &p.LastIndex); err != nil {
			return err
		}
		backup.Progress = append(backup.Progress, p)
		return nil
	})
}

func (s *BackupService) exportResults(backup *BackupData) error {
	query := `SELECT id, student_id, book_name, test_type, range_start, range_end, score,
		correct_count, total_count, details, scheduled_date, created_at
		FROM test_results ORDER BY id`
	return s.queryEach(query, func(rows *sql.Rows) error {
		var r ResultBackup
		if err := rows.Scan(&r.ID, &r.StudentID, &r.BookName, &r.TestType, &r.RangeStart, &r.RangeEnd, &r.Score,
			&r.CorrectCount, &r.TotalCount, &r.Details, &r.ScheduledDate, &r.CreatedAt); err != nil {
			return err
		}
		backup.Results = append(backup.Results, r)
		return nil
	})
}

func (s *BackupService) exportBalances(backup *BackupData) error {
	query := "SELECT student_id, balance FROM reward_balances ORDER BY student_id"
	return s.queryEach(query, func(rows *sql.Rows) error {
		var b BalanceBackup
		if err := rows.Scan(&b.StudentID, &b.Balance); err != nil {
			return err
		}
		backup.Balances = append(backup.Balances, b)
		return nil
	})
}

func (s *BackupService) exportLedger(backup *BackupData) error {
	query := `SELECT id, student_id, amount, reason, category, kind, day_key, balance_after, created_at
		FROM reward_ledger ORDER BY id`
	return s.queryEach(query, func(rows *sql.Rows) error {
		var e LedgerBackup
		if err := rows.Scan(&e.ID, &e.StudentID, &e.Amount, &e.Reason, &e.Category, &e.Kind,
			&e.DayKey, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return err
		}
		backup.Ledger = append(backup.Ledger, e)
		return nil
	})
}

func (s *BackupService) exportGameScores(backup *BackupData) error {
	query := "SELECT id, student_id, game_kind, score, details, created_at FROM game_scores ORDER BY id"
	return s.queryEach(query, func(rows *sql.Rows) error {
		var g GameScoreBackup
		if err := rows.Scan(&g.ID, &g.StudentID, &g.GameKind, &g.Score, &g.Details, &g.CreatedAt); err != nil {
			return err
		}
		backup.GameScores = append(backup.GameScores, g)
		return nil
	})
}

func (s *BackupService) exportSettings(backup *BackupData) error {
	backup.Settings = map[string]string{}
	return s.queryEach("SELECT setting_key, setting_value FROM settings", func(rows *sql.Rows) error {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		backup.Settings[key] = value
		return nil
	})
}

func importAll(tx *database.Tx, b *BackupData) error {
	log.Printf("Importing %d users, %d classes, %d students...", len(b.Users), len(b.Classes), len(b.Students))
	for _, u := range b.Users {
		query := "INSERT INTO users (id, email, password_hash, name, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, u.IsAdmin, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	for _, c := range b.Classes {
		query := "INSERT INTO classes (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import class %d: %w", c.ID, err)
		}
	}
	for _, st := range b.Students {
		query := `INSERT INTO students (id, display_name, login_handle, password_hash, class_id, active,
			words_per_session, study_days, weekday_counts, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query, st.ID, st.DisplayName, st.LoginHandle, st.PasswordHash, st.ClassID, st.Active,
			st.WordsPerSession, st.StudyDays, st.WeekdayCounts, st.CreatedAt, st.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import student %d: %w", st.ID, err)
		}
	}

	log.Printf("Importing %d words...", len(b.Words))
	for _, w := range b.Words {
		query := `INSERT INTO words (id, book_name, unit_name, position, english, korean, example_sentence,
			sentence_meaning, difficulty, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query, w.ID, w.BookName, w.UnitName, w.Position, w.English, w.Korean,
			w.ExampleSentence, w.SentenceMeaning, w.Difficulty, w.CreatedAt, w.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import word %d: %w", w.ID, err)
		}
	}

	log.Printf("Importing %d curriculum slots...", len(b.Curricula))
	for _, slot := range b.Curricula {
		query := "INSERT INTO curriculum_slots (id, student_id, position, book_name, created_at) VALUES (?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, slot.ID, slot.StudentID, slot.Position, slot.BookName, slot.CreatedAt); err != nil {
			return fmt.Errorf("failed to import slot %s: %w", slot.ID, err)
		}
		for _, q := range slot.Queue {
			queueQuery := "INSERT INTO curriculum_queue_entries (slot_id, position, book_name, test_mode, words_per_session) VALUES (?, ?, ?, ?, ?)"
			if _, err := tx.Exec(queueQuery, slot.ID, q.Position, q.BookName, q.TestMode, q.WordsPerSession); err != nil {
				return fmt.Errorf("failed to import queue entry for slot %s: %w", slot.ID, err)
			}
		}
	}
	for _, bs := range b.BookSettings {
		query := "INSERT INTO book_settings (student_id, book_name, test_mode, words_per_session) VALUES (?, ?, ?, ?)"
		if _, err := tx.Exec(query, bs.StudentID, bs.BookName, bs.TestMode, bs.WordsPerSession); err != nil {
			return fmt.Errorf("failed to import settings for student %d: %w", bs.StudentID, err)
		}
	}
	for _, p := range b.Progress {
		query := "INSERT INTO book_progress (student_id, book_name, last_index) VALUES (?, ?, ?)"
		if _, err := tx.Exec(query, p.StudentID, p.BookName, p.LastIndex); err != nil {
			return fmt.Errorf("failed to import progress for student %d: %w", p.StudentID, err)
		}
	}

	log.Printf("Importing %d results...", len(b.Results))
	for _, r := range b.Results {
		query := `INSERT INTO test_results (id, student_id, book_name, test_type, range_start, range_end, score,
			correct_count, total_count, details, scheduled_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query, r.ID, r.StudentID, r.BookName, r.TestType, r.RangeStart, r.RangeEnd, r.Score,
			r.CorrectCount, r.TotalCount, r.Details, r.ScheduledDate, r.CreatedAt); err != nil {
			return fmt.Errorf("failed to import result %d: %w", r.ID, err)
		}
	}

	log.Printf("Importing %d balances and %d ledger entries...", len(b.Balances), len(b.Ledger))
	for _, bal := range b.Balances {
		// Students may already have a zero row from creation elsewhere
		if _, err := tx.Exec("DELETE FROM reward_balances WHERE student_id = ?", bal.StudentID); err != nil {
			return fmt.Errorf("failed to import balance for student %d: %w", bal.StudentID, err)
		}
		if _, err := tx.Exec("INSERT INTO reward_balances (student_id, balance) VALUES (?, ?)", bal.StudentID, bal.Balance); err != nil {
			return fmt.Errorf("failed to import balance for student %d: %w", bal.StudentID, err)
		}
	}
	for _, e := range b.Ledger {
		query := `INSERT INTO reward_ledger (id, student_id, amount, reason, category, kind, day_key, balance_after, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.Exec(query, e.ID, e.StudentID, e.Amount, e.Reason, e.Category, e.Kind,
			e.DayKey, e.BalanceAfter, e.CreatedAt); err != nil {
			return fmt.Errorf("failed to import ledger entry %d: %w", e.ID, err)
		}
	}

	for _, g := range b.GameScores {
		query := "INSERT INTO game_scores (id, student_id, game_kind, score, details, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		if _, err := tx.Exec(query, g.ID, g.StudentID, g.GameKind, g.Score, g.Details, g.CreatedAt); err != nil {
			return fmt.Errorf("failed to import game score %d: %w", g.ID, err)
		}
	}

	for key, value := range b.Settings {
		if _, err := tx.Exec(tx.GetDialect().UpsertSettingQuery(), key, value); err != nil {
			return fmt.Errorf("failed to import setting %s: %w", key, err)
		}
	}
	return nil
}
