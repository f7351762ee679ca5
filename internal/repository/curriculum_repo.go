package repository

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// CurriculumRepository persists each student's study plan: slots, queues,
// per-book settings, progress and schedule
type CurriculumRepository struct {
	db database.Querier
}

// NewCurriculumRepository creates a new curriculum repository
func NewCurriculumRepository(db database.Querier) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *CurriculumRepository) WithTx(tx *database.Tx) *CurriculumRepository {
	return &CurriculumRepository{db: tx}
}

// LoadStore assembles the full curriculum for a student, or nil when the
// student does not exist
func (r *CurriculumRepository) LoadStore(studentID int64) (*models.CurriculumStore, error) {
	store := &models.CurriculumStore{
		StudentID:     studentID,
		BookSettings:  make(map[string]models.BookSettings),
		BookProgress:  make(map[string]int),
		WeekdayCounts: make(map[time.Weekday]int),
	}

	var studyDays, weekdayCounts string
	query := "SELECT words_per_session, study_days, weekday_counts FROM students WHERE id = ?"
	err := r.db.QueryRow(query, studentID).Scan(&store.WordsPerSession, &studyDays, &weekdayCounts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	store.StudyDays = ParseStudyDays(studyDays)
	store.WeekdayCounts = ParseWeekdayCounts(weekdayCounts)

	if store.Slots, err = r.ListSlots(studentID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query("SELECT book_name, test_mode, words_per_session FROM book_settings WHERE student_id = ?", studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query book settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var book string
		var s models.BookSettings
		if err := rows.Scan(&book, &s.TestMode, &s.WordsPerSession); err != nil {
			return nil, fmt.Errorf("failed to scan book settings: %w", err)
		}
		store.BookSettings[book] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	progressRows, err := r.db.Query("SELECT book_name, last_index FROM book_progress WHERE student_id = ?", studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer progressRows.Close()
	for progressRows.Next() {
		var book string
		var index int
		if err := progressRows.Scan(&book, &index); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		store.BookProgress[book] = index
	}

	return store, progressRows.Err()
}

// ListSlots returns a student's slots in position order, each with its queue
func (r *CurriculumRepository) ListSlots(studentID int64) ([]models.Slot, error) {
	query := `
		SELECT id, position, book_name, created_at
		FROM curriculum_slots
		WHERE student_id = ?
		ORDER BY position ASC
	`
	rows, err := r.db.Query(query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}

	var slots []models.Slot
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.ID, &s.Position, &s.BookName, &s.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range slots {
		queue, err := r.ListQueue(slots[i].ID)
		if err != nil {
			return nil, err
		}
		slots[i].Queue = queue
	}
	return slots, nil
}

// GetSlot returns one of a student's slots with its queue, or nil
func (r *CurriculumRepository) GetSlot(studentID int64, slotID string) (*models.Slot, error) {
	query := `
		SELECT id, position, book_name, created_at
		FROM curriculum_slots
		WHERE id = ? AND student_id = ?
	`
	s := &models.Slot{}
	err := r.db.QueryRow(query, slotID, studentID).Scan(&s.ID, &s.Position, &s.BookName, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}

	if s.Queue, err = r.ListQueue(s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// InsertSlot appends a slot at the end of the student's active books
func (r *CurriculumRepository) InsertSlot(studentID int64, slotID, book string) (*models.Slot, error) {
	var next int
	err := r.db.QueryRow("SELECT COALESCE(MAX(position) + 1, 0) FROM curriculum_slots WHERE student_id = ?", studentID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot position: %w", err)
	}

	now := time.Now().UTC()
	query := "INSERT INTO curriculum_slots (id, student_id, position, book_name, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.Exec(query, slotID, studentID, next, book, now); err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}

	return &models.Slot{ID: slotID, Position: next, BookName: book, CreatedAt: now}, nil
}

// DeleteSlot removes a slot and its queue, then compacts the remaining positions
func (r *CurriculumRepository) DeleteSlot(studentID int64, slotID string) error {
	if _, err := r.db.Exec("DELETE FROM curriculum_queue_entries WHERE slot_id = ?", slotID); err != nil {
		return fmt.Errorf("failed to delete queue: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM curriculum_slots WHERE id = ? AND student_id = ?", slotID, studentID); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	slots, err := r.ListSlots(studentID)
	if err != nil {
		return err
	}
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return r.SetSlotOrder(studentID, ids)
}

// SetSlotOrder renumbers slots so ids[i] sits at position i
func (r *CurriculumRepository) SetSlotOrder(studentID int64, ids []string) error {
	query := "UPDATE curriculum_slots SET position = ? WHERE id = ? AND student_id = ?"
	for i, id := range ids {
		if _, err := r.db.Exec(query, i, id, studentID); err != nil {
			return fmt.Errorf("failed to reorder slot: %w", err)
		}
	}
	return nil
}

// SetSlotBook points a slot at a different book
func (r *CurriculumRepository) SetSlotBook(slotID, book string) error {
	if _, err := r.db.Exec("UPDATE curriculum_slots SET book_name = ? WHERE id = ?", book, slotID); err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	return nil
}

// ListQueue returns the books waiting behind a slot in order
func (r *CurriculumRepository) ListQueue(slotID string) ([]models.QueueEntry, error) {
	query := `
		SELECT book_name, test_mode, words_per_session
		FROM curriculum_queue_entries
		WHERE slot_id = ?
		ORDER BY position ASC
	`
	rows, err := r.db.Query(query, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	queue := []models.QueueEntry{}
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.BookName, &e.TestMode, &e.WordsPerSession); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		queue = append(queue, e)
	}
	return queue, rows.Err()
}

// ReplaceQueue overwrites a slot's queue with entries
func (r *CurriculumRepository) ReplaceQueue(slotID string, entries []models.QueueEntry) error {
	if _, err := r.db.Exec("DELETE FROM curriculum_queue_entries WHERE slot_id = ?", slotID); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	query := `
		INSERT INTO curriculum_queue_entries (slot_id, position, book_name, test_mode, words_per_session)
		VALUES (?, ?, ?, ?, ?)
	`
	for i, e := range entries {
		if _, err := r.db.Exec(query, slotID, i, e.BookName, string(e.TestMode), e.WordsPerSession); err != nil {
			return fmt.Errorf("failed to insert queue entry: %w", err)
		}
	}
	return nil
}

// UpsertBookSettings stores the settings a student uses for one book
func (r *CurriculumRepository) UpsertBookSettings(studentID int64, book string, s models.BookSettings) error {
	exists, err := r.exists("SELECT COUNT(*) FROM book_settings WHERE student_id = ? AND book_name = ?", studentID, book)
	if err != nil {
		return err
	}

	if exists {
		_, err = r.db.Exec(
			"UPDATE book_settings SET test_mode = ?, words_per_session = ? WHERE student_id = ? AND book_name = ?",
			string(s.TestMode), s.WordsPerSession, studentID, book,
		)
	} else {
		_, err = r.db.Exec(
			"INSERT INTO book_settings (student_id, book_name, test_mode, words_per_session) VALUES (?, ?, ?, ?)",
			studentID, book, string(s.TestMode), s.WordsPerSession,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to save book settings: %w", err)
	}
	return nil
}

// GetProgress returns the last completed index for a book (0 if unstarted)
func (r *CurriculumRepository) GetProgress(studentID int64, book string) (int, error) {
	var index int
	query := "SELECT last_index FROM book_progress WHERE student_id = ? AND book_name = ?" + r.db.GetDialect().LockClause()
	err := r.db.QueryRow(query, studentID, book).Scan(&index)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get progress: %w", err)
	}
	return index, nil
}

// SetProgress stores the last completed index for a book
func (r *CurriculumRepository) SetProgress(studentID int64, book string, index int) error {
	exists, err := r.exists("SELECT COUNT(*) FROM book_progress WHERE student_id = ? AND book_name = ?", studentID, book)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if exists {
		_, err = r.db.Exec(
			"UPDATE book_progress SET last_index = ?, updated_at = ? WHERE student_id = ? AND book_name = ?",
			index, now, studentID, book,
		)
	} else {
		_, err = r.db.Exec(
			"INSERT INTO book_progress (student_id, book_name, last_index, updated_at) VALUES (?, ?, ?, ?)",
			studentID, book, index, now,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// SetStudyDays stores the weekdays on which the daily bonus can be earned
func (r *CurriculumRepository) SetStudyDays(studentID int64, days []time.Weekday) error {
	query := "UPDATE students SET study_days = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, FormatStudyDays(days), studentID); err != nil {
		return fmt.Errorf("failed to save study days: %w", err)
	}
	return nil
}

// SetWeekdayCounts stores per-weekday words-per-session overrides
func (r *CurriculumRepository) SetWeekdayCounts(studentID int64, counts map[time.Weekday]int) error {
	query := "UPDATE students SET weekday_counts = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, FormatWeekdayCounts(counts), studentID); err != nil {
		return fmt.Errorf("failed to save weekday counts: %w", err)
	}
	return nil
}

// SetWordsPerSession stores the student's default session length
func (r *CurriculumRepository) SetWordsPerSession(studentID int64, n int) error {
	query := "UPDATE students SET words_per_session = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, n, studentID); err != nil {
		return fmt.Errorf("failed to save words per session: %w", err)
	}
	return nil
}

func (r *CurriculumRepository) exists(query string, args ...interface{}) (bool, error) {
	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check row: %w", err)
	}
	return count > 0, nil
}

// FormatStudyDays encodes weekdays as "1,3,5"
func FormatStudyDays(days []time.Weekday) string {
	sorted := make([]int, 0, len(days))
	seen := make(map[time.Weekday]bool)
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			sorted = append(sorted, int(d))
		}
	}
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseStudyDays decodes "1,3,5", skipping anything that is not a weekday
func ParseStudyDays(s string) []time.Weekday {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days = append(days, time.Weekday(n))
	}
	return days
}

// FormatWeekdayCounts encodes counts as "1:10,3:20"
func FormatWeekdayCounts(counts map[time.Weekday]int) string {
	days := make([]int, 0, len(counts))
	for d, n := range counts {
		if n > 0 {
			days = append(days, int(d))
		}
	}
	sort.Ints(days)

	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d:%d", d, counts[time.Weekday(d)])
	}
	return strings.Join(parts, ",")
}

// ParseWeekdayCounts decodes "1:10,3:20"
func ParseWeekdayCounts(s string) map[time.Weekday]int {
	counts := make(map[time.Weekday]int)
	for _, part := range strings.Split(s, ",") {
		day, n, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		d, err := strconv.Atoi(day)
		if err != nil || d < 0 || d > 6 {
			continue
		}
		v, err := strconv.Atoi(n)
		if err != nil || v <= 0 {
			continue
		}
		counts[time.Weekday(d)] = v
	}
	return counts
}
