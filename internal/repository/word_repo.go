package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// WordRepository handles database operations for the word bank
type WordRepository struct {
	db database.Querier
}

// NewWordRepository creates a new word repository
func NewWordRepository(db database.Querier) *WordRepository {
	return &WordRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *WordRepository) WithTx(tx *database.Tx) *WordRepository {
	return &WordRepository{db: tx}
}

const wordColumns = `id, book_name, unit_name, position, english, korean, example_sentence,
	sentence_meaning, difficulty, created_at, updated_at`

// CreateWord inserts a word at its position within a book
func (r *WordRepository) CreateWord(w *models.Word) (*models.Word, error) {
	query := `
		INSERT INTO words (book_name, unit_name, position, english, korean, example_sentence, sentence_meaning, difficulty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		w.BookName, w.UnitName, w.Position, w.English, w.Korean,
		w.ExampleSentence, w.SentenceMeaning, w.Difficulty,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create word: %w", err)
	}

	created := *w
	created.ID = id
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

// GetWordByID retrieves a word by ID
func (r *WordRepository) GetWordByID(id int64) (*models.Word, error) {
	query := "SELECT " + wordColumns + " FROM words WHERE id = ?"
	word, err := scanWord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return word, err
}

// UpdateWord updates a word's content. The book and position stay fixed.
func (r *WordRepository) UpdateWord(w *models.Word) error {
	query := `
		UPDATE words
		SET unit_name = ?, english = ?, korean = ?, example_sentence = ?,
			sentence_meaning = ?, difficulty = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		w.UnitName, w.English, w.Korean, w.ExampleSentence,
		w.SentenceMeaning, w.Difficulty, w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	return nil
}

// DeleteWord removes a word
func (r *WordRepository) DeleteWord(id int64) error {
	if _, err := r.db.Exec("DELETE FROM words WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return nil
}

// CloseGap moves every word after position one place down. Positions are
// negated first so the (book, position) unique key holds on every row update.
func (r *WordRepository) CloseGap(book string, position int) error {
	if _, err := r.db.Exec("UPDATE words SET position = -position WHERE book_name = ? AND position > ?", book, position); err != nil {
		return fmt.Errorf("failed to shift words: %w", err)
	}
	if _, err := r.db.Exec("UPDATE words SET position = -position - 1 WHERE book_name = ? AND position < 0", book); err != nil {
		return fmt.Errorf("failed to shift words: %w", err)
	}
	return nil
}

// GetWordsInRange returns the words of book with start <= position <= end
func (r *WordRepository) GetWordsInRange(book string, start, end int) ([]models.Word, error) {
	if end < start {
		return nil, nil
	}
	query := "SELECT " + wordColumns + `
		FROM words
		WHERE book_name = ? AND position >= ? AND position <= ?
		ORDER BY position ASC
	`
	return r.queryWords(query, book, start, end)
}

// ListBookWords returns every word in a book in position order
func (r *WordRepository) ListBookWords(book string) ([]models.Word, error) {
	query := "SELECT " + wordColumns + " FROM words WHERE book_name = ? ORDER BY position ASC"
	return r.queryWords(query, book)
}

// ListAllWords returns the whole word bank
func (r *WordRepository) ListAllWords() ([]models.Word, error) {
	query := "SELECT " + wordColumns + " FROM words ORDER BY book_name ASC, position ASC"
	return r.queryWords(query)
}

// CountBookWords returns the number of words in a book
func (r *WordRepository) CountBookWords(book string) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM words WHERE book_name = ?", book).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return count, nil
}

// NextPosition returns the position after the last word of a book
func (r *WordRepository) NextPosition(book string) (int, error) {
	var last int
	if err := r.db.QueryRow("SELECT COALESCE(MAX(position), 0) FROM words WHERE book_name = ?", book).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read last position: %w", err)
	}
	return last + 1, nil
}

// ListBooks returns one summary per distinct book name
func (r *WordRepository) ListBooks() ([]models.BookSummary, error) {
	query := `
		SELECT book_name, COUNT(*), COUNT(DISTINCT unit_name)
		FROM words
		GROUP BY book_name
		ORDER BY book_name ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []models.BookSummary
	for rows.Next() {
		var b models.BookSummary
		if err := rows.Scan(&b.Name, &b.WordCount, &b.Units); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	return books, rows.Err()
}

func (r *WordRepository) queryWords(query string, args ...interface{}) ([]models.Word, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	var words []models.Word
	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		words = append(words, *word)
	}

	return words, rows.Err()
}

func scanWord(row rowScanner) (*models.Word, error) {
	w := &models.Word{}
	err := row.Scan(
		&w.ID,
		&w.BookName,
		&w.UnitName,
		&w.Position,
		&w.English,
		&w.Korean,
		&w.ExampleSentence,
		&w.SentenceMeaning,
		&w.Difficulty,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan word: %w", err)
	}
	return w, nil
}
