package service

import (
	"errors"
	"fmt"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var (
	ErrWordNotFound  = errors.New("word not found")
	ErrPositionTaken = errors.New("position already used in this book")
)

// WordService manages the word bank
type WordService struct {
	db       *database.DB
	wordRepo *repository.WordRepository
}

// NewWordService creates a new word service
func NewWordService(db *database.DB, wordRepo *repository.WordRepository) *WordService {
	return &WordService{db: db, wordRepo: wordRepo}
}

// CreateWord adds a word. A zero position appends it to the end of its book.
func (s *WordService) CreateWord(w models.Word) (*models.Word, error) {
	if err := cleanWord(&w); err != nil {
		return nil, err
	}

	var created *models.Word
	err := s.db.WithTx(func(tx *database.Tx) error {
		repo := s.wordRepo.WithTx(tx)
		next, err := repo.NextPosition(w.BookName)
		if err != nil {
			return err
		}
		switch {
		case w.Position == 0:
			w.Position = next
		case w.Position < 0:
			return validation.ValidationError{Field: "position", Message: "position must be positive"}
		case w.Position < next:
			return ErrPositionTaken
		case w.Position > next:
			return validation.ValidationError{Field: "position", Message: fmt.Sprintf("next free position is %d", next)}
		}
		created, err = repo.CreateWord(&w)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetWord returns a word or ErrWordNotFound
func (s *WordService) GetWord(id int64) (*models.Word, error) {
	word, err := s.wordRepo.GetWordByID(id)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, ErrWordNotFound
	}
	return word, nil
}

// UpdateWord replaces a word's content; book and position cannot change
func (s *WordService) UpdateWord(id int64, w models.Word) (*models.Word, error) {
	existing, err := s.GetWord(id)
	if err != nil {
		return nil, err
	}
	w.ID = id
	w.BookName = existing.BookName
	w.Position = existing.Position
	if err := cleanWord(&w); err != nil {
		return nil, err
	}
	if err := s.wordRepo.UpdateWord(&w); err != nil {
		return nil, err
	}
	return s.GetWord(id)
}

// DeleteWord removes a word and closes the gap so positions stay 1..n
func (s *WordService) DeleteWord(id int64) error {
	word, err := s.GetWord(id)
	if err != nil {
		return err
	}
	return s.db.WithTx(func(tx *database.Tx) error {
		repo := s.wordRepo.WithTx(tx)
		if err := repo.DeleteWord(id); err != nil {
			return err
		}
		return repo.CloseGap(word.BookName, word.Position)
	})
}

// ListBookWords returns a book in position order
func (s *WordService) ListBookWords(book string) ([]models.Word, error) {
	words, err := s.wordRepo.ListBookWords(book)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrBookNotFound
	}
	return words, nil
}

// ListBooks returns every book with its word and unit counts
func (s *WordService) ListBooks() ([]models.BookSummary, error) {
	books, err := s.wordRepo.ListBooks()
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []models.BookSummary{}
	}
	return books, nil
}

func cleanWord(w *models.Word) error {
	w.BookName = validation.SanitizeText(w.BookName)
	w.UnitName = validation.SanitizeText(w.UnitName)
	w.English = validation.SanitizeText(w.English)
	w.Korean = validation.SanitizeText(w.Korean)
	w.ExampleSentence = validation.SanitizeText(w.ExampleSentence)
	w.SentenceMeaning = validation.SanitizeText(w.SentenceMeaning)

	if err := validation.ValidateRequired("book_name", w.BookName); err != nil {
		return err
	}
	if err := validation.ValidateRequired("english", w.English); err != nil {
		return err
	}
	if err := validation.ValidateRequired("korean", w.Korean); err != nil {
		return err
	}
	// Answers are graded on normalized text, so each answer field needs at
	// least one letter, digit or Hangul syllable.
	for _, f := range []struct{ field, value string }{
		{"english", w.English},
		{"korean", w.Korean},
		{"example_sentence", w.ExampleSentence},
	} {
		if f.value != "" && quiz.Normalize(f.value) == "" {
			return validation.ValidationError{Field: f.field, Message: "must contain a letter, digit or Hangul syllable"}
		}
	}
	if w.Difficulty < 0 || w.Difficulty > 5 {
		return validation.ValidationError{Field: "difficulty", Message: "difficulty must be between 0 and 5"}
	}
	return nil
}
