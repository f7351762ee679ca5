package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrSlotNotFound    = errors.New("curriculum slot not found")
	ErrBookNotFound    = errors.New("book has no words")
	ErrBookNotActive   = errors.New("book is not in the curriculum")
	ErrQueueEntry      = errors.New("queue entry not found")
	ErrNothingToStudy  = errors.New("nothing to study")
)

// SessionRange is the new-word range of a session and the trailing review window
type SessionRange struct {
	New    models.WordRange `json:"new"`
	Review models.WordRange `json:"review"`
	Length int              `json:"length"`
}

// SessionLength picks the words-per-session for book: the book's own setting,
// then the weekday count, then the student default, then the global default
func SessionLength(store *models.CurriculumStore, book string, weekday time.Weekday) int {
	if n := store.BookSettings[book].WordsPerSession; n > 0 {
		return n
	}
	if n := store.WeekdayCounts[weekday]; n > 0 {
		return n
	}
	if store.WordsPerSession > 0 {
		return store.WordsPerSession
	}
	return models.DefaultWordsPerSession
}

// CalculateRange computes the next session's ranges for book. An override is
// used verbatim as the new range and the review window trails its start.
func CalculateRange(store *models.CurriculumStore, book string, weekday time.Weekday, override *models.WordRange) SessionRange {
	var r SessionRange
	if override != nil {
		r.New = *override
		r.Length = override.Len()
	} else {
		r.Length = SessionLength(store, book, weekday)
		start := store.Progress(book) + 1
		r.New = models.WordRange{Start: start, End: start + r.Length - 1}
	}

	reviewStart := r.New.Start - 2*r.Length
	if reviewStart < 1 {
		reviewStart = 1
	}
	r.Review = models.WordRange{Start: reviewStart, End: r.New.Start - 1}
	return r
}

// ApplyProgress returns the progress after finishing [start, end]. A session
// that starts beyond stored+1 leaves a gap and does not count; progress never
// moves backwards.
func ApplyProgress(stored, start, end int) int {
	if start > stored+1 {
		return stored
	}
	if end > stored {
		return end
	}
	return stored
}

// PreparedSession is everything needed to start a test
type PreparedSession struct {
	StudentID     int64           `json:"student_id"`
	BookName      string          `json:"book_name"`
	Mode          models.TestMode `json:"mode"`
	Range         SessionRange    `json:"range"`
	NewWords      []models.Word   `json:"new_words"`
	ReviewWords   []models.Word   `json:"review_words"`
	ScheduledDate string          `json:"scheduled_date"`
}

// CurriculumService handles curriculum reads and field-scoped admin edits
type CurriculumService struct {
	db             *database.DB
	curriculumRepo *repository.CurriculumRepository
	wordRepo       *repository.WordRepository
	loc            *time.Location
	now            func() time.Time
}

// NewCurriculumService creates a new curriculum service
func NewCurriculumService(db *database.DB, curriculumRepo *repository.CurriculumRepository, wordRepo *repository.WordRepository, loc *time.Location) *CurriculumService {
	if loc == nil {
		loc = time.Local
	}
	return &CurriculumService{
		db:             db,
		curriculumRepo: curriculumRepo,
		wordRepo:       wordRepo,
		loc:            loc,
		now:            time.Now,
	}
}

// GetCurriculum returns a student's full curriculum
func (s *CurriculumService) GetCurriculum(studentID int64) (*models.CurriculumStore, error) {
	store, err := s.curriculumRepo.LoadStore(studentID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrStudentNotFound
	}
	return store, nil
}

// PrepareSession computes today's ranges for book and loads their words.
// An empty book name selects the first active book.
func (s *CurriculumService) PrepareSession(studentID int64, book string, override *models.WordRange) (*PreparedSession, error) {
	store, err := s.GetCurriculum(studentID)
	if err != nil {
		return nil, err
	}

	active := store.ActiveBooks()
	if book == "" {
		if len(active) == 0 {
			return nil, ErrNothingToStudy
		}
		book = active[0]
	}
	if _, ok := store.SlotForBook(book); !ok {
		return nil, ErrBookNotActive
	}

	if override != nil {
		if override.Start < 1 || override.End < override.Start {
			return nil, validation.ValidationError{Field: "range", Message: "range must satisfy 1 <= start <= end"}
		}
	}

	now := s.now().In(s.loc)
	r := CalculateRange(store, book, now.Weekday(), override)

	newWords, err := s.wordRepo.GetWordsInRange(book, r.New.Start, r.New.End)
	if err != nil {
		return nil, err
	}
	reviewWords, err := s.wordRepo.GetWordsInRange(book, r.Review.Start, r.Review.End)
	if err != nil {
		return nil, err
	}
	reviewWords = excludeWords(reviewWords, newWords)

	if len(newWords) == 0 && len(reviewWords) == 0 {
		return nil, ErrNothingToStudy
	}

	return &PreparedSession{
		StudentID:     studentID,
		BookName:      book,
		Mode:          store.SettingsFor(book).TestMode,
		Range:         r,
		NewWords:      newWords,
		ReviewWords:   reviewWords,
		ScheduledDate: now.Format(DayKeyLayout),
	}, nil
}

// excludeWords drops words whose id appears in seen
func excludeWords(words, seen []models.Word) []models.Word {
	ids := make(map[int64]bool, len(seen))
	for _, w := range seen {
		ids[w.ID] = true
	}
	kept := words[:0:0]
	for _, w := range words {
		if !ids[w.ID] {
			kept = append(kept, w)
		}
	}
	return kept
}

// AddSlot appends a book to the student's active books
func (s *CurriculumService) AddSlot(studentID int64, book string, settings *models.BookSettings) (*models.Slot, error) {
	if err := s.requireBook(book); err != nil {
		return nil, err
	}
	if settings != nil {
		if err := validateSettings(*settings); err != nil {
			return nil, err
		}
	}
	store, err := s.GetCurriculum(studentID)
	if err != nil {
		return nil, err
	}
	if err := checkNotScheduled(store, book); err != nil {
		return nil, err
	}

	var slot *models.Slot
	err = s.db.WithTx(func(tx *database.Tx) error {
		repo := s.curriculumRepo.WithTx(tx)
		var err error
		if slot, err = repo.InsertSlot(studentID, uuid.NewString(), book); err != nil {
			return err
		}
		if settings != nil {
			return repo.UpsertBookSettings(studentID, book, *settings)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slot.Queue = []models.QueueEntry{}
	return slot, nil
}

// RemoveSlot removes a slot and its queue
func (s *CurriculumService) RemoveSlot(studentID int64, slotID string) error {
	return s.db.WithTx(func(tx *database.Tx) error {
		repo := s.curriculumRepo.WithTx(tx)
		slot, err := repo.GetSlot(studentID, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrSlotNotFound
		}
		return repo.DeleteSlot(studentID, slotID)
	})
}

// MoveSlot moves a slot to newPosition, shifting the others
func (s *CurriculumService) MoveSlot(studentID int64, slotID string, newPosition int) error {
	return s.db.WithTx(func(tx *database.Tx) error {
		repo := s.curriculumRepo.WithTx(tx)
		slots, err := repo.ListSlots(studentID)
		if err != nil {
			return err
		}

		var ids []string
		found := false
		for _, slot := range slots {
			if slot.ID == slotID {
				found = true
				continue
			}
			ids = append(ids, slot.ID)
		}
		if !found {
			return ErrSlotNotFound
		}

		if newPosition < 0 {
			newPosition = 0
		}
		if newPosition > len(ids) {
			newPosition = len(ids)
		}
		ids = append(ids[:newPosition], append([]string{slotID}, ids[newPosition:]...)...)
		return repo.SetSlotOrder(studentID, ids)
	})
}

// checkNotScheduled rejects a book that is already active or queued
func checkNotScheduled(store *models.CurriculumStore, book string) error {
	if _, ok := store.SlotForBook(book); ok {
		return validation.ValidationError{Field: "book_name", Message: "book is already active"}
	}
	if _, ok := store.QueuedIn(book); ok {
		return validation.ValidationError{Field: "book_name", Message: "book is already queued"}
	}
	return nil
}

// EnqueueBook adds a book to the end of a slot's queue
func (s *CurriculumService) EnqueueBook(studentID int64, slotID string, entry models.QueueEntry) (*models.Slot, error) {
	if err := s.requireBook(entry.BookName); err != nil {
		return nil, err
	}
	if err := validateSettings(entry.Settings()); err != nil {
		return nil, err
	}
	store, err := s.GetCurriculum(studentID)
	if err != nil {
		return nil, err
	}
	if err := checkNotScheduled(store, entry.BookName); err != nil {
		return nil, err
	}

	return s.editQueue(studentID, slotID, func(queue []models.QueueEntry) ([]models.QueueEntry, error) {
		return append(queue, entry), nil
	})
}

// RemoveQueueEntry drops the queue entry at index
func (s *CurriculumService) RemoveQueueEntry(studentID int64, slotID string, index int) (*models.Slot, error) {
	return s.editQueue(studentID, slotID, func(queue []models.QueueEntry) ([]models.QueueEntry, error) {
		if index < 0 || index >= len(queue) {
			return nil, ErrQueueEntry
		}
		return append(queue[:index:index], queue[index+1:]...), nil
	})
}

func (s *CurriculumService) editQueue(studentID int64, slotID string, edit func([]models.QueueEntry) ([]models.QueueEntry, error)) (*models.Slot, error) {
	var slot *models.Slot
	err := s.db.WithTx(func(tx *database.Tx) error {
		repo := s.curriculumRepo.WithTx(tx)
		var err error
		if slot, err = repo.GetSlot(studentID, slotID); err != nil {
			return err
		}
		if slot == nil {
			return ErrSlotNotFound
		}

		queue, err := edit(slot.Queue)
		if err != nil {
			return err
		}
		slot.Queue = queue
		return repo.ReplaceQueue(slotID, queue)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// SetBookSettings stores a student's settings for one book
func (s *CurriculumService) SetBookSettings(studentID int64, book string, settings models.BookSettings) error {
	if err := validation.ValidateRequired("book_name", book); err != nil {
		return err
	}
	if err := validateSettings(settings); err != nil {
		return err
	}
	if _, err := s.GetCurriculum(studentID); err != nil {
		return err
	}
	return s.curriculumRepo.UpsertBookSettings(studentID, book, settings)
}

// SetStudyDays stores the weekdays (0 = Sunday) the student studies on
func (s *CurriculumService) SetStudyDays(studentID int64, days []int) error {
	weekdays := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if err := validation.ValidateWeekday(d); err != nil {
			return err
		}
		weekdays = append(weekdays, time.Weekday(d))
	}
	if _, err := s.GetCurriculum(studentID); err != nil {
		return err
	}
	return s.curriculumRepo.SetStudyDays(studentID, weekdays)
}

// SetWeekdayCounts stores per-weekday session lengths. A zero count clears
// the override for that day.
func (s *CurriculumService) SetWeekdayCounts(studentID int64, counts map[int]int) error {
	weekdayCounts := make(map[time.Weekday]int, len(counts))
	for d, n := range counts {
		if err := validation.ValidateWeekday(d); err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if err := validation.ValidateWordsPerSession(n); err != nil {
			return err
		}
		weekdayCounts[time.Weekday(d)] = n
	}
	if _, err := s.GetCurriculum(studentID); err != nil {
		return err
	}
	return s.curriculumRepo.SetWeekdayCounts(studentID, weekdayCounts)
}

// SetDefaultWordsPerSession stores the student's default session length
func (s *CurriculumService) SetDefaultWordsPerSession(studentID int64, n int) error {
	if err := validation.ValidateWordsPerSession(n); err != nil {
		return err
	}
	if _, err := s.GetCurriculum(studentID); err != nil {
		return err
	}
	return s.curriculumRepo.SetWordsPerSession(studentID, n)
}

// SetProgress overwrites a book's progress. Unlike test completion this may
// move progress backwards.
func (s *CurriculumService) SetProgress(studentID int64, book string, index int) error {
	count, err := s.wordRepo.CountBookWords(book)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrBookNotFound
	}
	if index < 0 || index > count {
		return validation.ValidationError{Field: "last_index", Message: fmt.Sprintf("must be between 0 and %d", count)}
	}
	if _, err := s.GetCurriculum(studentID); err != nil {
		return err
	}

	return s.db.WithTx(func(tx *database.Tx) error {
		repo := s.curriculumRepo.WithTx(tx)
		if err := repo.SetProgress(studentID, book, index); err != nil {
			return err
		}
		if index < count {
			return nil
		}
		// A finished book leaves its slot now rather than on the next session
		_, promoted, err := s.completeBookWith(repo, studentID, book)
		if err != nil {
			return err
		}
		if promoted != "" {
			log.Printf("Book %q finished by progress edit for student %d, promoted %q", book, studentID, promoted)
		}
		return nil
	})
}

// completeBookWith replaces the slot holding a finished book with the first
// queued book, or removes the slot when nothing is queued. It reports whether
// a slot held the book and returns the promoted book name, if any.
func (s *CurriculumService) completeBookWith(repo *repository.CurriculumRepository, studentID int64, book string) (bool, string, error) {
	slots, err := repo.ListSlots(studentID)
	if err != nil {
		return false, "", err
	}

	for _, slot := range slots {
		if slot.BookName != book {
			continue
		}

		if len(slot.Queue) == 0 {
			return true, "", repo.DeleteSlot(studentID, slot.ID)
		}

		next := slot.Queue[0]
		if err := repo.SetSlotBook(slot.ID, next.BookName); err != nil {
			return true, "", err
		}
		if err := repo.UpsertBookSettings(studentID, next.BookName, next.Settings()); err != nil {
			return true, "", err
		}
		if err := repo.ReplaceQueue(slot.ID, slot.Queue[1:]); err != nil {
			return true, "", err
		}
		return true, next.BookName, nil
	}
	return false, "", nil
}

func (s *CurriculumService) requireBook(book string) error {
	if err := validation.ValidateRequired("book_name", book); err != nil {
		return err
	}
	count, err := s.wordRepo.CountBookWords(book)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrBookNotFound
	}
	return nil
}

func validateSettings(settings models.BookSettings) error {
	if settings.TestMode != "" && !settings.TestMode.Valid() {
		return validation.ValidationError{Field: "test_mode", Message: "unknown test mode"}
	}
	if settings.WordsPerSession != 0 {
		return validation.ValidateWordsPerSession(settings.WordsPerSession)
	}
	return nil
}
