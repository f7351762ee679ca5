package models

import (
	"sort"
	"time"
)

// TestMode selects how new words are presented in a session
type TestMode string

const (
	ModeWordTyping    TestMode = "word_typing"
	ModeSentenceClick TestMode = "sentence_click"
	ModeSentenceType  TestMode = "sentence_type"
)

// Valid reports whether m is a known presentation mode
func (m TestMode) Valid() bool {
	switch m {
	case ModeWordTyping, ModeSentenceClick, ModeSentenceType:
		return true
	}
	return false
}

// DefaultWordsPerSession applies when neither the book, the weekday nor the
// student carries a usable count
const DefaultWordsPerSession = 10

// BookSettings overrides how one book is studied
type BookSettings struct {
	TestMode        TestMode `json:"test_mode"`
	WordsPerSession int      `json:"words_per_session"`
}

// QueueEntry is a book waiting to replace a slot once its current book is done
type QueueEntry struct {
	BookName        string   `json:"book_name"`
	TestMode        TestMode `json:"test_mode"`
	WordsPerSession int      `json:"words_per_session"`
}

// Settings returns the entry's settings in BookSettings form
func (e QueueEntry) Settings() BookSettings {
	return BookSettings{TestMode: e.TestMode, WordsPerSession: e.WordsPerSession}
}

// Slot is one active book position. ID is stable for the slot's lifetime so
// queues keyed by it survive removal of other slots.
type Slot struct {
	ID        string       `json:"id"`
	Position  int          `json:"position"`
	BookName  string       `json:"book_name"`
	Queue     []QueueEntry `json:"queue"`
	CreatedAt time.Time    `json:"created_at"`
}

// CurriculumStore is a student's full study plan
type CurriculumStore struct {
	StudentID       int64                   `json:"student_id"`
	Slots           []Slot                  `json:"slots"`
	BookSettings    map[string]BookSettings `json:"book_settings"`
	BookProgress    map[string]int          `json:"book_progress"`
	StudyDays       []time.Weekday          `json:"study_days"`
	WeekdayCounts   map[time.Weekday]int    `json:"weekday_counts"`
	WordsPerSession int                     `json:"words_per_session"`
}

// ActiveBooks returns the slot book names in position order
func (c *CurriculumStore) ActiveBooks() []string {
	slots := make([]Slot, len(c.Slots))
	copy(slots, c.Slots)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Position < slots[j].Position })

	books := make([]string, len(slots))
	for i, s := range slots {
		books[i] = s.BookName
	}
	return books
}

// SlotForBook returns the slot currently studying book, if any
func (c *CurriculumStore) SlotForBook(book string) (*Slot, bool) {
	for i := range c.Slots {
		if c.Slots[i].BookName == book {
			return &c.Slots[i], true
		}
	}
	return nil, false
}

// QueuedIn returns the slot whose queue holds the book
func (c *CurriculumStore) QueuedIn(book string) (*Slot, bool) {
	for i := range c.Slots {
		for _, entry := range c.Slots[i].Queue {
			if entry.BookName == book {
				return &c.Slots[i], true
			}
		}
	}
	return nil, false
}

// Progress returns the last completed word index for book (0 if unstarted)
func (c *CurriculumStore) Progress(book string) int {
	return c.BookProgress[book]
}

// IsStudyDay reports whether day is in the student's study days
func (c *CurriculumStore) IsStudyDay(day time.Weekday) bool {
	for _, d := range c.StudyDays {
		if d == day {
			return true
		}
	}
	return false
}

// SettingsFor returns the book's settings, defaulting the mode to word typing
func (c *CurriculumStore) SettingsFor(book string) BookSettings {
	s := c.BookSettings[book]
	if !s.TestMode.Valid() {
		s.TestMode = ModeWordTyping
	}
	return s
}
