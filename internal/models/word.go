package models

import "time"

// Word is a single vocabulary item. Position is its 1-based ordinal in the book.
type Word struct {
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

// Sentence returns the example sentence, falling back to the term itself
// for words imported without one.
func (w Word) Sentence() string {
	if w.ExampleSentence != "" {
		return w.ExampleSentence
	}
	return w.English
}

// BookSummary describes an implicit book derived from its words
type BookSummary struct {
	Name      string `json:"name"`
	WordCount int    `json:"word_count"`
	Units     int    `json:"units"`
}

// WordRange is an inclusive range of word positions within a book
type WordRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range selects no words
func (r WordRange) Empty() bool {
	return r.End < r.Start
}

// Len returns the number of positions in the range
func (r WordRange) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}
