package models

import "time"

// AnswerDetail records how one word was answered in a finished session
type AnswerDetail struct {
	WordID   int64  `json:"word_id"`
	English  string `json:"english"`
	Korean   string `json:"korean"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
	Attempts int    `json:"attempts"`
	Review   bool   `json:"review"`
}

// TestResult is the persisted outcome of a completed session
type TestResult struct {
	ID            int64          `json:"id"`
	StudentID     int64          `json:"student_id"`
	BookName      string         `json:"book_name"`
	TestType      TestMode       `json:"test_type"`
	Range         WordRange      `json:"range"`
	Score         int            `json:"score"`
	CorrectCount  int            `json:"correct_count"`
	TotalCount    int            `json:"total_count"`
	Details       []AnswerDetail `json:"details"`
	ScheduledDate string         `json:"scheduled_date"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CompletionOutcome summarises everything a finalized session changed
type CompletionOutcome struct {
	Result        *TestResult   `json:"result"`
	PreviousIndex int           `json:"previous_index"`
	NewIndex      int           `json:"new_index"`
	BookCompleted bool          `json:"book_completed"`
	PromotedBook  string        `json:"promoted_book,omitempty"`
	Grants        []LedgerEntry `json:"grants"`
}
