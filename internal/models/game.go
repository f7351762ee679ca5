package models

import "time"

// GameKind identifies a mini-game
type GameKind string

const (
	GameSpeedQuiz   GameKind = "speed_quiz"
	GameMatching    GameKind = "matching"
	GameFallingWord GameKind = "falling_word"
)

// Valid reports whether k is a known game
func (k GameKind) Valid() bool {
	switch k {
	case GameSpeedQuiz, GameMatching, GameFallingWord:
		return true
	}
	return false
}

// GameScore is one finished game
type GameScore struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	GameKind  GameKind  `json:"game_kind"`
	Score     int       `json:"score"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry is a student's best score for a game
type LeaderboardEntry struct {
	StudentID   int64  `json:"student_id"`
	DisplayName string `json:"display_name"`
	BestScore   int    `json:"best_score"`
	Plays       int    `json:"plays"`
}

// GameOutcome is returned after a game result is recorded
type GameOutcome struct {
	Score   *GameScore   `json:"score"`
	Granted *LedgerEntry `json:"granted,omitempty"`
	Balance int64        `json:"balance"`
}
