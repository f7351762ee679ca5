package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var ErrUnknownGame = errors.New("unknown game")

// Scoring constants
const (
	SpeedQuizPoints     = 10
	SpeedQuizComboStep  = 2
	SpeedQuizComboMax   = 20
	MatchingPairPoints  = 100
	MatchingMovePenalty = 5
	FallingWordLives    = 3
	FallingWordPoints   = 10
	FallingWordPerLevel = 10
	FallingLevelBonus   = 50
)

// GameSubmission is what the client reports when a game ends. Only the
// fields of the played game are read.
type GameSubmission struct {
	// speed quiz: correctness of each answer in order
	Answers []bool `json:"answers,omitempty"`

	// matching
	Pairs          int `json:"pairs,omitempty"`
	Moves          int `json:"moves,omitempty"`
	ElapsedSeconds int `json:"elapsed_seconds,omitempty"`

	// falling word
	Hits   int `json:"hits,omitempty"`
	Misses int `json:"misses,omitempty"`
}

// SpeedQuizScore awards points per correct answer plus a combo bonus that
// grows with each consecutive correct answer. A wrong answer resets the combo.
func SpeedQuizScore(answers []bool) int {
	score, combo := 0, 0
	for _, correct := range answers {
		if !correct {
			combo = 0
			continue
		}
		combo++
		bonus := SpeedQuizComboStep * (combo - 1)
		if bonus > SpeedQuizComboMax {
			bonus = SpeedQuizComboMax
		}
		score += SpeedQuizPoints + bonus
	}
	return score
}

// MatchingScore rewards found pairs and penalises extra moves and time
func MatchingScore(pairs, moves, elapsedSeconds int) int {
	extraMoves := moves - pairs
	if extraMoves < 0 {
		extraMoves = 0
	}
	score := pairs*MatchingPairPoints - extraMoves*MatchingMovePenalty - elapsedSeconds
	if score < 0 {
		return 0
	}
	return score
}

// FallingWordLevel is the level reached after hits words. Fall speed rises
// with the level.
func FallingWordLevel(hits int) int {
	return 1 + hits/FallingWordPerLevel
}

// FallingWordDuration is how long a word takes to fall at level
func FallingWordDuration(level int) time.Duration {
	d := 6*time.Second - time.Duration(level-1)*500*time.Millisecond
	if d < 1500*time.Millisecond {
		return 1500 * time.Millisecond
	}
	return d
}

// FallingWordScore scores each hit by the level it was made at and adds a
// bonus for the final level reached
func FallingWordScore(hits int) int {
	score := 0
	for i := 0; i < hits; i++ {
		score += FallingWordPoints * FallingWordLevel(i)
	}
	return score + FallingLevelBonus*(FallingWordLevel(hits)-1)
}

// ScoreGame validates a submission and returns its score
func ScoreGame(kind models.GameKind, sub GameSubmission) (int, error) {
	switch kind {
	case models.GameSpeedQuiz:
		if len(sub.Answers) == 0 {
			return 0, validation.ValidationError{Field: "answers", Message: "at least one answer is required"}
		}
		return SpeedQuizScore(sub.Answers), nil
	case models.GameMatching:
		if sub.Pairs < 1 || sub.Moves < sub.Pairs || sub.ElapsedSeconds < 0 {
			return 0, validation.ValidationError{Field: "moves", Message: "moves must be at least the number of pairs"}
		}
		return MatchingScore(sub.Pairs, sub.Moves, sub.ElapsedSeconds), nil
	case models.GameFallingWord:
		if sub.Hits < 0 || sub.Misses < 0 || sub.Misses > FallingWordLives {
			return 0, validation.ValidationError{Field: "misses", Message: fmt.Sprintf("misses must be between 0 and %d", FallingWordLives)}
		}
		return FallingWordScore(sub.Hits), nil
	}
	return 0, ErrUnknownGame
}

// GameService records mini-game results and pays high-score rewards
type GameService struct {
	db       *database.DB
	gameRepo *repository.GameRepository
	rewards  *RewardService
	now      func() time.Time
}

// NewGameService creates a new game service
func NewGameService(db *database.DB, gameRepo *repository.GameRepository, rewards *RewardService) *GameService {
	return &GameService{db: db, gameRepo: gameRepo, rewards: rewards, now: time.Now}
}

// RecordResult stores a finished game and, for a high score, pays the game
// reward within today's cap. Games never touch curriculum progress.
func (s *GameService) RecordResult(ctx context.Context, studentID int64, kind models.GameKind, sub GameSubmission) (*models.GameOutcome, error) {
	if !kind.Valid() {
		return nil, ErrUnknownGame
	}
	score, err := ScoreGame(kind, sub)
	if err != nil {
		return nil, err
	}

	details, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode game details: %w", err)
	}

	policy, err := s.rewards.Policy(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	outcome := &models.GameOutcome{
		Score: &models.GameScore{
			StudentID: studentID,
			GameKind:  kind,
			Score:     score,
			Details:   string(details),
			CreatedAt: now.UTC(),
		},
	}

	err = s.db.WithTx(func(tx *database.Tx) error {
		if err := s.gameRepo.WithTx(tx).CreateScore(outcome.Score); err != nil {
			return err
		}

		rewardRepo := s.rewards.rewardRepo.WithTx(tx)
		if score >= policy.GameHighScoreThreshold {
			reason := fmt.Sprintf("High score in %s: %d", kind, score)
			entry, err := s.rewards.grantCappedWith(rewardRepo, studentID, policy, reason, now)
			if err != nil {
				return err
			}
			outcome.Granted = entry
		}

		balance, err := rewardRepo.GetBalance(studentID)
		if err != nil {
			return err
		}
		outcome.Balance = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// Leaderboard returns the best score per student for a game
func (s *GameService) Leaderboard(kind models.GameKind, limit int) ([]models.LeaderboardEntry, error) {
	if !kind.Valid() {
		return nil, ErrUnknownGame
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := s.gameRepo.Leaderboard(kind, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}
