package models

import "time"

// RewardCategory tags a ledger entry for reporting and cap accounting
type RewardCategory string

const (
	CategoryStudy       RewardCategory = "study"
	CategoryAchievement RewardCategory = "achievement"
	CategoryGameReward  RewardCategory = "game_reward"
)

// Valid reports whether c is a known category
func (c RewardCategory) Valid() bool {
	switch c {
	case CategoryStudy, CategoryAchievement, CategoryGameReward:
		return true
	}
	return false
}

// RewardKind identifies the rule that produced a grant. Idempotence checks
// query on kind and day key instead of matching reason text.
type RewardKind string

const (
	KindDailyCompletion      RewardKind = "daily_completion"
	KindCurriculumCompletion RewardKind = "curriculum_completion"
	KindGameHighScore        RewardKind = "game_high_score"
	KindManual               RewardKind = "manual"
)

// LedgerEntry is an immutable record of one currency grant. Amounts are in
// minor units so replaying the ledger reproduces balances exactly.
type LedgerEntry struct {
	ID           int64          `json:"id"`
	StudentID    int64          `json:"student_id"`
	Amount       int64          `json:"amount"`
	Reason       string         `json:"reason"`
	Category     RewardCategory `json:"category"`
	Kind         RewardKind     `json:"kind"`
	DayKey       string         `json:"day_key"`
	BalanceAfter int64          `json:"balance_after"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RewardPolicy is the global rule table for grants
type RewardPolicy struct {
	DailyCompletionAmount      int64 `json:"daily_completion_amount"`
	CurriculumCompletionAmount int64 `json:"curriculum_completion_amount"`
	GameHighScoreAmount        int64 `json:"game_high_score_amount"`
	GameHighScoreThreshold     int   `json:"game_high_score_threshold"`
	DailyGameCap               int64 `json:"daily_game_cap"`
}

// DefaultRewardPolicy is used for any setting not yet stored
func DefaultRewardPolicy() RewardPolicy {
	return RewardPolicy{
		DailyCompletionAmount:      50,
		CurriculumCompletionAmount: 500,
		GameHighScoreAmount:        10,
		GameHighScoreThreshold:     80,
		DailyGameCap:               50,
	}
}

// RewardSummary is a student's balance with recent history
type RewardSummary struct {
	StudentID int64         `json:"student_id"`
	Balance   int64         `json:"balance"`
	Recent    []LedgerEntry `json:"recent"`
}
