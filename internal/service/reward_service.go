package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

var (
	ErrInvalidAmount       = errors.New("amount must not be zero")
	ErrInsufficientBalance = errors.New("balance cannot go below zero")
)

// Settings keys of the reward policy
const (
	keyDailyCompletion      = "reward.daily_completion_amount"
	keyCurriculumCompletion = "reward.curriculum_completion_amount"
	keyGameHighScore        = "reward.game_high_score_amount"
	keyGameThreshold        = "reward.game_high_score_threshold"
	keyDailyGameCap         = "reward.daily_game_cap"
)

// DayKeyLayout formats academy-local calendar days
const DayKeyLayout = "2006-01-02"

// PolicyCache is an optional shared cache for the reward policy
type PolicyCache interface {
	Get(ctx context.Context) (*models.RewardPolicy, bool)
	Set(ctx context.Context, policy models.RewardPolicy)
	Invalidate(ctx context.Context)
}

// ReplayReport compares a balance with the sum of its ledger
type ReplayReport struct {
	StudentID        int64 `json:"student_id"`
	Balance          int64 `json:"balance"`
	LedgerSum        int64 `json:"ledger_sum"`
	LastBalanceAfter int64 `json:"last_balance_after"`
	Entries          int   `json:"entries"`
	Consistent       bool  `json:"consistent"`
}

// RewardService grants currency and keeps balances consistent with the ledger
type RewardService struct {
	db           *database.DB
	rewardRepo   *repository.RewardRepository
	settingsRepo *repository.SettingsRepository
	cache        PolicyCache
	loc          *time.Location
	now          func() time.Time
}

// NewRewardService creates a new reward service. cache may be nil.
func NewRewardService(db *database.DB, rewardRepo *repository.RewardRepository, settingsRepo *repository.SettingsRepository, cache PolicyCache, loc *time.Location) *RewardService {
	if loc == nil {
		loc = time.Local
	}
	return &RewardService{
		db:           db,
		rewardRepo:   rewardRepo,
		settingsRepo: settingsRepo,
		cache:        cache,
		loc:          loc,
		now:          time.Now,
	}
}

// DayKey returns the academy-local calendar day of t
func (s *RewardService) DayKey(t time.Time) string {
	return t.In(s.loc).Format(DayKeyLayout)
}

// Today returns the current academy-local day key
func (s *RewardService) Today() string {
	return s.DayKey(s.now())
}

// CappedAmount is what a capped grant may pay: min(amount, max(0, cap-spent))
func CappedAmount(amount, cap, spent int64) int64 {
	remaining := cap - spent
	if remaining < 0 {
		remaining = 0
	}
	if amount < remaining {
		return amount
	}
	return remaining
}

// Policy returns the reward policy, falling back to defaults for missing keys
func (s *RewardService) Policy(ctx context.Context) (models.RewardPolicy, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx); ok {
			return *p, nil
		}
	}

	settings, err := s.settingsRepo.GetSettings()
	if err != nil {
		return models.RewardPolicy{}, fmt.Errorf("failed to load reward policy: %w", err)
	}

	p := models.DefaultRewardPolicy()
	readInt64(settings, keyDailyCompletion, &p.DailyCompletionAmount)
	readInt64(settings, keyCurriculumCompletion, &p.CurriculumCompletionAmount)
	readInt64(settings, keyGameHighScore, &p.GameHighScoreAmount)
	readInt64(settings, keyDailyGameCap, &p.DailyGameCap)
	threshold := int64(p.GameHighScoreThreshold)
	readInt64(settings, keyGameThreshold, &threshold)
	p.GameHighScoreThreshold = int(threshold)

	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p, nil
}

func readInt64(settings map[string]string, key string, dst *int64) {
	raw, ok := settings[key]
	if !ok {
		return
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		log.Printf("Warning: ignoring invalid setting %s=%q", key, raw)
		return
	}
	*dst = v
}

// UpdatePolicy stores a new policy and invalidates the cache
func (s *RewardService) UpdatePolicy(ctx context.Context, p models.RewardPolicy) error {
	values := map[string]int64{
		keyDailyCompletion:      p.DailyCompletionAmount,
		keyCurriculumCompletion: p.CurriculumCompletionAmount,
		keyGameHighScore:        p.GameHighScoreAmount,
		keyGameThreshold:        int64(p.GameHighScoreThreshold),
		keyDailyGameCap:         p.DailyGameCap,
	}
	for key, v := range values {
		if v < 0 {
			return validation.ValidationError{Field: key, Message: "must not be negative"}
		}
	}

	err := s.db.WithTx(func(tx *database.Tx) error {
		repo := s.settingsRepo.WithTx(tx)
		for key, v := range values {
			if err := repo.SetSetting(key, strconv.FormatInt(v, 10)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// Grant adds amount to a student's balance and appends the ledger entry in
// one transaction
func (s *RewardService) Grant(studentID int64, category models.RewardCategory, kind models.RewardKind, amount int64, reason string) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.db.WithTx(func(tx *database.Tx) error {
		var err error
		entry, err = s.grantWith(s.rewardRepo.WithTx(tx), studentID, category, kind, amount, reason, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Adjust applies a manual correction by an administrator
func (s *RewardService) Adjust(studentID, amount int64, reason string) (*models.LedgerEntry, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	reason = validation.SanitizeText(reason)
	if err := validation.ValidateRequired("reason", reason); err != nil {
		return nil, err
	}
	return s.Grant(studentID, models.CategoryAchievement, models.KindManual, amount, reason)
}

// GrantGameReward pays the high-score reward through the daily cap. It
// returns nil when the cap is exhausted.
func (s *RewardService) GrantGameReward(ctx context.Context, studentID int64, reason string) (*models.LedgerEntry, error) {
	policy, err := s.Policy(ctx)
	if err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err = s.db.WithTx(func(tx *database.Tx) error {
		var err error
		entry, err = s.grantCappedWith(s.rewardRepo.WithTx(tx), studentID, policy, reason, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// grantWith performs a grant using a transaction-bound repository
func (s *RewardService) grantWith(repo *repository.RewardRepository, studentID int64, category models.RewardCategory, kind models.RewardKind, amount int64, reason string, now time.Time) (*models.LedgerEntry, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := repo.LockBalance(studentID)
	if err != nil {
		return nil, err
	}

	newBalance := balance + amount
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}
	if err := repo.SetBalance(studentID, newBalance); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		StudentID:    studentID,
		Amount:       amount,
		Reason:       reason,
		Category:     category,
		Kind:         kind,
		DayKey:       s.DayKey(now),
		BalanceAfter: newBalance,
		CreatedAt:    now.UTC(),
	}
	if err := repo.InsertEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// grantCappedWith pays the game reward limited by what is left of today's cap
func (s *RewardService) grantCappedWith(repo *repository.RewardRepository, studentID int64, policy models.RewardPolicy, reason string, now time.Time) (*models.LedgerEntry, error) {
	// Lock first so concurrent grants for the student see each other's sums
	if _, err := repo.LockBalance(studentID); err != nil {
		return nil, err
	}

	spent, err := repo.SumForDay(studentID, models.CategoryGameReward, s.DayKey(now))
	if err != nil {
		return nil, err
	}

	amount := CappedAmount(policy.GameHighScoreAmount, policy.DailyGameCap, spent)
	if amount <= 0 {
		return nil, nil
	}
	return s.grantWith(repo, studentID, models.CategoryGameReward, models.KindGameHighScore, amount, reason, now)
}

// grantDailyBonusWith pays the once-a-day completion bonus when the session
// was scheduled for today, today is a study day and no bonus exists yet
func (s *RewardService) grantDailyBonusWith(repo *repository.RewardRepository, studentID int64, studyDays []time.Weekday, scheduledDate string, policy models.RewardPolicy, now time.Time) (*models.LedgerEntry, error) {
	today := s.DayKey(now)
	if scheduledDate != today || policy.DailyCompletionAmount <= 0 {
		return nil, nil
	}

	weekday := now.In(s.loc).Weekday()
	studyDay := false
	for _, d := range studyDays {
		if d == weekday {
			studyDay = true
			break
		}
	}
	if !studyDay {
		return nil, nil
	}

	if _, err := repo.LockBalance(studentID); err != nil {
		return nil, err
	}
	exists, err := repo.HasKindForDay(studentID, models.KindDailyCompletion, today)
	if err != nil || exists {
		return nil, err
	}

	return s.grantWith(repo, studentID, models.CategoryStudy, models.KindDailyCompletion, policy.DailyCompletionAmount, "Daily study completed", now)
}

// Balance returns a student's current balance
func (s *RewardService) Balance(studentID int64) (int64, error) {
	return s.rewardRepo.GetBalance(studentID)
}

// History returns the balance with the most recent ledger entries
func (s *RewardService) History(studentID int64, limit int) (*models.RewardSummary, error) {
	balance, err := s.rewardRepo.GetBalance(studentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.rewardRepo.ListEntries(studentID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return &models.RewardSummary{StudentID: studentID, Balance: balance, Recent: entries}, nil
}

// Replay recomputes a balance from the ledger and checks every running total
func (s *RewardService) Replay(studentID int64) (*ReplayReport, error) {
	balance, err := s.rewardRepo.GetBalance(studentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.rewardRepo.ListEntriesInOrder(studentID)
	if err != nil {
		return nil, err
	}

	report := &ReplayReport{StudentID: studentID, Balance: balance, Entries: len(entries), Consistent: true}
	for _, e := range entries {
		report.LedgerSum += e.Amount
		if e.BalanceAfter != report.LedgerSum {
			report.Consistent = false
		}
		report.LastBalanceAfter = e.BalanceAfter
	}
	if report.LedgerSum != balance || report.LastBalanceAfter != balance {
		report.Consistent = false
	}
	return report, nil
}
