package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
)

// TestService runs test sessions and records their completion
type TestService struct {
	db             *database.DB
	sessions       *quiz.Store
	curriculum     *CurriculumService
	rewards        *RewardService
	resultRepo     *repository.TestResultRepository
	curriculumRepo *repository.CurriculumRepository
	wordRepo       *repository.WordRepository
	now            func() time.Time
}

// NewTestService creates a new test service
func NewTestService(
	db *database.DB,
	sessions *quiz.Store,
	curriculum *CurriculumService,
	rewards *RewardService,
	resultRepo *repository.TestResultRepository,
	curriculumRepo *repository.CurriculumRepository,
	wordRepo *repository.WordRepository,
) *TestService {
	return &TestService{
		db:             db,
		sessions:       sessions,
		curriculum:     curriculum,
		rewards:        rewards,
		resultRepo:     resultRepo,
		curriculumRepo: curriculumRepo,
		wordRepo:       wordRepo,
		now:            time.Now,
	}
}

// Start prepares today's words for book and opens a session
func (s *TestService) Start(studentID int64, book string, override *models.WordRange) (*quiz.SessionView, error) {
	prep, err := s.curriculum.PrepareSession(studentID, book, override)
	if err != nil {
		return nil, err
	}

	runner, err := quiz.NewRunner(prep.Mode, prep.NewWords, prep.ReviewWords, nil)
	if err == quiz.ErrNoWords {
		return nil, ErrNothingToStudy
	}
	if err != nil {
		return nil, err
	}

	sess := s.sessions.Create(quiz.Meta{
		StudentID:     studentID,
		BookName:      prep.BookName,
		Mode:          prep.Mode,
		Range:         prep.Range.New,
		ReviewRange:   prep.Range.Review,
		ScheduledDate: prep.ScheduledDate,
	}, runner)

	log.Printf("Test session %s started: student=%d book=%q range=%d-%d", sess.ID, studentID, prep.BookName, prep.Range.New.Start, prep.Range.New.End)
	view := sess.View()
	return &view, nil
}

// Get returns the current state of a student's session
func (s *TestService) Get(studentID int64, sessionID string) (*quiz.SessionView, error) {
	sess, err := s.sessions.Get(sessionID, studentID)
	if err != nil {
		return nil, err
	}
	view := sess.View()
	return &view, nil
}

// Submit grades answers for the session's current phase
func (s *TestService) Submit(studentID int64, sessionID string, answers []quiz.Answer) (*quiz.SubmitResult, *quiz.SessionView, error) {
	sess, err := s.sessions.Get(sessionID, studentID)
	if err != nil {
		return nil, nil, err
	}
	result, err := sess.Submit(answers)
	if err != nil {
		return nil, nil, err
	}
	view := sess.View()
	return result, &view, nil
}

// Abandon discards a session without recording anything
func (s *TestService) Abandon(studentID int64, sessionID string) error {
	return s.sessions.Delete(sessionID, studentID)
}

// ExpireIdle drops sessions idle for longer than maxIdle
func (s *TestService) ExpireIdle(maxIdle time.Duration) int {
	return s.sessions.ExpireIdle(maxIdle)
}

// Finalize records a completed session. Repeated or concurrent calls return
// the first outcome without writing again.
func (s *TestService) Finalize(ctx context.Context, studentID int64, sessionID string) (*models.CompletionOutcome, error) {
	return s.sessions.Finalize(sessionID, studentID, func(c quiz.Completed) (*models.CompletionOutcome, error) {
		return s.persist(ctx, c)
	})
}

// Results returns a student's recent test results
func (s *TestService) Results(studentID int64, limit int) ([]models.TestResult, error) {
	results, err := s.resultRepo.ListResults(studentID, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.TestResult{}
	}
	return results, nil
}

// persist writes the result, advances progress, pays the completion reward,
// promotes the next queued book and pays the daily bonus, all in one
// transaction
func (s *TestService) persist(ctx context.Context, c quiz.Completed) (*models.CompletionOutcome, error) {
	policy, err := s.rewards.Policy(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	outcome := &models.CompletionOutcome{Grants: []models.LedgerEntry{}}

	err = s.db.WithTx(func(tx *database.Tx) error {
		curriculumRepo := s.curriculumRepo.WithTx(tx)
		rewardRepo := s.rewards.rewardRepo.WithTx(tx)

		result := &models.TestResult{
			StudentID:     c.StudentID,
			BookName:      c.BookName,
			TestType:      c.Mode,
			Range:         c.Range,
			Score:         c.Score.Percent,
			CorrectCount:  c.Score.Correct,
			TotalCount:    c.Score.Total,
			Details:       c.Details,
			ScheduledDate: c.ScheduledDate,
			CreatedAt:     now.UTC(),
		}
		if err := s.resultRepo.WithTx(tx).CreateResult(result); err != nil {
			return err
		}
		outcome.Result = result

		total, err := s.wordRepo.WithTx(tx).CountBookWords(c.BookName)
		if err != nil {
			return err
		}

		previous, err := curriculumRepo.GetProgress(c.StudentID, c.BookName)
		if err != nil {
			return err
		}
		// The last session of a book may be planned past its final word
		end := c.Range.End
		if end > total {
			end = total
		}
		next := previous
		if c.Range.Start <= end {
			next = ApplyProgress(previous, c.Range.Start, end)
		}
		outcome.PreviousIndex = previous
		outcome.NewIndex = next
		if next != previous {
			if err := curriculumRepo.SetProgress(c.StudentID, c.BookName, next); err != nil {
				return err
			}
		}

		// Progress may already cover the book when an admin removed trailing
		// words or set progress by hand. The slot is retired either way, but
		// the reward is paid only when this session crossed the end.
		if total > 0 && next >= total {
			crossed := previous < total
			if crossed && policy.CurriculumCompletionAmount > 0 {
				entry, err := s.rewards.grantWith(rewardRepo, c.StudentID, models.CategoryAchievement,
					models.KindCurriculumCompletion, policy.CurriculumCompletionAmount, fmt.Sprintf("Completed %s", c.BookName), now)
				if err != nil {
					return err
				}
				outcome.Grants = append(outcome.Grants, *entry)
			}

			retired, promoted, err := s.curriculum.completeBookWith(curriculumRepo, c.StudentID, c.BookName)
			if err != nil {
				return err
			}
			outcome.BookCompleted = crossed || retired
			outcome.PromotedBook = promoted
		}

		store, err := curriculumRepo.LoadStore(c.StudentID)
		if err != nil {
			return err
		}
		if store == nil {
			return ErrStudentNotFound
		}
		bonus, err := s.rewards.grantDailyBonusWith(rewardRepo, c.StudentID, store.StudyDays, c.ScheduledDate, policy, now)
		if err != nil {
			return err
		}
		if bonus != nil {
			outcome.Grants = append(outcome.Grants, *bonus)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record test completion: %w", err)
	}

	log.Printf("Test completed: student=%d book=%q score=%d%% progress %d->%d", c.StudentID, c.BookName, c.Score.Percent, outcome.PreviousIndex, outcome.NewIndex)
	return outcome, nil
}
