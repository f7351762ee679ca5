package quiz

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

var (
	ErrSessionNotFound = errors.New("test session not found")
	ErrNotComplete     = errors.New("test session is not complete")
)

// Meta describes what a session is testing. It never changes after creation.
type Meta struct {
	StudentID     int64            `json:"student_id"`
	BookName      string           `json:"book_name"`
	Mode          models.TestMode  `json:"mode"`
	Range         models.WordRange `json:"range"`
	ReviewRange   models.WordRange `json:"review_range"`
	ScheduledDate string           `json:"scheduled_date"`
}

// Completed is handed to the persistence callback when a session is finalized
type Completed struct {
	Meta
	Score   Score
	Details []models.AnswerDetail
}

// Session is one in-progress test held in memory
type Session struct {
	ID        string
	Meta      Meta
	CreatedAt time.Time

	mu         sync.Mutex
	runner     *Runner
	outcome    *models.CompletionOutcome
	lastActive time.Time
}

// SessionView is the JSON shape of a session
type SessionView struct {
	ID string `json:"id"`
	Meta
	View
	Score     *Score `json:"score,omitempty"`
	Finalized bool   `json:"finalized"`
}

// View snapshots the session for the learner
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		ID:        s.ID,
		Meta:      s.Meta,
		View:      s.runner.View(),
		Finalized: s.outcome != nil,
	}
	if s.runner.Complete() {
		score := s.runner.Score()
		v.Score = &score
	}
	return v
}

// Submit grades answers for the current phase
func (s *Session) Submit(answers []Answer) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Submit(answers)
}

// Store keeps in-progress sessions keyed by a random id. Sessions are never
// persisted; an abandoned or expired session leaves no trace.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	finalize singleflight.Group
	now      func() time.Time
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create registers a new session around runner
func (st *Store) Create(meta Meta, runner *Runner) *Session {
	now := st.now()
	s := &Session{
		ID:         uuid.NewString(),
		Meta:       meta,
		CreatedAt:  now,
		runner:     runner,
		lastActive: now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns a session owned by studentID and marks it active
func (st *Store) Get(id string, studentID int64) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || s.Meta.StudentID != studentID {
		return nil, ErrSessionNotFound
	}
	s.lastActive = st.now()
	return s, nil
}

// Delete abandons a session
func (st *Store) Delete(id string, studentID int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || s.Meta.StudentID != studentID {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// ExpireIdle drops sessions untouched for longer than maxIdle and returns
// how many were removed
func (st *Store) ExpireIdle(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-maxIdle)
	removed := 0
	for id, s := range st.sessions {
		if s.lastActive.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Finalize persists a completed session at most once. Concurrent callers
// share one persist call and later callers receive the stored outcome.
func (st *Store) Finalize(id string, studentID int64, persist func(Completed) (*models.CompletionOutcome, error)) (*models.CompletionOutcome, error) {
	s, err := st.Get(id, studentID)
	if err != nil {
		return nil, err
	}

	v, err, _ := st.finalize.Do(id, func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.outcome != nil {
			return s.outcome, nil
		}
		if !s.runner.Complete() {
			return nil, ErrNotComplete
		}

		outcome, err := persist(Completed{
			Meta:    s.Meta,
			Score:   s.runner.Score(),
			Details: s.runner.Details(),
		})
		if err != nil {
			return nil, err
		}
		s.outcome = outcome
		return outcome, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CompletionOutcome), nil
}
