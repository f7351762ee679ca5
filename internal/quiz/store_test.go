package quiz

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

func completedRunner(t *testing.T) *Runner {
	t.Helper()
	words := makeWords(1, 2)
	r, err := NewRunner(models.ModeWordTyping, words, nil, testRNG())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if _, err := r.Submit(answersFor(r, index(words), nil)); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return r
}

func TestStoreOwnership(t *testing.T) {
	store := NewStore()
	s := store.Create(Meta{StudentID: 7, BookName: "Voca 1000"}, completedRunner(t))

	if _, err := store.Get(s.ID, 8); err != ErrSessionNotFound {
		t.Errorf("Get() by another student error = %v, want ErrSessionNotFound", err)
	}
	if err := store.Delete(s.ID, 8); err != ErrSessionNotFound {
		t.Errorf("Delete() by another student error = %v", err)
	}
	if err := store.Delete(s.ID, 7); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after abandon", store.Len())
	}
}

func TestStoreExpireIdle(t *testing.T) {
	store := NewStore()
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	stale := store.Create(Meta{StudentID: 1}, completedRunner(t))
	clock = clock.Add(90 * time.Minute)
	fresh := store.Create(Meta{StudentID: 2}, completedRunner(t))
	clock = clock.Add(40 * time.Minute)

	if removed := store.ExpireIdle(time.Hour); removed != 1 {
		t.Errorf("ExpireIdle() removed %d, want 1", removed)
	}
	if _, err := store.Get(stale.ID, 1); err != ErrSessionNotFound {
		t.Error("stale session should be gone")
	}
	if _, err := store.Get(fresh.ID, 2); err != nil {
		t.Errorf("fresh session missing: %v", err)
	}
}

func TestFinalizeAtMostOnce(t *testing.T) {
	store := NewStore()
	s := store.Create(Meta{StudentID: 3, BookName: "Voca 1000"}, completedRunner(t))

	var calls int32
	release := make(chan struct{})
	persist := func(c Completed) (*models.CompletionOutcome, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &models.CompletionOutcome{
			Result: &models.TestResult{BookName: c.BookName, Score: c.Score.Percent},
		}, nil
	}

	var wg sync.WaitGroup
	outcomes := make([]*models.CompletionOutcome, 5)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := store.Finalize(s.ID, 3, persist)
			if err != nil {
				t.Errorf("Finalize() error = %v", err)
			}
			outcomes[i] = out
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	again, err := store.Finalize(s.ID, 3, persist)
	if err != nil {
		t.Fatalf("late Finalize() error = %v", err)
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("persist called %d times, want 1", n)
	}
	for _, out := range append(outcomes, again) {
		if out == nil || out.Result.Score != 100 {
			t.Errorf("outcome = %+v, want the shared first result", out)
		}
	}
	if !s.View().Finalized {
		t.Error("View() should report the session as finalized")
	}
}

func TestFinalizeRequiresCompletion(t *testing.T) {
	store := NewStore()
	r, _ := NewRunner(models.ModeWordTyping, makeWords(1, 2), nil, testRNG())
	s := store.Create(Meta{StudentID: 1}, r)

	_, err := store.Finalize(s.ID, 1, func(Completed) (*models.CompletionOutcome, error) {
		t.Fatal("persist must not run for an incomplete session")
		return nil, nil
	})
	if err != ErrNotComplete {
		t.Errorf("Finalize() error = %v, want ErrNotComplete", err)
	}
}

func TestFinalizeRetriesAfterFailure(t *testing.T) {
	store := NewStore()
	s := store.Create(Meta{StudentID: 1}, completedRunner(t))

	errDown := errors.New("database unavailable")
	if _, err := store.Finalize(s.ID, 1, func(Completed) (*models.CompletionOutcome, error) {
		return nil, errDown
	}); !errors.Is(err, errDown) {
		t.Fatalf("Finalize() error = %v, want %v", err, errDown)
	}

	out, err := store.Finalize(s.ID, 1, func(Completed) (*models.CompletionOutcome, error) {
		return &models.CompletionOutcome{NewIndex: 2}, nil
	})
	if err != nil || out.NewIndex != 2 {
		t.Errorf("manual retry Finalize() = %+v, %v", out, err)
	}
}
