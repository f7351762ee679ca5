package quiz

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

func makeWords(startID, n int) []models.Word {
	words := make([]models.Word, n)
	for i := range words {
		id := startID + i
		words[i] = models.Word{
			ID:              int64(id),
			Position:        id,
			English:         fmt.Sprintf("word%d", id),
			Korean:          fmt.Sprintf("단어%d", id),
			ExampleSentence: fmt.Sprintf("This is word%d today.", id),
		}
	}
	return words
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// answersFor answers the current working set, getting wrongIDs wrong
func answersFor(r *Runner, byID map[int64]models.Word, wrongIDs map[int64]bool) []Answer {
	var answers []Answer
	for _, item := range r.View().Items {
		w := byID[item.WordID]
		a := Answer{WordID: w.ID}
		switch {
		case r.Phase() == PhaseReview:
			a.Text = w.Korean
		case r.Mode() == models.ModeWordTyping:
			a.Text = w.English
		case r.Mode() == models.ModeSentenceClick:
			a.Tokens = strings.Fields(w.Sentence())
		default:
			a.Text = w.Sentence()
		}
		if wrongIDs[w.ID] {
			a.Text, a.Tokens = "nope", nil
		}
		answers = append(answers, a)
	}
	return answers
}

func index(words ...[]models.Word) map[int64]models.Word {
	byID := make(map[int64]models.Word)
	for _, set := range words {
		for _, w := range set {
			byID[w.ID] = w
		}
	}
	return byID
}

func TestScoreDenominatorCountsDistinctWords(t *testing.T) {
	newWords := makeWords(1, 10)
	review := makeWords(101, 4)
	byID := index(newWords, review)

	r, err := NewRunner(models.ModeWordTyping, newWords, review, testRNG())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	res, err := r.Submit(answersFor(r, byID, map[int64]bool{3: true, 7: true}))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Retry || len(res.Wrong) != 2 || r.Phase() != Phase(models.ModeWordTyping) {
		t.Fatalf("first pass result = %+v, phase %v", res, r.Phase())
	}
	if items := r.View().Items; len(items) != 2 {
		t.Fatalf("retry working set has %d items, want exactly the 2 failures", len(items))
	}

	if _, err := r.Submit(answersFor(r, byID, nil)); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
	if r.Phase() != PhaseReviewStudy || r.Retrying() {
		t.Fatalf("phase after clean retry = %v (retry %v), want review_study", r.Phase(), r.Retrying())
	}

	if _, err := r.Submit(nil); err != nil {
		t.Fatalf("review study Submit() error = %v", err)
	}
	if r.Phase() != PhaseReview {
		t.Fatalf("phase = %v, want review", r.Phase())
	}

	if _, err := r.Submit(answersFor(r, byID, nil)); err != nil {
		t.Fatalf("review Submit() error = %v", err)
	}
	if !r.Complete() {
		t.Fatalf("phase = %v, want complete", r.Phase())
	}

	score := r.Score()
	if score.Total != 14 {
		t.Errorf("Total = %d, want 14", score.Total)
	}
	if score.Correct != 12 {
		t.Errorf("Correct = %d, want 12 (first attempts only)", score.Correct)
	}
	if score.Percent != 86 {
		t.Errorf("Percent = %d, want 86", score.Percent)
	}

	details := r.Details()
	if len(details) != 14 {
		t.Fatalf("Details() has %d entries, want 14", len(details))
	}
	for _, d := range details {
		if d.WordID == 3 && (d.Correct || d.Attempts != 2) {
			t.Errorf("detail for retried word = %+v", d)
		}
		if d.WordID == 101 && !d.Review {
			t.Errorf("review word not flagged: %+v", d)
		}
	}

	if _, err := r.Submit(nil); err != ErrComplete {
		t.Errorf("Submit() after completion error = %v, want ErrComplete", err)
	}
}

func TestRunnerSkipsEmptyPhases(t *testing.T) {
	tests := []struct {
		name      string
		newWords  []models.Word
		review    []models.Word
		wantPhase Phase
	}{
		{name: "no review words", newWords: makeWords(1, 3), wantPhase: Phase(models.ModeSentenceType)},
		{name: "review only", review: makeWords(1, 3), wantPhase: PhaseReviewStudy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner(models.ModeSentenceType, tt.newWords, tt.review, testRNG())
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}
			if r.Phase() != tt.wantPhase {
				t.Errorf("initial phase = %v, want %v", r.Phase(), tt.wantPhase)
			}
		})
	}

	r, _ := NewRunner(models.ModeWordTyping, makeWords(1, 2), nil, testRNG())
	if _, err := r.Submit(answersFor(r, index(makeWords(1, 2)), nil)); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !r.Complete() {
		t.Errorf("phase = %v, want complete when there is nothing to review", r.Phase())
	}
}

func TestRunnerNoWords(t *testing.T) {
	if _, err := NewRunner(models.ModeWordTyping, nil, nil, nil); err != ErrNoWords {
		t.Errorf("NewRunner() error = %v, want ErrNoWords", err)
	}
}

func TestRunnerDropsDuplicateReviewWords(t *testing.T) {
	newWords := makeWords(5, 5)
	review := makeWords(1, 6) // ids 1..6 overlap new ids 5 and 6

	r, err := NewRunner(models.ModeWordTyping, newWords, review, testRNG())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	v := r.View()
	if v.NewCount != 5 || v.ReviewCount != 4 {
		t.Errorf("counts = %d new, %d review, want 5 and 4", v.NewCount, v.ReviewCount)
	}
	if r.Score().Total != 9 {
		t.Errorf("Total = %d, want 9", r.Score().Total)
	}
}

func TestRunnerRetryRepeatsUntilClean(t *testing.T) {
	newWords := makeWords(1, 4)
	byID := index(newWords)
	r, _ := NewRunner(models.ModeWordTyping, newWords, nil, testRNG())

	r.Submit(answersFor(r, byID, map[int64]bool{1: true, 2: true}))
	res, _ := r.Submit(answersFor(r, byID, map[int64]bool{2: true}))
	if !res.Retry || len(res.Wrong) != 1 || res.Wrong[0] != 2 {
		t.Fatalf("second retry result = %+v", res)
	}
	if items := r.View().Items; len(items) != 1 || items[0].WordID != 2 {
		t.Fatalf("working set = %+v, want only word 2", items)
	}

	r.Submit(answersFor(r, byID, nil))
	if !r.Complete() {
		t.Fatalf("phase = %v, want complete", r.Phase())
	}
	if s := r.Score(); s.Correct != 2 || s.Total != 4 {
		t.Errorf("Score() = %+v, want 2/4", s)
	}
}

func TestSentenceClickMode(t *testing.T) {
	newWords := makeWords(1, 3)
	byID := index(newWords)
	r, _ := NewRunner(models.ModeSentenceClick, newWords, nil, testRNG())

	for _, item := range r.View().Items {
		want := strings.Fields(byID[item.WordID].Sentence())
		if len(item.Tokens) != len(want) {
			t.Errorf("item %d has %d tokens, want %d", item.WordID, len(item.Tokens), len(want))
		}
		if item.English != "" {
			t.Error("typing phases must not reveal the answer")
		}
	}

	r.Submit(answersFor(r, byID, nil))
	if !r.Complete() || r.Score().Percent != 100 {
		t.Errorf("phase = %v, score = %+v", r.Phase(), r.Score())
	}
}

func TestReviewChoices(t *testing.T) {
	newWords := makeWords(1, 5)
	review := makeWords(10, 3)
	r, _ := NewRunner(models.ModeWordTyping, newWords, review, testRNG())
	r.Submit(answersFor(r, index(newWords), nil))
	r.Submit(nil)

	if r.Phase() != PhaseReview {
		t.Fatalf("phase = %v, want review", r.Phase())
	}
	for _, item := range r.View().Items {
		want := fmt.Sprintf("단어%d", item.WordID)
		found := false
		seen := make(map[string]bool)
		for _, c := range item.Choices {
			if seen[c] {
				t.Errorf("duplicate choice %q", c)
			}
			seen[c] = true
			if c == want {
				found = true
			}
		}
		if !found {
			t.Errorf("choices %v missing the correct meaning %q", item.Choices, want)
		}
		if len(item.Choices) != maxDistractors+1 {
			t.Errorf("got %d choices, want %d", len(item.Choices), maxDistractors+1)
		}
	}
}

func TestReviewAcceptsHanjaMeaning(t *testing.T) {
	review := []models.Word{{ID: 1, Position: 1, English: "C++", Korean: "漢字"}}
	byID := index(review)
	r, err := NewRunner(models.ModeWordTyping, nil, review, testRNG())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	r.Submit(nil)
	if r.Phase() != PhaseReview {
		t.Fatalf("phase = %v, want review", r.Phase())
	}

	res, err := r.Submit(answersFor(r, byID, nil))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Retry || !r.Complete() {
		t.Errorf("result = %+v, phase = %v, want complete on the first try", res, r.Phase())
	}
}
