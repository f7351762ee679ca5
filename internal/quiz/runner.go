package quiz

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
)

// Phase is a step of a test session. The first phase is named after the
// book's test mode.
type Phase string

const (
	PhaseReviewStudy Phase = "review_study"
	PhaseReview      Phase = "review"
	PhaseComplete    Phase = "complete"
)

// maxDistractors is the number of wrong meanings offered per review question
const maxDistractors = 3

var (
	ErrNoWords  = errors.New("nothing to study")
	ErrComplete = errors.New("test is already complete")
)

// Answer is one submitted response. Tokens is used by sentence-click tests
// and takes precedence over Text when present.
type Answer struct {
	WordID int64    `json:"word_id"`
	Text   string   `json:"text"`
	Tokens []string `json:"tokens,omitempty"`
}

// Item is one question as shown to the learner. Expected answers are never
// included except on the review study step.
type Item struct {
	WordID  int64    `json:"word_id"`
	Prompt  string   `json:"prompt"`
	English string   `json:"english,omitempty"`
	Korean  string   `json:"korean,omitempty"`
	Tokens  []string `json:"tokens,omitempty"`
	Choices []string `json:"choices,omitempty"`
}

// View is the learner-facing state of a runner
type View struct {
	Phase       Phase  `json:"phase"`
	Retry       bool   `json:"retry"`
	Items       []Item `json:"items"`
	NewCount    int    `json:"new_count"`
	ReviewCount int    `json:"review_count"`
}

// SubmitResult reports how a submission was graded
type SubmitResult struct {
	Phase   Phase   `json:"phase"`
	Retry   bool    `json:"retry"`
	Correct []int64 `json:"correct"`
	Wrong   []int64 `json:"wrong"`
}

// Score is the session-level result. Total counts distinct words, so
// retries never inflate it.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

type record struct {
	word     models.Word
	review   bool
	scored   bool
	correct  bool
	answer   string
	attempts int
}

// Runner drives one test session through its phases
type Runner struct {
	mode    models.TestMode
	newSet  []models.Word
	review  []models.Word
	phase   Phase
	retry   bool
	working []models.Word
	records map[int64]*record
	order   []int64
	tokens  map[int64][]string
	choices map[int64][]string
	rng     *rand.Rand
}

// NewRunner builds a runner over the new and review words. Review words that
// also appear in the new set are dropped. rng may be nil.
func NewRunner(mode models.TestMode, newWords, reviewWords []models.Word, rng *rand.Rand) (*Runner, error) {
	if !mode.Valid() {
		mode = models.ModeWordTyping
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	r := &Runner{
		mode:    mode,
		records: make(map[int64]*record),
		tokens:  make(map[int64][]string),
		choices: make(map[int64][]string),
		rng:     rng,
	}

	for _, w := range newWords {
		if _, seen := r.records[w.ID]; seen {
			continue
		}
		r.records[w.ID] = &record{word: w}
		r.order = append(r.order, w.ID)
		r.newSet = append(r.newSet, w)
	}
	for _, w := range reviewWords {
		if _, seen := r.records[w.ID]; seen {
			continue
		}
		r.records[w.ID] = &record{word: w, review: true}
		r.order = append(r.order, w.ID)
		r.review = append(r.review, w)
	}

	if len(r.order) == 0 {
		return nil, ErrNoWords
	}

	for _, w := range r.newSet {
		tokens := strings.Fields(w.Sentence())
		r.shuffleStrings(tokens)
		r.tokens[w.ID] = tokens
	}
	pool := append(append([]models.Word{}, r.newSet...), r.review...)
	for _, w := range r.review {
		r.choices[w.ID] = r.buildChoices(w, pool)
	}

	r.enter(Phase(mode))
	return r, nil
}

// Phase returns the current phase
func (r *Runner) Phase() Phase { return r.phase }

// Retrying reports whether the learner is re-attempting wrong answers
func (r *Runner) Retrying() bool { return r.retry }

// Complete reports whether every phase has been passed
func (r *Runner) Complete() bool { return r.phase == PhaseComplete }

// Mode returns the test mode of the first phase
func (r *Runner) Mode() models.TestMode { return r.mode }

// View returns the questions of the current working set
func (r *Runner) View() View {
	items := make([]Item, 0, len(r.working))
	for _, w := range r.working {
		items = append(items, r.item(w))
	}
	return View{
		Phase:       r.phase,
		Retry:       r.retry,
		Items:       items,
		NewCount:    len(r.newSet),
		ReviewCount: len(r.review),
	}
}

// Submit grades answers for the current working set. Any wrong answer keeps
// the phase and narrows the working set to the failures; a clean pass
// advances. The review study step always advances.
func (r *Runner) Submit(answers []Answer) (*SubmitResult, error) {
	if r.phase == PhaseComplete {
		return nil, ErrComplete
	}

	if r.phase == PhaseReviewStudy {
		r.enter(PhaseReview)
		return &SubmitResult{Phase: r.phase, Retry: r.retry}, nil
	}

	byID := make(map[int64]Answer, len(answers))
	for _, a := range answers {
		byID[a.WordID] = a
	}

	res := &SubmitResult{Correct: []int64{}, Wrong: []int64{}}
	var wrong []models.Word
	for _, w := range r.working {
		given := r.answerText(byID[w.ID])
		ok := Matches(given, r.expected(w))

		rec := r.records[w.ID]
		rec.attempts++
		rec.answer = given
		if !rec.scored {
			rec.scored = true
			rec.correct = ok
		}

		if ok {
			res.Correct = append(res.Correct, w.ID)
		} else {
			res.Wrong = append(res.Wrong, w.ID)
			wrong = append(wrong, w)
		}
	}

	if len(wrong) > 0 {
		r.retry = true
		r.working = r.shuffled(wrong)
	} else {
		r.enter(r.next(r.phase))
	}

	res.Phase = r.phase
	res.Retry = r.retry
	return res, nil
}

// Score returns correct over distinct words presented
func (r *Runner) Score() Score {
	s := Score{Total: len(r.order)}
	for _, id := range r.order {
		if r.records[id].correct {
			s.Correct++
		}
	}
	if s.Total > 0 {
		s.Percent = (s.Correct*100 + s.Total/2) / s.Total
	}
	return s
}

// Details returns one entry per distinct word in presentation order
func (r *Runner) Details() []models.AnswerDetail {
	details := make([]models.AnswerDetail, 0, len(r.order))
	for _, id := range r.order {
		rec := r.records[id]
		details = append(details, models.AnswerDetail{
			WordID:   id,
			English:  rec.word.English,
			Korean:   rec.word.Korean,
			Answer:   rec.answer,
			Correct:  rec.correct,
			Attempts: rec.attempts,
			Review:   rec.review,
		})
	}
	return details
}

// enter moves to p, skipping phases that have no words
func (r *Runner) enter(p Phase) {
	for {
		r.phase = p
		r.retry = false
		if p == PhaseComplete {
			r.working = nil
			return
		}

		words := r.review
		if p == Phase(r.mode) {
			words = r.newSet
		}
		if len(words) > 0 {
			r.working = r.shuffled(words)
			return
		}
		p = r.next(p)
	}
}

func (r *Runner) next(p Phase) Phase {
	switch p {
	case Phase(r.mode):
		return PhaseReviewStudy
	case PhaseReviewStudy:
		return PhaseReview
	default:
		return PhaseComplete
	}
}

func (r *Runner) expected(w models.Word) string {
	if r.phase == PhaseReview {
		return w.Korean
	}
	if r.mode == models.ModeWordTyping {
		return w.English
	}
	return w.Sentence()
}

func (r *Runner) answerText(a Answer) string {
	if r.phase == Phase(models.ModeSentenceClick) && len(a.Tokens) > 0 {
		return JoinTokens(a.Tokens)
	}
	return a.Text
}

func (r *Runner) item(w models.Word) Item {
	meaning := w.SentenceMeaning
	if meaning == "" {
		meaning = w.Korean
	}

	switch r.phase {
	case PhaseReviewStudy:
		return Item{WordID: w.ID, Prompt: w.English, English: w.English, Korean: w.Korean}
	case PhaseReview:
		return Item{WordID: w.ID, Prompt: w.English, Choices: r.choices[w.ID]}
	}

	switch r.mode {
	case models.ModeSentenceClick:
		return Item{WordID: w.ID, Prompt: meaning, Tokens: r.tokens[w.ID]}
	case models.ModeSentenceType:
		return Item{WordID: w.ID, Prompt: meaning}
	default:
		return Item{WordID: w.ID, Prompt: w.Korean}
	}
}

// buildChoices offers the word's meaning among distinct meanings of other
// session words
func (r *Runner) buildChoices(w models.Word, pool []models.Word) []string {
	seen := map[string]bool{Normalize(w.Korean): true}
	var distractors []string
	for _, other := range r.shuffled(pool) {
		key := Normalize(other.Korean)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		distractors = append(distractors, other.Korean)
		if len(distractors) == maxDistractors {
			break
		}
	}

	choices := append(distractors, w.Korean)
	r.shuffleStrings(choices)
	return choices
}

func (r *Runner) shuffled(words []models.Word) []models.Word {
	out := make([]models.Word, len(words))
	copy(out, words)
	r.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (r *Runner) shuffleStrings(s []string) {
	r.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
