package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

func TestCalculateRange(t *testing.T) {
	tests := []struct {
		name       string
		store      models.CurriculumStore
		weekday    time.Weekday
		override   *models.WordRange
		wantNew    models.WordRange
		wantReview models.WordRange
	}{
		{
			name:       "first session has no review",
			store:      models.CurriculumStore{WordsPerSession: 10},
			weekday:    time.Monday,
			wantNew:    models.WordRange{Start: 1, End: 10},
			wantReview: models.WordRange{Start: 1, End: 0},
		},
		{
			name:       "second session reviews the first",
			store:      models.CurriculumStore{WordsPerSession: 10, BookProgress: map[string]int{"Voca": 10}},
			weekday:    time.Monday,
			wantNew:    models.WordRange{Start: 11, End: 20},
			wantReview: models.WordRange{Start: 1, End: 10},
		},
		{
			name:       "review window is two sessions long",
			store:      models.CurriculumStore{WordsPerSession: 10, BookProgress: map[string]int{"Voca": 40}},
			weekday:    time.Monday,
			wantNew:    models.WordRange{Start: 41, End: 50},
			wantReview: models.WordRange{Start: 21, End: 40},
		},
		{
			name: "weekday count beats student default",
			store: models.CurriculumStore{
				WordsPerSession: 10,
				WeekdayCounts:   map[time.Weekday]int{time.Saturday: 30},
			},
			weekday:    time.Saturday,
			wantNew:    models.WordRange{Start: 1, End: 30},
			wantReview: models.WordRange{Start: 1, End: 0},
		},
		{
			name: "book setting beats weekday count",
			store: models.CurriculumStore{
				WordsPerSession: 10,
				WeekdayCounts:   map[time.Weekday]int{time.Saturday: 30},
				BookSettings:    map[string]models.BookSettings{"Voca": {WordsPerSession: 5}},
				BookProgress:    map[string]int{"Voca": 5},
			},
			weekday:    time.Saturday,
			wantNew:    models.WordRange{Start: 6, End: 10},
			wantReview: models.WordRange{Start: 1, End: 5},
		},
		{
			name:       "global default when nothing is set",
			store:      models.CurriculumStore{},
			weekday:    time.Monday,
			wantNew:    models.WordRange{Start: 1, End: models.DefaultWordsPerSession},
			wantReview: models.WordRange{Start: 1, End: 0},
		},
		{
			name:       "override is used verbatim",
			store:      models.CurriculumStore{WordsPerSession: 10, BookProgress: map[string]int{"Voca": 50}},
			weekday:    time.Monday,
			override:   &models.WordRange{Start: 5, End: 8},
			wantNew:    models.WordRange{Start: 5, End: 8},
			wantReview: models.WordRange{Start: 1, End: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateRange(&tt.store, "Voca", tt.weekday, tt.override)
			if got.New != tt.wantNew {
				t.Errorf("New = %+v, want %+v", got.New, tt.wantNew)
			}
			if got.Review != tt.wantReview {
				t.Errorf("Review = %+v, want %+v", got.Review, tt.wantReview)
			}
		})
	}
}

func TestApplyProgress(t *testing.T) {
	tests := []struct {
		name       string
		stored     int
		start, end int
		want       int
	}{
		{"first session", 0, 1, 10, 10},
		{"next session", 10, 11, 20, 20},
		{"overlapping session", 10, 5, 15, 15},
		{"gap is ignored", 10, 25, 30, 10},
		{"earlier range never regresses", 20, 1, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyProgress(tt.stored, tt.start, tt.end); got != tt.want {
				t.Errorf("ApplyProgress(%d, %d, %d) = %d, want %d", tt.stored, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestCappedAmount(t *testing.T) {
	tests := []struct {
		name                string
		amount, cap, earned int64
		want                int64
	}{
		{"well under cap", 10, 50, 0, 10},
		{"partially capped", 10, 50, 45, 5},
		{"cap reached", 10, 50, 50, 0},
		{"cap exceeded", 10, 50, 70, 0},
		{"zero cap", 10, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CappedAmount(tt.amount, tt.cap, tt.earned); got != tt.want {
				t.Errorf("CappedAmount(%d, %d, %d) = %d, want %d", tt.amount, tt.cap, tt.earned, got, tt.want)
			}
		})
	}
}

func TestSpeedQuizScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []bool
		want    int
	}{
		{"no answers", nil, 0},
		{"single correct", []bool{true}, 10},
		{"three in a row", []bool{true, true, true}, 10 + 12 + 14},
		{"wrong resets combo", []bool{true, true, false, true}, 10 + 12 + 10},
		{"all wrong", []bool{false, false}, 0},
		{"combo bonus is capped", []bool{true, true, true, true, true, true, true, true, true, true, true, true}, 12*10 + (0 + 2 + 4 + 6 + 8 + 10 + 12 + 14 + 16 + 18 + 20 + 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpeedQuizScore(tt.answers); got != tt.want {
				t.Errorf("SpeedQuizScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMatchingScore(t *testing.T) {
	tests := []struct {
		name                  string
		pairs, moves, seconds int
		want                  int
	}{
		{"perfect game", 8, 8, 30, 770},
		{"extra moves cost points", 8, 12, 30, 750},
		{"floored at zero", 1, 40, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchingScore(tt.pairs, tt.moves, tt.seconds); got != tt.want {
				t.Errorf("MatchingScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFallingWord(t *testing.T) {
	tests := []struct {
		hits  int
		level int
		score int
	}{
		{hits: 0, level: 1, score: 0},
		{hits: 5, level: 1, score: 50},
		{hits: 10, level: 2, score: 100 + 50},
		{hits: 12, level: 2, score: 100 + 40 + 50},
	}

	for _, tt := range tests {
		if got := FallingWordLevel(tt.hits); got != tt.level {
			t.Errorf("FallingWordLevel(%d) = %d, want %d", tt.hits, got, tt.level)
		}
		if got := FallingWordScore(tt.hits); got != tt.score {
			t.Errorf("FallingWordScore(%d) = %d, want %d", tt.hits, got, tt.score)
		}
	}

	if FallingWordDuration(2) >= FallingWordDuration(1) {
		t.Error("words should fall faster at higher levels")
	}
	if got := FallingWordDuration(100); got != 1500*time.Millisecond {
		t.Errorf("FallingWordDuration(100) = %v, want floor of 1.5s", got)
	}
}

func TestScoreGameValidation(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.GameKind
		sub     GameSubmission
		wantErr bool
	}{
		{"speed quiz needs answers", models.GameSpeedQuiz, GameSubmission{}, true},
		{"matching needs pairs", models.GameMatching, GameSubmission{Moves: 3}, true},
		{"matching moves below pairs", models.GameMatching, GameSubmission{Pairs: 4, Moves: 2}, true},
		{"falling word too many misses", models.GameFallingWord, GameSubmission{Hits: 3, Misses: 4}, true},
		{"valid falling word", models.GameFallingWord, GameSubmission{Hits: 3, Misses: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreGame(tt.kind, tt.sub)
			if tt.wantErr {
				var ve validation.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("ScoreGame() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ScoreGame() unexpected error: %v", err)
			}
		})
	}

	if _, err := ScoreGame(models.GameKind("tetris"), GameSubmission{}); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("ScoreGame(unknown) = %v, want ErrUnknownGame", err)
	}
}
