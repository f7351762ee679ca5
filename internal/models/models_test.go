package models

import (
	"testing"
	"time"
)

func TestWordRangeLen(t *testing.T) {
	tests := []struct {
		name  string
		r     WordRange
		want  int
		empty bool
	}{
		{name: "single word", r: WordRange{Start: 5, End: 5}, want: 1},
		{name: "ten words", r: WordRange{Start: 1, End: 10}, want: 10},
		{name: "empty review window", r: WordRange{Start: 1, End: 0}, want: 0, empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
			if got := tt.r.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestTestModeValid(t *testing.T) {
	for _, mode := range []TestMode{ModeWordTyping, ModeSentenceClick, ModeSentenceType} {
		if !mode.Valid() {
			t.Errorf("%q should be valid", mode)
		}
	}
	if TestMode("flashcards").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestCurriculumStoreHelpers(t *testing.T) {
	store := CurriculumStore{
		Slots: []Slot{
			{ID: "b", Position: 1, BookName: "Grammar Basics"},
			{ID: "a", Position: 0, BookName: "Voca 1000"},
		},
		BookSettings: map[string]BookSettings{
			"Voca 1000": {TestMode: ModeSentenceType, WordsPerSession: 20},
		},
		BookProgress: map[string]int{"Voca 1000": 40},
		StudyDays:    []time.Weekday{time.Monday, time.Wednesday},
	}

	books := store.ActiveBooks()
	if len(books) != 2 || books[0] != "Voca 1000" || books[1] != "Grammar Basics" {
		t.Errorf("ActiveBooks() = %v, want position order", books)
	}
	if store.Slots[0].ID != "b" {
		t.Error("ActiveBooks() must not reorder the stored slots")
	}

	if got := store.Progress("Voca 1000"); got != 40 {
		t.Errorf("Progress() = %d, want 40", got)
	}
	if got := store.Progress("Grammar Basics"); got != 0 {
		t.Errorf("Progress() for unstarted book = %d, want 0", got)
	}

	if !store.IsStudyDay(time.Wednesday) || store.IsStudyDay(time.Sunday) {
		t.Error("IsStudyDay() does not match StudyDays")
	}

	if got := store.SettingsFor("Grammar Basics").TestMode; got != ModeWordTyping {
		t.Errorf("SettingsFor() default mode = %v, want %v", got, ModeWordTyping)
	}
	if got := store.SettingsFor("Voca 1000"); got.TestMode != ModeSentenceType || got.WordsPerSession != 20 {
		t.Errorf("SettingsFor() = %+v", got)
	}

	if slot, ok := store.SlotForBook("Grammar Basics"); !ok || slot.ID != "b" {
		t.Errorf("SlotForBook() = %+v, %v", slot, ok)
	}
}

func TestWordSentenceFallback(t *testing.T) {
	w := Word{English: "apple"}
	if w.Sentence() != "apple" {
		t.Errorf("Sentence() = %q, want term fallback", w.Sentence())
	}
	w.ExampleSentence = "I ate an apple."
	if w.Sentence() != "I ate an apple." {
		t.Errorf("Sentence() = %q", w.Sentence())
	}
}

func TestRewardCategoryValid(t *testing.T) {
	tests := []struct {
		category RewardCategory
		want     bool
	}{
		{CategoryStudy, true},
		{CategoryAchievement, true},
		{CategoryGameReward, true},
		{RewardCategory("bonus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
