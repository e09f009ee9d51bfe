package reconcile

import (
	"strings"
	"testing"

	"skillbeam-backend/internal/models"
)

func TestCountClozeHoles(t *testing.T) {
	cases := []struct {
		name   string
		prompt string
		want   int
	}{
		{"underscores", "Le ___ est rouge et le ___ est bleu", 2},
		{"double underscore", "Le __ est la", 1},
		{"braces marker", "La capitale est {{blank}}", 1},
		{"bracket marker", "La capitale est [blank] et [BLANK]", 2},
		{"paren marker", "La capitale est (blank)", 1},
		{"moodle block", "Paris est {:MULTICHOICE:%100%une ville#~%0%un pays}", 1},
		{"no marker", "La capitale de la France", 1},
		{"empty prompt", "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountClozeHoles(tc.prompt); got != tc.want {
				t.Fatalf("CountClozeHoles(%q) = %d, want %d", tc.prompt, got, tc.want)
			}
		})
	}
}

func TestBuildClozeExpectedAnswersBackfill(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeCloze,
		Prompt:        "Le ___ est rouge et le ___ est bleu",
		CorrectAnswer: "",
		AnswerOptions: []string{"pomme", "ciel", "extra"},
	}

	answers := BuildClozeExpectedAnswers(item)
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %v", answers)
	}
	if answers[0] != "pomme" || answers[1] != "ciel" {
		t.Fatalf("expected backfill in pool order, got %v", answers)
	}
}

func TestBuildClozeExpectedAnswersSkipsPresentFallbacks(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeCloze,
		Prompt:        "Le ___ et le ___",
		CorrectAnswer: "Pomme",
		AnswerOptions: []string{"pomme", "ciel"},
	}

	answers := BuildClozeExpectedAnswers(item)
	if answers[0] != "Pomme" || answers[1] != "ciel" {
		t.Fatalf("expected [Pomme ciel], got %v", answers)
	}
}

func TestBuildClozeExpectedAnswersSynthesizesPlaceholders(t *testing.T) {
	item := models.ContentItem{
		ItemType: models.ItemTypeCloze,
		Prompt:   "Le ___ mange une ___ dans le ___",
	}

	answers := BuildClozeExpectedAnswers(item)
	if len(answers) != 3 {
		t.Fatalf("expected 3 answers, got %v", answers)
	}
	for i, answer := range answers {
		if answer == "" {
			t.Fatalf("answer %d is empty", i)
		}
	}
}

func TestBuildClozeExpectedAnswersKeepsDuplicates(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeCloze,
		Prompt:        "___ et ___",
		CorrectAnswer: "eau || eau",
	}

	answers := BuildClozeExpectedAnswers(item)
	if len(answers) != 2 || answers[0] != "eau" || answers[1] != "eau" {
		t.Fatalf("expected duplicates preserved, got %v", answers)
	}
}

func TestClozePatchInvariant(t *testing.T) {
	prompts := []string{
		"Le ___ est rouge",
		"___ et ___ et ___",
		"Sans marqueur",
	}
	rawAnswers := []string{"", "un || deux || trois || quatre", "a ; b"}

	for _, prompt := range prompts {
		for _, raw := range rawAnswers {
			item := models.ContentItem{ItemType: models.ItemTypeCloze, Prompt: prompt, CorrectAnswer: raw}
			patched := BuildClozePatch(item, BuildClozeExpectedAnswers(item))
			segments := strings.Split(patched.CorrectAnswer, " || ")
			if len(segments) != CountClozeHoles(prompt) {
				t.Fatalf("prompt %q answers %q: expected %d segments, got %v", prompt, raw, CountClozeHoles(prompt), segments)
			}
			for _, segment := range segments {
				if strings.TrimSpace(segment) == "" {
					t.Fatalf("prompt %q: empty segment in %q", prompt, patched.CorrectAnswer)
				}
			}
		}
	}
}

func TestSetClozeAnswerPreservesOtherBlanks(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeCloze,
		Prompt:        "Le ___ est rouge et le ___ est bleu",
		CorrectAnswer: "pomme || ciel",
	}

	patched := SetClozeAnswer(item, 1, "ocean")
	if patched.CorrectAnswer != "pomme || ocean" {
		t.Fatalf("expected second blank replaced, got %q", patched.CorrectAnswer)
	}

	noop := SetClozeAnswer(item, 9, "x")
	if noop.CorrectAnswer != "pomme || ciel" {
		t.Fatalf("expected out-of-range no-op, got %q", noop.CorrectAnswer)
	}
}

func TestApplyWordBankMirrorsFields(t *testing.T) {
	item := models.ContentItem{ItemType: models.ItemTypeCloze, Prompt: "___ et ___"}
	patched := ApplyWordBank(item, "pomme ; ciel\nPomme || mer")

	want := []string{"pomme", "ciel", "mer"}
	if len(patched.Distractors) != len(want) || len(patched.AnswerOptions) != len(want) {
		t.Fatalf("expected mirrored fields of %d entries, got %v and %v", len(want), patched.Distractors, patched.AnswerOptions)
	}
	for i := range want {
		if patched.Distractors[i] != want[i] || patched.AnswerOptions[i] != want[i] {
			t.Fatalf("entry %d: expected %q, got %q and %q", i, want[i], patched.Distractors[i], patched.AnswerOptions[i])
		}
	}

	patched.Distractors[0] = "changed"
	if patched.AnswerOptions[0] == "changed" {
		t.Fatalf("mirrored fields must not share backing storage")
	}
}
