package reconcile

import (
	"strings"
	"testing"

	"skillbeam-backend/internal/models"
)

func TestBuildChoiceEditorStateMergesPools(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeMCQ,
		CorrectAnswer: "Paris || paris ; Rome",
		AnswerOptions: []string{"Lyon"},
		Distractors:   []string{"Nice", "LYON"},
	}

	state := BuildChoiceEditorState(item)
	want := []string{"Paris", "Rome", "Lyon", "Nice"}
	if len(state.Choices) != len(want) {
		t.Fatalf("expected %d choices, got %v", len(want), state.Choices)
	}
	for i, choice := range want {
		if state.Choices[i] != choice {
			t.Fatalf("choice %d: expected %q, got %q", i, choice, state.Choices[i])
		}
	}
	if !state.CorrectKeys["paris"] || !state.CorrectKeys["rome"] {
		t.Fatalf("expected paris and rome marked correct, got %v", state.CorrectKeys)
	}
}

func TestBuildChoiceEditorStateEmptyItem(t *testing.T) {
	state := BuildChoiceEditorState(models.ContentItem{ItemType: models.ItemTypeMCQ})
	if len(state.Choices) != 1 {
		t.Fatalf("expected one synthesized choice, got %v", state.Choices)
	}
	if !state.CorrectKeys[strings.ToLower(state.Choices[0])] {
		t.Fatalf("expected the synthesized choice to be marked correct")
	}
}

func TestBuildChoiceEditorStateDefaultsFirstCorrect(t *testing.T) {
	item := models.ContentItem{ItemType: models.ItemTypeMCQ, Distractors: []string{"Lyon", "Nice"}}
	state := BuildChoiceEditorState(item)
	if !state.CorrectKeys["lyon"] {
		t.Fatalf("expected first choice defaulted to correct, got %v", state.CorrectKeys)
	}
}

func TestBuildChoicePatchInvariant(t *testing.T) {
	item := models.ContentItem{ItemType: models.ItemTypeMCQ}
	choices := []string{"A", "B", "C"}

	patched := BuildChoicePatch(item, choices, map[string]bool{}, false)
	answers := strings.Split(patched.CorrectAnswer, " || ")
	if len(answers) < 1 || answers[0] == "" {
		t.Fatalf("expected at least one correct answer, got %q", patched.CorrectAnswer)
	}
	for _, answer := range answers {
		found := false
		for _, option := range patched.AnswerOptions {
			if strings.EqualFold(answer, option) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("correct answer %q missing from answer options %v", answer, patched.AnswerOptions)
		}
	}
}

func TestBuildChoicePatchSingleAnswerKeepsFirst(t *testing.T) {
	item := models.ContentItem{ItemType: models.ItemTypeMCQ}
	keys := map[string]bool{"a": true, "b": true}

	patched := BuildChoicePatch(item, []string{"A", "B", "C"}, keys, false)
	if patched.CorrectAnswer != "A" {
		t.Fatalf("expected only first correct kept, got %q", patched.CorrectAnswer)
	}
	if len(patched.Distractors) != 2 {
		t.Fatalf("expected B and C as distractors, got %v", patched.Distractors)
	}
}

func TestToggleChoiceSingleAnswer(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeMCQ,
		CorrectAnswer: "Paris",
		Distractors:   []string{"Lyon", "Nice"},
	}

	patched := ToggleChoice(item, 1)
	if patched.CorrectAnswer != "Lyon" {
		t.Fatalf("expected Lyon correct, got %q", patched.CorrectAnswer)
	}
	foundParis := false
	for _, distractor := range patched.Distractors {
		if distractor == "Paris" {
			foundParis = true
		}
	}
	if !foundParis {
		t.Fatalf("expected Paris demoted to distractor, got %v", patched.Distractors)
	}
}

func TestToggleChoicePollAllowsMultiple(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypePoll,
		CorrectAnswer: "Paris",
		Distractors:   []string{"Lyon", "Nice"},
	}

	patched := ToggleChoice(item, 1)
	if patched.CorrectAnswer != "Paris || Lyon" {
		t.Fatalf("expected both answers kept, got %q", patched.CorrectAnswer)
	}
}

func TestToggleChoiceOutOfRangeIsNoop(t *testing.T) {
	item := models.ContentItem{ItemType: models.ItemTypeMCQ, CorrectAnswer: "Paris", Distractors: []string{"Lyon"}}
	if patched := ToggleChoice(item, 5); patched.CorrectAnswer != "Paris" {
		t.Fatalf("expected no-op, got %q", patched.CorrectAnswer)
	}
}

func TestRenameChoicePreservesCorrectness(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeMCQ,
		CorrectAnswer: "Paris",
		Distractors:   []string{"Lyon"},
	}

	patched := RenameChoice(item, 0, "Marseille")
	if patched.CorrectAnswer != "Marseille" {
		t.Fatalf("expected renamed choice to stay correct, got %q", patched.CorrectAnswer)
	}
}

func TestAddChoiceAppendsPlaceholder(t *testing.T) {
	item := models.ContentItem{ItemType: models.ItemTypeMCQ, CorrectAnswer: "Paris", Distractors: []string{"Lyon"}}
	patched := AddChoice(item)
	if len(patched.AnswerOptions) != 3 {
		t.Fatalf("expected 3 options, got %v", patched.AnswerOptions)
	}

	again := AddChoice(patched)
	if len(again.AnswerOptions) != 4 {
		t.Fatalf("expected second placeholder to survive dedup, got %v", again.AnswerOptions)
	}
}

func TestRemoveChoiceKeepsRemainingCorrect(t *testing.T) {
	item := models.ContentItem{
		ItemType:      models.ItemTypeMCQ,
		CorrectAnswer: "Paris",
		Distractors:   []string{"Lyon", "Nice"},
	}

	patched := RemoveChoice(item, 2)
	if patched.CorrectAnswer != "Paris" {
		t.Fatalf("expected Paris still correct, got %q", patched.CorrectAnswer)
	}
	if len(patched.AnswerOptions) != 2 {
		t.Fatalf("expected 2 options left, got %v", patched.AnswerOptions)
	}
}

func TestAllowsMultipleCorrectAnswers(t *testing.T) {
	cases := []struct {
		name string
		item models.ContentItem
		want bool
	}{
		{"poll", models.ContentItem{ItemType: models.ItemTypePoll}, true},
		{"plain mcq", models.ContentItem{ItemType: models.ItemTypeMCQ, Prompt: "Quelle capitale?"}, false},
		{"prompt hint", models.ContentItem{ItemType: models.ItemTypeMCQ, Prompt: "Cochez plusieurs réponses"}, true},
		{"accented hint", models.ContentItem{ItemType: models.ItemTypeMCQ, Prompt: "Choix multiple autorisé"}, true},
		{"tag hint", models.ContentItem{ItemType: models.ItemTypeMCQ, Tags: []string{"Multiple_Choice"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllowsMultipleCorrectAnswers(tc.item); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
