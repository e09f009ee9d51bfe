package reconcile

import (
	"fmt"
	"strings"

	"skillbeam-backend/internal/models"
)

const choicePlaceholder = "Nouvelle proposition"

// ChoiceEditorState is the editable view of an MCQ or poll item: the
// deduplicated candidate list plus the lowercase keys currently marked
// correct. Correctness is tracked by value, not by index, so renaming a
// choice keeps its status.
type ChoiceEditorState struct {
	Choices     []string
	CorrectKeys map[string]bool
}

// MultiAnswerPredicate decides whether an item accepts more than one
// correct answer. The default is a French-language heuristic; callers
// with an explicit upstream flag can substitute their own.
type MultiAnswerPredicate func(models.ContentItem) bool

// AllowsMultipleCorrectAnswers reports multi-select mode: polls always,
// otherwise when the prompt or tags say so.
func AllowsMultipleCorrectAnswers(item models.ContentItem) bool {
	if item.ItemType == models.ItemTypePoll {
		return true
	}
	prompt := foldText(item.Prompt)
	if strings.Contains(prompt, "plusieurs reponses") || strings.Contains(prompt, "choix multiple") {
		return true
	}
	for _, tag := range item.Tags {
		if strings.EqualFold(tag, "multiple_choice") {
			return true
		}
	}
	return false
}

// BuildChoiceEditorState derives the editable view from the flat item
// fields. Deterministic: the same item always yields the same state.
func BuildChoiceEditorState(item models.ContentItem) ChoiceEditorState {
	expected := dedupeStrings(splitAnswerList(item.CorrectAnswer))

	pool := make([]string, 0, len(expected)+len(item.AnswerOptions)+len(item.Distractors))
	pool = append(pool, expected...)
	pool = append(pool, item.AnswerOptions...)
	pool = append(pool, item.Distractors...)
	choices := dedupeStrings(pool)

	correctKeys := make(map[string]bool, len(expected))
	for _, answer := range expected {
		correctKeys[strings.ToLower(answer)] = true
	}

	if len(choices) == 0 {
		choices = []string{choicePlaceholder}
	}
	anyCorrect := false
	for _, choice := range choices {
		if correctKeys[strings.ToLower(choice)] {
			anyCorrect = true
			break
		}
	}
	if !anyCorrect {
		correctKeys[strings.ToLower(choices[0])] = true
	}
	return ChoiceEditorState{Choices: choices, CorrectKeys: correctKeys}
}

// BuildChoicePatch writes an editor state back onto the item. Correct
// answers are joined with " || ", the rest become distractors, and the
// full deduplicated list lands in answer options. An item with at least
// one choice always keeps at least one correct answer.
func BuildChoicePatch(item models.ContentItem, choices []string, correctKeys map[string]bool, allowMultiple bool) models.ContentItem {
	deduped := dedupeStrings(choices)

	correct := make([]string, 0, len(deduped))
	for _, choice := range deduped {
		if correctKeys[strings.ToLower(choice)] {
			correct = append(correct, choice)
		}
	}
	if !allowMultiple && len(correct) > 1 {
		correct = correct[:1]
	}
	if len(correct) == 0 && len(deduped) > 0 {
		correct = deduped[:1]
	}

	correctSet := make(map[string]bool, len(correct))
	for _, answer := range correct {
		correctSet[strings.ToLower(answer)] = true
	}
	distractors := make([]string, 0, len(deduped))
	for _, choice := range deduped {
		if !correctSet[strings.ToLower(choice)] {
			distractors = append(distractors, choice)
		}
	}

	item.CorrectAnswer = joinAnswers(correct)
	item.Distractors = distractors
	item.AnswerOptions = deduped
	return item
}

// ToggleChoice flips the correctness of the choice at index. In
// single-answer mode marking a new choice correct unmarks the others.
// Out-of-range indexes are a no-op.
func ToggleChoice(item models.ContentItem, index int) models.ContentItem {
	return ToggleChoiceUsing(item, index, AllowsMultipleCorrectAnswers)
}

// ToggleChoiceUsing is ToggleChoice with a caller-supplied multi-answer
// predicate.
func ToggleChoiceUsing(item models.ContentItem, index int, multi MultiAnswerPredicate) models.ContentItem {
	state := BuildChoiceEditorState(item)
	if index < 0 || index >= len(state.Choices) {
		return item
	}
	allowMultiple := multi(item)
	key := strings.ToLower(state.Choices[index])
	if state.CorrectKeys[key] {
		delete(state.CorrectKeys, key)
	} else if allowMultiple {
		state.CorrectKeys[key] = true
	} else {
		state.CorrectKeys = map[string]bool{key: true}
	}
	return BuildChoicePatch(item, state.Choices, state.CorrectKeys, allowMultiple)
}

// RenameChoice replaces the text of one choice, carrying its correctness
// over to the new value.
func RenameChoice(item models.ContentItem, index int, text string) models.ContentItem {
	state := BuildChoiceEditorState(item)
	if index < 0 || index >= len(state.Choices) {
		return item
	}
	oldKey := strings.ToLower(state.Choices[index])
	state.Choices[index] = text
	if state.CorrectKeys[oldKey] {
		delete(state.CorrectKeys, oldKey)
		state.CorrectKeys[strings.ToLower(text)] = true
	}
	return BuildChoicePatch(item, state.Choices, state.CorrectKeys, AllowsMultipleCorrectAnswers(item))
}

// AddChoice appends a placeholder choice, numbering it when the plain
// placeholder already exists so the addition survives deduplication.
func AddChoice(item models.ContentItem) models.ContentItem {
	state := BuildChoiceEditorState(item)
	placeholder := choicePlaceholder
	for n := 2; containsFold(state.Choices, placeholder); n++ {
		placeholder = fmt.Sprintf("%s %d", choicePlaceholder, n)
	}
	state.Choices = append(state.Choices, placeholder)
	return BuildChoicePatch(item, state.Choices, state.CorrectKeys, AllowsMultipleCorrectAnswers(item))
}

// RemoveChoice drops the choice at index. Out-of-range indexes are a
// no-op.
func RemoveChoice(item models.ContentItem, index int) models.ContentItem {
	state := BuildChoiceEditorState(item)
	if index < 0 || index >= len(state.Choices) {
		return item
	}
	delete(state.CorrectKeys, strings.ToLower(state.Choices[index]))
	state.Choices = append(state.Choices[:index], state.Choices[index+1:]...)
	return BuildChoicePatch(item, state.Choices, state.CorrectKeys, AllowsMultipleCorrectAnswers(item))
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}
