package reconcile

import (
	"github.com/google/uuid"

	"skillbeam-backend/internal/models"
)

// Patch carries the fields of one item edit. Nil pointers and nil
// slices mean "leave unchanged".
type Patch struct {
	Prompt          *string  `json:"prompt,omitempty"`
	CorrectAnswer   *string  `json:"correct_answer,omitempty"`
	Distractors     []string `json:"distractors,omitempty"`
	AnswerOptions   []string `json:"answer_options,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Difficulty      *string  `json:"difficulty,omitempty"`
	Feedback        *string  `json:"feedback,omitempty"`
	SourceReference *string  `json:"source_reference,omitempty"`
}

// Editor is the single mutation entry point over an in-memory item
// collection. It normalizes incoming text, keeps positions contiguous
// and keeps cloze items self-consistent on every edit. Not safe for
// concurrent use; callers apply one mutation at a time.
type Editor struct {
	items []models.ContentItem
}

// NewEditor normalizes the initial collection and wraps it for editing.
func NewEditor(items []models.ContentItem) *Editor {
	return &Editor{items: NormalizeItems(items)}
}

// Items returns the current collection.
func (e *Editor) Items() []models.ContentItem {
	return e.items
}

// UpdateItem normalizes the patch, merges it onto the item at index and
// re-reconciles cloze answers when the item is a cloze. Out-of-range
// indexes are a no-op.
func (e *Editor) UpdateItem(index int, patch Patch) {
	if index < 0 || index >= len(e.items) {
		return
	}
	item := e.items[index]
	if patch.Prompt != nil {
		item.Prompt = StripQuestionPrefix(*patch.Prompt)
	}
	if patch.CorrectAnswer != nil {
		item.CorrectAnswer = NormalizeAnswerText(*patch.CorrectAnswer)
	}
	if patch.Distractors != nil {
		cleaned := make([]string, len(patch.Distractors))
		for i, distractor := range patch.Distractors {
			cleaned[i] = NormalizeAnswerText(distractor)
		}
		item.Distractors = cleaned
	}
	if patch.AnswerOptions != nil {
		item.AnswerOptions = append(make([]string, 0, len(patch.AnswerOptions)), patch.AnswerOptions...)
	}
	if patch.Tags != nil {
		item.Tags = dedupeStrings(patch.Tags)
	}
	if patch.Difficulty != nil {
		item.Difficulty = NormalizeDifficulty(*patch.Difficulty)
	}
	if patch.Feedback != nil {
		item.Feedback = *patch.Feedback
	}
	if patch.SourceReference != nil {
		item.SourceReference = *patch.SourceReference
	}
	// A cloze item must keep one answer per blank no matter which field
	// the edit touched.
	if item.ItemType == models.ItemTypeCloze {
		item = BuildClozePatch(item, BuildClozeExpectedAnswers(item))
	}
	e.items[index] = item
}

// AddItem appends a default MCQ placeholder with three empty distractor
// slots and returns it.
func (e *Editor) AddItem() models.ContentItem {
	item := models.ContentItem{
		ID:            uuid.New(),
		ItemType:      models.ItemTypeMCQ,
		Distractors:   make([]string, 3),
		AnswerOptions: make([]string, 0),
		Tags:          make([]string, 0),
		Difficulty:    "medium",
		Position:      len(e.items),
	}
	e.items = append(e.items, item)
	return item
}

// RemoveItem drops the item at index and recompacts positions to stay
// contiguous from zero. Out-of-range indexes are a no-op.
func (e *Editor) RemoveItem(index int) {
	if index < 0 || index >= len(e.items) {
		return
	}
	e.items = append(e.items[:index], e.items[index+1:]...)
	for i := range e.items {
		e.items[i].Position = i
	}
}

// NormalizeDifficulty maps freeform difficulty labels onto the three
// supported levels, defaulting to medium.
func NormalizeDifficulty(value string) string {
	switch foldText(value) {
	case "easy", "facile":
		return "easy"
	case "hard", "difficile":
		return "hard"
	default:
		return "medium"
	}
}
