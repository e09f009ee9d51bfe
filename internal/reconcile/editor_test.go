package reconcile

import (
	"testing"

	"github.com/google/uuid"

	"skillbeam-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestEditorUpdateItemNormalizesPatch(t *testing.T) {
	editor := NewEditor([]models.ContentItem{
		{ItemType: models.ItemTypeOpenQuestion, Prompt: "Pourquoi?", Position: 0},
	})

	editor.UpdateItem(0, Patch{
		Prompt:        strPtr("Question 2: Comment?"),
		CorrectAnswer: strPtr("Réponse: Paris (2)"),
	})

	item := editor.Items()[0]
	if item.Prompt != "Comment?" {
		t.Fatalf("expected prompt normalized, got %q", item.Prompt)
	}
	if item.CorrectAnswer != "Paris" {
		t.Fatalf("expected answer normalized, got %q", item.CorrectAnswer)
	}
}

func TestEditorUpdateItemReconcilesCloze(t *testing.T) {
	editor := NewEditor([]models.ContentItem{
		{
			ItemType:      models.ItemTypeCloze,
			Prompt:        "Le ___ est rouge et le ___ est bleu",
			CorrectAnswer: "pomme || ciel",
			Position:      0,
		},
	})

	// An edit unrelated to the blanks still re-checks the invariant.
	editor.UpdateItem(0, Patch{Difficulty: strPtr("Difficile")})

	item := editor.Items()[0]
	if item.Difficulty != "hard" {
		t.Fatalf("expected difficulty normalized, got %q", item.Difficulty)
	}
	if item.CorrectAnswer != "pomme || ciel" {
		t.Fatalf("expected answers preserved, got %q", item.CorrectAnswer)
	}

	// Shrinking the prompt to one blank truncates the answer list.
	editor.UpdateItem(0, Patch{Prompt: strPtr("Le ___ est rouge")})
	if got := editor.Items()[0].CorrectAnswer; got != "pomme" {
		t.Fatalf("expected answers truncated to one blank, got %q", got)
	}
}

func TestEditorUpdateItemOutOfRangeIsNoop(t *testing.T) {
	editor := NewEditor([]models.ContentItem{{ItemType: models.ItemTypeMCQ, Prompt: "A?"}})
	editor.UpdateItem(3, Patch{Prompt: strPtr("B?")})
	if editor.Items()[0].Prompt != "A?" {
		t.Fatalf("expected no-op, got %q", editor.Items()[0].Prompt)
	}
}

func TestEditorAddItemDefaults(t *testing.T) {
	editor := NewEditor([]models.ContentItem{{ItemType: models.ItemTypeMCQ, Prompt: "A?"}})

	item := editor.AddItem()
	if item.ItemType != models.ItemTypeMCQ {
		t.Fatalf("expected default mcq, got %q", item.ItemType)
	}
	if len(item.Distractors) != 3 {
		t.Fatalf("expected 3 empty distractor slots, got %v", item.Distractors)
	}
	if item.Position != 1 {
		t.Fatalf("expected position 1, got %d", item.Position)
	}
	if item.ID == uuid.Nil {
		t.Fatalf("expected a generated id")
	}
	if len(editor.Items()) != 2 {
		t.Fatalf("expected 2 items, got %d", len(editor.Items()))
	}
}

func TestEditorRemoveItemCompactsPositions(t *testing.T) {
	editor := NewEditor([]models.ContentItem{
		{ItemType: models.ItemTypeMCQ, Prompt: "A?", Position: 0},
		{ItemType: models.ItemTypeMCQ, Prompt: "B?", Position: 1},
		{ItemType: models.ItemTypeMCQ, Prompt: "C?", Position: 2},
	})

	editor.RemoveItem(1)
	items := editor.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Prompt != "A?" || items[1].Prompt != "C?" {
		t.Fatalf("unexpected remaining items: %v", items)
	}
	for i, item := range items {
		if item.Position != i {
			t.Fatalf("expected contiguous positions, item %d has %d", i, item.Position)
		}
	}

	editor.RemoveItem(9)
	if len(editor.Items()) != 2 {
		t.Fatalf("expected out-of-range removal to be a no-op")
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	cases := map[string]string{
		"easy":      "easy",
		"Facile":    "easy",
		"hard":      "hard",
		"DIFFICILE": "hard",
		"medium":    "medium",
		"moyen":     "medium",
		"":          "medium",
	}
	for input, want := range cases {
		if got := NormalizeDifficulty(input); got != want {
			t.Fatalf("NormalizeDifficulty(%q) = %q, want %q", input, got, want)
		}
	}
}
