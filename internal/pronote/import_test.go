package pronote

import (
	"strings"
	"testing"

	"skillbeam-backend/internal/models"
)

const sampleQuiz = `<?xml version="1.0" encoding="UTF-8"?>
<quiz>
  <question type="category">
    <category><text>$course$/Defaut</text></category>
  </question>
  <question type="multichoice">
    <questiontext format="html"><text>Quelle est la capitale de la France?</text></questiontext>
    <answer fraction="100"><text>Paris</text></answer>
    <answer fraction="0"><text>Lyon</text></answer>
    <answer fraction="0"><text>Nice</text></answer>
  </question>
  <question type="multichoice">
    <questiontext format="html"><text>Cochez les nombres pairs</text></questiontext>
    <answer fraction="100"><text>2</text></answer>
    <answer fraction="100"><text>4</text></answer>
    <answer fraction="0"><text>3</text></answer>
  </question>
  <question type="matching">
    <questiontext format="html"><text>Associez chaque notion</text></questiontext>
    <subquestion><text>Mitose</text><answer><text>Division cellulaire</text></answer></subquestion>
    <subquestion><text>Meiose</text><answer><text>Division reproductrice</text></answer></subquestion>
  </question>
  <question type="cloze">
    <questiontext format="html"><text>Paris est {:MULTICHOICE:%100%une ville#~%0%un pays} de France</text></questiontext>
  </question>
  <question type="shortanswer">
    <questiontext format="html"><text>Citez un fleuve francais</text></questiontext>
    <answer fraction="100"><text>Loire</text></answer>
    <answer fraction="100"><text>Seine</text></answer>
  </question>
</quiz>`

func TestParseFullQuiz(t *testing.T) {
	result, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 5 {
		t.Fatalf("expected 5 items (category skipped), got %d", len(result.Items))
	}

	wantByType := map[string]int{
		models.ItemTypeMCQ:          1,
		models.ItemTypePoll:         1,
		models.ItemTypeMatching:     1,
		models.ItemTypeCloze:        1,
		models.ItemTypeOpenQuestion: 1,
	}
	for itemType, count := range wantByType {
		if result.ByType[itemType] != count {
			t.Fatalf("expected %d %s items, got %d", count, itemType, result.ByType[itemType])
		}
	}

	for i, item := range result.Items {
		if item.Position != i {
			t.Fatalf("expected contiguous positions, item %d has %d", i, item.Position)
		}
	}
}

func TestParseSingleCorrectMultichoice(t *testing.T) {
	result, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mcq := result.Items[0]
	if mcq.ItemType != models.ItemTypeMCQ {
		t.Fatalf("expected mcq, got %q", mcq.ItemType)
	}
	if mcq.CorrectAnswer != "Paris" {
		t.Fatalf("expected Paris, got %q", mcq.CorrectAnswer)
	}
	if len(mcq.Distractors) != 2 {
		t.Fatalf("expected 2 distractors, got %v", mcq.Distractors)
	}
	if !mcq.HasTag("import_pronote") || !mcq.HasTag("single_choice") {
		t.Fatalf("unexpected tags: %v", mcq.Tags)
	}
}

func TestParseMultiCorrectBecomesPoll(t *testing.T) {
	result, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	poll := result.Items[1]
	if poll.ItemType != models.ItemTypePoll {
		t.Fatalf("expected poll for multiple 100%% answers, got %q", poll.ItemType)
	}
	if len(poll.AnswerOptions) != 3 {
		t.Fatalf("expected all options kept, got %v", poll.AnswerOptions)
	}
	if poll.CorrectAnswer != "" {
		t.Fatalf("expected empty correct answer on poll, got %q", poll.CorrectAnswer)
	}
	if !poll.HasTag("multiple_choice") {
		t.Fatalf("expected multiple_choice tag, got %v", poll.Tags)
	}
}

func TestParseMatchingPairs(t *testing.T) {
	result, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matching := result.Items[2]
	if matching.ItemType != models.ItemTypeMatching {
		t.Fatalf("expected matching, got %q", matching.ItemType)
	}
	want := "Mitose -> Division cellulaire\nMeiose -> Division reproductrice"
	if matching.CorrectAnswer != want {
		t.Fatalf("expected %q, got %q", want, matching.CorrectAnswer)
	}
	if len(matching.AnswerOptions) != 2 {
		t.Fatalf("expected mirrored pair lines, got %v", matching.AnswerOptions)
	}
}

func TestParseClozeNormalizesPrompt(t *testing.T) {
	result, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cloze := result.Items[3]
	if cloze.ItemType != models.ItemTypeCloze {
		t.Fatalf("expected cloze, got %q", cloze.ItemType)
	}
	if cloze.Prompt != "Paris est ____ de France" {
		t.Fatalf("expected token replaced with blank, got %q", cloze.Prompt)
	}
	if cloze.CorrectAnswer != "une ville" {
		t.Fatalf("expected correct answer from token, got %q", cloze.CorrectAnswer)
	}
	if len(cloze.Distractors) != 1 || cloze.Distractors[0] != "un pays" {
		t.Fatalf("expected wrong token option as distractor, got %v", cloze.Distractors)
	}
}

func TestParseShortAnswerJoinsAccepted(t *testing.T) {
	result, err := Parse(sampleQuiz)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	open := result.Items[4]
	if open.ItemType != models.ItemTypeOpenQuestion {
		t.Fatalf("expected open question, got %q", open.ItemType)
	}
	if open.CorrectAnswer != "Loire || Seine" {
		t.Fatalf("expected joined accepted answers, got %q", open.CorrectAnswer)
	}
}

func TestParseRejectsInvalidXML(t *testing.T) {
	if _, err := Parse("<quiz><question"); err == nil {
		t.Fatalf("expected error for malformed XML")
	}
	if _, err := Parse("<lesson></lesson>"); err == nil {
		t.Fatalf("expected error for wrong root element")
	}
}

func TestExtractClozeAnswersMultipleTokens(t *testing.T) {
	prompt := "Le {:MULTICHOICE:%100%chat#~%0%chien} et le {:MULTICHOICE:%100%chat#~%0%poisson} dorment"
	normalized, expected, distractors := ExtractClozeAnswers(prompt)

	if !strings.Contains(normalized, "____ et le ____") {
		t.Fatalf("expected both tokens replaced, got %q", normalized)
	}
	if len(expected) != 2 || expected[0] != "chat" || expected[1] != "chat" {
		t.Fatalf("expected duplicate answers preserved, got %v", expected)
	}
	if len(distractors) != 2 {
		t.Fatalf("expected deduplicated distractors, got %v", distractors)
	}
}
