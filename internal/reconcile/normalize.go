// Package reconcile keeps quiz items consistent between LLM generation
// output, the human editor and the exporters. All functions are pure and
// total: malformed input degrades to placeholders instead of returning
// errors.
package reconcile

import (
	"regexp"
	"strings"

	"skillbeam-backend/internal/models"
)

// Generated prompts frequently arrive with numbering left over from the
// model ("Question 3:", "Item #2 -", "7)"). Each pattern is applied
// repeatedly until the text stabilizes.
var questionPrefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*item\s*#?\s*\d{1,3}\s*[.:)\-]\s*`),
	regexp.MustCompile(`(?i)^\s*q\s*#?\s*\d{1,3}\s*(?:[.:)\-]\s*|\s+)`),
	regexp.MustCompile(`(?i)^\s*question\s*(?:ouverte|open|qcm|a\s*saisir|numerique|texte\s*a\s*trous|association|choix\s*multiple|choix\s*unique)?\s*#?\s*\d{1,3}\s*(?:[.:)\-]\s*|\s+)`),
	regexp.MustCompile(`(?i)^\s*texte\s*a\s*trous\s*#?\s*\d{1,3}\s*(?:[.:)\-]\s*|\s+)`),
	regexp.MustCompile(`(?i)^\s*association\s*#?\s*\d{1,3}\s*(?:[.:)\-]\s*|\s+)`),
	regexp.MustCompile(`^\s*\d{1,3}\s*[.:)\-]\s*`),
}

var (
	trailingCounterPattern = regexp.MustCompile(`\s*[(\[]\s*\d{1,3}\s*[)\]]\s*$`)
	answerLabelPattern     = regexp.MustCompile(`(?i)^\s*r[ée]ponses?\s*[:\-–]\s*`)
	answerSplitPattern     = regexp.MustCompile(`\s*(?:\|\||;;|;|\n)\s*`)
)

// StripQuestionPrefix removes leading numbering and labeling artifacts.
// It is idempotent: once no pattern matches, the text is returned as is.
func StripQuestionPrefix(text string) string {
	for {
		stripped := text
		for _, pattern := range questionPrefixPatterns {
			stripped = pattern.ReplaceAllString(stripped, "")
		}
		if stripped == text {
			return strings.TrimSpace(text)
		}
		text = stripped
	}
}

// StripTrailingCounter removes trailing bracketed counters such as
// "Paris (2)" left behind by deduplicating generators. Idempotent.
func StripTrailingCounter(text string) string {
	for {
		stripped := strings.TrimSpace(trailingCounterPattern.ReplaceAllString(text, ""))
		if stripped == text {
			return text
		}
		text = stripped
	}
}

// NormalizeAnswerText strips a leading "Réponse:" style label, then any
// trailing counter.
func NormalizeAnswerText(text string) string {
	return StripTrailingCounter(answerLabelPattern.ReplaceAllString(text, ""))
}

// NormalizeItems cleans prompts, answers and distractors across a whole
// collection and repairs missing positions. A payload that omits
// positions decodes every item to zero, so a position is also treated
// as missing when it is out of range or repeats one already taken.
// The input slice is not mutated.
func NormalizeItems(items []models.ContentItem) []models.ContentItem {
	normalized := make([]models.ContentItem, len(items))
	taken := make(map[int]bool, len(items))
	for i, item := range items {
		item.Prompt = StripQuestionPrefix(item.Prompt)
		item.CorrectAnswer = NormalizeAnswerText(item.CorrectAnswer)
		if len(item.Distractors) > 0 {
			cleaned := make([]string, len(item.Distractors))
			for j, distractor := range item.Distractors {
				cleaned[j] = NormalizeAnswerText(distractor)
			}
			item.Distractors = cleaned
		}
		if item.Position < 0 || item.Position >= len(items) || taken[item.Position] {
			item.Position = i
		}
		taken[item.Position] = true
		normalized[i] = item
	}
	return normalized
}

// ItemsNeedNormalization reports whether NormalizeItems changed anything
// that matters for display, so callers can skip redundant writes.
func ItemsNeedNormalization(before, after []models.ContentItem) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i].Prompt != after[i].Prompt || before[i].CorrectAnswer != after[i].CorrectAnswer {
			return true
		}
		if len(before[i].Distractors) != len(after[i].Distractors) {
			return true
		}
		for j := range before[i].Distractors {
			if before[i].Distractors[j] != after[i].Distractors[j] {
				return true
			}
		}
	}
	return false
}

// splitAnswerList splits a serialized answer string on "||", ";;", ";"
// or newlines, trimming parts and dropping empties. Duplicates are kept;
// callers that need a set run the result through dedupeStrings.
func splitAnswerList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := answerSplitPattern.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

const answerJoin = " || "

func joinAnswers(values []string) string {
	return strings.Join(values, answerJoin)
}

// splitNonEmpty trims every value and drops the empty ones, keeping
// order and duplicates.
func splitNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// dedupeStrings removes case-insensitive duplicates, keeping first-seen
// order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	deduped := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, trimmed)
	}
	return deduped
}
