package reconcile

import (
	"fmt"
	"regexp"

	"skillbeam-backend/internal/models"
)

// Blank markers accepted in cloze prompts: underscore runs, the three
// bracketed "blank" spellings, and Moodle inline MULTICHOICE blocks.
var clozeHolePattern = regexp.MustCompile(`(?i)_{2,}|\{\{\s*blank\s*\}\}|\[\s*blank\s*\]|\(\s*blank\s*\)|\{:MULTICHOICE:[^}]*\}`)

// CountClozeHoles returns the number of blanks detected in the prompt,
// never less than 1: a cloze item always has at least one conceptual
// blank even when the author has not typed the marker yet.
func CountClozeHoles(prompt string) int {
	if count := len(clozeHolePattern.FindAllStringIndex(prompt, -1)); count > 0 {
		return count
	}
	return 1
}

// BuildClozeExpectedAnswers derives one expected answer per blank, in
// prompt order. Answers come from correct_answer first (duplicates and
// order preserved), then backfill from the option and distractor pools,
// then synthesized "motN" placeholders. The result length always equals
// CountClozeHoles(prompt).
func BuildClozeExpectedAnswers(item models.ContentItem) []string {
	answers := splitAnswerList(item.CorrectAnswer)
	holes := CountClozeHoles(item.Prompt)

	if len(answers) < holes {
		seen := make(map[string]bool, len(answers))
		for _, answer := range answers {
			seen[foldText(answer)] = true
		}
		pool := make([]string, 0, len(item.AnswerOptions)+len(item.Distractors))
		pool = append(pool, item.AnswerOptions...)
		pool = append(pool, item.Distractors...)
		for _, candidate := range dedupeStrings(pool) {
			if len(answers) >= holes {
				break
			}
			key := foldText(candidate)
			if seen[key] {
				continue
			}
			seen[key] = true
			answers = append(answers, candidate)
		}
	}
	for len(answers) < holes {
		answers = append(answers, fmt.Sprintf("mot%d", len(answers)+1))
	}
	return answers[:holes]
}

// BuildClozePatch serializes answers back onto the item, padded or
// truncated to exactly the detected hole count. Word-bank fields are
// left untouched.
func BuildClozePatch(item models.ContentItem, answers []string) models.ContentItem {
	holes := CountClozeHoles(item.Prompt)
	cleaned := splitNonEmpty(answers)
	for len(cleaned) < holes {
		cleaned = append(cleaned, fmt.Sprintf("mot%d", len(cleaned)+1))
	}
	item.CorrectAnswer = joinAnswers(cleaned[:holes])
	return item
}

// SetClozeAnswer replaces the expected answer for one blank, preserving
// the others. Out-of-range indexes are a no-op.
func SetClozeAnswer(item models.ContentItem, index int, value string) models.ContentItem {
	answers := BuildClozeExpectedAnswers(item)
	if index < 0 || index >= len(answers) {
		return item
	}
	answers[index] = value
	return BuildClozePatch(item, answers)
}

// ParseWordBank splits a free-text word bank on ";", "||" or newlines
// and deduplicates case-insensitively.
func ParseWordBank(raw string) []string {
	return dedupeStrings(splitAnswerList(raw))
}

// ApplyWordBank writes a parsed word bank to both distractors and
// answer options. The two fields are mirrors for cloze items; keeping
// the copy here means callers never mutate one without the other.
func ApplyWordBank(item models.ContentItem, raw string) models.ContentItem {
	entries := ParseWordBank(raw)
	item.Distractors = append(make([]string, 0, len(entries)), entries...)
	item.AnswerOptions = append(make([]string, 0, len(entries)), entries...)
	return item
}
