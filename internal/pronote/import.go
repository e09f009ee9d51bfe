// Package pronote parses PRONOTE/Moodle-style quiz XML exports into
// content items.
package pronote

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"skillbeam-backend/internal/models"
)

type quizXML struct {
	XMLName   xml.Name      `xml:"quiz"`
	Questions []questionXML `xml:"question"`
}

type questionXML struct {
	Type         string           `xml:"type,attr"`
	QuestionText textNodeXML      `xml:"questiontext"`
	Answers      []answerXML      `xml:"answer"`
	SubQuestions []subquestionXML `xml:"subquestion"`
}

type textNodeXML struct {
	Text string `xml:"text"`
}

type answerXML struct {
	Fraction string `xml:"fraction,attr"`
	Text     string `xml:"text"`
}

type subquestionXML struct {
	Text   string    `xml:"text"`
	Answer answerXML `xml:"answer"`
}

// ImportResult is the outcome of one XML parse: the items to append and
// a per-type breakdown for the import run stats.
type ImportResult struct {
	Items  []models.ContentItem
	ByType map[string]int
	Total  int
}

// Skipped counts questions that could not be mapped to an item.
func (r *ImportResult) Skipped() int {
	return r.Total - len(r.Items)
}

var (
	multichoiceTokenPattern = regexp.MustCompile(`(?i)\{:MULTICHOICE:([^}]*)\}`)
	tokenOptionPattern      = regexp.MustCompile(`^%\s*([-+]?\d+(?:\.\d+)?)\s*%(.*)$`)
)

// Parse converts quiz XML into content items. Supported question types:
// multichoice (mapped to mcq, or poll when several answers are fully
// correct), matching, cloze, shortanswer and numerical (both mapped to
// open questions). Category entries and unsupported types are skipped.
func Parse(xmlContent string) (*ImportResult, error) {
	var quiz quizXML
	if err := xml.Unmarshal([]byte(xmlContent), &quiz); err != nil {
		return nil, fmt.Errorf("invalid PRONOTE XML: %w", err)
	}

	result := &ImportResult{
		Items:  make([]models.ContentItem, 0, len(quiz.Questions)),
		ByType: make(map[string]int),
	}
	for _, question := range quiz.Questions {
		qtype := strings.ToLower(strings.TrimSpace(question.Type))
		if qtype == "category" {
			continue
		}
		result.Total++
		if qtype == "" {
			continue
		}
		prompt := strings.TrimSpace(question.QuestionText.Text)
		if prompt == "" {
			continue
		}

		switch qtype {
		case "multichoice":
			result.add(parseMultichoice(prompt, question.Answers))
		case "matching":
			result.add(parseMatching(prompt, question.SubQuestions))
		case "cloze":
			result.add(parseCloze(prompt))
		case "shortanswer", "numerical":
			result.add(parseShortAnswer(prompt, qtype, question.Answers))
		}
	}
	return result, nil
}

func (r *ImportResult) add(item models.ContentItem) {
	item.Position = len(r.Items)
	r.Items = append(r.Items, item)
	r.ByType[item.ItemType]++
}

func parseMultichoice(prompt string, answers []answerXML) models.ContentItem {
	correct := make([]string, 0, len(answers))
	incorrect := make([]string, 0, len(answers))
	for _, answer := range answers {
		text := strings.TrimSpace(answer.Text)
		if text == "" {
			continue
		}
		fraction := strings.TrimSpace(answer.Fraction)
		if fraction == "100" || fraction == "100.0" {
			correct = append(correct, text)
		} else {
			incorrect = append(incorrect, text)
		}
	}

	if len(correct) > 1 {
		return models.ContentItem{
			ItemType:      models.ItemTypePoll,
			Prompt:        prompt,
			AnswerOptions: append(correct, incorrect...),
			Distractors:   []string{},
			Tags:          []string{"import_pronote", "multiple_choice"},
			Difficulty:    "medium",
			Feedback:      "Import Pronote multichoix",
		}
	}
	var correctAnswer string
	if len(correct) == 1 {
		correctAnswer = correct[0]
	}
	return models.ContentItem{
		ItemType:      models.ItemTypeMCQ,
		Prompt:        prompt,
		CorrectAnswer: correctAnswer,
		Distractors:   incorrect,
		AnswerOptions: []string{},
		Tags:          []string{"import_pronote", "single_choice"},
		Difficulty:    "medium",
		Feedback:      "Import Pronote multichoice",
	}
}

func parseMatching(prompt string, subs []subquestionXML) models.ContentItem {
	pairs := make([]string, 0, len(subs))
	for _, sub := range subs {
		left := strings.TrimSpace(sub.Text)
		right := strings.TrimSpace(sub.Answer.Text)
		if left != "" && right != "" {
			pairs = append(pairs, left+" -> "+right)
		}
	}
	return models.ContentItem{
		ItemType:      models.ItemTypeMatching,
		Prompt:        prompt,
		CorrectAnswer: strings.Join(pairs, "\n"),
		Distractors:   []string{},
		AnswerOptions: pairs,
		Tags:          []string{"import_pronote", "matching"},
		Difficulty:    "medium",
		Feedback:      "Import Pronote association",
	}
}

func parseCloze(prompt string) models.ContentItem {
	normalizedPrompt, expected, distractors := ExtractClozeAnswers(prompt)
	if normalizedPrompt == "" {
		normalizedPrompt = prompt
	}
	if len(distractors) > 8 {
		distractors = distractors[:8]
	}
	return models.ContentItem{
		ItemType:      models.ItemTypeCloze,
		Prompt:        normalizedPrompt,
		CorrectAnswer: strings.Join(expected, " || "),
		Distractors:   distractors,
		AnswerOptions: []string{},
		Tags:          []string{"import_pronote", "cloze"},
		Difficulty:    "medium",
		Feedback:      "Import Pronote texte a trous",
	}
}

func parseShortAnswer(prompt, qtype string, answers []answerXML) models.ContentItem {
	accepted := make([]string, 0, len(answers))
	for _, answer := range answers {
		if text := strings.TrimSpace(answer.Text); text != "" {
			accepted = append(accepted, text)
		}
	}
	return models.ContentItem{
		ItemType:      models.ItemTypeOpenQuestion,
		Prompt:        prompt,
		CorrectAnswer: strings.Join(accepted, " || "),
		Distractors:   []string{},
		AnswerOptions: []string{},
		Tags:          []string{"import_pronote", qtype},
		Difficulty:    "medium",
		Feedback:      "Import Pronote reponse saisie",
	}
}

// ExtractClozeAnswers pulls expected answers and distractors out of
// inline {:MULTICHOICE:%100%bonne#~%0%mauvaise} tokens and replaces
// each token with a "____" blank. Expected answers keep duplicates and
// order; distractors are deduplicated.
func ExtractClozeAnswers(prompt string) (string, []string, []string) {
	expected := make([]string, 0, 4)
	distractors := make([]string, 0, 4)

	for _, match := range multichoiceTokenPattern.FindAllStringSubmatch(prompt, -1) {
		for _, fragment := range strings.Split(match[1], "#~") {
			option := tokenOptionPattern.FindStringSubmatch(strings.TrimSpace(fragment))
			if option == nil {
				continue
			}
			fraction, err := strconv.ParseFloat(option[1], 64)
			if err != nil {
				fraction = 0
			}
			value := strings.TrimSpace(option[2])
			if value == "" {
				continue
			}
			if fraction > 0 {
				expected = append(expected, value)
			} else {
				distractors = append(distractors, value)
			}
		}
	}

	normalizedPrompt := strings.TrimSpace(multichoiceTokenPattern.ReplaceAllString(prompt, "____"))
	return normalizedPrompt, expected, dedupeFold(distractors)
}

func dedupeFold(values []string) []string {
	seen := make(map[string]bool, len(values))
	deduped := make([]string, 0, len(values))
	for _, value := range values {
		key := strings.ToLower(value)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, value)
	}
	return deduped
}
