package services

import (
	"strings"

	"github.com/google/uuid"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/reconcile"
)

// ComputeQualityPreview scores a content set for export readiness. The
// score starts at 100 and each detected issue subtracts a weight; any
// critical issue blocks export, any major one requests review.
func ComputeQualityPreview(projectID, contentSetID uuid.UUID, items []models.ContentItem) models.QualityPreviewResponse {
	issues := make([]models.QualityIssue, 0)
	byType := make(map[string]int)
	byDifficulty := make(map[string]int)
	score := 100

	addIssue := func(code, severity, message string, item models.ContentItem, index, penalty int) {
		score -= penalty
		issues = append(issues, models.QualityIssue{
			Code:      code,
			Severity:  severity,
			Message:   message,
			ItemID:    item.ID,
			ItemIndex: index,
		})
	}

	for i, item := range items {
		index := i + 1
		byType[item.ItemType]++
		difficulty := item.Difficulty
		if difficulty == "" {
			difficulty = "medium"
		}
		byDifficulty[difficulty]++

		prompt := strings.TrimSpace(item.Prompt)
		correct := strings.TrimSpace(item.CorrectAnswer)
		distractors := nonEmptyValues(item.Distractors)
		answerOptions := nonEmptyValues(item.AnswerOptions)

		if len(prompt) < 16 {
			addIssue("prompt_too_short", "major",
				"Enonce trop court pour une evaluation fiable.", item, index, 8)
		}
		if strings.TrimSpace(item.SourceReference) == "" {
			addIssue("missing_source_reference", "minor",
				"Reference source absente (section:...).", item, index, 3)
		}

		switch item.ItemType {
		case models.ItemTypeMCQ, models.ItemTypeCloze, models.ItemTypeOpenQuestion:
			if correct == "" {
				addIssue("missing_expected_answer", "critical",
					"Reponse attendue manquante.", item, index, 10)
			}
		}

		switch item.ItemType {
		case models.ItemTypeMCQ:
			if len(distractors) < 3 {
				addIssue("insufficient_distractors", "major",
					"Un QCM doit contenir au moins 3 distracteurs.", item, index, 8)
			}
			if hasDuplicateAnswers(correct, distractors) {
				addIssue("duplicate_answers", "minor",
					"Des reponses sont dupliquees (bonne reponse/distracteurs).", item, index, 4)
			}
		case models.ItemTypeCloze:
			if prompt != "" {
				holes := reconcile.CountClozeHoles(prompt)
				expected := len(splitExpectedAnswers(correct))
				if expected < holes {
					addIssue("cloze_missing_answers", "critical",
						"Texte a trous incomplet: des reponses manquent pour les trous detectes.",
						item, index, 10)
				}
			}
		case models.ItemTypePoll:
			if countDistinct(append(answerOptions, distractors...)) < 2 {
				addIssue("insufficient_poll_options", "major",
					"Choix multiple incomplet: au moins 2 options sont requises.", item, index, 8)
			}
		case models.ItemTypeMatching:
			if countMatchingPairs(correct) < 2 {
				addIssue("insufficient_matching_pairs", "critical",
					"Association incomplete: au moins 2 paires 'gauche -> droite' sont requises.",
					item, index, 10)
			}
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	metrics := models.QualityMetrics{
		ItemsTotal:             len(items),
		ItemTypes:              byType,
		DifficultyDistribution: byDifficulty,
	}
	readiness := models.ReadinessReady
	for _, issue := range issues {
		switch issue.Severity {
		case "critical":
			metrics.CriticalIssues++
		case "major":
			metrics.MajorIssues++
		case "minor":
			metrics.MinorIssues++
		}
	}
	if metrics.CriticalIssues > 0 {
		readiness = models.ReadinessBlocked
	} else if metrics.MajorIssues > 0 {
		readiness = models.ReadinessReviewNeeded
	}

	return models.QualityPreviewResponse{
		ProjectID:    projectID,
		ContentSetID: contentSetID,
		OverallScore: score,
		Readiness:    readiness,
		Metrics:      metrics,
		Issues:       issues,
	}
}

func nonEmptyValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitExpectedAnswers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ';' })
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		for _, chunk := range strings.Split(field, "||") {
			if trimmed := strings.TrimSpace(chunk); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	}
	return parts
}

func hasDuplicateAnswers(correct string, distractors []string) bool {
	all := distractors
	if correct != "" {
		all = append([]string{correct}, distractors...)
	}
	seen := make(map[string]bool, len(all))
	for _, value := range all {
		key := strings.ToLower(value)
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func countDistinct(values []string) int {
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		seen[strings.ToLower(value)] = true
	}
	return len(seen)
}

func countMatchingPairs(correct string) int {
	count := 0
	for _, fragment := range strings.FieldsFunc(correct, func(r rune) bool { return r == '\n' || r == ';' }) {
		if strings.Contains(fragment, "->") {
			count++
		}
	}
	return count
}
