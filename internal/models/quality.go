package models

import "github.com/google/uuid"

// Quality preview readiness levels.
const (
	ReadinessReady        = "ready"
	ReadinessReviewNeeded = "review_needed"
	ReadinessBlocked      = "blocked"
)

type QualityIssue struct {
	Code      string    `json:"code"`
	Severity  string    `json:"severity"` // "critical" | "major" | "minor"
	Message   string    `json:"message"`
	ItemID    uuid.UUID `json:"item_id"`
	ItemIndex int       `json:"item_index"`
}

type QualityMetrics struct {
	ItemsTotal             int            `json:"items_total"`
	ItemTypes              map[string]int `json:"item_types"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution"`
	CriticalIssues         int            `json:"critical_issues"`
	MajorIssues            int            `json:"major_issues"`
	MinorIssues            int            `json:"minor_issues"`
}

type QualityPreviewResponse struct {
	ProjectID    uuid.UUID      `json:"project_id"`
	ContentSetID uuid.UUID      `json:"content_set_id"`
	OverallScore int            `json:"overall_score"`
	Readiness    string         `json:"readiness"`
	Metrics      QualityMetrics `json:"metrics"`
	Issues       []QualityIssue `json:"issues"`
}
