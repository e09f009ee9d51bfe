package models

import (
	"time"

	"github.com/google/uuid"
)

// Project wizard states.
const (
	ProjectStateDraft     = "DRAFT"
	ProjectStateIngested  = "INGESTED"
	ProjectStateGenerated = "GENERATED"
	ProjectStateReviewed  = "REVIEWED"
	ProjectStateExported  = "EXPORTED"
)

type Project struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateProjectRequest struct {
	Title string `json:"title"`
}

// SourceAsset is the raw source payload for one ingestion origin. Document
// and audio/video parsing live in external services; this service accepts
// text and theme sources directly.
type SourceAsset struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"project_id"`
	SourceType string    `json:"source_type"` // "text" | "theme"
	RawText    *string   `json:"raw_text"`
	SourceHash *string   `json:"source_hash,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type SourceInitRequest struct {
	SourceType string `json:"source_type"`
	RawText    string `json:"raw_text"`
	Topic      string `json:"topic"`
}

type AnalyticsResponse struct {
	ProjectID            uuid.UUID      `json:"project_id"`
	TotalItems           int            `json:"total_items"`
	LatestContentSetID   *uuid.UUID     `json:"latest_content_set_id"`
	ByItemType           map[string]int `json:"by_item_type"`
	ByDifficulty         map[string]int `json:"by_difficulty"`
	JobsByStatus         map[string]int `json:"jobs_by_status"`
	ExportByFormat       map[string]int `json:"export_by_format"`
	QuestionBankVersions int            `json:"question_bank_versions"`
	PronoteImportRuns    int            `json:"pronote_import_runs"`
}
