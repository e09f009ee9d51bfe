package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QuestionBankVersion is a frozen snapshot of a content set's items,
// captured on every save so an author can roll back a bad edit.
type QuestionBankVersion struct {
	ID           uuid.UUID       `json:"id"`
	ContentSetID uuid.UUID       `json:"content_set_id"`
	VersionNum   int             `json:"version_num"`
	Label        string          `json:"label,omitempty"`
	SnapshotJSON json.RawMessage `json:"snapshot,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type VersionCreateRequest struct {
	ContentSetID *uuid.UUID `json:"content_set_id,omitempty"`
	Label        string     `json:"label"`
}

type VersionRestoreRequest struct {
	VersionID uuid.UUID `json:"version_id"`
}

// PronoteImportRun records one XML import: where it came from and what
// it produced, so repeated imports stay auditable.
type PronoteImportRun struct {
	ID           uuid.UUID       `json:"id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	ContentSetID uuid.UUID       `json:"content_set_id"`
	Filename     string          `json:"filename"`
	StatsJSON    json.RawMessage `json:"stats"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PronoteImportStats summarizes one import run.
type PronoteImportStats struct {
	TotalQuestions int            `json:"total_questions"`
	Imported       int            `json:"imported"`
	Skipped        int            `json:"skipped"`
	ByType         map[string]int `json:"by_type"`
}
