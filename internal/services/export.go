package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"skillbeam-backend/internal/models"
	"skillbeam-backend/internal/repository"
)

// ExportService produces the canonical reconciled JSON artifact for a
// content set. Format-specific rendering (docx, pdf, moodle_xml, ...) is
// handled downstream by the exporter registry; every format consumes the
// same artifact.
type ExportService struct {
	contentRepo *repository.ContentRepo
	exportRepo  *repository.ExportRepo
	storagePath string
}

func NewExportService(contentRepo *repository.ContentRepo, exportRepo *repository.ExportRepo, storagePath string) *ExportService {
	return &ExportService{
		contentRepo: contentRepo,
		exportRepo:  exportRepo,
		storagePath: storagePath,
	}
}

type exportArtifact struct {
	ContentSetID uuid.UUID            `json:"content_set_id"`
	ProjectID    uuid.UUID            `json:"project_id"`
	Format       string               `json:"format"`
	ExportedAt   time.Time            `json:"exported_at"`
	Items        []models.ContentItem `json:"items"`
}

// RunExport executes one export job and records the artifact location.
func (s *ExportService) RunExport(ctx context.Context, exportJob *models.ExportJob) error {
	if !models.ExportFormats[exportJob.Format] {
		return &ValidationError{
			Fields: map[string]string{"format": fmt.Sprintf("unsupported export format: %s", exportJob.Format)},
		}
	}
	if exportJob.ContentSetID == nil {
		return &ValidationError{Fields: map[string]string{"content_set_id": "export job has no content set"}}
	}

	set, err := s.contentRepo.GetSet(ctx, *exportJob.ContentSetID)
	if err != nil {
		return fmt.Errorf("failed to load content set: %w", err)
	}
	items, err := s.contentRepo.ListItems(ctx, set.ID)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	if len(items) == 0 {
		return &ValidationError{Fields: map[string]string{"items": "content set has no items to export"}}
	}

	artifact := exportArtifact{
		ContentSetID: set.ID,
		ProjectID:    set.ProjectID,
		Format:       exportJob.Format,
		ExportedAt:   time.Now().UTC(),
		Items:        items,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	if err := os.MkdirAll(s.storagePath, 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}
	filename := fmt.Sprintf("export_%s_%s.json", exportJob.Format, exportJob.ID.String())
	objectKey := filepath.Join(s.storagePath, filename)
	if err := os.WriteFile(objectKey, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	return s.exportRepo.MarkCompleted(ctx, exportJob.ID, objectKey, "application/json", filename)
}
