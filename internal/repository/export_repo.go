package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillbeam-backend/internal/models"
)

type ExportRepo struct {
	pool *pgxpool.Pool
}

func NewExportRepo(pool *pgxpool.Pool) *ExportRepo {
	return &ExportRepo{pool: pool}
}

func (r *ExportRepo) Create(ctx context.Context, e *models.ExportJob, options map[string]string) error {
	e.ID = uuid.New()
	e.Status = models.JobStatusQueued

	optionsBytes, _ := json.Marshal(options)
	if options == nil {
		optionsBytes = []byte("{}")
	}

	query := `INSERT INTO export_jobs (id, project_id, content_set_id, format, options_json, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		e.ID, e.ProjectID, e.ContentSetID, e.Format, optionsBytes, e.Status,
	).Scan(&e.CreatedAt)
}

func (r *ExportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ExportJob, error) {
	e := &models.ExportJob{}
	query := `SELECT id, project_id, content_set_id, format, object_key, mime_type, filename, status, created_at, completed_at
		FROM export_jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.ProjectID, &e.ContentSetID, &e.Format, &e.ObjectKey,
		&e.MimeType, &e.Filename, &e.Status, &e.CreatedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *ExportRepo) MarkCompleted(ctx context.Context, id uuid.UUID, objectKey, mimeType, filename string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE export_jobs SET status = $1, object_key = $2, mime_type = $3, filename = $4,
			completed_at = $5, updated_at = NOW() WHERE id = $6`,
		models.JobStatusSucceeded, objectKey, mimeType, filename, time.Now(), id,
	)
	return err
}

func (r *ExportRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE export_jobs SET status = $1, updated_at = NOW() WHERE id = $2",
		models.JobStatusFailed, id,
	)
	return err
}

func (r *ExportRepo) CountByFormatForProject(ctx context.Context, projectID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT format, COUNT(*) FROM export_jobs WHERE project_id = $1 GROUP BY format", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var format string
		var count int
		if err := rows.Scan(&format, &count); err != nil {
			return nil, err
		}
		counts[format] = count
	}
	return counts, rows.Err()
}
