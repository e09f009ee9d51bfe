package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillbeam-backend/internal/models"
)

type VersionRepo struct {
	pool *pgxpool.Pool
}

func NewVersionRepo(pool *pgxpool.Pool) *VersionRepo {
	return &VersionRepo{pool: pool}
}

// Snapshot stores a new version of a content set's items, numbered one
// past the current highest.
func (r *VersionRepo) Snapshot(ctx context.Context, contentSetID uuid.UUID, label string, items []models.ContentItem) (*models.QuestionBankVersion, error) {
	snapshot, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	v := &models.QuestionBankVersion{
		ID:           uuid.New(),
		ContentSetID: contentSetID,
		Label:        label,
		SnapshotJSON: snapshot,
	}

	query := `INSERT INTO question_bank_versions (id, content_set_id, version_num, label, snapshot_json)
		VALUES ($1, $2,
			COALESCE((SELECT MAX(version_num) FROM question_bank_versions WHERE content_set_id = $2), 0) + 1,
			$3, $4)
		RETURNING version_num, created_at`

	err = r.pool.QueryRow(ctx, query, v.ID, contentSetID, v.Label, snapshot).
		Scan(&v.VersionNum, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VersionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QuestionBankVersion, error) {
	v := &models.QuestionBankVersion{}
	query := `SELECT id, content_set_id, version_num, COALESCE(label, ''), snapshot_json, created_at
		FROM question_bank_versions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.ContentSetID, &v.VersionNum, &v.Label, &v.SnapshotJSON, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListByContentSet returns version metadata newest first, without the
// snapshots themselves.
func (r *VersionRepo) ListByContentSet(ctx context.Context, contentSetID uuid.UUID) ([]models.QuestionBankVersion, error) {
	query := `SELECT id, content_set_id, version_num, COALESCE(label, ''), created_at
		FROM question_bank_versions WHERE content_set_id = $1 ORDER BY version_num DESC`

	rows, err := r.pool.Query(ctx, query, contentSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]models.QuestionBankVersion, 0)
	for rows.Next() {
		var v models.QuestionBankVersion
		if err := rows.Scan(&v.ID, &v.ContentSetID, &v.VersionNum, &v.Label, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *VersionRepo) CountByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM question_bank_versions v
		JOIN content_sets cs ON cs.id = v.content_set_id
		WHERE cs.project_id = $1`, projectID).Scan(&count)
	return count, err
}

func (r *VersionRepo) CreateImportRun(ctx context.Context, run *models.PronoteImportRun) error {
	run.ID = uuid.New()

	statsBytes := []byte(run.StatsJSON)
	if len(statsBytes) == 0 {
		statsBytes = []byte("{}")
	}

	query := `INSERT INTO pronote_import_runs (id, project_id, content_set_id, filename, stats_json)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		run.ID, run.ProjectID, run.ContentSetID, run.Filename, statsBytes,
	).Scan(&run.CreatedAt)
}

func (r *VersionRepo) CountImportRunsByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM pronote_import_runs WHERE project_id = $1", projectID).Scan(&count)
	return count, err
}
