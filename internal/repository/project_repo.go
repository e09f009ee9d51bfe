package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillbeam-backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New()
	p.State = models.ProjectStateDraft

	query := `INSERT INTO projects (id, user_id, title, state)
		VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query, p.ID, p.UserID, p.Title, p.State).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p := &models.Project{}
	query := `SELECT id, user_id, title, state, created_at, updated_at
		FROM projects WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.Title, &p.State, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	query := `SELECT id, user_id, title, state, created_at, updated_at
		FROM projects WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.State, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) UpdateState(ctx context.Context, id uuid.UUID, state string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE projects SET state = $1, updated_at = NOW() WHERE id = $2", state, id)
	return err
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	return err
}

func (r *ProjectRepo) CreateSourceAsset(ctx context.Context, a *models.SourceAsset) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = "ready"
	}

	query := `INSERT INTO source_assets (id, project_id, source_type, raw_text, source_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		a.ID, a.ProjectID, a.SourceType, a.RawText, a.SourceHash, a.Status,
	).Scan(&a.CreatedAt)
}

func (r *ProjectRepo) LatestSourceAsset(ctx context.Context, projectID uuid.UUID) (*models.SourceAsset, error) {
	a := &models.SourceAsset{}
	query := `SELECT id, project_id, source_type, raw_text, source_hash, status, created_at
		FROM source_assets WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, projectID).Scan(
		&a.ID, &a.ProjectID, &a.SourceType, &a.RawText, &a.SourceHash, &a.Status, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
