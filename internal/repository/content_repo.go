package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"skillbeam-backend/internal/models"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) CreateSet(ctx context.Context, set *models.ContentSet) error {
	set.ID = uuid.New()
	if set.Status == "" {
		set.Status = "generated"
	}
	if set.Language == "" {
		set.Language = "fr"
	}
	if set.Level == "" {
		set.Level = "intermediate"
	}

	query := `INSERT INTO content_sets (id, project_id, status, language, level)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		set.ID, set.ProjectID, set.Status, set.Language, set.Level,
	).Scan(&set.CreatedAt)
}

func (r *ContentRepo) GetSet(ctx context.Context, id uuid.UUID) (*models.ContentSet, error) {
	set := &models.ContentSet{}
	query := `SELECT id, project_id, status, language, level, created_at
		FROM content_sets WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&set.ID, &set.ProjectID, &set.Status, &set.Language, &set.Level, &set.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (r *ContentRepo) LatestSet(ctx context.Context, projectID uuid.UUID) (*models.ContentSet, error) {
	set := &models.ContentSet{}
	query := `SELECT id, project_id, status, language, level, created_at
		FROM content_sets WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, projectID).Scan(
		&set.ID, &set.ProjectID, &set.Status, &set.Language, &set.Level, &set.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (r *ContentRepo) UpdateSetStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE content_sets SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	return err
}

func (r *ContentRepo) ListItems(ctx context.Context, contentSetID uuid.UUID) ([]models.ContentItem, error) {
	query := `SELECT id, item_type, prompt, correct_answer, distractors_json, answer_options_json,
			tags_json, difficulty, feedback, source_reference, position
		FROM items WHERE content_set_id = $1 ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, contentSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem
		var correctAnswer, feedback, sourceRef *string
		err := rows.Scan(
			&item.ID, &item.ItemType, &item.Prompt, &correctAnswer,
			&item.Distractors, &item.AnswerOptions, &item.Tags,
			&item.Difficulty, &feedback, &sourceRef, &item.Position,
		)
		if err != nil {
			return nil, err
		}
		if correctAnswer != nil {
			item.CorrectAnswer = *correctAnswer
		}
		if feedback != nil {
			item.Feedback = *feedback
		}
		if sourceRef != nil {
			item.SourceReference = *sourceRef
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceItems swaps the full item list of a content set in one
// transaction. Positions are reassigned from slice order.
func (r *ContentRepo) ReplaceItems(ctx context.Context, contentSetID uuid.UUID, items []models.ContentItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM items WHERE content_set_id = $1", contentSetID); err != nil {
		return err
	}

	query := `INSERT INTO items (id, content_set_id, item_type, prompt, correct_answer,
			distractors_json, answer_options_json, tags_json, difficulty, feedback, source_reference, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].Position = i

		_, err := tx.Exec(ctx, query,
			items[i].ID, contentSetID, items[i].ItemType, items[i].Prompt,
			items[i].CorrectAnswer, jsonArray(items[i].Distractors),
			jsonArray(items[i].AnswerOptions), jsonArray(items[i].Tags),
			items[i].Difficulty, items[i].Feedback, items[i].SourceReference, items[i].Position,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ContentRepo) CountItemsByProject(ctx context.Context, projectID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items i
		JOIN content_sets cs ON cs.id = i.content_set_id
		WHERE cs.project_id = $1`, projectID).Scan(&count)
	return count, err
}

// ItemCountsByProject aggregates item counts per column value (item_type
// or difficulty) across every content set of a project.
func (r *ContentRepo) ItemCountsByProject(ctx context.Context, projectID uuid.UUID, column string) (map[string]int, error) {
	query := `SELECT i.item_type, i.difficulty FROM items i
		JOIN content_sets cs ON cs.id = i.content_set_id
		WHERE cs.project_id = $1`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var itemType, difficulty string
		if err := rows.Scan(&itemType, &difficulty); err != nil {
			return nil, err
		}
		switch column {
		case "difficulty":
			counts[difficulty]++
		default:
			counts[itemType]++
		}
	}
	return counts, rows.Err()
}

// jsonArray marshals a string slice for a JSONB column, mapping nil to
// an empty array.
func jsonArray(values []string) []byte {
	if values == nil {
		return []byte("[]")
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return []byte("[]")
	}
	return encoded
}
