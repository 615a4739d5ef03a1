// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/compass/models"
)

const iconColumns = `id, name, external_id, description, image_url, score_economic,
	score_authority, score_social, score_foreign, score_religion, total_answers,
	is_active, created_by, created_at, scores_updated_at`

func scanIcon(row scanner) (models.Icon, error) {
	var (
		icon                    models.Icon
		externalID, desc, image sql.NullString
		scoresUpdatedAt         sql.NullTime
	)
	err := row.Scan(&icon.ID, &icon.Name, &externalID, &desc, &image,
		&icon.Scores.Economic, &icon.Scores.Authority, &icon.Scores.Social,
		&icon.Scores.Foreign, &icon.Scores.Religion, &icon.TotalAnswers,
		&icon.IsActive, &icon.CreatedBy, &icon.CreatedAt, &scoresUpdatedAt)
	if err != nil {
		return icon, err
	}
	icon.ExternalID = externalID.String
	icon.Description = desc.String
	icon.ImageURL = image.String
	if scoresUpdatedAt.Valid {
		t := scoresUpdatedAt.Time
		icon.ScoresUpdatedAt = &t
	}
	return icon, nil
}

func (q *Queries) InsertIcon(ctx context.Context, icon models.Icon) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO icon (id, name, external_id, description, image_url, is_active, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, icon.ID, icon.Name, nullString(icon.ExternalID), nullString(icon.Description),
		nullString(icon.ImageURL), icon.IsActive, icon.CreatedBy, icon.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert icon: %w", err)
	}
	return nil
}

func (q *Queries) GetIcon(ctx context.Context, id string) (models.Icon, error) {
	icon, err := scanIcon(q.q.QueryRowContext(ctx, `
		SELECT `+iconColumns+` FROM icon WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Icon{}, ErrNotFound
	}
	if err != nil {
		return models.Icon{}, fmt.Errorf("failed to query icon: %w", err)
	}
	return icon, nil
}

// ListIcons returns active icons ordered by name.
func (q *Queries) ListIcons(ctx context.Context) ([]models.Icon, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+iconColumns+` FROM icon WHERE is_active = TRUE ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query icons: %w", err)
	}
	defer rows.Close()

	icons := []models.Icon{}
	for rows.Next() {
		icon, err := scanIcon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan icon: %w", err)
		}
		icons = append(icons, icon)
	}
	return icons, rows.Err()
}

// UpdateIconScores overwrites the cached scores. Last write wins.
func (q *Queries) UpdateIconScores(ctx context.Context, id string, scores models.AxisScores, totalAnswers int, at time.Time) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE icon
		SET score_economic = $1, score_authority = $2, score_social = $3,
		    score_foreign = $4, score_religion = $5, total_answers = $6,
		    scores_updated_at = $7
		WHERE id = $8
	`, scores.Economic, scores.Authority, scores.Social, scores.Foreign, scores.Religion,
		totalAnswers, at, id)
	if err != nil {
		return fmt.Errorf("failed to update icon scores: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateIcon soft-deletes an icon. Returns false if it was already inactive.
func (q *Queries) DeactivateIcon(ctx context.Context, id string) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE icon SET is_active = FALSE WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate icon: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListActiveIconIDs returns the ids of every active icon.
func (q *Queries) ListActiveIconIDs(ctx context.Context) ([]string, error) {
	return q.listIDs(ctx, `SELECT id FROM icon WHERE is_active = TRUE ORDER BY id`)
}

// ListIconIDsAnswering returns active icons holding an active accepted
// answer to the question, or any active answer when acceptedOnly is false.
func (q *Queries) ListIconIDsAnswering(ctx context.Context, questionID string, acceptedOnly bool) ([]string, error) {
	query := `
		SELECT DISTINCT a.icon_id
		FROM icon_answer a
		JOIN icon i ON i.id = a.icon_id
		WHERE a.question_id = $1 AND a.is_active = TRUE AND i.is_active = TRUE`
	if acceptedOnly {
		query += ` AND a.is_accepted = TRUE`
	}
	query += ` ORDER BY a.icon_id`
	return q.listIDs(ctx, query, questionID)
}

func (q *Queries) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
