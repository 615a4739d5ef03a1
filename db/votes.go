// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/compass/models"
)

func (q *Queries) GetVote(ctx context.Context, userID, answerID string) (models.IconVote, error) {
	var (
		v                  models.IconVote
		title, url, detail sql.NullString
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT id, user_id, answer_id, vote_type, counter_title, counter_url,
		       counter_description, created_at, updated_at
		FROM icon_vote
		WHERE user_id = $1 AND answer_id = $2
	`, userID, answerID).Scan(&v.ID, &v.UserID, &v.AnswerID, &v.VoteType, &title, &url,
		&detail, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.IconVote{}, ErrNotFound
	}
	if err != nil {
		return models.IconVote{}, fmt.Errorf("failed to query vote: %w", err)
	}
	if title.Valid || url.Valid {
		v.CounterEvidence = &models.CounterEvidence{
			Title:       title.String,
			URL:         url.String,
			Description: detail.String,
		}
	}
	return v, nil
}

func counterColumns(ce *models.CounterEvidence) (title, url, detail sql.NullString) {
	if ce == nil {
		return
	}
	return nullString(ce.Title), nullString(ce.URL), nullString(ce.Description)
}

// InsertVote creates the vote record. The (user, answer) uniqueness
// constraint rejects a second record for the same pair.
func (q *Queries) InsertVote(ctx context.Context, v models.IconVote) error {
	title, url, detail := counterColumns(v.CounterEvidence)
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO icon_vote (id, user_id, answer_id, vote_type, counter_title, counter_url,
		                       counter_description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, v.ID, v.UserID, v.AnswerID, v.VoteType, title, url, detail, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

// UpdateVote replaces the vote type and counter evidence in place.
func (q *Queries) UpdateVote(ctx context.Context, v models.IconVote) error {
	title, url, detail := counterColumns(v.CounterEvidence)
	_, err := q.q.ExecContext(ctx, `
		UPDATE icon_vote
		SET vote_type = $1, counter_title = $2, counter_url = $3, counter_description = $4,
		    updated_at = $5
		WHERE id = $6
	`, v.VoteType, title, url, detail, v.UpdatedAt, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	return nil
}

// CountVotes returns the number of vote records for an answer.
func (q *Queries) CountVotes(ctx context.Context, answerID string) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM icon_vote WHERE answer_id = $1
	`, answerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}
