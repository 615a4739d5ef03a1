// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/compass/models"
)

const answerColumns = `id, icon_id, question_id, answer, answer_value, sources, reasoning,
	submitted_by, upvotes, downvotes, net_votes, is_accepted, is_active, created_at, updated_at`

// ranking order used by acceptance selection
const answerRanking = `net_votes DESC, created_at ASC, id ASC`

func scanAnswer(row scanner) (models.IconAnswer, error) {
	var (
		a         models.IconAnswer
		sources   string
		reasoning sql.NullString
	)
	err := row.Scan(&a.ID, &a.IconID, &a.QuestionID, &a.Answer, &a.AnswerValue, &sources,
		&reasoning, &a.SubmittedBy, &a.Upvotes, &a.Downvotes, &a.NetVotes, &a.IsAccepted,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.Reasoning = reasoning.String
	a.Sources = []models.Source{}
	if sources != "" {
		if err := json.Unmarshal([]byte(sources), &a.Sources); err != nil {
			return a, fmt.Errorf("failed to decode sources for answer %s: %w", a.ID, err)
		}
	}
	return a, nil
}

func scanAnswers(rows *sql.Rows) ([]models.IconAnswer, error) {
	defer rows.Close()

	answers := []models.IconAnswer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func encodeSources(sources []models.Source) (string, error) {
	if sources == nil {
		sources = []models.Source{}
	}
	b, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode sources: %w", err)
	}
	return string(b), nil
}

func (q *Queries) InsertAnswer(ctx context.Context, a models.IconAnswer) error {
	sources, err := encodeSources(a.Sources)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		INSERT INTO icon_answer (id, icon_id, question_id, answer, answer_value, sources, reasoning,
		                         submitted_by, upvotes, downvotes, net_votes, is_accepted, is_active,
		                         created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, a.ID, a.IconID, a.QuestionID, a.Answer, a.AnswerValue, sources, nullString(a.Reasoning),
		a.SubmittedBy, a.Upvotes, a.Downvotes, a.NetVotes, a.IsAccepted, a.IsActive,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

func (q *Queries) GetAnswer(ctx context.Context, id string) (models.IconAnswer, error) {
	a, err := scanAnswer(q.q.QueryRowContext(ctx, `
		SELECT `+answerColumns+` FROM icon_answer WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.IconAnswer{}, ErrNotFound
	}
	if err != nil {
		return models.IconAnswer{}, fmt.Errorf("failed to query answer: %w", err)
	}
	return a, nil
}

// LockPair takes row locks on every answer of an (icon, question) pair, in id
// order, for the rest of the transaction.
func (q *Queries) LockPair(ctx context.Context, iconID, questionID string) error {
	if q.dialect != Postgres {
		return nil
	}
	rows, err := q.q.QueryContext(ctx, `
		SELECT id FROM icon_answer
		WHERE icon_id = $1 AND question_id = $2
		ORDER BY id`+q.forUpdate(), iconID, questionID)
	if err != nil {
		return fmt.Errorf("failed to lock answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan locked answer: %w", err)
		}
	}
	return rows.Err()
}

// ListPairAnswers returns the active answers of a pair in ranking order:
// net votes descending, then earliest created.
func (q *Queries) ListPairAnswers(ctx context.Context, iconID, questionID string) ([]models.IconAnswer, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+answerColumns+` FROM icon_answer
		WHERE icon_id = $1 AND question_id = $2 AND is_active = TRUE
		ORDER BY `+answerRanking, iconID, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pair answers: %w", err)
	}
	return scanAnswers(rows)
}

// ListIconAnswers returns all active answers of an icon grouped by question.
func (q *Queries) ListIconAnswers(ctx context.Context, iconID string) ([]models.IconAnswer, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+answerColumns+` FROM icon_answer
		WHERE icon_id = $1 AND is_active = TRUE
		ORDER BY question_id, `+answerRanking, iconID)
	if err != nil {
		return nil, fmt.Errorf("failed to query icon answers: %w", err)
	}
	return scanAnswers(rows)
}

func (q *Queries) UpdateAnswerTallies(ctx context.Context, id string, upvotes, downvotes int, at time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE icon_answer
		SET upvotes = $1, downvotes = $2, net_votes = $3, updated_at = $4
		WHERE id = $5
	`, upvotes, downvotes, upvotes-downvotes, at, id)
	if err != nil {
		return fmt.Errorf("failed to update answer tallies: %w", err)
	}
	return nil
}

func (q *Queries) SetAnswerAccepted(ctx context.Context, id string, accepted bool, at time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE icon_answer SET is_accepted = $1, updated_at = $2 WHERE id = $3
	`, accepted, at, id)
	if err != nil {
		return fmt.Errorf("failed to set answer acceptance: %w", err)
	}
	return nil
}

// UpdateAnswerContent rewrites the submitter-editable fields.
func (q *Queries) UpdateAnswerContent(ctx context.Context, a models.IconAnswer) error {
	sources, err := encodeSources(a.Sources)
	if err != nil {
		return err
	}
	_, err = q.q.ExecContext(ctx, `
		UPDATE icon_answer
		SET answer = $1, answer_value = $2, sources = $3, reasoning = $4, updated_at = $5
		WHERE id = $6
	`, a.Answer, a.AnswerValue, sources, nullString(a.Reasoning), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update answer: %w", err)
	}
	return nil
}

// DeactivateAnswer soft-deletes one answer and drops its acceptance.
func (q *Queries) DeactivateAnswer(ctx context.Context, id string, at time.Time) error {
	_, err := q.q.ExecContext(ctx, `
		UPDATE icon_answer SET is_active = FALSE, is_accepted = FALSE, updated_at = $1 WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate answer: %w", err)
	}
	return nil
}

// DeactivateIconAnswers soft-deletes every answer of an icon unless it is
// already inactive. Returns the number of answers deactivated.
func (q *Queries) DeactivateIconAnswers(ctx context.Context, iconID string, at time.Time) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE icon_answer SET is_active = FALSE, updated_at = $1
		WHERE icon_id = $2 AND is_active = TRUE
	`, at, iconID)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate icon answers: %w", err)
	}
	return res.RowsAffected()
}

// HasAlternativeAnswer reports whether userID holds an active answer for the
// pair other than excludeID.
func (q *Queries) HasAlternativeAnswer(ctx context.Context, userID, iconID, questionID, excludeID string) (bool, error) {
	var exists bool
	err := q.q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM icon_answer
			WHERE submitted_by = $1 AND icon_id = $2 AND question_id = $3
			  AND is_active = TRUE AND id <> $4
		)
	`, userID, iconID, questionID, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check alternative answer: %w", err)
	}
	return exists, nil
}

// CountAccepted counts active accepted answers for a pair.
func (q *Queries) CountAccepted(ctx context.Context, iconID, questionID string) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM icon_answer
		WHERE icon_id = $1 AND question_id = $2 AND is_active = TRUE AND is_accepted = TRUE
	`, iconID, questionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted answers: %w", err)
	}
	return n, nil
}

// AcceptedAnswer is an accepted icon answer joined with its question.
type AcceptedAnswer struct {
	AnswerID    string
	AnswerValue int
	Question    models.Question
}

// ListAcceptedAnswers returns the active accepted answers of an icon whose
// questions are still active.
func (q *Queries) ListAcceptedAnswers(ctx context.Context, iconID string) ([]AcceptedAnswer, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT a.id, a.answer_value,
		       qu.id, qu.axis, qu.topic, qu.text, qu.direction, qu.weight_agree, qu.weight_disagree,
		       qu.weight, qu.is_active, qu.in_short_quiz, qu.created_at
		FROM icon_answer a
		JOIN question qu ON qu.id = a.question_id
		WHERE a.icon_id = $1 AND a.is_active = TRUE AND a.is_accepted = TRUE AND qu.is_active = TRUE
		ORDER BY qu.id
	`, iconID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted answers: %w", err)
	}
	defer rows.Close()

	var out []AcceptedAnswer
	for rows.Next() {
		var (
			aa AcceptedAnswer
			qu = &aa.Question
		)
		err := rows.Scan(&aa.AnswerID, &aa.AnswerValue, &qu.ID, &qu.Axis, &qu.Topic, &qu.Text,
			&qu.Direction, &qu.WeightAgree, &qu.WeightDisagree, &qu.Weight, &qu.IsActive,
			&qu.InShortQuiz, &qu.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accepted answer: %w", err)
		}
		out = append(out, aa)
	}
	return out, rows.Err()
}
