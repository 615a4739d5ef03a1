// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/compass/models"
)

const questionColumns = `id, axis, topic, text, direction, weight_agree, weight_disagree,
	weight, is_active, in_short_quiz, created_at`

func scanQuestion(row scanner) (models.Question, error) {
	var q models.Question
	err := row.Scan(&q.ID, &q.Axis, &q.Topic, &q.Text, &q.Direction, &q.WeightAgree,
		&q.WeightDisagree, &q.Weight, &q.IsActive, &q.InShortQuiz, &q.CreatedAt)
	return q, err
}

// QuestionFilter narrows ListQuestions. Zero value lists everything.
type QuestionFilter struct {
	ActiveOnly bool
	ShortOnly  bool
	IDs        []string
}

func (q *Queries) InsertQuestion(ctx context.Context, question models.Question) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO question (id, axis, topic, text, direction, weight_agree, weight_disagree,
		                      weight, is_active, in_short_quiz, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, question.ID, question.Axis, question.Topic, question.Text, question.Direction,
		question.WeightAgree, question.WeightDisagree, question.Weight, question.IsActive,
		question.InShortQuiz, question.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (q *Queries) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	question, err := scanQuestion(q.q.QueryRowContext(ctx, `
		SELECT `+questionColumns+` FROM question WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Question{}, ErrNotFound
	}
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to query question: %w", err)
	}
	return question, nil
}

func (q *Queries) ListQuestions(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	var (
		where []string
		args  []any
	)
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if filter.ShortOnly {
		where = append(where, "in_short_quiz = TRUE")
	}
	if len(filter.IDs) > 0 {
		ph := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			args = append(args, id)
			ph[i] = "$" + strconv.Itoa(len(args))
		}
		where = append(where, "id IN ("+strings.Join(ph, ", ")+")")
	}

	query := `SELECT ` + questionColumns + ` FROM question`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (q *Queries) UpdateQuestion(ctx context.Context, question models.Question) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE question
		SET axis = $1, topic = $2, text = $3, direction = $4, weight_agree = $5,
		    weight_disagree = $6, weight = $7, in_short_quiz = $8
		WHERE id = $9
	`, question.Axis, question.Topic, question.Text, question.Direction, question.WeightAgree,
		question.WeightDisagree, question.Weight, question.InShortQuiz, question.ID)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateQuestion soft-deletes a question. Returns false if it was
// already inactive.
func (q *Queries) DeactivateQuestion(ctx context.Context, id string) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE question SET is_active = FALSE WHERE id = $1 AND is_active = TRUE
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate question: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
