// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/metrics"
	"github.com/danielhkuo/compass/models"
)

const maxSources = 10

type SubmitAnswerInput struct {
	IconID      string
	QuestionID  string
	Label       string
	Sources     []models.Source
	Reasoning   string
	SubmitterID string
}

// UpdateAnswerInput holds the fields a submitter may change. Nil fields are
// left as they are.
type UpdateAnswerInput struct {
	Label     *string
	Sources   *[]models.Source
	Reasoning *string
}

// SubmitAnswer records a submitter's answer for an icon on a question. The
// answer is auto-accepted when the pair has no accepted answer yet.
// Otherwise it enters as a challenger at 0 net votes and selection re-runs,
// so it takes acceptance only from an incumbent ranked below zero.
func (e *Engine) SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (models.IconAnswer, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.SubmitAnswer", trace.WithAttributes(
		attribute.String("icon_id", in.IconID),
		attribute.String("question_id", in.QuestionID),
	))
	defer span.End()

	if in.SubmitterID == "" {
		return models.IconAnswer{}, models.NewValidationError("submitter id is required")
	}
	value, ok := models.AnswerValue(in.Label)
	if !ok {
		return models.IconAnswer{}, models.NewValidationError("unknown answer %q", in.Label)
	}
	if err := e.validateSources(in.Sources); err != nil {
		return models.IconAnswer{}, err
	}

	var (
		answer   models.IconAnswer
		switched bool
	)
	err := e.inTx(ctx, "submit_answer", func(q *db.Queries) error {
		icon, err := q.GetIcon(ctx, in.IconID)
		if errors.Is(err, db.ErrNotFound) || (err == nil && !icon.IsActive) {
			return models.NewNotFoundError("icon %s not found", in.IconID)
		}
		if err != nil {
			return err
		}
		question, err := q.GetQuestion(ctx, in.QuestionID)
		if errors.Is(err, db.ErrNotFound) || (err == nil && !question.IsActive) {
			return models.NewNotFoundError("question %s not found", in.QuestionID)
		}
		if err != nil {
			return err
		}

		if err := q.LockPair(ctx, in.IconID, in.QuestionID); err != nil {
			return err
		}

		dup, err := q.HasAlternativeAnswer(ctx, in.SubmitterID, in.IconID, in.QuestionID, "")
		if err != nil {
			return err
		}
		if dup {
			return models.NewValidationError("you already have an active answer for this question")
		}

		accepted, err := q.CountAccepted(ctx, in.IconID, in.QuestionID)
		if err != nil {
			return err
		}

		now := e.now()
		answer = models.IconAnswer{
			ID:          uuid.NewString(),
			IconID:      in.IconID,
			QuestionID:  in.QuestionID,
			Answer:      in.Label,
			AnswerValue: value,
			Sources:     in.Sources,
			Reasoning:   strings.TrimSpace(in.Reasoning),
			SubmittedBy: in.SubmitterID,
			IsAccepted:  accepted == 0,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := q.InsertAnswer(ctx, answer); err != nil {
			return err
		}

		// a challenger at 0 outranks an incumbent with negative net votes
		acceptedID, moved, err := selectAccepted(ctx, q, in.IconID, in.QuestionID, now)
		if err != nil {
			return err
		}
		answer.IsAccepted = acceptedID == answer.ID
		switched = moved || accepted == 0
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.IconAnswer{}, err
	}

	metrics.RecordSubmission(answer.IsAccepted)
	slog.Info("answer submitted",
		"answer_id", answer.ID,
		"icon_id", answer.IconID,
		"question_id", answer.QuestionID,
		"accepted", answer.IsAccepted,
	)

	if switched {
		metrics.RecordAcceptanceSwitch()
	}
	if answer.IsAccepted {
		e.recompute(ctx, answer.IconID)
	}
	return answer, nil
}

// UpdateAnswer lets the submitter revise an answer's label, sources or
// reasoning. Votes and acceptance are kept.
func (e *Engine) UpdateAnswer(ctx context.Context, answerID, editorID string, in UpdateAnswerInput) (models.IconAnswer, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.UpdateAnswer", trace.WithAttributes(
		attribute.String("answer_id", answerID),
	))
	defer span.End()

	if editorID == "" {
		return models.IconAnswer{}, models.NewValidationError("user id is required")
	}
	var newValue int
	if in.Label != nil {
		v, ok := models.AnswerValue(*in.Label)
		if !ok {
			return models.IconAnswer{}, models.NewValidationError("unknown answer %q", *in.Label)
		}
		newValue = v
	}
	if in.Sources != nil {
		if err := e.validateSources(*in.Sources); err != nil {
			return models.IconAnswer{}, err
		}
	}

	var (
		answer       models.IconAnswer
		valueChanged bool
	)
	err := e.inTx(ctx, "update_answer", func(q *db.Queries) error {
		a, err := activeAnswer(ctx, q, answerID)
		if err != nil {
			return err
		}
		if a.SubmittedBy != editorID {
			return models.NewForbiddenError("only the submitter can edit this answer")
		}

		valueChanged = false
		if in.Label != nil {
			valueChanged = a.IsAccepted && newValue != a.AnswerValue
			a.Answer = *in.Label
			a.AnswerValue = newValue
		}
		if in.Sources != nil {
			a.Sources = *in.Sources
		}
		if in.Reasoning != nil {
			a.Reasoning = strings.TrimSpace(*in.Reasoning)
		}
		a.UpdatedAt = e.now()

		answer = a
		return q.UpdateAnswerContent(ctx, a)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.IconAnswer{}, err
	}

	slog.Info("answer updated", "answer_id", answerID, "value_changed", valueChanged)

	if valueChanged {
		e.recompute(ctx, answer.IconID)
	}
	return answer, nil
}

// RemoveAnswer soft-deletes an answer and re-runs acceptance selection for
// its pair.
func (e *Engine) RemoveAnswer(ctx context.Context, answerID string) error {
	ctx, span := e.tracer.Start(ctx, "Engine.RemoveAnswer", trace.WithAttributes(
		attribute.String("answer_id", answerID),
	))
	defer span.End()

	var (
		iconID  string
		changed bool
	)
	err := e.inTx(ctx, "remove_answer", func(q *db.Queries) error {
		a, err := lockedAnswer(ctx, q, answerID)
		if err != nil {
			return err
		}
		iconID = a.IconID

		now := e.now()
		if err := q.DeactivateAnswer(ctx, a.ID, now); err != nil {
			return err
		}
		_, moved, err := selectAccepted(ctx, q, a.IconID, a.QuestionID, now)
		if err != nil {
			return err
		}
		changed = moved || a.IsAccepted
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	slog.Info("answer removed", "answer_id", answerID, "acceptance_changed", changed)

	if changed {
		metrics.RecordAcceptanceSwitch()
		e.recompute(ctx, iconID)
	}
	return nil
}

// DeactivateIcon soft-deletes an icon along with all of its answers.
// Returns the number of answers deactivated.
func (e *Engine) DeactivateIcon(ctx context.Context, iconID string) (int64, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.DeactivateIcon", trace.WithAttributes(
		attribute.String("icon_id", iconID),
	))
	defer span.End()

	var n int64
	err := e.inTx(ctx, "deactivate_icon", func(q *db.Queries) error {
		ok, err := q.DeactivateIcon(ctx, iconID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotFoundError("icon %s not found", iconID)
		}
		n, err = q.DeactivateIconAnswers(ctx, iconID, e.now())
		return err
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	slog.Info("icon deactivated", "icon_id", iconID, "answers", n)
	return n, nil
}

func (e *Engine) validateSources(sources []models.Source) error {
	if len(sources) == 0 {
		return models.NewValidationError("at least one source is required")
	}
	if len(sources) > maxSources {
		return models.NewValidationError("at most %d sources are allowed", maxSources)
	}
	for i, s := range sources {
		if err := e.validate.Struct(s); err != nil {
			return models.NewValidationError("source %d: %v", i+1, err)
		}
	}
	return nil
}
