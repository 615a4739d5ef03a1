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

// RecordVote applies a user's up- or downvote to an answer and re-runs
// acceptance selection for the answer's pair.
//
// Repeating the vote a user already holds is a no-op, so a vote can never be
// toggled off. Switching type moves the user's one vote record between the
// tallies. A downvote needs counter evidence with a title and URL unless the
// voter has their own active alternative answer for the same question.
func (e *Engine) RecordVote(ctx context.Context, userID, answerID, voteType string, evidence *models.CounterEvidence) (models.VoteOutcome, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.RecordVote", trace.WithAttributes(
		attribute.String("answer_id", answerID),
		attribute.String("vote_type", voteType),
	))
	defer span.End()

	if userID == "" {
		return models.VoteOutcome{}, models.NewValidationError("user id is required")
	}
	if voteType != models.VoteUp && voteType != models.VoteDown {
		return models.VoteOutcome{}, models.NewValidationError("vote type must be %q or %q, got %q",
			models.VoteUp, models.VoteDown, voteType)
	}

	var (
		out    models.VoteOutcome
		iconID string
	)
	err := e.inTx(ctx, "vote", func(q *db.Queries) error {
		out = models.VoteOutcome{AnswerID: answerID}

		a, err := lockedAnswer(ctx, q, answerID)
		if err != nil {
			return err
		}
		iconID = a.IconID

		existing, err := q.GetVote(ctx, userID, answerID)
		hasExisting := err == nil
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return err
		}
		out.IsUpdate = hasExisting

		if hasExisting && existing.VoteType == voteType {
			out.Upvotes, out.Downvotes, out.NetVotes = a.Upvotes, a.Downvotes, a.NetVotes
			out.AcceptedAnswerID, err = acceptedAnswerID(ctx, q, a.IconID, a.QuestionID)
			return err
		}

		if voteType == models.VoteDown && !hasEvidence(evidence) {
			alt, err := q.HasAlternativeAnswer(ctx, userID, a.IconID, a.QuestionID, a.ID)
			if err != nil {
				return err
			}
			if !alt {
				return models.NewValidationError("a downvote requires counter evidence with a title and url")
			}
		}

		up, down := a.Upvotes, a.Downvotes
		if hasExisting {
			switch existing.VoteType {
			case models.VoteUp:
				up = max(up-1, 0)
			case models.VoteDown:
				down = max(down-1, 0)
			}
		}
		if voteType == models.VoteUp {
			up++
		} else {
			down++
		}

		now := e.now()
		if err := q.UpdateAnswerTallies(ctx, a.ID, up, down, now); err != nil {
			return err
		}

		vote := models.IconVote{
			ID:              uuid.NewString(),
			UserID:          userID,
			AnswerID:        answerID,
			VoteType:        voteType,
			CounterEvidence: evidenceFor(voteType, evidence),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if hasExisting {
			vote.ID = existing.ID
			vote.CreatedAt = existing.CreatedAt
			err = q.UpdateVote(ctx, vote)
		} else {
			err = q.InsertVote(ctx, vote)
		}
		if err != nil {
			return err
		}

		acceptedID, changed, err := selectAccepted(ctx, q, a.IconID, a.QuestionID, now)
		if err != nil {
			return err
		}

		out.Upvotes, out.Downvotes, out.NetVotes = up, down, up-down
		out.Changed = true
		out.AcceptedAnswerID = acceptedID
		out.AcceptanceChanged = changed
		return nil
	})
	if err != nil {
		metrics.RecordVote(voteType, metrics.OutcomeRejected)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.VoteOutcome{}, err
	}

	switch {
	case !out.Changed:
		metrics.RecordVote(voteType, metrics.OutcomeNoop)
	case out.IsUpdate:
		metrics.RecordVote(voteType, metrics.OutcomeReplaced)
	default:
		metrics.RecordVote(voteType, metrics.OutcomeRecorded)
	}
	span.SetAttributes(attribute.Bool("acceptance_changed", out.AcceptanceChanged))

	slog.Info("vote recorded",
		"answer_id", answerID,
		"vote_type", voteType,
		"is_update", out.IsUpdate,
		"changed", out.Changed,
		"net_votes", out.NetVotes,
	)

	if out.AcceptanceChanged {
		metrics.RecordAcceptanceSwitch()
		slog.Info("accepted answer changed", "icon_id", iconID, "answer_id", out.AcceptedAnswerID)
		e.recompute(ctx, iconID)
	}

	return out, nil
}

// GetVote returns the user's current vote on an answer.
func (e *Engine) GetVote(ctx context.Context, userID, answerID string) (models.IconVote, error) {
	if userID == "" {
		return models.IconVote{}, models.NewValidationError("user id is required")
	}
	v, err := e.store.GetVote(ctx, userID, answerID)
	if errors.Is(err, db.ErrNotFound) {
		return models.IconVote{}, models.NewNotFoundError("no vote on answer %s", answerID)
	}
	if err != nil {
		return models.IconVote{}, models.NewStorageError("failed to load vote", err)
	}
	return v, nil
}

func hasEvidence(ce *models.CounterEvidence) bool {
	return ce != nil && strings.TrimSpace(ce.Title) != "" && strings.TrimSpace(ce.URL) != ""
}

// evidenceFor keeps counter evidence only on downvotes.
func evidenceFor(voteType string, ce *models.CounterEvidence) *models.CounterEvidence {
	if voteType != models.VoteDown || !hasEvidence(ce) {
		return nil
	}
	return &models.CounterEvidence{
		Title:       strings.TrimSpace(ce.Title),
		URL:         strings.TrimSpace(ce.URL),
		Description: strings.TrimSpace(ce.Description),
	}
}
