// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/metrics"
	"github.com/danielhkuo/compass/models"
)

const (
	baseBackoff = 5 * time.Millisecond
	maxBackoff  = 200 * time.Millisecond
)

// ScoreRecomputer rebuilds an icon's cached axis scores.
type ScoreRecomputer interface {
	RecomputeScores(ctx context.Context, iconID string) (models.Icon, error)
}

// Engine owns the accepted-answer state of every (icon, question) pair.
// Each mutation runs in one transaction and is retried as a whole on
// storage conflicts.
type Engine struct {
	store      *db.Store
	recomputer ScoreRecomputer
	maxRetries int
	validate   *validator.Validate
	tracer     trace.Tracer
	now        func() time.Time
}

// NewEngine creates an engine. recomputer may be nil, in which case icon
// scores are left for a later batch recompute.
func NewEngine(store *db.Store, recomputer ScoreRecomputer, maxRetries int) *Engine {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Engine{
		store:      store,
		recomputer: recomputer,
		maxRetries: maxRetries,
		validate:   validator.New(),
		tracer:     otel.Tracer("compass/consensus"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// inTx runs fn in a transaction, retrying on conflicts up to maxRetries
// times. Errors without a kind come back as storage errors.
func (e *Engine) inTx(ctx context.Context, op string, fn func(q *db.Queries) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = e.store.InTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			break
		}
		if attempt >= e.maxRetries {
			slog.Warn("conflict retries exhausted", "operation", op, "attempts", attempt+1, "error", err)
			if models.IsKind(err, models.KindConflict) {
				return err
			}
			return models.NewConflictError(op+" conflicted with a concurrent update", err)
		}

		metrics.RecordConflictRetry(op)
		slog.Debug("retrying after conflict", "operation", op, "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return models.NewConflictError(op+" conflicted with a concurrent update", ctx.Err())
		case <-time.After(backoff(attempt)):
		}
	}

	var kinded *models.Error
	if errors.As(err, &kinded) {
		return err
	}
	slog.Error("storage failure", "operation", op, "error", err)
	return models.NewStorageError(op+" failed", err)
}

func retryable(err error) bool {
	return db.IsConflict(err) || models.IsKind(err, models.KindConflict)
}

// backoff doubles per attempt with up to 50% jitter.
func backoff(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d/2 + rand.N(d/2+1)
}

// selectAccepted makes the top-ranked active answer of the pair the only
// accepted one. It must run inside the caller's transaction after the pair
// has been locked. Returns the accepted id ("" for an empty pair) and
// whether the flag moved.
func selectAccepted(ctx context.Context, q *db.Queries, iconID, questionID string, at time.Time) (string, bool, error) {
	answers, err := q.ListPairAnswers(ctx, iconID, questionID)
	if err != nil {
		return "", false, err
	}
	if len(answers) == 0 {
		return "", false, nil
	}

	top := answers[0]
	for _, a := range answers[1:] {
		if !a.IsAccepted {
			continue
		}
		// clear before setting so the partial unique index never sees two
		if err := q.SetAnswerAccepted(ctx, a.ID, false, at); err != nil {
			return "", false, err
		}
	}
	changed := !top.IsAccepted
	if changed {
		if err := q.SetAnswerAccepted(ctx, top.ID, true, at); err != nil {
			return "", false, err
		}
	}

	n, err := q.CountAccepted(ctx, iconID, questionID)
	if err != nil {
		return "", false, err
	}
	if n != 1 {
		return "", false, models.NewConflictError(
			fmt.Sprintf("pair %s/%s has %d accepted answers", iconID, questionID, n), nil)
	}
	return top.ID, changed, nil
}

// acceptedAnswerID returns the currently accepted answer of a pair without
// changing anything.
func acceptedAnswerID(ctx context.Context, q *db.Queries, iconID, questionID string) (string, error) {
	answers, err := q.ListPairAnswers(ctx, iconID, questionID)
	if err != nil {
		return "", err
	}
	for _, a := range answers {
		if a.IsAccepted {
			return a.ID, nil
		}
	}
	return "", nil
}

// activeAnswer loads an answer, treating inactive answers as missing.
func activeAnswer(ctx context.Context, q *db.Queries, answerID string) (models.IconAnswer, error) {
	a, err := q.GetAnswer(ctx, answerID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !a.IsActive) {
		return models.IconAnswer{}, models.NewNotFoundError("answer %s not found", answerID)
	}
	return a, err
}

// lockedAnswer loads an active answer, locks its pair and reloads it so the
// tallies are read under the lock.
func lockedAnswer(ctx context.Context, q *db.Queries, answerID string) (models.IconAnswer, error) {
	a, err := activeAnswer(ctx, q, answerID)
	if err != nil {
		return a, err
	}
	if err := q.LockPair(ctx, a.IconID, a.QuestionID); err != nil {
		return a, err
	}
	return activeAnswer(ctx, q, answerID)
}

// recompute refreshes an icon's scores after a committed change. Failures
// leave the scores stale until the next trigger and are only logged.
func (e *Engine) recompute(ctx context.Context, iconID string) {
	if e.recomputer == nil {
		return
	}
	if _, err := e.recomputer.RecomputeScores(ctx, iconID); err != nil {
		slog.Warn("icon scores left stale", "icon_id", iconID, "error", err)
	}
}
