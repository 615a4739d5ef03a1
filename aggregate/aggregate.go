// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/metrics"
	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/scoring"
)

// DefaultConcurrency bounds parallel recomputes in batch runs.
const DefaultConcurrency = 4

// Aggregator rebuilds the cached axis scores of icons from their accepted
// answers.
type Aggregator struct {
	store       *db.Store
	concurrency int
	tracer      trace.Tracer
	now         func() time.Time
}

func NewAggregator(store *db.Store, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		store:       store,
		concurrency: concurrency,
		tracer:      otel.Tracer("compass/aggregate"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Summary reports the outcome of a batch recompute.
type Summary struct {
	Icons    int           `json:"icons"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// RecomputeScores scores an active icon's accepted answers against their
// active questions using each question's single weight, then stores the five
// axis scores and the accepted-answer count. Safe to run concurrently for
// the same icon; the last write wins.
func (a *Aggregator) RecomputeScores(ctx context.Context, iconID string) (models.Icon, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.RecomputeScores", trace.WithAttributes(
		attribute.String("icon_id", iconID),
	))
	defer span.End()

	start := time.Now()
	icon, err := a.recompute(ctx, iconID)
	metrics.ObserveRecompute(time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Icon{}, err
	}

	span.SetAttributes(attribute.Int("total_answers", icon.TotalAnswers))
	slog.Debug("icon scores recomputed", "icon_id", iconID, "total_answers", icon.TotalAnswers)
	return icon, nil
}

func (a *Aggregator) recompute(ctx context.Context, iconID string) (models.Icon, error) {
	icon, err := a.store.GetIcon(ctx, iconID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !icon.IsActive) {
		return models.Icon{}, models.NewNotFoundError("icon %s not found", iconID)
	}
	if err != nil {
		return models.Icon{}, models.NewStorageError("failed to load icon", err)
	}

	accepted, err := a.store.ListAcceptedAnswers(ctx, iconID)
	if err != nil {
		return models.Icon{}, models.NewStorageError("failed to load accepted answers", err)
	}

	questions := make([]models.Question, 0, len(accepted))
	answers := make(map[string]int, len(accepted))
	for _, aa := range accepted {
		questions = append(questions, aa.Question)
		answers[aa.Question.ID] = aa.AnswerValue
	}

	results, err := scoring.ComputeAxisScores(questions, answers, scoring.SingleWeight)
	if err != nil {
		return models.Icon{}, err
	}
	scores := scoring.ScoresFromResults(results)

	now := a.now()
	err = a.store.UpdateIconScores(ctx, iconID, scores, len(accepted), now)
	if errors.Is(err, db.ErrNotFound) {
		return models.Icon{}, models.NewNotFoundError("icon %s not found", iconID)
	}
	if err != nil {
		return models.Icon{}, models.NewStorageError("failed to store icon scores", err)
	}

	icon.Scores = scores
	icon.TotalAnswers = len(accepted)
	icon.ScoresUpdatedAt = &now
	return icon, nil
}

// RecomputeForQuestion refreshes every active icon with an accepted answer
// on the question, after the question's axis, direction or weight changed.
func (a *Aggregator) RecomputeForQuestion(ctx context.Context, questionID string) (Summary, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.RecomputeForQuestion", trace.WithAttributes(
		attribute.String("question_id", questionID),
	))
	defer span.End()

	ids, err := a.store.ListIconIDsAnswering(ctx, questionID, true)
	if err != nil {
		return Summary{}, models.NewStorageError("failed to list icons for question", err)
	}
	return a.recomputeMany(ctx, ids)
}

// RecomputeAll refreshes every active icon with bounded concurrency. One
// failing icon does not stop the others.
func (a *Aggregator) RecomputeAll(ctx context.Context) (Summary, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.RecomputeAll")
	defer span.End()

	ids, err := a.store.ListActiveIconIDs(ctx)
	if err != nil {
		return Summary{}, models.NewStorageError("failed to list icons", err)
	}

	sum, err := a.recomputeMany(ctx, ids)
	slog.Info("recomputed all icon scores",
		"icons", humanize.Comma(int64(sum.Icons)),
		"updated", humanize.Comma(int64(sum.Updated)),
		"failed", sum.Failed,
		"took", sum.Duration.Round(time.Millisecond).String(),
	)
	return sum, err
}

func (a *Aggregator) recomputeMany(ctx context.Context, ids []string) (Summary, error) {
	start := time.Now()
	sum := Summary{Icons: len(ids)}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := a.RecomputeScores(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sum.Updated++
			case models.IsKind(err, models.KindNotFound):
				// deactivated since listing
				sum.Skipped++
			default:
				sum.Failed++
				errs = append(errs, fmt.Errorf("icon %s: %w", id, err))
				slog.Warn("icon recompute failed", "icon_id", id, "error", err)
			}
			return nil
		})
	}
	err := g.Wait()
	sum.Duration = time.Since(start)

	if err != nil {
		return sum, err
	}
	return sum, errors.Join(errs...)
}
