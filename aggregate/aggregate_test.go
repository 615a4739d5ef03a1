// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/compass/consensus"
	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/testutil"
)

func setup(t *testing.T) (*Aggregator, *db.Store) {
	t.Helper()
	store := testutil.SetupTestStore(t)
	return NewAggregator(store, 2), store
}

func TestRecomputeScores_WorkedExample(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()

	icon := testutil.CreateTestIcon(t, store, "Worked Example")
	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{
		Direction: models.DirectionRight,
		Weight:    3,
	})
	testutil.CreateTestAnswer(t, store, icon.ID, q.ID, testutil.AnswerOpts{
		Label:    models.LabelStronglyDisagree,
		Accepted: true,
	})

	got, err := agg.RecomputeScores(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Scores.Economic, "round(6/1*20) clamps to 100")
	assert.Equal(t, 1, got.TotalAnswers)
	require.NotNil(t, got.ScoresUpdatedAt)

	stored, err := store.GetIcon(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Scores, stored.Scores)
	assert.Equal(t, 1, stored.TotalAnswers)
	assert.NotNil(t, stored.ScoresUpdatedAt)
}

func TestRecomputeScores_UsesSingleWeight(t *testing.T) {
	agg, store := setup(t)
	icon := testutil.CreateTestIcon(t, store, "Single Weight")
	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{
		WeightAgree:    4,
		WeightDisagree: 4,
		Weight:         2,
	})
	testutil.CreateTestAnswer(t, store, icon.ID, q.ID, testutil.AnswerOpts{
		Label:    models.LabelAgree,
		Accepted: true,
	})

	got, err := agg.RecomputeScores(context.Background(), icon.ID)
	require.NoError(t, err)
	// 1 * 2 * 20; split weights would give 80
	assert.Equal(t, 40, got.Scores.Economic)
}

func TestRecomputeScores_OnlyAcceptedActive(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()
	icon := testutil.CreateTestIcon(t, store, "Filtered")

	economic := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Weight: 1})
	social := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{
		Axis:   "Progressive vs. Conservative",
		Weight: 1,
	})
	retired := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{
		Axis:   "Libertarian vs. Authoritarian",
		Weight: 5,
	})

	testutil.CreateTestAnswer(t, store, icon.ID, economic.ID, testutil.AnswerOpts{
		Label: models.LabelAgree, Accepted: true,
	})
	// challenger is ignored
	testutil.CreateTestAnswer(t, store, icon.ID, economic.ID, testutil.AnswerOpts{
		Label: models.LabelStronglyDisagree,
	})
	testutil.CreateTestAnswer(t, store, icon.ID, social.ID, testutil.AnswerOpts{
		Label: models.LabelDisagree, Accepted: true,
	})
	testutil.CreateTestAnswer(t, store, icon.ID, retired.ID, testutil.AnswerOpts{
		Label: models.LabelStronglyAgree, Accepted: true,
	})
	_, err := store.DeactivateQuestion(ctx, retired.ID)
	require.NoError(t, err)

	got, err := agg.RecomputeScores(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AxisScores{Economic: 20, Social: -20}, got.Scores)
	assert.Equal(t, 2, got.TotalAnswers)
}

func TestRecomputeScores_LegacyAxisNamesGroupTogether(t *testing.T) {
	agg, store := setup(t)
	icon := testutil.CreateTestIcon(t, store, "Legacy")

	for i, axis := range []string{"Equality vs. Markets", "Equality vs. Markets", "Equity vs. Free Market"} {
		q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Axis: axis, Weight: 1})
		testutil.CreateTestAnswer(t, store, icon.ID, q.ID, testutil.AnswerOpts{
			Label:       models.LabelAgree,
			Accepted:    true,
			SubmittedBy: fmt.Sprintf("submitter-%d", i),
		})
	}

	got, err := agg.RecomputeScores(context.Background(), icon.ID)
	require.NoError(t, err)
	// (1+1+1)/3 * 20, all on one axis
	assert.Equal(t, models.AxisScores{Economic: 20}, got.Scores)
	assert.Equal(t, 3, got.TotalAnswers)
}

func TestRecomputeScores_EmptyAndIdempotent(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()
	icon := testutil.CreateTestIcon(t, store, "Empty")

	first, err := agg.RecomputeScores(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AxisScores{}, first.Scores)
	assert.Zero(t, first.TotalAnswers)

	second, err := agg.RecomputeScores(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Scores, second.Scores)
}

func TestRecomputeScores_NotFound(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()

	_, err := agg.RecomputeScores(ctx, "missing")
	assert.True(t, models.IsKind(err, models.KindNotFound), "error: %v", err)

	icon := testutil.CreateTestIcon(t, store, "Gone")
	_, err = store.DeactivateIcon(ctx, icon.ID)
	require.NoError(t, err)
	_, err = agg.RecomputeScores(ctx, icon.ID)
	assert.True(t, models.IsKind(err, models.KindNotFound), "error: %v", err)
}

func TestRecomputeScores_Concurrent(t *testing.T) {
	agg, store := setup(t)
	icon := testutil.CreateTestIcon(t, store, "Busy")
	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Weight: 2})
	testutil.CreateTestAnswer(t, store, icon.ID, q.ID, testutil.AnswerOpts{
		Label: models.LabelAgree, Accepted: true,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.RecomputeScores(context.Background(), icon.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.GetIcon(context.Background(), icon.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Scores.Economic)
}

func TestRecomputeForQuestion(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Weight: 1})
	answering := []models.Icon{
		testutil.CreateTestIcon(t, store, "A"),
		testutil.CreateTestIcon(t, store, "B"),
	}
	for _, icon := range answering {
		testutil.CreateTestAnswer(t, store, icon.ID, q.ID, testutil.AnswerOpts{
			Label: models.LabelAgree, Accepted: true,
		})
		_, err := agg.RecomputeScores(ctx, icon.ID)
		require.NoError(t, err)
	}
	bystander := testutil.CreateTestIcon(t, store, "C")

	q.Direction = models.DirectionRight
	require.NoError(t, store.UpdateQuestion(ctx, q))

	sum, err := agg.RecomputeForQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Icons)
	assert.Equal(t, 2, sum.Updated)

	for _, icon := range answering {
		stored, err := store.GetIcon(ctx, icon.ID)
		require.NoError(t, err)
		assert.Equal(t, -20, stored.Scores.Economic, "direction flip should flip the sign")
	}

	stored, err := store.GetIcon(ctx, bystander.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ScoresUpdatedAt, "icons without answers are untouched")
}

func TestRecomputeAll(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()
	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Weight: 1})

	for i := 0; i < 6; i++ {
		icon := testutil.CreateTestIcon(t, store, fmt.Sprintf("Icon %d", i))
		testutil.CreateTestAnswer(t, store, icon.ID, q.ID, testutil.AnswerOpts{
			Label: models.LabelStronglyAgree, Accepted: true,
		})
	}
	inactive := testutil.CreateTestIcon(t, store, "Inactive")
	_, err := store.DeactivateIcon(ctx, inactive.ID)
	require.NoError(t, err)

	sum, err := agg.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Icons)
	assert.Equal(t, 6, sum.Updated)
	assert.Zero(t, sum.Failed)

	icons, err := store.ListIcons(ctx)
	require.NoError(t, err)
	for _, icon := range icons {
		assert.Equal(t, 40, icon.Scores.Economic, icon.Name)
		assert.Equal(t, 1, icon.TotalAnswers, icon.Name)
	}
}

func TestRecomputeAll_ReportsFailures(t *testing.T) {
	agg, store := setup(t)
	ctx := context.Background()

	good := testutil.CreateTestIcon(t, store, "Good")
	bad := testutil.CreateTestIcon(t, store, "Bad")
	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Axis: "Equity vs. Free Market"})
	testutil.CreateTestAnswer(t, store, good.ID, q.ID, testutil.AnswerOpts{Accepted: true})

	// an axis the table cannot resolve
	broken := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Axis: "Cats vs. Dogs"})
	testutil.CreateTestAnswer(t, store, bad.ID, broken.ID, testutil.AnswerOpts{Accepted: true})

	sum, err := agg.RecomputeAll(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, sum.Icons)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, err.Error(), bad.ID)
}

// The engine drives the aggregator whenever acceptance moves.
func TestEngineTriggersRecompute(t *testing.T) {
	agg, store := setup(t)
	engine := consensus.NewEngine(store, agg, 3)
	ctx := context.Background()

	icon := testutil.CreateTestIcon(t, store, "Live")
	q := testutil.CreateTestQuestion(t, store, testutil.QuestionOpts{Weight: 1})

	submit := func(user, label string) models.IconAnswer {
		a, err := engine.SubmitAnswer(ctx, consensus.SubmitAnswerInput{
			IconID:      icon.ID,
			QuestionID:  q.ID,
			Label:       label,
			Sources:     []models.Source{testutil.TestSource()},
			SubmitterID: user,
		})
		require.NoError(t, err)
		return a
	}

	submit("alice", models.LabelAgree)
	stored, err := store.GetIcon(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Scores.Economic)

	challenger := submit("bob", models.LabelStronglyDisagree)
	_, err = engine.RecordVote(ctx, "voter", challenger.ID, models.VoteUp, nil)
	require.NoError(t, err)

	stored, err = store.GetIcon(ctx, icon.ID)
	require.NoError(t, err)
	assert.Equal(t, -40, stored.Scores.Economic)
	assert.Equal(t, 1, stored.TotalAnswers)
}
