// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/middleware"
	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/scoring"
)

type QuizHandler struct {
	store *db.Store
}

func NewQuizHandler(store *db.Store) *QuizHandler {
	return &QuizHandler{store: store}
}

// ScoreQuiz handles POST /quiz/score
// Nothing is stored; the response is computed from the submitted answers.
// Answers to questions retired since the quiz was loaded are skipped and
// reported; answers to questions that never existed are rejected.
func (h *QuizHandler) ScoreQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreQuizRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ids := make([]string, 0, len(req.Answers))
	for id := range req.Answers {
		ids = append(ids, id)
	}

	questions, err := h.store.ListQuestions(r.Context(), db.QuestionFilter{IDs: ids})
	if err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to load questions", err))
		return
	}

	var (
		active  []models.Question
		ignored []string
	)
	answers := make(map[string]int, len(req.Answers))
	for id, v := range req.Answers {
		answers[id] = v
	}
	for _, q := range questions {
		if q.IsActive {
			active = append(active, q)
			continue
		}
		delete(answers, q.ID)
		ignored = append(ignored, q.ID)
	}
	sort.Strings(ignored)

	results, err := scoring.ComputeAxisScores(active, answers, scoring.SplitWeights)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("quiz scored", "answers", len(answers), "ignored", len(ignored))

	middleware.JSONResponse(w, http.StatusOK, models.ScoreQuizResponse{
		Results:          results,
		Compass:          scoring.CompassPosition(results),
		IgnoredQuestions: ignored,
	})
}
