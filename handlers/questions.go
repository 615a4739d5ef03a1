// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/compass/aggregate"
	"github.com/danielhkuo/compass/auth"
	"github.com/danielhkuo/compass/cliparse"
	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/middleware"
	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/scoring"
)

type QuestionHandler struct {
	store *db.Store
	agg   *aggregate.Aggregator
	cfg   cliparse.Config
}

func NewQuestionHandler(store *db.Store, agg *aggregate.Aggregator, cfg cliparse.Config) *QuestionHandler {
	return &QuestionHandler{store: store, agg: agg, cfg: cfg}
}

// storeError turns a db lookup miss into a not-found error for the named
// entity and anything else into a storage error.
func storeError(err error, entity, id string) error {
	if errors.Is(err, db.ErrNotFound) {
		return models.NewNotFoundError("%s %s not found", entity, id)
	}
	return models.NewStorageError("failed to load "+entity, err)
}

// requireSiteAdmin writes 403 and returns false unless the request carries
// the configured site admin key.
func requireSiteAdmin(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) bool {
	if err := auth.ValidateSiteAdminKey(r.Header.Get(auth.HeaderAdminKey), cfg.AdminKey); err != nil {
		middleware.ErrorResponse(w, http.StatusForbidden, "invalid admin key")
		return false
	}
	return true
}

// ListQuestions handles GET /questions
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	filter := db.QuestionFilter{
		ActiveOnly: true,
		ShortOnly:  r.URL.Query().Get("short") == "true",
	}

	questions, err := h.store.ListQuestions(r.Context(), filter)
	if err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to list questions", err))
		return
	}

	middleware.JSONResponse(w, http.StatusOK, questions)
}

// CreateQuestion handles POST /questions
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	var req models.CreateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	axis, err := scoring.CanonicalName(req.Axis)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	// icons are scored with a single weight; default to the midpoint of the
	// quiz weights when the admin leaves it out
	weight := req.Weight
	if weight == 0 {
		weight = (req.WeightAgree + req.WeightDisagree + 1) / 2
	}

	question := models.Question{
		ID:             uuid.NewString(),
		Axis:           axis,
		Topic:          req.Topic,
		Text:           req.Text,
		Direction:      req.Direction,
		WeightAgree:    req.WeightAgree,
		WeightDisagree: req.WeightDisagree,
		Weight:         weight,
		IsActive:       true,
		InShortQuiz:    req.InShortQuiz,
		CreatedAt:      time.Now().UTC(),
	}

	if err := h.store.InsertQuestion(r.Context(), question); err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to create question", err))
		return
	}

	slog.Info("question created", "question_id", question.ID, "axis", question.Axis)

	middleware.JSONResponse(w, http.StatusCreated, question)
}

// UpdateQuestion handles PUT /questions/{id}
// Icon scores are recomputed when a scoring field changes.
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	questionID := r.PathValue("id")

	var req models.UpdateQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	question, err := h.store.GetQuestion(r.Context(), questionID)
	if err != nil {
		middleware.WriteError(w, storeError(err, "question", questionID))
		return
	}
	before := question

	if req.Axis != nil {
		axis, err := scoring.CanonicalName(*req.Axis)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		question.Axis = axis
	}
	if req.Topic != nil {
		question.Topic = *req.Topic
	}
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Direction != nil {
		question.Direction = *req.Direction
	}
	if req.WeightAgree != nil {
		question.WeightAgree = *req.WeightAgree
	}
	if req.WeightDisagree != nil {
		question.WeightDisagree = *req.WeightDisagree
	}
	if req.Weight != nil {
		question.Weight = *req.Weight
	}
	if req.InShortQuiz != nil {
		question.InShortQuiz = *req.InShortQuiz
	}

	if err := h.store.UpdateQuestion(r.Context(), question); err != nil {
		middleware.WriteError(w, storeError(err, "question", questionID))
		return
	}

	slog.Info("question updated", "question_id", questionID)

	if question.IsActive && scoringChanged(before, question) {
		h.recomputeForQuestion(r, questionID)
	}

	middleware.JSONResponse(w, http.StatusOK, question)
}

// DeleteQuestion handles DELETE /questions/{id}
// The question is deactivated and the icons that answered it rescored.
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	questionID := r.PathValue("id")

	deactivated, err := h.store.DeactivateQuestion(r.Context(), questionID)
	if err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to deactivate question", err))
		return
	}
	if !deactivated {
		// either unknown or already inactive
		if _, err := h.store.GetQuestion(r.Context(), questionID); err != nil {
			middleware.WriteError(w, storeError(err, "question", questionID))
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	slog.Info("question deactivated", "question_id", questionID)
	h.recomputeForQuestion(r, questionID)

	w.WriteHeader(http.StatusNoContent)
}

// recomputeForQuestion rescores affected icons. The question write has
// already committed, so failures only leave scores stale.
func (h *QuestionHandler) recomputeForQuestion(r *http.Request, questionID string) {
	if h.agg == nil {
		return
	}
	summary, err := h.agg.RecomputeForQuestion(r.Context(), questionID)
	if err != nil {
		slog.Warn("icon scores may be stale", "question_id", questionID, "error", err)
		return
	}
	slog.Info("icons rescored", "question_id", questionID, "updated", summary.Updated)
}

func scoringChanged(before, after models.Question) bool {
	return before.Axis != after.Axis ||
		before.Direction != after.Direction ||
		before.Weight != after.Weight
}
