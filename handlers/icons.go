// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/compass/aggregate"
	"github.com/danielhkuo/compass/auth"
	"github.com/danielhkuo/compass/cliparse"
	"github.com/danielhkuo/compass/consensus"
	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/middleware"
	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/scoring"
)

type IconHandler struct {
	store  *db.Store
	engine *consensus.Engine
	agg    *aggregate.Aggregator
	cfg    cliparse.Config
}

func NewIconHandler(store *db.Store, engine *consensus.Engine, agg *aggregate.Aggregator, cfg cliparse.Config) *IconHandler {
	return &IconHandler{store: store, engine: engine, agg: agg, cfg: cfg}
}

// CreateIcon handles POST /icons
// The returned admin key is shown once and is required to delete or
// rescore the icon.
func (h *IconHandler) CreateIcon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateIconRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	icon := models.Icon{
		ID:          uuid.NewString(),
		Name:        req.Name,
		ExternalID:  req.ExternalID,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    true,
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.store.InsertIcon(r.Context(), icon); err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to create icon", err))
		return
	}

	adminKey := auth.GenerateAdminKey(auth.IconScope(icon.ID), h.cfg.AdminKeySalt)

	slog.Info("icon created", "icon_id", icon.ID, "name", icon.Name, "creator", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateIconResponse{
		IconID:   icon.ID,
		AdminKey: adminKey,
	})
}

// ListIcons handles GET /icons
func (h *IconHandler) ListIcons(w http.ResponseWriter, r *http.Request) {
	icons, err := h.store.ListIcons(r.Context())
	if err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to list icons", err))
		return
	}

	middleware.JSONResponse(w, http.StatusOK, icons)
}

// GetIcon handles GET /icons/{id}
// Scores are served from the cached columns, not recomputed.
func (h *IconHandler) GetIcon(w http.ResponseWriter, r *http.Request) {
	icon, ok := h.activeIcon(w, r)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, iconDetail(icon))
}

// DeleteIcon handles DELETE /icons/{id}
// Requires the icon's admin key (or the site key). All of the icon's answers
// are deactivated with it.
func (h *IconHandler) DeleteIcon(w http.ResponseWriter, r *http.Request) {
	iconID := r.PathValue("id")
	if !h.requireIconAdmin(w, r, iconID) {
		return
	}

	n, err := h.engine.DeactivateIcon(r.Context(), iconID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("icon deleted", "icon_id", iconID, "answers_deactivated", n)

	w.WriteHeader(http.StatusNoContent)
}

// RecomputeIcon handles POST /icons/{id}/recompute
func (h *IconHandler) RecomputeIcon(w http.ResponseWriter, r *http.Request) {
	iconID := r.PathValue("id")
	if !h.requireIconAdmin(w, r, iconID) {
		return
	}

	icon, err := h.agg.RecomputeScores(r.Context(), iconID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("icon rescored", "icon_id", iconID, "total_answers", icon.TotalAnswers)

	middleware.JSONResponse(w, http.StatusOK, iconDetail(icon))
}

// ListAnswers handles GET /icons/{id}/answers
// Active answers are grouped under their question, best ranked first.
func (h *IconHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	icon, ok := h.activeIcon(w, r)
	if !ok {
		return
	}

	answers, err := h.store.ListIconAnswers(r.Context(), icon.ID)
	if err != nil {
		middleware.WriteError(w, models.NewStorageError("failed to list answers", err))
		return
	}

	byQuestion := make(map[string][]models.IconAnswer)
	var ids []string
	for _, a := range answers {
		if _, seen := byQuestion[a.QuestionID]; !seen {
			ids = append(ids, a.QuestionID)
		}
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	groups := []models.QuestionAnswers{}
	if len(ids) > 0 {
		questions, err := h.store.ListQuestions(r.Context(), db.QuestionFilter{ActiveOnly: true, IDs: ids})
		if err != nil {
			middleware.WriteError(w, models.NewStorageError("failed to load questions", err))
			return
		}
		// answers to deactivated questions are left out
		for _, q := range questions {
			groups = append(groups, models.QuestionAnswers{Question: q, Answers: byQuestion[q.ID]})
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.IconAnswersResponse{
		Icon:      icon,
		Questions: groups,
	})
}

// SubmitAnswer handles POST /icons/{id}/answers
func (h *IconHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.engine.SubmitAnswer(r.Context(), consensus.SubmitAnswerInput{
		IconID:      r.PathValue("id"),
		QuestionID:  req.QuestionID,
		Label:       req.Answer,
		Sources:     req.Sources,
		Reasoning:   req.Reasoning,
		SubmitterID: userID,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, answer)
}

// activeIcon loads the icon named by the path, writing 404 when it is
// unknown or deactivated.
func (h *IconHandler) activeIcon(w http.ResponseWriter, r *http.Request) (models.Icon, bool) {
	iconID := r.PathValue("id")
	icon, err := h.store.GetIcon(r.Context(), iconID)
	if err == nil && !icon.IsActive {
		err = db.ErrNotFound
	}
	if err != nil {
		middleware.WriteError(w, storeError(err, "icon", iconID))
		return models.Icon{}, false
	}
	return icon, true
}

func (h *IconHandler) requireIconAdmin(w http.ResponseWriter, r *http.Request, iconID string) bool {
	given := r.Header.Get(auth.HeaderAdminKey)
	if err := auth.ValidateIconAdmin(iconID, given, h.cfg.AdminKeySalt, h.cfg.AdminKey); err != nil {
		middleware.ErrorResponse(w, http.StatusForbidden, "invalid admin key")
		return false
	}
	return true
}

func iconDetail(icon models.Icon) models.IconDetailResponse {
	results := scoring.ResultsFromScores(icon.Scores)
	return models.IconDetailResponse{
		Icon:    icon,
		Results: results,
		Compass: scoring.CompassPosition(results),
	}
}
