// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/compass/cliparse"
	"github.com/danielhkuo/compass/consensus"
	"github.com/danielhkuo/compass/middleware"
	"github.com/danielhkuo/compass/models"
)

type AnswerHandler struct {
	engine *consensus.Engine
	cfg    cliparse.Config
}

func NewAnswerHandler(engine *consensus.Engine, cfg cliparse.Config) *AnswerHandler {
	return &AnswerHandler{engine: engine, cfg: cfg}
}

// UpdateAnswer handles PUT /answers/{id}
// Only the original submitter may edit an answer.
func (h *AnswerHandler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	answer, err := h.engine.UpdateAnswer(r.Context(), r.PathValue("id"), userID, consensus.UpdateAnswerInput{
		Label:     req.Answer,
		Sources:   req.Sources,
		Reasoning: req.Reasoning,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, answer)
}

// DeleteAnswer handles DELETE /answers/{id}
// Moderation only: requires the site admin key.
func (h *AnswerHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	if !requireSiteAdmin(w, r, h.cfg) {
		return
	}

	answerID := r.PathValue("id")
	if err := h.engine.RemoveAnswer(r.Context(), answerID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordVote handles POST /answers/{id}/votes
// Returns 201 for a first vote and 200 when an existing vote was replaced
// or repeated.
func (h *AnswerHandler) RecordVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req models.RecordVoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	out, err := h.engine.RecordVote(r.Context(), userID, r.PathValue("id"), req.VoteType, req.CounterEvidence)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if out.Changed && !out.IsUpdate {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, out)
}

// GetMyVote handles GET /answers/{id}/votes/me
func (h *AnswerHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	vote, err := h.engine.GetVote(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, vote)
}
