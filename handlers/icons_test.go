// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/compass/auth"
	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/testutil"
)

func newIconHandler(env testEnv) *IconHandler {
	return NewIconHandler(env.store, env.engine, env.agg, testutil.GetTestConfig())
}

func iconAdminHeaders(iconID string) map[string]string {
	key := auth.GenerateAdminKey(auth.IconScope(iconID), testutil.GetTestConfig().AdminKeySalt)
	return map[string]string{auth.HeaderAdminKey: key}
}

func TestCreateIcon(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	t.Run("returns icon id and admin key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/icons", models.CreateIconRequest{
			Name:     "Ada Lovelace",
			ImageURL: "https://example.com/ada.png",
		}, userHeaders("creator-1"))
		w := httptest.NewRecorder()

		handler.CreateIcon(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.CreateIconResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.IconID == "" {
			t.Fatal("Expected icon id")
		}
		if err := auth.ValidateAdminKey(auth.IconScope(resp.IconID), resp.AdminKey, testutil.GetTestConfig().AdminKeySalt); err != nil {
			t.Errorf("Returned admin key does not validate: %v", err)
		}

		icon, err := env.store.GetIcon(context.Background(), resp.IconID)
		if err != nil {
			t.Fatalf("Failed to load icon: %v", err)
		}
		if icon.Name != "Ada Lovelace" || icon.CreatedBy != "creator-1" || !icon.IsActive {
			t.Errorf("Unexpected stored icon: %+v", icon)
		}
	})

	tests := []struct {
		name       string
		body       models.CreateIconRequest
		headers    map[string]string
		wantStatus int
	}{
		{"missing user id", models.CreateIconRequest{Name: "X"}, nil, http.StatusUnauthorized},
		{"missing name", models.CreateIconRequest{}, userHeaders("u"), http.StatusBadRequest},
		{"bad image url", models.CreateIconRequest{Name: "X", ImageURL: "not a url"}, userHeaders("u"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/icons", tt.body, tt.headers)
			w := httptest.NewRecorder()

			handler.CreateIcon(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}
}

func TestListIcons(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	testutil.CreateTestIcon(t, env.store, "Bravo")
	testutil.CreateTestIcon(t, env.store, "Alpha")
	gone := testutil.CreateTestIcon(t, env.store, "Charlie")
	if _, err := env.engine.DeactivateIcon(context.Background(), gone.ID); err != nil {
		t.Fatalf("Failed to deactivate icon: %v", err)
	}

	req := testutil.MakeRequest("GET", "/icons", nil, nil)
	w := httptest.NewRecorder()

	handler.ListIcons(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var icons []models.Icon
	testutil.AssertJSON(t, w, &icons)
	if len(icons) != 2 {
		t.Fatalf("Expected 2 active icons, got %d", len(icons))
	}
	if icons[0].Name != "Alpha" || icons[1].Name != "Bravo" {
		t.Errorf("Expected icons ordered by name, got %s, %s", icons[0].Name, icons[1].Name)
	}
}

func TestGetIcon(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	q := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{})
	icon := testutil.CreateTestIcon(t, env.store, "Test Icon")
	testutil.CreateTestAnswer(t, env.store, icon.ID, q.ID, testutil.AnswerOpts{Accepted: true})
	if _, err := env.agg.RecomputeScores(context.Background(), icon.ID); err != nil {
		t.Fatalf("Failed to score icon: %v", err)
	}

	req := testutil.MakeRequest("GET", "/icons/"+icon.ID, nil, nil)
	req.SetPathValue("id", icon.ID)
	w := httptest.NewRecorder()

	handler.GetIcon(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.IconDetailResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Icon.Scores.Economic != 60 || resp.Icon.TotalAnswers != 1 {
		t.Errorf("Unexpected cached scores: %+v (total %d)", resp.Icon.Scores, resp.Icon.TotalAnswers)
	}
	economic, ok := resultFor(resp.Results, "economic")
	if !ok || economic.RightPercent != 80 {
		t.Errorf("Unexpected economic result: %+v", economic)
	}
	if math.Abs(resp.Compass.X-0.6) > 1e-9 || resp.Compass.Y != 0 {
		t.Errorf("Expected compass (0.6, 0), got (%v, %v)", resp.Compass.X, resp.Compass.Y)
	}

	t.Run("not found", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/icons/missing", nil, nil)
		req.SetPathValue("id", "missing")
		w := httptest.NewRecorder()

		handler.GetIcon(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestDeleteIcon(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)
	ctx := context.Background()

	q := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{})
	icon := testutil.CreateTestIcon(t, env.store, "Test Icon")
	testutil.CreateTestAnswer(t, env.store, icon.ID, q.ID, testutil.AnswerOpts{Accepted: true})
	other := testutil.CreateTestIcon(t, env.store, "Other Icon")

	del := func(id string, headers map[string]string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("DELETE", "/icons/"+id, nil, headers)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.DeleteIcon(w, req)
		return w
	}

	testutil.AssertStatus(t, del(icon.ID, nil), http.StatusForbidden)
	// another icon's key does not work
	testutil.AssertStatus(t, del(icon.ID, iconAdminHeaders(other.ID)), http.StatusForbidden)
	testutil.AssertStatus(t, del(icon.ID, iconAdminHeaders(icon.ID)), http.StatusNoContent)

	got, err := env.store.GetIcon(ctx, icon.ID)
	if err != nil {
		t.Fatalf("Failed to load icon: %v", err)
	}
	if got.IsActive {
		t.Error("Icon should be inactive")
	}
	answers, err := env.store.ListIconAnswers(ctx, icon.ID)
	if err != nil {
		t.Fatalf("Failed to list answers: %v", err)
	}
	if len(answers) != 0 {
		t.Errorf("Expected answers deactivated with the icon, got %d active", len(answers))
	}

	testutil.AssertStatus(t, del(icon.ID, iconAdminHeaders(icon.ID)), http.StatusNotFound)

	// the site key works for any icon
	testutil.AssertStatus(t, del(other.ID, adminHeaders()), http.StatusNoContent)
}

func TestRecomputeIcon(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	q := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{Direction: models.DirectionRight, Weight: 1})
	icon := testutil.CreateTestIcon(t, env.store, "Test Icon")
	testutil.CreateTestAnswer(t, env.store, icon.ID, q.ID, testutil.AnswerOpts{Accepted: true})

	recompute := func(id string, headers map[string]string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/icons/"+id+"/recompute", nil, headers)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.RecomputeIcon(w, req)
		return w
	}

	testutil.AssertStatus(t, recompute(icon.ID, nil), http.StatusForbidden)

	w := recompute(icon.ID, iconAdminHeaders(icon.ID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.IconDetailResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Icon.Scores.Economic != -20 || resp.Icon.TotalAnswers != 1 {
		t.Errorf("Unexpected recomputed icon: %+v (total %d)", resp.Icon.Scores, resp.Icon.TotalAnswers)
	}

	testutil.AssertStatus(t, recompute("missing", adminHeaders()), http.StatusNotFound)
}

func TestListAnswers(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	q1 := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{})
	q2 := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{Axis: "Progressive vs. Conservative"})
	retired := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{})
	icon := testutil.CreateTestIcon(t, env.store, "Test Icon")

	best := testutil.CreateTestAnswer(t, env.store, icon.ID, q1.ID, testutil.AnswerOpts{Upvotes: 3, Accepted: true})
	testutil.CreateTestAnswer(t, env.store, icon.ID, q1.ID, testutil.AnswerOpts{Label: models.LabelDisagree, Upvotes: 1})
	testutil.CreateTestAnswer(t, env.store, icon.ID, q2.ID, testutil.AnswerOpts{Accepted: true})
	testutil.CreateTestAnswer(t, env.store, icon.ID, retired.ID, testutil.AnswerOpts{Accepted: true})
	if _, err := env.store.DeactivateQuestion(context.Background(), retired.ID); err != nil {
		t.Fatalf("Failed to deactivate question: %v", err)
	}

	req := testutil.MakeRequest("GET", "/icons/"+icon.ID+"/answers", nil, nil)
	req.SetPathValue("id", icon.ID)
	w := httptest.NewRecorder()

	handler.ListAnswers(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.IconAnswersResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Icon.ID != icon.ID {
		t.Errorf("Expected icon %s, got %s", icon.ID, resp.Icon.ID)
	}
	if len(resp.Questions) != 2 {
		t.Fatalf("Expected 2 question groups, got %d", len(resp.Questions))
	}

	counts := map[string]int{}
	for _, g := range resp.Questions {
		counts[g.Question.ID] = len(g.Answers)
		if g.Question.ID == q1.ID && g.Answers[0].ID != best.ID {
			t.Errorf("Expected best ranked answer first, got %s", g.Answers[0].ID)
		}
	}
	if counts[q1.ID] != 2 || counts[q2.ID] != 1 {
		t.Errorf("Unexpected grouping: %v", counts)
	}
	if _, ok := counts[retired.ID]; ok {
		t.Error("Answers to an inactive question should not be listed")
	}
}

func TestSubmitAnswer(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	q := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{Weight: 2})
	icon := testutil.CreateTestIcon(t, env.store, "Test Icon")

	submit := func(iconID, userID string, body models.SubmitAnswerRequest) *httptest.ResponseRecorder {
		var headers map[string]string
		if userID != "" {
			headers = userHeaders(userID)
		}
		req := testutil.MakeRequest("POST", "/icons/"+iconID+"/answers", body, headers)
		req.SetPathValue("id", iconID)
		w := httptest.NewRecorder()
		handler.SubmitAnswer(w, req)
		return w
	}

	valid := models.SubmitAnswerRequest{
		QuestionID: q.ID,
		Answer:     models.LabelAgree,
		Sources:    []models.Source{testutil.TestSource()},
		Reasoning:  "Said so in a 2019 interview.",
	}

	w := submit(icon.ID, "alice", valid)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var first models.IconAnswer
	testutil.AssertJSON(t, w, &first)
	if !first.IsAccepted || first.AnswerValue != 1 || first.SubmittedBy != "alice" {
		t.Errorf("First answer should be auto-accepted: %+v", first)
	}

	// the engine rescored the icon after acceptance
	got, err := env.store.GetIcon(context.Background(), icon.ID)
	if err != nil {
		t.Fatalf("Failed to load icon: %v", err)
	}
	if got.Scores.Economic != 40 {
		t.Errorf("Expected economic score 40, got %d", got.Scores.Economic)
	}

	challenger := valid
	challenger.Answer = models.LabelDisagree
	w = submit(icon.ID, "bob", challenger)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var second models.IconAnswer
	testutil.AssertJSON(t, w, &second)
	if second.IsAccepted {
		t.Error("Challenger should not be accepted on submission")
	}

	noSources := valid
	noSources.Sources = nil
	badLabel := valid
	badLabel.Answer = "Maybe"
	badSource := valid
	badSource.Sources = []models.Source{{Title: "x", URL: "not a url"}}
	unknownQuestion := valid
	unknownQuestion.QuestionID = "missing"

	tests := []struct {
		name       string
		iconID     string
		userID     string
		body       models.SubmitAnswerRequest
		wantStatus int
	}{
		{"missing user id", icon.ID, "", valid, http.StatusUnauthorized},
		{"no sources", icon.ID, "carol", noSources, http.StatusBadRequest},
		{"bad source url", icon.ID, "carol", badSource, http.StatusBadRequest},
		{"unknown label", icon.ID, "carol", badLabel, http.StatusBadRequest},
		{"duplicate from same submitter", icon.ID, "alice", valid, http.StatusBadRequest},
		{"unknown icon", "missing", "carol", valid, http.StatusNotFound},
		{"unknown question", icon.ID, "carol", unknownQuestion, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStatus(t, submit(tt.iconID, tt.userID, tt.body), tt.wantStatus)
		})
	}
}
