// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/compass/cliparse"
	"github.com/danielhkuo/compass/db"
	"github.com/danielhkuo/compass/models"
)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.SQLite, filepath.Join(t.TempDir(), "compass_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore returns a Store over a fresh test database.
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()
	return db.NewStore(SetupTestDB(t), db.SQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file::memory:",
		DatabaseType: "sqlite",
		AdminKey:     "test-admin-key",
		AdminKeySalt: "test-admin-salt",
		MaxRetries:   5,
		RateLimit:    0,
		RateBurst:    10,
	}
}

// QuestionOpts overrides fixture defaults. Zero fields keep the default.
type QuestionOpts struct {
	Axis           string
	Direction      string
	WeightAgree    int
	WeightDisagree int
	Weight         int
	InShortQuiz    bool
}

// CreateTestQuestion inserts an active question and returns it.
// Defaults: economic axis, Left, all weights 3.
func CreateTestQuestion(t *testing.T, store *db.Store, opts QuestionOpts) models.Question {
	t.Helper()

	q := models.Question{
		ID:             uuid.NewString(),
		Axis:           "Equity vs. Free Market",
		Topic:          "Test topic",
		Text:           "Test question text",
		Direction:      models.DirectionLeft,
		WeightAgree:    3,
		WeightDisagree: 3,
		Weight:         3,
		IsActive:       true,
		InShortQuiz:    opts.InShortQuiz,
		CreatedAt:      time.Now().UTC(),
	}
	if opts.Axis != "" {
		q.Axis = opts.Axis
	}
	if opts.Direction != "" {
		q.Direction = opts.Direction
	}
	if opts.WeightAgree != 0 {
		q.WeightAgree = opts.WeightAgree
	}
	if opts.WeightDisagree != 0 {
		q.WeightDisagree = opts.WeightDisagree
	}
	if opts.Weight != 0 {
		q.Weight = opts.Weight
	}

	if err := store.InsertQuestion(context.Background(), q); err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}
	return q
}

// CreateTestIcon inserts an active icon and returns it.
func CreateTestIcon(t *testing.T, store *db.Store, name string) models.Icon {
	t.Helper()

	icon := models.Icon{
		ID:        uuid.NewString(),
		Name:      name,
		IsActive:  true,
		CreatedBy: "test-creator",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.InsertIcon(context.Background(), icon); err != nil {
		t.Fatalf("Failed to create test icon: %v", err)
	}
	return icon
}

// AnswerOpts describes a directly inserted icon answer.
type AnswerOpts struct {
	Label       string
	SubmittedBy string
	Upvotes     int
	Downvotes   int
	Accepted    bool
	CreatedAt   time.Time
}

// CreateTestAnswer inserts an icon answer as-is, bypassing the consensus
// engine, so tests can set up arbitrary tallies.
func CreateTestAnswer(t *testing.T, store *db.Store, iconID, questionID string, opts AnswerOpts) models.IconAnswer {
	t.Helper()

	if opts.Label == "" {
		opts.Label = models.LabelAgree
	}
	if opts.SubmittedBy == "" {
		opts.SubmittedBy = "submitter-" + uuid.NewString()[:8]
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}
	value, ok := models.AnswerValue(opts.Label)
	if !ok {
		t.Fatalf("invalid answer label %q", opts.Label)
	}

	a := models.IconAnswer{
		ID:          uuid.NewString(),
		IconID:      iconID,
		QuestionID:  questionID,
		Answer:      opts.Label,
		AnswerValue: value,
		Sources:     []models.Source{TestSource()},
		SubmittedBy: opts.SubmittedBy,
		Upvotes:     opts.Upvotes,
		Downvotes:   opts.Downvotes,
		NetVotes:    opts.Upvotes - opts.Downvotes,
		IsAccepted:  opts.Accepted,
		IsActive:    true,
		CreatedAt:   opts.CreatedAt,
		UpdatedAt:   opts.CreatedAt,
	}
	if err := store.InsertAnswer(context.Background(), a); err != nil {
		t.Fatalf("Failed to create test answer: %v", err)
	}
	return a
}

// TestSource returns a valid source citation.
func TestSource() models.Source {
	return models.Source{
		Title: "Interview transcript",
		URL:   "https://example.com/interview",
		Type:  "interview",
	}
}

// TestEvidence returns valid downvote counter evidence.
func TestEvidence() *models.CounterEvidence {
	return &models.CounterEvidence{
		Title: "Contradicting speech",
		URL:   "https://example.com/speech",
	}
}

// AcceptedAnswerIDs returns the ids of the active accepted answers of a pair.
func AcceptedAnswerIDs(t *testing.T, store *db.Store, iconID, questionID string) []string {
	t.Helper()

	answers, err := store.ListPairAnswers(context.Background(), iconID, questionID)
	if err != nil {
		t.Fatalf("Failed to list pair answers: %v", err)
	}
	var ids []string
	for _, a := range answers {
		if a.IsAccepted {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
