// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/compass/models"
	"github.com/danielhkuo/compass/testutil"
)

// TestConcurrentVotes verifies that simultaneous votes on the two sibling
// answers of a pair are all counted and leave exactly one accepted answer
func TestConcurrentVotes(t *testing.T) {
	env := setupEnv(t)
	handler := NewAnswerHandler(env.engine, testutil.GetTestConfig())
	accepted, challenger := setupContest(t, env)

	numVoters := 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			// alternate targets so both rows of the pair are contended
			target := accepted.ID
			if voterIdx%2 == 1 {
				target = challenger.ID
			}
			w := vote(handler, target, fmt.Sprintf("voter-%d", voterIdx), models.RecordVoteRequest{VoteType: models.VoteUp})
			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	// every vote is recorded once
	var voteCount int
	err := env.store.DB().QueryRow("SELECT COUNT(*) FROM icon_vote").Scan(&voteCount)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if voteCount != numVoters {
		t.Errorf("Expected %d votes in database, got %d", numVoters, voteCount)
	}

	// tallies agree with the ledger
	var upvotes int
	err = env.store.DB().QueryRow("SELECT COALESCE(SUM(upvotes), 0) FROM icon_answer").Scan(&upvotes)
	if err != nil {
		t.Fatalf("Failed to sum upvotes: %v", err)
	}
	if upvotes != numVoters {
		t.Errorf("Expected %d upvotes across answers, got %d", numVoters, upvotes)
	}

	// equal tallies keep the earliest answer
	ids := testutil.AcceptedAnswerIDs(t, env.store, accepted.IconID, accepted.QuestionID)
	if len(ids) != 1 || ids[0] != accepted.ID {
		t.Errorf("Expected the original answer to stay accepted, got %v", ids)
	}
}

// TestConcurrentFirstSubmissions verifies that when several submitters race
// to answer an unanswered pair, exactly one answer is auto-accepted
func TestConcurrentFirstSubmissions(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	q := testutil.CreateTestQuestion(t, env.store, testutil.QuestionOpts{})
	icon := testutil.CreateTestIcon(t, env.store, "Contested Icon")

	numSubmitters := 5
	var successCount, acceptedCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numSubmitters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/icons/"+icon.ID+"/answers", models.SubmitAnswerRequest{
				QuestionID: q.ID,
				Answer:     models.LabelNeutral,
				Sources:    []models.Source{testutil.TestSource()},
			}, userHeaders(fmt.Sprintf("submitter-%d", idx)))
			req.SetPathValue("id", icon.ID)
			w := httptest.NewRecorder()

			handler.SubmitAnswer(w, req)

			if w.Code != http.StatusCreated {
				return
			}
			successCount.Add(1)

			var a models.IconAnswer
			if err := json.NewDecoder(w.Body).Decode(&a); err == nil && a.IsAccepted {
				acceptedCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numSubmitters {
		t.Errorf("Expected %d successful submissions, got %d", numSubmitters, successCount.Load())
	}
	if acceptedCount.Load() != 1 {
		t.Errorf("Expected exactly 1 auto-accepted answer, got %d", acceptedCount.Load())
	}

	ids := testutil.AcceptedAnswerIDs(t, env.store, icon.ID, q.ID)
	if len(ids) != 1 {
		t.Errorf("Expected 1 accepted answer in database, got %d", len(ids))
	}
}

// TestConcurrentIconDeletes verifies that racing deletes of the same icon
// succeed exactly once
func TestConcurrentIconDeletes(t *testing.T) {
	env := setupEnv(t)
	handler := newIconHandler(env)

	icon := testutil.CreateTestIcon(t, env.store, "Doomed Icon")
	headers := iconAdminHeaders(icon.ID)

	numAttempts := 3
	var successCount, notFoundCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("DELETE", "/icons/"+icon.ID, nil, headers)
			req.SetPathValue("id", icon.ID)
			w := httptest.NewRecorder()

			handler.DeleteIcon(w, req)

			switch w.Code {
			case http.StatusNoContent:
				successCount.Add(1)
			case http.StatusNotFound:
				notFoundCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful delete, got %d", successCount.Load())
	}
	if notFoundCount.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d not-found responses, got %d", numAttempts-1, notFoundCount.Load())
	}
}
