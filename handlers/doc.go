// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Compass API.

# Handler Types

Each handler is a struct holding its collaborators and config:

  - QuestionHandler: quiz question administration
  - QuizHandler: scoring a quiz taker's answers
  - IconHandler: icons, their answers and cached scores
  - AnswerHandler: answer edits, moderation and voting

Handlers are created via constructor functions:

	engine := consensus.NewEngine(store, agg, cfg.MaxRetries)
	iconHandler := handlers.NewIconHandler(store, engine, agg, cfg)

# Questions

	GET    /questions?short=true → ListQuestions
	POST   /questions            → CreateQuestion
	PUT    /questions/{id}       → UpdateQuestion (rescores icons on axis, direction or weight change)
	DELETE /questions/{id}       → DeleteQuestion (deactivates, rescores icons)

Question administration requires the site X-Admin-Key. Axis names are
canonicalized before they are stored, so legacy names are accepted.

# Quiz

	POST /quiz/score → ScoreQuiz

Answers map question ids to values between -2 and 2. Nothing is stored.

# Icons and Answers

	POST   /icons                 → CreateIcon (returns admin_key)
	GET    /icons                 → ListIcons
	GET    /icons/{id}            → GetIcon
	DELETE /icons/{id}            → DeleteIcon
	POST   /icons/{id}/recompute  → RecomputeIcon
	GET    /icons/{id}/answers    → ListAnswers
	POST   /icons/{id}/answers    → SubmitAnswer

Deleting and rescoring an icon require its admin key or the site key.

# Voting

	PUT    /answers/{id}          → UpdateAnswer (submitter only)
	DELETE /answers/{id}          → DeleteAnswer (site key)
	POST   /answers/{id}/votes    → RecordVote
	GET    /answers/{id}/votes/me → GetMyVote

Callers identify themselves with the X-User-ID header. A first vote returns
201; repeating or switching a vote returns 200.
*/
package handlers
