// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Question: a quiz statement on one axis with a direction and weights
  - Icon: a public figure with cached per-axis scores
  - IconAnswer: a sourced answer for an icon on a question, with vote tallies
  - IconVote: one user's up- or downvote on an answer
  - AxisResult, Compass: scoring output

# Request Types

  - CreateQuestionRequest, UpdateQuestionRequest
  - ScoreQuizRequest: answers (question id -> value, -2..2)
  - CreateIconRequest
  - SubmitAnswerRequest, UpdateAnswerRequest
  - RecordVoteRequest: vote_type, counter_evidence

Request structs carry validate tags checked by middleware.Validate.

# Response Types

  - ScoreQuizResponse: results, compass
  - CreateIconResponse: icon_id, admin_key
  - IconDetailResponse: icon, results, compass
  - IconAnswersResponse: answers grouped per question
  - VoteOutcome: tallies and the pair's accepted answer after a vote
  - ErrorResponse: error, message

# Answer Labels

	Strongly Agree     2
	Agree              1
	Neutral            0
	Disagree          -1
	Strongly Disagree -2

# Errors

Error carries a Kind (validation, not_found, forbidden, conflict, storage)
that the HTTP layer maps to a status code:

	if models.IsKind(err, models.KindConflict) {
		// safe to retry
	}
*/
package models
