// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Compass API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	store := db.NewStore(conn, dialect)
	mux := router.NewRouter(store, cfg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics - Prometheus exposition

Questions (writes require the site X-Admin-Key):

	GET    /questions?short=true - List active questions
	POST   /questions            - Create question
	PUT    /questions/{id}       - Edit question
	DELETE /questions/{id}       - Deactivate question

Quiz (public):

	POST /quiz/score - Score answers, returns axis results and compass

Icons:

	POST   /icons                - Create icon (X-User-ID, returns admin key)
	GET    /icons                - List active icons
	GET    /icons/{id}           - Icon with cached scores
	DELETE /icons/{id}           - Deactivate icon (icon admin key)
	POST   /icons/{id}/recompute - Rescore icon (icon admin key)
	GET    /icons/{id}/answers   - Answers grouped by question
	POST   /icons/{id}/answers   - Submit answer (X-User-ID)

Answers and voting:

	PUT    /answers/{id}          - Edit answer (submitter only)
	DELETE /answers/{id}          - Remove answer (site key)
	POST   /answers/{id}/votes    - Up- or downvote (X-User-ID)
	GET    /answers/{id}/votes/me - Caller's vote (X-User-ID)

# Handler Initialization

The router builds one aggregator and one consensus engine and shares them
across handlers:

	agg := aggregate.NewAggregator(store, aggregate.DefaultConcurrency)
	engine := consensus.NewEngine(store, agg, cfg.MaxRetries)

Public write routes are wrapped in the per-client rate limiter configured by
RATE_LIMIT and RATE_BURST.
*/
package router
