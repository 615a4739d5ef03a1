// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, X-User-ID.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse and validate JSON request bodies:

	var req models.CreateIconRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.Validate(&req); err != nil {
		middleware.WriteError(w, err)
		return
	}

# Error Mapping

WriteError maps error kinds to status codes:

	validation -> 400
	not_found  -> 404
	forbidden  -> 403
	conflict   -> 409 (safe to retry)
	storage    -> 500 (details logged, not returned)

# Rate Limiting

Mutating routes can be wrapped in a per-client token bucket:

	rl := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.AdminKeySalt)
	mux.HandleFunc("POST /answers/{id}/votes", rl.Limit(handler))

Clients are keyed by the hashed address of the connected peer. Forwarded
headers are honored only when TrustProxy is set. Over-budget requests get
429 with a Retry-After header.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

PeerIP ignores the headers and returns the connected address.
*/
package middleware
