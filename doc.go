// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Compass API server.

Compass is a political quiz. Quiz takers answer weighted statements and are
placed on five axes and a 2-D compass. Public figures ("icons") are placed on
the same axes from crowd-sourced answers: anyone may submit a sourced answer
for an icon, votes decide which answer is accepted, and the icon's cached
scores follow the accepted answers.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=compass.db ADMIN_KEY=... ADMIN_KEY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --admin-key ... --admin-salt ...

A .env file in the working directory is loaded first when present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY (--admin-key): Site admin key for question and answer moderation
  - ADMIN_KEY_SALT (--admin-salt): Secret for per-icon admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - MAX_VOTE_RETRIES (--max-retries): Conflict retries per operation (default: 5)
  - RATE_LIMIT (--rate-limit): Write requests per second per client (default: 5, 0 disables)
  - RATE_BURST (--rate-burst): Rate limiter burst (default: 10)

Run with --recompute-all to rescore every active icon and exit.

# Architecture

  - scoring: Axis table and the axis score calculator
  - consensus: Answer submission, voting and accepted-answer selection
  - aggregate: Icon score recomputation
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, validation, rate limiting
  - metrics: Prometheus collectors
  - models: Domain, request and response types, kinded errors
  - auth: Admin keys and caller identity
  - db: Schema, dialects and queries
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
