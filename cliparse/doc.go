// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnvFile loads a .env file if present, then ParseFlags returns a Config
struct with all settings:

	_ = cliparse.LoadEnvFile(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - AdminKey: Site admin key (required)
  - AdminKeySalt: Secret for icon admin key HMAC (required)
  - MaxRetries: Conflict retries per consensus operation (default: 5)
  - RateLimit: Write requests per second per client (default: 5, 0 disables)
  - RateBurst: Rate limiter burst (default: 10)
  - RecomputeAll: Rescore every icon and exit

# CLI Flags

	-p              Server port
	-d              Database URL
	-t              Database type
	--admin-key     Site admin key
	--admin-salt    Admin key salt
	--max-retries   Conflict retries
	--rate-limit    Requests per second per client
	--rate-burst    Rate limiter burst
	--recompute-all Rescore all icons and exit

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	ADMIN_KEY        → --admin-key
	ADMIN_KEY_SALT   → --admin-salt
	MAX_VOTE_RETRIES → --max-retries
	RATE_LIMIT       → --rate-limit
	RATE_BURST       → --rate-burst

CLI flags take precedence over environment variables, and environment
variables over values from .env.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - ADMIN_KEY and ADMIN_KEY_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
*/
package cliparse
