// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the answer store and vote ledger.

# Connecting

Open connects to PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite):

	dialect, _ := db.ParseDialect(cfg.DatabaseType)
	conn, err := db.Open(dialect, cfg.DatabaseURL)

SQLite connections wait on busy locks and take the write lock at BEGIN, so
concurrent writers serialize instead of failing.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
MigrateLegacyAxisNames then rewrites legacy axis labels on stored questions.

# Tables

  - question: Quiz statements, soft-deleted via is_active
  - icon: Public figures with cached axis scores
  - icon_answer: Sourced answers with vote tallies and the accepted flag
  - icon_vote: One vote per user per answer

# Relationships

	icon 1──* icon_answer *──1 question
	icon_answer 1──* icon_vote

A partial unique index allows at most one active accepted answer per
(icon, question) pair.

# Queries

Store wraps the connection; InTx runs a function against a transaction:

	err := store.InTx(ctx, func(q *db.Queries) error {
		if err := q.LockPair(ctx, iconID, questionID); err != nil {
			return err
		}
		...
	})

IsConflict classifies driver errors that a caller should retry.
*/
package db
