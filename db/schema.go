// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/compass/scoring"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The same DDL runs on PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// MigrateLegacyAxisNames rewrites legacy axis labels stored on questions to
// their canonical names. Returns the number of rows changed.
func MigrateLegacyAxisNames(ctx context.Context, db *sql.DB) (int64, error) {
	var total int64
	for legacy, canonical := range scoring.LegacyNames() {
		res, err := db.ExecContext(ctx, `
			UPDATE question SET axis = $1 WHERE axis = $2
		`, canonical, legacy)
		if err != nil {
			return total, fmt.Errorf("failed to migrate axis %q: %w", legacy, err)
		}
		n, _ := res.RowsAffected()
		if n > 0 {
			slog.Info("migrated legacy axis name", "from", legacy, "to", canonical, "rows", n)
		}
		total += n
	}
	return total, nil
}

const schema = `
-- Questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    axis TEXT NOT NULL,
    topic TEXT NOT NULL,
    text TEXT NOT NULL,
    direction TEXT NOT NULL CHECK (direction IN ('Left', 'Right')),
    weight_agree INTEGER NOT NULL CHECK (weight_agree BETWEEN 1 AND 5),
    weight_disagree INTEGER NOT NULL CHECK (weight_disagree BETWEEN 1 AND 5),
    weight INTEGER NOT NULL CHECK (weight BETWEEN 1 AND 5),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    in_short_quiz BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_question_active ON question(is_active);

-- Icons
CREATE TABLE IF NOT EXISTS icon (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    external_id TEXT,
    description TEXT,
    image_url TEXT,
    score_economic INTEGER NOT NULL DEFAULT 0 CHECK (score_economic BETWEEN -100 AND 100),
    score_authority INTEGER NOT NULL DEFAULT 0 CHECK (score_authority BETWEEN -100 AND 100),
    score_social INTEGER NOT NULL DEFAULT 0 CHECK (score_social BETWEEN -100 AND 100),
    score_foreign INTEGER NOT NULL DEFAULT 0 CHECK (score_foreign BETWEEN -100 AND 100),
    score_religion INTEGER NOT NULL DEFAULT 0 CHECK (score_religion BETWEEN -100 AND 100),
    total_answers INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_by TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    scores_updated_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_icon_active ON icon(is_active);
CREATE INDEX IF NOT EXISTS idx_icon_external_id ON icon(external_id);

-- Icon answers
CREATE TABLE IF NOT EXISTS icon_answer (
    id TEXT PRIMARY KEY,
    icon_id TEXT NOT NULL REFERENCES icon(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES question(id),
    answer TEXT NOT NULL,
    answer_value INTEGER NOT NULL CHECK (answer_value BETWEEN -2 AND 2),
    sources TEXT NOT NULL DEFAULT '[]',
    reasoning TEXT,
    submitted_by TEXT NOT NULL,
    upvotes INTEGER NOT NULL DEFAULT 0 CHECK (upvotes >= 0),
    downvotes INTEGER NOT NULL DEFAULT 0 CHECK (downvotes >= 0),
    net_votes INTEGER NOT NULL DEFAULT 0,
    is_accepted BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_icon_answer_pair ON icon_answer(icon_id, question_id, is_active);
CREATE INDEX IF NOT EXISTS idx_icon_answer_ranking ON icon_answer(icon_id, question_id, net_votes DESC, created_at ASC);

-- At most one accepted answer per active (icon, question) pair
CREATE UNIQUE INDEX IF NOT EXISTS idx_icon_answer_accepted
    ON icon_answer(icon_id, question_id) WHERE is_accepted AND is_active;

-- One active answer per submitter per pair
CREATE UNIQUE INDEX IF NOT EXISTS idx_icon_answer_submitter
    ON icon_answer(icon_id, question_id, submitted_by) WHERE is_active;

-- Icon votes
CREATE TABLE IF NOT EXISTS icon_vote (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    answer_id TEXT NOT NULL REFERENCES icon_answer(id) ON DELETE CASCADE,
    vote_type TEXT NOT NULL CHECK (vote_type IN ('upvote', 'downvote')),
    counter_title TEXT,
    counter_url TEXT,
    counter_description TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (user_id, answer_id)
);

CREATE INDEX IF NOT EXISTS idx_icon_vote_answer ON icon_vote(answer_id);
`
