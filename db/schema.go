package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id                 UUID PRIMARY KEY,
		competition_id     TEXT NOT NULL,
		category_id        TEXT NOT NULL,
		athlete_ids        TEXT[] NOT NULL DEFAULT '{}',
		finished           BOOLEAN NOT NULL DEFAULT FALSE,
		tatami_number      INTEGER CHECK (tatami_number >= 1),
		version            INTEGER NOT NULL DEFAULT 1,
		main_bracket       JSONB NOT NULL DEFAULT '[]',
		recovery_bracket_1 JSONB NOT NULL DEFAULT '[]',
		recovery_bracket_2 JSONB NOT NULL DEFAULT '[]',
		results_key        TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (competition_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                UUID PRIMARY KEY,
		tournament_id     UUID NOT NULL REFERENCES tournaments (id) ON DELETE CASCADE,
		white_athlete_id  TEXT,
		red_athlete_id    TEXT,
		winner_athlete_id TEXT,
		loser_recovered   BOOLEAN NOT NULL DEFAULT FALSE,
		is_started        BOOLEAN NOT NULL DEFAULT FALSE,
		is_over           BOOLEAN NOT NULL DEFAULT FALSE,
		match_type        TEXT NOT NULL,
		match_scores      JSONB NOT NULL DEFAULT '{}',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS matches_tournament_id_idx ON matches (tournament_id)`,
	`CREATE INDEX IF NOT EXISTS tournaments_competition_id_idx ON tournaments (competition_id)`,
}

// Migrate creates the tables the service needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
