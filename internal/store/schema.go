package store

import (
	"context"
	"fmt"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS roster (
		main TEXT PRIMARY KEY,
		join_night TEXT,
		leave_night TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS aliases (
		alt TEXT PRIMARY KEY,
		main TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS availability_overrides (
		night_id TEXT NOT NULL,
		player TEXT NOT NULL,
		half TEXT NOT NULL,
		available BOOLEAN NOT NULL,
		reason TEXT,
		PRIMARY KEY (night_id, player, half)
	)`,
	`CREATE TABLE IF NOT EXISTS night_overrides (
		night_id TEXT PRIMARY KEY,
		break_start_ms BIGINT,
		break_end_ms BIGINT,
		envelope_start_ms BIGINT,
		envelope_end_ms BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS night_summaries (
		night_id TEXT PRIMARY KEY,
		envelope_start_ms BIGINT NOT NULL,
		envelope_end_ms BIGINT NOT NULL,
		break_start_ms BIGINT,
		break_end_ms BIGINT,
		pre_min BIGINT NOT NULL,
		post_min BIGINT NOT NULL,
		post_extension_min DOUBLE PRECISION NOT NULL,
		override_used BOOLEAN NOT NULL,
		largest_gap_min BIGINT NOT NULL,
		gap_candidates JSONB,
		not_on_roster TEXT[]
	)`,
	`CREATE TABLE IF NOT EXISTS bench_night_totals (
		night_id TEXT NOT NULL,
		player TEXT NOT NULL,
		played_pre_min BIGINT NOT NULL,
		played_post_min BIGINT NOT NULL,
		played_total_min BIGINT NOT NULL,
		bench_pre_min BIGINT NOT NULL,
		bench_post_min BIGINT NOT NULL,
		bench_total_min BIGINT NOT NULL,
		out_pre_min BIGINT NOT NULL,
		out_post_min BIGINT NOT NULL,
		avail_pre BOOLEAN NOT NULL,
		avail_post BOOLEAN NOT NULL,
		has_out_time BOOLEAN NOT NULL,
		status_source TEXT NOT NULL,
		PRIMARY KEY (night_id, player)
	)`,
	`CREATE TABLE IF NOT EXISTS week_totals (
		game_week TEXT NOT NULL,
		player TEXT NOT NULL,
		played_min BIGINT NOT NULL,
		bench_min BIGINT NOT NULL,
		bench_pre_min BIGINT NOT NULL,
		bench_post_min BIGINT NOT NULL,
		PRIMARY KEY (game_week, player)
	)`,
	`CREATE TABLE IF NOT EXISTS rankings (
		rank INT NOT NULL,
		player TEXT PRIMARY KEY,
		bench_min BIGINT NOT NULL,
		played_min BIGINT NOT NULL,
		bench_to_played_ratio DOUBLE PRECISION
	)`,
}

// Migrate creates the Postgres tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, ddl := range pgSchema {
		if _, err := s.pg.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
