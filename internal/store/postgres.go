package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guildops/bench-api/internal/models"
)

// PgPool is the subset of pgxpool.Pool the store uses, extracted for
// mocking.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore persists operator configuration and computed results.
type PostgresStore struct {
	pg PgPool
}

func NewPostgresStore(pg *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pg: pg}
}

// NewPostgresStoreWithPool wires an arbitrary PgPool, used by tests.
func NewPostgresStoreWithPool(pg PgPool) *PostgresStore {
	return &PostgresStore{pg: pg}
}

// Roster returns every roster entry, including inactive members.
func (s *PostgresStore) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT main, COALESCE(join_night, ''), COALESCE(leave_night, ''), active
		FROM roster
		ORDER BY main
	`)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.Main, &e.JoinNight, &e.LeaveNight, &e.Active); err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Aliases(ctx context.Context) ([]models.Alias, error) {
	rows, err := s.pg.Query(ctx, `SELECT alt, main FROM aliases ORDER BY alt`)
	if err != nil {
		return nil, fmt.Errorf("query aliases: %w", err)
	}
	defer rows.Close()

	var out []models.Alias
	for rows.Next() {
		var a models.Alias
		if err := rows.Scan(&a.Alt, &a.Main); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AvailabilityOverrides(ctx context.Context) ([]models.AvailabilityOverride, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT night_id, player, half, available, COALESCE(reason, '')
		FROM availability_overrides
		ORDER BY night_id, player, half
	`)
	if err != nil {
		return nil, fmt.Errorf("query availability overrides: %w", err)
	}
	defer rows.Close()

	var out []models.AvailabilityOverride
	for rows.Next() {
		var ov models.AvailabilityOverride
		var half string
		if err := rows.Scan(&ov.NightID, &ov.Player, &half, &ov.Available, &ov.Reason); err != nil {
			return nil, fmt.Errorf("scan availability override: %w", err)
		}
		ov.Half = models.Half(half)
		out = append(out, ov)
	}
	return out, rows.Err()
}

func (s *PostgresStore) NightOverrides(ctx context.Context) (map[string]models.NightOverride, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT night_id, break_start_ms, break_end_ms, envelope_start_ms, envelope_end_ms
		FROM night_overrides
	`)
	if err != nil {
		return nil, fmt.Errorf("query night overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.NightOverride)
	for rows.Next() {
		var ov models.NightOverride
		var brkStart, brkEnd, envStart, envEnd *int64
		if err := rows.Scan(&ov.NightID, &brkStart, &brkEnd, &envStart, &envEnd); err != nil {
			return nil, fmt.Errorf("scan night override: %w", err)
		}
		if brkStart != nil && brkEnd != nil {
			ov.Break = &models.Interval{StartMs: *brkStart, EndMs: *brkEnd}
		}
		if envStart != nil || envEnd != nil {
			ov.Envelope = &models.PartialInterval{StartMs: envStart, EndMs: envEnd}
		}
		out[ov.NightID] = ov
	}
	return out, rows.Err()
}

// ReplaceNight deletes and reinserts a night's summary and ledger rows in
// one transaction, so a recomputation never leaves stale rows behind.
func (s *PostgresStore) ReplaceNight(ctx context.Context, summary models.NightSummary, totals []models.BenchNightTotal) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM night_summaries WHERE night_id = $1`, summary.NightID); err != nil {
		return fmt.Errorf("delete night summary: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bench_night_totals WHERE night_id = $1`, summary.NightID); err != nil {
		return fmt.Errorf("delete night totals: %w", err)
	}

	candidates, err := json.Marshal(summary.GapCandidates)
	if err != nil {
		return fmt.Errorf("marshal gap candidates: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO night_summaries (
			night_id, envelope_start_ms, envelope_end_ms,
			break_start_ms, break_end_ms,
			pre_min, post_min, post_extension_min,
			override_used, largest_gap_min, gap_candidates, not_on_roster
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		summary.NightID, summary.EnvelopeStartMs, summary.EnvelopeEndMs,
		summary.BreakStartMs, summary.BreakEndMs,
		summary.PreMin, summary.PostMin, summary.PostExtensionMin,
		summary.OverrideUsed, summary.LargestGapMin, candidates, summary.NotOnRoster,
	)
	if err != nil {
		return fmt.Errorf("insert night summary: %w", err)
	}

	for _, t := range totals {
		_, err = tx.Exec(ctx, `
			INSERT INTO bench_night_totals (
				night_id, player,
				played_pre_min, played_post_min, played_total_min,
				bench_pre_min, bench_post_min, bench_total_min,
				out_pre_min, out_post_min,
				avail_pre, avail_post, has_out_time, status_source
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			t.NightID, t.Player,
			t.PlayedPreMin, t.PlayedPostMin, t.PlayedTotalMin,
			t.BenchPreMin, t.BenchPostMin, t.BenchTotalMin,
			t.OutPreMin, t.OutPostMin,
			t.AvailPre, t.AvailPost, t.HasOutTime, string(t.StatusSource),
		)
		if err != nil {
			return fmt.Errorf("insert night total for %s: %w", t.Player, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) NightSummaries(ctx context.Context) ([]models.NightSummary, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT night_id, envelope_start_ms, envelope_end_ms,
		       break_start_ms, break_end_ms,
		       pre_min, post_min, post_extension_min,
		       override_used, largest_gap_min, gap_candidates, not_on_roster
		FROM night_summaries
		ORDER BY night_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query night summaries: %w", err)
	}
	defer rows.Close()

	var out []models.NightSummary
	for rows.Next() {
		var s models.NightSummary
		var candidates []byte
		if err := rows.Scan(
			&s.NightID, &s.EnvelopeStartMs, &s.EnvelopeEndMs,
			&s.BreakStartMs, &s.BreakEndMs,
			&s.PreMin, &s.PostMin, &s.PostExtensionMin,
			&s.OverrideUsed, &s.LargestGapMin, &candidates, &s.NotOnRoster,
		); err != nil {
			return nil, fmt.Errorf("scan night summary: %w", err)
		}
		if len(candidates) > 0 {
			if err := json.Unmarshal(candidates, &s.GapCandidates); err != nil {
				return nil, fmt.Errorf("unmarshal gap candidates: %w", err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *PostgresStore) NightTotals(ctx context.Context) ([]models.BenchNightTotal, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT night_id, player,
		       played_pre_min, played_post_min, played_total_min,
		       bench_pre_min, bench_post_min, bench_total_min,
		       out_pre_min, out_post_min,
		       avail_pre, avail_post, has_out_time, status_source
		FROM bench_night_totals
		ORDER BY night_id, player
	`)
	if err != nil {
		return nil, fmt.Errorf("query night totals: %w", err)
	}
	defer rows.Close()

	var out []models.BenchNightTotal
	for rows.Next() {
		var t models.BenchNightTotal
		var source string
		if err := rows.Scan(
			&t.NightID, &t.Player,
			&t.PlayedPreMin, &t.PlayedPostMin, &t.PlayedTotalMin,
			&t.BenchPreMin, &t.BenchPostMin, &t.BenchTotalMin,
			&t.OutPreMin, &t.OutPostMin,
			&t.AvailPre, &t.AvailPost, &t.HasOutTime, &source,
		); err != nil {
			return nil, fmt.Errorf("scan night total: %w", err)
		}
		t.StatusSource = models.StatusSource(source)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceWeekTotals swaps the whole week_totals table for the recomputed
// set.
func (s *PostgresStore) ReplaceWeekTotals(ctx context.Context, totals []models.WeekTotal) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM week_totals`); err != nil {
		return fmt.Errorf("delete week totals: %w", err)
	}
	for _, wt := range totals {
		_, err = tx.Exec(ctx, `
			INSERT INTO week_totals (game_week, player, played_min, bench_min, bench_pre_min, bench_post_min)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, wt.GameWeek, wt.Player, wt.PlayedMin, wt.BenchMin, wt.BenchPreMin, wt.BenchPostMin)
		if err != nil {
			return fmt.Errorf("insert week total for %s/%s: %w", wt.GameWeek, wt.Player, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) WeekTotals(ctx context.Context) ([]models.WeekTotal, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT game_week, player, played_min, bench_min, bench_pre_min, bench_post_min
		FROM week_totals
		ORDER BY game_week, player
	`)
	if err != nil {
		return nil, fmt.Errorf("query week totals: %w", err)
	}
	defer rows.Close()

	var out []models.WeekTotal
	for rows.Next() {
		var wt models.WeekTotal
		if err := rows.Scan(&wt.GameWeek, &wt.Player, &wt.PlayedMin, &wt.BenchMin, &wt.BenchPreMin, &wt.BenchPostMin); err != nil {
			return nil, fmt.Errorf("scan week total: %w", err)
		}
		out = append(out, wt)
	}
	return out, rows.Err()
}

// ReplaceRankings swaps the whole rankings table for the recomputed set.
func (s *PostgresStore) ReplaceRankings(ctx context.Context, rankings []models.RankingEntry) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rankings`); err != nil {
		return fmt.Errorf("delete rankings: %w", err)
	}
	for _, r := range rankings {
		_, err = tx.Exec(ctx, `
			INSERT INTO rankings (rank, player, bench_min, played_min, bench_to_played_ratio)
			VALUES ($1, $2, $3, $4, $5)
		`, r.Rank, r.Player, r.BenchMin, r.PlayedMin, r.BenchToPlayedRatio)
		if err != nil {
			return fmt.Errorf("insert ranking for %s: %w", r.Player, err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Rankings(ctx context.Context) ([]models.RankingEntry, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT rank, player, bench_min, played_min, bench_to_played_ratio
		FROM rankings
		ORDER BY rank
	`)
	if err != nil {
		return nil, fmt.Errorf("query rankings: %w", err)
	}
	defer rows.Close()

	var out []models.RankingEntry
	for rows.Next() {
		var r models.RankingEntry
		if err := rows.Scan(&r.Rank, &r.Player, &r.BenchMin, &r.PlayedMin, &r.BenchToPlayedRatio); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertRosterEntry writes one roster row, keyed by main.
func (s *PostgresStore) UpsertRosterEntry(ctx context.Context, e models.RosterEntry) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO roster (main, join_night, leave_night, active)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
		ON CONFLICT (main) DO UPDATE SET
			join_night = EXCLUDED.join_night,
			leave_night = EXCLUDED.leave_night,
			active = EXCLUDED.active
	`, e.Main, e.JoinNight, e.LeaveNight, e.Active)
	if err != nil {
		return fmt.Errorf("upsert roster entry %s: %w", e.Main, err)
	}
	return nil
}

// UpsertAlias writes one alt-to-main mapping.
func (s *PostgresStore) UpsertAlias(ctx context.Context, a models.Alias) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO aliases (alt, main) VALUES ($1, $2)
		ON CONFLICT (alt) DO UPDATE SET main = EXCLUDED.main
	`, a.Alt, a.Main)
	if err != nil {
		return fmt.Errorf("upsert alias %s: %w", a.Alt, err)
	}
	return nil
}

// UpsertAvailabilityOverride writes one manual availability ruling.
func (s *PostgresStore) UpsertAvailabilityOverride(ctx context.Context, ov models.AvailabilityOverride) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO availability_overrides (night_id, player, half, available, reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (night_id, player, half) DO UPDATE SET
			available = EXCLUDED.available,
			reason = EXCLUDED.reason
	`, ov.NightID, ov.Player, string(ov.Half), ov.Available, ov.Reason)
	if err != nil {
		return fmt.Errorf("upsert availability override %s/%s: %w", ov.NightID, ov.Player, err)
	}
	return nil
}

// UpsertNightOverride writes one night's manual break/envelope ruling.
func (s *PostgresStore) UpsertNightOverride(ctx context.Context, ov models.NightOverride) error {
	var brkStart, brkEnd, envStart, envEnd *int64
	if ov.Break != nil {
		brkStart, brkEnd = &ov.Break.StartMs, &ov.Break.EndMs
	}
	if ov.Envelope != nil {
		envStart, envEnd = ov.Envelope.StartMs, ov.Envelope.EndMs
	}
	_, err := s.pg.Exec(ctx, `
		INSERT INTO night_overrides (night_id, break_start_ms, break_end_ms, envelope_start_ms, envelope_end_ms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (night_id) DO UPDATE SET
			break_start_ms = EXCLUDED.break_start_ms,
			break_end_ms = EXCLUDED.break_end_ms,
			envelope_start_ms = EXCLUDED.envelope_start_ms,
			envelope_end_ms = EXCLUDED.envelope_end_ms
	`, ov.NightID, brkStart, brkEnd, envStart, envEnd)
	if err != nil {
		return fmt.Errorf("upsert night override %s: %w", ov.NightID, err)
	}
	return nil
}
