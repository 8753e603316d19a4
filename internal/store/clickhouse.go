package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/guildops/bench-api/internal/models"
)

// FightArchive stores ingested fights in ClickHouse. The table is
// append-only; reads dedup pulls that appear in more than one overlapping
// report by their canonical fight key.
type FightArchive struct {
	ch driver.Conn
}

func NewFightArchive(ch driver.Conn) *FightArchive {
	return &FightArchive{ch: ch}
}

const fightsDDL = `
CREATE TABLE IF NOT EXISTS fights (
	report_code  String,
	fight_id     Int32,
	night_id     String,
	name         String,
	encounter_id Int32,
	difficulty   Int32,
	kill         UInt8,
	start_ms     Int64,
	end_ms       Int64,
	participants Array(String),
	ingested_at  DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (night_id, report_code, fight_id)
`

const reportsDDL = `
CREATE TABLE IF NOT EXISTS reports (
	code        String,
	title       String,
	night_id    String,
	start_ms    Int64,
	end_ms      Int64,
	notes       String,
	ingested_at DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (night_id, code)
`

// Migrate creates the ClickHouse tables when they do not exist yet.
func (a *FightArchive) Migrate(ctx context.Context) error {
	for _, ddl := range []string{fightsDDL, reportsDDL} {
		if err := a.ch.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("clickhouse migrate: %w", err)
		}
	}
	return nil
}

// Nights lists every night with at least one ingested fight.
func (a *FightArchive) Nights(ctx context.Context) ([]string, error) {
	rows, err := a.ch.Query(ctx, `SELECT DISTINCT night_id FROM fights ORDER BY night_id`)
	if err != nil {
		return nil, fmt.Errorf("query nights: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var nightID string
		if err := rows.Scan(&nightID); err != nil {
			return nil, fmt.Errorf("scan night: %w", err)
		}
		out = append(out, nightID)
	}
	return out, rows.Err()
}

// FightsForNight loads a night's fights, collapsing the same pull logged by
// two reports to one record.
func (a *FightArchive) FightsForNight(ctx context.Context, nightID string) ([]models.Fight, error) {
	rows, err := a.ch.Query(ctx, `
		SELECT report_code, fight_id, night_id, name, encounter_id, difficulty, kill, start_ms, end_ms, participants
		FROM fights FINAL
		WHERE night_id = ?
		ORDER BY start_ms, report_code, fight_id
	`, nightID)
	if err != nil {
		return nil, fmt.Errorf("query fights for %s: %w", nightID, err)
	}
	defer rows.Close()

	seen := make(map[models.FightKey]struct{})
	var out []models.Fight
	for rows.Next() {
		var f models.Fight
		var kill uint8
		var fightID, encounterID, difficulty int32
		if err := rows.Scan(&f.ReportCode, &fightID, &f.NightID, &f.Name, &encounterID, &difficulty, &kill, &f.StartMs, &f.EndMs, &f.Participants); err != nil {
			return nil, fmt.Errorf("scan fight: %w", err)
		}
		f.FightID = int(fightID)
		f.EncounterID = int(encounterID)
		f.Difficulty = int(difficulty)
		f.Kill = kill != 0

		key := f.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMs < out[j].StartMs })
	return out, nil
}

// InsertFights batch-inserts a report's fights.
func (a *FightArchive) InsertFights(ctx context.Context, fights []models.Fight) error {
	if len(fights) == 0 {
		return nil
	}
	batch, err := a.ch.PrepareBatch(ctx, `
		INSERT INTO fights (report_code, fight_id, night_id, name, encounter_id, difficulty, kill, start_ms, end_ms, participants)
	`)
	if err != nil {
		return fmt.Errorf("prepare fight batch: %w", err)
	}
	for _, f := range fights {
		kill := uint8(0)
		if f.Kill {
			kill = 1
		}
		err := batch.Append(
			f.ReportCode, int32(f.FightID), f.NightID, f.Name,
			int32(f.EncounterID), int32(f.Difficulty), kill,
			f.StartMs, f.EndMs, f.Participants,
		)
		if err != nil {
			return fmt.Errorf("append fight %s/%d: %w", f.ReportCode, f.FightID, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send fight batch: %w", err)
	}
	return nil
}

// InsertReport records an ingested report's metadata.
func (a *FightArchive) InsertReport(ctx context.Context, r models.Report) error {
	err := a.ch.Exec(ctx, `
		INSERT INTO reports (code, title, night_id, start_ms, end_ms, notes, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Code, r.Title, r.NightID, r.StartMs, r.EndMs, r.Notes, time.Now())
	if err != nil {
		return fmt.Errorf("insert report %s: %w", r.Code, err)
	}
	return nil
}

// Reports lists ingested report metadata, newest night first.
func (a *FightArchive) Reports(ctx context.Context) ([]models.Report, error) {
	rows, err := a.ch.Query(ctx, `
		SELECT code, title, night_id, start_ms, end_ms, notes, ingested_at
		FROM reports FINAL
		ORDER BY night_id DESC, code
	`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.Code, &r.Title, &r.NightID, &r.StartMs, &r.EndMs, &r.Notes, &r.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
