package models

import (
	"math"
	"time"
)

// Difficulty tiers as reported by the combat-log service. Only the hardest
// tier counts toward bench/attendance math.
const DifficultyHardest = 5

// AbsMsThreshold separates relative fight timestamps from absolute epoch ms.
// Anything below this is treated as relative to the report start.
const AbsMsThreshold = int64(1e12)

// Report is one uploaded combat log. A night may span several reports.
type Report struct {
	Code             string           `json:"code"`
	Title            string           `json:"title"`
	NightID          string           `json:"night_id"`
	StartMs          int64            `json:"start_ms"`
	EndMs            int64            `json:"end_ms"`
	Notes            string           `json:"notes,omitempty"`
	BreakOverride    *Interval        `json:"break_override,omitempty"`
	EnvelopeOverride *PartialInterval `json:"envelope_override,omitempty"`
	IngestedAt       time.Time        `json:"ingested_at"`
}

// Interval is a closed [StartMs, EndMs) span in absolute epoch ms.
type Interval struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return time.Duration(iv.EndMs-iv.StartMs) * time.Millisecond
}

// Minutes returns the interval length in whole minutes, truncated.
func (iv Interval) Minutes() int64 {
	return (iv.EndMs - iv.StartMs) / 60000
}

// Midpoint returns the temporal midpoint of the interval.
func (iv Interval) Midpoint() int64 {
	return (iv.StartMs + iv.EndMs) / 2
}

// Valid reports whether the interval is well formed.
func (iv Interval) Valid() bool {
	return iv.EndMs > iv.StartMs
}

// PartialInterval allows overriding only one endpoint of a detected span.
type PartialInterval struct {
	StartMs *int64 `json:"start_ms,omitempty"`
	EndMs   *int64 `json:"end_ms,omitempty"`
}

// Empty reports whether neither endpoint is set.
func (p *PartialInterval) Empty() bool {
	return p == nil || (p.StartMs == nil && p.EndMs == nil)
}

// Fight is one encounter attempt. Immutable once ingested.
type Fight struct {
	ReportCode   string   `json:"report_code"`
	FightID      int      `json:"fight_id"`
	NightID      string   `json:"night_id"`
	Name         string   `json:"name"`
	EncounterID  int      `json:"encounter_id"` // 0 for trash
	Difficulty   int      `json:"difficulty"`
	Kill         bool     `json:"kill"`
	StartMs      int64    `json:"start_ms"` // absolute epoch ms
	EndMs        int64    `json:"end_ms"`
	Participants []string `json:"participants"`
}

// IsHardest reports whether the fight was logged on the hardest tier.
func (f *Fight) IsHardest() bool {
	return f.Difficulty == DifficultyHardest
}

// Span returns the fight's absolute interval.
func (f *Fight) Span() Interval {
	return Interval{StartMs: f.StartMs, EndMs: f.EndMs}
}

// FightKey identifies a pull independently of which report logged it, so the
// same pull appearing in two overlapping logs collapses to one record.
// Timestamps are rounded to the nearest 100ms to absorb clock drift between
// loggers without colliding distinct pulls.
type FightKey struct {
	EncounterID    int   `json:"encounter_id"`
	Difficulty     int   `json:"difficulty"`
	StartRoundedMs int64 `json:"start_rounded_ms"`
	EndRoundedMs   int64 `json:"end_rounded_ms"`
}

// Key returns the canonical dedup key for the fight.
func (f *Fight) Key() FightKey {
	return FightKey{
		EncounterID:    f.EncounterID,
		Difficulty:     f.Difficulty,
		StartRoundedMs: roundMs(f.StartMs),
		EndRoundedMs:   roundMs(f.EndMs),
	}
}

func roundMs(ms int64) int64 {
	return int64(math.Round(float64(ms)/100.0)) * 100
}

// NormalizeFightTimes converts possibly-relative fight timestamps into
// absolute epoch ms using the report start. The log service usually reports
// fight times relative to the report, but not always.
func NormalizeFightTimes(reportStartMs, start, end int64) (absStart, absEnd int64) {
	if start < AbsMsThreshold && end < AbsMsThreshold {
		return reportStartMs + start, reportStartMs + end
	}
	return start, end
}

// NightOverride collects the manual rulings attached to a night's reports:
// a hand-picked break interval and/or envelope endpoints.
type NightOverride struct {
	NightID  string           `json:"night_id"`
	Break    *Interval        `json:"break,omitempty"`
	Envelope *PartialInterval `json:"envelope,omitempty"`
}

// Participation is one (player, hardest-tier fight) pair.
type Participation struct {
	Player     string `json:"player"`
	NightID    string `json:"night_id"`
	ReportCode string `json:"report_code"`
	FightID    int    `json:"fight_id"`
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
}
