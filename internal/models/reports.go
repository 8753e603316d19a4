package models

import "time"

// WeekTotal aggregates bench minutes into one reset-aligned game week.
type WeekTotal struct {
	GameWeek     string `json:"game_week"`
	Player       string `json:"player"`
	PlayedMin    int64  `json:"played_min"`
	BenchMin     int64  `json:"bench_min"`
	BenchPreMin  int64  `json:"bench_pre_min"`
	BenchPostMin int64  `json:"bench_post_min"`
}

// RankingEntry is one season-to-date row, least benched first.
type RankingEntry struct {
	Rank      int    `json:"rank"`
	Player    string `json:"player"`
	BenchMin  int64  `json:"bench_min"`
	PlayedMin int64  `json:"played_min"`
	// BenchToPlayedRatio is nil when played minutes are zero: insufficient
	// data, not an infinite ratio.
	BenchToPlayedRatio *float64 `json:"bench_to_played_ratio"`
}

// WeekStatus letters, in display order.
const (
	StatusPlayed  = "P"
	StatusBenched = "B"
	StatusOut     = "O"
)

// AttendanceRow is one player's season attendance summary plus per-week
// status letters keyed by game week.
type AttendanceRow struct {
	Player      string `json:"player"`
	PlayedMin   int64  `json:"played_min"`
	BenchMin    int64  `json:"bench_min"`
	PossibleMin int64  `json:"possible_min"`
	// Rate is nil when no envelope minutes fall inside the player's
	// membership window.
	Rate       *float64          `json:"rate"`
	WeekStatus map[string]string `json:"week_status"`
}

// ForecastRow is one "at least K attend" row of the forecast table.
type ForecastRow struct {
	MinPlayers int `json:"min_players"`
	// Predicted uses the fixed baseline rate for every player; Actual uses
	// measured attendance rates.
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
	Delta     float64 `json:"delta"`
}

// NightStatus distinguishes how a night fared within a run.
type NightStatus string

const (
	NightComputed NightStatus = "computed"
	NightSkipped  NightStatus = "skipped"
	NightFailed   NightStatus = "failed"
)

// NightResult records one night's outcome inside a pipeline run.
type NightResult struct {
	NightID string      `json:"night_id"`
	Status  NightStatus `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	Players int         `json:"players,omitempty"`
}

// RunResult is the atomic result of one pipeline run. Callers retry failed
// nights individually.
type RunResult struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Nights     []NightResult `json:"nights"`
	WeekRows   int           `json:"week_rows"`
	RankedRows int           `json:"ranked_rows"`
}

// Computed returns the count of successfully computed nights.
func (r *RunResult) Computed() int {
	n := 0
	for _, nr := range r.Nights {
		if nr.Status == NightComputed {
			n++
		}
	}
	return n
}
