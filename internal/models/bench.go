package models

// Half tags which side of the rest break a block or minute total belongs to.
type Half string

const (
	HalfPre  Half = "pre"
	HalfPost Half = "post"
)

// StatusSource records how a player's availability for a half was decided,
// required for audit since inference is a heuristic, not ground truth.
type StatusSource string

const (
	SourceRoster    StatusSource = "roster"
	SourceOverride  StatusSource = "override"
	SourceInference StatusSource = "inference"
)

// Block is a maximal gap-bridged run of participation for one player within
// one half of a night.
type Block struct {
	Player   string `json:"player"`
	NightID  string `json:"night_id"`
	Half     Half   `json:"half"`
	BlockSeq int    `json:"block_seq"`
	StartMs  int64  `json:"start_ms"`
	EndMs    int64  `json:"end_ms"`
}

// DurationMs returns the block length in ms.
func (b *Block) DurationMs() int64 {
	return b.EndMs - b.StartMs
}

// HalfSplit carries the pre/post durations of a night's envelope after break
// splitting and post extension.
type HalfSplit struct {
	PreMs  int64 `json:"pre_ms"`
	PostMs int64 `json:"post_ms"`
}

// PreMin and PostMin return half durations in whole minutes, truncated.
func (s HalfSplit) PreMin() int64  { return s.PreMs / 60000 }
func (s HalfSplit) PostMin() int64 { return s.PostMs / 60000 }

// BenchNightTotal is the per-player ledger row for one night. The full set
// for a night is replaced on every pipeline run.
type BenchNightTotal struct {
	NightID string `json:"night_id"`
	Player  string `json:"player"`

	PlayedPreMin   int64 `json:"played_pre_min"`
	PlayedPostMin  int64 `json:"played_post_min"`
	PlayedTotalMin int64 `json:"played_total_min"`
	BenchPreMin    int64 `json:"bench_pre_min"`
	BenchPostMin   int64 `json:"bench_post_min"`
	BenchTotalMin  int64 `json:"bench_total_min"`
	OutPreMin      int64 `json:"out_pre_min"`
	OutPostMin     int64 `json:"out_post_min"`

	AvailPre  bool `json:"avail_pre"`
	AvailPost bool `json:"avail_post"`

	// HasOutTime is set once at row construction when any half carries
	// unavailable minutes, so consumers never scan for it.
	HasOutTime bool `json:"has_out_time"`

	StatusSource StatusSource `json:"status_source"`
}

// AvailabilityOverride is a manual per-player, per-half ruling entered by an
// operator. It always wins over inference.
type AvailabilityOverride struct {
	NightID   string `json:"night_id"`
	Player    string `json:"player"`
	Half      Half   `json:"half"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// NightSummary is the per-night audit row: the detected envelope and break,
// half durations, and diagnostics surfaced to operators.
type NightSummary struct {
	NightID string `json:"night_id"`

	EnvelopeStartMs int64  `json:"envelope_start_ms"`
	EnvelopeEndMs   int64  `json:"envelope_end_ms"`
	BreakStartMs    *int64 `json:"break_start_ms,omitempty"`
	BreakEndMs      *int64 `json:"break_end_ms,omitempty"`

	PreMin           int64   `json:"pre_min"`
	PostMin          int64   `json:"post_min"`
	PostExtensionMin float64 `json:"post_extension_min"`

	OverrideUsed bool `json:"override_used"`

	// LargestGapMin is the widest inter-fight gap seen by break detection,
	// kept so operators can tune the detection window.
	LargestGapMin int64          `json:"largest_gap_min"`
	GapCandidates []GapCandidate `json:"gap_candidates,omitempty"`

	NotOnRoster []string `json:"not_on_roster,omitempty"`
}

// GapCandidate is one inter-fight gap considered by break detection.
type GapCandidate struct {
	StartMs     int64 `json:"start_ms"`
	EndMs       int64 `json:"end_ms"`
	DurationMin int64 `json:"duration_min"`
}
