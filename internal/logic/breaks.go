package logic

import (
	"fmt"
	"sort"

	"github.com/guildops/bench-api/internal/models"
)

// BreakConfig bounds break detection. The window is expressed in minutes
// since the night's first fight; a candidate gap qualifies when its midpoint
// falls inside the window and its duration is between the min and max.
type BreakConfig struct {
	WindowStartMin int64
	WindowEndMin   int64
	MinBreakMin    int64
	MaxBreakMin    int64
}

// Validate fails fast on a window that can never match.
func (c BreakConfig) Validate() error {
	if c.MinBreakMin > c.MaxBreakMin {
		return fmt.Errorf("break config: min %d exceeds max %d", c.MinBreakMin, c.MaxBreakMin)
	}
	if c.WindowStartMin > c.WindowEndMin {
		return fmt.Errorf("break config: window start %d exceeds end %d", c.WindowStartMin, c.WindowEndMin)
	}
	return nil
}

// BreakDiagnostics records every gap considered, for the night summary.
type BreakDiagnostics struct {
	Candidates    []models.GapCandidate
	LargestGapMin int64
}

// DetectBreak finds the one rest break of a night: the widest inter-fight
// gap (all difficulties) whose midpoint lies inside the configured window,
// rejected unless its duration is within the break length bounds.
func DetectBreak(fights []models.Fight, cfg BreakConfig) (*models.Interval, BreakDiagnostics, error) {
	diag := BreakDiagnostics{}
	if err := cfg.Validate(); err != nil {
		return nil, diag, err
	}
	if len(fights) < 2 {
		return nil, diag, nil
	}

	sorted := make([]models.Fight, len(fights))
	copy(sorted, fights)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })

	nightStart := sorted[0].StartMs

	var best *models.Interval
	var bestGapMin int64
	for i := 0; i < len(sorted)-1; i++ {
		gapStart := sorted[i].EndMs
		gapEnd := sorted[i+1].StartMs
		gapMin := (gapEnd - gapStart) / 60000
		if gapMin <= 0 {
			continue
		}
		if gapMin > diag.LargestGapMin {
			diag.LargestGapMin = gapMin
		}
		midMin := ((gapStart+gapEnd)/2 - nightStart) / 60000
		if midMin < cfg.WindowStartMin || midMin > cfg.WindowEndMin {
			continue
		}
		diag.Candidates = append(diag.Candidates, models.GapCandidate{
			StartMs:     gapStart,
			EndMs:       gapEnd,
			DurationMin: gapMin,
		})
		if gapMin > bestGapMin {
			bestGapMin = gapMin
			best = &models.Interval{StartMs: gapStart, EndMs: gapEnd}
		}
	}

	if best == nil {
		return nil, diag, nil
	}
	if bestGapMin < cfg.MinBreakMin || bestGapMin > cfg.MaxBreakMin {
		return nil, diag, nil
	}
	return best, diag, nil
}

// ResolveBreak applies a manual override when present, otherwise detects.
// The override must be well formed; detection diagnostics are still returned
// so operators can compare their override against what detection saw.
func ResolveBreak(fights []models.Fight, cfg BreakConfig, override *models.Interval) (*models.Interval, bool, BreakDiagnostics, error) {
	detected, diag, err := DetectBreak(fights, cfg)
	if override == nil {
		return detected, false, diag, err
	}
	if !override.Valid() {
		return nil, false, diag, fmt.Errorf("break override ends at %d before it starts at %d", override.EndMs, override.StartMs)
	}
	ov := *override
	return &ov, true, diag, nil
}
