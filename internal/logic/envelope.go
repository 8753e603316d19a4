package logic

import (
	"fmt"

	"github.com/guildops/bench-api/internal/models"
)

// Envelope returns the span from the first to the last hardest-tier fight of
// a night, or nil when the night has none.
func Envelope(fights []models.Fight) *models.Interval {
	var env *models.Interval
	for i := range fights {
		f := &fights[i]
		if !f.IsHardest() {
			continue
		}
		if env == nil {
			env = &models.Interval{StartMs: f.StartMs, EndMs: f.EndMs}
			continue
		}
		if f.StartMs < env.StartMs {
			env.StartMs = f.StartMs
		}
		if f.EndMs > env.EndMs {
			env.EndMs = f.EndMs
		}
	}
	return env
}

// ApplyEnvelopeOverride replaces either endpoint of the detected envelope
// with operator-supplied values. A nil detected envelope with a full
// override still yields an envelope, so a night whose logs are unusable can
// be rescued by hand. Returns whether an override was applied.
func ApplyEnvelopeOverride(env *models.Interval, ov *models.PartialInterval) (*models.Interval, bool, error) {
	if ov.Empty() {
		return env, false, nil
	}

	out := models.Interval{}
	if env != nil {
		out = *env
	}
	if ov.StartMs != nil {
		out.StartMs = *ov.StartMs
	}
	if ov.EndMs != nil {
		out.EndMs = *ov.EndMs
	}
	if env == nil && (ov.StartMs == nil || ov.EndMs == nil) {
		return nil, false, fmt.Errorf("envelope override is partial but no envelope was detected")
	}
	if !out.Valid() {
		return nil, false, fmt.Errorf("envelope override ends at %d before it starts at %d", out.EndMs, out.StartMs)
	}
	return &out, true, nil
}

// SplitPrePost divides the envelope into pre- and post-break halves. With no
// break the whole envelope is the pre half and no extension applies. The
// extension widens the post half to cover boundary-pull minutes credited
// past the break.
func SplitPrePost(env models.Interval, brk *models.Interval, postExtensionMs int64) models.HalfSplit {
	if brk == nil {
		return models.HalfSplit{PreMs: env.EndMs - env.StartMs}
	}
	return models.HalfSplit{
		PreMs:  brk.StartMs - env.StartMs,
		PostMs: env.EndMs - brk.EndMs + postExtensionMs,
	}
}
