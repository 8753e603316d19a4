package logic

import (
	"sort"

	"github.com/guildops/bench-api/internal/models"
)

// BenchInput is everything needed to settle one night's ledger.
type BenchInput struct {
	NightID string
	Blocks  []models.Block
	Split   models.HalfSplit

	// Overrides are per-player, per-half rulings for this night, keyed by
	// resolved player name. They always win over inference.
	Overrides []models.AvailabilityOverride

	// PreBoundary and PostBoundary hold players seen in the pull adjacent
	// to each half (last pull before the break, first pull after it).
	// Presence infers availability for that half even with zero playtime.
	PreBoundary  map[string]struct{}
	PostBoundary map[string]struct{}

	// Credits add playtime outside any logged pull: envelope minutes
	// opened up by start/end overrides and the post-break extension, keyed
	// by resolved player name.
	Credits map[string]Credit
}

// Credit is extra playtime granted per half, in ms.
type Credit struct {
	PreMs  int64
	PostMs int64
}

type halfOverride struct {
	set       bool
	available bool
}

// BenchForNight converts a night's blocks into played/bench minute totals
// per player, applying the availability-inference policy.
//
// A player with any playtime in one half is inferred available for the whole
// other half, so absence there counts as bench rather than "didn't attend".
// Unavailable halves accrue out minutes instead of bench, tagged at
// construction so downstream consumers never re-derive it.
func BenchForNight(in BenchInput) []models.BenchNightTotal {
	type agg struct {
		preMs  int64
		postMs int64
	}
	played := make(map[string]*agg)
	get := func(player string) *agg {
		a, ok := played[player]
		if !ok {
			a = &agg{}
			played[player] = a
		}
		return a
	}

	for _, b := range in.Blocks {
		a := get(b.Player)
		switch b.Half {
		case models.HalfPre:
			a.preMs += b.DurationMs()
		case models.HalfPost:
			a.postMs += b.DurationMs()
		}
	}

	for player, c := range in.Credits {
		if c.PreMs <= 0 && c.PostMs <= 0 {
			continue
		}
		a := get(player)
		a.preMs += c.PreMs
		a.postMs += c.PostMs
	}

	// Boundary players with no blocks still get a row: present but benched.
	for player := range in.PreBoundary {
		get(player)
	}
	for player := range in.PostBoundary {
		get(player)
	}

	overrides := make(map[string][2]halfOverride)
	for _, ov := range in.Overrides {
		pair := overrides[ov.Player]
		idx := 0
		if ov.Half == models.HalfPost {
			idx = 1
		}
		pair[idx] = halfOverride{set: true, available: ov.Available}
		overrides[ov.Player] = pair
	}
	// An override for a player with no blocks also creates a row, so a
	// "was available, never subbed in" ruling produces bench minutes.
	for player := range overrides {
		get(player)
	}

	preFullMin := in.Split.PreMin()
	postFullMin := in.Split.PostMin()

	players := make([]string, 0, len(played))
	for player := range played {
		players = append(players, player)
	}
	sort.Strings(players)

	out := make([]models.BenchNightTotal, 0, len(players))
	for _, player := range players {
		a := played[player]
		playedPreMin := a.preMs / 60000
		playedPostMin := a.postMs / 60000
		if playedPreMin > preFullMin {
			playedPreMin = preFullMin
		}
		if playedPostMin > postFullMin {
			playedPostMin = postFullMin
		}

		_, preBoundary := in.PreBoundary[player]
		_, postBoundary := in.PostBoundary[player]

		inferredPre := a.preMs > 0 || a.postMs > 0 || preBoundary
		inferredPost := a.preMs > 0 || a.postMs > 0 || postBoundary

		availPre, availPost := inferredPre, inferredPost
		ov := overrides[player]
		if ov[0].set {
			availPre = ov[0].available
		}
		if ov[1].set {
			availPost = ov[1].available
		}

		row := models.BenchNightTotal{
			NightID:       in.NightID,
			Player:        player,
			PlayedPreMin:  playedPreMin,
			PlayedPostMin: playedPostMin,
			AvailPre:      availPre,
			AvailPost:     availPost,
		}

		if availPre {
			row.BenchPreMin = max64(0, preFullMin-playedPreMin)
		} else {
			row.OutPreMin = preFullMin
		}
		if availPost {
			row.BenchPostMin = max64(0, postFullMin-playedPostMin)
		} else {
			row.OutPostMin = postFullMin
		}

		row.PlayedTotalMin = row.PlayedPreMin + row.PlayedPostMin
		row.BenchTotalMin = row.BenchPreMin + row.BenchPostMin
		row.HasOutTime = row.OutPreMin > 0 || row.OutPostMin > 0

		// Zero-length halves carry no signal for provenance.
		preMeaningful := preFullMin > 0
		postMeaningful := postFullMin > 0
		switch {
		case ov[0].set || ov[1].set:
			row.StatusSource = models.SourceOverride
		case preMeaningful && (!availPre || playedPreMin == 0),
			postMeaningful && (!availPost || playedPostMin == 0):
			row.StatusSource = models.SourceInference
		default:
			row.StatusSource = models.SourceRoster
		}

		out = append(out, row)
	}
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
