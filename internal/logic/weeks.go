package logic

import (
	"fmt"
	"sort"
	"time"

	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/roster"
)

const nightIDLayout = "2006-01-02"

// WeekID maps a night to its game week: the most recent reset weekday on or
// before the night, so all nights of one activity week share a bucket.
func WeekID(nightID string, reset time.Weekday) (string, error) {
	day, err := time.Parse(nightIDLayout, nightID)
	if err != nil {
		return "", fmt.Errorf("parse night id %q: %w", nightID, err)
	}
	offset := (int(day.Weekday()) - int(reset) + 7) % 7
	return day.AddDate(0, 0, -offset).Format(nightIDLayout), nil
}

// WeekTotals buckets night totals into reset-aligned weeks. Roster members
// active during an observed week but absent from every night of it are
// filled in with zero totals, so a fully-absent week reads as 100% bench
// time available rather than missing data. Totals are a full sum, never an
// incremental merge.
func WeekTotals(nightTotals []models.BenchNightTotal, entries []models.RosterEntry, reset time.Weekday) ([]models.WeekTotal, error) {
	type key struct {
		week   string
		player string
	}

	agg := make(map[key]*models.WeekTotal)
	weekNights := make(map[string][]string)
	for _, nt := range nightTotals {
		week, err := WeekID(nt.NightID, reset)
		if err != nil {
			return nil, err
		}
		weekNights[week] = append(weekNights[week], nt.NightID)
		k := key{week: week, player: nt.Player}
		wt, ok := agg[k]
		if !ok {
			wt = &models.WeekTotal{GameWeek: week, Player: nt.Player}
			agg[k] = wt
		}
		wt.PlayedMin += nt.PlayedPreMin + nt.PlayedPostMin
		wt.BenchMin += nt.BenchPreMin + nt.BenchPostMin
		wt.BenchPreMin += nt.BenchPreMin
		wt.BenchPostMin += nt.BenchPostMin
	}

	for week, nights := range weekNights {
		sort.Strings(nights)
		for i := range entries {
			e := &entries[i]
			display := roster.Shorten(e.Main)
			if display == "" {
				continue
			}
			member := false
			for _, night := range nights {
				if e.WindowContains(night) {
					member = true
					break
				}
			}
			if !member {
				continue
			}
			k := key{week: week, player: display}
			if _, ok := agg[k]; !ok {
				agg[k] = &models.WeekTotal{GameWeek: week, Player: display}
			}
		}
	}

	out := make([]models.WeekTotal, 0, len(agg))
	for _, wt := range agg {
		out = append(out, *wt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GameWeek != out[j].GameWeek {
			return out[i].GameWeek < out[j].GameWeek
		}
		return out[i].Player < out[j].Player
	})
	return out, nil
}

// Rankings computes the season-to-date bench ranking: currently-active
// roster members only, least benched first. The bench-to-played ratio is
// nil when a player has no playtime: insufficient data, not infinity.
func Rankings(weekTotals []models.WeekTotal, entries []models.RosterEntry) []models.RankingEntry {
	// Ledger rows carry display names; roster mains are realm-qualified.
	active := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Active {
			active[roster.Shorten(e.Main)] = true
		}
	}

	type sums struct {
		bench  int64
		played int64
	}
	season := make(map[string]*sums)
	for _, wt := range weekTotals {
		if !active[wt.Player] {
			continue
		}
		s, ok := season[wt.Player]
		if !ok {
			s = &sums{}
			season[wt.Player] = s
		}
		s.bench += wt.BenchMin
		s.played += wt.PlayedMin
	}

	out := make([]models.RankingEntry, 0, len(season))
	for player, s := range season {
		entry := models.RankingEntry{
			Player:    player,
			BenchMin:  s.bench,
			PlayedMin: s.played,
		}
		if s.played > 0 {
			ratio := float64(s.bench) / float64(s.played)
			entry.BenchToPlayedRatio = &ratio
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BenchMin != out[j].BenchMin {
			return out[i].BenchMin < out[j].BenchMin
		}
		return out[i].Player < out[j].Player
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
