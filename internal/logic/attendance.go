package logic

import (
	"sort"
	"strings"
	"time"

	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/roster"
)

// AttendanceInput gathers everything the season attendance report reads.
type AttendanceInput struct {
	Summaries   []models.NightSummary
	NightTotals []models.BenchNightTotal
	Roster      []models.RosterEntry
	ResetDay    time.Weekday
}

// AttendanceRows computes the per-player season attendance ledger.
//
// A player's possible minutes are the envelope minutes of every observed
// night inside their membership window; the rate is (played+bench)/possible,
// nil when no minutes were possible. Weekly status letters aggregate the
// night rows: P for playtime, B for bench time, O for any unavailable half
// (or a night with no row at all).
func AttendanceRows(in AttendanceInput) ([]models.AttendanceRow, error) {
	summaries := make(map[string]models.NightSummary, len(in.Summaries))
	nightIDs := make([]string, 0, len(in.Summaries))
	for _, s := range in.Summaries {
		if s.NightID == "" {
			continue
		}
		summaries[s.NightID] = s
		nightIDs = append(nightIDs, s.NightID)
	}
	sort.Strings(nightIDs)

	totalsByKey := make(map[string]map[string]models.BenchNightTotal)
	benchPlayers := make(map[string]struct{})
	for _, nt := range in.NightTotals {
		byPlayer, ok := totalsByKey[nt.NightID]
		if !ok {
			byPlayer = make(map[string]models.BenchNightTotal)
			totalsByKey[nt.NightID] = byPlayer
		}
		byPlayer[nt.Player] = nt
		benchPlayers[nt.Player] = struct{}{}
	}

	// Ledger rows carry display names; index the roster the same way.
	rosterByDisplay := make(map[string]models.RosterEntry, len(in.Roster))
	players := make([]string, 0, len(in.Roster))
	seen := make(map[string]struct{})
	for _, e := range in.Roster {
		display := roster.Shorten(e.Main)
		if display == "" {
			continue
		}
		if _, dup := seen[display]; !dup {
			seen[display] = struct{}{}
			rosterByDisplay[display] = e
			players = append(players, display)
		}
	}
	// Players with ledger rows but no roster entry still show up; the
	// default window is wide open.
	for player := range benchPlayers {
		if _, dup := seen[player]; !dup {
			seen[player] = struct{}{}
			players = append(players, player)
		}
	}
	sort.Strings(players)

	rows := make([]models.AttendanceRow, 0, len(players))
	for _, player := range players {
		entry, onRoster := rosterByDisplay[player]
		_, hasRows := benchPlayers[player]
		if onRoster && !entry.Active && !hasRows {
			continue
		}
		if !onRoster {
			entry = models.RosterEntry{Main: player, Active: true}
		}

		row := models.AttendanceRow{
			Player:     player,
			WeekStatus: make(map[string]string),
		}

		membership := 0
		for _, nightID := range nightIDs {
			if !entry.WindowContains(nightID) {
				continue
			}
			membership++
			summary := summaries[nightID]
			nightMin := summary.PreMin + summary.PostMin
			row.PossibleMin += nightMin

			week, err := WeekID(nightID, in.ResetDay)
			if err != nil {
				return nil, err
			}

			nt, ok := totalsByKey[nightID][player]
			if !ok {
				if nightMin > 0 {
					addStatus(row.WeekStatus, week, models.StatusOut)
				}
				continue
			}

			row.PlayedMin += nt.PlayedTotalMin
			row.BenchMin += nt.BenchTotalMin

			if nt.PlayedTotalMin > 0 {
				addStatus(row.WeekStatus, week, models.StatusPlayed)
			}
			if nt.BenchTotalMin > 0 {
				addStatus(row.WeekStatus, week, models.StatusBenched)
			}
			if nt.HasOutTime {
				addStatus(row.WeekStatus, week, models.StatusOut)
			} else {
				if summary.PreMin > 0 && !nt.AvailPre {
					addStatus(row.WeekStatus, week, models.StatusOut)
				} else if summary.PostMin > 0 && !nt.AvailPost {
					addStatus(row.WeekStatus, week, models.StatusOut)
				}
			}
		}

		if membership == 0 {
			continue
		}
		if row.PossibleMin > 0 {
			rate := float64(row.PlayedMin+row.BenchMin) / float64(row.PossibleMin)
			row.Rate = &rate
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// addStatus appends a letter keeping the canonical P, B, O order.
func addStatus(weekStatus map[string]string, week, letter string) {
	cur := weekStatus[week]
	if strings.Contains(cur, letter) {
		return
	}
	merged := ""
	for _, l := range []string{models.StatusPlayed, models.StatusBenched, models.StatusOut} {
		if l == letter || strings.Contains(cur, l) {
			merged += l
		}
	}
	weekStatus[week] = merged
}
