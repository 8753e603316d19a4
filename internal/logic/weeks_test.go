package logic

import (
	"testing"
	"time"

	"github.com/guildops/bench-api/internal/models"
)

func TestWeekIDTuesdayReset(t *testing.T) {
	tests := []struct {
		night string
		want  string
	}{
		{"2024-07-02", "2024-07-02"}, // Tuesday maps to itself
		{"2024-07-04", "2024-07-02"}, // Thursday
		{"2024-07-08", "2024-07-02"}, // Monday, still the prior reset
		{"2024-07-09", "2024-07-09"}, // next Tuesday
	}
	for _, tc := range tests {
		got, err := WeekID(tc.night, time.Tuesday)
		if err != nil {
			t.Fatalf("WeekID(%q): %v", tc.night, err)
		}
		if got != tc.want {
			t.Errorf("WeekID(%q) = %q, want %q", tc.night, got, tc.want)
		}
	}
}

func TestWeekIDRejectsMalformedNight(t *testing.T) {
	if _, err := WeekID("07/02/2024", time.Tuesday); err == nil {
		t.Error("expected error for malformed night id")
	}
}

func TestWeekTotalsAggregatesAcrossNights(t *testing.T) {
	nights := []models.BenchNightTotal{
		{NightID: "2024-07-02", Player: "Alice", PlayedPreMin: 60, PlayedPostMin: 50},
		{NightID: "2024-07-04", Player: "Alice", PlayedPreMin: 40, BenchPostMin: 30},
	}

	totals, err := WeekTotals(nights, nil, time.Tuesday)
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 1 {
		t.Fatalf("len(totals) = %d, want 1", len(totals))
	}
	wt := totals[0]
	if wt.GameWeek != "2024-07-02" {
		t.Errorf("game week = %q, want 2024-07-02", wt.GameWeek)
	}
	if wt.PlayedMin != 150 || wt.BenchMin != 30 || wt.BenchPostMin != 30 {
		t.Errorf("totals = played %d bench %d post %d", wt.PlayedMin, wt.BenchMin, wt.BenchPostMin)
	}
}

func TestWeekTotalsZeroFillsAbsentMembers(t *testing.T) {
	nights := []models.BenchNightTotal{
		{NightID: "2024-07-02", Player: "Alice", PlayedPreMin: 60},
	}
	roster := []models.RosterEntry{
		{Main: "Alice", Active: true},
		{Main: "Bob", Active: true},
		{Main: "Cara", Active: true, JoinNight: "2024-08-01"},
	}

	totals, err := WeekTotals(nights, roster, time.Tuesday)
	if err != nil {
		t.Fatal(err)
	}

	byPlayer := make(map[string]models.WeekTotal)
	for _, wt := range totals {
		byPlayer[wt.Player] = wt
	}
	bob, ok := byPlayer["Bob"]
	if !ok {
		t.Fatal("absent member Bob should get a zero row")
	}
	if bob.PlayedMin != 0 || bob.BenchMin != 0 {
		t.Errorf("Bob row = %+v, want zeros", bob)
	}
	if _, ok := byPlayer["Cara"]; ok {
		t.Error("Cara joined after the week, no row expected")
	}
}

func TestWeekTotalsSortedWeekThenPlayer(t *testing.T) {
	nights := []models.BenchNightTotal{
		{NightID: "2024-07-09", Player: "Bob"},
		{NightID: "2024-07-02", Player: "Zed"},
		{NightID: "2024-07-02", Player: "Amy"},
	}

	totals, err := WeekTotals(nights, nil, time.Tuesday)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Amy", "Zed", "Bob"}
	for i, wt := range totals {
		if wt.Player != want[i] {
			t.Errorf("totals[%d].Player = %q, want %q", i, wt.Player, want[i])
		}
	}
}

func TestRankingsLeastBenchedFirst(t *testing.T) {
	weeks := []models.WeekTotal{
		{GameWeek: "2024-07-02", Player: "Alice", PlayedMin: 100, BenchMin: 20},
		{GameWeek: "2024-07-09", Player: "Alice", PlayedMin: 100, BenchMin: 10},
		{GameWeek: "2024-07-02", Player: "Bob", PlayedMin: 110, BenchMin: 10},
	}
	roster := []models.RosterEntry{
		{Main: "Alice", Active: true},
		{Main: "Bob", Active: true},
	}

	ranks := Rankings(weeks, roster)
	if len(ranks) != 2 {
		t.Fatalf("len(ranks) = %d, want 2", len(ranks))
	}
	if ranks[0].Player != "Bob" || ranks[0].Rank != 1 {
		t.Errorf("first = %+v, want Bob rank 1", ranks[0])
	}
	if ranks[1].Player != "Alice" || ranks[1].BenchMin != 30 {
		t.Errorf("second = %+v, want Alice bench 30", ranks[1])
	}
	if ranks[1].BenchToPlayedRatio == nil || *ranks[1].BenchToPlayedRatio != 0.15 {
		t.Errorf("Alice ratio = %v, want 0.15", ranks[1].BenchToPlayedRatio)
	}
}

func TestRankingsExcludeInactive(t *testing.T) {
	weeks := []models.WeekTotal{
		{GameWeek: "2024-07-02", Player: "Alice", PlayedMin: 100},
		{GameWeek: "2024-07-02", Player: "Gone", PlayedMin: 100},
	}
	roster := []models.RosterEntry{
		{Main: "Alice", Active: true},
		{Main: "Gone", Active: false, LeaveNight: "2024-07-03"},
	}

	ranks := Rankings(weeks, roster)
	if len(ranks) != 1 || ranks[0].Player != "Alice" {
		t.Errorf("ranks = %+v, want Alice only", ranks)
	}
}

func TestRankingsNilRatioWithoutPlaytime(t *testing.T) {
	weeks := []models.WeekTotal{
		{GameWeek: "2024-07-02", Player: "Alice", BenchMin: 110},
	}
	roster := []models.RosterEntry{{Main: "Alice", Active: true}}

	ranks := Rankings(weeks, roster)
	if len(ranks) != 1 {
		t.Fatalf("len(ranks) = %d, want 1", len(ranks))
	}
	if ranks[0].BenchToPlayedRatio != nil {
		t.Errorf("ratio = %v, want nil", *ranks[0].BenchToPlayedRatio)
	}
}
