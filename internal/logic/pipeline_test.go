package logic

import (
	"context"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/models"
)

type fakeFightStore struct {
	fights map[string][]models.Fight
}

func (s *fakeFightStore) Nights(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.fights))
	for nightID := range s.fights {
		out = append(out, nightID)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeFightStore) FightsForNight(_ context.Context, nightID string) ([]models.Fight, error) {
	return s.fights[nightID], nil
}

type fakeConfigStore struct {
	roster   []models.RosterEntry
	aliases  []models.Alias
	avail    []models.AvailabilityOverride
	nightOvs map[string]models.NightOverride
}

func (s *fakeConfigStore) Roster(_ context.Context) ([]models.RosterEntry, error) {
	return s.roster, nil
}

func (s *fakeConfigStore) Aliases(_ context.Context) ([]models.Alias, error) {
	return s.aliases, nil
}

func (s *fakeConfigStore) AvailabilityOverrides(_ context.Context) ([]models.AvailabilityOverride, error) {
	return s.avail, nil
}

func (s *fakeConfigStore) NightOverrides(_ context.Context) (map[string]models.NightOverride, error) {
	return s.nightOvs, nil
}

type fakeResultStore struct {
	summaries         map[string]models.NightSummary
	totals            map[string][]models.BenchNightTotal
	weekTotals        []models.WeekTotal
	rankings          []models.RankingEntry
	replaceNightCalls int
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{
		summaries: make(map[string]models.NightSummary),
		totals:    make(map[string][]models.BenchNightTotal),
	}
}

func (s *fakeResultStore) ReplaceNight(_ context.Context, summary models.NightSummary, totals []models.BenchNightTotal) error {
	s.replaceNightCalls++
	s.summaries[summary.NightID] = summary
	s.totals[summary.NightID] = totals
	return nil
}

func (s *fakeResultStore) NightSummaries(_ context.Context) ([]models.NightSummary, error) {
	out := make([]models.NightSummary, 0, len(s.summaries))
	for _, v := range s.summaries {
		out = append(out, v)
	}
	return out, nil
}

func (s *fakeResultStore) NightTotals(_ context.Context) ([]models.BenchNightTotal, error) {
	var out []models.BenchNightTotal
	for _, rows := range s.totals {
		out = append(out, rows...)
	}
	return out, nil
}

func (s *fakeResultStore) ReplaceWeekTotals(_ context.Context, totals []models.WeekTotal) error {
	s.weekTotals = totals
	return nil
}

func (s *fakeResultStore) ReplaceRankings(_ context.Context, rankings []models.RankingEntry) error {
	s.rankings = rankings
	return nil
}

const nightBase = int64(1_700_000_000_000)

func atMin(m int64) int64 { return nightBase + minMs(m) }

func hardestFight(id int, startMin, endMin int64, participants ...string) models.Fight {
	return models.Fight{
		ReportCode:   "r1",
		FightID:      id,
		NightID:      "2024-07-09",
		Difficulty:   models.DifficultyHardest,
		StartMs:      atMin(startMin),
		EndMs:        atMin(endMin),
		Participants: participants,
	}
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		Break:            BreakConfig{WindowStartMin: 30, WindowEndMin: 120, MinBreakMin: 10, MaxBreakMin: 30},
		GapBridgeMin:     10,
		PostExtensionMin: 5,
		ResetDay:         time.Tuesday,
		Forecast:         ForecastConfig{BaselineRate: 0.9, MinPlayers: 20, Slots: 12},
	}
}

func testRoster(mains ...string) []models.RosterEntry {
	out := make([]models.RosterEntry, 0, len(mains))
	for _, m := range mains {
		out = append(out, models.RosterEntry{Main: m, Active: true})
	}
	return out
}

func runPipeline(t *testing.T, fights *fakeFightStore, config *fakeConfigStore, results *fakeResultStore) *models.RunResult {
	t.Helper()
	p := NewPipeline(fights, config, results, testEngineConfig(), zap.NewNop())
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestPipelineComputesNightWithBreakAndExtension(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Alice", "Bob"),
			hardestFight(2, 75, 110, "Alice", "Cara"),
		},
	}}
	config := &fakeConfigStore{roster: testRoster("Alice-Stormrage", "Bob-Stormrage", "Cara-Stormrage", "Dana-Stormrage")}
	results := newFakeResultStore()

	res := runPipeline(t, fights, config, results)

	if res.Computed() != 1 {
		t.Fatalf("computed nights = %d, want 1", res.Computed())
	}

	summary := results.summaries["2024-07-09"]
	if summary.PreMin != 60 {
		t.Errorf("pre = %d, want 60", summary.PreMin)
	}
	// 35 envelope minutes past the break plus the 5 minute extension.
	if summary.PostMin != 40 {
		t.Errorf("post = %d, want 40", summary.PostMin)
	}
	if summary.BreakStartMs == nil || *summary.BreakStartMs != atMin(60) {
		t.Errorf("break start = %v, want %d", summary.BreakStartMs, atMin(60))
	}
	if summary.PostExtensionMin != 5.0 {
		t.Errorf("extension = %g, want 5", summary.PostExtensionMin)
	}
	if summary.OverrideUsed {
		t.Error("no override was supplied")
	}
	if len(summary.NotOnRoster) != 0 {
		t.Errorf("not on roster = %v, want empty", summary.NotOnRoster)
	}

	rows := results.totals["2024-07-09"]
	alice := findRow(t, rows, "Alice")
	if alice.PlayedPreMin != 60 || alice.PlayedPostMin != 40 || alice.BenchTotalMin != 0 {
		t.Errorf("Alice = %+v, want 60/40 played, no bench", alice)
	}
	bob := findRow(t, rows, "Bob")
	if bob.PlayedPostMin != 0 || bob.BenchPostMin != 40 {
		t.Errorf("Bob = %+v, want benched 40 post", bob)
	}
	if bob.StatusSource != models.SourceInference {
		t.Errorf("Bob status source = %q, want inference", bob.StatusSource)
	}
	// Cara sat out the first half but was in the first post-break pull, so
	// the extension lands on her too: 35 block minutes plus 5 credited.
	cara := findRow(t, rows, "Cara")
	if cara.PlayedPostMin != 40 || cara.BenchPreMin != 60 {
		t.Errorf("Cara = %+v, want 40 post played, 60 pre bench", cara)
	}
	// Dana never appeared in the logs: no night row, only a zero week row.
	for _, r := range rows {
		if r.Player == "Dana" {
			t.Errorf("unexpected night row for Dana: %+v", r)
		}
	}

	foundDana := false
	for _, wt := range results.weekTotals {
		if wt.Player == "Dana" && wt.GameWeek == "2024-07-09" {
			foundDana = true
			if wt.PlayedMin != 0 || wt.BenchMin != 0 {
				t.Errorf("Dana week row = %+v, want zeros", wt)
			}
		}
	}
	if !foundDana {
		t.Error("expected zero-filled week row for absent roster member Dana")
	}
}

func TestPipelineRecordsUnresolvedNames(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Alice", "Xeno"),
			hardestFight(2, 75, 110, "Alice"),
		},
	}}
	config := &fakeConfigStore{roster: testRoster("Alice-Stormrage")}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	summary := results.summaries["2024-07-09"]
	if len(summary.NotOnRoster) != 1 || summary.NotOnRoster[0] != "Xeno" {
		t.Errorf("not on roster = %v, want [Xeno]", summary.NotOnRoster)
	}
}

func TestPipelineResolvesAliases(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Healbot-Stormrage"),
			hardestFight(2, 75, 110, "Alice"),
		},
	}}
	config := &fakeConfigStore{
		roster:  testRoster("Alice-Stormrage"),
		aliases: []models.Alias{{Alt: "Healbot-Stormrage", Main: "Alice-Stormrage"}},
	}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	rows := results.totals["2024-07-09"]
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1 merged player", len(rows))
	}
	alice := findRow(t, rows, "Alice")
	if alice.PlayedPreMin != 60 {
		t.Errorf("Alice pre = %d, want 60 (alt playtime merged)", alice.PlayedPreMin)
	}
}

func TestPipelineSkipsNightWithoutHardestFights(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			{ReportCode: "r1", FightID: 1, Difficulty: 3, StartMs: atMin(0), EndMs: atMin(60), Participants: []string{"Alice"}},
		},
	}}
	config := &fakeConfigStore{roster: testRoster("Alice-Stormrage")}
	results := newFakeResultStore()

	res := runPipeline(t, fights, config, results)

	if len(res.Nights) != 1 || res.Nights[0].Status != models.NightSkipped {
		t.Fatalf("nights = %+v, want one skipped", res.Nights)
	}
	if res.Computed() != 0 {
		t.Errorf("computed = %d, want 0", res.Computed())
	}
	if len(results.totals) != 0 {
		t.Errorf("totals stored for a skipped night: %v", results.totals)
	}
}

func TestPipelineEnvelopeEndOverrideCreditsLastPull(t *testing.T) {
	endOverride := atMin(75)
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 40, 55, "Alice"),
		},
	}}
	config := &fakeConfigStore{
		roster: testRoster("Alice-Stormrage"),
		nightOvs: map[string]models.NightOverride{
			"2024-07-09": {NightID: "2024-07-09", Envelope: &models.PartialInterval{EndMs: &endOverride}},
		},
	}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	summary := results.summaries["2024-07-09"]
	if !summary.OverrideUsed {
		t.Error("override should be flagged on the summary")
	}
	// No break: the whole widened envelope is the pre half.
	if summary.PreMin != 35 || summary.PostMin != 0 {
		t.Errorf("halves = %d/%d, want 35/0", summary.PreMin, summary.PostMin)
	}
	if summary.PostExtensionMin != 0 {
		t.Errorf("extension = %g, want 0 without a break", summary.PostExtensionMin)
	}

	alice := findRow(t, results.totals["2024-07-09"], "Alice")
	// 15 pull minutes plus the 20 envelope minutes the override opened up.
	if alice.PlayedPreMin != 35 || alice.BenchTotalMin != 0 {
		t.Errorf("Alice = %+v, want 35 played pre, no bench", alice)
	}
}

func TestPipelineAppliesAvailabilityOverride(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Alice", "Bob"),
			hardestFight(2, 75, 110, "Alice"),
		},
	}}
	config := &fakeConfigStore{
		roster: testRoster("Alice-Stormrage", "Bob-Stormrage"),
		avail: []models.AvailabilityOverride{
			{NightID: "2024-07-09", Player: "Bob", Half: models.HalfPost, Available: false, Reason: "left at break"},
		},
	}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	bob := findRow(t, results.totals["2024-07-09"], "Bob")
	if bob.BenchPostMin != 0 || bob.OutPostMin != 40 {
		t.Errorf("Bob = %+v, want 40 out post instead of bench", bob)
	}
	if !bob.HasOutTime || bob.StatusSource != models.SourceOverride {
		t.Errorf("Bob provenance = %+v, want override with out time", bob)
	}
}

func TestPipelineFiltersMembershipWindow(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Alice", "Old"),
			hardestFight(2, 75, 110, "Alice"),
		},
	}}
	config := &fakeConfigStore{roster: []models.RosterEntry{
		{Main: "Alice-Stormrage", Active: true},
		{Main: "Old-Stormrage", Active: false, LeaveNight: "2024-07-01"},
	}}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	rows := results.totals["2024-07-09"]
	for _, r := range rows {
		if r.Player == "Old" {
			t.Errorf("Old left before this night, no row expected: %+v", r)
		}
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
}

func TestPipelineRerunReplacesNightRows(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Alice", "Bob"),
			hardestFight(2, 75, 110, "Alice", "Bob"),
		},
	}}
	config := &fakeConfigStore{roster: testRoster("Alice-Stormrage", "Bob-Stormrage")}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	// Bob disappears from the logs; the rerun must drop his stale row.
	fights.fights["2024-07-09"] = []models.Fight{
		hardestFight(1, 0, 60, "Alice"),
		hardestFight(2, 75, 110, "Alice"),
	}
	runPipeline(t, fights, config, results)

	if results.replaceNightCalls != 2 {
		t.Errorf("ReplaceNight calls = %d, want 2", results.replaceNightCalls)
	}
	rows := results.totals["2024-07-09"]
	if len(rows) != 1 || rows[0].Player != "Alice" {
		t.Errorf("rows after rerun = %+v, want Alice only", rows)
	}
}

func TestPipelineRankingsActiveOnly(t *testing.T) {
	fights := &fakeFightStore{fights: map[string][]models.Fight{
		"2024-07-09": {
			hardestFight(1, 0, 60, "Alice", "Gone"),
			hardestFight(2, 75, 110, "Alice", "Gone"),
		},
	}}
	config := &fakeConfigStore{roster: []models.RosterEntry{
		{Main: "Alice-Stormrage", Active: true},
		{Main: "Gone-Stormrage", Active: false},
	}}
	results := newFakeResultStore()

	runPipeline(t, fights, config, results)

	for _, r := range results.rankings {
		if r.Player == "Gone" {
			t.Errorf("inactive player ranked: %+v", r)
		}
	}
	if len(results.rankings) != 1 || results.rankings[0].Player != "Alice" {
		t.Errorf("rankings = %+v, want Alice only", results.rankings)
	}
	if results.rankings[0].Rank != 1 {
		t.Errorf("rank = %d, want 1", results.rankings[0].Rank)
	}
}
