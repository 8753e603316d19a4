package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type mockConn struct {
	driver.Conn
	rows *mockRows
}

func (m *mockConn) Query(_ context.Context, _ string, _ ...interface{}) (driver.Rows, error) {
	return m.rows, nil
}

type fightRow struct {
	reportCode   string
	fightID      int32
	nightID      string
	name         string
	encounterID  int32
	difficulty   int32
	kill         uint8
	startMs      int64
	endMs        int64
	participants []string
}

type mockRows struct {
	driver.Rows
	fights []fightRow
	idx    int
}

func (m *mockRows) Next() bool {
	m.idx++
	return m.idx <= len(m.fights)
}

func (m *mockRows) Scan(dest ...interface{}) error {
	f := m.fights[m.idx-1]
	assign(dest[0], f.reportCode)
	assign(dest[1], f.fightID)
	assign(dest[2], f.nightID)
	assign(dest[3], f.name)
	assign(dest[4], f.encounterID)
	assign(dest[5], f.difficulty)
	assign(dest[6], f.kill)
	assign(dest[7], f.startMs)
	assign(dest[8], f.endMs)
	assign(dest[9], f.participants)
	return nil
}

func (m *mockRows) Close() error { return nil }
func (m *mockRows) Err() error   { return nil }

func assign(dest interface{}, val interface{}) {
	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(val))
}

func TestFightsForNightDedupsOverlappingReports(t *testing.T) {
	// The same pull logged by two overlapping reports, timestamps 40ms
	// apart: one record after dedup.
	conn := &mockConn{rows: &mockRows{fights: []fightRow{
		{
			reportCode: "rA", fightID: 1, nightID: "2024-07-09", name: "Boss",
			encounterID: 2902, difficulty: 5, kill: 1,
			startMs: 1_700_000_000_000, endMs: 1_700_000_300_000,
			participants: []string{"Alice"},
		},
		{
			reportCode: "rB", fightID: 7, nightID: "2024-07-09", name: "Boss",
			encounterID: 2902, difficulty: 5, kill: 1,
			startMs: 1_700_000_000_040, endMs: 1_700_000_300_040,
			participants: []string{"Alice"},
		},
		{
			reportCode: "rA", fightID: 2, nightID: "2024-07-09", name: "Boss",
			encounterID: 2902, difficulty: 5, kill: 0,
			startMs: 1_700_000_600_000, endMs: 1_700_000_900_000,
			participants: []string{"Alice"},
		},
	}}}

	archive := NewFightArchive(conn)
	fights, err := archive.FightsForNight(context.Background(), "2024-07-09")
	if err != nil {
		t.Fatalf("FightsForNight: %v", err)
	}
	if len(fights) != 2 {
		t.Fatalf("len(fights) = %d, want 2 after dedup", len(fights))
	}
	if fights[0].ReportCode != "rA" || fights[0].FightID != 1 {
		t.Errorf("first fight = %s/%d, want rA/1 (first occurrence wins)", fights[0].ReportCode, fights[0].FightID)
	}
	if !fights[0].Kill || fights[1].Kill {
		t.Errorf("kill flags = %v/%v, want true/false", fights[0].Kill, fights[1].Kill)
	}
}

func TestFightsForNightKeepsDistinctPulls(t *testing.T) {
	// Same encounter, same difficulty, clearly distinct times: two pulls.
	conn := &mockConn{rows: &mockRows{fights: []fightRow{
		{
			reportCode: "rA", fightID: 1, nightID: "2024-07-09", name: "Boss",
			encounterID: 2902, difficulty: 5,
			startMs: 1_700_000_000_000, endMs: 1_700_000_300_000,
			participants: []string{"Alice"},
		},
		{
			reportCode: "rA", fightID: 2, nightID: "2024-07-09", name: "Boss",
			encounterID: 2902, difficulty: 5,
			startMs: 1_700_000_400_000, endMs: 1_700_000_700_000,
			participants: []string{"Alice"},
		},
	}}}

	archive := NewFightArchive(conn)
	fights, err := archive.FightsForNight(context.Background(), "2024-07-09")
	if err != nil {
		t.Fatalf("FightsForNight: %v", err)
	}
	if len(fights) != 2 {
		t.Errorf("len(fights) = %d, want 2", len(fights))
	}
}
