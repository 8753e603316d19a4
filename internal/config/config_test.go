package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BENCH_POSTGRES_URL", "postgres://localhost:5432/bench")
	t.Setenv("BENCH_CLICKHOUSE_URL", "clickhouse://localhost:9000/bench")
	t.Setenv("BENCH_REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.PostExtensionMin != 5 {
		t.Errorf("post extension = %d, want 5", cfg.PostExtensionMin)
	}
	if cfg.GapBridgeMin != 10 {
		t.Errorf("gap bridge = %d, want 10", cfg.GapBridgeMin)
	}
	day, err := cfg.ResetDay()
	if err != nil {
		t.Fatal(err)
	}
	if day != time.Tuesday {
		t.Errorf("reset day = %v, want Tuesday", day)
	}
	if cfg.ForecastMinPlayers != 20 || cfg.ForecastSlots != 12 {
		t.Errorf("forecast = %d/%d, want 20/12", cfg.ForecastMinPlayers, cfg.ForecastSlots)
	}
}

func TestLoadMissingCritical(t *testing.T) {
	t.Setenv("BENCH_POSTGRES_URL", "")
	t.Setenv("BENCH_CLICKHOUSE_URL", "")
	t.Setenv("BENCH_REDIS_URL", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error with database URLs missing")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("BENCH_PORT", "9090")
	t.Setenv("BENCH_RESET_WEEKDAY", "Wednesday")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	day, err := cfg.ResetDay()
	if err != nil {
		t.Fatal(err)
	}
	if day != time.Wednesday {
		t.Errorf("reset day = %v, want Wednesday", day)
	}
}

func TestLoadRejectsBadWeekday(t *testing.T) {
	setRequired(t)
	t.Setenv("BENCH_RESET_WEEKDAY", "someday")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestLoadRejectsInvertedBreakBounds(t *testing.T) {
	setRequired(t)
	t.Setenv("BENCH_MIN_BREAK_MIN", "45")
	t.Setenv("BENCH_MAX_BREAK_MIN", "30")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for min break above max")
	}
}
