package logic

import (
	"context"

	"github.com/guildops/bench-api/internal/models"
)

// FightStore reads the ingested fight archive.
type FightStore interface {
	Nights(ctx context.Context) ([]string, error)
	FightsForNight(ctx context.Context, nightID string) ([]models.Fight, error)
}

// ConfigStore reads operator-maintained inputs: the roster, the alias map,
// and the manual overrides.
type ConfigStore interface {
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	Aliases(ctx context.Context) ([]models.Alias, error)
	AvailabilityOverrides(ctx context.Context) ([]models.AvailabilityOverride, error)
	NightOverrides(ctx context.Context) (map[string]models.NightOverride, error)
}

// ResultStore persists computed rows. Replace methods carry full-replace
// semantics: the stored set for the night/week scope is deleted and
// reinserted in one transaction, so rows that drop out of a recomputation
// never linger.
type ResultStore interface {
	ReplaceNight(ctx context.Context, summary models.NightSummary, totals []models.BenchNightTotal) error
	NightSummaries(ctx context.Context) ([]models.NightSummary, error)
	NightTotals(ctx context.Context) ([]models.BenchNightTotal, error)
	ReplaceWeekTotals(ctx context.Context, totals []models.WeekTotal) error
	ReplaceRankings(ctx context.Context, rankings []models.RankingEntry) error
}
