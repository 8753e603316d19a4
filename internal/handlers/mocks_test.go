package handlers

import (
	"context"

	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/wcl"
)

type MockResults struct {
	NightSummariesFunc func(ctx context.Context) ([]models.NightSummary, error)
	NightTotalsFunc    func(ctx context.Context) ([]models.BenchNightTotal, error)
	WeekTotalsFunc     func(ctx context.Context) ([]models.WeekTotal, error)
	RankingsFunc       func(ctx context.Context) ([]models.RankingEntry, error)
}

func (m *MockResults) NightSummaries(ctx context.Context) ([]models.NightSummary, error) {
	if m.NightSummariesFunc != nil {
		return m.NightSummariesFunc(ctx)
	}
	return nil, nil
}

func (m *MockResults) NightTotals(ctx context.Context) ([]models.BenchNightTotal, error) {
	if m.NightTotalsFunc != nil {
		return m.NightTotalsFunc(ctx)
	}
	return nil, nil
}

func (m *MockResults) WeekTotals(ctx context.Context) ([]models.WeekTotal, error) {
	if m.WeekTotalsFunc != nil {
		return m.WeekTotalsFunc(ctx)
	}
	return nil, nil
}

func (m *MockResults) Rankings(ctx context.Context) ([]models.RankingEntry, error) {
	if m.RankingsFunc != nil {
		return m.RankingsFunc(ctx)
	}
	return nil, nil
}

type MockConfigStore struct {
	RosterFunc                     func(ctx context.Context) ([]models.RosterEntry, error)
	UpsertRosterEntryFunc          func(ctx context.Context, e models.RosterEntry) error
	UpsertAliasFunc                func(ctx context.Context, a models.Alias) error
	UpsertAvailabilityOverrideFunc func(ctx context.Context, ov models.AvailabilityOverride) error
	UpsertNightOverrideFunc        func(ctx context.Context, ov models.NightOverride) error
}

func (m *MockConfigStore) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	if m.RosterFunc != nil {
		return m.RosterFunc(ctx)
	}
	return nil, nil
}

func (m *MockConfigStore) UpsertRosterEntry(ctx context.Context, e models.RosterEntry) error {
	if m.UpsertRosterEntryFunc != nil {
		return m.UpsertRosterEntryFunc(ctx, e)
	}
	return nil
}

func (m *MockConfigStore) UpsertAlias(ctx context.Context, a models.Alias) error {
	if m.UpsertAliasFunc != nil {
		return m.UpsertAliasFunc(ctx, a)
	}
	return nil
}

func (m *MockConfigStore) UpsertAvailabilityOverride(ctx context.Context, ov models.AvailabilityOverride) error {
	if m.UpsertAvailabilityOverrideFunc != nil {
		return m.UpsertAvailabilityOverrideFunc(ctx, ov)
	}
	return nil
}

func (m *MockConfigStore) UpsertNightOverride(ctx context.Context, ov models.NightOverride) error {
	if m.UpsertNightOverrideFunc != nil {
		return m.UpsertNightOverrideFunc(ctx, ov)
	}
	return nil
}

type MockPipeline struct {
	RunFunc func(ctx context.Context) (*models.RunResult, error)
}

func (m *MockPipeline) Run(ctx context.Context) (*models.RunResult, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return &models.RunResult{}, nil
}

type MockIngestor struct {
	IngestReportFunc func(ctx context.Context, ref string) (*wcl.IngestResult, error)
}

func (m *MockIngestor) IngestReport(ctx context.Context, ref string) (*wcl.IngestResult, error) {
	if m.IngestReportFunc != nil {
		return m.IngestReportFunc(ctx, ref)
	}
	return &wcl.IngestResult{}, nil
}

type MockReports struct {
	ReportsFunc func(ctx context.Context) ([]models.Report, error)
}

func (m *MockReports) Reports(ctx context.Context) ([]models.Report, error) {
	if m.ReportsFunc != nil {
		return m.ReportsFunc(ctx)
	}
	return nil, nil
}
