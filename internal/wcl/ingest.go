package wcl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/models"
)

// ReportFetcher is the client surface ingest needs, extracted for mocking.
type ReportFetcher interface {
	FetchReportBundle(ctx context.Context, code string) (*ReportBundle, error)
	FetchReportBundleFresh(ctx context.Context, code string) (*ReportBundle, error)
}

// Archive is where ingested reports and fights land.
type Archive interface {
	InsertReport(ctx context.Context, r models.Report) error
	InsertFights(ctx context.Context, fights []models.Fight) error
}

// Ingestor converts report bundles into the fight archive's rows.
type Ingestor struct {
	fetcher ReportFetcher
	archive Archive
	tz      *time.Location
	logger  *zap.SugaredLogger
}

func NewIngestor(fetcher ReportFetcher, archive Archive, tz *time.Location, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		archive: archive,
		tz:      tz,
		logger:  logger.Sugar(),
	}
}

// IngestResult summarizes one report's ingest.
type IngestResult struct {
	Code    string `json:"code"`
	NightID string `json:"night_id"`
	Fights  int    `json:"fights"`
	Players int    `json:"players"`
}

// IngestReport fetches one report by URL or bare code and stores its fights.
// Fights with no start or end are dropped; participants resolve through the
// bundle's actor table and keep their realm qualifier.
func (ing *Ingestor) IngestReport(ctx context.Context, ref string) (*IngestResult, error) {
	code, err := ExtractReportCode(ref)
	if err != nil {
		return nil, err
	}

	bundle, err := ing.fetcher.FetchReportBundle(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("fetch report %s: %w", code, err)
	}
	return ing.storeBundle(ctx, code, bundle)
}

// RefreshReport re-pulls an already ingested report, bypassing the report
// cache so fights appended since the last pull are picked up.
func (ing *Ingestor) RefreshReport(ctx context.Context, ref string) (*IngestResult, error) {
	code, err := ExtractReportCode(ref)
	if err != nil {
		return nil, err
	}

	bundle, err := ing.fetcher.FetchReportBundleFresh(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("fetch report %s: %w", code, err)
	}
	return ing.storeBundle(ctx, code, bundle)
}

func (ing *Ingestor) storeBundle(ctx context.Context, code string, bundle *ReportBundle) (*IngestResult, error) {
	nightID := ing.NightID(bundle.StartTime)
	report := models.Report{
		Code:       bundle.Code,
		Title:      bundle.Title,
		NightID:    nightID,
		StartMs:    bundle.StartTime,
		EndMs:      bundle.EndTime,
		IngestedAt: time.Now(),
	}

	actors := make(map[int]Actor, len(bundle.MasterData.Actors))
	for _, a := range bundle.MasterData.Actors {
		actors[a.ID] = a
	}

	players := make(map[string]struct{})
	fights := make([]models.Fight, 0, len(bundle.Fights))
	for _, f := range bundle.Fights {
		if f.StartTime == 0 && f.EndTime == 0 {
			continue
		}
		absStart, absEnd := models.NormalizeFightTimes(bundle.StartTime, f.StartTime, f.EndTime)
		if absEnd <= absStart {
			continue
		}

		var participants []string
		for _, pid := range f.FriendlyPlayers {
			a, ok := actors[pid]
			if !ok || a.Type != "Player" {
				continue
			}
			name := a.FullName()
			participants = append(participants, name)
			players[name] = struct{}{}
		}

		fights = append(fights, models.Fight{
			ReportCode:   bundle.Code,
			FightID:      f.ID,
			NightID:      nightID,
			Name:         f.Name,
			EncounterID:  f.EncounterID,
			Difficulty:   f.Difficulty,
			Kill:         f.Kill,
			StartMs:      absStart,
			EndMs:        absEnd,
			Participants: participants,
		})
	}

	if err := ing.archive.InsertReport(ctx, report); err != nil {
		return nil, err
	}
	if err := ing.archive.InsertFights(ctx, fights); err != nil {
		return nil, err
	}

	ing.logger.Infow("report ingested",
		"code", code,
		"night_id", nightID,
		"fights", len(fights),
		"players", len(players),
	)
	return &IngestResult{
		Code:    code,
		NightID: nightID,
		Fights:  len(fights),
		Players: len(players),
	}, nil
}

// NightID is the local calendar date of the report start, in the guild's
// timezone.
func (ing *Ingestor) NightID(startMs int64) string {
	return time.UnixMilli(startMs).In(ing.tz).Format("2006-01-02")
}
