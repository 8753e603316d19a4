package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/logic"
	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/wcl"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// ResultsReader serves the computed rows.
type ResultsReader interface {
	NightSummaries(ctx context.Context) ([]models.NightSummary, error)
	NightTotals(ctx context.Context) ([]models.BenchNightTotal, error)
	WeekTotals(ctx context.Context) ([]models.WeekTotal, error)
	Rankings(ctx context.Context) ([]models.RankingEntry, error)
}

// ConfigWriter persists operator-maintained inputs.
type ConfigWriter interface {
	Roster(ctx context.Context) ([]models.RosterEntry, error)
	UpsertRosterEntry(ctx context.Context, e models.RosterEntry) error
	UpsertAlias(ctx context.Context, a models.Alias) error
	UpsertAvailabilityOverride(ctx context.Context, ov models.AvailabilityOverride) error
	UpsertNightOverride(ctx context.Context, ov models.NightOverride) error
}

// PipelineRunner triggers a full recomputation.
type PipelineRunner interface {
	Run(ctx context.Context) (*models.RunResult, error)
}

// ReportIngestor pulls one report from the combat-log service.
type ReportIngestor interface {
	IngestReport(ctx context.Context, ref string) (*wcl.IngestResult, error)
}

// ReportLister serves ingested report metadata.
type ReportLister interface {
	Reports(ctx context.Context) ([]models.Report, error)
}

type Config struct {
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger

	Results  ResultsReader
	Config   ConfigWriter
	Pipeline PipelineRunner
	Ingestor ReportIngestor
	Reports  ReportLister

	Engine logic.EngineConfig
}

type Handler struct {
	pg        *pgxpool.Pool
	ch        driver.Conn
	redis     *redis.Client
	logger    *zap.SugaredLogger
	validator *validator.Validate

	results  ResultsReader
	config   ConfigWriter
	pipeline PipelineRunner
	ingestor ReportIngestor
	reports  ReportLister

	engine logic.EngineConfig
}

func New(cfg Config) *Handler {
	return &Handler{
		pg:        cfg.Postgres,
		ch:        cfg.ClickHouse,
		redis:     cfg.Redis,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
		results:   cfg.Results,
		config:    cfg.Config,
		pipeline:  cfg.Pipeline,
		ingestor:  cfg.Ingestor,
		reports:   cfg.Reports,
		engine:    cfg.Engine,
	}
}
