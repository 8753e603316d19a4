package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/config"
	"github.com/guildops/bench-api/internal/logic"
	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/store"
	"github.com/guildops/bench-api/internal/wcl"
)

// app holds the wired service graph for one process.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	pg    *pgxpool.Pool
	ch    driver.Conn
	redis *redis.Client

	pgStore  *store.PostgresStore
	archive  *store.FightArchive
	ingestor *wcl.Ingestor
	pipeline *logic.Pipeline
	engine   logic.EngineConfig
}

// newApp loads configuration, connects every backend, and runs migrations.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	if err := ch.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	pgStore := store.NewPostgresStore(pg)
	if err := pgStore.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	archive := store.NewFightArchive(ch)
	if err := archive.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	resetDay, err := cfg.ResetDay()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	engine := logic.EngineConfig{
		Break: logic.BreakConfig{
			WindowStartMin: cfg.BreakWindowStartMin,
			WindowEndMin:   cfg.BreakWindowEndMin,
			MinBreakMin:    cfg.MinBreakMin,
			MaxBreakMin:    cfg.MaxBreakMin,
		},
		GapBridgeMin:     cfg.GapBridgeMin,
		PostExtensionMin: cfg.PostExtensionMin,
		ResetDay:         resetDay,
		Forecast: logic.ForecastConfig{
			BaselineRate: cfg.ForecastBaselineRate,
			MinPlayers:   cfg.ForecastMinPlayers,
			Slots:        cfg.ForecastSlots,
		},
	}

	client := wcl.NewClient(wcl.ClientConfig{
		ClientID:     cfg.WCLClientID,
		ClientSecret: cfg.WCLClientSecret,
		APIURL:       cfg.WCLAPIURL,
		TokenURL:     cfg.WCLTokenURL,
	}, wcl.NewRedisTokenCache(rdb), wcl.NewRedisReportCache(rdb), logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		pg:       pg,
		ch:       ch,
		redis:    rdb,
		pgStore:  pgStore,
		archive:  archive,
		ingestor: wcl.NewIngestor(client, archive, loc, logger),
		pipeline: logic.NewPipeline(archive, pgStore, pgStore, engine, logger),
		engine:   engine,
	}, nil
}

func (a *app) close() {
	a.pg.Close()
	if err := a.ch.Close(); err != nil {
		a.logger.Sugar().Warnw("clickhouse close failed", "error", err)
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Sugar().Warnw("redis close failed", "error", err)
	}
	_ = a.logger.Sync()
}

// reportRefresher pairs the archive's report listing with re-ingestion for
// the scheduler's refresh loop.
type reportRefresher struct {
	ingestor *wcl.Ingestor
	archive  *store.FightArchive
}

func (r *reportRefresher) Reports(ctx context.Context) ([]models.Report, error) {
	return r.archive.Reports(ctx)
}

func (r *reportRefresher) RefreshReport(ctx context.Context, ref string) (*wcl.IngestResult, error) {
	return r.ingestor.RefreshReport(ctx, ref)
}

// shutdownTimeout bounds graceful HTTP server drain.
const shutdownTimeout = 15 * time.Second
