// Package scheduler drives the background loops: periodic pipeline runs and
// re-ingestion of recent reports so fights appended after the first pull are
// picked up without operator action.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/guildops/bench-api/internal/models"
	"github.com/guildops/bench-api/internal/wcl"
)

// Prometheus metrics
var (
	computeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_scheduler_compute_runs_total",
		Help: "Total number of scheduled pipeline runs by outcome",
	}, []string{"status"})

	reportsRefreshed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bench_scheduler_reports_refreshed_total",
		Help: "Total number of recent reports re-ingested",
	})

	lastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bench_scheduler_last_compute_timestamp_seconds",
		Help: "Unix time of the last scheduled pipeline run",
	})
)

// PipelineRunner triggers a full recomputation.
type PipelineRunner interface {
	Run(ctx context.Context) (*models.RunResult, error)
}

// ReportRefresher re-pulls an already ingested report by code.
type ReportRefresher interface {
	Reports(ctx context.Context) ([]models.Report, error)
	RefreshReport(ctx context.Context, ref string) (*wcl.IngestResult, error)
}

// Config configures the scheduler loops.
type Config struct {
	Pipeline  PipelineRunner
	Refresher ReportRefresher
	Logger    *zap.Logger

	ComputeInterval time.Duration
	IngestInterval  time.Duration
	// RefreshWindow bounds how old a report's night may be and still get
	// re-ingested. Reports grow while a night is live, then freeze.
	RefreshWindow time.Duration
}

// Scheduler runs the compute and refresh loops until stopped.
type Scheduler struct {
	cfg    Config
	logger *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. Intervals at or below zero disable their loop.
func New(cfg Config) *Scheduler {
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = 48 * time.Hour
	}
	return &Scheduler{
		cfg:    cfg,
		logger: cfg.Logger.Sugar(),
	}
}

// Start launches the loops.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.cfg.ComputeInterval > 0 && s.cfg.Pipeline != nil {
		s.wg.Add(1)
		go s.computeLoop()
	}
	if s.cfg.IngestInterval > 0 && s.cfg.Refresher != nil {
		s.wg.Add(1)
		go s.refreshLoop()
	}

	s.logger.Infow("Scheduler started",
		"computeInterval", s.cfg.ComputeInterval,
		"ingestInterval", s.cfg.IngestInterval,
	)
}

// Stop cancels the loops and waits for in-flight work to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) computeLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ComputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCompute()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runCompute() {
	lastRunTimestamp.SetToCurrentTime()

	result, err := s.cfg.Pipeline.Run(s.ctx)
	if err != nil {
		computeRuns.WithLabelValues("error").Inc()
		s.logger.Errorw("Scheduled pipeline run failed", "error", err)
		return
	}
	computeRuns.WithLabelValues("ok").Inc()
	s.logger.Infow("Scheduled pipeline run finished",
		"runId", result.RunID,
		"nights", len(result.Nights),
		"computed", result.Computed(),
		"duration", result.Duration,
	)
}

func (s *Scheduler) refreshLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.IngestInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshRecentReports()
		case <-s.ctx.Done():
			return
		}
	}
}

// refreshRecentReports re-ingests every report whose night falls inside the
// refresh window.
func (s *Scheduler) refreshRecentReports() {
	reports, err := s.cfg.Refresher.Reports(s.ctx)
	if err != nil {
		s.logger.Errorw("Failed to list reports for refresh", "error", err)
		return
	}

	cutoff := time.Now().Add(-s.cfg.RefreshWindow)
	for _, r := range reports {
		night, err := time.Parse("2006-01-02", r.NightID)
		if err != nil || night.Before(cutoff) {
			continue
		}
		res, err := s.cfg.Refresher.RefreshReport(s.ctx, r.Code)
		if err != nil {
			s.logger.Errorw("Report refresh failed", "code", r.Code, "error", err)
			continue
		}
		reportsRefreshed.Inc()
		s.logger.Infow("Report refreshed", "code", r.Code, "fights", res.Fights)
	}
}
