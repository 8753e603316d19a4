package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/guildops/bench-api/internal/handlers"
	"github.com/guildops/bench-api/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		log := a.logger.Sugar()

		h := handlers.New(handlers.Config{
			Postgres:   a.pg,
			ClickHouse: a.ch,
			Redis:      a.redis,
			Logger:     a.logger,
			Results:    a.pgStore,
			Config:     a.pgStore,
			Pipeline:   a.pipeline,
			Ingestor:   a.ingestor,
			Reports:    a.archive,
			Engine:     a.engine,
		})

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", a.cfg.Port),
			Handler: h.Routes(a.cfg.AllowedOrigins),
		}

		sched := scheduler.New(scheduler.Config{
			Pipeline:        a.pipeline,
			Refresher:       &reportRefresher{ingestor: a.ingestor, archive: a.archive},
			Logger:          a.logger,
			ComputeInterval: a.cfg.ComputeInterval,
			IngestInterval:  a.cfg.IngestInterval,
		})
		sched.Start(ctx)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Infow("API listening", "addr", srv.Addr, "env", a.cfg.Env)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("Shutting down...")
			sched.Stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}
