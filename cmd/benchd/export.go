package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/guildops/bench-api/internal/export"
	"github.com/guildops/bench-api/internal/logic"
	"github.com/guildops/bench-api/internal/models"
)

var (
	exportFormat string
	exportColor  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render computed reports to stdout",
}

var exportAttendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Season attendance grid with weekly status letters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, opts, err := exportSetup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		rows, err := loadAttendance(cmd, a)
		if err != nil {
			return err
		}
		return export.WriteAttendance(os.Stdout, rows, opts)
	},
}

var exportForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "At-least-K attendance probability table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, opts, err := exportSetup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		attendance, err := loadAttendance(cmd, a)
		if err != nil {
			return err
		}
		rates := logic.AttendanceRates(attendance)
		rows := logic.ForecastRows(rates, a.engine.Forecast)
		if rows == nil {
			cmd.Printf("Roster of %d is below the minimum of %d players.\n", len(rates), a.engine.Forecast.MinPlayers)
			return nil
		}
		opts.Slots = a.engine.Forecast.Slots
		return export.WriteForecast(os.Stdout, rows, opts)
	},
}

var exportNightsCmd = &cobra.Command{
	Use:   "nights",
	Short: "Per-night envelope, break, and diagnostics summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, opts, err := exportSetup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		summaries, err := a.pgStore.NightSummaries(ctx)
		if err != nil {
			return err
		}
		return export.WriteNights(os.Stdout, summaries, opts)
	},
}

var exportRankingsCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Season bench ranking, least benched first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, opts, err := exportSetup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		rankings, err := a.pgStore.Rankings(ctx)
		if err != nil {
			return err
		}
		return export.WriteRankings(os.Stdout, rankings, opts)
	},
}

func exportSetup(ctx context.Context) (*app, export.Options, error) {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return nil, export.Options{}, err
	}
	a, err := newApp(ctx)
	if err != nil {
		return nil, export.Options{}, err
	}
	return a, export.Options{Format: format, UseColors: exportColor}, nil
}

func loadAttendance(cmd *cobra.Command, a *app) ([]models.AttendanceRow, error) {
	ctx := cmd.Context()
	summaries, err := a.pgStore.NightSummaries(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := a.pgStore.NightTotals(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := a.pgStore.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return logic.AttendanceRows(logic.AttendanceInput{
		Summaries:   summaries,
		NightTotals: totals,
		Roster:      entries,
		ResetDay:    a.engine.ResetDay,
	})
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportFormat, "format", "table", "output format: table, csv, or json")
	exportCmd.PersistentFlags().BoolVar(&exportColor, "color", true, "colorize table output")

	exportCmd.AddCommand(exportAttendanceCmd)
	exportCmd.AddCommand(exportForecastCmd)
	exportCmd.AddCommand(exportNightsCmd)
	exportCmd.AddCommand(exportRankingsCmd)
}
