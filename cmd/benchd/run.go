package main

import (
	"github.com/spf13/cobra"

	"github.com/guildops/bench-api/internal/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full pipeline pass and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.pipeline.Run(ctx)
		if err != nil {
			return err
		}

		cmd.Printf("Run %s finished in %s\n", result.RunID, result.Duration)
		cmd.Printf("  Nights:   %d (%d computed)\n", len(result.Nights), result.Computed())
		cmd.Printf("  Weeks:    %d rows\n", result.WeekRows)
		cmd.Printf("  Rankings: %d rows\n", result.RankedRows)
		for _, n := range result.Nights {
			if n.Status == models.NightComputed {
				continue
			}
			cmd.Printf("  %s %s: %s\n", n.NightID, n.Status, n.Reason)
		}
		return nil
	},
}
