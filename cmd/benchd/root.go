package main

import (
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "benchd",
	Short: "Raid attendance and bench-time ledger service",
	Long: `benchd ingests combat-log reports, reconstructs each raid night's
envelope and rest break, and maintains the per-player bench ledger:
night totals, weekly totals, season rankings, and the attendance
forecast.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if envFile != "" {
			return godotenv.Load(envFile)
		}
		// Default .env is optional.
		_ = godotenv.Load()
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("benchd\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (optional, env vars otherwise)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (optional)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
