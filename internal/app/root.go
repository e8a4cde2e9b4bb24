// Package app contains the Cobra command tree for squadpulse.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagLogJSON bool
	flagConfig  string
	flagDB      string
	flagDataset string
	flagNow     string
)

var rootCmd = &cobra.Command{
	Use:   "squadpulse",
	Short: "Scheduling analytics for gaming squads",
	Long: `squadpulse analyzes a squad's session history, RSVPs and availability to
find the best time to play, predict no-shows, measure how often members play
together, and score overall squad health.

Data comes from the SQLite store (see 'squadpulse import') or directly from a
JSON dataset passed with --dataset.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("squadpulse", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  optimal     Best day and time to schedule")
		fmt.Println("  coverage    Upcoming slots ranked by availability")
		fmt.Println("  noshow      No-show risk for a session")
		fmt.Println("  cohesion    How often members play together")
		fmt.Println("  health      Squad health score and insights")
		fmt.Println("  recommend   Scheduling recommendations")
		fmt.Println("  report      Full analysis for one or more squads")
		fmt.Println("  import      Load a JSON dataset into the store")
		fmt.Println("  track       Snapshot scores and compare over time")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/squadpulse/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/squadpulse/squadpulse.db)")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "Read from a JSON dataset instead of the database")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Analyze as of this RFC3339 instant")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Write logs as JSON")
}
