package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/squadpulse/internal/engine"
)

var (
	reportWorkers     int
	reportMetricsFile string
)

var reportCmd = &cobra.Command{
	Use:   "report [squad-id...]",
	Short: "Full analysis for one or more squads",
	Long: `Run every analysis for the given squads (all known squads when none are
named) concurrently. Analyses whose data cannot be fetched fall back to
neutral defaults and are listed as partial.

With --metrics-file, run counters and the resulting scores are written in
Prometheus text format for a node_exporter textfile collector.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportWorkers, "workers", 0, "Squads analyzed concurrently (default: engine.workers)")
	reportCmd.Flags().StringVar(&reportMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ids := args
	if len(ids) == 0 {
		ids, err = e.squadIDs(ctx)
		if err != nil {
			return fmt.Errorf("listing squads: %w", err)
		}
	}

	workers := reportWorkers
	if workers <= 0 {
		workers = e.cfg.Engine.Workers
	}

	reports, err := e.engine.BatchReports(ctx, ids, workers)
	if err != nil {
		return err
	}

	if reportMetricsFile != "" {
		if err := e.metrics.WriteTextfile(reportMetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		e.logger.Debug().Str("path", reportMetricsFile).Msg("metrics written")
	}

	if flagJSON {
		if reports == nil {
			reports = []engine.Report{}
		}
		return printJSON(reports)
	}
	for _, rep := range reports {
		renderReport(rep)
	}
	return nil
}
