package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/squadpulse/internal/engine"
	"github.com/blackwell-systems/squadpulse/internal/output"
	"github.com/blackwell-systems/squadpulse/internal/store"
)

var trackCmd = &cobra.Command{
	Use:   "track [squad-id...]",
	Short: "Snapshot scores and compare over time",
	Long: `Run the full analysis, store a snapshot of each squad's scores, and compare
against the most recent previous snapshot for that squad with trend arrows.`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

// trackedMetrics lists the stored scores in display order.
var trackedMetrics = []struct {
	name  string
	label string
}{
	{store.MetricHealth, "Health"},
	{store.MetricCohesion, "Cohesion"},
	{store.MetricConfidence, "Optimal-time confidence"},
	{store.MetricAttendance, "Best-slot attendance"},
	{store.MetricCoverage, "Average coverage"},
}

// trackResult is one squad's scores with deltas against its previous snapshot.
type trackResult struct {
	SquadID  string             `json:"squad_id"`
	Current  *store.Snapshot    `json:"current"`
	Previous *store.Snapshot    `json:"previous,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
	Deltas   map[string]float64 `json:"deltas,omitempty"`
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	// Snapshots always live in the database, even when reading a dataset.
	db := e.db
	if db == nil {
		db, err = store.Open(e.cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
	}

	ids := args
	if len(ids) == 0 {
		ids, err = e.squadIDs(ctx)
		if err != nil {
			return fmt.Errorf("listing squads: %w", err)
		}
	}

	reports, err := e.engine.BatchReports(ctx, ids, e.cfg.Engine.Workers)
	if err != nil {
		return err
	}

	snapshotID, err := recordSnapshot(db, reports, e.now())
	if err != nil {
		return err
	}

	results := make([]trackResult, 0, len(reports))
	for _, rep := range reports {
		res, err := compareSnapshot(db, rep.SquadID, snapshotID)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if flagJSON {
		return printJSON(results)
	}
	renderTrack(results)
	return nil
}

// reportMetrics flattens the tracked scores of a report.
func reportMetrics(rep engine.Report) map[string]float64 {
	return map[string]float64{
		store.MetricHealth:     float64(rep.Health.Score),
		store.MetricCohesion:   float64(rep.Cohesion.Score),
		store.MetricConfidence: float64(rep.OptimalTime.Confidence),
		store.MetricAttendance: float64(rep.OptimalTime.AttendanceRate),
		store.MetricCoverage:   float64(rep.Coverage.AverageCoverage),
	}
}

// recordSnapshot stores one snapshot holding every report's scores.
func recordSnapshot(db *store.DB, reports []engine.Report, takenAt time.Time) (int64, error) {
	snapshotID, err := db.CreateSnapshot("track", appVersion, takenAt)
	if err != nil {
		return 0, fmt.Errorf("creating snapshot: %w", err)
	}
	for _, rep := range reports {
		metrics := reportMetrics(rep)
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := db.InsertSquadMetric(snapshotID, rep.SquadID, name, metrics[name]); err != nil {
				return 0, fmt.Errorf("inserting metric %s for %s: %w", name, rep.SquadID, err)
			}
		}
	}
	return snapshotID, nil
}

// compareSnapshot loads a squad's scores in snapshotID and, when one
// exists, the deltas against its previous snapshot.
func compareSnapshot(db *store.DB, squadID string, snapshotID int64) (trackResult, error) {
	res := trackResult{SquadID: squadID}

	current, err := db.GetSnapshot(snapshotID)
	if err != nil {
		return res, fmt.Errorf("loading snapshot: %w", err)
	}
	res.Current = current

	metrics, err := db.GetSquadMetrics(snapshotID, squadID)
	if err != nil {
		return res, fmt.Errorf("loading metrics for %s: %w", squadID, err)
	}
	res.Metrics = store.MetricMap(metrics)

	prev, err := db.GetPreviousSquadSnapshot(squadID, snapshotID)
	if err != nil {
		return res, fmt.Errorf("loading previous snapshot for %s: %w", squadID, err)
	}
	if prev == nil {
		return res, nil
	}
	res.Previous = prev

	prevMetrics, err := db.GetSquadMetrics(prev.ID, squadID)
	if err != nil {
		return res, fmt.Errorf("loading previous metrics for %s: %w", squadID, err)
	}
	res.Deltas = computeDeltas(store.MetricMap(prevMetrics), res.Metrics)
	return res, nil
}

// computeDeltas returns curr-prev for metrics present in both.
func computeDeltas(prev, curr map[string]float64) map[string]float64 {
	deltas := make(map[string]float64)
	for name, value := range curr {
		if old, ok := prev[name]; ok {
			deltas[name] = value - old
		}
	}
	return deltas
}

func renderTrack(results []trackResult) {
	for _, res := range results {
		title := "Track · " + res.SquadID
		fmt.Println(output.Section(title))
		if res.Previous == nil {
			fmt.Println(output.StyleMuted.Render(" First snapshot for this squad; run track again later to see trends."))
		} else {
			fmt.Println(output.StyleMuted.Render(" Compared with snapshot of " + res.Previous.TakenAt.Format("2006-01-02 15:04")))
		}
		fmt.Println()

		tbl := output.NewTable("Metric", "Value", "Trend")
		for _, m := range trackedMetrics {
			trend := output.StyleMuted.Render("n/a")
			if d, ok := res.Deltas[m.name]; ok {
				trend = output.TrendArrow(d, true)
			}
			tbl.AddRow(m.label, fmt.Sprintf("%.0f", res.Metrics[m.name]), trend)
		}
		printIndented(tbl.Render())
		fmt.Println()
	}
}
