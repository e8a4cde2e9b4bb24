// Package store provides SQLite access for squad history, snapshots and
// tracked squad metrics.
package store

import "time"

// Snapshot represents a point-in-time capture of squad metrics.
type Snapshot struct {
	ID      int64     `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Command string    `json:"command"`
	Version string    `json:"version"`
}

// SquadMetric is one named score recorded for a squad in a snapshot.
type SquadMetric struct {
	ID          int64   `json:"id"`
	SnapshotID  int64   `json:"snapshot_id"`
	SquadID     string  `json:"squad_id"`
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
}

// ImportStats counts what ImportDataset wrote and what it dropped.
type ImportStats struct {
	Squads   int `json:"squads"`
	Members  int `json:"members"`
	Sessions int `json:"sessions"`
	RSVPs    int `json:"rsvps"`
	Slots    int `json:"slots"`
	Messages int `json:"messages"`
	Skipped  int `json:"skipped"`
}

// timestampLayout is the stored instant format. Values are always UTC so
// they compare correctly as strings.
const timestampLayout = "2006-01-02T15:04:05Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
