package store

import (
	"database/sql"
	"time"
)

// Tracked metric names.
const (
	MetricHealth     = "health_score"
	MetricCohesion   = "cohesion_score"
	MetricConfidence = "optimal_confidence"
	MetricAttendance = "attendance_rate"
	MetricCoverage   = "average_coverage"
)

// CreateSnapshot inserts a new snapshot taken at the given instant and
// returns its ID.
func (db *DB) CreateSnapshot(command, version string, takenAt time.Time) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO snapshots (taken_at, command, version) VALUES (?, ?, ?)",
		takenAt.UTC().Format(time.RFC3339), command, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetSnapshot returns a snapshot by ID.
func (db *DB) GetSnapshot(id int64) (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT id, taken_at, command, version FROM snapshots WHERE id = ?", id)
	return scanSnapshot(row)
}

// GetPreviousSquadSnapshot returns the most recent snapshot older than
// before that recorded metrics for the squad, or nil if there is none.
func (db *DB) GetPreviousSquadSnapshot(squadID string, before int64) (*Snapshot, error) {
	row := db.conn.QueryRow(
		`SELECT s.id, s.taken_at, s.command, s.version FROM snapshots s
		 WHERE s.id < ? AND EXISTS (
		   SELECT 1 FROM squad_metrics m WHERE m.snapshot_id = s.id AND m.squad_id = ?)
		 ORDER BY s.id DESC LIMIT 1`,
		before, squadID,
	)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.Command, &s.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// InsertSquadMetric records a named metric for a squad in a snapshot.
func (db *DB) InsertSquadMetric(snapshotID int64, squadID, name string, value float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO squad_metrics (snapshot_id, squad_id, metric_name, metric_value) VALUES (?, ?, ?, ?)",
		snapshotID, squadID, name, value,
	)
	return err
}

// GetSquadMetrics returns all metrics recorded for a squad in a snapshot.
func (db *DB) GetSquadMetrics(snapshotID int64, squadID string) ([]SquadMetric, error) {
	rows, err := db.conn.Query(
		`SELECT id, snapshot_id, squad_id, metric_name, metric_value FROM squad_metrics
		 WHERE snapshot_id = ? AND squad_id = ? ORDER BY id`,
		snapshotID, squadID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []SquadMetric
	for rows.Next() {
		var m SquadMetric
		if err := rows.Scan(&m.ID, &m.SnapshotID, &m.SquadID, &m.MetricName, &m.MetricValue); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// MetricMap indexes metrics by name.
func MetricMap(metrics []SquadMetric) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		out[m.MetricName] = m.MetricValue
	}
	return out
}
