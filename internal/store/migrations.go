package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS squads (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS members (
			user_id           TEXT PRIMARY KEY,
			username          TEXT NOT NULL DEFAULT '',
			reliability_score REAL,
			last_active_at    TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS squad_members (
			squad_id TEXT NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
			user_id  TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (squad_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id             TEXT PRIMARY KEY,
			squad_id       TEXT NOT NULL,
			scheduled_date TEXT,
			scheduled_time TEXT,
			status         TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS rsvps (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL,
			response   TEXT NOT NULL,
			note       TEXT,
			position   INTEGER NOT NULL,
			PRIMARY KEY (session_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS availability_slots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL,
			date         TEXT NOT NULL,
			start_time   TEXT NOT NULL,
			end_time     TEXT NOT NULL,
			is_available BOOLEAN NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			squad_id TEXT NOT NULL,
			sent_at  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at    TEXT NOT NULL,
			command     TEXT NOT NULL,
			version     TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS squad_metrics (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id  INTEGER NOT NULL REFERENCES snapshots(id),
			squad_id     TEXT NOT NULL,
			metric_name  TEXT NOT NULL,
			metric_value REAL NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_sessions_squad_date ON sessions(squad_id, scheduled_date)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_user_date ON availability_slots(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_squad_sent ON messages(squad_id, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_squad_metrics_snapshot ON squad_metrics(snapshot_id, squad_id)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
