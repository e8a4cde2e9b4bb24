package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// ImportDataset writes a dataset into the database in a single transaction.
// Existing squads, members and sessions with the same ids are replaced;
// slots and messages are appended. Records that cannot be parsed are
// skipped and counted.
func (db *DB) ImportDataset(ctx context.Context, ds *squad.Dataset) (ImportStats, error) {
	var stats ImportStats

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sq := range ds.Squads {
		if sq.ID == "" {
			stats.Skipped++
			continue
		}
		if err := upsertSquad(ctx, tx, sq.ID, sq.Name); err != nil {
			return stats, err
		}
		for i, userID := range sq.Members {
			if userID == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO squad_members (squad_id, user_id, position) VALUES (?, ?, ?)",
				sq.ID, userID, i,
			); err != nil {
				return stats, fmt.Errorf("insert squad member %s/%s: %w", sq.ID, userID, err)
			}
		}
		stats.Squads++
	}

	for _, dm := range ds.Members {
		if dm.UserID == "" {
			stats.Skipped++
			continue
		}
		m := dm.ToMember()
		var lastActive any
		if !m.LastActiveAt.IsZero() {
			lastActive = formatTimestamp(m.LastActiveAt)
		}
		var reliability any
		if m.ReliabilityScore != nil {
			reliability = *m.ReliabilityScore
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members (user_id, username, reliability_score, last_active_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
			   username = excluded.username,
			   reliability_score = excluded.reliability_score,
			   last_active_at = excluded.last_active_at`,
			m.UserID, m.Username, reliability, lastActive,
		); err != nil {
			return stats, fmt.Errorf("insert member %s: %w", m.UserID, err)
		}
		stats.Members++
	}

	for _, dsess := range ds.Sessions {
		if dsess.SquadID == "" {
			stats.Skipped++
			continue
		}
		s := dsess.ToSession()
		if err := upsertSquad(ctx, tx, s.SquadID, ""); err != nil {
			return stats, err
		}
		n, err := insertSession(ctx, tx, s)
		if err != nil {
			return stats, err
		}
		stats.Sessions++
		stats.RSVPs += n
	}

	for _, da := range ds.Availability {
		slot, ok := da.ToSlot()
		if !ok || slot.UserID == "" {
			stats.Skipped++
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO availability_slots (user_id, date, start_time, end_time, is_available)
			 VALUES (?, ?, ?, ?, ?)`,
			slot.UserID, slot.Date.Format(squad.DateLayout),
			slot.StartTime.String(), slot.EndTime.String(), slot.IsAvailable,
		); err != nil {
			return stats, fmt.Errorf("insert availability for %s: %w", slot.UserID, err)
		}
		stats.Slots++
	}

	for _, msg := range ds.Messages {
		at, err := time.Parse(time.RFC3339, msg.CreatedAt)
		if err != nil || msg.SquadID == "" {
			stats.Skipped++
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (squad_id, sent_at) VALUES (?, ?)",
			msg.SquadID, formatTimestamp(at),
		); err != nil {
			return stats, fmt.Errorf("insert message: %w", err)
		}
		stats.Messages++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}

func upsertSquad(ctx context.Context, tx *sql.Tx, id, name string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO squads (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = CASE WHEN excluded.name = '' THEN squads.name ELSE excluded.name END`,
		id, name,
	)
	if err != nil {
		return fmt.Errorf("insert squad %s: %w", id, err)
	}
	return nil
}

// insertSession replaces a session and its RSVPs. Duplicate RSVPs from the
// same user keep the first response. It returns the number of RSVPs stored.
func insertSession(ctx context.Context, tx *sql.Tx, s squad.Session) (int, error) {
	var date, tod any
	if !s.ScheduledDate.IsZero() {
		date = s.ScheduledDate.Format(squad.DateLayout)
	}
	if s.ScheduledTime != nil {
		tod = s.ScheduledTime.String()
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM rsvps WHERE session_id = ?", s.ID); err != nil {
		return 0, fmt.Errorf("clear rsvps for %s: %w", s.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, squad_id, scheduled_date, scheduled_time, status)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   squad_id = excluded.squad_id,
		   scheduled_date = excluded.scheduled_date,
		   scheduled_time = excluded.scheduled_time,
		   status = excluded.status`,
		s.ID, s.SquadID, date, tod, string(s.Status),
	); err != nil {
		return 0, fmt.Errorf("insert session %s: %w", s.ID, err)
	}

	stored := 0
	for i, r := range s.DistinctRSVPs() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rsvps (session_id, user_id, response, note, position) VALUES (?, ?, ?, ?, ?)`,
			s.ID, r.UserID, string(r.Response), r.Note, i,
		); err != nil {
			return stored, fmt.Errorf("insert rsvp %s/%s: %w", s.ID, r.UserID, err)
		}
		stored++
	}
	return stored, nil
}
