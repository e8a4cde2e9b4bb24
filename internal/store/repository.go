package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

var _ squad.Repository = (*DB)(nil)

// Sessions implements squad.Repository. Ordering matches
// squad.SortNewestFirst: newest date first, undated last, timed before
// untimed on the same date, then id.
func (db *DB) Sessions(ctx context.Context, squadID string, statuses []squad.Status, limit int) ([]squad.Session, error) {
	query := `SELECT id, squad_id, scheduled_date, scheduled_time, status
		FROM sessions WHERE squad_id = ?`
	args := []any{squadID}
	if len(statuses) > 0 {
		query += " AND status IN (" + placeholders(len(statuses)) + ")"
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY scheduled_date IS NULL, scheduled_date DESC,
		scheduled_time IS NULL, scheduled_time DESC, id ASC`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions for %s: %w", squadID, err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []squad.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.attachRSVPs(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Session implements squad.Repository.
func (db *DB) Session(ctx context.Context, sessionID string) (squad.Session, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, squad_id, scheduled_date, scheduled_time, status FROM sessions WHERE id = ?`,
		sessionID,
	)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return squad.Session{}, fmt.Errorf("session %s: %w", sessionID, squad.ErrNotFound)
	}
	if err != nil {
		return squad.Session{}, fmt.Errorf("query session %s: %w", sessionID, err)
	}

	one := []squad.Session{s}
	if err := db.attachRSVPs(ctx, one); err != nil {
		return squad.Session{}, err
	}
	return one[0], nil
}

// Members implements squad.Repository. Members without a stored profile
// are returned with only their id set.
func (db *DB) Members(ctx context.Context, squadID string) ([]squad.Member, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT sm.user_id, COALESCE(m.username, ''), m.reliability_score, m.last_active_at
		 FROM squad_members sm LEFT JOIN members m ON m.user_id = sm.user_id
		 WHERE sm.squad_id = ? ORDER BY sm.position`,
		squadID,
	)
	if err != nil {
		return nil, fmt.Errorf("query members for %s: %w", squadID, err)
	}
	defer func() { _ = rows.Close() }()

	members := []squad.Member{}
	for rows.Next() {
		var m squad.Member
		var reliability sql.NullFloat64
		var lastActive sql.NullString
		if err := rows.Scan(&m.UserID, &m.Username, &reliability, &lastActive); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if reliability.Valid {
			m.ReliabilityScore = squad.Score(reliability.Float64)
		}
		if lastActive.Valid {
			m.LastActiveAt = parseTimestamp(lastActive.String)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AvailabilitySlots implements squad.Repository.
func (db *DB) AvailabilitySlots(ctx context.Context, memberIDs []string, start, end time.Time) ([]squad.AvailabilitySlot, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	args := []any{squad.Date(start).Format(squad.DateLayout), squad.Date(end).Format(squad.DateLayout)}
	for _, id := range memberIDs {
		args = append(args, id)
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, date, start_time, end_time, is_available FROM availability_slots
		 WHERE date BETWEEN ? AND ? AND user_id IN (`+placeholders(len(memberIDs))+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []squad.AvailabilitySlot
	for rows.Next() {
		var (
			s                  squad.AvailabilitySlot
			date, startT, endT string
		)
		if err := rows.Scan(&s.UserID, &date, &startT, &endT, &s.IsAvailable); err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		d, err := squad.ParseDate(date)
		if err != nil {
			continue
		}
		st, err := squad.ParseTimeOfDay(startT)
		if err != nil {
			continue
		}
		s.Date = d
		s.StartTime = st
		s.EndTime, err = squad.ParseTimeOfDay(endT)
		if err != nil {
			s.EndTime = st
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// RecentMessageCount implements squad.Repository.
func (db *DB) RecentMessageCount(ctx context.Context, squadID string, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE squad_id = ? AND sent_at >= ?",
		squadID, formatTimestamp(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages for %s: %w", squadID, err)
	}
	return n, nil
}

// SquadIDs returns every stored squad id, sorted.
func (db *DB) SquadIDs(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id FROM squads ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query squads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (squad.Session, error) {
	var (
		s          squad.Session
		date, tod  sql.NullString
		statusText string
	)
	if err := row.Scan(&s.ID, &s.SquadID, &date, &tod, &statusText); err != nil {
		return squad.Session{}, err
	}
	s.Status = squad.Status(statusText)
	if date.Valid {
		if d, err := squad.ParseDate(date.String); err == nil {
			s.ScheduledDate = d
		}
	}
	if tod.Valid {
		if t, err := squad.ParseTimeOfDay(tod.String); err == nil {
			s.ScheduledTime = &t
		}
	}
	return s, nil
}

// attachRSVPs loads the RSVPs for sessions in one query, preserving the
// order they were recorded in.
func (db *DB) attachRSVPs(ctx context.Context, sessions []squad.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	index := make(map[string]int, len(sessions))
	args := make([]any, 0, len(sessions))
	for i, s := range sessions {
		index[s.ID] = i
		args = append(args, s.ID)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT session_id, user_id, response, COALESCE(note, '') FROM rsvps
		 WHERE session_id IN (`+placeholders(len(args))+`) ORDER BY session_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("query rsvps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var sessionID, response string
		var r squad.RSVP
		if err := rows.Scan(&sessionID, &r.UserID, &response, &r.Note); err != nil {
			return fmt.Errorf("scan rsvp: %w", err)
		}
		r.Response = squad.Response(response)
		i := index[sessionID]
		sessions[i].RSVPs = append(sessions[i].RSVPs, r)
	}
	return rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
