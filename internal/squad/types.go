// Package squad defines the read-only records the analytics engine consumes
// and the Repository interface that supplies them.
package squad

import "time"

// Status is the lifecycle state of a scheduled session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known session states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Response is a member's answer to a session proposal.
type Response string

const (
	ResponseYes   Response = "yes"
	ResponseNo    Response = "no"
	ResponseMaybe Response = "maybe"
)

// Valid reports whether r is one of the known responses.
func (r Response) Valid() bool {
	switch r {
	case ResponseYes, ResponseNo, ResponseMaybe:
		return true
	}
	return false
}

// Session is a scheduled play session and the responses collected for it.
type Session struct {
	ID      string `json:"id"`
	SquadID string `json:"squad_id"`

	// ScheduledDate is the calendar date at midnight UTC. The zero value
	// means the date is missing.
	ScheduledDate time.Time `json:"scheduled_date"`

	// ScheduledTime is nil when the source record has no time of day.
	ScheduledTime *TimeOfDay `json:"scheduled_time,omitempty"`

	Status Status `json:"status"`
	RSVPs  []RSVP `json:"rsvps"`
}

// HasSchedule reports whether both the date and the time of day are known.
func (s Session) HasSchedule() bool {
	return !s.ScheduledDate.IsZero() && s.ScheduledTime != nil
}

// DistinctRSVPs returns the session's responses with later duplicates for
// the same user dropped, preserving first-seen order.
func (s Session) DistinctRSVPs() []RSVP {
	seen := make(map[string]bool, len(s.RSVPs))
	out := make([]RSVP, 0, len(s.RSVPs))
	for _, r := range s.RSVPs {
		if r.UserID == "" || seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		out = append(out, r)
	}
	return out
}

// RSVP is one member's response to a session.
type RSVP struct {
	UserID   string   `json:"user_id"`
	Response Response `json:"response"`
	Note     string   `json:"note,omitempty"`
}

// AvailabilitySlot is a window a member declared for a given date.
type AvailabilitySlot struct {
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
}

// Member is a squad member's profile as seen by the engine.
type Member struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`

	// ReliabilityScore is maintained outside the engine on a 0-100 scale.
	// Nil means no score has been computed yet.
	ReliabilityScore *float64 `json:"reliability_score,omitempty"`

	// LastActiveAt is the zero time when the member has never been seen.
	LastActiveAt time.Time `json:"last_active_at"`
}

// DefaultReliability is assumed for members without a score.
const DefaultReliability = 100.0

// Reliability returns the member's score clamped to [0,100], falling back to
// DefaultReliability when none is recorded.
func (m Member) Reliability() float64 {
	if m.ReliabilityScore == nil {
		return DefaultReliability
	}
	v := *m.ReliabilityScore
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Score is a convenience for building a *float64 reliability score.
func Score(v float64) *float64 {
	return &v
}

// DayNames are the weekday labels shown to squads, indexed by time.Weekday.
var DayNames = [7]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

// DayName returns the label for a weekday.
func DayName(d time.Weekday) string {
	return DayNames[d]
}

// Date truncates t to a calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date. Longer RFC3339 timestamps are accepted
// and truncated to their date.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return Date(t), nil
		}
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}
