package squad

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Repository supplies read-only snapshots of squad data. Implementations must
// be safe for concurrent use; the engine calls them from several goroutines.
type Repository interface {
	// Sessions returns up to limit sessions of the squad, newest scheduled
	// date first. An empty statuses slice means every status. A limit of 0
	// or less means no limit.
	Sessions(ctx context.Context, squadID string, statuses []Status, limit int) ([]Session, error)

	// Session returns a single session with its RSVPs, or ErrNotFound.
	Session(ctx context.Context, sessionID string) (Session, error)

	// Members returns the squad's member profiles.
	Members(ctx context.Context, squadID string) ([]Member, error)

	// AvailabilitySlots returns the slots declared by the given members with
	// a date in [start, end].
	AvailabilitySlots(ctx context.Context, memberIDs []string, start, end time.Time) ([]AvailabilitySlot, error)

	// RecentMessageCount returns the number of chat messages posted in the
	// squad at or after since.
	RecentMessageCount(ctx context.Context, squadID string, since time.Time) (int, error)
}

// MemberIDs extracts the user ids of members in order.
func MemberIDs(members []Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// statusSet turns a status filter into a lookup; nil means "all".
func statusSet(statuses []Status) map[Status]bool {
	if len(statuses) == 0 {
		return nil
	}
	set := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// Roster is the set of user ids belonging to a squad. A nil Roster admits
// every user.
type Roster map[string]bool

// NewRoster builds the roster of members. The result is never nil, so an
// empty member list admits nobody.
func NewRoster(members []Member) Roster {
	r := make(Roster, len(members))
	for _, m := range members {
		r[m.UserID] = true
	}
	return r
}

// Admits reports whether userID belongs to the roster.
func (r Roster) Admits(userID string) bool {
	return r == nil || r[userID]
}

// RSVPs returns the session's distinct RSVPs from roster members, in
// recorded order.
func (r Roster) RSVPs(s Session) []RSVP {
	distinct := s.DistinctRSVPs()
	if r == nil {
		return distinct
	}
	out := distinct[:0:0]
	for _, rsvp := range distinct {
		if r.Admits(rsvp.UserID) {
			out = append(out, rsvp)
		}
	}
	return out
}
