package squad

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository backed by plain maps. It
// serves datasets loaded from JSON files and deterministic tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	squads   map[string][]string // squad id -> member user ids
	members  map[string]Member
	sessions map[string]Session
	slots    []AvailabilitySlot
	messages map[string][]time.Time // squad id -> message timestamps
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		squads:   make(map[string][]string),
		members:  make(map[string]Member),
		sessions: make(map[string]Session),
		messages: make(map[string][]time.Time),
	}
}

// AddSquad registers a squad with the given member ids. Calling it again for
// the same squad appends members that are not already present.
func (r *MemoryRepository) AddSquad(squadID string, memberIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.squads[squadID]
	for _, id := range memberIDs {
		if !contains(existing, id) {
			existing = append(existing, id)
		}
	}
	r.squads[squadID] = existing
}

// AddMember stores or replaces a member profile.
func (r *MemoryRepository) AddMember(m Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.UserID] = m
}

// AddSession stores or replaces a session.
func (r *MemoryRepository) AddSession(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = copySession(s)
}

// AddSlot stores an availability slot.
func (r *MemoryRepository) AddSlot(s AvailabilitySlot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = append(r.slots, s)
}

// AddMessage records a chat message posted at the given time.
func (r *MemoryRepository) AddMessage(squadID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[squadID] = append(r.messages[squadID], at)
}

// SquadIDs returns every registered squad id, sorted.
func (r *MemoryRepository) SquadIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.squads))
	for id := range r.squads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sessions implements Repository.
func (r *MemoryRepository) Sessions(ctx context.Context, squadID string, statuses []Status, limit int) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter := statusSet(statuses)
	var out []Session
	for _, s := range r.sessions {
		if s.SquadID != squadID {
			continue
		}
		if filter != nil && !filter[s.Status] {
			continue
		}
		out = append(out, copySession(s))
	}
	SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Session implements Repository.
func (r *MemoryRepository) Session(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return copySession(s), nil
}

// Members implements Repository. Member ids registered on the squad without
// a stored profile are returned with only their id set.
func (r *MemoryRepository) Members(ctx context.Context, squadID string) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.squads[squadID]
	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		m, ok := r.members[id]
		if !ok {
			m = Member{UserID: id}
		}
		out = append(out, m)
	}
	return out, nil
}

// AvailabilitySlots implements Repository.
func (r *MemoryRepository) AvailabilitySlots(ctx context.Context, memberIDs []string, start, end time.Time) ([]AvailabilitySlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	start, end = Date(start), Date(end)
	var out []AvailabilitySlot
	for _, s := range r.slots {
		if !contains(memberIDs, s.UserID) {
			continue
		}
		d := Date(s.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// RecentMessageCount implements Repository.
func (r *MemoryRepository) RecentMessageCount(ctx context.Context, squadID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, at := range r.messages[squadID] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

// SortNewestFirst orders sessions by scheduled date then time, newest first,
// with the session id as a final tie-break. Sessions without a time sort
// after timed sessions on the same date.
func SortNewestFirst(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.After(b.ScheduledDate)
		}
		switch {
		case a.ScheduledTime != nil && b.ScheduledTime == nil:
			return true
		case a.ScheduledTime == nil && b.ScheduledTime != nil:
			return false
		case a.ScheduledTime != nil && *a.ScheduledTime != *b.ScheduledTime:
			return b.ScheduledTime.Before(*a.ScheduledTime)
		}
		return a.ID < b.ID
	})
}

func copySession(s Session) Session {
	s.RSVPs = append([]RSVP(nil), s.RSVPs...)
	if s.ScheduledTime != nil {
		t := *s.ScheduledTime
		s.ScheduledTime = &t
	}
	return s
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
