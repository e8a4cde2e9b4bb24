package squad

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Dataset is the on-disk JSON export of a squad's history. Dates use
// YYYY-MM-DD, times use HH:MM, timestamps use RFC3339.
type Dataset struct {
	Squads       []DatasetSquad        `json:"squads"`
	Members      []DatasetMember       `json:"members"`
	Sessions     []DatasetSession      `json:"sessions"`
	Availability []DatasetAvailability `json:"availability"`
	Messages     []DatasetMessage      `json:"messages"`
}

// DatasetSquad lists a squad and its member ids.
type DatasetSquad struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Members []string `json:"members"`
}

// DatasetMember is a member profile as exported.
type DatasetMember struct {
	UserID           string   `json:"user_id"`
	Username         string   `json:"username"`
	ReliabilityScore *float64 `json:"reliability_score,omitempty"`
	LastActiveAt     string   `json:"last_active_at,omitempty"`
}

// DatasetSession is a session as exported.
type DatasetSession struct {
	ID            string `json:"id,omitempty"`
	SquadID       string `json:"squad_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
	RSVPs         []RSVP `json:"rsvps"`
}

// DatasetAvailability is an availability slot as exported.
type DatasetAvailability struct {
	UserID      string `json:"user_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

// DatasetMessage is a chat message timestamp.
type DatasetMessage struct {
	SquadID   string `json:"squad_id"`
	CreatedAt string `json:"created_at"`
}

// LoadDataset reads and decodes a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", path, err)
	}
	return &ds, nil
}

// ToSession converts an exported session. Unparseable dates or times are
// left missing so analyzers skip the record; sessions without an id get a
// generated one.
func (d DatasetSession) ToSession() Session {
	s := Session{
		ID:      d.ID,
		SquadID: d.SquadID,
		Status:  Status(d.Status),
		RSVPs:   append([]RSVP(nil), d.RSVPs...),
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if date, err := ParseDate(d.ScheduledDate); err == nil {
		s.ScheduledDate = date
	}
	if t, err := ParseTimeOfDay(d.ScheduledTime); err == nil {
		s.ScheduledTime = &t
	}
	return s
}

// ToMember converts an exported member profile.
func (d DatasetMember) ToMember() Member {
	m := Member{
		UserID:           d.UserID,
		Username:         d.Username,
		ReliabilityScore: d.ReliabilityScore,
	}
	if t, err := time.Parse(time.RFC3339, d.LastActiveAt); err == nil {
		m.LastActiveAt = t
	}
	return m
}

// ToSlot converts an exported availability slot. ok is false when the date
// or start time cannot be parsed.
func (d DatasetAvailability) ToSlot() (AvailabilitySlot, bool) {
	date, err := ParseDate(d.Date)
	if err != nil {
		return AvailabilitySlot{}, false
	}
	start, err := ParseTimeOfDay(d.StartTime)
	if err != nil {
		return AvailabilitySlot{}, false
	}
	end, err := ParseTimeOfDay(d.EndTime)
	if err != nil {
		end = start
	}
	return AvailabilitySlot{
		UserID:      d.UserID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: d.IsAvailable,
	}, true
}

// Repository builds an in-memory repository from the dataset. Records that
// cannot be parsed are dropped and counted in skipped.
func (ds *Dataset) Repository() (repo *MemoryRepository, skipped int) {
	repo = NewMemoryRepository()
	for _, sq := range ds.Squads {
		repo.AddSquad(sq.ID, sq.Members...)
	}
	for _, m := range ds.Members {
		if m.UserID == "" {
			skipped++
			continue
		}
		repo.AddMember(m.ToMember())
	}
	for _, s := range ds.Sessions {
		repo.AddSession(s.ToSession())
	}
	for _, a := range ds.Availability {
		slot, ok := a.ToSlot()
		if !ok {
			skipped++
			continue
		}
		repo.AddSlot(slot)
	}
	for _, msg := range ds.Messages {
		at, err := time.Parse(time.RFC3339, msg.CreatedAt)
		if err != nil {
			skipped++
			continue
		}
		repo.AddMessage(msg.SquadID, at)
	}
	return repo, skipped
}
