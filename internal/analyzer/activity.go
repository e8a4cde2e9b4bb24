package analyzer

import (
	"math"
	"time"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// WarningAfterDays is how long a member can go unseen before being flagged.
const WarningAfterDays = 7

// TrendWindowDays is the length of each window compared by the session trend.
const TrendWindowDays = 14

// ActivityStatus classifies how recently a member was seen.
type ActivityStatus string

const (
	StatusActive   ActivityStatus = "active"
	StatusWarning  ActivityStatus = "warning"
	StatusInactive ActivityStatus = "inactive"
)

// Trend compares session volume across two consecutive windows.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Activity is the roster breakdown reported alongside the health score.
type Activity struct {
	Members []MemberActivity `json:"members"`

	Active   int `json:"active"`
	Warning  int `json:"warning"`
	Inactive int `json:"inactive"`

	// Stability is the share of the roster still around, counting warning
	// members as half: round((active + warning/2) / members * 100).
	Stability int `json:"stability"`

	// AverageAttendance is the mean per-member yes rate over the attendance
	// window, 0-100. Members with no sessions to attend count as 100.
	AverageAttendance int `json:"average_attendance"`

	AverageReliability int `json:"average_reliability"`

	// Trend compares sessions scheduled in the last TrendWindowDays with
	// the TrendWindowDays before.
	Trend Trend `json:"trend"`
}

// MemberActivity is one member's recency and attendance.
type MemberActivity struct {
	UserID   string         `json:"user_id"`
	Username string         `json:"username"`
	Status   ActivityStatus `json:"status"`

	// DaysSinceActive is whole days since last seen, or -1 if never seen.
	DaysSinceActive int `json:"days_since_active"`

	SessionsAttended int `json:"sessions_attended"`
	TotalSessions    int `json:"total_sessions"`
}

// MemberStatus classifies m as of now. A member never seen is inactive.
func MemberStatus(m squad.Member, now time.Time) ActivityStatus {
	switch {
	case IsInactive(m, now.AddDate(0, 0, -InactiveAfterDays)):
		return StatusInactive
	case m.LastActiveAt.Before(now.AddDate(0, 0, -WarningAfterDays)):
		return StatusWarning
	default:
		return StatusActive
	}
}

// AnalyzeActivity breaks the roster down by recency and attendance over the
// attendance window, and measures the session trend.
func AnalyzeActivity(in HealthInput) Activity {
	window := recentSessions(in.Sessions, in.Now)

	a := Activity{
		Members:            make([]MemberActivity, 0, len(in.Members)),
		Stability:          100,
		AverageAttendance:  100,
		AverageReliability: 100,
		Trend:              sessionTrend(window, in.Now),
	}
	if len(in.Members) == 0 {
		return a
	}

	var attendance, reliability float64
	for _, m := range in.Members {
		ma := MemberActivity{
			UserID:          m.UserID,
			Username:        m.Username,
			Status:          MemberStatus(m, in.Now),
			DaysSinceActive: -1,
			TotalSessions:   len(window),
		}
		if !m.LastActiveAt.IsZero() {
			ma.DaysSinceActive = int(in.Now.Sub(m.LastActiveAt).Hours() / 24)
		}
		for _, s := range window {
			if attended(s, m.UserID) {
				ma.SessionsAttended++
			}
		}

		switch ma.Status {
		case StatusActive:
			a.Active++
		case StatusWarning:
			a.Warning++
		default:
			a.Inactive++
		}

		if ma.TotalSessions > 0 {
			attendance += float64(ma.SessionsAttended) / float64(ma.TotalSessions) * 100
		} else {
			attendance += 100
		}
		reliability += m.Reliability()
		a.Members = append(a.Members, ma)
	}

	n := float64(len(in.Members))
	a.AverageAttendance = int(math.Round(attendance / n))
	a.AverageReliability = int(math.Round(reliability / n))
	a.Stability = int(math.Round((float64(a.Active) + float64(a.Warning)*0.5) / n * 100))
	return a
}

// recentSessions returns the dated sessions inside the attendance window.
func recentSessions(sessions []squad.Session, now time.Time) []squad.Session {
	cutoff := squad.Date(now).AddDate(0, 0, -AttendanceWindowDays)
	var out []squad.Session
	for _, s := range sessions {
		if s.ScheduledDate.IsZero() || s.ScheduledDate.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func attended(s squad.Session, userID string) bool {
	for _, r := range s.DistinctRSVPs() {
		if r.UserID == userID {
			return r.Response == squad.ResponseYes
		}
	}
	return false
}

func sessionTrend(sessions []squad.Session, now time.Time) Trend {
	today := squad.Date(now)
	split := today.AddDate(0, 0, -TrendWindowDays)
	start := today.AddDate(0, 0, -2*TrendWindowDays)

	var recent, older int
	for _, s := range sessions {
		switch {
		case !s.ScheduledDate.Before(split):
			recent++
		case !s.ScheduledDate.Before(start):
			older++
		}
	}
	switch {
	case recent > older:
		return TrendUp
	case recent < older:
		return TrendDown
	default:
		return TrendStable
	}
}
