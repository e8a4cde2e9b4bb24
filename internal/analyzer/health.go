package analyzer

import (
	"fmt"
	"math"
	"time"

	"github.com/blackwell-systems/squadpulse/internal/squad"
)

// Health check windows and thresholds.
const (
	AttendanceWindowDays = 30
	EngagementWindowDays = 7
	InactiveAfterDays    = 14

	LowAttendanceRate   = 0.5
	MinWeeklyMessages   = 5
	MaxInactiveFraction = 0.3
)

// Penalties subtracted from a starting score of 100.
const (
	AttendancePenalty = 30
	EngagementPenalty = 20
	InactivePenalty   = 25
)

// insightRecommendations is the fixed action list for each insight type.
var insightRecommendations = map[InsightType][]string{
	InsightAttendance: {
		"Offer flexible scheduling with several candidate slots per week",
		"Send reminders 24 hours before each session",
		"Reward consistent attendance with badges",
	},
	InsightEngagement: {
		"Post discussion prompts about upcoming games",
		"Share clips, guides and highlights in the squad chat",
		"Organize a casual social event outside regular sessions",
	},
	InsightInactiveMembers: {
		"Reach out directly to members who have gone quiet",
		"Schedule sessions at times that match inactive members' availability",
		"Split into sub-groups by availability",
	},
}

// InsightRecommendations returns a copy of the canned actions for t.
func InsightRecommendations(t InsightType) []string {
	return append([]string(nil), insightRecommendations[t]...)
}

// HealthInput is everything AnalyzeHealth looks at. A nil MessageCount
// means the count is unknown and the engagement check is skipped.
type HealthInput struct {
	Now          time.Time
	Sessions     []squad.Session
	Members      []squad.Member
	MessageCount *int
}

// AnalyzeHealth starts from 100 and subtracts an independent penalty for
// each failing check: low recent attendance, a quiet chat, and too many
// inactive members. A check with no data to look at is skipped rather than
// failed. The score never drops below 0. Only RSVPs from in.Members count
// toward attendance.
func AnalyzeHealth(in HealthInput) Health {
	h := Health{Score: 100, Insights: []Insight{}, Activity: AnalyzeActivity(in)}

	if ins, ok := attendanceInsight(in); ok {
		h.add(ins)
	}
	if ins, ok := engagementInsight(in); ok {
		h.add(ins)
	}
	if ins, ok := inactivityInsight(in); ok {
		h.add(ins)
	}

	if h.Score < 0 {
		h.Score = 0
	}
	return h
}

func (h *Health) add(ins Insight) {
	ins.Recommendations = InsightRecommendations(ins.Type)
	h.Score -= ins.Penalty
	h.Insights = append(h.Insights, ins)
}

func attendanceInsight(in HealthInput) (Insight, bool) {
	roster := squad.NewRoster(in.Members)
	window := recentSessions(in.Sessions, in.Now)

	var total, yes int
	for _, s := range window {
		t, y := countResponses(s, roster)
		total += t
		yes += y
	}
	recent := len(window)
	if recent == 0 || total == 0 {
		return Insight{}, false
	}

	rate := float64(yes) / float64(total)
	if rate >= LowAttendanceRate {
		return Insight{}, false
	}
	return Insight{
		Type:     InsightAttendance,
		Title:    "Low attendance",
		Priority: PriorityHigh,
		Penalty:  AttendancePenalty,
		Description: fmt.Sprintf("Only %d%% of responses over the last %d days were yes (%d sessions).",
			int(math.Round(rate*100)), AttendanceWindowDays, recent),
	}, true
}

func engagementInsight(in HealthInput) (Insight, bool) {
	if in.MessageCount == nil || *in.MessageCount >= MinWeeklyMessages {
		return Insight{}, false
	}
	return Insight{
		Type:     InsightEngagement,
		Title:    "Low chat activity",
		Priority: PriorityMedium,
		Penalty:  EngagementPenalty,
		Description: fmt.Sprintf("%d messages in the last %d days (fewer than %d).",
			*in.MessageCount, EngagementWindowDays, MinWeeklyMessages),
	}, true
}

func inactivityInsight(in HealthInput) (Insight, bool) {
	if len(in.Members) == 0 {
		return Insight{}, false
	}
	cutoff := in.Now.AddDate(0, 0, -InactiveAfterDays)
	inactive := 0
	for _, m := range in.Members {
		if IsInactive(m, cutoff) {
			inactive++
		}
	}
	frac := float64(inactive) / float64(len(in.Members))
	if frac <= MaxInactiveFraction {
		return Insight{}, false
	}
	return Insight{
		Type:     InsightInactiveMembers,
		Title:    "Inactive members",
		Priority: PriorityMedium,
		Penalty:  InactivePenalty,
		Description: fmt.Sprintf("%d of %d members have not been active in the last %d days.",
			inactive, len(in.Members), InactiveAfterDays),
	}, true
}

// IsInactive reports whether the member was last seen before cutoff or has
// never been seen.
func IsInactive(m squad.Member, cutoff time.Time) bool {
	return m.LastActiveAt.IsZero() || m.LastActiveAt.Before(cutoff)
}
