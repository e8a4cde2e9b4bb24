// Package analyzer provides the scheduling analytics: optimal time slots,
// availability coverage, no-show risk, cohesion, and squad health.
//
// Every function here is a pure computation over records already fetched
// from a squad.Repository. Fetching, timeouts and fallbacks live in the
// engine package.
package analyzer

import "github.com/blackwell-systems/squadpulse/internal/squad"

// OptimalTime is the historically best day and time for a squad.
type OptimalTime struct {
	// BestDay is the day label with the highest yes rate.
	BestDay string `json:"best_day"`

	// BestTime is the "HH:MM" bucket with the highest yes rate.
	BestTime string `json:"best_time"`

	// Confidence is 0-100, saturating at ConfidenceSaturation sessions.
	Confidence int `json:"confidence"`

	// AttendanceRate is the best day's yes rate as a 0-100 percentage.
	AttendanceRate int `json:"attendance_rate"`

	// SessionsAnalyzed is the number of sessions that contributed.
	SessionsAnalyzed int `json:"sessions_analyzed"`

	// Slots is the day x hour breakdown, ordered by day then hour.
	Slots []TimeSlotStat `json:"slots,omitempty"`
}

// TimeSlotStat aggregates responses for one weekday and hour of day.
type TimeSlotStat struct {
	Day            string `json:"day"`
	Hour           int    `json:"hour"`
	TotalResponses int    `json:"total_responses"`
	YesResponses   int    `json:"yes_responses"`
}

// Rate returns the yes rate of the slot as a fraction.
func (s TimeSlotStat) Rate() float64 {
	if s.TotalResponses == 0 {
		return 0
	}
	return float64(s.YesResponses) / float64(s.TotalResponses)
}

// Coverage ranks candidate slots by the share of the squad available.
type Coverage struct {
	// OptimalSlots holds at most MaxCoverageSlots entries, best first.
	OptimalSlots []CoverageSlot `json:"optimal_slots"`

	// AverageCoverage is the rounded mean coverage of OptimalSlots.
	AverageCoverage int `json:"average_coverage"`

	// Grid is the highest coverage percent per [weekday][hour] cell.
	Grid [7][24]int `json:"grid"`
}

// CoverageSlot is one candidate (date, start time) and its coverage.
type CoverageSlot struct {
	Date             string `json:"date"`
	Time             string `json:"time"`
	AvailableMembers int    `json:"available_members"`
	CoveragePercent  int    `json:"coverage_percent"`
}

// NoShowPrediction is the estimated chance a member misses a session.
type NoShowPrediction struct {
	UserID   string         `json:"user_id"`
	Username string         `json:"username"`
	Response squad.Response `json:"response"`

	// Probability is the rounded 0-100 percentage shown to users.
	Probability int `json:"probability"`

	// Fraction is the unrounded probability in [0,1].
	Fraction float64 `json:"fraction"`

	Risk            RiskLevel `json:"risk"`
	ReliabilityTier string    `json:"reliability_tier"`
}

// RiskLevel buckets a no-show probability for display.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Cohesion scores how consistently members play together.
type Cohesion struct {
	Score       int         `json:"score"`
	TopPairs    []PairStats `json:"top_pairs"`
	Suggestions []string    `json:"suggestions"`

	// SessionsAnalyzed is the number of completed sessions examined.
	SessionsAnalyzed int `json:"sessions_analyzed"`
}

// PairStats counts sessions two members both attended. User1 < User2.
type PairStats struct {
	User1            string `json:"user1"`
	User2            string `json:"user2"`
	SessionsTogether int    `json:"sessions_together"`
}

// Priority ranks insights and recommendations for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities: high=1, medium=2, low=3, unknown=4.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Health is the overall squad health assessment.
type Health struct {
	Score    int       `json:"health_score"`
	Insights []Insight `json:"insights"`
	Activity Activity  `json:"activity"`
}

// Insight is one detected problem and the canned actions that address it.
type Insight struct {
	Type            InsightType `json:"type"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Priority        Priority    `json:"priority"`
	Penalty         int         `json:"penalty"`
	Recommendations []string    `json:"recommendations"`
}

// InsightType keys the fixed recommendation table.
type InsightType string

const (
	InsightAttendance      InsightType = "attendance"
	InsightEngagement      InsightType = "engagement"
	InsightInactiveMembers InsightType = "inactive_members"
)
