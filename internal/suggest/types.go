// Package suggest provides the recommendation engine and rule types.
package suggest

import (
	"time"

	"github.com/blackwell-systems/squadpulse/internal/analyzer"
)

// Recommendation types.
const (
	TypeOptimalTime     = "optimal_time"
	TypeWeekendReminder = "weekend_reminder"
	TypeActivityBoost   = "activity_boost"
)

// Recommendation is a user-facing suggestion with an optional action payload.
type Recommendation struct {
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ActionLabel string            `json:"action_label"`
	Data        map[string]string `json:"data,omitempty"`
	Priority    analyzer.Priority `json:"priority"`
}

// Context provides all data needed by rules to generate recommendations.
// It is populated by the orchestration layer with a single "now" so that
// every rule in one run sees the same calendar.
type Context struct {
	// Now is the reference instant for calendar checks.
	Now time.Time `json:"now"`

	// OptimalTime is the TimeSlot analyzer result for the squad.
	OptimalTime analyzer.OptimalTime `json:"optimal_time"`

	// RecentSessions is the number of sessions, in any state, scheduled in
	// the trailing ActivityWindowDays.
	RecentSessions int `json:"recent_sessions"`
}

// Rule is a function that examines the context and produces zero or more
// recommendations.
type Rule func(ctx *Context) []Recommendation
